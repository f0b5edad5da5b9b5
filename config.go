package skemaconf

import (
	"fmt"
	"os"
	"strings"

	"github.com/reoring/skemaconf/codec"
	"github.com/reoring/skemaconf/ir"
	"github.com/reoring/skemaconf/schema"
)

// Config owns one live configuration tree for one schema. Default trees are
// synthesized lazily and cached per instance. Config assumes a single
// writer: Load and the lazy caches mutate the instance, so concurrent use
// needs caller-side synchronization.
type Config struct {
	schema    *schema.Schema
	format    codec.Format
	lowerKeys bool

	live         *ir.Value
	plain        *ir.Value
	annotated    *ir.Value
	bootstrapped bool
}

// Option adjusts a Config at construction time.
type Option func(*Config)

// WithFormat selects the text format for Load, Render and the bootstrap
// file. The default is YAML.
func WithFormat(f codec.Format) Option {
	return func(c *Config) { c.format = f }
}

// WithLowerKeys folds every object key of loaded user trees to lower case
// before reconciliation.
func WithLowerKeys() Option {
	return func(c *Config) { c.lowerKeys = true }
}

// New creates a Config for an already compiled schema. The live tree starts
// empty; call Load, or use Open for the file-based lifecycle.
func New(s *schema.Schema, opts ...Option) *Config {
	c := &Config{schema: s, format: codec.YAML}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Open reads and compiles the schema at schemaPath, then adopts the
// configuration at configPath. When the config file does not exist, Open
// writes it first, filled with the schema's defaults and their descriptions
// as comments, and starts from those defaults. IO failures surface
// immediately; nothing is retried.
func Open(schemaPath, configPath string, opts ...Option) (*Config, error) {
	schemaData, err := os.ReadFile(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", schemaPath, err)
	}
	s, err := BuildSchema(schemaData)
	if err != nil {
		return nil, err
	}
	c := New(s, opts...)

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if lerr := c.Load(data); lerr != nil {
			return nil, lerr
		}
	case os.IsNotExist(err):
		if berr := c.bootstrap(configPath); berr != nil {
			return nil, berr
		}
	default:
		return nil, fmt.Errorf("read config %s: %w", configPath, err)
	}
	return c, nil
}

// bootstrap writes the annotated default file and adopts the plain
// defaults, with template elements populated, as the live tree.
func (c *Config) bootstrap(configPath string) error {
	text, err := c.DefaultText()
	if err != nil {
		return err
	}
	if err := os.WriteFile(configPath, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write default config %s: %w", configPath, err)
	}
	defaults, err := c.Defaults(false)
	if err != nil {
		return err
	}
	c.live = ReconcileValue(ir.Null(), defaults, true)
	c.bootstrapped = true
	return nil
}

// Load parses user configuration text and reconciles it against the
// defaults. The live tree is replaced wholesale; on error the previous
// tree stays in place.
func (c *Config) Load(data []byte) error {
	v, err := codec.Parse(data, c.format)
	if err != nil {
		return err
	}
	if c.lowerKeys {
		v = foldKeys(v)
	}
	defaults, err := c.Defaults(false)
	if err != nil {
		return err
	}
	c.live = ReconcileValue(v, defaults, false)
	c.bootstrapped = false
	return nil
}

// Value returns the live tree. Callers must treat it as read-only.
func (c *Config) Value() *ir.Value { return c.live }

// Bootstrapped reports whether the live tree came from a freshly written
// default file rather than an existing one.
func (c *Config) Bootstrapped() bool { return c.bootstrapped }

// Defaults returns the cached default tree, synthesizing it on first use.
func (c *Config) Defaults(withDescriptions bool) (*ir.Value, error) {
	if withDescriptions {
		if c.annotated == nil {
			v, err := Defaults(c.schema, true)
			if err != nil {
				return nil, err
			}
			c.annotated = v
		}
		return c.annotated, nil
	}
	if c.plain == nil {
		v, err := Defaults(c.schema, false)
		if err != nil {
			return nil, err
		}
		c.plain = v
	}
	return c.plain, nil
}

// Validate checks the live tree and returns the best-match diagnostic, or
// nil when the tree is valid.
func (c *Config) Validate() *Diagnostic {
	return Validate(c.live, c.schema)
}

// Render serializes the live tree in the configured format. The live tree
// never carries markers, so the output has no description comments.
func (c *Config) Render() (string, error) {
	return Render(c.live, c.format)
}

// DefaultText renders the annotated defaults: the exact content a
// bootstrap writes to a fresh config file.
func (c *Config) DefaultText() (string, error) {
	annotated, err := c.Defaults(true)
	if err != nil {
		return "", err
	}
	return Render(annotated, c.format)
}

// foldKeys lowercases object keys recursively. Marker and pattern entries
// keep their spelling.
func foldKeys(v *ir.Value) *ir.Value {
	if v == nil {
		return nil
	}
	switch v.Type {
	case ir.ArrayType:
		out := &ir.Value{Type: ir.ArrayType, Values: make([]*ir.Value, 0, len(v.Values))}
		for _, e := range v.Values {
			out.Values = append(out.Values, foldKeys(e))
		}
		return out
	case ir.ObjectType:
		out := &ir.Value{Type: ir.ObjectType, Fields: make([]ir.Field, 0, len(v.Fields))}
		for _, f := range v.Fields {
			key := f.Key
			if f.Pattern == nil && !ir.IsMarkerKey(key) {
				key = strings.ToLower(key)
			}
			out.Fields = append(out.Fields, ir.Field{Key: key, Pattern: f.Pattern, Value: foldKeys(f.Value)})
		}
		return out
	default:
		return v.Clone()
	}
}
