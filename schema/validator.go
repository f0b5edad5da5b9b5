package schema

import (
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	json "github.com/goccy/go-json"

	"github.com/reoring/skemaconf/ir"
)

// Validator checks value trees against a compiled schema and reports every
// violation it finds. anyOf/oneOf branches are tested with a throwaway
// collector; when none (or, for oneOf, not exactly one) matches, the single
// resulting violation is recorded at the union node itself rather than at
// whatever leaf failed inside the branches.
type Validator struct {
	schema    *Schema
	maxIssues int
}

// NewValidator creates a validator for the given schema.
func NewValidator(s *Schema) *Validator {
	return &Validator{schema: s, maxIssues: 100}
}

// WithMaxIssues caps how many violations are collected (0 = unlimited).
func (v *Validator) WithMaxIssues(n int) *Validator {
	v.maxIssues = n
	return v
}

// Validate returns all violations of value against the schema, in document
// order. A nil or empty result means the value is valid.
func (v *Validator) Validate(value *ir.Value) []Violation {
	if v.schema == nil {
		return nil
	}
	c := &collector{max: v.maxIssues}
	v.validateValue(nil, value, v.schema, c)
	return c.list
}

type collector struct {
	list []Violation
	max  int
}

func (c *collector) add(path []string, msg string) {
	if c.max > 0 && len(c.list) >= c.max {
		return
	}
	c.list = append(c.list, Violation{Path: append([]string{}, path...), Message: msg})
}

func (c *collector) full() bool { return c.max > 0 && len(c.list) >= c.max }

func (v *Validator) validateValue(path []string, value *ir.Value, s *Schema, c *collector) {
	if s == nil || c.full() {
		return
	}

	if len(s.Alternatives) > 0 {
		v.validateAlternatives(path, value, s, c)
	}
	if s.Const != nil && !canonicalEqual(value, s.Const) {
		c.add(path, fmt.Sprintf("value must be %s", canonicalKey(s.Const)))
	}
	if len(s.Enum) > 0 {
		v.validateEnum(path, value, s.Enum, c)
	}
	if len(s.Types) > 0 {
		v.validateType(path, value, s, c)
	}
}

func (v *Validator) validateAlternatives(path []string, value *ir.Value, s *Schema, c *collector) {
	matches := 0
	for _, alt := range s.Alternatives {
		probe := &collector{max: 1}
		v.validateValue(path, value, alt, probe)
		if len(probe.list) == 0 {
			matches++
			if !s.ExactlyOne {
				return
			}
		}
	}
	switch {
	case matches == 0:
		c.add(path, "value does not match any of the allowed schemas")
	case s.ExactlyOne && matches > 1:
		c.add(path, "value matches more than one schema (must match exactly one)")
	}
}

func (v *Validator) validateType(path []string, value *ir.Value, s *Schema, c *collector) {
	for _, typ := range s.Types {
		if !matchesType(value, typ) {
			continue
		}
		switch typ {
		case "string":
			v.validateString(path, value, s, c)
		case "number", "integer":
			v.validateNumber(path, value, s, c)
		case "array":
			v.validateArray(path, value, s, c)
		case "object":
			v.validateObject(path, value, s, c)
		}
		return
	}
	c.add(path, fmt.Sprintf("expected %s, got %s", typeList(s.Types), valueType(value)))
}

// matchesType checks a value against one JSON Schema type name. An integral
// float counts as an integer, matching how YAML and TOML round-trip them.
func matchesType(value *ir.Value, typ string) bool {
	switch typ {
	case "string":
		return value != nil && value.Type == ir.StringType
	case "number":
		return value != nil && (value.Type == ir.IntType || value.Type == ir.FloatType)
	case "integer":
		if value == nil {
			return false
		}
		if value.Type == ir.IntType {
			return true
		}
		return value.Type == ir.FloatType && value.Float64 == float64(int64(value.Float64))
	case "boolean":
		return value != nil && value.Type == ir.BoolType
	case "array":
		return value != nil && value.Type == ir.ArrayType
	case "object":
		return value != nil && value.Type == ir.ObjectType
	case "null":
		return value.IsNull()
	}
	return false
}

func (v *Validator) validateString(path []string, value *ir.Value, s *Schema, c *collector) {
	n := utf8.RuneCountInString(value.String)
	if s.MinLength != nil && n < *s.MinLength {
		c.add(path, fmt.Sprintf("string length %d is less than minimum %d", n, *s.MinLength))
	}
	if s.MaxLength != nil && n > *s.MaxLength {
		c.add(path, fmt.Sprintf("string length %d is greater than maximum %d", n, *s.MaxLength))
	}
	if s.Pattern != nil && !s.Pattern.MatchString(value.String) {
		c.add(path, fmt.Sprintf("%q does not match pattern %q", value.String, s.Pattern.String()))
	}
	if s.Format != "" {
		if msg := checkFormat(s.Format, value.String); msg != "" {
			c.add(path, msg)
		}
	}
}

// checkFormat validates the format names this package knows. Unknown names
// pass; they are annotations, not constraints.
func checkFormat(format, s string) string {
	var layouts []string
	switch format {
	case "date-time":
		layouts = []string{time.RFC3339Nano, time.RFC3339}
	case "date":
		layouts = []string{"2006-01-02"}
	case "time":
		layouts = []string{"15:04:05Z07:00", "15:04:05"}
	default:
		return ""
	}
	for _, l := range layouts {
		if _, err := time.Parse(l, s); err == nil {
			return ""
		}
	}
	return fmt.Sprintf("%q is not a valid %s", s, format)
}

func (v *Validator) validateNumber(path []string, value *ir.Value, s *Schema, c *collector) {
	f := value.Float64
	if value.Type == ir.IntType {
		f = float64(value.Int64)
	}
	if s.Minimum != nil && f < *s.Minimum {
		c.add(path, fmt.Sprintf("value %v is less than minimum %v", f, *s.Minimum))
	}
	if s.Maximum != nil && f > *s.Maximum {
		c.add(path, fmt.Sprintf("value %v is greater than maximum %v", f, *s.Maximum))
	}
	if s.ExclusiveMinimum != nil && f <= *s.ExclusiveMinimum {
		c.add(path, fmt.Sprintf("value must be greater than %v", *s.ExclusiveMinimum))
	}
	if s.ExclusiveMaximum != nil && f >= *s.ExclusiveMaximum {
		c.add(path, fmt.Sprintf("value must be less than %v", *s.ExclusiveMaximum))
	}
}

func (v *Validator) validateArray(path []string, value *ir.Value, s *Schema, c *collector) {
	n := len(value.Values)
	if s.MinItems != nil && n < *s.MinItems {
		c.add(path, fmt.Sprintf("array has %d items, minimum is %d", n, *s.MinItems))
	}
	if s.MaxItems != nil && n > *s.MaxItems {
		c.add(path, fmt.Sprintf("array has %d items, maximum is %d", n, *s.MaxItems))
	}
	if s.UniqueItems {
		seen := make(map[string]int, n)
		for i, e := range value.Values {
			key := canonicalKey(e)
			if _, dup := seen[key]; dup {
				c.add(path, fmt.Sprintf("array items must be unique, duplicate at index %d", i))
				break
			}
			seen[key] = i
		}
	}
	if s.Items != nil {
		for i, e := range value.Values {
			v.validateValue(append(path, strconv.Itoa(i)), e, s.Items, c)
		}
	}
}

func (v *Validator) validateObject(path []string, value *ir.Value, s *Schema, c *collector) {
	for _, req := range s.Required {
		if _, ok := value.Get(req); !ok {
			c.add(append(path, req), "required property is missing")
		}
	}
	for _, f := range value.Fields {
		if f.Pattern != nil || ir.IsMarkerKey(f.Key) {
			continue
		}
		childPath := append(path, f.Key)
		if ps := findProperty(s, f.Key); ps != nil {
			v.validateValue(childPath, f.Value, ps, c)
			continue
		}
		matched := false
		for _, pp := range s.PatternProperties {
			if pp.Pattern.MatchString(f.Key) {
				matched = true
				v.validateValue(childPath, f.Value, pp.Schema, c)
			}
		}
		if matched {
			continue
		}
		switch {
		case s.AdditionalProperties != nil:
			v.validateValue(childPath, f.Value, s.AdditionalProperties, c)
		case s.AdditionalAllowed != nil && !*s.AdditionalAllowed:
			c.add(childPath, "unknown property")
		}
	}
}

func (v *Validator) validateEnum(path []string, value *ir.Value, allowed []*ir.Value, c *collector) {
	for _, a := range allowed {
		if canonicalEqual(value, a) {
			return
		}
	}
	c.add(path, fmt.Sprintf("value %s is not one of the allowed values", canonicalKey(value)))
}

func findProperty(s *Schema, name string) *Schema {
	for _, p := range s.Properties {
		if p.Name == name {
			return p.Schema
		}
	}
	return nil
}

// canonicalKey reduces a value to its JSON encoding so that numerically
// equal integers and floats compare equal, the same trick the enum and
// uniqueItems checks need.
func canonicalKey(v *ir.Value) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%#v", v)
	}
	return string(b)
}

func canonicalEqual(a, b *ir.Value) bool { return canonicalKey(a) == canonicalKey(b) }

func typeList(types []string) string {
	if len(types) == 1 {
		return types[0]
	}
	out := ""
	for i, t := range types {
		if i > 0 {
			out += " or "
		}
		out += t
	}
	return out
}

func valueType(v *ir.Value) string {
	if v == nil {
		return ir.NullType.String()
	}
	return v.Type.String()
}
