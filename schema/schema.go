// Package schema compiles schema documents into an immutable node tree and
// validates value trees against them. Compilation is eager: every property,
// pattern property, item and alternative position is checked up front, so a
// schema that builds never fails structurally later.
package schema

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/reoring/skemaconf/ir"
)

// Kind classifies a schema node for synthesis and reconciliation.
type Kind int

const (
	KindScalar Kind = iota
	KindObject
	KindArray
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	}
	return "scalar"
}

// Property is one declared object property, in declaration order.
type Property struct {
	Name   string
	Schema *Schema
}

// PatternProperty is one pattern-keyed object property, in declaration
// order. The pattern is compiled at build time.
type PatternProperty struct {
	Pattern *regexp.Regexp
	Schema  *Schema
}

// Schema is a compiled schema node. It is immutable after Compile; callers
// must not modify it. Kind, Properties, PatternProperties, Items, Default
// and Description are the synthesis view: when the node declares no type,
// the first anyOf/oneOf alternative fills whichever of them the node leaves
// unset (node-level fields always win). Validation keywords below them are
// the node's own; Alternatives carries the full compiled list so the
// validator can test every branch, not just the first.
type Schema struct {
	Kind              Kind
	Properties        []Property
	PatternProperties []PatternProperty
	Items             *Schema
	Default           *ir.Value
	Description       string

	Types                []string
	Required             []string
	Enum                 []*ir.Value
	Const                *ir.Value
	Minimum              *float64
	Maximum              *float64
	ExclusiveMinimum     *float64
	ExclusiveMaximum     *float64
	MinLength            *int
	MaxLength            *int
	Pattern              *regexp.Regexp
	Format               string
	MinItems             *int
	MaxItems             *int
	UniqueItems          bool
	AdditionalAllowed    *bool
	AdditionalProperties *Schema

	Alternatives []*Schema
	ExactlyOne   bool
}

// Compile builds the schema tree from a parsed schema document.
func Compile(doc *ir.Value) (*Schema, error) {
	return compile(doc, nil)
}

func compile(node *ir.Value, path []string) (*Schema, error) {
	if node == nil || node.Type != ir.ObjectType {
		return nil, &Error{Path: joinPath(path), Code: CodeMalformed, Msg: "schema node must be an object"}
	}
	s := &Schema{}

	if v, ok := node.Get("description"); ok && v.Type == ir.StringType {
		s.Description = v.String
	}
	if v, ok := node.Get("default"); ok {
		s.Default = v.Clone()
	}
	if err := compileChildren(s, node, path); err != nil {
		return nil, err
	}
	if err := compileKeywords(s, node, path); err != nil {
		return nil, err
	}

	tv, hasType := node.Get("type")
	switch {
	case hasType:
		if err := classify(s, tv, path); err != nil {
			return nil, err
		}
	case len(s.Alternatives) > 0:
		overlayFirst(s, s.Alternatives[0])
	default:
		return nil, &Error{Path: joinPath(path), Code: CodeMissingType, Msg: "schema node needs a type, anyOf or oneOf"}
	}
	return s, nil
}

// classify sets Kind and Types from an explicit "type" keyword. A type list
// never names a composite: only the exact strings "object" and "array"
// select those kinds, everything else is a scalar.
func classify(s *Schema, tv *ir.Value, path []string) error {
	switch tv.Type {
	case ir.StringType:
		s.Types = []string{tv.String}
		switch tv.String {
		case "object":
			s.Kind = KindObject
		case "array":
			s.Kind = KindArray
		default:
			s.Kind = KindScalar
		}
		return nil
	case ir.ArrayType:
		names := make([]string, 0, len(tv.Values))
		for _, e := range tv.Values {
			if e == nil || e.Type != ir.StringType {
				return &Error{Path: joinPath(append(path, "type")), Code: CodeMalformed, Msg: "type list entries must be strings"}
			}
			names = append(names, e.String)
		}
		if len(names) == 0 {
			return &Error{Path: joinPath(append(path, "type")), Code: CodeMalformed, Msg: "type list must not be empty"}
		}
		s.Types = names
		s.Kind = KindScalar
		return nil
	default:
		return &Error{Path: joinPath(append(path, "type")), Code: CodeMalformed, Msg: "type must be a string or a list of strings"}
	}
}

func compileChildren(s *Schema, node *ir.Value, path []string) error {
	if props, ok := node.Get("properties"); ok {
		if props.Type != ir.ObjectType {
			return &Error{Path: joinPath(append(path, "properties")), Code: CodeMalformed, Msg: "properties must be an object"}
		}
		s.Properties = make([]Property, 0, len(props.Fields))
		for _, f := range props.Fields {
			child, err := compile(f.Value, append(path, "properties", f.Key))
			if err != nil {
				return err
			}
			s.Properties = append(s.Properties, Property{Name: f.Key, Schema: child})
		}
	}
	if pats, ok := node.Get("patternProperties"); ok {
		if pats.Type != ir.ObjectType {
			return &Error{Path: joinPath(append(path, "patternProperties")), Code: CodeMalformed, Msg: "patternProperties must be an object"}
		}
		s.PatternProperties = make([]PatternProperty, 0, len(pats.Fields))
		for _, f := range pats.Fields {
			re, err := regexp.Compile(f.Key)
			if err != nil {
				return &Error{Path: joinPath(append(path, "patternProperties", f.Key)), Code: CodeBadPattern, Msg: fmt.Sprintf("invalid pattern: %v", err)}
			}
			child, cerr := compile(f.Value, append(path, "patternProperties", f.Key))
			if cerr != nil {
				return cerr
			}
			s.PatternProperties = append(s.PatternProperties, PatternProperty{Pattern: re, Schema: child})
		}
	}
	if items, ok := node.Get("items"); ok {
		child, err := compile(items, append(path, "items"))
		if err != nil {
			return err
		}
		s.Items = child
	}
	for _, kw := range []string{"anyOf", "oneOf"} {
		alts, ok := node.Get(kw)
		if !ok {
			continue
		}
		if alts.Type != ir.ArrayType || len(alts.Values) == 0 {
			return &Error{Path: joinPath(append(path, kw)), Code: CodeMalformed, Msg: kw + " must be a non-empty list"}
		}
		if s.Alternatives != nil {
			return &Error{Path: joinPath(append(path, kw)), Code: CodeMalformed, Msg: "anyOf and oneOf cannot be combined on one node"}
		}
		s.Alternatives = make([]*Schema, 0, len(alts.Values))
		for i, e := range alts.Values {
			child, err := compile(e, append(path, kw, fmt.Sprint(i)))
			if err != nil {
				return err
			}
			s.Alternatives = append(s.Alternatives, child)
		}
		s.ExactlyOne = kw == "oneOf"
	}
	if ap, ok := node.Get("additionalProperties"); ok {
		switch ap.Type {
		case ir.BoolType:
			b := ap.Bool
			s.AdditionalAllowed = &b
		case ir.ObjectType:
			child, err := compile(ap, append(path, "additionalProperties"))
			if err != nil {
				return err
			}
			s.AdditionalProperties = child
		default:
			return &Error{Path: joinPath(append(path, "additionalProperties")), Code: CodeMalformed, Msg: "additionalProperties must be a boolean or a schema"}
		}
	}
	return nil
}

func compileKeywords(s *Schema, node *ir.Value, path []string) error {
	if v, ok := node.Get("required"); ok {
		if v.Type != ir.ArrayType {
			return &Error{Path: joinPath(append(path, "required")), Code: CodeMalformed, Msg: "required must be a list of strings"}
		}
		for _, e := range v.Values {
			if e == nil || e.Type != ir.StringType {
				return &Error{Path: joinPath(append(path, "required")), Code: CodeMalformed, Msg: "required must be a list of strings"}
			}
			s.Required = append(s.Required, e.String)
		}
	}
	if v, ok := node.Get("enum"); ok {
		if v.Type != ir.ArrayType {
			return &Error{Path: joinPath(append(path, "enum")), Code: CodeMalformed, Msg: "enum must be a list"}
		}
		for _, e := range v.Values {
			s.Enum = append(s.Enum, e.Clone())
		}
	}
	if v, ok := node.Get("const"); ok {
		s.Const = v.Clone()
	}
	for kw, dst := range map[string]**float64{
		"minimum":          &s.Minimum,
		"maximum":          &s.Maximum,
		"exclusiveMinimum": &s.ExclusiveMinimum,
		"exclusiveMaximum": &s.ExclusiveMaximum,
	} {
		v, ok := node.Get(kw)
		if !ok {
			continue
		}
		f, ok := numAt(v)
		if !ok {
			return &Error{Path: joinPath(append(path, kw)), Code: CodeMalformed, Msg: kw + " must be a number"}
		}
		*dst = &f
	}
	for kw, dst := range map[string]**int{
		"minLength": &s.MinLength,
		"maxLength": &s.MaxLength,
		"minItems":  &s.MinItems,
		"maxItems":  &s.MaxItems,
	} {
		v, ok := node.Get(kw)
		if !ok {
			continue
		}
		n, ok := intAt(v)
		if !ok {
			return &Error{Path: joinPath(append(path, kw)), Code: CodeMalformed, Msg: kw + " must be an integer"}
		}
		*dst = &n
	}
	if v, ok := node.Get("pattern"); ok {
		if v.Type != ir.StringType {
			return &Error{Path: joinPath(append(path, "pattern")), Code: CodeMalformed, Msg: "pattern must be a string"}
		}
		re, err := regexp.Compile(v.String)
		if err != nil {
			return &Error{Path: joinPath(append(path, "pattern")), Code: CodeBadPattern, Msg: fmt.Sprintf("invalid pattern: %v", err)}
		}
		s.Pattern = re
	}
	if v, ok := node.Get("format"); ok {
		if v.Type != ir.StringType {
			return &Error{Path: joinPath(append(path, "format")), Code: CodeMalformed, Msg: "format must be a string"}
		}
		s.Format = v.String
	}
	if v, ok := node.Get("uniqueItems"); ok && v.Type == ir.BoolType {
		s.UniqueItems = v.Bool
	}
	return nil
}

// overlayFirst fills the synthesis view of an untyped node from its first
// alternative. Node-level fields always win; the node has no type here, so
// Kind always comes from the alternative.
func overlayFirst(s, alt *Schema) {
	s.Kind = alt.Kind
	if s.Default == nil {
		s.Default = alt.Default
	}
	if s.Description == "" {
		s.Description = alt.Description
	}
	if len(s.Properties) == 0 {
		s.Properties = alt.Properties
	}
	if len(s.PatternProperties) == 0 {
		s.PatternProperties = alt.PatternProperties
	}
	if s.Items == nil {
		s.Items = alt.Items
	}
}

func joinPath(path []string) string { return strings.Join(path, "/") }

func numAt(v *ir.Value) (float64, bool) {
	switch {
	case v == nil:
		return 0, false
	case v.Type == ir.IntType:
		return float64(v.Int64), true
	case v.Type == ir.FloatType:
		return v.Float64, true
	}
	return 0, false
}

func intAt(v *ir.Value) (int, bool) {
	switch {
	case v == nil:
		return 0, false
	case v.Type == ir.IntType:
		return int(v.Int64), true
	case v.Type == ir.FloatType && v.Float64 == float64(int64(v.Float64)):
		return int(v.Float64), true
	}
	return 0, false
}
