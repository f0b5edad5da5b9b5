package schema_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/reoring/skemaconf/codec"
	"github.com/reoring/skemaconf/ir"
	"github.com/reoring/skemaconf/schema"
)

func parse(t *testing.T, src string) *ir.Value {
	t.Helper()
	v, err := codec.Parse([]byte(src), codec.YAML)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return v
}

func compile(t *testing.T, src string) *schema.Schema {
	t.Helper()
	s, err := schema.Compile(parse(t, src))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return s
}

func TestCompileKinds(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want schema.Kind
	}{
		{"object", "type: object\nproperties: {}", schema.KindObject},
		{"array", "type: array\nitems: {type: integer, default: 1}", schema.KindArray},
		{"string", "type: string\ndefault: x", schema.KindScalar},
		{"integer", "type: integer\ndefault: 1", schema.KindScalar},
		{"type list", `type: [string, "null"]`, schema.KindScalar},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := compile(t, tc.src)
			if s.Kind != tc.want {
				t.Fatalf("Kind = %v, want %v", s.Kind, tc.want)
			}
		})
	}
}

func TestCompileTypeList(t *testing.T) {
	s := compile(t, `type: [string, "null"]`)
	if len(s.Types) != 2 || s.Types[0] != "string" || s.Types[1] != "null" {
		t.Fatalf("Types = %v, want [string null]", s.Types)
	}
}

func TestCompilePropertiesKeepOrder(t *testing.T) {
	s := compile(t, `
type: object
properties:
  zebra: {type: integer, default: 1}
  alpha: {type: integer, default: 2}
  mid:   {type: integer, default: 3}
`)
	want := []string{"zebra", "alpha", "mid"}
	if len(s.Properties) != len(want) {
		t.Fatalf("got %d properties, want %d", len(s.Properties), len(want))
	}
	for i, p := range s.Properties {
		if p.Name != want[i] {
			t.Errorf("Properties[%d] = %q, want %q", i, p.Name, want[i])
		}
	}
}

func TestCompilePatternProperties(t *testing.T) {
	s := compile(t, `
type: object
patternProperties:
  "^srv_":
    type: object
    properties:
      enabled: {type: boolean, default: true}
`)
	if len(s.PatternProperties) != 1 {
		t.Fatalf("got %d pattern properties, want 1", len(s.PatternProperties))
	}
	pp := s.PatternProperties[0]
	if !pp.Pattern.MatchString("srv_a") || pp.Pattern.MatchString("client") {
		t.Fatalf("pattern %q matches the wrong keys", pp.Pattern)
	}
	if pp.Schema.Kind != schema.KindObject {
		t.Fatalf("pattern schema Kind = %v, want object", pp.Schema.Kind)
	}
}

func TestCompileDefaultIsVerbatim(t *testing.T) {
	s := compile(t, `
type: object
description: the whole thing
default:
  b: 2
  a: 1
properties:
  a: {type: integer, default: 9}
`)
	if s.Description != "the whole thing" {
		t.Fatalf("Description = %q", s.Description)
	}
	d := s.Default
	if d == nil || d.Type != ir.ObjectType || len(d.Fields) != 2 {
		t.Fatalf("Default = %#v, want two-entry object", d)
	}
	if d.Fields[0].Key != "b" || d.Fields[1].Key != "a" {
		t.Fatalf("Default keys = %q, %q, want b, a", d.Fields[0].Key, d.Fields[1].Key)
	}
}

func TestCompileAnyOfOverlay(t *testing.T) {
	s := compile(t, `
description: node wins
anyOf:
  - type: object
    description: from the alternative
    properties:
      port: {type: integer, default: 8080}
  - type: string
    default: fallback
`)
	if s.Kind != schema.KindObject {
		t.Fatalf("Kind = %v, want object", s.Kind)
	}
	if s.Description != "node wins" {
		t.Fatalf("Description = %q, want the node's own", s.Description)
	}
	if len(s.Properties) != 1 || s.Properties[0].Name != "port" {
		t.Fatalf("Properties not taken from the first alternative: %v", s.Properties)
	}
	if len(s.Alternatives) != 2 || s.ExactlyOne {
		t.Fatalf("Alternatives = %d, ExactlyOne = %v", len(s.Alternatives), s.ExactlyOne)
	}
	if len(s.Types) != 0 {
		t.Fatalf("Types = %v, want none on an untyped union node", s.Types)
	}
}

func TestCompileOneOf(t *testing.T) {
	s := compile(t, `
oneOf:
  - {type: integer, default: 1}
  - {type: string, default: x}
`)
	if !s.ExactlyOne {
		t.Fatal("ExactlyOne = false, want true for oneOf")
	}
	if s.Kind != schema.KindScalar || s.Default == nil || s.Default.Int64 != 1 {
		t.Fatalf("first alternative not overlaid: Kind=%v Default=%#v", s.Kind, s.Default)
	}
}

func TestCompileErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		code string
		path string
	}{
		{"missing type", `properties: {a: {type: integer}}`, schema.CodeMissingType, ""},
		{"missing type nested", "type: object\nproperties:\n  a: {default: 1}", schema.CodeMissingType, "properties/a"},
		{"bad pattern", "type: object\npatternProperties:\n  \"[\": {type: integer}", schema.CodeBadPattern, "patternProperties/["},
		{"anyOf and oneOf", "anyOf: [{type: integer}]\noneOf: [{type: string}]", schema.CodeMalformed, "oneOf"},
		{"empty anyOf", "anyOf: []", schema.CodeMalformed, "anyOf"},
		{"properties not object", "type: object\nproperties: 3", schema.CodeMalformed, "properties"},
		{"empty type list", "type: []", schema.CodeMalformed, "type"},
		{"type list non-string", "type: [1]", schema.CodeMalformed, "type"},
		{"additionalProperties number", "type: object\nadditionalProperties: 3", schema.CodeMalformed, "additionalProperties"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := schema.Compile(parse(t, tc.src))
			var serr *schema.Error
			if !errors.As(err, &serr) {
				t.Fatalf("err = %v, want *schema.Error", err)
			}
			if serr.Code != tc.code {
				t.Errorf("Code = %q, want %q", serr.Code, tc.code)
			}
			if !strings.HasPrefix(serr.Path, tc.path) {
				t.Errorf("Path = %q, want prefix %q", serr.Path, tc.path)
			}
		})
	}
}

func TestCompileNonObjectNode(t *testing.T) {
	_, err := schema.Compile(ir.FromString("nope"))
	var serr *schema.Error
	if !errors.As(err, &serr) || serr.Code != schema.CodeMalformed {
		t.Fatalf("err = %v, want malformed_schema", err)
	}
}

func TestCompileKeywords(t *testing.T) {
	s := compile(t, `
type: object
required: [host]
properties:
  host:
    type: string
    default: localhost
    minLength: 1
    maxLength: 64
    pattern: "^[a-z.]+$"
  port:
    type: integer
    default: 8080
    minimum: 1
    maximum: 65535
  mode:
    type: string
    default: auto
    enum: [auto, manual]
  tags:
    type: array
    uniqueItems: true
    minItems: 1
    items: {type: string, default: web}
`)
	if len(s.Required) != 1 || s.Required[0] != "host" {
		t.Fatalf("Required = %v", s.Required)
	}
	host := s.Properties[0].Schema
	if host.MinLength == nil || *host.MinLength != 1 || host.MaxLength == nil || *host.MaxLength != 64 {
		t.Fatalf("host length bounds not compiled: %v %v", host.MinLength, host.MaxLength)
	}
	if host.Pattern == nil || !host.Pattern.MatchString("example.org") {
		t.Fatalf("host pattern not compiled: %v", host.Pattern)
	}
	port := s.Properties[1].Schema
	if port.Minimum == nil || *port.Minimum != 1 || port.Maximum == nil || *port.Maximum != 65535 {
		t.Fatalf("port bounds not compiled: %v %v", port.Minimum, port.Maximum)
	}
	mode := s.Properties[2].Schema
	if len(mode.Enum) != 2 {
		t.Fatalf("mode enum = %v", mode.Enum)
	}
	tags := s.Properties[3].Schema
	if !tags.UniqueItems || tags.MinItems == nil || *tags.MinItems != 1 {
		t.Fatalf("tags keywords not compiled: unique=%v min=%v", tags.UniqueItems, tags.MinItems)
	}
}

func TestBestMatch(t *testing.T) {
	shallow := schema.Violation{Path: []string{"a"}, Message: "shallow"}
	deep := schema.Violation{Path: []string{"a", "b", "c"}, Message: "deep"}
	tie := schema.Violation{Path: []string{"x", "y", "z"}, Message: "tie"}

	got, ok := schema.BestMatch([]schema.Violation{shallow, deep, tie})
	if !ok || got.Message != "deep" {
		t.Fatalf("BestMatch = %v, %v; want the deepest, earliest violation", got, ok)
	}
	if _, ok := schema.BestMatch(nil); ok {
		t.Fatal("BestMatch(nil) reported ok")
	}
}
