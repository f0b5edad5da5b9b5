package skemaconf_test

import (
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	skemaconf "github.com/reoring/skemaconf"
	"github.com/reoring/skemaconf/ir"
)

const validatedSchema = `
type: object
required: [name]
properties:
  name: {type: string}
  server:
    type: object
    properties:
      port: {type: integer, minimum: 1}
`

func TestValidateValidTree(t *testing.T) {
	s := build(t, validatedSchema)
	if d := skemaconf.Validate(parseYAML(t, "name: demo\nserver:\n  port: 80"), s); d != nil {
		t.Fatalf("diagnostic = %v, want nil", d)
	}
}

func TestValidatePicksDeepestViolation(t *testing.T) {
	s := build(t, validatedSchema)
	d := skemaconf.Validate(parseYAML(t, "name: 3\nserver:\n  port: x"), s)
	if d == nil {
		t.Fatal("want a diagnostic")
	}
	if d.Path != "server/port" {
		t.Fatalf("Path = %q, want server/port", d.Path)
	}
	if d.Message != "expected integer, got string" {
		t.Fatalf("Message = %q", d.Message)
	}
	if d.Value == nil || d.Value.String != "x" {
		t.Fatalf("Value = %#v, want the offending scalar", d.Value)
	}
	if got := d.Error(); got != "expected integer, got string at server/port" {
		t.Fatalf("Error() = %q", got)
	}
}

func TestValidateMissingRequiredHasNoValue(t *testing.T) {
	s := build(t, validatedSchema)
	d := skemaconf.Validate(parseYAML(t, "server:\n  port: 80"), s)
	if d == nil {
		t.Fatal("want a diagnostic")
	}
	if d.Path != "name" || d.Message != "required property is missing" {
		t.Fatalf("diagnostic = %v", d)
	}
	if d.Value != nil {
		t.Fatalf("Value = %#v, want nil for an absent property", d.Value)
	}
}

func TestValidateIgnoresMarkers(t *testing.T) {
	s := build(t, "type: object\nadditionalProperties: false\nproperties:\n  name: {type: string}")
	v := parseYAML(t, "name: demo")
	v.Fields = append([]ir.Field{ir.MarkerField("a note")}, v.Fields...)
	if d := skemaconf.Validate(v, s); d != nil {
		t.Fatalf("diagnostic = %v, want markers ignored", d)
	}
}

func TestDiagnosticJSON(t *testing.T) {
	d := &skemaconf.Diagnostic{Path: "server/port", Message: "expected integer, got string", Value: ir.FromString("x")}
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"path":"server/port","message":"expected integer, got string","value":"x"}`
	if string(b) != want {
		t.Fatalf("got %s, want %s", b, want)
	}

	b, err = json.Marshal(&skemaconf.Diagnostic{Path: "name", Message: "required property is missing"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(b), "value") {
		t.Fatalf("nil value must be omitted: %s", b)
	}
}

func TestBuildSchemaUnparseableDocument(t *testing.T) {
	_, err := skemaconf.BuildSchema([]byte("type: [unclosed"))
	if err == nil || !strings.Contains(err.Error(), "unparseable schema document") {
		t.Fatalf("err = %v, want an unparseable document error", err)
	}
}
