package skemaconf

import (
	"fmt"

	"github.com/reoring/skemaconf/codec"
	"github.com/reoring/skemaconf/ir"
	"github.com/reoring/skemaconf/schema"
)

// BuildSchema compiles a schema document. The document is YAML; JSON parses
// through the same path. The returned schema is immutable and safe to share.
func BuildSchema(data []byte) (*schema.Schema, error) {
	doc, err := codec.Parse(data, codec.YAML)
	if err != nil {
		return nil, &schema.Error{Code: schema.CodeMalformed, Msg: fmt.Sprintf("unparseable schema document: %v", err)}
	}
	return schema.Compile(doc)
}

// Defaults synthesizes the schema's default value tree. With descriptions
// enabled, marker entries carrying field descriptions are placed before the
// keys they describe; without, the tree contains no markers.
func Defaults(s *schema.Schema, withDescriptions bool) (*ir.Value, error) {
	return synthesize(s, withDescriptions, nil)
}

// Reconcile merges value against the schema's plain defaults. User-supplied
// data always wins over defaults; keys the defaults know nothing about pass
// through untouched.
func Reconcile(value *ir.Value, s *schema.Schema) (*ir.Value, error) {
	defaults, err := Defaults(s, false)
	if err != nil {
		return nil, err
	}
	return ReconcileValue(value, defaults, false), nil
}

// ReconcileValue merges value against an already synthesized defaults tree.
// The defaults tree is treated as read-only; the result shares no nodes with
// either argument. populateArrays makes empty user arrays receive one
// template element, which only the bootstrap path wants.
func ReconcileValue(value, defaults *ir.Value, populateArrays bool) *ir.Value {
	return reconcileValue(value, defaults, populateArrays)
}

// Render serializes the tree in the given format, rewriting description
// markers into native comments. Pattern-keyed entries are stripped first;
// they are schema plumbing, not configuration.
func Render(v *ir.Value, f codec.Format) (string, error) {
	text, err := codec.Render(ir.StripPatterns(v), f)
	if err != nil {
		return "", err
	}
	return rewriteMarkers(text, f), nil
}

// Validate checks the tree against the schema and returns the single most
// specific violation, or nil when the tree is valid.
func Validate(v *ir.Value, s *schema.Schema) *Diagnostic {
	violations := schema.NewValidator(s).Validate(v)
	best, ok := schema.BestMatch(violations)
	if !ok {
		return nil
	}
	return &Diagnostic{
		Path:    best.JoinPath(),
		Message: best.Message,
		Value:   valueAt(v, best.Path),
	}
}
