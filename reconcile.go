package skemaconf

import (
	"github.com/reoring/skemaconf/ir"
)

// reconcileValue merges a user value against a defaults subtree. The result
// is always freshly allocated; defaults are never aliased into it. The
// function is a fixed point: feeding its output back in with the same
// defaults returns an equal tree.
func reconcileValue(value, defaults *ir.Value, populate bool) *ir.Value {
	if value.IsNull() {
		return normalizeDefault(defaults, populate)
	}
	if defaults == nil {
		return value.Clone()
	}
	switch {
	case value.Type == ir.ObjectType && defaults.Type == ir.ObjectType:
		return reconcileObject(value, defaults, populate)
	case value.Type == ir.ArrayType && defaults.Type == ir.ArrayType:
		return reconcileArray(value, defaults, populate)
	default:
		// Shape mismatches and scalars resolve the same way: what the user
		// wrote stands.
		return value.Clone()
	}
}

// normalizeDefault turns a defaults subtree into a value fit for handing to
// the user: pattern entries stripped, then reconciled once against the
// unstripped subtree so the result is already a fixed point of further
// reconciliation.
func normalizeDefault(defaults *ir.Value, populate bool) *ir.Value {
	if defaults.IsNull() {
		return ir.Null()
	}
	return reconcileValue(ir.StripPatterns(defaults), defaults, populate)
}

func reconcileObject(value, defaults *ir.Value, populate bool) *ir.Value {
	out := ir.NewObject()
	for _, f := range value.Fields {
		if f.Pattern != nil || ir.IsMarkerKey(f.Key) {
			out.Fields = append(out.Fields, ir.Field{Key: f.Key, Pattern: f.Pattern, Value: f.Value.Clone()})
			continue
		}
		if d, ok := defaults.Get(f.Key); ok {
			out.Fields = append(out.Fields, ir.Field{Key: f.Key, Value: reconcileValue(f.Value, d, populate)})
			continue
		}
		// Pattern pass, declaration order. Every recompute starts from the
		// user's original entry, so the last matching pattern wins and a
		// rerun lands on the same result.
		var merged *ir.Value
		matched := false
		for _, df := range defaults.Fields {
			if df.Pattern != nil && df.Pattern.MatchString(f.Key) {
				merged = reconcileValue(f.Value, df.Value, populate)
				matched = true
			}
		}
		if matched {
			out.Fields = append(out.Fields, ir.Field{Key: f.Key, Value: merged})
			continue
		}
		out.Fields = append(out.Fields, ir.Field{Key: f.Key, Value: f.Value.Clone()})
	}
	// Declared keys the user left out, in declaration order. Pattern and
	// marker entries never become fillers.
	for _, df := range defaults.Fields {
		if df.Pattern != nil || ir.IsMarkerKey(df.Key) {
			continue
		}
		if _, ok := out.Get(df.Key); ok {
			continue
		}
		out.Fields = append(out.Fields, ir.Field{Key: df.Key, Value: normalizeDefault(df.Value, populate)})
	}
	return out
}

func reconcileArray(value, defaults *ir.Value, populate bool) *ir.Value {
	var template *ir.Value
	for _, e := range defaults.Values {
		if !ir.IsMarkerElement(e) {
			template = e
			break
		}
	}
	out := &ir.Value{Type: ir.ArrayType, Values: []*ir.Value{}}
	if len(value.Values) == 0 {
		if populate && template != nil {
			out.Values = append(out.Values, normalizeDefault(template, populate))
		}
		return out
	}
	for _, e := range value.Values {
		if template == nil {
			out.Values = append(out.Values, e.Clone())
			continue
		}
		out.Values = append(out.Values, reconcileValue(e, template, populate))
	}
	return out
}
