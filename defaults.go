package skemaconf

import (
	"errors"
	"strings"

	"github.com/reoring/skemaconf/ir"
	"github.com/reoring/skemaconf/schema"
)

// synthesize derives the default value for one schema node. An explicit
// default wins verbatim at every level, before any recursion. Object nodes
// skip children that cannot produce a value (missing default, no property
// source) instead of failing; every other error, and any failure at the
// root, aborts the synthesis.
func synthesize(s *schema.Schema, withDescriptions bool, path []string) (*ir.Value, error) {
	if s.Default != nil {
		return s.Default.Clone(), nil
	}
	switch s.Kind {
	case schema.KindObject:
		return synthesizeObject(s, withDescriptions, path)
	case schema.KindArray:
		return synthesizeArray(s, withDescriptions, path)
	default:
		return nil, &schema.Error{
			Path: strings.Join(path, "/"),
			Code: schema.CodeMissingDefault,
			Msg:  "scalar schema has no default",
		}
	}
}

func synthesizeObject(s *schema.Schema, withDescriptions bool, path []string) (*ir.Value, error) {
	if len(s.Properties)+len(s.PatternProperties) == 0 {
		return nil, &schema.Error{
			Path: strings.Join(path, "/"),
			Code: schema.CodeNoPropertySource,
			Msg:  "object schema has neither properties nor patternProperties",
		}
	}
	out := ir.NewObject()
	for _, p := range s.Properties {
		v, err := synthesize(p.Schema, withDescriptions, append(path, "properties", p.Name))
		if err != nil {
			if skippable(err) {
				continue
			}
			return nil, err
		}
		if withDescriptions && p.Schema.Description != "" {
			out.Fields = append(out.Fields, ir.MarkerField(p.Schema.Description))
		}
		out.Fields = append(out.Fields, ir.Field{Key: p.Name, Value: v})
	}
	for _, pp := range s.PatternProperties {
		v, err := synthesize(pp.Schema, withDescriptions, append(path, "patternProperties", pp.Pattern.String()))
		if err != nil {
			if skippable(err) {
				continue
			}
			return nil, err
		}
		if withDescriptions && pp.Schema.Description != "" {
			out.Fields = append(out.Fields, ir.MarkerField(pp.Schema.Description))
		}
		out.Fields = append(out.Fields, ir.Field{Pattern: pp.Pattern, Value: v})
	}
	return out, nil
}

func synthesizeArray(s *schema.Schema, withDescriptions bool, path []string) (*ir.Value, error) {
	if s.Items == nil {
		return nil, &schema.Error{
			Path: strings.Join(path, "/"),
			Code: schema.CodeMissingDefault,
			Msg:  "array schema has neither items nor a default",
		}
	}
	elem, err := synthesize(s.Items, withDescriptions, append(path, "items"))
	if err != nil {
		return nil, err
	}
	out := ir.NewArray()
	if withDescriptions && s.Items.Description != "" {
		out.Values = append(out.Values, ir.MarkerElement(s.Items.Description))
	}
	out.Values = append(out.Values, elem)
	return out, nil
}

// skippable reports whether an object property may be silently omitted from
// the synthesized defaults because its schema cannot produce a value.
func skippable(err error) bool {
	var se *schema.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == schema.CodeMissingDefault || se.Code == schema.CodeNoPropertySource
}
