// Package ir defines the ordered value tree shared by the synthesizer,
// the reconciler, the validator and the codecs. Object entries keep their
// insertion order; that order decides where description comments land in
// rendered output, so it is part of the data, not a presentation detail.
package ir

import (
	"regexp"
	"strconv"

	json "github.com/goccy/go-json"
)

// Type identifies a value variant.
type Type int

const (
	NullType Type = iota
	BoolType
	IntType
	FloatType
	StringType
	ArrayType
	ObjectType
)

// String returns the JSON-Schema-facing name of the type.
func (t Type) String() string {
	switch t {
	case NullType:
		return "null"
	case BoolType:
		return "boolean"
	case IntType:
		return "integer"
	case FloatType:
		return "number"
	case StringType:
		return "string"
	case ArrayType:
		return "array"
	case ObjectType:
		return "object"
	}
	return "unknown"
}

// Value is one node of a configuration tree. Exactly the fields for its
// Type are meaningful; the rest stay zero.
type Value struct {
	Type    Type
	Bool    bool
	Int64   int64
	Float64 float64
	String  string
	Values  []*Value // ArrayType elements
	Fields  []Field  // ObjectType entries, in order
}

// Field is one ordered object entry. Entries keyed by a compiled regular
// expression (Pattern != nil) are schema plumbing: they match many concrete
// keys during reconciliation and never appear in rendered or validated
// output. Exactly one of Key/Pattern is set.
type Field struct {
	Key     string
	Pattern *regexp.Regexp
	Value   *Value
}

// Name returns the entry's key, or the pattern source for pattern entries.
func (f Field) Name() string {
	if f.Pattern != nil {
		return f.Pattern.String()
	}
	return f.Key
}

// Null returns a fresh null value.
func Null() *Value { return &Value{Type: NullType} }

// FromBool returns a fresh boolean value.
func FromBool(b bool) *Value { return &Value{Type: BoolType, Bool: b} }

// FromInt returns a fresh integer value.
func FromInt(i int64) *Value { return &Value{Type: IntType, Int64: i} }

// FromFloat returns a fresh floating-point value.
func FromFloat(f float64) *Value { return &Value{Type: FloatType, Float64: f} }

// FromString returns a fresh string value.
func FromString(s string) *Value { return &Value{Type: StringType, String: s} }

// NewArray returns a fresh array holding the given elements.
func NewArray(elems ...*Value) *Value {
	return &Value{Type: ArrayType, Values: append([]*Value{}, elems...)}
}

// NewObject returns a fresh empty object.
func NewObject() *Value { return &Value{Type: ObjectType} }

// IsNull reports whether v is nil or an explicit null.
func (v *Value) IsNull() bool { return v == nil || v.Type == NullType }

// Get returns the value of the first non-pattern entry with the given key.
func (v *Value) Get(key string) (*Value, bool) {
	if v == nil || v.Type != ObjectType {
		return nil, false
	}
	for _, f := range v.Fields {
		if f.Pattern == nil && f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Set replaces the value of an existing key or appends a new entry.
func (v *Value) Set(key string, val *Value) {
	for i, f := range v.Fields {
		if f.Pattern == nil && f.Key == key {
			v.Fields[i].Value = val
			return
		}
	}
	v.Fields = append(v.Fields, Field{Key: key, Value: val})
}

// Clone returns a deep copy sharing no nodes with v. Compiled patterns are
// shared; they are immutable.
func (v *Value) Clone() *Value {
	if v == nil {
		return nil
	}
	dst := &Value{
		Type:    v.Type,
		Bool:    v.Bool,
		Int64:   v.Int64,
		Float64: v.Float64,
		String:  v.String,
	}
	if v.Values != nil {
		dst.Values = make([]*Value, len(v.Values))
		for i, e := range v.Values {
			dst.Values[i] = e.Clone()
		}
	}
	if v.Fields != nil {
		dst.Fields = make([]Field, len(v.Fields))
		for i, f := range v.Fields {
			dst.Fields[i] = Field{Key: f.Key, Pattern: f.Pattern, Value: f.Value.Clone()}
		}
	}
	return dst
}

// Equal reports deep equality. Types must match exactly; an integer never
// equals a float. Object entries must agree in order as well as content.
func (v *Value) Equal(o *Value) bool {
	if v == nil || o == nil {
		return v.IsNull() && o.IsNull()
	}
	if v.Type != o.Type {
		return false
	}
	switch v.Type {
	case NullType:
		return true
	case BoolType:
		return v.Bool == o.Bool
	case IntType:
		return v.Int64 == o.Int64
	case FloatType:
		return v.Float64 == o.Float64
	case StringType:
		return v.String == o.String
	case ArrayType:
		if len(v.Values) != len(o.Values) {
			return false
		}
		for i := range v.Values {
			if !v.Values[i].Equal(o.Values[i]) {
				return false
			}
		}
		return true
	case ObjectType:
		if len(v.Fields) != len(o.Fields) {
			return false
		}
		for i := range v.Fields {
			if v.Fields[i].Name() != o.Fields[i].Name() {
				return false
			}
			if !v.Fields[i].Value.Equal(o.Fields[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

// MarshalJSON emits the tree with object entries in their stored order.
func (v *Value) MarshalJSON() ([]byte, error) {
	if v == nil || v.Type == NullType {
		return []byte("null"), nil
	}
	switch v.Type {
	case BoolType:
		return strconv.AppendBool(nil, v.Bool), nil
	case IntType:
		return strconv.AppendInt(nil, v.Int64, 10), nil
	case FloatType:
		return json.Marshal(v.Float64)
	case StringType:
		return json.Marshal(v.String)
	case ArrayType:
		buf := []byte{'['}
		for i, e := range v.Values {
			if i > 0 {
				buf = append(buf, ',')
			}
			b, err := e.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf = append(buf, b...)
		}
		return append(buf, ']'), nil
	case ObjectType:
		buf := []byte{'{'}
		for i, f := range v.Fields {
			if i > 0 {
				buf = append(buf, ',')
			}
			k, err := json.Marshal(f.Name())
			if err != nil {
				return nil, err
			}
			buf = append(buf, k...)
			buf = append(buf, ':')
			b, err := f.Value.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf = append(buf, b...)
		}
		return append(buf, '}'), nil
	}
	return []byte("null"), nil
}
