package ir

import (
	"strings"

	"github.com/google/uuid"
)

// MarkerPrefix starts every description-marker key. The suffix is a fresh
// UUID so synthesized keys can never collide with real configuration keys.
const MarkerPrefix = "__description__"

// NewMarkerKey returns a unique description-marker key.
func NewMarkerKey() string {
	return MarkerPrefix + uuid.NewString()
}

// IsMarkerKey reports whether key names a description marker.
func IsMarkerKey(key string) bool {
	return strings.HasPrefix(key, MarkerPrefix)
}

// MarkerField builds an object entry carrying a description text.
func MarkerField(text string) Field {
	return Field{Key: NewMarkerKey(), Value: FromString(text)}
}

// MarkerElement builds the array-element form of a marker: a single-entry
// object wrapping a marker field.
func MarkerElement(text string) *Value {
	return &Value{Type: ObjectType, Fields: []Field{MarkerField(text)}}
}

// IsMarkerElement reports whether an array element is a wrapped marker.
func IsMarkerElement(v *Value) bool {
	return v != nil && v.Type == ObjectType && len(v.Fields) == 1 &&
		v.Fields[0].Pattern == nil && IsMarkerKey(v.Fields[0].Key)
}

// MarkerText returns the description carried by a marker field or element.
func MarkerText(v *Value) string {
	if IsMarkerElement(v) {
		v = v.Fields[0].Value
	}
	if v != nil && v.Type == StringType {
		return v.String
	}
	return ""
}

// StripPatterns returns a deep copy of v with every pattern-keyed entry
// removed, along with any marker entry standing immediately before one.
// Pattern entries exist only to drive reconciliation; validated, rendered
// and filler values must not contain them.
func StripPatterns(v *Value) *Value {
	if v == nil {
		return nil
	}
	switch v.Type {
	case ArrayType:
		dst := &Value{Type: ArrayType, Values: make([]*Value, 0, len(v.Values))}
		for _, e := range v.Values {
			dst.Values = append(dst.Values, StripPatterns(e))
		}
		return dst
	case ObjectType:
		dst := &Value{Type: ObjectType, Fields: make([]Field, 0, len(v.Fields))}
		for i, f := range v.Fields {
			if f.Pattern != nil {
				continue
			}
			if IsMarkerKey(f.Key) && i+1 < len(v.Fields) && v.Fields[i+1].Pattern != nil {
				continue
			}
			dst.Fields = append(dst.Fields, Field{Key: f.Key, Value: StripPatterns(f.Value)})
		}
		return dst
	default:
		return v.Clone()
	}
}
