package codec

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/reoring/skemaconf/ir"
)

// renderTOML writes the tree in document order. TOML requires a table's
// plain keys to precede its sub-tables, so each table is emitted in two
// phases; description markers stay attached to the entry they precede and
// move with it. Entries holding null are skipped, TOML has no null.
func renderTOML(v *ir.Value) (string, error) {
	if v.IsNull() {
		return "", nil
	}
	if v.Type != ir.ObjectType {
		return "", fmt.Errorf("toml: top-level value must be a table")
	}
	var sb strings.Builder
	if err := encodeTable(&sb, v, nil); err != nil {
		return "", err
	}
	return sb.String(), nil
}

type pendingMarker struct {
	key  string
	text string
}

func encodeTable(sb *strings.Builder, obj *ir.Value, path []string) error {
	type deferredTable struct {
		field   ir.Field
		markers []pendingMarker
	}
	var tables []deferredTable
	var markers []pendingMarker

	for _, f := range obj.Fields {
		if f.Pattern != nil {
			markers = nil
			continue
		}
		if ir.IsMarkerKey(f.Key) {
			markers = append(markers, pendingMarker{key: f.Key, text: ir.MarkerText(f.Value)})
			continue
		}
		if f.Value.IsNull() {
			markers = nil
			continue
		}
		if isTableLike(f.Value) {
			tables = append(tables, deferredTable{field: f, markers: markers})
			markers = nil
			continue
		}
		writeMarkers(sb, markers)
		markers = nil
		elems, hoisted := splitArrayMarkers(f.Value)
		writeMarkers(sb, hoisted)
		text, err := encodeInline(elems)
		if err != nil {
			return err
		}
		fmt.Fprintf(sb, "%s = %s\n", tomlKey(f.Key), text)
	}

	for _, dt := range tables {
		childPath := append(append([]string{}, path...), dt.field.Key)
		header := tomlHeaderPath(childPath)
		if dt.field.Value.Type == ir.ObjectType {
			writeBlankLine(sb)
			writeMarkers(sb, dt.markers)
			fmt.Fprintf(sb, "[%s]\n", header)
			if err := encodeTable(sb, dt.field.Value, childPath); err != nil {
				return err
			}
			continue
		}
		first := true
		for _, e := range dt.field.Value.Values {
			if ir.IsMarkerElement(e) {
				if first {
					dt.markers = append(dt.markers, pendingMarker{key: e.Fields[0].Key, text: ir.MarkerText(e)})
				}
				continue
			}
			writeBlankLine(sb)
			if first {
				writeMarkers(sb, dt.markers)
				first = false
			}
			fmt.Fprintf(sb, "[[%s]]\n", header)
			if err := encodeTable(sb, e, childPath); err != nil {
				return err
			}
		}
	}
	return nil
}

// isTableLike reports whether a value renders as [table] or [[table]]
// sections rather than an inline key. Arrays qualify when every non-marker
// element is an object and at least one exists.
func isTableLike(v *ir.Value) bool {
	if v == nil {
		return false
	}
	if v.Type == ir.ObjectType {
		return true
	}
	if v.Type != ir.ArrayType {
		return false
	}
	n := 0
	for _, e := range v.Values {
		if ir.IsMarkerElement(e) {
			continue
		}
		if e == nil || e.Type != ir.ObjectType {
			return false
		}
		n++
	}
	return n > 0
}

// splitArrayMarkers hoists marker elements out of an inline array so they
// can precede the key line; non-arrays pass through untouched.
func splitArrayMarkers(v *ir.Value) (*ir.Value, []pendingMarker) {
	if v == nil || v.Type != ir.ArrayType {
		return v, nil
	}
	var hoisted []pendingMarker
	out := &ir.Value{Type: ir.ArrayType}
	for _, e := range v.Values {
		if ir.IsMarkerElement(e) {
			hoisted = append(hoisted, pendingMarker{key: e.Fields[0].Key, text: ir.MarkerText(e)})
			continue
		}
		out.Values = append(out.Values, e)
	}
	return out, hoisted
}

func writeMarkers(sb *strings.Builder, markers []pendingMarker) {
	for _, m := range markers {
		fmt.Fprintf(sb, "%s = %s\n", m.key, tomlQuote(m.text))
	}
}

func writeBlankLine(sb *strings.Builder) {
	if sb.Len() > 0 {
		sb.WriteByte('\n')
	}
}

func encodeInline(v *ir.Value) (string, error) {
	if v == nil {
		return "", fmt.Errorf("toml: cannot inline a null value")
	}
	switch v.Type {
	case ir.BoolType:
		return strconv.FormatBool(v.Bool), nil
	case ir.IntType:
		return strconv.FormatInt(v.Int64, 10), nil
	case ir.FloatType:
		return tomlFloat(v.Float64), nil
	case ir.StringType:
		return tomlQuote(v.String), nil
	case ir.ArrayType:
		parts := make([]string, 0, len(v.Values))
		for _, e := range v.Values {
			if e.IsNull() || ir.IsMarkerElement(e) {
				continue
			}
			p, err := encodeInline(e)
			if err != nil {
				return "", err
			}
			parts = append(parts, p)
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	case ir.ObjectType:
		parts := make([]string, 0, len(v.Fields))
		for _, f := range v.Fields {
			if f.Pattern != nil || ir.IsMarkerKey(f.Key) || f.Value.IsNull() {
				continue
			}
			p, err := encodeInline(f.Value)
			if err != nil {
				return "", err
			}
			parts = append(parts, tomlKey(f.Key)+" = "+p)
		}
		return "{" + strings.Join(parts, ", ") + "}", nil
	}
	return "", fmt.Errorf("toml: cannot inline a null value")
}

var bareKeyRE = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func tomlKey(k string) string {
	if bareKeyRE.MatchString(k) {
		return k
	}
	return tomlQuote(k)
}

func tomlHeaderPath(parts []string) string {
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = tomlKey(p)
	}
	return strings.Join(out, ".")
}

func tomlFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func tomlQuote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\b':
			sb.WriteString(`\b`)
		case '\t':
			sb.WriteString(`\t`)
		case '\n':
			sb.WriteString(`\n`)
		case '\f':
			sb.WriteString(`\f`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&sb, `\u%04X`, r)
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
