package codec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2/unstable"

	"github.com/reoring/skemaconf/ir"
)

// parseTOML walks the document expression by expression instead of
// unmarshaling into Go maps, so table and key order survive.
func parseTOML(data []byte) (*ir.Value, error) {
	root := ir.NewObject()
	cur := root
	p := &unstable.Parser{}
	p.Reset(data)
	for p.NextExpression() {
		e := p.Expression()
		switch e.Kind {
		case unstable.KeyValue:
			if err := tomlInsertKeyValue(cur, e); err != nil {
				return nil, err
			}
		case unstable.Table:
			t, err := tomlEnsureTable(root, tomlKeyParts(e))
			if err != nil {
				return nil, err
			}
			cur = t
		case unstable.ArrayTable:
			t, err := tomlAppendArrayTable(root, tomlKeyParts(e))
			if err != nil {
				return nil, err
			}
			cur = t
		}
	}
	if err := p.Error(); err != nil {
		return nil, fmt.Errorf("toml: %w", err)
	}
	return root, nil
}

func tomlKeyParts(e *unstable.Node) []string {
	var parts []string
	it := e.Key()
	for it.Next() {
		parts = append(parts, string(it.Node().Data))
	}
	return parts
}

// tomlEnsureTable walks or creates the object at the given dotted path.
// A path step through an array of tables descends into its last element.
func tomlEnsureTable(root *ir.Value, parts []string) (*ir.Value, error) {
	cur := root
	for i, part := range parts {
		child, ok := cur.Get(part)
		if !ok {
			child = ir.NewObject()
			cur.Set(part, child)
		}
		switch child.Type {
		case ir.ObjectType:
			cur = child
		case ir.ArrayType:
			if len(child.Values) == 0 || child.Values[len(child.Values)-1].Type != ir.ObjectType {
				return nil, fmt.Errorf("toml: [%s] is not a table", strings.Join(parts[:i+1], "."))
			}
			cur = child.Values[len(child.Values)-1]
		default:
			return nil, fmt.Errorf("toml: [%s] is not a table", strings.Join(parts[:i+1], "."))
		}
	}
	return cur, nil
}

func tomlAppendArrayTable(root *ir.Value, parts []string) (*ir.Value, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("toml: array table without a key")
	}
	parent, err := tomlEnsureTable(root, parts[:len(parts)-1])
	if err != nil {
		return nil, err
	}
	last := parts[len(parts)-1]
	arr, ok := parent.Get(last)
	if !ok {
		arr = &ir.Value{Type: ir.ArrayType}
		parent.Set(last, arr)
	}
	if arr.Type != ir.ArrayType {
		return nil, fmt.Errorf("toml: [[%s]] conflicts with an existing key", strings.Join(parts, "."))
	}
	elem := ir.NewObject()
	arr.Values = append(arr.Values, elem)
	return elem, nil
}

func tomlInsertKeyValue(cur *ir.Value, e *unstable.Node) error {
	parts := tomlKeyParts(e)
	if len(parts) == 0 {
		return fmt.Errorf("toml: key-value without a key")
	}
	target, err := tomlEnsureTable(cur, parts[:len(parts)-1])
	if err != nil {
		return err
	}
	last := parts[len(parts)-1]
	if _, exists := target.Get(last); exists {
		return fmt.Errorf("toml: duplicate key %q", strings.Join(parts, "."))
	}
	v, err := tomlValue(e.Value())
	if err != nil {
		return err
	}
	target.Set(last, v)
	return nil
}

func tomlValue(n *unstable.Node) (*ir.Value, error) {
	switch n.Kind {
	case unstable.String:
		return ir.FromString(string(n.Data)), nil
	case unstable.Bool:
		return ir.FromBool(string(n.Data) == "true"), nil
	case unstable.Integer:
		i, err := strconv.ParseInt(tomlNumText(n.Data), 0, 64)
		if err != nil {
			return nil, fmt.Errorf("toml: bad integer %q: %w", n.Data, err)
		}
		return ir.FromInt(i), nil
	case unstable.Float:
		f, err := strconv.ParseFloat(tomlNumText(n.Data), 64)
		if err != nil {
			return nil, fmt.Errorf("toml: bad float %q: %w", n.Data, err)
		}
		return ir.FromFloat(f), nil
	case unstable.Array:
		out := &ir.Value{Type: ir.ArrayType}
		it := n.Children()
		for it.Next() {
			e, err := tomlValue(it.Node())
			if err != nil {
				return nil, err
			}
			out.Values = append(out.Values, e)
		}
		return out, nil
	case unstable.InlineTable:
		out := ir.NewObject()
		it := n.Children()
		for it.Next() {
			if err := tomlInsertKeyValue(out, it.Node()); err != nil {
				return nil, err
			}
		}
		return out, nil
	case unstable.LocalDate, unstable.LocalTime, unstable.LocalDateTime, unstable.DateTime:
		return ir.FromString(string(n.Data)), nil
	}
	return nil, fmt.Errorf("toml: unsupported value kind %s", n.Kind)
}

func tomlNumText(b []byte) string {
	return strings.ReplaceAll(string(b), "_", "")
}
