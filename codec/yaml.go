package codec

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/reoring/skemaconf/ir"
)

func parseYAML(data []byte) (*ir.Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return ir.Null(), nil
	}
	return fromYAMLNode(doc.Content[0])
}

func fromYAMLNode(n *yaml.Node) (*ir.Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return ir.Null(), nil
		}
		return fromYAMLNode(n.Content[0])
	case yaml.AliasNode:
		return fromYAMLNode(n.Alias)
	case yaml.SequenceNode:
		out := &ir.Value{Type: ir.ArrayType, Values: make([]*ir.Value, 0, len(n.Content))}
		for _, c := range n.Content {
			e, err := fromYAMLNode(c)
			if err != nil {
				return nil, err
			}
			out.Values = append(out.Values, e)
		}
		return out, nil
	case yaml.MappingNode:
		out := &ir.Value{Type: ir.ObjectType, Fields: make([]ir.Field, 0, len(n.Content)/2)}
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := fromYAMLNode(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			out.Fields = append(out.Fields, ir.Field{Key: n.Content[i].Value, Value: v})
		}
		return out, nil
	case yaml.ScalarNode:
		return fromYAMLScalar(n)
	}
	return nil, fmt.Errorf("yaml: unsupported node kind %d at line %d", n.Kind, n.Line)
}

func fromYAMLScalar(n *yaml.Node) (*ir.Value, error) {
	switch n.Tag {
	case "!!null":
		return ir.Null(), nil
	case "!!bool":
		b, err := strconv.ParseBool(n.Value)
		if err != nil {
			return ir.FromString(n.Value), nil
		}
		return ir.FromBool(b), nil
	case "!!int":
		i, err := strconv.ParseInt(strings.ReplaceAll(n.Value, "_", ""), 0, 64)
		if err != nil {
			return ir.FromString(n.Value), nil
		}
		return ir.FromInt(i), nil
	case "!!float":
		return ir.FromFloat(parseYAMLFloat(n.Value)), nil
	default:
		return ir.FromString(n.Value), nil
	}
}

func parseYAMLFloat(s string) float64 {
	switch strings.ToLower(strings.TrimPrefix(s, "+")) {
	case ".inf":
		return math.Inf(1)
	case "-.inf":
		return math.Inf(-1)
	case ".nan":
		return math.NaN()
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, "_", ""), 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

func renderYAML(v *ir.Value) (string, error) {
	var sb strings.Builder
	enc := yaml.NewEncoder(&sb)
	enc.SetIndent(2)
	if err := enc.Encode(toYAMLNode(v, false)); err != nil {
		return "", fmt.Errorf("yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("yaml: %w", err)
	}
	return sb.String(), nil
}

// toYAMLNode builds the encoder tree. Values of description markers are
// forced into double-quoted style so the comment rewriter downstream sees
// one predictable shape regardless of the text's content.
func toYAMLNode(v *ir.Value, quoted bool) *yaml.Node {
	if v == nil {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
	switch v.Type {
	case ir.NullType:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case ir.BoolType:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v.Bool)}
	case ir.IntType:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(v.Int64, 10)}
	case ir.FloatType:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: formatYAMLFloat(v.Float64)}
	case ir.StringType:
		n := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.String}
		if quoted {
			n.Style = yaml.DoubleQuotedStyle
		}
		return n
	case ir.ArrayType:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, e := range v.Values {
			n.Content = append(n.Content, toYAMLNode(e, false))
		}
		return n
	case ir.ObjectType:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, f := range v.Fields {
			key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Name()}
			n.Content = append(n.Content, key, toYAMLNode(f.Value, ir.IsMarkerKey(f.Key)))
		}
		return n
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}

func formatYAMLFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	case math.IsNaN(f):
		return ".nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
