package skemaconf

import (
	"strconv"

	"github.com/reoring/skemaconf/ir"
)

// valueAt walks the tree along an instance path. It returns nil when the
// path leads nowhere, which happens for violations about absent values
// (a missing required property has a path but no sub-tree).
func valueAt(v *ir.Value, path []string) *ir.Value {
	cur := v
	for _, seg := range path {
		if cur == nil {
			return nil
		}
		switch cur.Type {
		case ir.ObjectType:
			next, ok := cur.Get(seg)
			if !ok {
				return nil
			}
			cur = next
		case ir.ArrayType:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(cur.Values) {
				return nil
			}
			cur = cur.Values[i]
		default:
			return nil
		}
	}
	return cur
}
