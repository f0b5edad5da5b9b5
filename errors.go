package skemaconf

import (
	"github.com/reoring/skemaconf/ir"
)

// Diagnostic is the single most specific validation failure of a value
// tree: the '/'-joined instance path, a human-readable message and, when
// the path resolves, the offending sub-tree. It is returned as data;
// callers decide whether to treat it as an error. A nil Diagnostic means
// the tree is valid.
type Diagnostic struct {
	Path    string    `json:"path"`
	Message string    `json:"message"`
	Value   *ir.Value `json:"value,omitempty"`
}

func (d *Diagnostic) Error() string {
	if d.Path == "" {
		return d.Message
	}
	return d.Message + " at " + d.Path
}
