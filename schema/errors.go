package schema

import "strings"

// Error codes carried by Error.Code.
const (
	CodeMalformed        = "malformed_schema"
	CodeMissingType      = "missing_type"
	CodeBadPattern       = "bad_pattern"
	CodeMissingDefault   = "missing_default"
	CodeNoPropertySource = "no_property_source"
)

// Error reports a schema position that cannot be compiled or cannot produce
// a default value. It is fatal to the operation that raised it; only the
// per-property skip during object synthesis tolerates the two synthesis
// codes (missing_default, no_property_source).
type Error struct {
	Path string // '/'-joined schema path; empty for the root
	Code string // one of the codes listed above
	Msg  string
}

func (e *Error) Error() string {
	if e.Path == "" {
		return e.Msg
	}
	return e.Msg + " at " + e.Path
}

// Violation is a single validation finding against a value tree. Path holds
// the instance path segments from the root to the offending value; anyOf and
// oneOf failures are reported at the union node itself.
type Violation struct {
	Path    []string
	Message string
}

// JoinPath returns the '/'-joined form of the violation path.
func (v Violation) JoinPath() string { return strings.Join(v.Path, "/") }

// BestMatch selects the most specific violation: the one with the deepest
// instance path. Ties go to the earliest reported. ok is false when vs is
// empty.
func BestMatch(vs []Violation) (best Violation, ok bool) {
	for i, v := range vs {
		if i == 0 || len(v.Path) > len(best.Path) {
			best = v
			ok = true
		}
	}
	return best, ok
}
