package skemaconf

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/reoring/skemaconf/codec"
	"github.com/reoring/skemaconf/ir"
)

// The renderer works in two passes: the codec serializes the tree with
// markers as ordinary entries, then the rules below rewrite each marker
// line into a comment with the same indentation. Multi-line description
// texts become one comment line each.
var (
	yamlListMarkerRE  = regexp.MustCompile(`^(\s*)- ` + regexp.QuoteMeta(ir.MarkerPrefix) + `\S*: (.*)$`)
	yamlKeyedMarkerRE = regexp.MustCompile(`^(\s*)` + regexp.QuoteMeta(ir.MarkerPrefix) + `\S*: (.*)$`)
	tomlMarkerRE      = regexp.MustCompile(`^(\s*)` + regexp.QuoteMeta(ir.MarkerPrefix) + `\S* = (.*)$`)
)

func rewriteMarkers(text string, f codec.Format) string {
	if f == codec.TOML {
		return rewriteTOMLMarkers(text)
	}
	return rewriteYAMLMarkers(text)
}

func rewriteYAMLMarkers(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	// A sequence dash consumed together with a marker. When the marker was
	// the first key of a multi-key element, the element's next line must
	// inherit the dash or the element would dissolve into its parent.
	pendingDash := false
	dashIndent := ""
	for i := 0; i < len(lines); i++ {
		var indent, payload, prefix string
		listItem := false
		if m := yamlListMarkerRE.FindStringSubmatch(lines[i]); m != nil {
			indent, payload = m[1], m[2]
			prefix = indent + "  # "
			listItem = true
		} else if m := yamlKeyedMarkerRE.FindStringSubmatch(lines[i]); m != nil {
			indent, payload = m[1], m[2]
			prefix = indent + "# "
		} else {
			line := lines[i]
			if pendingDash {
				cont := dashIndent + "  "
				if strings.HasPrefix(line, cont) && !strings.HasPrefix(line[len(cont):], "- ") {
					line = dashIndent + "- " + line[len(cont):]
				}
				pendingDash = false
			}
			out = append(out, line)
			continue
		}
		// The emitter wraps long quoted scalars across physical lines; a
		// break inside a double-quoted scalar folds back to one space.
		for !quotedScalarComplete(payload) && i+1 < len(lines) {
			i++
			payload += " " + strings.TrimLeft(lines[i], " ")
		}
		if listItem {
			pendingDash = true
			dashIndent = indent
		}
		for _, pl := range strings.Split(unquoteScalar(payload), "\n") {
			out = append(out, prefix+pl)
		}
	}
	return strings.Join(out, "\n")
}

func rewriteTOMLMarkers(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		m := tomlMarkerRE.FindStringSubmatch(line)
		if m == nil {
			out = append(out, line)
			continue
		}
		for _, pl := range strings.Split(unquoteScalar(m[2]), "\n") {
			out = append(out, m[1]+"# "+pl)
		}
	}
	return strings.Join(out, "\n")
}

// quotedScalarComplete reports whether a double-quoted scalar fragment
// carries its closing quote. Unquoted payloads are always complete lines.
func quotedScalarComplete(s string) bool {
	if !strings.HasPrefix(s, `"`) {
		return true
	}
	esc := false
	for i := 1; i < len(s); i++ {
		switch {
		case esc:
			esc = false
		case s[i] == '\\':
			esc = true
		case s[i] == '"':
			return true
		}
	}
	return false
}

func unquoteScalar(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		if u, err := strconv.Unquote(s); err == nil {
			return u
		}
		return s[1 : len(s)-1]
	}
	if len(s) >= 2 && strings.HasPrefix(s, `'`) && strings.HasSuffix(s, `'`) {
		return strings.ReplaceAll(s[1:len(s)-1], "''", "'")
	}
	return s
}
