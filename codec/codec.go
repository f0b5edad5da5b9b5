// Package codec parses and renders configuration text in the supported
// formats. Both directions preserve object entry order: parsing goes through
// each format's document syntax tree rather than Go maps, and rendering
// walks the value tree directly.
package codec

import (
	"fmt"

	"github.com/reoring/skemaconf/ir"
)

// Format selects a text format.
type Format string

const (
	YAML Format = "yaml"
	TOML Format = "toml"
)

// ParseFormat returns the Format named by s.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case YAML, TOML:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown format %q (want yaml or toml)", s)
}

// Parse decodes data into an ordered value tree. Empty input decodes to
// null.
func Parse(data []byte, f Format) (*ir.Value, error) {
	switch f {
	case YAML:
		return parseYAML(data)
	case TOML:
		return parseTOML(data)
	}
	return nil, fmt.Errorf("unknown format %q", string(f))
}

// Render encodes a value tree as text in the given format.
func Render(v *ir.Value, f Format) (string, error) {
	switch f {
	case YAML:
		return renderYAML(v)
	case TOML:
		return renderTOML(v)
	}
	return "", fmt.Errorf("unknown format %q", string(f))
}
