package skemaconf

// Package skemaconf provides:
//
// - Schema-driven synthesis of default configuration trees, with field
//   descriptions carried as in-tree markers
// - Reconciliation of partial, possibly malformed user configuration
//   against those defaults (idempotent, never discards user data)
// - Validation with best-match diagnostics (path, message, offending value)
// - Rendering to YAML or TOML with descriptions rewritten as comments
//
// Design policy:
// - Keep only public APIs in the root package; put the value tree under ir/,
//   the schema model and validator under schema/, text formats under codec/,
//   and the CLI under cmd/skemaconf.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	s, err := skemaconf.BuildSchema(schemaText)
//	cfg := skemaconf.New(s)
//	err = cfg.Load(userText)
//	if d := cfg.Validate(); d != nil { ... }
//	text, err := cfg.Render()
//
// Or, file-based with bootstrap:
//
//	cfg, err := skemaconf.Open("schema.yml", "config.yml")
//
