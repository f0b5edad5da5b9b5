package skemaconf_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	skemaconf "github.com/reoring/skemaconf"
	"github.com/reoring/skemaconf/codec"
)

const appSchema = `
type: object
properties:
  port: {type: integer, default: 8080, description: the TCP port}
  host: {type: string, default: localhost}
  backends:
    type: array
    items:
      type: object
      properties:
        name: {type: string, default: primary}
`

func writeSchema(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "schema.yml")
	if err := os.WriteFile(path, []byte(appSchema), 0o644); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	return path
}

func TestOpenBootstrapsMissingConfig(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeSchema(t, dir)
	configPath := filepath.Join(dir, "config.yml")

	c, err := skemaconf.Open(schemaPath, configPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !c.Bootstrapped() {
		t.Fatal("Bootstrapped() = false after creating the file")
	}

	written, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("the default file was not written: %v", err)
	}
	text := string(written)
	if !strings.Contains(text, "# the TCP port") || !strings.Contains(text, "port: 8080") {
		t.Fatalf("default file content:\n%s", text)
	}
	if strings.Contains(text, "__description__") {
		t.Fatalf("default file leaks markers:\n%s", text)
	}

	v := c.Value()
	if p, _ := v.Get("port"); p == nil || p.Int64 != 8080 {
		t.Fatalf("port = %#v", p)
	}
	backends, _ := v.Get("backends")
	if backends == nil || len(backends.Values) != 1 {
		t.Fatalf("backends = %#v, want one populated template element", backends)
	}
	if n, _ := backends.Values[0].Get("name"); n == nil || n.String != "primary" {
		t.Fatalf("backends[0] = %#v", backends.Values[0])
	}
}

func TestOpenAdoptsExistingConfig(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeSchema(t, dir)
	configPath := filepath.Join(dir, "config.yml")
	userText := "port: 9090\nbackends: []\n"
	if err := os.WriteFile(configPath, []byte(userText), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	c, err := skemaconf.Open(schemaPath, configPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if c.Bootstrapped() {
		t.Fatal("Bootstrapped() = true for an existing file")
	}
	if p, _ := c.Value().Get("port"); p.Int64 != 9090 {
		t.Fatalf("port = %#v, want the user's value", p)
	}
	if h, _ := c.Value().Get("host"); h.String != "localhost" {
		t.Fatalf("host = %#v, want the filler", h)
	}
	backends, _ := c.Value().Get("backends")
	if len(backends.Values) != 0 {
		t.Fatalf("backends = %#v, a user-supplied empty array must stay empty", backends)
	}

	after, _ := os.ReadFile(configPath)
	if string(after) != userText {
		t.Fatalf("existing config file was rewritten:\n%s", after)
	}
}

func TestOpenMissingSchema(t *testing.T) {
	dir := t.TempDir()
	_, err := skemaconf.Open(filepath.Join(dir, "absent.yml"), filepath.Join(dir, "config.yml"))
	if err == nil || !strings.Contains(err.Error(), "read schema") {
		t.Fatalf("err = %v, want a schema read error", err)
	}
}

func TestLoadKeepsLiveTreeOnBadInput(t *testing.T) {
	c := skemaconf.New(build(t, appSchema))
	if err := c.Load([]byte("port: 9090")); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := c.Load([]byte("port: [unclosed")); err == nil {
		t.Fatal("want a parse error")
	}
	if p, _ := c.Value().Get("port"); p.Int64 != 9090 {
		t.Fatalf("port = %#v, live tree must survive a failed Load", p)
	}
}

func TestLowerKeysFolding(t *testing.T) {
	c := skemaconf.New(build(t, appSchema), skemaconf.WithLowerKeys())
	if err := c.Load([]byte("PORT: 9090\nHost: remote")); err != nil {
		t.Fatalf("Load: %v", err)
	}
	v := c.Value()
	if p, ok := v.Get("port"); !ok || p.Int64 != 9090 {
		t.Fatalf("port = %#v, want the folded user key to win", p)
	}
	if h, _ := v.Get("host"); h.String != "remote" {
		t.Fatalf("host = %#v", h)
	}
	if _, ok := v.Get("PORT"); ok {
		t.Fatal("unfolded key survived")
	}
}

func TestConfigTOMLLifecycle(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeSchema(t, dir)
	configPath := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(configPath, []byte("port = 9090\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	c, err := skemaconf.Open(schemaPath, configPath, skemaconf.WithFormat(codec.TOML))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if p, _ := c.Value().Get("port"); p.Int64 != 9090 {
		t.Fatalf("port = %#v", p)
	}
	out, err := c.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "port = 9090") || !strings.Contains(out, `host = "localhost"`) {
		t.Fatalf("rendered TOML:\n%s", out)
	}
}

func TestConfigTOMLBootstrap(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeSchema(t, dir)
	configPath := filepath.Join(dir, "config.toml")

	c, err := skemaconf.Open(schemaPath, configPath, skemaconf.WithFormat(codec.TOML))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !c.Bootstrapped() {
		t.Fatal("Bootstrapped() = false")
	}
	written, _ := os.ReadFile(configPath)
	text := string(written)
	if !strings.Contains(text, "# the TCP port") || !strings.Contains(text, "port = 8080") {
		t.Fatalf("default file content:\n%s", text)
	}
	if !strings.Contains(text, "[[backends]]") {
		t.Fatalf("array-of-tables section missing:\n%s", text)
	}
}

func TestConfigValidate(t *testing.T) {
	src := `
type: object
properties:
  port: {type: integer, default: 8080, minimum: 1}
`
	c := skemaconf.New(build(t, src))
	if err := c.Load([]byte("port: 0")); err != nil {
		t.Fatalf("Load: %v", err)
	}
	d := c.Validate()
	if d == nil || d.Path != "port" {
		t.Fatalf("diagnostic = %v, want one at port", d)
	}
	if err := c.Load([]byte("port: 80")); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if d := c.Validate(); d != nil {
		t.Fatalf("diagnostic = %v, want nil", d)
	}
}

func TestDefaultTextMatchesBootstrapFile(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeSchema(t, dir)
	configPath := filepath.Join(dir, "config.yml")
	c, err := skemaconf.Open(schemaPath, configPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	text, err := c.DefaultText()
	if err != nil {
		t.Fatalf("DefaultText: %v", err)
	}
	written, _ := os.ReadFile(configPath)
	if text != string(written) {
		t.Fatalf("DefaultText diverges from the bootstrap file:\n%q\n%q", text, written)
	}
}
