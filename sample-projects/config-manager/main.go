package main

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	skemaconf "github.com/reoring/skemaconf"
	"github.com/reoring/skemaconf/codec"
	"github.com/reoring/skemaconf/ir"
	"github.com/reoring/skemaconf/schema"
)

// configSchema declares the complete application configuration. Fields
// without a default (database name, username) must come from the user, so
// validation flags them when every layer leaves them out.
const configSchema = `
type: object
required: [app]
properties:
  app:
    type: object
    description: process level settings
    properties:
      name: {type: string, default: mywebapp, description: service name used in logs and metrics}
      version: {type: string, default: 1.0.0, description: deployed version tag}
      environment:
        type: string
        default: development
        enum: [development, staging, production]
        description: runtime environment name
      host: {type: string, default: 0.0.0.0, description: listen address}
      port: {type: integer, default: 8080, minimum: 1, maximum: 65535, description: listen port}
      tls:
        type: object
        description: optional TLS termination
        properties:
          enabled: {type: boolean, default: false}
          certFile: {type: string, default: "", description: path to the PEM certificate}
          keyFile: {type: string, default: "", description: path to the PEM private key}
      cors:
        type: object
        properties:
          enabled: {type: boolean, default: true}
          origins:
            type: array
            description: allowed origins, "*" for any
            items: {type: string, default: "*"}
  database:
    type: object
    description: primary PostgreSQL connection
    required: [database, username]
    properties:
      host: {type: string, default: localhost}
      port: {type: integer, default: 5432}
      database: {type: string, description: database name}
      username: {type: string, description: role the app connects as}
      password:
        type: string
        default: ""
        description: keep this out of base.yaml and supply it per environment
      maxConns: {type: integer, default: 10, minimum: 1}
      maxIdleConns: {type: integer, default: 5, minimum: 0}
      sslMode:
        type: string
        default: prefer
        enum: [disable, prefer, require]
  redis:
    type: object
    description: cache and session store
    properties:
      host: {type: string, default: localhost}
      port: {type: integer, default: 6379}
      database: {type: integer, default: 0, minimum: 0, maximum: 15}
      password: {type: string, default: ""}
      poolSize: {type: integer, default: 10, minimum: 1}
  logging:
    type: object
    properties:
      level:
        type: string
        default: info
        enum: [debug, info, warn, error]
        description: minimum severity that gets written
      format: {type: string, default: json, enum: [json, text]}
      output:
        type: string
        default: stdout
        description: stdout, stderr or a file path
  features:
    type: object
    description: runtime feature toggles
    properties:
      analytics: {type: boolean, default: true, description: collect anonymous usage metrics}
      debugging: {type: boolean, default: false, description: verbose internal endpoints}
    patternProperties:
      "^[a-z][a-z_]*$": {type: boolean, default: false}
`

// ConfigManager layers base.yaml and an optional per-environment override
// file on top of the schema defaults.
type ConfigManager struct {
	schema *schema.Schema
}

func NewConfigManager() *ConfigManager {
	s, err := skemaconf.BuildSchema([]byte(configSchema))
	if err != nil {
		panic(err)
	}
	return &ConfigManager{schema: s}
}

// LoadConfig merges, most specific first: <env>.yaml, base.yaml, schema
// defaults. Values from an earlier layer always win over later ones.
func (cm *ConfigManager) LoadConfig(env string) (*ir.Value, error) {
	baseData, err := cm.loadFile("base.yaml")
	if err != nil {
		return nil, fmt.Errorf("load base config: %w", err)
	}
	merged, err := codec.Parse(cm.expandEnvVars(baseData), codec.YAML)
	if err != nil {
		return nil, fmt.Errorf("parse base config: %w", err)
	}

	envFile := env + ".yaml"
	if cm.fileExists(envFile) {
		envData, err := cm.loadFile(envFile)
		if err != nil {
			return nil, fmt.Errorf("load %s config: %w", env, err)
		}
		overlay, err := codec.Parse(cm.expandEnvVars(envData), codec.YAML)
		if err != nil {
			return nil, fmt.Errorf("parse %s config: %w", env, err)
		}
		merged = skemaconf.ReconcileValue(overlay, merged, false)
	}

	return skemaconf.Reconcile(merged, cm.schema)
}

func (cm *ConfigManager) ValidateConfig(env string) error {
	config, err := cm.LoadConfig(env)
	if err != nil {
		return err
	}

	if d := skemaconf.Validate(config, cm.schema); d != nil {
		return d
	}

	// Cross-field checks the schema language cannot express.
	if isTrue(lookup(config, "app", "tls", "enabled")) {
		cert := stringOf(lookup(config, "app", "tls", "certFile"))
		key := stringOf(lookup(config, "app", "tls", "keyFile"))
		if cert == "" || key == "" {
			return fmt.Errorf("TLS enabled but cert/key files not specified")
		}
	}

	fmt.Printf("✅ Configuration for environment %q is valid!\n", env)
	return nil
}

func (cm *ConfigManager) ShowConfig(env string, maskSecrets bool) error {
	config, err := cm.LoadConfig(env)
	if err != nil {
		return err
	}

	if maskSecrets {
		config = masked(config)
	}

	out, err := skemaconf.Render(config, codec.YAML)
	if err != nil {
		return fmt.Errorf("render config: %w", err)
	}

	fmt.Printf("📋 Configuration for environment: %s\n", env)
	fmt.Println(strings.Repeat("=", len(env)+32))
	fmt.Print(out)
	return nil
}

// ShowDefaults prints base.yaml exactly as generate would write it, every
// described field preceded by its comment.
func (cm *ConfigManager) ShowDefaults() error {
	text, err := skemaconf.New(cm.schema).DefaultText()
	if err != nil {
		return err
	}
	fmt.Print(text)
	return nil
}

func (cm *ConfigManager) GenerateTemplate() error {
	base, err := skemaconf.New(cm.schema).DefaultText()
	if err != nil {
		return fmt.Errorf("render defaults: %w", err)
	}

	templates := []struct {
		name    string
		content string
	}{
		{"base.yaml", base},
		{"development.yaml", `# Development environment overrides
app:
  environment: development
  port: 3000

database:
  database: myapp_dev
  username: postgres
  password: ${DB_PASSWORD:-dev_password}
  sslMode: disable

logging:
  level: debug

features:
  debugging: true
`},
		{"staging.yaml", `# Staging environment overrides
app:
  environment: staging

database:
  host: ${DB_HOST:-staging-db.internal}
  database: myapp
  username: ${DB_USER:-app}
  password: ${DB_PASSWORD}
  sslMode: require

redis:
  host: ${REDIS_HOST:-staging-redis.internal}
  password: ${REDIS_PASSWORD}
`},
		{"production.yaml", `# Production environment overrides
app:
  environment: production
  port: 80
  tls:
    enabled: true
    certFile: ${TLS_CERT_FILE}
    keyFile: ${TLS_KEY_FILE}
  cors:
    origins:
      - https://example.com
      - https://app.example.com

database:
  host: ${DB_HOST}
  database: myapp
  username: ${DB_USER}
  password: ${DB_PASSWORD}
  maxConns: 50
  sslMode: require

redis:
  host: ${REDIS_HOST}
  password: ${REDIS_PASSWORD}
  poolSize: 50

logging:
  level: warn

features:
  debugging: false
`},
	}

	for _, t := range templates {
		if err := os.WriteFile(t.name, []byte(t.content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", t.name, err)
		}
		fmt.Printf("📝 Generated %s\n", t.name)
	}

	fmt.Println("✅ Template configuration files generated!")
	fmt.Println("\nNext steps:")
	fmt.Println("1. base.yaml holds the commented defaults; edit as needed")
	fmt.Println("2. The database name and username come from the env overlays")
	fmt.Println("3. Validate with: go run . validate --env=development")
	return nil
}

func (cm *ConfigManager) loadFile(filename string) ([]byte, error) {
	if !cm.fileExists(filename) {
		return nil, fmt.Errorf("file %s does not exist", filename)
	}
	return os.ReadFile(filename)
}

func (cm *ConfigManager) fileExists(filename string) bool {
	_, err := os.Stat(filename)
	return err == nil
}

var envVarRE = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars substitutes ${VAR} and ${VAR:-default} before parsing, so
// override files can carry secrets by reference.
func (cm *ConfigManager) expandEnvVars(data []byte) []byte {
	return []byte(envVarRE.ReplaceAllStringFunc(string(data), func(match string) string {
		expr := match[2 : len(match)-1]
		if name, fallback, ok := strings.Cut(expr, ":-"); ok {
			if value := os.Getenv(name); value != "" {
				return value
			}
			return fallback
		}
		return os.Getenv(expr)
	}))
}

var secretKeys = map[string]bool{
	"password": true,
	"keyFile":  true,
}

func masked(config *ir.Value) *ir.Value {
	out := config.Clone()
	maskInPlace(out)
	return out
}

func maskInPlace(v *ir.Value) {
	switch v.Type {
	case ir.ObjectType:
		for _, f := range v.Fields {
			if secretKeys[f.Key] && f.Value.Type == ir.StringType && f.Value.String != "" {
				f.Value.String = "***masked***"
				continue
			}
			maskInPlace(f.Value)
		}
	case ir.ArrayType:
		for _, e := range v.Values {
			maskInPlace(e)
		}
	}
}

func lookup(v *ir.Value, path ...string) *ir.Value {
	for _, key := range path {
		if v == nil || v.Type != ir.ObjectType {
			return nil
		}
		child, ok := v.Get(key)
		if !ok {
			return nil
		}
		v = child
	}
	return v
}

func isTrue(v *ir.Value) bool {
	return v != nil && v.Type == ir.BoolType && v.Bool
}

func stringOf(v *ir.Value) string {
	if v == nil || v.Type != ir.StringType {
		return ""
	}
	return v.String
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cm := NewConfigManager()
	command := os.Args[1]

	switch command {
	case "validate":
		env := getEnvFlag()
		if err := cm.ValidateConfig(env); err != nil {
			fmt.Fprintf(os.Stderr, "❌ Validation failed: %v\n", err)
			os.Exit(1)
		}

	case "show":
		env := getEnvFlag()
		maskSecrets := !getBoolFlag("--no-mask")
		if err := cm.ShowConfig(env, maskSecrets); err != nil {
			fmt.Fprintf(os.Stderr, "❌ Show failed: %v\n", err)
			os.Exit(1)
		}

	case "generate":
		if !getBoolFlag("--template") {
			fmt.Fprintf(os.Stderr, "❌ Use --template flag to generate template files\n")
			os.Exit(1)
		}
		if err := cm.GenerateTemplate(); err != nil {
			fmt.Fprintf(os.Stderr, "❌ Generate failed: %v\n", err)
			os.Exit(1)
		}

	case "defaults":
		if err := cm.ShowDefaults(); err != nil {
			fmt.Fprintf(os.Stderr, "❌ Defaults failed: %v\n", err)
			os.Exit(1)
		}

	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`Config Manager Sample

Usage: %s <command> [flags...]

Commands:
  validate [--env=<env>]          Validate configuration for environment
  show [--env=<env>] [--no-mask]  Show merged configuration (default: mask secrets)
  generate --template             Generate template configuration files
  defaults                        Print the commented default configuration

Flags:
  --env=<environment>      Environment (default: development)
  --no-mask                Don't mask sensitive information
  --template               Generate template files

Examples:
  %s generate --template
  %s validate --env=development
  %s show --env=staging
  %s show --env=production --no-mask
  %s defaults

Environment Files:
  base.yaml               Base configuration (required)
  <environment>.yaml      Environment-specific overrides (optional)

`, os.Args[0], os.Args[0], os.Args[0], os.Args[0], os.Args[0], os.Args[0])
}

func getEnvFlag() string {
	for _, arg := range os.Args {
		if strings.HasPrefix(arg, "--env=") {
			return strings.TrimPrefix(arg, "--env=")
		}
	}
	return "development"
}

func getBoolFlag(flag string) bool {
	for _, arg := range os.Args {
		if arg == flag {
			return true
		}
	}
	return false
}
