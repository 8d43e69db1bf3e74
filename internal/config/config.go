// Package config builds the effective configuration of one check run.
//
// Values are layered, lowest first: built-in defaults, the YAML config
// file (/etc/check_azure/config.yaml unless --config or CHECK_AZURE_CONFIG
// says otherwise), environment variables, and finally command-line flags
// that were set explicitly. A client secret still missing after that can
// be filled from the OS keychain.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"checkazure/internal/azure"
	"checkazure/internal/domain"
	"checkazure/internal/state"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultPath is read when it exists and no other path was given.
	DefaultPath = "/etc/check_azure/config.yaml"

	DefaultTimeout  = 60 * time.Second
	DefaultLogLevel = "warn"
)

// pathOverride, when non-empty, replaces DefaultPath.
// Intended for testing. Use SetPath / ResetPath to manage.
var pathOverride string

// SetPath overrides the config file path. Intended for testing.
func SetPath(p string) { pathOverride = p }

// ResetPath clears the path override, reverting to the default. Intended for testing.
func ResetPath() { pathOverride = "" }

// Path returns the config file path used when --config is not given.
func Path() string {
	if pathOverride != "" {
		return pathOverride
	}
	if p := os.Getenv("CHECK_AZURE_CONFIG"); p != "" {
		return p
	}
	return DefaultPath
}

// StateConfig selects where time-window cursors are persisted.
type StateConfig struct {
	Backend      string `yaml:"backend,omitempty"`
	Path         string `yaml:"path,omitempty"`
	FallbackPath string `yaml:"fallback_path,omitempty"`
}

// Config is everything one check invocation needs.
type Config struct {
	TenantID       string `yaml:"tenant_id,omitempty"`
	ClientID       string `yaml:"client_id,omitempty"`
	Secret         string `yaml:"client_secret,omitempty"`
	SubscriptionID string `yaml:"subscription_id,omitempty"`
	ResourceGroup  string `yaml:"resource_group,omitempty"`

	// Endpoint is the Resource Manager URL; AuthorityHost the Azure AD
	// login URL. Both only need changing for sovereign clouds.
	Endpoint      string `yaml:"endpoint,omitempty"`
	AuthorityHost string `yaml:"authority_host,omitempty"`

	LogLevel string        `yaml:"log_level,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`

	// CacheDir holds the provider registration marker.
	CacheDir         string `yaml:"cache_dir,omitempty"`
	SkipRegistration bool   `yaml:"skip_registration,omitempty"`

	State StateConfig `yaml:"state,omitempty"`

	// Target of this invocation. Flags only.
	Host          string `yaml:"-"`
	Mode          string `yaml:"-"`
	Warning       string `yaml:"-"`
	Critical      string `yaml:"-"`
	ExtraProvider string `yaml:"-"`
	Metric        string `yaml:"-"`
	Provider      string `yaml:"-"`
	Aggregation   string `yaml:"-"`
	Unit          string `yaml:"-"`
	Debug         bool   `yaml:"-"`
}

// Defaults returns the configuration before any source is applied.
func Defaults() *Config {
	return &Config{
		Endpoint: azure.DefaultEndpoint,
		LogLevel: DefaultLogLevel,
		Timeout:  DefaultTimeout,
		// An empty path lets the file backend pick its primary or
		// fallback location.
		State: StateConfig{Backend: state.BackendFile},
	}
}

// Load builds the effective configuration for cmd, whose flags must have
// been registered with AddFlags. It does not validate.
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := Defaults()

	path, explicit := Path(), false
	if cmd.Flags().Changed("config") {
		path, _ = cmd.Flags().GetString("config")
		explicit = true
	}
	if err := cfg.MergeFile(path, explicit); err != nil {
		return nil, err
	}

	cfg.MergeEnv()
	cfg.MergeFlags(cmd)
	return cfg, nil
}

// LoadFile reads only the config file at path. A missing file yields the
// defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Defaults()
	if err := cfg.MergeFile(path, false); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MergeFile overlays the YAML file at path. A missing file is an error
// only when mustExist is set.
func (c *Config) MergeFile(path string, mustExist bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !mustExist {
			return nil
		}
		return fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	return nil
}

// envBindings maps environment variables onto string fields.
var envBindings = []struct {
	name  string
	field func(*Config) *string
}{
	{"AZURE_TENANT_ID", func(c *Config) *string { return &c.TenantID }},
	{"AZURE_CLIENT_ID", func(c *Config) *string { return &c.ClientID }},
	{"AZURE_CLIENT_SECRET", func(c *Config) *string { return &c.Secret }},
	{"AZURE_SUBSCRIPTION_ID", func(c *Config) *string { return &c.SubscriptionID }},
	{"CHECK_AZURE_STATE_BACKEND", func(c *Config) *string { return &c.State.Backend }},
	{"CHECK_AZURE_STATE_PATH", func(c *Config) *string { return &c.State.Path }},
	{"CHECK_AZURE_LOG_LEVEL", func(c *Config) *string { return &c.LogLevel }},
}

// MergeEnv overlays non-empty environment variables.
func (c *Config) MergeEnv() {
	for _, b := range envBindings {
		if v := os.Getenv(b.name); v != "" {
			*b.field(c) = v
		}
	}
}

// MergeFlags overlays flags the user set explicitly, so flag defaults
// never mask values from the file or environment.
func (c *Config) MergeFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	for _, b := range flagBindings {
		if flags.Changed(b.name) {
			*b.field(c), _ = flags.GetString(b.name)
		}
	}
	if flags.Changed("timeout") {
		c.Timeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("debug") {
		c.Debug, _ = flags.GetBool("debug")
	}
	if c.Debug {
		c.LogLevel = "debug"
	}
}

// FillSecret asks lookup for the client secret when no other source
// provided one. It reports whether a secret was filled.
func (c *Config) FillSecret(lookup func(tenantID, clientID string) (string, error)) (bool, error) {
	if c.Secret != "" || c.TenantID == "" || c.ClientID == "" {
		return false, nil
	}
	secret, err := lookup(c.TenantID, c.ClientID)
	if err != nil {
		return false, err
	}
	c.Secret = secret
	return secret != "", nil
}

// Validate reports the first required value that is missing, then checks
// the ambient settings.
func (c *Config) Validate() error {
	for _, b := range flagBindings {
		if b.required && strings.TrimSpace(*b.field(c)) == "" {
			return fmt.Errorf("missing the -%s/--%s argument: %w", b.short, b.name, domain.ErrMissingArgument)
		}
	}

	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("config: timeout must be positive, got %s", c.Timeout)
	}
	switch strings.ToLower(c.State.Backend) {
	case state.BackendFile, state.BackendSQLite:
	default:
		return fmt.Errorf("config: unknown state backend %q (want %s or %s)", c.State.Backend, state.BackendFile, state.BackendSQLite)
	}
	return nil
}

// ParseLevel validates a log level name.
func ParseLevel(level string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(level))
	switch normalized {
	case "debug", "info", "warn", "error":
		return normalized, nil
	}
	return "", fmt.Errorf("config: invalid log level %q (want debug, info, warn or error)", level)
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() *Config {
	cp := *c
	if cp.Secret != "" {
		cp.Secret = "********"
	}
	return &cp
}

// SaveTo writes the file-backed settings to path as YAML, creating the
// parent directory if needed. Per-invocation values are never written.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("config: failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: failed to marshal config: %w", err)
	}

	// The file may hold a client secret.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: failed to write %s: %w", path, err)
	}
	return nil
}
