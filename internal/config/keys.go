package config

import (
	"fmt"
	"strings"
	"time"

	"checkazure/internal/state"
)

// KeySpec describes a single key of the config file.
type KeySpec struct {
	// Name is the CLI-facing key name (e.g. "tenant-id").
	Name string

	// Description is a short human-readable explanation shown in help text.
	Description string

	// Get returns the current value for this key from a loaded Config.
	Get func(cfg *Config) string

	// Set validates and applies a value in memory; the caller saves.
	Set func(cfg *Config, value string) error
}

func setString(field func(*Config) *string) func(*Config, string) error {
	return func(cfg *Config, v string) error {
		*field(cfg) = strings.TrimSpace(v)
		return nil
	}
}

// Keys is the authoritative list of keys settable with "config set".
// The client secret is deliberately absent: use "auth login".
var Keys = []KeySpec{
	{
		Name:        "tenant-id",
		Description: "Azure AD tenant (directory) ID",
		Get:         func(cfg *Config) string { return cfg.TenantID },
		Set:         setString(func(c *Config) *string { return &c.TenantID }),
	},
	{
		Name:        "client-id",
		Description: "Service principal application ID",
		Get:         func(cfg *Config) string { return cfg.ClientID },
		Set:         setString(func(c *Config) *string { return &c.ClientID }),
	},
	{
		Name:        "subscription-id",
		Description: "Subscription holding the monitored resources",
		Get:         func(cfg *Config) string { return cfg.SubscriptionID },
		Set:         setString(func(c *Config) *string { return &c.SubscriptionID }),
	},
	{
		Name:        "resource-group",
		Description: "Default resource group when -r is not given",
		Get:         func(cfg *Config) string { return cfg.ResourceGroup },
		Set:         setString(func(c *Config) *string { return &c.ResourceGroup }),
	},
	{
		Name:        "endpoint",
		Description: "Resource Manager endpoint",
		Get:         func(cfg *Config) string { return cfg.Endpoint },
		Set:         setString(func(c *Config) *string { return &c.Endpoint }),
	},
	{
		Name:        "authority-host",
		Description: "Azure AD authority host for sovereign clouds",
		Get:         func(cfg *Config) string { return cfg.AuthorityHost },
		Set:         setString(func(c *Config) *string { return &c.AuthorityHost }),
	},
	{
		Name:        "log-level",
		Description: "debug, info, warn or error",
		Get:         func(cfg *Config) string { return cfg.LogLevel },
		Set: func(cfg *Config, v string) error {
			level, err := ParseLevel(v)
			if err != nil {
				return err
			}
			cfg.LogLevel = level
			return nil
		},
	},
	{
		Name:        "timeout",
		Description: "Deadline for all Azure calls, e.g. 30s",
		Get:         func(cfg *Config) string { return cfg.Timeout.String() },
		Set: func(cfg *Config, v string) error {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil || d <= 0 {
				return fmt.Errorf("invalid timeout %q", v)
			}
			cfg.Timeout = d
			return nil
		},
	},
	{
		Name:        "state-backend",
		Description: "Where window cursors are kept: file or sqlite",
		Get:         func(cfg *Config) string { return cfg.State.Backend },
		Set: func(cfg *Config, v string) error {
			v = strings.ToLower(strings.TrimSpace(v))
			if v != state.BackendFile && v != state.BackendSQLite {
				return fmt.Errorf("invalid state backend %q (want %s or %s)", v, state.BackendFile, state.BackendSQLite)
			}
			cfg.State.Backend = v
			return nil
		},
	},
	{
		Name:        "state-path",
		Description: "State file or database path",
		Get:         func(cfg *Config) string { return cfg.State.Path },
		Set:         setString(func(c *Config) *string { return &c.State.Path }),
	},
}

// Lookup returns the KeySpec for the given name, or nil if not found.
// The name is matched case-insensitively after trimming whitespace;
// underscores are accepted in place of dashes.
func Lookup(name string) *KeySpec {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	for i := range Keys {
		if Keys[i].Name == normalized {
			return &Keys[i]
		}
	}
	return nil
}

// KeyNames returns the names of all registered keys.
func KeyNames() []string {
	names := make([]string, len(Keys))
	for i, k := range Keys {
		names[i] = k.Name
	}
	return names
}

// KeysHelp builds a formatted block listing all available keys and their
// descriptions, suitable for inclusion in Cobra Long help text.
func KeysHelp() string {
	maxLen := 0
	for _, k := range Keys {
		if len(k.Name) > maxLen {
			maxLen = len(k.Name)
		}
	}

	var b strings.Builder
	b.WriteString("Available keys:\n")
	for _, k := range Keys {
		fmt.Fprintf(&b, "  %-*s   %s\n", maxLen, k.Name, k.Description)
	}
	return b.String()
}
