package config

import (
	"github.com/spf13/cobra"
)

// flagBinding ties a string flag to a Config field.
type flagBinding struct {
	name     string
	short    string
	usage    string
	required bool
	field    func(*Config) *string
}

// flagBindings is ordered: Validate reports the first missing required
// value in this order.
var flagBindings = []flagBinding{
	{"host", "H", "Name of the Azure resource to check", true, func(c *Config) *string { return &c.Host }},
	{"resource-group", "r", "Resource group of the resource", true, func(c *Config) *string { return &c.ResourceGroup }},
	{"subscription", "s", "Subscription ID", true, func(c *Config) *string { return &c.SubscriptionID }},
	{"client", "C", "Client (application) ID of the service principal", true, func(c *Config) *string { return &c.ClientID }},
	{"secret", "S", "Client secret of the service principal", true, func(c *Config) *string { return &c.Secret }},
	{"tenant", "t", "Tenant (directory) ID", true, func(c *Config) *string { return &c.TenantID }},
	{"mode", "m", "Mode to check (see 'check_azure modes')", true, func(c *Config) *string { return &c.Mode }},
	{"warning", "w", "Warning threshold", false, func(c *Config) *string { return &c.Warning }},
	{"critical", "c", "Critical threshold", false, func(c *Config) *string { return &c.Critical }},
	{"extra-provider", "e", "Parent resource for scale set VMs, SQL databases and elastic pools", false, func(c *Config) *string { return &c.ExtraProvider }},
	{"metric", "M", "Metric name (generic mode)", false, func(c *Config) *string { return &c.Metric }},
	{"provider", "p", "Resource provider type, e.g. Microsoft.Web/sites (generic mode)", false, func(c *Config) *string { return &c.Provider }},
	{"aggregation", "a", "Average, Total, Maximum or Minimum (generic mode)", false, func(c *Config) *string { return &c.Aggregation }},
	{"uom", "u", "Unit of measure for perfdata (generic mode)", false, func(c *Config) *string { return &c.Unit }},
	{"log-level", "", "Log level: debug, info, warn or error", false, func(c *Config) *string { return &c.LogLevel }},
}

// persistentFlags are shared with the subcommands.
var persistentFlags = map[string]bool{"log-level": true}

// AddFlags registers the check flags on cmd and the ambient flags as
// persistent flags so subcommands inherit them.
func AddFlags(cmd *cobra.Command) {
	for _, b := range flagBindings {
		if persistentFlags[b.name] {
			cmd.PersistentFlags().StringP(b.name, b.short, "", b.usage)
			continue
		}
		cmd.Flags().StringP(b.name, b.short, "", b.usage)
	}

	cmd.Flags().Duration("timeout", DefaultTimeout, "Deadline for all Azure calls")
	cmd.PersistentFlags().String("config", "", "Config file (default "+DefaultPath+" if present)")
	cmd.PersistentFlags().Bool("debug", false, "Log the Azure inventory, raw series and each step at debug level")
}
