package config

import (
	"fmt"

	"checkazure/internal/config"

	"github.com/spf13/cobra"
)

// NewCommand returns the "config" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage check_azure configuration",
		Long: "View and modify the shared check_azure settings.\n\n" +
			"Configuration is stored at " + config.DefaultPath + " unless --config\n" +
			"or CHECK_AZURE_CONFIG points elsewhere. Flags and environment\n" +
			"variables override it on every run.\n\n" +
			config.KeysHelp(),
	}

	cmd.AddCommand(SetCommand())
	cmd.AddCommand(GetCommand())
	cmd.AddCommand(PathCommand())

	return cmd
}

// filePath is the file "config get" and "config set" operate on.
func filePath(cmd *cobra.Command) string {
	if p, err := cmd.Flags().GetString("config"); err == nil && p != "" {
		return p
	}
	return config.Path()
}

// PathCommand returns the "config path" command.
func PathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), filePath(cmd))
		},
	}
}
