package auth

import (
	"fmt"
	"os"
	"strings"

	"checkazure/internal/auth"
	"checkazure/internal/config"

	"github.com/spf13/cobra"
)

// newStore is replaced in tests.
var newStore = auth.DefaultStore

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage service principal secrets in the OS keychain",
		Long: `Manage service principal secrets in the OS keychain.

A secret stored with "auth login" is used by the check whenever -S, the
AZURE_CLIENT_SECRET variable and the config file provide none. Secrets are
stored per tenant and client ID.`,
	}

	cmd.AddCommand(LoginCommand())
	cmd.AddCommand(LogoutCommand())
	cmd.AddCommand(StatusCommand())

	return cmd
}

func addPrincipalFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("tenant", "t", "", "Tenant ID (default: AZURE_TENANT_ID or config file)")
	cmd.Flags().StringP("client", "C", "", "Client ID (default: AZURE_CLIENT_ID or config file)")
}

// principal resolves the tenant and client ID from flags, then the
// environment, then the config file.
func principal(cmd *cobra.Command) (tenantID, clientID string, err error) {
	tenantID, _ = cmd.Flags().GetString("tenant")
	clientID, _ = cmd.Flags().GetString("client")

	if tenantID == "" {
		tenantID = os.Getenv("AZURE_TENANT_ID")
	}
	if clientID == "" {
		clientID = os.Getenv("AZURE_CLIENT_ID")
	}
	if tenantID == "" || clientID == "" {
		path := config.Path()
		if p, _ := cmd.Flags().GetString("config"); p != "" {
			path = p
		}
		cfg, err := config.LoadFile(path)
		if err != nil {
			return "", "", err
		}
		if tenantID == "" {
			tenantID = cfg.TenantID
		}
		if clientID == "" {
			clientID = cfg.ClientID
		}
	}

	tenantID, clientID = strings.TrimSpace(tenantID), strings.TrimSpace(clientID)
	if tenantID == "" || clientID == "" {
		return "", "", fmt.Errorf("both --tenant and --client are required")
	}
	return tenantID, clientID, nil
}
