package auth

import (
	"errors"
	"fmt"

	"checkazure/internal/auth"

	"github.com/spf13/cobra"
)

func StatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether a client secret is stored",
		Long: `Show whether the keychain holds a secret for a service principal.

Example:
  check_azure auth status --tenant $TENANT --client $CLIENT`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, clientID, err := principal(cmd)
			if err != nil {
				return err
			}

			_, err = newStore().GetSecret(tenantID, clientID)
			switch {
			case err == nil:
				fmt.Fprintf(cmd.OutOrStdout(), "%s/%s: logged in\n", tenantID, clientID)
			case errors.Is(err, auth.ErrSecretNotFound):
				fmt.Fprintf(cmd.OutOrStdout(), "%s/%s: not logged in\n", tenantID, clientID)
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "%s/%s: error (%v)\n", tenantID, clientID, err)
			}
			return nil
		},
	}

	addPrincipalFlags(cmd)

	return cmd
}
