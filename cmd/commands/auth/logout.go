package auth

import (
	"errors"
	"fmt"

	"checkazure/internal/auth"

	"github.com/spf13/cobra"
)

func LogoutCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "logout",
		Short:        "Remove a stored client secret",
		Args:         cobra.NoArgs,
		RunE:         runLogout,
		SilenceUsage: true,
	}

	addPrincipalFlags(cmd)

	return cmd
}

func runLogout(cmd *cobra.Command, _ []string) error {
	tenantID, clientID, err := principal(cmd)
	if err != nil {
		return err
	}

	err = newStore().DeleteSecret(tenantID, clientID)
	switch {
	case errors.Is(err, auth.ErrSecretNotFound):
		fmt.Fprintf(cmd.OutOrStdout(), "No secret stored for client %s\n", clientID)
		return nil
	case err != nil:
		return fmt.Errorf("failed to remove secret: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed secret for client %s\n", clientID)
	return nil
}
