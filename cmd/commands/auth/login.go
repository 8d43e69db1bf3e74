package auth

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/spf13/cobra"
)

func LoginCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store a client secret in the keychain",
		Long: `Store the client secret of a service principal in the local keychain.

The secret is read from a hidden prompt unless --secret is given.

Example:
  check_azure auth login --tenant $TENANT --client $CLIENT`,
		Args:         cobra.NoArgs,
		RunE:         runLogin,
		SilenceUsage: true,
	}

	addPrincipalFlags(cmd)
	cmd.Flags().String("secret", "", "Client secret (optional, overrides prompt)")

	return cmd
}

func runLogin(cmd *cobra.Command, _ []string) error {
	tenantID, clientID, err := principal(cmd)
	if err != nil {
		return err
	}

	secret, _ := cmd.Flags().GetString("secret")
	secret = strings.TrimSpace(secret)
	if secret == "" {
		if secret, err = readSecret(cmd); err != nil {
			return err
		}
	}
	if secret == "" {
		return fmt.Errorf("secret cannot be empty")
	}

	if err := newStore().SetSecret(tenantID, clientID, secret); err != nil {
		return fmt.Errorf("failed to store secret: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Saved secret for client %s in tenant %s\n", clientID, tenantID)
	return nil
}

// readSecret prompts without echo on a terminal and reads one line
// otherwise, so secrets can be piped in from provisioning tools.
func readSecret(cmd *cobra.Command) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.OutOrStdout(), "Enter client secret: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	return strings.TrimSpace(line), nil
}
