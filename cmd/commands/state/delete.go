package state

import (
	"fmt"

	"github.com/spf13/cobra"
)

// DeleteCommand returns the "state delete" command.
func DeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <key>...",
		Short: "Delete stored cursors",
		Long: `Delete one or more cursors. Missing keys are ignored.

Example:
  check_azure state delete VM.PercentageCPU_web01`,
		Args:         cobra.MinimumNArgs(1),
		RunE:         runDelete,
		SilenceUsage: true,
	}

	return cmd
}

func runDelete(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, key := range args {
		if err := store.Delete(cmd.Context(), key); err != nil {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", key)
	}
	return nil
}
