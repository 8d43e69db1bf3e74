package state

import (
	"fmt"

	"checkazure/internal/config"
	"checkazure/internal/state"

	"github.com/spf13/cobra"
)

// NewCommand returns the "state" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect and reset time-window cursors",
		Long: `Inspect and reset the cursors that remember when each check last ran.

Each entry is keyed by mode and host (metric and host for the generic
mode) and holds the end of the last queried window. Deleting an entry
makes the next run of that check fall back to a five minute window.

The store is selected by the same config file, environment and flags as
the check itself.`,
	}

	cmd.AddCommand(ShowCommand())
	cmd.AddCommand(DeleteCommand())

	return cmd
}

// openStore opens the store the check would use for cmd's configuration.
func openStore(cmd *cobra.Command) (state.Store, error) {
	cfg, err := config.Load(cmd)
	if err != nil {
		return nil, err
	}

	store, err := state.Open(state.Options{
		Backend:      cfg.State.Backend,
		Path:         cfg.State.Path,
		FallbackPath: cfg.State.FallbackPath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	return store, nil
}
