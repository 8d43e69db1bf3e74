package state

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// ShowCommand returns the "state show" command.
func ShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "List stored cursors",
		Long: `List every stored cursor, sorted by key.

Examples:
  check_azure state show
  check_azure state show --prefix VM.
  check_azure state show -o json`,
		Args:         cobra.NoArgs,
		RunE:         runShow,
		SilenceUsage: true,
	}

	cmd.Flags().String("prefix", "", "Only list keys starting with this prefix")
	cmd.Flags().StringP("output", "o", "table", "Output format: table or json")

	return cmd
}

func runShow(cmd *cobra.Command, _ []string) error {
	prefix, _ := cmd.Flags().GetString("prefix")
	output, _ := cmd.Flags().GetString("output")

	format := strings.ToLower(output)
	if format != "table" && format != "json" && format != "" {
		return fmt.Errorf("unknown output format %q (want table or json)", output)
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.All(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read state: %w", err)
	}
	for key := range entries {
		if !strings.HasPrefix(key, prefix) {
			delete(entries, key)
		}
	}

	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No cursors stored.")
		return nil
	}

	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tLAST END")
	for _, key := range keys {
		fmt.Fprintf(w, "%s\t%s\n", key, entries[key])
	}
	return w.Flush()
}
