package modes

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"checkazure/internal/catalog"

	"github.com/spf13/cobra"
)

// NewCommand returns the "modes" command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "modes",
		Short: "List the available check modes",
		Long: `List every predefined mode with the Azure metric it reads.

Modes of families marked with * need the -e argument naming the parent
resource (scale set or SQL server). The "generic" mode is not listed: it
takes the provider, metric, aggregation and unit from -p, -M, -a and -u.

Examples:
  check_azure modes
  check_azure modes --family REDIS
  check_azure modes -o json`,
		Args:         cobra.NoArgs,
		RunE:         runModes,
		SilenceUsage: true,
	}

	cmd.Flags().String("family", "", "Only list modes of this family (e.g. VM, SQL, IOT)")
	cmd.Flags().StringP("output", "o", "table", "Output format: table or json")

	return cmd
}

func runModes(cmd *cobra.Command, _ []string) error {
	familyName, _ := cmd.Flags().GetString("family")
	output, _ := cmd.Flags().GetString("output")

	entries := catalog.Entries()
	if familyName = strings.TrimSpace(familyName); familyName != "" {
		family := catalog.LookupFamily(familyName)
		if family == nil {
			return fmt.Errorf("unknown family %q (valid: %s)", familyName, strings.Join(familyNames(), ", "))
		}
		entries = filterFamily(entries, family.Name)
	}

	switch strings.ToLower(output) {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "table", "":
		printTable(cmd, entries)
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want table or json)", output)
	}
}

func filterFamily(entries []catalog.Entry, family string) []catalog.Entry {
	var out []catalog.Entry
	for _, e := range entries {
		if e.Family == family {
			out = append(out, e)
		}
	}
	return out
}

func familyNames() []string {
	names := make([]string, len(catalog.Families))
	for i, f := range catalog.Families {
		names[i] = f.Name
	}
	return names
}

func printTable(cmd *cobra.Command, entries []catalog.Entry) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODE\tMETRIC\tAGGREGATION\tUNIT\tPROVIDER")
	for _, e := range entries {
		provider := e.ProviderType
		if e.Qualified {
			provider += " *"
		}
		unit := e.Unit
		if unit == "" {
			unit = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.Mode, e.MetricName, e.Aggregation, unit, provider)
	}
	w.Flush()
}
