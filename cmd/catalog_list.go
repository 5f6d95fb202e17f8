package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vitrio/glasses-match/internal/catalog"
	"github.com/vitrio/glasses-match/internal/config"
)

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the reference catalog entries",
	Long: `List the reference catalog entries in matching order (lexicographic).

Examples:
  glasses-match catalog list
  glasses-match catalog list --json`,
	RunE: runCatalogList,
}

func init() {
	catalogCmd.AddCommand(catalogListCmd)

	catalogListCmd.Flags().Bool("json", false, "Output as JSON")
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")

	cfg := config.Load()
	refs := catalog.List(cfg.Catalog.Dir)

	if jsonOutput {
		if refs == nil {
			refs = []string{}
		}
		emitJSON(map[string]any{"count": len(refs), "filenames": refs})
		return nil
	}

	if len(refs) == 0 {
		fmt.Printf("No reference images found in %s\n", cfg.Catalog.Dir)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FILENAME\tASSET")
	fmt.Fprintln(w, "--------\t-----")
	for _, ref := range refs {
		fmt.Fprintf(w, "%s\t%s.glb\n", ref, catalog.BaseName(ref))
	}
	w.Flush()

	fmt.Printf("\n%d reference images in %s\n", len(refs), cfg.Catalog.Dir)
	return nil
}
