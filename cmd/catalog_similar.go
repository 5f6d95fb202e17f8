package cmd

import (
	"context"
	"fmt"
	"image"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vitrio/glasses-match/internal/catalog"
	"github.com/vitrio/glasses-match/internal/clip"
	"github.com/vitrio/glasses-match/internal/config"
	"github.com/vitrio/glasses-match/internal/frame"
)

var catalogSimilarCmd = &cobra.Command{
	Use:   "similar <image>",
	Short: "Find the catalog entries most similar to an image",
	Long: `Find the catalog entries most similar to an image using the cached
embeddings and an approximate nearest-neighbor index.

This is a diagnostic view of the similarity space without the shape
re-ranking and fallback logic of the match command.

Examples:
  glasses-match catalog similar photo.jpg
  glasses-match catalog similar photo.jpg --limit 10 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runCatalogSimilar,
}

func init() {
	catalogCmd.AddCommand(catalogSimilarCmd)

	catalogSimilarCmd.Flags().Int("limit", 5, "Number of neighbors to return")
	catalogSimilarCmd.Flags().Bool("json", false, "Output as JSON")
}

func runCatalogSimilar(cmd *cobra.Command, args []string) error {
	limit := mustGetInt(cmd, "limit")
	jsonOutput := mustGetBool(cmd, "json")

	ctx := context.Background()
	cfg := config.Load()

	store, err := catalog.LoadStore(cfg.Catalog.CachePath)
	if err != nil {
		return fmt.Errorf("loading embedding cache (run 'cache build' first): %w", err)
	}

	var idx *catalog.Index
	if cfg.Catalog.IndexPath != "" {
		idx, err = catalog.LoadIndex(cfg.Catalog.IndexPath, store)
		if err != nil {
			fmt.Fprintf(os.Stderr, "no usable HNSW index (%v), rebuilding in memory\n", err)
		}
	}
	if idx == nil {
		idx, err = catalog.BuildIndex(store)
		if err != nil {
			return fmt.Errorf("building index: %w", err)
		}
	}

	img, err := frame.LoadImage(args[0])
	if err != nil {
		return err
	}

	cap := clip.New(cfg.Embedding)
	feats, err := cap.EmbedImages(ctx, []image.Image{frame.SuppressBackground(img)})
	if err != nil {
		return fmt.Errorf("embedding query image: %w", err)
	}
	query := clip.Normalize(feats[0])

	neighbors := idx.Search(query, limit)

	if jsonOutput {
		emitJSON(map[string]any{"query": args[0], "neighbors": neighbors})
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FILENAME\tSIMILARITY\tDISTANCE")
	fmt.Fprintln(w, "--------\t----------\t--------")
	for _, n := range neighbors {
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\n", n.Filename, n.Similarity, n.Distance)
	}
	w.Flush()
	return nil
}
