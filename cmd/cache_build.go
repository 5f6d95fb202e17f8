package cmd

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/vitrio/glasses-match/internal/catalog"
	"github.com/vitrio/glasses-match/internal/clip"
	"github.com/vitrio/glasses-match/internal/config"
	"github.com/vitrio/glasses-match/internal/frame"
)

var cacheBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Rebuild the reference embedding cache",
	Long: `Rebuild the reference embedding cache from the catalog directory.

Every reference image is embedded, L2-normalized and analyzed for frame
shape; the result replaces the cache blob wholesale. Run this after adding
or removing reference images.

Prints {"ok": true} or {"ok": false} to stdout.`,
	Run: runCacheBuild,
}

func init() {
	cacheCmd.AddCommand(cacheBuildCmd)
}

func runCacheBuild(cmd *cobra.Command, args []string) {
	cfg := config.Load()
	ok := buildCache(context.Background(), cfg, clip.New(cfg.Embedding))
	emitJSON(map[string]bool{"ok": ok})
}

func buildCache(ctx context.Context, cfg *config.Config, cap clip.Capability) bool {
	fmt.Fprintln(os.Stderr, "building embeddings...")

	if err := cap.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "embedding capability not available: %v\n", err)
		return false
	}

	refs := catalog.List(cfg.Catalog.Dir)
	if len(refs) == 0 {
		fmt.Fprintln(os.Stderr, "no reference images found")
		return false
	}
	fmt.Fprintf(os.Stderr, "processing %d images...\n", len(refs))

	store := &catalog.Store{
		Dim:        cfg.Embedding.Dim,
		Filenames:  make([]string, 0, len(refs)),
		Embeddings: make([][]float32, 0, len(refs)),
		Shapes:     make([]catalog.ShapeClass, 0, len(refs)),
	}

	bar := progressbar.Default(int64(len(refs)), "embedding")
	for _, ref := range refs {
		img, err := frame.LoadImage(filepath.Join(cfg.Catalog.Dir, ref))
		if err != nil {
			fmt.Fprintf(os.Stderr, "skipping %s: %v\n", ref, err)
			_ = bar.Add(1)
			continue
		}

		feats, err := cap.EmbedImages(ctx, []image.Image{img})
		if err != nil || len(feats) != 1 {
			fmt.Fprintf(os.Stderr, "error embedding %s: %v\n", ref, err)
			return false
		}

		shape := frame.Analyze(img)
		store.Filenames = append(store.Filenames, ref)
		store.Embeddings = append(store.Embeddings, clip.Normalize(feats[0]))
		store.Shapes = append(store.Shapes, catalog.ShapeClass{
			Rectangular: shape.Rectangular,
			Round:       shape.Round,
		})
		_ = bar.Add(1)
	}

	if store.Len() == 0 {
		fmt.Fprintln(os.Stderr, "no reference images could be embedded")
		return false
	}
	store.Dim = len(store.Embeddings[0])

	if err := store.Save(cfg.Catalog.CachePath); err != nil {
		fmt.Fprintf(os.Stderr, "error saving embeddings: %v\n", err)
		return false
	}

	if cfg.Catalog.IndexPath != "" {
		idx, err := catalog.BuildIndex(store)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error building HNSW index: %v\n", err)
			return false
		}
		if err := idx.Save(cfg.Catalog.IndexPath); err != nil {
			fmt.Fprintf(os.Stderr, "error saving HNSW index: %v\n", err)
			return false
		}
		fmt.Fprintf(os.Stderr, "saved HNSW index to %s\n", cfg.Catalog.IndexPath)
	}

	fmt.Fprintf(os.Stderr, "saved %d embeddings to %s\n", store.Len(), cfg.Catalog.CachePath)
	return true
}
