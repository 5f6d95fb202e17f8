package match

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/vitrio/glasses-match/internal/catalog"
	"github.com/vitrio/glasses-match/internal/clip"
	"github.com/vitrio/glasses-match/internal/frame"
)

const (
	shapeBoost   = 0.15
	shapePenalty = 0.1
)

// Keyword fallback for cache blobs built before per-entry shape metadata
// existed. Order matters: entries are checked rectangular-then-round, first
// match in list order wins, and a rectangular match takes priority over a
// round one.
var (
	rectangularKeywords = []string{"rayban", "ray_ban", "wayfarer", "black_glasses", "rectangular", "square", "nerd", "hipster", "reading"}
	roundKeywords       = []string{"round", "circle", "metal_round", "lennon", "vintage"}
)

// bestMatch holds the outcome of a similarity search over the catalog.
type bestMatch struct {
	Index    int
	Filename string
	RawScore float64
	Boosted  float64
}

// findBestMatch embeds the (background-suppressed) query images, compares the
// mean query vector against every catalog embedding, re-ranks with the shape
// profile of the first image, and returns the argmax of the boosted scores.
// The raw, unboosted score of the winner feeds the reported confidence.
func findBestMatch(ctx context.Context, cap clip.Capability, store *catalog.Store, images []image.Image) (bestMatch, error) {
	if store.Len() == 0 {
		return bestMatch{}, errors.New("catalog is empty")
	}

	feats, err := cap.EmbedImages(ctx, images)
	if err != nil {
		return bestMatch{}, fmt.Errorf("embedding query images: %w", err)
	}
	if len(feats) == 0 {
		return bestMatch{}, errors.New("no query embeddings returned")
	}
	for _, f := range feats {
		clip.Normalize(f)
	}
	query := clip.MeanVector(feats)

	sims := make([]float64, store.Len())
	for i, emb := range store.Embeddings {
		sims[i] = clip.CosineSimilarity(query, emb)
	}

	shape := frame.Analyze(images[0])
	fmt.Fprintf(os.Stderr, "query shape: aspect=%.2f rectangular=%t round=%t\n", shape.AspectRatio, shape.Rectangular, shape.Round)

	boosted := make([]float64, len(sims))
	copy(boosted, sims)
	for i := range boosted {
		boosted[i] += shapeAdjustment(store, i, shape)
	}

	best := 0
	for i := 1; i < len(boosted); i++ {
		if boosted[i] > boosted[best] {
			best = i
		}
	}

	return bestMatch{
		Index:    best,
		Filename: store.Filenames[best],
		RawScore: sims[best],
		Boosted:  boosted[best],
	}, nil
}

// shapeAdjustment computes the re-ranking delta for one catalog entry. The
// entry's own geometry comes from build-time shape metadata when the blob has
// it, otherwise from filename keywords. Agreement with the query shape earns
// a boost, disagreement a smaller penalty; the two are mutually exclusive.
func shapeAdjustment(store *catalog.Store, i int, query frame.Profile) float64 {
	if !query.Rectangular && !query.Round {
		return 0
	}

	var entryRect, entryRound bool
	if store.HasShapes() {
		entryRect = store.Shapes[i].Rectangular
		entryRound = store.Shapes[i].Round
	} else {
		entryRect, entryRound = keywordShape(store.Filenames[i])
	}

	switch {
	case query.Rectangular && entryRect:
		return shapeBoost
	case query.Rectangular && entryRound:
		return -shapePenalty
	case query.Round && entryRound:
		return shapeBoost
	case query.Round && entryRect:
		return -shapePenalty
	}
	return 0
}

// keywordShape classifies a reference filename by substring keywords,
// checking the rectangular list before the round list so a filename matching
// both counts as rectangular.
func keywordShape(filename string) (rectangular, round bool) {
	lower := strings.ToLower(filename)
	for _, kw := range rectangularKeywords {
		if strings.Contains(lower, kw) {
			return true, false
		}
	}
	for _, kw := range roundKeywords {
		if strings.Contains(lower, kw) {
			return false, true
		}
	}
	return false, false
}
