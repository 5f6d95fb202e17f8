package match

import (
	"context"
	"fmt"
	"image"
	"os"

	"github.com/vitrio/glasses-match/internal/catalog"
	"github.com/vitrio/glasses-match/internal/clip"
	"github.com/vitrio/glasses-match/internal/config"
	"github.com/vitrio/glasses-match/internal/frame"
)

// onTheFlyLimit is the catalog size above which embedding references on the
// fly would risk exhausting memory. Below it on-the-fly embedding is still
// not attempted; the cache is the only supported source of reference
// embeddings.
const onTheFlyLimit = 50

// Matcher orchestrates the pipeline: validation gate, background
// suppression, similarity matching and attribute extraction, with a layered
// fallback when the embedding capability or its cache is unavailable.
type Matcher struct {
	cfg *config.Config
	cap clip.Capability
}

// New creates a Matcher using the given capability implementation.
func New(cfg *config.Config, cap clip.Capability) *Matcher {
	return &Matcher{cfg: cfg, cap: cap}
}

// Match loads the images at the given paths and runs the pipeline.
// Unreadable images are skipped; if none load, the result is a validation
// rejection. Match never returns an error: every failure mode degrades to a
// structurally complete result.
func (m *Matcher) Match(ctx context.Context, paths []string) Result {
	images := make([]image.Image, 0, len(paths))
	for _, p := range paths {
		img, err := frame.LoadImage(p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error loading image %s: %v\n", p, err)
			continue
		}
		images = append(images, img)
	}
	return m.MatchImages(ctx, images)
}

// MatchImages runs the pipeline on already-decoded images.
func (m *Matcher) MatchImages(ctx context.Context, images []image.Image) Result {
	if len(images) == 0 {
		return m.rejected(Validation{Valid: false, Confidence: 0, Reason: "Could not load any images"})
	}

	if err := m.cap.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "embedding capability not available, using simple match: %v\n", err)
		return m.simpleMatch(images)
	}

	if v := ValidateEyewear(ctx, m.cap, images); !v.Valid {
		fmt.Fprintf(os.Stderr, "image validation failed: %s\n", v.Reason)
		return m.rejected(v)
	}

	store, err := catalog.LoadStore(m.cfg.Catalog.CachePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "no usable embedding cache (%v), using simple match\n", err)
		if refs := catalog.List(m.cfg.Catalog.Dir); len(refs) > onTheFlyLimit {
			fmt.Fprintf(os.Stderr, "catalog has %d images, too many to embed on the fly; run 'cache build' first\n", len(refs))
		}
		return m.simpleMatch(images)
	}

	res, err := m.cachedMatch(ctx, store, images)
	if err != nil {
		fmt.Fprintf(os.Stderr, "matching error, falling back to simple match: %v\n", err)
		return m.simpleMatch(images)
	}
	return res
}

// cachedMatch is the happy path: suppress backgrounds, run the similarity
// search against the cached catalog embeddings, and extract attributes from
// the original (non-suppressed) images. Panics are converted to errors here
// so nothing propagates past the orchestrator.
func (m *Matcher) cachedMatch(ctx context.Context, store *catalog.Store, images []image.Image) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal matching failure: %v", r)
		}
	}()

	processed := make([]image.Image, len(images))
	for i, img := range images {
		processed[i] = frame.SuppressBackground(img)
	}

	best, err := findBestMatch(ctx, m.cap, store, processed)
	if err != nil {
		return Result{}, err
	}
	fmt.Fprintf(os.Stderr, "best match: %s with score %.3f\n", best.Filename, best.RawScore)

	return Result{
		BestModel:    catalog.BaseName(best.Filename) + ".glb",
		Confidence:   round3((best.RawScore + 1.0) / 2.0),
		SourceImage:  best.Filename,
		Matched:      true,
		Method:       MethodClipCached,
		ColorProfile: frame.ExtractAttributes(images),
	}, nil
}

// simpleMatch is the terminal fallback: the first catalog entry in
// lexicographic order with a fixed confidence, or the default asset when the
// catalog is empty. Attributes are still extracted when images are available.
func (m *Matcher) simpleMatch(images []image.Image) Result {
	profile := frame.DefaultColorProfile()
	if len(images) > 0 {
		profile = frame.ExtractAttributes(images)
	}

	if refs := catalog.List(m.cfg.Catalog.Dir); len(refs) > 0 {
		return Result{
			BestModel:    catalog.BaseName(refs[0]) + ".glb",
			Confidence:   0.6,
			SourceImage:  refs[0],
			Matched:      true,
			Method:       MethodFallback,
			ColorProfile: profile,
		}
	}

	return Result{
		BestModel:    DefaultModel,
		Confidence:   0.5,
		SourceImage:  "none",
		Matched:      true,
		Method:       MethodDefault,
		ColorProfile: profile,
	}
}

// rejected builds the terminal result for inputs the validation gate turned
// away. The record stays structurally identical to every other result.
func (m *Matcher) rejected(v Validation) Result {
	conf := round3(v.Confidence)
	return Result{
		Matched:              false,
		Method:               MethodValidationRejected,
		Error:                v.Reason,
		ValidationConfidence: &conf,
		ColorProfile:         frame.DefaultColorProfile(),
	}
}
