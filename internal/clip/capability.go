package clip

import (
	"context"
	"errors"
	"image"

	"github.com/vitrio/glasses-match/internal/config"
)

// ErrUnavailable is returned by the null capability and by clients that
// cannot reach the embedding server.
var ErrUnavailable = errors.New("embedding capability unavailable")

// Capability is the contract for the injected embedding/zero-shot model.
// Implementations must return one unit-normalizable vector per image from
// EmbedImages, and a probability distribution over the prompts (summing to 1)
// from ScoreTexts.
type Capability interface {
	// Ping reports whether the capability can currently serve requests.
	Ping(ctx context.Context) error
	// EmbedImages computes one embedding vector per input image.
	EmbedImages(ctx context.Context, images []image.Image) ([][]float32, error)
	// ScoreTexts scores the prompts against the image, returning a
	// probability distribution over the prompts.
	ScoreTexts(ctx context.Context, img image.Image, prompts []string) ([]float64, error)
}

// Unavailable is the null capability. Every method fails with ErrUnavailable,
// which callers are expected to treat as "model not installed" rather than as
// a transient error.
type Unavailable struct{}

func (Unavailable) Ping(ctx context.Context) error { return ErrUnavailable }

func (Unavailable) EmbedImages(ctx context.Context, images []image.Image) ([][]float32, error) {
	return nil, ErrUnavailable
}

func (Unavailable) ScoreTexts(ctx context.Context, img image.Image, prompts []string) ([]float64, error) {
	return nil, ErrUnavailable
}

// New selects the capability implementation at startup. The null
// implementation is used when embedding is explicitly disabled.
func New(cfg config.EmbeddingConfig) Capability {
	if cfg.Disabled {
		return Unavailable{}
	}
	return NewClient(cfg.URL, cfg.Dim)
}
