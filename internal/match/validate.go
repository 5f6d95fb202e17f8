package match

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"image"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vitrio/glasses-match/internal/clip"
)

//go:embed prompts.yaml
var promptsYAML []byte

// minEyewearProb is the floor the averaged eyewear probability must clear for
// the input to be accepted, independent of how it compares to the non-eyewear
// mass.
const minEyewearProb = 0.25

type promptSets struct {
	Eyewear []string `yaml:"eyewear"`
	Other   []string `yaml:"other"`
}

var prompts promptSets

func init() {
	// This is an embedded file so this error should never happen in practice.
	if err := yaml.Unmarshal(promptsYAML, &prompts); err != nil {
		panic("failed to unmarshal embedded prompts.yaml: " + err.Error())
	}
}

// Validation is the outcome of the eyewear gate.
type Validation struct {
	Valid      bool
	Confidence float64
	Reason     string
}

// ValidateEyewear decides whether the input images plausibly depict eyewear
// by scoring them against the eyewear and non-eyewear prompt sets in
// zero-shot mode. An unavailable capability or a scoring failure is
// fail-open; an empty image list is fail-closed.
func ValidateEyewear(ctx context.Context, cap clip.Capability, images []image.Image) Validation {
	if len(images) == 0 {
		return Validation{Valid: false, Confidence: 0, Reason: "Could not load any images"}
	}

	allPrompts := append(append([]string{}, prompts.Eyewear...), prompts.Other...)

	var sumEyewear, sumOther float64
	scored := 0

	for i, img := range images {
		probs, err := cap.ScoreTexts(ctx, img, allPrompts)
		if err != nil {
			if errors.Is(err, clip.ErrUnavailable) {
				fmt.Fprintln(os.Stderr, "embedding capability not available for validation, allowing input")
			} else {
				fmt.Fprintf(os.Stderr, "validation scoring failed for image %d, allowing input: %v\n", i, err)
			}
			// Fail open: never block a user on a broken validator.
			return Validation{Valid: true, Confidence: 1.0}
		}

		var eyewearProb, otherProb float64
		for j, p := range probs {
			if j < len(prompts.Eyewear) {
				eyewearProb += p
			} else {
				otherProb += p
			}
		}
		fmt.Fprintf(os.Stderr, "image validation - eyewear prob: %.3f, other prob: %.3f\n", eyewearProb, otherProb)

		sumEyewear += eyewearProb
		sumOther += otherProb
		scored++
	}

	avgEyewear := sumEyewear / float64(scored)
	avgOther := sumOther / float64(scored)

	valid := avgEyewear > avgOther && avgEyewear >= minEyewearProb
	v := Validation{Valid: valid, Confidence: avgEyewear}

	if !valid {
		if avgEyewear < minEyewearProb {
			v.Reason = fmt.Sprintf("Image does not appear to be eyeglasses (confidence: %.1f%%)", avgEyewear*100)
		} else {
			v.Reason = fmt.Sprintf("Image appears to be something other than glasses (glasses: %.1f%%, other: %.1f%%)", avgEyewear*100, avgOther*100)
		}
	}

	fmt.Fprintf(os.Stderr, "validation result: valid=%t, confidence=%.3f\n", v.Valid, v.Confidence)
	return v
}
