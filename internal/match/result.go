// Package match implements the eyewear matching pipeline: a zero-shot
// validation gate, an embedding-based nearest-asset search with
// shape-informed re-ranking, and a layered fallback strategy for when the
// embedding capability or its cache is unavailable.
package match

import (
	"math"

	"github.com/vitrio/glasses-match/internal/frame"
)

// Method identifies the code path that produced a result.
type Method string

const (
	MethodClipCached         Method = "clip_cached"
	MethodFallback           Method = "fallback"
	MethodDefault            Method = "default"
	MethodValidationRejected Method = "validation_rejected"
	MethodCrashHandler       Method = "crash_handler"
)

// DefaultModel is reported when the catalog is empty.
const DefaultModel = "default.glb"

// Result is the sole output of the pipeline. Field names match the wire
// format the downstream renderer consumes; the color profile fields are
// present on every path, populated with extracted or default values.
type Result struct {
	BestModel   string  `json:"best_model,omitempty"`
	Confidence  float64 `json:"confidence"`
	SourceImage string  `json:"source_image,omitempty"`
	Matched     bool    `json:"matched"`
	Method      Method  `json:"method"`
	Error       string  `json:"error,omitempty"`
	// Pointer so rejection documents always carry the key, including a
	// confidence of exactly zero, while other paths omit it.
	ValidationConfidence *float64 `json:"validation_confidence,omitempty"`
	frame.ColorProfile
}

// CrashResult converts an unhandled error into the structured error document
// the process boundary always emits instead of a raw failure.
func CrashResult(err error) Result {
	res := Result{
		Matched:      false,
		Method:       MethodCrashHandler,
		ColorProfile: frame.DefaultColorProfile(),
	}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}

// round3 rounds to three decimal places for wire-format compatibility.
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
