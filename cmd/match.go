package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vitrio/glasses-match/internal/clip"
	"github.com/vitrio/glasses-match/internal/config"
	"github.com/vitrio/glasses-match/internal/match"
)

var matchCmd = &cobra.Command{
	Use:   "match <image>...",
	Short: "Match eyewear photos against the reference catalog",
	Long: `Match one or more eyewear photos against the reference catalog and print
a single JSON result document to stdout.

The result names the best-matching 3D asset plus the extracted color and
material profile. Diagnostic output goes to stderr; stdout always carries
exactly one parseable JSON document, even when matching fails internally.

Examples:
  # Match a single photo
  glasses-match match photo.jpg

  # Combine several photos of the same pair of glasses
  glasses-match match front.jpg side.jpg worn.jpg`,
	Args: cobra.ArbitraryArgs,
	Run:  runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)
}

// emitJSON writes one JSON document to stdout. This is the only thing the
// match command ever prints there.
func emitJSON(v any) {
	if err := json.NewEncoder(os.Stdout).Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode result: %v\n", err)
	}
}

// runMatch is the process boundary adapter: whatever happens inside the
// pipeline, the caller gets a structured JSON document and a zero exit code.
func runMatch(cmd *cobra.Command, args []string) {
	defer func() {
		if r := recover(); r != nil {
			emitJSON(match.CrashResult(fmt.Errorf("%v", r)))
		}
	}()

	if len(args) == 0 {
		emitJSON(map[string]any{"error": "No images", "matched": false})
		return
	}

	cfg := config.Load()
	matcher := match.New(cfg, clip.New(cfg.Embedding))
	emitJSON(matcher.Match(context.Background(), args))
}
