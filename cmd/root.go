package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "glasses-match",
	Short: "Match eyewear photos against a catalog of 3D glasses assets",
	Long: `Glasses Match compares user-submitted eyewear photos against a fixed
catalog of reference images, each backed by a 3D asset, and derives the
lens/frame color and material profile needed to parameterize the renderer.

Matching uses cached CLIP embeddings with shape-informed re-ranking and
degrades gracefully when the embedding server or its cache is unavailable.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
