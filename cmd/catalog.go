package cmd

import (
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Reference catalog inspection commands",
	Long:  `Commands for inspecting the reference eyewear catalog.`,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}
