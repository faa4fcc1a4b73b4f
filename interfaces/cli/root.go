package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ideamap",
	Short: "Generate business idea mind maps",
	Long: `ideamap turns a short founder profile into a mind map of market
problems, business ideas and per-idea task breakdowns, and renders it
as SVG, PNG or JSON.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
