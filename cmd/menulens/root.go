package main

import (
	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "menulens",
	Short: "Restaurant menu extraction pipeline",
	Long: `MenuLens extracts structured menus from restaurant websites.

Each restaurant runs through layered strategies:
  - structured metadata, CSS selector patterns, price-line heuristics and
    review mining on the restaurant's own page
  - a discovered fallback website when the page yields too little
  - OCR of menu images as a last resort

Items are normalized, tagged with allergens and dietary labels, scored and
deduplicated. Configuration comes from config.yaml and MENULENS_* variables.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "", "override log.level (debug, info, warn, error)",
	)
}
