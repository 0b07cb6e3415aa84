// Package main provides the report_builder CLI for monthly SEO status emails.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "report_builder",
	Short: "Monthly SEO client status email builder",
	Long: `report_builder turns free-form work notes, supporting documents and screenshots
into a client-ready monthly SEO update: an HTML email, an Outlook-ready .eml draft
with inline images, and an optional PDF.`,
	SilenceUsage: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
