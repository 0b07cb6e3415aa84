package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/metamendmarketing/reportbuilderv3/internal/mailer"
)

var inspectJSON bool

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.eml>",
	Short: "Show the structure of a generated .eml draft",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "Print the summary as JSON")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[0], err)
	}
	defer func() { _ = f.Close() }()

	summary, err := mailer.Inspect(f)
	if err != nil {
		return err
	}
	if inspectJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	printSummary(cmd.OutOrStdout(), summary)
	return nil
}

func printSummary(w io.Writer, s *mailer.Summary) {
	_, _ = fmt.Fprintf(w, "Subject:     %s\n", s.Subject)
	_, _ = fmt.Fprintf(w, "From:        %s\n", s.From)
	_, _ = fmt.Fprintf(w, "To:          %s\n", s.To)
	_, _ = fmt.Fprintf(w, "Date:        %s\n", s.Date)
	_, _ = fmt.Fprintf(w, "Draft:       %t\n", s.Draft)
	_, _ = fmt.Fprintf(w, "HTML parts:  %d\n", s.HTMLParts)
	_, _ = fmt.Fprintf(w, "Text parts:  %d\n", s.TextParts)
	_, _ = fmt.Fprintf(w, "Inline:      %s\n", strings.Join(s.InlineIDs, ", "))
	_, _ = fmt.Fprintf(w, "Attachments: %d\n", s.Attachments)
	for _, e := range s.Errors {
		_, _ = fmt.Fprintf(w, "Warning: %s\n", e)
	}
}
