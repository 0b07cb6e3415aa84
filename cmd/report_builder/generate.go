package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/metamendmarketing/reportbuilderv3/internal/mailer"
	"github.com/metamendmarketing/reportbuilderv3/internal/observability"
	"github.com/metamendmarketing/reportbuilderv3/internal/pipeline"
)

var (
	generateCommon  commonFlags
	generateReport  reportFlags
	notes           string
	notesFile       string
	uploadPaths     []string
	generatePDF     bool
	showRaw         bool
	strictGrounding bool
	chromePath      string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a monthly SEO update from notes and uploads",
	Long: `Extracts evidence from the notes and supporting files, drafts the email in the
requested verbosity tier, and writes HTML, preview HTML, .eml and JSON artifacts.`,
	Example: `  report_builder generate --client "Acme Dental" --notes-file notes.txt \
    --file gsc.csv --file rankings.png --tier standard --to client@example.com`,
	RunE: runGenerate,
}

func init() {
	generateCommon.bind(generateCmd)
	generateReport.bind(generateCmd)
	generateCmd.Flags().StringVar(&notes, "notes", "", "Work notes for the month")
	generateCmd.Flags().StringVar(&notesFile, "notes-file", "", "Read work notes from a file")
	generateCmd.Flags().StringArrayVarP(&uploadPaths, "file", "f", nil, "Supporting document or screenshot (repeatable)")
	generateCmd.Flags().BoolVar(&generatePDF, "pdf", false, "Also export a PDF (requires Chrome)")
	generateCmd.Flags().BoolVar(&showRaw, "show-raw", false, "Write the raw model responses")
	generateCmd.Flags().BoolVar(&strictGrounding, "strict-grounding", false, "Drop evidence items whose source_ref names no known input")
	generateCmd.Flags().StringVar(&chromePath, "chrome", "", "Path to the Chrome binary used for PDF export")
	generateCmd.MarkFlagsMutuallyExclusive("notes", "notes-file")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := generateCommon.resolve(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	req, err := generateReport.request(cfg)
	if err != nil {
		return err
	}
	req.Notes = notes
	if notesFile != "" {
		data, err := os.ReadFile(notesFile)
		if err != nil {
			return fmt.Errorf("failed to read notes file: %w", err)
		}
		req.Notes = string(data)
	}
	if strings.TrimSpace(req.Notes) == "" {
		return fmt.Errorf("notes are required (use --notes or --notes-file)")
	}
	if req.Uploads, err = readUploads(uploadPaths); err != nil {
		return err
	}

	client, err := newClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	opts := pipeline.Options{
		Request:         req,
		Limits:          limitsFrom(cfg),
		StrictGrounding: cfg.StrictGrounding || strictGrounding,
		TemplatePath:    cfg.Template,
		Sender:          senderFrom(cfg),
		Mail:            mailer.Options{From: cfg.FromEmail, To: cfg.ToEmail},
		PDF:             cfg.PDF || generatePDF,
		Logger:          logger,
	}
	opts.PDFOptions.ExecPath = chromePath
	opts.PDFOptions.Logger = logger
	if generateCommon.verbose {
		opts.Printer = observability.NewPrinter(cmd.OutOrStdout())
	}
	if database := openArchive(ctx, cfg, logger); database != nil {
		defer database.Close()
		opts.Archive = database
	}

	session, err := pipeline.Run(ctx, client, opts)
	if err != nil {
		return err
	}
	return report(cmd, cfg.OutputDir, session, true, showRaw)
}

// report writes outputs and prints a short summary.
func report(cmd *cobra.Command, dir string, s *pipeline.Session, withEvidence, raw bool) error {
	written, err := writeOutputs(dir, s, withEvidence, raw)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Subject: %s\n", s.Draft.Subject)
	for _, note := range s.Notes() {
		_, _ = fmt.Fprintf(out, "Note: %s\n", note)
	}
	if s.Output.PDFError != nil {
		_, _ = fmt.Fprintf(out, "PDF skipped: %v\n", s.Output.PDFError)
	}
	for _, path := range written {
		_, _ = fmt.Fprintf(out, "Wrote %s\n", path)
	}
	return nil
}
