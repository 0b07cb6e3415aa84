package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/metamendmarketing/reportbuilderv3/internal/mailer"
	"github.com/metamendmarketing/reportbuilderv3/internal/pipeline"
	"github.com/metamendmarketing/reportbuilderv3/internal/types"
)

var (
	renderCommon   commonFlags
	renderReport   reportFlags
	draftPath      string
	screenshotPath []string
	placements     []string
	captions       []string
	renderPDF      bool
	renderChrome   string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Re-render an edited draft without calling the model",
	Long: `Rebuilds the HTML, preview and .eml from an edited draft.json. Screenshots can be
moved between sections with --place and re-captioned with --caption.`,
	Example: `  report_builder render --draft out/draft.json --screenshot rankings.png \
    --place rankings.png=key_highlights --caption "rankings.png=Top 3 for dentist near me"`,
	RunE: runRender,
}

func init() {
	renderCommon.bind(renderCmd)
	renderReport.bind(renderCmd)
	renderCmd.Flags().StringVarP(&draftPath, "draft", "d", "", "Path to draft.json (required)")
	renderCmd.Flags().StringArrayVarP(&screenshotPath, "screenshot", "s", nil, "Screenshot to embed (repeatable)")
	renderCmd.Flags().StringArrayVar(&placements, "place", nil, "Place a screenshot: file=section (repeatable)")
	renderCmd.Flags().StringArrayVar(&captions, "caption", nil, "Caption a screenshot: file=text (repeatable)")
	renderCmd.Flags().BoolVar(&renderPDF, "pdf", false, "Also export a PDF (requires Chrome)")
	renderCmd.Flags().StringVar(&renderChrome, "chrome", "", "Path to the Chrome binary used for PDF export")
	_ = renderCmd.MarkFlagRequired("draft")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := renderCommon.resolve(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	draft, err := loadDraft(draftPath)
	if err != nil {
		return err
	}
	req, err := renderReport.request(cfg)
	if err != nil {
		return err
	}
	if req.Uploads, err = readUploads(screenshotPath); err != nil {
		return err
	}
	for _, u := range req.Uploads {
		if !u.IsScreenshot() {
			return fmt.Errorf("--screenshot %s: not an image file", u.Name)
		}
	}

	placement, err := parsePlacements(placements)
	if err != nil {
		return err
	}
	captionMap, err := parseAssignments("caption", captions)
	if err != nil {
		return err
	}

	opts := pipeline.Options{
		TemplatePath: cfg.Template,
		Sender:       senderFrom(cfg),
		Mail:         mailer.Options{From: cfg.FromEmail, To: cfg.ToEmail},
		PDF:          cfg.PDF || renderPDF,
		Logger:       logger,
	}
	opts.PDFOptions.ExecPath = renderChrome
	opts.PDFOptions.Logger = logger

	session := pipeline.NewSession(req, *draft, opts)
	if err := pipeline.Rerender(ctx, session, pipeline.Edits{Placement: placement, Captions: captionMap}); err != nil {
		return err
	}
	return report(cmd, cfg.OutputDir, session, false, false)
}

func loadDraft(path string) (*types.Draft, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read draft: %w", err)
	}
	var draft types.Draft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, fmt.Errorf("failed to parse draft %s: %w", path, err)
	}
	return &draft, nil
}
