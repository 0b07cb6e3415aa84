// Package pipeline orchestrates one monthly report: ingest, extract, draft,
// normalize, render and assemble.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/metamendmarketing/reportbuilderv3/internal/db"
	"github.com/metamendmarketing/reportbuilderv3/internal/drafting"
	"github.com/metamendmarketing/reportbuilderv3/internal/evidence"
	"github.com/metamendmarketing/reportbuilderv3/internal/export"
	"github.com/metamendmarketing/reportbuilderv3/internal/ingestion"
	"github.com/metamendmarketing/reportbuilderv3/internal/llm"
	"github.com/metamendmarketing/reportbuilderv3/internal/logging"
	"github.com/metamendmarketing/reportbuilderv3/internal/mailer"
	"github.com/metamendmarketing/reportbuilderv3/internal/normalize"
	"github.com/metamendmarketing/reportbuilderv3/internal/observability"
	"github.com/metamendmarketing/reportbuilderv3/internal/pipeline/steps"
	"github.com/metamendmarketing/reportbuilderv3/internal/rendering"
	"github.com/metamendmarketing/reportbuilderv3/internal/types"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step     string `json:"step"`
	Category string `json:"category"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// Archive persists run artifacts. *db.DB implements it.
type Archive interface {
	CreateRun(ctx context.Context, input db.RunInput) (uuid.UUID, error)
	CompleteRun(ctx context.Context, runID uuid.UUID, status string) error
	SaveArtifact(ctx context.Context, runID uuid.UUID, step, category string, content any) error
	SaveTextArtifact(ctx context.Context, runID uuid.UUID, step, category, text string) error
	StartRunStep(ctx context.Context, runID uuid.UUID, step, category string) (*db.RunStep, error)
	FinishRunStep(ctx context.Context, runID uuid.UUID, step, status string, errorMsg *string) error
}

// Options holds configuration for one pipeline run
type Options struct {
	Request         types.ReportRequest
	Limits          ingestion.Limits
	StrictGrounding bool
	TemplatePath    string
	Sender          rendering.Sender
	Mail            mailer.Options
	Edits           *Edits // Applied after normalization, before the first render
	PDF             bool
	PDFOptions      export.Options

	Archive    Archive
	Logger     *logging.Logger
	Printer    *observability.Printer // Verbose summaries; nil disables
	OnProgress ProgressCallback
	Now        func() time.Time
}

// emitProgress calls the progress callback if configured
func emitProgress(s *Session, step, message string, content any) {
	if s.opts.OnProgress == nil {
		return
	}
	s.opts.OnProgress(ProgressEvent{
		Step:     step,
		Category: steps.StepRegistry[step].Category,
		Message:  message,
		RunID:    s.RunID.String(),
		Content:  content,
	})
}

// Run executes the full pipeline. Only a failed precondition or a failure to
// render and assemble the email returns an error; model and parse failures
// end up as notes on the session.
func Run(ctx context.Context, client llm.Client, opts Options) (*Session, error) {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	opts.Logger = logging.OrNop(opts.Logger)

	req := opts.Request
	req.ApplyDefaults(now())
	if err := req.Validate(); err != nil {
		return nil, &PreconditionError{Cause: err}
	}
	if client == nil {
		return nil, &PreconditionError{Cause: fmt.Errorf("no model client configured")}
	}

	s := &Session{
		RunID:    uuid.New(),
		Request:  req,
		Sender:   opts.Sender,
		Mail:     opts.Mail,
		Template: rendering.LoadTemplate(opts.TemplatePath),
		opts:     opts,
	}
	if s.Template.Err != nil {
		opts.Logger.Warn("using built-in template", "error", s.Template.Err)
	}

	s.startArchive(ctx)
	s.opts.Logger = s.opts.Logger.With("run_id", s.RunID.String())
	log := s.opts.Logger
	log.Info("starting report", "client", req.ClientName, "tier", req.Tier, "uploads", len(req.Uploads))

	// Step 1: ingest uploads
	s.beginStep(ctx, steps.IngestUploads)
	s.Context = ingestion.BuildSupportingContext(ctx, req.Uploads, opts.Limits)
	s.Images = types.AssignContentIDs(req.Uploads)
	if err := s.Context.Err(); err != nil {
		log.Warn("some documents could not be parsed", "error", err)
	}
	s.save(ctx, db.StepSupportingContext, db.CategoryIngestion, s.Context)
	s.finishStep(ctx, steps.IngestUploads, nil)
	emitProgress(s, steps.IngestUploads,
		fmt.Sprintf("Parsed %d document(s) and %d screenshot(s)", len(s.Context.Documents), len(s.Images)), s.Context.DocumentIDs())

	// Step 2: extract evidence
	s.beginStep(ctx, steps.ExtractEvidence)
	s.Evidence = evidence.Extract(ctx, client, evidence.Input{
		Notes:           req.Notes,
		Context:         s.Context,
		Images:          s.Images,
		StrictGrounding: opts.StrictGrounding,
	})
	if s.Evidence.Failed {
		log.Warn("evidence extraction failed", "reason", s.Evidence.Reason)
	}
	s.saveText(ctx, db.StepEvidenceRaw, db.CategoryEvidence, s.Evidence.Raw)
	s.save(ctx, db.StepEvidence, db.CategoryEvidence, s.Evidence.Bundle)
	s.finishStep(ctx, steps.ExtractEvidence, failure(s.Evidence.Failed, s.Evidence.Reason))
	emitProgress(s, steps.ExtractEvidence,
		fmt.Sprintf("Extracted %d evidence item(s)", s.Evidence.Bundle.ItemCount()), s.Evidence.Bundle)
	if opts.Printer != nil {
		opts.Printer.PrintEvidence(&s.Evidence.Bundle)
	}

	// Step 3: generate draft
	s.beginStep(ctx, steps.GenerateDraft)
	s.Raw = drafting.Generate(ctx, client, drafting.Input{
		Report:        req,
		Evidence:      s.Evidence.Bundle,
		Screenshots:   s.Images,
		UploadedFiles: s.FileNames(),
	})
	if s.Raw.Failed {
		log.Warn("draft generation failed", "reason", s.Raw.Reason)
	}
	s.saveText(ctx, db.StepDraftRaw, db.CategoryDrafting, s.Raw.Raw)
	s.finishStep(ctx, steps.GenerateDraft, failure(s.Raw.Failed, s.Raw.Reason))
	emitProgress(s, steps.GenerateDraft, "Generated draft", nil)

	// Step 4: normalize
	s.beginStep(ctx, steps.NormalizeDraft)
	s.Draft = normalize.Draft(s.Raw.Draft, req.Tier)
	s.seedPlacement(s.Draft.ImageCaptions)
	if opts.Edits != nil {
		s.apply(*opts.Edits)
	}
	s.save(ctx, db.StepDraft, db.CategoryDrafting, s.Draft)
	s.finishStep(ctx, steps.NormalizeDraft, nil)
	emitProgress(s, steps.NormalizeDraft, fmt.Sprintf("Normalized draft for %s tier", req.Tier.Label()), s.Draft)
	if opts.Printer != nil {
		opts.Printer.PrintDraft(&s.Draft)
	}

	// Steps 5-7: render, assemble, export
	if err := s.render(ctx); err != nil {
		s.completeArchive(ctx, db.RunStatusFailed)
		return s, err
	}

	s.completeArchive(ctx, db.RunStatusCompleted)
	log.Info("report complete", "html_bytes", len(s.Output.HTML), "eml_bytes", len(s.Output.EML), "notes", len(s.Notes()))
	return s, nil
}

// Rerender applies edits and rebuilds the HTML, preview and .eml without any
// model call.
func Rerender(ctx context.Context, s *Session, edits Edits) error {
	if err := steps.ValidateDependencies(steps.RenderEmail, s.Done); err != nil {
		return err
	}
	s.opts.Logger = logging.OrNop(s.opts.Logger)
	s.apply(edits)
	return s.render(ctx)
}

// NewSession builds a session from an existing draft, for re-rendering saved
// work. The draft is cleaned but not capped.
func NewSession(req types.ReportRequest, draft types.Draft, opts Options) *Session {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	opts.Logger = logging.OrNop(opts.Logger)
	req.ApplyDefaults(now())

	s := &Session{
		RunID:    uuid.New(),
		Request:  req,
		Draft:    normalize.Edited(draft),
		Images:   types.AssignContentIDs(req.Uploads),
		Sender:   opts.Sender,
		Mail:     opts.Mail,
		Template: rendering.LoadTemplate(opts.TemplatePath),
		opts:     opts,
	}
	s.seedPlacement(s.Draft.ImageCaptions)
	for _, step := range []string{steps.IngestUploads, steps.ExtractEvidence, steps.GenerateDraft, steps.NormalizeDraft} {
		s.markDone(step)
	}
	return s
}

func (s *Session) render(ctx context.Context) error {
	log := s.opts.Logger

	s.beginStep(ctx, steps.RenderEmail)
	rendered, err := rendering.Render(rendering.Document{
		ClientName:   s.Request.ClientName,
		MonthLabel:   s.Request.MonthLabel,
		Website:      s.Request.Website,
		DashboardURL: s.Request.DashboardURL,
		ContactName:  s.Request.ContactName,
		Sender:       s.Sender,
		Draft:        s.Draft,
		Images:       s.Images,
		Placement:    s.Placement,
		Captions:     s.Captions,
	}, s.Template)
	if err != nil {
		s.finishStep(ctx, steps.RenderEmail, err)
		return err
	}
	if len(rendered.Unresolved) > 0 {
		log.Warn("template placeholders without values were removed", "tokens", rendered.Unresolved)
	}
	images := mailer.FromAssets(s.Images)
	s.Output = Output{
		HTML:        rendered.HTML,
		PreviewHTML: mailer.PreviewHTML(rendered.HTML, images),
		Unresolved:  rendered.Unresolved,
		ContentIDs:  rendered.ContentIDs,
	}
	s.saveText(ctx, db.StepEmailHTML, db.CategoryRendering, rendered.HTML)
	s.finishStep(ctx, steps.RenderEmail, nil)
	emitProgress(s, steps.RenderEmail, "Rendered email HTML", nil)

	s.beginStep(ctx, steps.AssembleEML)
	eml, err := mailer.Assemble(mailer.Message{
		Subject: s.Draft.Subject,
		HTML:    rendered.HTML,
		Images:  images,
	}, s.Mail)
	if err != nil {
		s.finishStep(ctx, steps.AssembleEML, err)
		return fmt.Errorf("failed to assemble .eml: %w", err)
	}
	s.Output.EML = eml
	s.saveText(ctx, db.StepEmailEML, db.CategoryRendering, string(eml))
	s.finishStep(ctx, steps.AssembleEML, nil)
	emitProgress(s, steps.AssembleEML, fmt.Sprintf("Assembled .eml with %d inline image(s)", len(images)), nil)

	if !s.opts.PDF {
		return nil
	}
	s.beginStep(ctx, steps.ExportPDF)
	pdfOpts := s.opts.PDFOptions
	if pdfOpts.Logger == nil {
		pdfOpts.Logger = log
	}
	pdf, err := export.RenderPDF(ctx, s.Output.PreviewHTML, pdfOpts)
	if err != nil {
		log.Warn("pdf export unavailable", "error", err)
		s.Output.PDFError = err
		s.finishStep(ctx, steps.ExportPDF, err)
		return nil
	}
	s.Output.PDF = pdf
	s.finishStep(ctx, steps.ExportPDF, nil)
	emitProgress(s, steps.ExportPDF, "Exported PDF", nil)
	return nil
}

func failure(failed bool, reason string) error {
	if !failed {
		return nil
	}
	return errors.New(reason)
}
