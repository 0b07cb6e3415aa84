package pipeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/metamendmarketing/reportbuilderv3/internal/db"
	"github.com/metamendmarketing/reportbuilderv3/internal/pipeline/steps"
)

// Archive writes are best effort: a failing database never blocks a report.

func (s *Session) archiving() bool {
	return s.opts.Archive != nil && s.RunID != uuid.Nil
}

func (s *Session) startArchive(ctx context.Context) {
	if s.opts.Archive == nil {
		return
	}
	id, err := s.opts.Archive.CreateRun(ctx, db.RunInput{
		ClientName: s.Request.ClientName,
		Website:    s.Request.Website,
		MonthLabel: s.Request.MonthLabel,
		Tier:       string(s.Request.Tier),
	})
	if err != nil {
		s.opts.Logger.Warn("failed to create archive run; continuing without persistence", "error", err)
		s.opts.Archive = nil
		return
	}
	s.RunID = id
	s.save(ctx, db.StepRequest, db.CategoryIngestion, s.Request)
}

func (s *Session) completeArchive(ctx context.Context, status string) {
	if !s.archiving() {
		return
	}
	if err := s.opts.Archive.CompleteRun(ctx, s.RunID, status); err != nil {
		s.opts.Logger.Warn("failed to complete archive run", "error", err)
	}
}

func (s *Session) save(ctx context.Context, step, category string, content any) {
	if !s.archiving() {
		return
	}
	if err := s.opts.Archive.SaveArtifact(ctx, s.RunID, step, category, content); err != nil {
		s.opts.Logger.Warn("failed to archive artifact", "step", step, "error", err)
	}
}

func (s *Session) saveText(ctx context.Context, step, category, text string) {
	if !s.archiving() || text == "" {
		return
	}
	if err := s.opts.Archive.SaveTextArtifact(ctx, s.RunID, step, category, text); err != nil {
		s.opts.Logger.Warn("failed to archive artifact", "step", step, "error", err)
	}
}

func (s *Session) beginStep(ctx context.Context, step string) {
	if !s.archiving() {
		return
	}
	if _, err := s.opts.Archive.StartRunStep(ctx, s.RunID, step, steps.StepRegistry[step].Category); err != nil {
		s.opts.Logger.Warn("failed to record step start", "step", step, "error", err)
	}
}

// finishStep marks step done in the session and, when archiving, records
// its terminal status.
func (s *Session) finishStep(ctx context.Context, step string, stepErr error) {
	s.markDone(step)
	if !s.archiving() {
		return
	}
	status := db.StepStatusCompleted
	var msg *string
	if stepErr != nil {
		status = db.StepStatusFailed
		m := stepErr.Error()
		msg = &m
	}
	if err := s.opts.Archive.FinishRunStep(ctx, s.RunID, step, status, msg); err != nil {
		s.opts.Logger.Warn("failed to record step finish", "step", step, "error", err)
	}
}
