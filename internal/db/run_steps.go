package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const stepColumns = `id, run_id, step, category, status, started_at, completed_at,
	duration_ms, error_message, created_at, updated_at`

func scanRunStep(row pgx.Row) (*RunStep, error) {
	var step RunStep
	err := row.Scan(&step.ID, &step.RunID, &step.Step, &step.Category, &step.Status,
		&step.StartedAt, &step.CompletedAt, &step.DurationMs, &step.ErrorMessage,
		&step.CreatedAt, &step.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &step, nil
}

// StartRunStep records a stage as in progress, creating the row if needed
func (db *DB) StartRunStep(ctx context.Context, runID uuid.UUID, stepName, category string) (*RunStep, error) {
	step, err := scanRunStep(db.pool.QueryRow(ctx,
		`INSERT INTO report_run_steps (run_id, step, category, status, started_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (run_id, step) DO UPDATE
		 SET status = EXCLUDED.status, started_at = NOW(), completed_at = NULL,
		     duration_ms = NULL, error_message = NULL, updated_at = NOW()
		 RETURNING `+stepColumns,
		runID, stepName, category, StepStatusInProgress,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to start run step: %w", err)
	}
	return step, nil
}

// GetRunStep retrieves a run step by run_id and step name
func (db *DB) GetRunStep(ctx context.Context, runID uuid.UUID, stepName string) (*RunStep, error) {
	step, err := scanRunStep(db.pool.QueryRow(ctx,
		`SELECT `+stepColumns+` FROM report_run_steps WHERE run_id = $1 AND step = $2`,
		runID, stepName,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run step: %w", err)
	}
	return step, nil
}

// ListRunSteps retrieves all steps for a run in creation order
func (db *DB) ListRunSteps(ctx context.Context, runID uuid.UUID) ([]RunStep, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+stepColumns+` FROM report_run_steps WHERE run_id = $1 ORDER BY created_at`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list run steps: %w", err)
	}
	defer rows.Close()

	var steps []RunStep
	for rows.Next() {
		step, err := scanRunStep(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run step: %w", err)
		}
		steps = append(steps, *step)
	}
	return steps, rows.Err()
}

// FinishRunStep sets a terminal status and records the duration since start
func (db *DB) FinishRunStep(ctx context.Context, runID uuid.UUID, stepName, status string, errorMsg *string) error {
	current, err := db.GetRunStep(ctx, runID, stepName)
	if err != nil {
		return err
	}
	if current == nil {
		return fmt.Errorf("step not found: %s", stepName)
	}

	now := time.Now()
	var durationMs *int
	if current.StartedAt != nil {
		dur := int(now.Sub(*current.StartedAt).Milliseconds())
		durationMs = &dur
	}

	_, err = db.pool.Exec(ctx,
		`UPDATE report_run_steps
		 SET status = $1, completed_at = $2, duration_ms = $3, error_message = $4, updated_at = NOW()
		 WHERE run_id = $5 AND step = $6`,
		status, now, durationMs, errorMsg, runID, stepName,
	)
	if err != nil {
		return fmt.Errorf("failed to update run step status: %w", err)
	}
	return nil
}
