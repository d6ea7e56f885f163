package runs

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/harishmarimuthu13022003/finance-agent/pkg/pagination"
	"github.com/harishmarimuthu13022003/finance-agent/pkg/query"
	"github.com/harishmarimuthu13022003/finance-agent/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a run repository implementing the System interface.
func New(
	db *sql.DB,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "runs"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Run], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "EmailID")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count runs: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	records, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanRun)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	result := pagination.NewPageResult(records, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Run, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	run, err := repository.QueryOne(ctx, r.db, q, args, scanRun)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if err := r.loadStages(ctx, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// Recent returns the n most recently started runs with their stage trails.
func (r *repo) Recent(ctx context.Context, n int) ([]Run, error) {
	q := `
		SELECT id, email_id, state, reason, started_at, completed_at
		FROM pipeline_runs
		ORDER BY started_at DESC, id DESC
		LIMIT $1`

	records, err := repository.QueryMany(ctx, r.db, q, []any{n}, scanRun)
	if err != nil {
		return nil, fmt.Errorf("query recent runs: %w", err)
	}

	for i := range records {
		if err := r.loadStages(ctx, &records[i]); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// Begin starts a run for an email in the Received state.
func (r *repo) Begin(ctx context.Context, emailID string) (*Run, error) {
	q := `
		INSERT INTO pipeline_runs(email_id, state)
		VALUES ($1, 'Received')
		RETURNING id, email_id, state, reason, started_at, completed_at`

	run, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Run, error) {
		return repository.QueryOne(ctx, tx, q, []any{emailID}, scanRun)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("run started", "id", run.ID, "email_id", emailID)
	return &run, nil
}

// RecordStage appends one stage result and advances the run state in a
// single transaction. Appending to a terminal run is an error.
func (r *repo) RecordStage(ctx context.Context, id uuid.UUID, result StageResult, state State) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		var current State
		err := tx.QueryRowContext(ctx,
			"SELECT state FROM pipeline_runs WHERE id = $1 FOR UPDATE", id,
		).Scan(&current)
		if err != nil {
			return struct{}{}, err
		}
		if current.Terminal() {
			return struct{}{}, ErrTerminal
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO stage_results(
				run_id, seq, stage, status, attempts, output, error_detail, duration, recorded_at
			)
			SELECT $1, COALESCE(MAX(seq), 0) + 1, $2, $3, $4, $5, $6, $7, $8
			FROM stage_results WHERE run_id = $1`,
			id, result.Stage, result.Status, result.Attempts,
			result.Output, result.ErrorDetail, result.Duration, result.RecordedAt,
		)
		if err != nil {
			return struct{}{}, fmt.Errorf("append stage result: %w", err)
		}

		if err := repository.ExecExpectOne(ctx, tx,
			"UPDATE pipeline_runs SET state = $2 WHERE id = $1",
			id, state,
		); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("stage recorded",
		"run_id", id,
		"stage", result.Stage,
		"status", result.Status,
		"state", state,
	)
	return nil
}

// Finish moves a run to a terminal state.
func (r *repo) Finish(ctx context.Context, id uuid.UUID, state State, reason string) (*Run, error) {
	if !state.Terminal() {
		return nil, fmt.Errorf("finish requires a terminal state, got %s", state)
	}

	q := `
		UPDATE pipeline_runs
		SET state = $2, reason = $3, completed_at = now()
		WHERE id = $1 AND state NOT IN ('Completed', 'Failed')
		RETURNING id, email_id, state, reason, started_at, completed_at`

	run, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Run, error) {
		return repository.QueryOne(ctx, tx, q, []any{id, state, reason}, scanRun)
	})
	if err != nil {
		mapped := repository.MapError(err, ErrNotFound, ErrDuplicate)
		if mapped == ErrNotFound {
			if existing, findErr := r.Find(ctx, id); findErr == nil && existing.State.Terminal() {
				return nil, ErrTerminal
			}
		}
		return nil, mapped
	}

	if err := r.loadStages(ctx, &run); err != nil {
		return nil, err
	}

	r.logger.Info("run finished",
		"id", run.ID,
		"email_id", run.EmailID,
		"state", run.State,
		"outcome", run.Outcome(),
	)
	return &run, nil
}

// Summarize buckets runs into completed, degraded, failed, and running.
// Degraded runs completed with at least one non-success stage.
func (r *repo) Summarize(ctx context.Context) (*Summary, error) {
	q := `
		SELECT
			COUNT(*) FILTER (WHERE state = 'Completed' AND NOT EXISTS (
				SELECT 1 FROM stage_results s
				WHERE s.run_id = r.id AND s.status <> 'Success')),
			COUNT(*) FILTER (WHERE state = 'Completed' AND EXISTS (
				SELECT 1 FROM stage_results s
				WHERE s.run_id = r.id AND s.status <> 'Success')),
			COUNT(*) FILTER (WHERE state = 'Failed'),
			COUNT(*) FILTER (WHERE state NOT IN ('Completed', 'Failed'))
		FROM pipeline_runs r`

	var summary Summary
	err := r.db.QueryRowContext(ctx, q).Scan(
		&summary.Completed,
		&summary.Degraded,
		&summary.Failed,
		&summary.Running,
	)
	if err != nil {
		return nil, fmt.Errorf("summarize runs: %w", err)
	}
	return &summary, nil
}

func (r *repo) loadStages(ctx context.Context, run *Run) error {
	q := `
		SELECT stage, status, attempts, output, error_detail, duration, recorded_at
		FROM stage_results
		WHERE run_id = $1
		ORDER BY seq ASC`

	stages, err := repository.QueryMany(ctx, r.db, q, []any{run.ID}, scanStage)
	if err != nil {
		return fmt.Errorf("query stage results: %w", err)
	}
	run.Stages = stages
	return nil
}
