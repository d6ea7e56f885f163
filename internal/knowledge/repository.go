package knowledge

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/harishmarimuthu13022003/finance-agent/internal/intents"
	"github.com/harishmarimuthu13022003/finance-agent/pkg/pagination"
	"github.com/harishmarimuthu13022003/finance-agent/pkg/query"
	"github.com/harishmarimuthu13022003/finance-agent/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a snippet repository implementing the System interface.
func New(
	db *sql.DB,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "knowledge"),
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
) (*pagination.PageResult[Snippet], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Title", "Content")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count snippets: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	snippets, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanSnippet)
	if err != nil {
		return nil, fmt.Errorf("query snippets: %w", err)
	}

	result := pagination.NewPageResult(snippets, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Snippet, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	k, err := repository.QueryOne(ctx, r.db, q, args, scanSnippet)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &k, nil
}

// Query retrieves the top-k active snippets for an intent and vendor.
// Vendor-scoped snippets rank above generic ones; within each group the
// order is creation time then id, so an unchanged store always yields the
// same ranked set for the same arguments.
func (r *repo) Query(ctx context.Context, intent intents.Intent, vendor string, k int) ([]Snippet, error) {
	q := `
		SELECT id, title, intent, vendor, content, active, created_at
		FROM knowledge_snippets
		WHERE active = true
		  AND intent = $1
		  AND (vendor IS NULL OR vendor = $2)
		ORDER BY (vendor IS NOT NULL) DESC, created_at ASC, id ASC
		LIMIT $3`

	snippets, err := repository.QueryMany(ctx, r.db, q, []any{intent, vendor, k}, scanSnippet)
	if err != nil {
		return nil, fmt.Errorf("query snippets for %s: %w", intent, err)
	}
	return snippets, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Snippet, error) {
	q := `
		INSERT INTO knowledge_snippets(title, intent, vendor, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id, title, intent, vendor, content, active, created_at`

	args := []any{cmd.Title, cmd.Intent, cmd.Vendor, cmd.Content}

	k, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Snippet, error) {
		return repository.QueryOne(ctx, tx, q, args, scanSnippet)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("snippet created", "id", k.ID, "title", k.Title, "intent", k.Intent)
	return &k, nil
}

func (r *repo) Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Snippet, error) {
	q := `
		UPDATE knowledge_snippets
		SET title = $1, intent = $2, vendor = $3, content = $4
		WHERE id = $5
		RETURNING id, title, intent, vendor, content, active, created_at`

	args := []any{cmd.Title, cmd.Intent, cmd.Vendor, cmd.Content, id}

	k, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Snippet, error) {
		return repository.QueryOne(ctx, tx, q, args, scanSnippet)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("snippet updated", "id", k.ID, "title", k.Title)
	return &k, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM knowledge_snippets WHERE id = $1",
			id,
		); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("snippet deleted", "id", id)
	return nil
}

func (r *repo) Activate(ctx context.Context, id uuid.UUID) (*Snippet, error) {
	return r.setActive(ctx, id, true)
}

func (r *repo) Deactivate(ctx context.Context, id uuid.UUID) (*Snippet, error) {
	return r.setActive(ctx, id, false)
}

func (r *repo) setActive(ctx context.Context, id uuid.UUID, active bool) (*Snippet, error) {
	q := `
		UPDATE knowledge_snippets SET active = $2
		WHERE id = $1
		RETURNING id, title, intent, vendor, content, active, created_at`

	k, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Snippet, error) {
		return repository.QueryOne(ctx, tx, q, []any{id, active}, scanSnippet)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("snippet active flag set", "id", k.ID, "active", k.Active)
	return &k, nil
}
