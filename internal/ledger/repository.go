package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

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

// New creates a ledger repository implementing the System interface.
func New(
	db *sql.DB,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "ledger"),
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
) (*pagination.PageResult[Entry], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Vendor", "AccountName")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count ledger entries: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	records, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("query ledger entries: %w", err)
	}

	result := pagination.NewPageResult(records, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Entry, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	e, err := repository.QueryOne(ctx, r.db, q, args, scanEntry)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &e, nil
}

func (r *repo) FindByEmail(ctx context.Context, emailID string) (*Entry, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ReferenceEmailID", emailID)

	e, err := repository.QueryOne(ctx, r.db, q, args, scanEntry)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &e, nil
}

// Write persists exactly one entry per reference email id. A re-run for the
// same email supersedes a prior Draft or Rejected entry atomically; a Posted
// entry is terminal, so the write becomes a no-op returning the stored entry.
func (r *repo) Write(ctx context.Context, entry *Entry) (*Entry, error) {
	q := `
		INSERT INTO ledger_entries(
			id, account_code, account_name, side, amount, currency,
			vendor, intent, reference_email_id, status, reason, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (reference_email_id) DO UPDATE SET
			id = EXCLUDED.id,
			account_code = EXCLUDED.account_code,
			account_name = EXCLUDED.account_name,
			side = EXCLUDED.side,
			amount = EXCLUDED.amount,
			currency = EXCLUDED.currency,
			vendor = EXCLUDED.vendor,
			intent = EXCLUDED.intent,
			status = EXCLUDED.status,
			reason = EXCLUDED.reason,
			created_at = EXCLUDED.created_at
		WHERE ledger_entries.status <> 'Posted'
		RETURNING id, account_code, account_name, side, amount, currency,
			vendor, intent, reference_email_id, status, reason, created_at`

	args := []any{
		entry.ID,
		entry.AccountCode,
		entry.AccountName,
		entry.Side,
		entry.Amount,
		entry.Currency,
		entry.Vendor,
		entry.Intent,
		entry.ReferenceEmailID,
		entry.Status,
		entry.Reason,
		entry.CreatedAt,
	}

	e, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Entry, error) {
		return repository.QueryOne(ctx, tx, q, args, scanEntry)
	})
	if err != nil {
		if repository.IsForeignKeyViolation(err) {
			return nil, fmt.Errorf("reference email %s not ingested: %w",
				entry.ReferenceEmailID, ErrNotFound)
		}
		mapped := repository.MapError(err, ErrNotFound, ErrDuplicate)
		if mapped == ErrNotFound {
			// the conflict target was Posted, so the upsert returned no row
			return r.FindByEmail(ctx, entry.ReferenceEmailID)
		}
		return nil, mapped
	}

	r.logger.Info("ledger entry written",
		"id", e.ID,
		"email_id", e.ReferenceEmailID,
		"status", e.Status,
	)
	return &e, nil
}

// Post transitions a Draft entry to Posted.
func (r *repo) Post(ctx context.Context, id uuid.UUID) (*Entry, error) {
	e, err := r.transition(ctx, id, StatusPosted, "")
	if err != nil {
		return nil, err
	}

	r.logger.Info("ledger entry posted", "id", e.ID, "email_id", e.ReferenceEmailID)
	return e, nil
}

// Reject transitions a Draft entry to Rejected with the given reason.
func (r *repo) Reject(ctx context.Context, id uuid.UUID, reason string) (*Entry, error) {
	e, err := r.transition(ctx, id, StatusRejected, reason)
	if err != nil {
		return nil, err
	}

	r.logger.Info("ledger entry rejected",
		"id", e.ID,
		"email_id", e.ReferenceEmailID,
		"reason", reason,
	)
	return e, nil
}

func (r *repo) transition(ctx context.Context, id uuid.UUID, to Status, reason string) (*Entry, error) {
	q := `
		UPDATE ledger_entries
		SET status = $2, reason = $3
		WHERE id = $1 AND status = 'Draft'
		RETURNING id, account_code, account_name, side, amount, currency,
			vendor, intent, reference_email_id, status, reason, created_at`

	e, err := repository.QueryOne(ctx, r.db, q, []any{id, to, reason}, scanEntry)
	if err == nil {
		return &e, nil
	}

	if repository.MapError(err, ErrNotFound, ErrDuplicate) != ErrNotFound {
		return nil, err
	}

	// distinguish a missing entry from an illegal transition
	existing, findErr := r.Find(ctx, id)
	if findErr != nil {
		return nil, findErr
	}
	if existing.Status == StatusPosted {
		return nil, ErrPosted
	}
	return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, existing.Status, to)
}

// Summarize aggregates entry counts by status, account, and classified
// intent, and per-currency totals over Draft and Posted entries. Intent
// counts include Rejected entries so unmapped intents stay visible.
func (r *repo) Summarize(ctx context.Context) (*Summary, error) {
	summary := &Summary{
		ByStatus:   make(map[Status]int),
		ByAccount:  make(map[string]int),
		ByCurrency: make(map[string]TotalAmount),
		ByIntent:   make(map[intents.Intent]int),
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM ledger_entries GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("summarize by status: %w", err)
	}
	for rows.Next() {
		var (
			status Status
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			rows.Close()
			return nil, err
		}
		summary.ByStatus[status] = count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.db.QueryContext(ctx, `
		SELECT account_code, COUNT(*)
		FROM ledger_entries
		WHERE status <> 'Rejected'
		GROUP BY account_code`)
	if err != nil {
		return nil, fmt.Errorf("summarize by account: %w", err)
	}
	for rows.Next() {
		var (
			code  string
			count int
		)
		if err := rows.Scan(&code, &count); err != nil {
			rows.Close()
			return nil, err
		}
		summary.ByAccount[code] = count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.db.QueryContext(ctx,
		`SELECT intent, COUNT(*) FROM ledger_entries GROUP BY intent`)
	if err != nil {
		return nil, fmt.Errorf("summarize by intent: %w", err)
	}
	for rows.Next() {
		var (
			intent intents.Intent
			count  int
		)
		if err := rows.Scan(&intent, &count); err != nil {
			rows.Close()
			return nil, err
		}
		summary.ByIntent[intent] = count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.db.QueryContext(ctx, `
		SELECT currency, COUNT(*), COALESCE(SUM(amount), 0)
		FROM ledger_entries
		WHERE status <> 'Rejected'
		GROUP BY currency`)
	if err != nil {
		return nil, fmt.Errorf("summarize by currency: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			currency string
			count    int
			total    decimal.Decimal
		)
		if err := rows.Scan(&currency, &count, &total); err != nil {
			return nil, err
		}
		summary.ByCurrency[currency] = TotalAmount{Count: count, Total: total}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return summary, nil
}
