package emails

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path/filepath"

	"github.com/harishmarimuthu13022003/finance-agent/pkg/formatting"
	"github.com/harishmarimuthu13022003/finance-agent/pkg/pagination"
	"github.com/harishmarimuthu13022003/finance-agent/pkg/query"
	"github.com/harishmarimuthu13022003/finance-agent/pkg/repository"
	"github.com/harishmarimuthu13022003/finance-agent/pkg/storage"
)

type repo struct {
	db         *sql.DB
	storage    storage.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates an email repository implementing the System interface.
func New(
	db *sql.DB,
	store storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		storage:    store,
		logger:     logger.With("system", "emails"),
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
) (*pagination.PageResult[Email], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Sender", "Subject")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count emails: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	records, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanEmail)
	if err != nil {
		return nil, fmt.Errorf("query emails: %w", err)
	}

	result := pagination.NewPageResult(records, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id string) (*Email, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	e, err := repository.QueryOne(ctx, r.db, q, args, scanEmail)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &e, nil
}

// Ingest archives attachment payloads to blob storage and upserts the email
// record. Re-ingesting an existing id is a no-op returning the stored record,
// preserving immutability of ingested emails.
func (r *repo) Ingest(ctx context.Context, raw RawEmail) (*Email, error) {
	if err := raw.Validate(); err != nil {
		return nil, err
	}

	if existing, err := r.Find(ctx, raw.ID); err == nil {
		return existing, nil
	}

	stored := make([]StoredAttachment, 0, len(raw.Attachments))
	for i, att := range raw.Attachments {
		key := buildStorageKey(raw.ID, i, att.Filename)
		if err := r.storage.Upload(ctx, key, bytes.NewReader(att.Data), att.MimeType); err != nil {
			return nil, fmt.Errorf("archive attachment %s: %w", att.Filename, err)
		}
		r.logger.Debug("attachment archived",
			"key", key,
			"size", formatting.FormatBytes(int64(len(att.Data)), 1),
		)
		stored = append(stored, StoredAttachment{
			Filename:   att.Filename,
			MimeType:   att.MimeType,
			StorageKey: key,
			SizeBytes:  int64(len(att.Data)),
		})
	}

	atts, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("encode attachments: %w", err)
	}

	q := `
		INSERT INTO emails(id, sender, subject, body, received_at, attachments)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
		RETURNING id, sender, subject, body, received_at, attachments, ingested_at`

	insertArgs := []any{
		raw.ID,
		raw.Sender,
		raw.Subject,
		raw.Body,
		raw.ReceivedAt,
		atts,
	}

	e, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Email, error) {
		return repository.QueryOne(ctx, tx, q, insertArgs, scanEmail)
	})
	if err != nil {
		mapped := repository.MapError(err, ErrNotFound, ErrDuplicate)
		if mapped == ErrNotFound {
			// ON CONFLICT DO NOTHING returns no row when the id already exists
			return r.Find(ctx, raw.ID)
		}
		return nil, mapped
	}

	r.logger.Info("email ingested", "id", e.ID, "attachments", len(stored))
	return &e, nil
}

// LoadRaw reconstructs a RawEmail including attachment payloads downloaded
// from blob storage, for handing to the processing pipeline.
func (r *repo) LoadRaw(ctx context.Context, id string) (*RawEmail, error) {
	e, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	raw := RawEmail{
		ID:         e.ID,
		Sender:     e.Sender,
		Subject:    e.Subject,
		Body:       e.Body,
		ReceivedAt: e.ReceivedAt,
	}

	for _, att := range e.Attachments {
		body, err := r.storage.Download(ctx, att.StorageKey)
		if err != nil {
			return nil, fmt.Errorf("download attachment %s: %w", att.StorageKey, err)
		}
		data, err := io.ReadAll(body)
		body.Close()
		if err != nil {
			return nil, fmt.Errorf("read attachment %s: %w", att.StorageKey, err)
		}
		raw.Attachments = append(raw.Attachments, Attachment{
			Filename: att.Filename,
			MimeType: att.MimeType,
			Data:     data,
		})
	}

	return &raw, nil
}

func buildStorageKey(emailID string, index int, filename string) string {
	return fmt.Sprintf("emails/%s/%d-%s", emailID, index, sanitizeFilename(filename))
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	if name == "." || name == "" {
		name = "attachment"
	}
	return url.PathEscape(name)
}
