package pipeline

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/harishmarimuthu13022003/finance-agent/internal/runs"
)

// Orchestrator serializes runs per email id and fans batches out over a
// bounded worker pool. At most one run is in flight for a given email id;
// a re-submission while one is running is rejected, which is what keeps a
// single email from ever producing two ledger entries.
type Orchestrator struct {
	rt *Runtime

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewOrchestrator creates an Orchestrator over the given runtime.
func NewOrchestrator(rt *Runtime) *Orchestrator {
	return &Orchestrator{
		rt:       rt,
		inflight: make(map[string]struct{}),
	}
}

// BatchItem is the per-email outcome of a batch submission.
type BatchItem struct {
	EmailID string    `json:"email_id"`
	Run     *runs.Run `json:"run,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// Process executes the pipeline for one ingested email.
func (o *Orchestrator) Process(ctx context.Context, emailID string) (*runs.Run, error) {
	if emailID == "" {
		return nil, fmt.Errorf("%w: empty email id", ErrFatalInput)
	}

	if !o.acquire(emailID) {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRunning, emailID)
	}
	defer o.release(emailID)

	raw, err := o.rt.Emails.LoadRaw(ctx, emailID)
	if err != nil {
		return nil, fmt.Errorf("load email %s: %w", emailID, err)
	}

	return Execute(ctx, o.rt, *raw)
}

// ProcessBatch runs each email independently over a bounded worker pool.
// One email's failure never blocks another; per-email outcomes are
// returned in input order.
func (o *Orchestrator) ProcessBatch(ctx context.Context, emailIDs []string) []BatchItem {
	items := make([]BatchItem, len(emailIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.rt.Config.Workers)

	for i, id := range emailIDs {
		items[i].EmailID = id
		g.Go(func() error {
			run, err := o.Process(gctx, id)
			if err != nil {
				items[i].Error = err.Error()
				return nil
			}
			items[i].Run = run
			return nil
		})
	}

	// workers only report per-item outcomes, never group errors
	_ = g.Wait()

	return items
}

// Sync pulls new messages from the mailbox, ingests them, and processes the
// batch. Without a configured mailbox it returns an empty batch.
func (o *Orchestrator) Sync(ctx context.Context, limit int64) ([]BatchItem, error) {
	if o.rt.Mailbox == nil {
		return nil, nil
	}

	fetched, err := o.rt.Mailbox.FetchNew(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch mailbox: %w", err)
	}

	ids := make([]string, 0, len(fetched))
	for _, raw := range fetched {
		if _, err := o.rt.Emails.Ingest(ctx, raw); err != nil {
			o.rt.Logger.Warn("ingest fetched email failed",
				"email_id", raw.ID,
				"error", err,
			)
			continue
		}
		ids = append(ids, raw.ID)
	}

	return o.ProcessBatch(ctx, ids), nil
}

func (o *Orchestrator) acquire(emailID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, busy := o.inflight[emailID]; busy {
		return false
	}
	o.inflight[emailID] = struct{}{}
	return true
}

func (o *Orchestrator) release(emailID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inflight, emailID)
}
