package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harishmarimuthu13022003/finance-agent/internal/config"
	"github.com/harishmarimuthu13022003/finance-agent/internal/emails"
	"github.com/harishmarimuthu13022003/finance-agent/internal/extraction"
	"github.com/harishmarimuthu13022003/finance-agent/internal/fields"
	"github.com/harishmarimuthu13022003/finance-agent/internal/intents"
	"github.com/harishmarimuthu13022003/finance-agent/internal/knowledge"
	"github.com/harishmarimuthu13022003/finance-agent/internal/ledger"
	"github.com/harishmarimuthu13022003/finance-agent/internal/pipeline"
	"github.com/harishmarimuthu13022003/finance-agent/internal/replies"
	"github.com/harishmarimuthu13022003/finance-agent/internal/runs"
	"github.com/harishmarimuthu13022003/finance-agent/pkg/pagination"
)

var errNotImplemented = errors.New("not implemented")

// fakeEmails serves raw emails from memory. loadDelay, when set, holds
// LoadRaw open so tests can observe in-flight runs; loadEntered reports
// that a caller reached the blocking point.
type fakeEmails struct {
	mu          sync.Mutex
	raw         map[string]emails.RawEmail
	loadDelay   chan struct{}
	loadEntered chan struct{}
}

func newFakeEmails(raws ...emails.RawEmail) *fakeEmails {
	f := &fakeEmails{raw: make(map[string]emails.RawEmail)}
	for _, r := range raws {
		f.raw[r.ID] = r
	}
	return f
}

func (f *fakeEmails) Handler() *emails.Handler { return nil }

func (f *fakeEmails) List(context.Context, pagination.PageRequest, emails.Filters) (*pagination.PageResult[emails.Email], error) {
	return nil, errNotImplemented
}

func (f *fakeEmails) Find(context.Context, string) (*emails.Email, error) {
	return nil, errNotImplemented
}

func (f *fakeEmails) Ingest(_ context.Context, raw emails.RawEmail) (*emails.Email, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.raw[raw.ID] = raw
	return &emails.Email{ID: raw.ID}, nil
}

func (f *fakeEmails) LoadRaw(_ context.Context, id string) (*emails.RawEmail, error) {
	if f.loadDelay != nil {
		if f.loadEntered != nil {
			select {
			case f.loadEntered <- struct{}{}:
			default:
			}
		}
		<-f.loadDelay
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.raw[id]
	if !ok {
		return nil, emails.ErrNotFound
	}
	return &raw, nil
}

// fakeRuns records runs and stage results in memory.
type fakeRuns struct {
	mu   sync.Mutex
	runs map[uuid.UUID]*runs.Run
}

func newFakeRuns() *fakeRuns {
	return &fakeRuns{runs: make(map[uuid.UUID]*runs.Run)}
}

func (f *fakeRuns) Handler() *runs.Handler { return nil }

func (f *fakeRuns) List(context.Context, pagination.PageRequest, runs.Filters) (*pagination.PageResult[runs.Run], error) {
	return nil, errNotImplemented
}

func (f *fakeRuns) Find(_ context.Context, id uuid.UUID) (*runs.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	run, ok := f.runs[id]
	if !ok {
		return nil, runs.ErrNotFound
	}
	copied := *run
	return &copied, nil
}

func (f *fakeRuns) Recent(context.Context, int) ([]runs.Run, error) {
	return nil, errNotImplemented
}

func (f *fakeRuns) Begin(_ context.Context, emailID string) (*runs.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	run := &runs.Run{
		ID:        uuid.New(),
		EmailID:   emailID,
		State:     runs.StateReceived,
		StartedAt: time.Now().UTC(),
	}
	f.runs[run.ID] = run
	copied := *run
	return &copied, nil
}

func (f *fakeRuns) RecordStage(_ context.Context, id uuid.UUID, result runs.StageResult, state runs.State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	run, ok := f.runs[id]
	if !ok {
		return runs.ErrNotFound
	}
	if run.State.Terminal() {
		return runs.ErrTerminal
	}
	run.Stages = append(run.Stages, result)
	run.State = state
	return nil
}

func (f *fakeRuns) Finish(_ context.Context, id uuid.UUID, state runs.State, reason string) (*runs.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	run, ok := f.runs[id]
	if !ok {
		return nil, runs.ErrNotFound
	}
	if run.State.Terminal() {
		return nil, runs.ErrTerminal
	}
	now := time.Now().UTC()
	run.State = state
	run.Reason = reason
	run.CompletedAt = &now
	copied := *run
	return &copied, nil
}

func (f *fakeRuns) Summarize(context.Context) (*runs.Summary, error) {
	return nil, errNotImplemented
}

// fakeLedger stores the last written entry per email.
type fakeLedger struct {
	mu      sync.Mutex
	entries map[string]*ledger.Entry
	err     error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{entries: make(map[string]*ledger.Entry)}
}

func (f *fakeLedger) Handler() *ledger.Handler { return nil }

func (f *fakeLedger) List(context.Context, pagination.PageRequest, ledger.Filters) (*pagination.PageResult[ledger.Entry], error) {
	return nil, errNotImplemented
}

func (f *fakeLedger) Find(context.Context, uuid.UUID) (*ledger.Entry, error) {
	return nil, errNotImplemented
}

func (f *fakeLedger) FindByEmail(_ context.Context, emailID string) (*ledger.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[emailID]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return e, nil
}

func (f *fakeLedger) Write(_ context.Context, entry *ledger.Entry) (*ledger.Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[entry.ReferenceEmailID] = entry
	return entry, nil
}

func (f *fakeLedger) Post(context.Context, uuid.UUID) (*ledger.Entry, error) {
	return nil, errNotImplemented
}

func (f *fakeLedger) Reject(context.Context, uuid.UUID, string) (*ledger.Entry, error) {
	return nil, errNotImplemented
}

func (f *fakeLedger) Summarize(context.Context) (*ledger.Summary, error) {
	return nil, errNotImplemented
}

type fakeClassifier struct {
	classification intents.Classification
	err            error
}

func (f *fakeClassifier) Classify(context.Context, string) (intents.Classification, error) {
	if f.err != nil {
		return intents.Unknown(), f.err
	}
	return f.classification, nil
}

// cancellingClassifier cancels the run's context from inside the classify
// stage, so cancellation is observed between classify and extract.
type cancellingClassifier struct {
	cancel         context.CancelFunc
	classification intents.Classification
}

func (c *cancellingClassifier) Classify(context.Context, string) (intents.Classification, error) {
	c.cancel()
	return c.classification, nil
}

type fakeExtractor struct {
	set fields.Set
	err error
}

func (f *fakeExtractor) Extract(context.Context, string, []string) (fields.Set, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.set, nil
}

type fakeSnippets struct {
	snippets []knowledge.Snippet
}

func (f *fakeSnippets) Handler() *knowledge.Handler { return nil }

func (f *fakeSnippets) List(context.Context, pagination.PageRequest, knowledge.Filters) (*pagination.PageResult[knowledge.Snippet], error) {
	return nil, errNotImplemented
}

func (f *fakeSnippets) Find(context.Context, uuid.UUID) (*knowledge.Snippet, error) {
	return nil, errNotImplemented
}

func (f *fakeSnippets) Query(context.Context, intents.Intent, string, int) ([]knowledge.Snippet, error) {
	return f.snippets, nil
}

func (f *fakeSnippets) Create(context.Context, knowledge.CreateCommand) (*knowledge.Snippet, error) {
	return nil, errNotImplemented
}

func (f *fakeSnippets) Update(context.Context, uuid.UUID, knowledge.UpdateCommand) (*knowledge.Snippet, error) {
	return nil, errNotImplemented
}

func (f *fakeSnippets) Delete(context.Context, uuid.UUID) error { return errNotImplemented }

func (f *fakeSnippets) Activate(context.Context, uuid.UUID) (*knowledge.Snippet, error) {
	return nil, errNotImplemented
}

func (f *fakeSnippets) Deactivate(context.Context, uuid.UUID) (*knowledge.Snippet, error) {
	return nil, errNotImplemented
}

type fakeReplyGenerator struct {
	body string
	err  error
}

func (f *fakeReplyGenerator) Generate(context.Context, replies.Request) (string, error) {
	return f.body, f.err
}

type runtimeOptions struct {
	emails     *fakeEmails
	ledger     *fakeLedger
	classifier intents.Classifier
	extractor  fields.Extractor
	generator  replies.Generator
}

func testRuntimeWith(opts runtimeOptions) (*pipeline.Runtime, *fakeRuns) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := config.PipelineConfig{
		FieldConfidenceMin: 0.5,
		RetryBudget:        1,
		RetryBackoff:       "1ms",
		Workers:            2,
		RetrievalK:         3,
		CapabilityTimeout:  "1s",
		CapitalThreshold:   "10000",
	}

	fr := newFakeRuns()

	rt := &pipeline.Runtime{
		Emails:     opts.emails,
		Runs:       fr,
		Ledger:     opts.ledger,
		Parser:     extraction.NewParser(nil, logger),
		Classifier: opts.classifier,
		Extractor:  opts.extractor,
		Mapper:     ledger.NewMapper(ledger.Rules(decimal.NewFromInt(10000)), logger),
		Composer:   replies.NewComposer(&fakeSnippets{}, opts.generator, 3, logger),
		Config:     cfg,
		Logger:     logger,
	}
	return rt, fr
}

func invoiceEmail(id string) emails.RawEmail {
	return emails.RawEmail{
		ID:         id,
		Sender:     "billing@abccorp.example",
		Subject:    "Invoice INV-100",
		Body:       "Please find our invoice for $1,500.00 due April 1.",
		ReceivedAt: time.Now().UTC(),
	}
}

func invoiceFields() fields.Set {
	return fields.Set{
		fields.FieldAmount:   {Value: "$1,500.00", Confidence: 0.95},
		fields.FieldCurrency: {Value: "USD", Confidence: 0.9},
		fields.FieldVendor:   {Value: "ABC Corp", Confidence: 0.9},
	}
}

func TestExecuteCompletedRun(t *testing.T) {
	fl := newFakeLedger()
	rt, _ := testRuntimeWith(runtimeOptions{
		emails:     newFakeEmails(),
		ledger:     fl,
		classifier: &fakeClassifier{classification: intents.Classification{Intent: intents.IntentInvoice, Confidence: 0.92}},
		extractor:  &fakeExtractor{set: invoiceFields()},
		generator:  &fakeReplyGenerator{body: "Thank you, invoice received."},
	})

	run, err := pipeline.Execute(context.Background(), rt, invoiceEmail("email-1"))
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	if run.State != runs.StateCompleted {
		t.Fatalf("state = %s (reason %q), want Completed", run.State, run.Reason)
	}
	if got := run.Outcome(); got != runs.OutcomeCompleted {
		t.Errorf("outcome = %s, want completed", got)
	}
	if len(run.Stages) != 5 {
		t.Fatalf("stages = %d, want 5", len(run.Stages))
	}
	for i, s := range run.Stages {
		if s.Status != runs.StatusSuccess {
			t.Errorf("stage %d status = %s, want Success", i, s.Status)
		}
	}

	entry, err := fl.FindByEmail(context.Background(), "email-1")
	if err != nil {
		t.Fatalf("ledger entry missing: %v", err)
	}
	if entry.Status != ledger.StatusDraft || entry.AccountCode != "2100" {
		t.Errorf("entry = %s/%s, want Draft/2100", entry.Status, entry.AccountCode)
	}
}

func TestExecuteDegradedOnClassifierFailure(t *testing.T) {
	fl := newFakeLedger()
	rt, _ := testRuntimeWith(runtimeOptions{
		emails:     newFakeEmails(),
		ledger:     fl,
		classifier: &fakeClassifier{err: pipeline.Permanent(errors.New("capability down"))},
		extractor:  &fakeExtractor{set: fields.Set{}},
		generator:  &fakeReplyGenerator{body: "generic acknowledgement"},
	})

	run, err := pipeline.Execute(context.Background(), rt, invoiceEmail("email-2"))
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	if run.State != runs.StateCompleted {
		t.Fatalf("state = %s, want Completed (degraded, not failed)", run.State)
	}
	if got := run.Outcome(); got != runs.OutcomeDegraded {
		t.Errorf("outcome = %s, want degraded", got)
	}

	// unknown intent still produces an audit entry, rejected
	entry, err := fl.FindByEmail(context.Background(), "email-2")
	if err != nil {
		t.Fatalf("ledger entry missing: %v", err)
	}
	if entry.Status != ledger.StatusRejected {
		t.Errorf("entry status = %s, want Rejected", entry.Status)
	}
	if entry.Reason != "unmapped intent" {
		t.Errorf("entry reason = %q, want unmapped intent", entry.Reason)
	}
}

func TestExecuteFatalInputFailsRun(t *testing.T) {
	rt, _ := testRuntimeWith(runtimeOptions{
		emails:     newFakeEmails(),
		ledger:     newFakeLedger(),
		classifier: &fakeClassifier{},
		extractor:  &fakeExtractor{},
		generator:  &fakeReplyGenerator{},
	})

	run, err := pipeline.Execute(context.Background(), rt, emails.RawEmail{ID: ""})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	if run.State != runs.StateFailed {
		t.Fatalf("state = %s, want Failed", run.State)
	}
	if len(run.Stages) != 5 {
		t.Fatalf("stages = %d, want 5 skipped", len(run.Stages))
	}
	for i, s := range run.Stages {
		if s.Status != runs.StatusSkipped {
			t.Errorf("stage %d status = %s, want Skipped", i, s.Status)
		}
	}
}

func TestExecuteCancelledBetweenStages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt, _ := testRuntimeWith(runtimeOptions{
		emails: newFakeEmails(),
		ledger: newFakeLedger(),
		classifier: &cancellingClassifier{
			cancel:         cancel,
			classification: intents.Classification{Intent: intents.IntentInvoice, Confidence: 0.9},
		},
		extractor: &fakeExtractor{set: invoiceFields()},
		generator: &fakeReplyGenerator{body: "ok"},
	})

	run, err := pipeline.Execute(ctx, rt, invoiceEmail("email-5"))
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	if run.State != runs.StateFailed {
		t.Fatalf("state = %s, want Failed", run.State)
	}
	if run.Reason != "cancelled" {
		t.Errorf("reason = %q, want cancelled", run.Reason)
	}
	if len(run.Stages) != 5 {
		t.Fatalf("stages = %d, want 5", len(run.Stages))
	}

	statuses := make(map[string]runs.StageStatus, len(run.Stages))
	for _, s := range run.Stages {
		statuses[s.Stage] = s.Status
	}
	if statuses["parse"] != runs.StatusSuccess {
		t.Errorf("parse status = %s, want Success", statuses["parse"])
	}
	if statuses["classify"] != runs.StatusSuccess {
		t.Errorf("classify status = %s, want Success", statuses["classify"])
	}
	for _, stage := range []string{"extract", "map", "reply"} {
		if statuses[stage] != runs.StatusSkipped {
			t.Errorf("%s status = %s, want Skipped", stage, statuses[stage])
		}
	}
	if got := run.Outcome(); got != runs.OutcomeFailed {
		t.Errorf("outcome = %s, want failed", got)
	}
}

func TestProcessRejectsEmptyID(t *testing.T) {
	rt, _ := testRuntimeWith(runtimeOptions{
		emails:     newFakeEmails(),
		ledger:     newFakeLedger(),
		classifier: &fakeClassifier{},
		extractor:  &fakeExtractor{},
		generator:  &fakeReplyGenerator{},
	})

	o := pipeline.NewOrchestrator(rt)
	_, err := o.Process(context.Background(), "")
	if !errors.Is(err, pipeline.ErrFatalInput) {
		t.Errorf("error = %v, want ErrFatalInput", err)
	}
}

func TestProcessRejectsConcurrentSameID(t *testing.T) {
	fe := newFakeEmails(invoiceEmail("email-3"))
	fe.loadDelay = make(chan struct{})
	fe.loadEntered = make(chan struct{}, 1)

	rt, _ := testRuntimeWith(runtimeOptions{
		emails:     fe,
		ledger:     newFakeLedger(),
		classifier: &fakeClassifier{classification: intents.Classification{Intent: intents.IntentInvoice, Confidence: 0.9}},
		extractor:  &fakeExtractor{set: invoiceFields()},
		generator:  &fakeReplyGenerator{body: "ok"},
	})

	o := pipeline.NewOrchestrator(rt)

	done := make(chan error, 1)
	go func() {
		_, err := o.Process(context.Background(), "email-3")
		done <- err
	}()

	// the first run is parked inside LoadRaw, so a resubmission must bounce
	<-fe.loadEntered
	if _, err := o.Process(context.Background(), "email-3"); !errors.Is(err, pipeline.ErrAlreadyRunning) {
		t.Errorf("second submission error = %v, want ErrAlreadyRunning", err)
	}

	close(fe.loadDelay)
	if err := <-done; err != nil {
		t.Fatalf("first run error: %v", err)
	}

	// once the first run finishes the id can be processed again
	if _, err := o.Process(context.Background(), "email-3"); err != nil {
		t.Errorf("resubmission after completion error: %v", err)
	}
}

func TestProcessBatchIndependentOutcomes(t *testing.T) {
	fe := newFakeEmails(invoiceEmail("good-1"), invoiceEmail("good-2"))

	rt, _ := testRuntimeWith(runtimeOptions{
		emails:     fe,
		ledger:     newFakeLedger(),
		classifier: &fakeClassifier{classification: intents.Classification{Intent: intents.IntentInvoice, Confidence: 0.9}},
		extractor:  &fakeExtractor{set: invoiceFields()},
		generator:  &fakeReplyGenerator{body: "ok"},
	})

	o := pipeline.NewOrchestrator(rt)
	items := o.ProcessBatch(context.Background(), []string{"good-1", "missing", "good-2"})

	if len(items) != 3 {
		t.Fatalf("items = %d, want 3", len(items))
	}
	if items[0].Error != "" || items[0].Run == nil {
		t.Errorf("item 0 = %+v, want successful run", items[0])
	}
	if items[1].Error == "" || items[1].Run != nil {
		t.Errorf("item 1 = %+v, want load failure", items[1])
	}
	if !strings.Contains(items[1].Error, "missing") {
		t.Errorf("item 1 error = %q, should name the email", items[1].Error)
	}
	if items[2].Error != "" || items[2].Run == nil {
		t.Errorf("item 2 = %+v, want successful run", items[2])
	}
}

func TestSyncWithoutMailbox(t *testing.T) {
	rt, _ := testRuntimeWith(runtimeOptions{
		emails:     newFakeEmails(),
		ledger:     newFakeLedger(),
		classifier: &fakeClassifier{},
		extractor:  &fakeExtractor{},
		generator:  &fakeReplyGenerator{},
	})

	o := pipeline.NewOrchestrator(rt)
	items, err := o.Sync(context.Background(), 10)
	if err != nil {
		t.Fatalf("Sync error: %v", err)
	}
	if items != nil {
		t.Errorf("items = %v, want nil without a mailbox", items)
	}
}
