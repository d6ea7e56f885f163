package replies_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/harishmarimuthu13022003/finance-agent/internal/emails"
	"github.com/harishmarimuthu13022003/finance-agent/internal/fields"
	"github.com/harishmarimuthu13022003/finance-agent/internal/intents"
	"github.com/harishmarimuthu13022003/finance-agent/internal/knowledge"
	"github.com/harishmarimuthu13022003/finance-agent/internal/ledger"
	"github.com/harishmarimuthu13022003/finance-agent/internal/replies"
	"github.com/harishmarimuthu13022003/finance-agent/pkg/pagination"
)

// fakeStore implements knowledge.System with a canned Query response.
type fakeStore struct {
	snippets []knowledge.Snippet
	err      error

	queriedIntent intents.Intent
	queriedVendor string
	queriedK      int
}

func (f *fakeStore) Handler() *knowledge.Handler { return nil }

func (f *fakeStore) List(context.Context, pagination.PageRequest, knowledge.Filters) (*pagination.PageResult[knowledge.Snippet], error) {
	return nil, errors.New("not implemented")
}

func (f *fakeStore) Find(context.Context, uuid.UUID) (*knowledge.Snippet, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeStore) Query(_ context.Context, intent intents.Intent, vendor string, k int) ([]knowledge.Snippet, error) {
	f.queriedIntent = intent
	f.queriedVendor = vendor
	f.queriedK = k
	return f.snippets, f.err
}

func (f *fakeStore) Create(context.Context, knowledge.CreateCommand) (*knowledge.Snippet, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeStore) Update(context.Context, uuid.UUID, knowledge.UpdateCommand) (*knowledge.Snippet, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeStore) Delete(context.Context, uuid.UUID) error { return errors.New("not implemented") }

func (f *fakeStore) Activate(context.Context, uuid.UUID) (*knowledge.Snippet, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeStore) Deactivate(context.Context, uuid.UUID) (*knowledge.Snippet, error) {
	return nil, errors.New("not implemented")
}

type fakeGenerator struct {
	body string
	err  error

	req *replies.Request
}

func (f *fakeGenerator) Generate(_ context.Context, req replies.Request) (string, error) {
	f.req = &req
	return f.body, f.err
}

func testComposer(store knowledge.System, gen replies.Generator) *replies.Composer {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return replies.NewComposer(store, gen, 3, logger)
}

func testEmail() emails.RawEmail {
	return emails.RawEmail{
		ID:      "email-1",
		Sender:  "vendor@example.com",
		Subject: "Invoice INV-100",
		Body:    "Please find attached invoice for $1,500.00",
	}
}

func TestComposeMissingFields(t *testing.T) {
	store := &fakeStore{}
	gen := &fakeGenerator{body: "should not be used"}
	c := testComposer(store, gen)

	mapped := ledger.Result{MissingFields: []string{"vendor", "amount"}}
	draft, degraded := c.Compose(context.Background(), testEmail(),
		intents.Classification{Intent: intents.IntentInvoice}, fields.Set{}, mapped)

	if degraded {
		t.Error("missing-field reply is deterministic, not degraded")
	}
	if gen.req != nil {
		t.Error("generator should not be called for missing fields")
	}
	if !strings.Contains(draft.Body, "vendor, amount") {
		t.Errorf("body = %q, should enumerate the missing fields", draft.Body)
	}
	if len(draft.MissingFields) != 2 {
		t.Errorf("draft missing fields = %v, want two entries", draft.MissingFields)
	}
	if draft.Subject != "Re: Invoice INV-100" {
		t.Errorf("subject = %q, want Re: prefix", draft.Subject)
	}
}

func TestComposeGenerated(t *testing.T) {
	store := &fakeStore{
		snippets: []knowledge.Snippet{
			{Title: "Invoice Processing Policy", Intent: intents.IntentInvoice, Content: "policy text"},
		},
	}
	gen := &fakeGenerator{body: "Thank you, your invoice INV-100 for $1,500.00 is in process."}
	c := testComposer(store, gen)

	set := fields.Set{
		fields.FieldVendor: {Value: "ABC Corp", Confidence: 0.9},
	}

	draft, degraded := c.Compose(context.Background(), testEmail(),
		intents.Classification{Intent: intents.IntentInvoice}, set, ledger.Result{})

	if degraded {
		t.Error("successful generation should not be degraded")
	}
	if draft.Fallback {
		t.Error("draft should not be marked fallback")
	}
	if draft.Body != gen.body {
		t.Errorf("body = %q, want generated text", draft.Body)
	}
	if store.queriedIntent != intents.IntentInvoice || store.queriedVendor != "ABC Corp" || store.queriedK != 3 {
		t.Errorf("query = (%s, %s, %d), want (Invoice, ABC Corp, 3)",
			store.queriedIntent, store.queriedVendor, store.queriedK)
	}
	if gen.req == nil || len(gen.req.Snippets) != 1 {
		t.Fatal("generator should receive the retrieved snippets")
	}
}

func TestComposeFallbackOnGenerationFailure(t *testing.T) {
	store := &fakeStore{}
	gen := &fakeGenerator{err: errors.New("capability unavailable")}
	c := testComposer(store, gen)

	draft, degraded := c.Compose(context.Background(), testEmail(),
		intents.Classification{Intent: intents.IntentInvoice}, fields.Set{}, ledger.Result{})

	if !degraded {
		t.Error("fallback reply should report degraded")
	}
	if !draft.Fallback {
		t.Error("draft should be marked fallback")
	}
	if !strings.Contains(draft.Body, "invoice") {
		t.Errorf("body = %q, want invoice fallback template", draft.Body)
	}
}

func TestComposeFallbackOnRetrievalFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("store down")}
	gen := &fakeGenerator{body: "never reached"}
	c := testComposer(store, gen)

	draft, degraded := c.Compose(context.Background(), testEmail(),
		intents.Classification{Intent: intents.IntentPaymentConfirmation}, fields.Set{}, ledger.Result{})

	if !degraded || !draft.Fallback {
		t.Error("retrieval failure should degrade to fallback")
	}
	if gen.req != nil {
		t.Error("generator should not run when retrieval fails")
	}
	if !strings.Contains(draft.Body, "payment") {
		t.Errorf("body = %q, want payment fallback template", draft.Body)
	}
}

func TestComposeFallbackGenericIntent(t *testing.T) {
	store := &fakeStore{}
	gen := &fakeGenerator{err: errors.New("down")}
	c := testComposer(store, gen)

	draft, _ := c.Compose(context.Background(), testEmail(),
		intents.Classification{Intent: intents.IntentQuery}, fields.Set{}, ledger.Result{})

	if !strings.Contains(draft.Body, "will respond shortly") {
		t.Errorf("body = %q, want generic fallback", draft.Body)
	}
}

func TestReplySubjects(t *testing.T) {
	store := &fakeStore{}
	gen := &fakeGenerator{body: "ok"}
	c := testComposer(store, gen)

	tests := []struct {
		name    string
		subject string
		want    string
	}{
		{"plain subject", "Invoice INV-100", "Re: Invoice INV-100"},
		{"existing re prefix", "Re: Invoice INV-100", "Re: Invoice INV-100"},
		{"lowercase re prefix", "re: invoice", "re: invoice"},
		{"empty subject", "", "Re: your email"},
		{"whitespace subject", "   ", "Re: your email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			email := testEmail()
			email.Subject = tt.subject
			draft, _ := c.Compose(context.Background(), email,
				intents.Classification{Intent: intents.IntentInvoice}, fields.Set{}, ledger.Result{})
			if draft.Subject != tt.want {
				t.Errorf("subject = %q, want %q", draft.Subject, tt.want)
			}
		})
	}
}
