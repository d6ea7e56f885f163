package replies

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/harishmarimuthu13022003/finance-agent/internal/emails"
	"github.com/harishmarimuthu13022003/finance-agent/internal/fields"
	"github.com/harishmarimuthu13022003/finance-agent/internal/intents"
	"github.com/harishmarimuthu13022003/finance-agent/internal/knowledge"
	"github.com/harishmarimuthu13022003/finance-agent/internal/ledger"
)

// Request carries everything reply generation conditions on.
type Request struct {
	Email          emails.RawEmail
	Classification intents.Classification
	Fields         fields.Set
	Snippets       []knowledge.Snippet
}

// Generator produces reply text from a request via the language capability.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Composer builds reply drafts. The missing-field branch is deterministic
// and never calls the language capability; the contextual branch retrieves
// top-k snippets and generates, degrading to a fixed template on failure.
type Composer struct {
	store     knowledge.System
	generator Generator
	k         int
	logger    *slog.Logger
}

// NewComposer creates a Composer retrieving k snippets per reply.
func NewComposer(
	store knowledge.System,
	generator Generator,
	k int,
	logger *slog.Logger,
) *Composer {
	return &Composer{
		store:     store,
		generator: generator,
		k:         k,
		logger:    logger.With("system", "replies"),
	}
}

// Compose builds the reply draft for one email. The returned degraded flag
// reports that retrieval or generation failed and the fallback template was
// used; the draft itself is always usable.
func (c *Composer) Compose(
	ctx context.Context,
	email emails.RawEmail,
	classification intents.Classification,
	set fields.Set,
	mapped ledger.Result,
) (*Draft, bool) {
	if len(mapped.MissingFields) > 0 {
		return c.missingInfo(email, mapped.MissingFields), false
	}

	vendor, _ := set.Get(fields.FieldVendor)
	snippets, err := c.store.Query(ctx, classification.Intent, vendor, c.k)
	if err != nil {
		c.logger.Warn("snippet retrieval failed",
			"email_id", email.ID,
			"error", err,
		)
		return c.fallback(email, classification), true
	}

	req := Request{
		Email:          email,
		Classification: classification,
		Fields:         set,
		Snippets:       snippets,
	}

	body, err := c.generator.Generate(ctx, req)
	if err != nil {
		c.logger.Warn("reply generation failed",
			"email_id", email.ID,
			"error", err,
		)
		return c.fallback(email, classification), true
	}

	// generated text is logged verbatim for audit
	c.logger.Info("reply generated",
		"email_id", email.ID,
		"intent", classification.Intent,
		"snippets", len(snippets),
		"body", body,
	)

	return &Draft{
		EmailID:     email.ID,
		Subject:     replySubject(email.Subject),
		Body:        body,
		GeneratedAt: time.Now().UTC(),
	}, false
}

func (c *Composer) missingInfo(email emails.RawEmail, missing []string) *Draft {
	body := fmt.Sprintf(
		"Thank you for your email. To process your request, we need the following information: %s. Please provide this information at your earliest convenience.",
		strings.Join(missing, ", "),
	)

	c.logger.Info("missing information reply composed",
		"email_id", email.ID,
		"missing", missing,
	)

	return &Draft{
		EmailID:       email.ID,
		Subject:       replySubject(email.Subject),
		Body:          body,
		MissingFields: missing,
		GeneratedAt:   time.Now().UTC(),
	}
}

func (c *Composer) fallback(email emails.RawEmail, classification intents.Classification) *Draft {
	var body string
	switch classification.Intent {
	case intents.IntentInvoice:
		body = "Thank you for your invoice. We have received it and it is being processed according to our standard procedures."
	case intents.IntentPaymentConfirmation:
		body = "Thank you for your payment. We have received your payment and your account has been updated."
	default:
		body = "Thank you for your email. We have received it and will respond shortly."
	}

	return &Draft{
		EmailID:     email.ID,
		Subject:     replySubject(email.Subject),
		Body:        body,
		Fallback:    true,
		GeneratedAt: time.Now().UTC(),
	}
}

func replySubject(subject string) string {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "Re: your email"
	}
	if strings.HasPrefix(strings.ToLower(subject), "re:") {
		return subject
	}
	return "Re: " + subject
}
