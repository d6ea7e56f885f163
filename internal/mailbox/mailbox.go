// Package mailbox connects the pipeline to an email provider: fetching new
// messages for processing and delivering composed replies.
package mailbox

import (
	"context"
	"errors"

	"github.com/harishmarimuthu13022003/finance-agent/internal/emails"
	"github.com/harishmarimuthu13022003/finance-agent/internal/replies"
)

var (
	ErrNotAuthorized = errors.New("mailbox credentials missing or expired")
	ErrMessageGone   = errors.New("mailbox message no longer exists")
)

// Mailbox abstracts the email provider.
type Mailbox interface {
	// FetchNew returns up to limit unprocessed messages.
	FetchNew(ctx context.Context, limit int64) ([]emails.RawEmail, error)

	// SendReply delivers a draft as a threaded reply to the original message.
	SendReply(ctx context.Context, emailID string, draft replies.Draft) error
}
