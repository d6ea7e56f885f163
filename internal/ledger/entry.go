// Package ledger maps classified, extracted emails to general-ledger entries
// and maintains the idempotent ledger store.
package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harishmarimuthu13022003/finance-agent/internal/intents"
)

// Side indicates which side of the ledger an entry posts to.
type Side string

const (
	SideDebit  Side = "debit"
	SideCredit Side = "credit"
)

// Status represents the lifecycle state of a ledger entry.
type Status string

const (
	// StatusDraft entries await review. A re-run of the same email
	// supersedes a prior Draft.
	StatusDraft Status = "Draft"

	// StatusPosted entries are final. They are never superseded.
	StatusPosted Status = "Posted"

	// StatusRejected entries record why no account could be assigned.
	StatusRejected Status = "Rejected"
)

// Entry is a general-ledger entry produced by mapping an email. At most one
// entry exists per reference email id.
type Entry struct {
	ID               uuid.UUID       `json:"id"`
	AccountCode      string          `json:"account_code"`
	AccountName      string          `json:"account_name"`
	Side             Side            `json:"side"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	Vendor           string          `json:"vendor"`
	Intent           intents.Intent  `json:"intent"`
	ReferenceEmailID string          `json:"reference_email_id"`
	Status           Status          `json:"status"`
	Reason           string          `json:"reason,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// Rejected reports whether the entry carries a rejection instead of an
// account assignment.
func (e *Entry) Rejected() bool {
	return e.Status == StatusRejected
}

// Summary aggregates ledger state for the reporting surface.
type Summary struct {
	ByStatus   map[Status]int         `json:"by_status"`
	ByAccount  map[string]int         `json:"by_account"`
	ByCurrency map[string]TotalAmount `json:"by_currency"`
	ByIntent   map[intents.Intent]int `json:"by_intent"`
}

// TotalAmount is a per-currency count and sum over Draft and Posted entries.
type TotalAmount struct {
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}
