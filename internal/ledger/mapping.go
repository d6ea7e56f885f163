package ledger

import (
	"net/url"

	"github.com/harishmarimuthu13022003/finance-agent/pkg/query"
	"github.com/harishmarimuthu13022003/finance-agent/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "ledger_entries", "l").
	Project("id", "ID").
	Project("account_code", "AccountCode").
	Project("account_name", "AccountName").
	Project("side", "Side").
	Project("amount", "Amount").
	Project("currency", "Currency").
	Project("vendor", "Vendor").
	Project("intent", "Intent").
	Project("reference_email_id", "ReferenceEmailID").
	Project("status", "Status").
	Project("reason", "Reason").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for ledger queries.
// Nil fields are ignored.
type Filters struct {
	Status      *string `json:"status,omitempty"`
	AccountCode *string `json:"account_code,omitempty"`
	Currency    *string `json:"currency,omitempty"`
	Vendor      *string `json:"vendor,omitempty"`
	Intent      *string `json:"intent,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Status", f.Status).
		WhereEquals("AccountCode", f.AccountCode).
		WhereEquals("Currency", f.Currency).
		WhereContains("Vendor", f.Vendor).
		WhereEquals("Intent", f.Intent)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters
	if s := values.Get("status"); s != "" {
		f.Status = &s
	}
	if s := values.Get("account_code"); s != "" {
		f.AccountCode = &s
	}
	if s := values.Get("currency"); s != "" {
		f.Currency = &s
	}
	if s := values.Get("vendor"); s != "" {
		f.Vendor = &s
	}
	if s := values.Get("intent"); s != "" {
		f.Intent = &s
	}
	return f
}

func scanEntry(s repository.Scanner) (Entry, error) {
	var e Entry
	err := s.Scan(
		&e.ID,
		&e.AccountCode,
		&e.AccountName,
		&e.Side,
		&e.Amount,
		&e.Currency,
		&e.Vendor,
		&e.Intent,
		&e.ReferenceEmailID,
		&e.Status,
		&e.Reason,
		&e.CreatedAt,
	)
	return e, err
}
