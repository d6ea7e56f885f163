package emails

import (
	"encoding/json"
	"net/url"

	"github.com/harishmarimuthu13022003/finance-agent/pkg/query"
	"github.com/harishmarimuthu13022003/finance-agent/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "emails", "e").
	Project("id", "ID").
	Project("sender", "Sender").
	Project("subject", "Subject").
	Project("body", "Body").
	Project("received_at", "ReceivedAt").
	Project("attachments", "Attachments").
	Project("ingested_at", "IngestedAt")

var defaultSort = query.SortField{
	Field:      "ReceivedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for email queries.
// Nil fields are ignored. Sender uses case-insensitive contains matching.
type Filters struct {
	Sender *string `json:"sender,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.WhereContains("Sender", f.Sender)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters
	if s := values.Get("sender"); s != "" {
		f.Sender = &s
	}
	return f
}

func scanEmail(s repository.Scanner) (Email, error) {
	var (
		e    Email
		atts []byte
	)
	err := s.Scan(
		&e.ID,
		&e.Sender,
		&e.Subject,
		&e.Body,
		&e.ReceivedAt,
		&atts,
		&e.IngestedAt,
	)
	if err != nil {
		return e, err
	}
	if len(atts) > 0 {
		if err := json.Unmarshal(atts, &e.Attachments); err != nil {
			return e, err
		}
	}
	return e, nil
}
