package runs

import (
	"net/url"

	"github.com/harishmarimuthu13022003/finance-agent/pkg/query"
	"github.com/harishmarimuthu13022003/finance-agent/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "pipeline_runs", "r").
	Project("id", "ID").
	Project("email_id", "EmailID").
	Project("state", "State").
	Project("reason", "Reason").
	Project("started_at", "StartedAt").
	Project("completed_at", "CompletedAt")

var defaultSort = query.SortField{
	Field:      "StartedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for run queries.
// Nil fields are ignored.
type Filters struct {
	EmailID *string `json:"email_id,omitempty"`
	State   *string `json:"state,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("EmailID", f.EmailID).
		WhereEquals("State", f.State)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters
	if s := values.Get("email_id"); s != "" {
		f.EmailID = &s
	}
	if s := values.Get("state"); s != "" {
		f.State = &s
	}
	return f
}

func scanRun(s repository.Scanner) (Run, error) {
	var r Run
	err := s.Scan(
		&r.ID,
		&r.EmailID,
		&r.State,
		&r.Reason,
		&r.StartedAt,
		&r.CompletedAt,
	)
	return r, err
}

func scanStage(s repository.Scanner) (StageResult, error) {
	var sr StageResult
	err := s.Scan(
		&sr.Stage,
		&sr.Status,
		&sr.Attempts,
		&sr.Output,
		&sr.ErrorDetail,
		&sr.Duration,
		&sr.RecordedAt,
	)
	return sr, err
}
