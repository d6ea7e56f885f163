package knowledge

import (
	"net/url"

	"github.com/harishmarimuthu13022003/finance-agent/pkg/query"
	"github.com/harishmarimuthu13022003/finance-agent/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "knowledge_snippets", "k").
	Project("id", "ID").
	Project("title", "Title").
	Project("intent", "Intent").
	Project("vendor", "Vendor").
	Project("content", "Content").
	Project("active", "Active").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{
	Field: "CreatedAt",
}

// Filters contains optional filtering criteria for snippet queries.
// Nil fields are ignored.
type Filters struct {
	Intent *string `json:"intent,omitempty"`
	Vendor *string `json:"vendor,omitempty"`
	Active *bool   `json:"active,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Intent", f.Intent).
		WhereContains("Vendor", f.Vendor).
		WhereEquals("Active", f.Active)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters
	if s := values.Get("intent"); s != "" {
		f.Intent = &s
	}
	if s := values.Get("vendor"); s != "" {
		f.Vendor = &s
	}
	if s := values.Get("active"); s != "" {
		active := s == "true"
		f.Active = &active
	}
	return f
}

func scanSnippet(s repository.Scanner) (Snippet, error) {
	var k Snippet
	err := s.Scan(
		&k.ID,
		&k.Title,
		&k.Intent,
		&k.Vendor,
		&k.Content,
		&k.Active,
		&k.CreatedAt,
	)
	return k, err
}
