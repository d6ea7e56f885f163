// Package knowledge implements the retrieval store backing reply generation.
// It provides types, data access, and HTTP handlers for managing reusable
// context snippets keyed by intent and vendor.
package knowledge

import (
	"time"

	"github.com/google/uuid"

	"github.com/harishmarimuthu13022003/finance-agent/internal/intents"
)

// Snippet is a reusable piece of reply context: a policy excerpt, a prior
// reply template, or vendor-specific guidance. A nil vendor applies to all
// vendors for the intent.
type Snippet struct {
	ID        uuid.UUID      `json:"id"`
	Title     string         `json:"title"`
	Intent    intents.Intent `json:"intent"`
	Vendor    *string        `json:"vendor"`
	Content   string         `json:"content"`
	Active    bool           `json:"active"`
	CreatedAt time.Time      `json:"created_at"`
}

// CreateCommand carries the data needed to create a new snippet.
type CreateCommand struct {
	Title   string         `json:"title"`
	Intent  intents.Intent `json:"intent"`
	Vendor  *string        `json:"vendor"`
	Content string         `json:"content"`
}

// UpdateCommand carries the data needed to update an existing snippet.
type UpdateCommand struct {
	Title   string         `json:"title"`
	Intent  intents.Intent `json:"intent"`
	Vendor  *string        `json:"vendor"`
	Content string         `json:"content"`
}
