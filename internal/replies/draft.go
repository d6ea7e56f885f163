// Package replies composes outbound reply drafts from classified emails,
// extracted fields, and the ledger mapping outcome.
package replies

import "time"

// Draft is a composed reply awaiting delivery. Fallback marks drafts built
// from the fixed template after a retrieval or generation failure.
type Draft struct {
	EmailID       string    `json:"email_id"`
	Subject       string    `json:"subject"`
	Body          string    `json:"body"`
	MissingFields []string  `json:"missing_fields,omitempty"`
	Fallback      bool      `json:"fallback"`
	GeneratedAt   time.Time `json:"generated_at"`
}
