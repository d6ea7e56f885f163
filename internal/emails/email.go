// Package emails implements the email domain for the finance agent.
// It provides types, ingestion, data access, and attachment archival for
// raw financial emails entering the processing pipeline.
package emails

import (
	"time"
)

// Attachment carries the raw payload of one email attachment.
type Attachment struct {
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

// RawEmail is an email exactly as received. Immutable once ingested; the
// ID must be unique and stable across re-submissions of the same message.
type RawEmail struct {
	ID          string       `json:"id"`
	Sender      string       `json:"sender"`
	Subject     string       `json:"subject"`
	Body        string       `json:"body"`
	ReceivedAt  time.Time    `json:"received_at"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Validate reports whether the email is well-formed enough to process.
// A missing id is a fatal input error: the run aborts before any stage.
func (e *RawEmail) Validate() error {
	if e.ID == "" {
		return ErrMissingID
	}
	return nil
}

// ParsedEmail is a RawEmail plus the text extracted from its attachments,
// keyed by attachment index. Extraction failures leave the entry empty.
type ParsedEmail struct {
	RawEmail
	AttachmentText map[int]string `json:"attachment_text,omitempty"`
}

// Text concatenates the body and all extracted attachment text in
// attachment order, producing the content handed to classification
// and field extraction.
func (p *ParsedEmail) Text() string {
	text := p.Body
	for i := range p.Attachments {
		if extracted, ok := p.AttachmentText[i]; ok && extracted != "" {
			text += "\n\n" + extracted
		}
	}
	return text
}

// StoredAttachment is attachment metadata persisted alongside an email;
// the payload itself lives in blob storage under StorageKey.
type StoredAttachment struct {
	Filename   string `json:"filename"`
	MimeType   string `json:"mime_type"`
	StorageKey string `json:"storage_key"`
	SizeBytes  int64  `json:"size_bytes"`
}

// Email is an ingested email record with archived attachment references.
type Email struct {
	ID          string             `json:"id"`
	Sender      string             `json:"sender"`
	Subject     string             `json:"subject"`
	Body        string             `json:"body"`
	ReceivedAt  time.Time          `json:"received_at"`
	Attachments []StoredAttachment `json:"attachments,omitempty"`
	IngestedAt  time.Time          `json:"ingested_at"`
}
