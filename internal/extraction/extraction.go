// Package extraction converts email attachments into plain text so that
// downstream classification and field extraction operate on a single
// textual view of each message.
package extraction

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/harishmarimuthu13022003/finance-agent/internal/emails"
)

// Engine performs optical character recognition on image payloads.
type Engine interface {
	Recognize(ctx context.Context, mimeType string, data []byte) (string, error)
}

// Failure records an attachment that could not be converted to text.
type Failure struct {
	Index    int    `json:"index"`
	Filename string `json:"filename"`
	Detail   string `json:"detail"`
}

// Parser extracts text from email attachments.
type Parser struct {
	ocr    Engine
	logger *slog.Logger
}

// NewParser creates a Parser backed by the given OCR engine.
func NewParser(ocr Engine, logger *slog.Logger) *Parser {
	return &Parser{
		ocr:    ocr,
		logger: logger.With("system", "extraction"),
	}
}

// Parse builds a ParsedEmail from a raw email. Attachments that cannot be
// read produce a Failure entry and an empty text slot rather than aborting
// the whole email.
func (p *Parser) Parse(ctx context.Context, raw emails.RawEmail) (*emails.ParsedEmail, []Failure) {
	parsed := &emails.ParsedEmail{
		RawEmail:       raw,
		AttachmentText: make(map[int]string, len(raw.Attachments)),
	}

	var failures []Failure
	for i, att := range raw.Attachments {
		text, err := p.Extract(ctx, att)
		if err != nil {
			p.logger.Warn("attachment extraction failed",
				"email_id", raw.ID,
				"filename", att.Filename,
				"error", err,
			)
			failures = append(failures, Failure{
				Index:    i,
				Filename: att.Filename,
				Detail:   err.Error(),
			})
			parsed.AttachmentText[i] = ""
			continue
		}
		parsed.AttachmentText[i] = text
	}

	return parsed, failures
}

// Extract converts a single attachment to plain text. The content type is
// resolved from the declared MIME type, falling back to content sniffing
// when the declaration is absent or generic.
func (p *Parser) Extract(ctx context.Context, att emails.Attachment) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	contentType := resolveContentType(att.MimeType, att.Data)
	switch {
	case contentType == "application/pdf":
		text, err := extractPDF(att.Data)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrExtractionFailed, att.Filename, err)
		}
		return text, nil
	case strings.HasPrefix(contentType, "image/"):
		if p.ocr == nil {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, contentType)
		}
		text, err := p.ocr.Recognize(ctx, contentType, att.Data)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrExtractionFailed, att.Filename, err)
		}
		return text, nil
	case strings.HasPrefix(contentType, "text/"):
		return string(att.Data), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, contentType)
	}
}

func resolveContentType(declared string, data []byte) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != "application/octet-stream" {
		if mt, _, found := strings.Cut(declared, ";"); found {
			return strings.TrimSpace(mt)
		}
		return declared
	}
	return http.DetectContentType(data)
}
