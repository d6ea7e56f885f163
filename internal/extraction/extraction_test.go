package extraction_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/harishmarimuthu13022003/finance-agent/internal/emails"
	"github.com/harishmarimuthu13022003/finance-agent/internal/extraction"
)

type fakeOCR struct {
	text string
	err  error

	mimeType string
}

func (f *fakeOCR) Recognize(_ context.Context, mimeType string, _ []byte) (string, error) {
	f.mimeType = mimeType
	return f.text, f.err
}

func testParser(ocr extraction.Engine) *extraction.Parser {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return extraction.NewParser(ocr, logger)
}

func TestExtractText(t *testing.T) {
	p := testParser(nil)

	att := emails.Attachment{
		Filename: "note.txt",
		MimeType: "text/plain",
		Data:     []byte("Invoice total $1,500.00"),
	}

	got, err := p.Extract(context.Background(), att)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if got != "Invoice total $1,500.00" {
		t.Errorf("Extract = %q, want passthrough", got)
	}
}

func TestExtractTextWithCharset(t *testing.T) {
	p := testParser(nil)

	att := emails.Attachment{
		Filename: "note.txt",
		MimeType: "text/plain; charset=utf-8",
		Data:     []byte("hello"),
	}

	got, err := p.Extract(context.Background(), att)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if got != "hello" {
		t.Errorf("Extract = %q, want hello", got)
	}
}

func TestExtractImageUsesOCR(t *testing.T) {
	ocr := &fakeOCR{text: "scanned receipt text"}
	p := testParser(ocr)

	att := emails.Attachment{
		Filename: "receipt.png",
		MimeType: "image/png",
		Data:     []byte{0x89, 0x50, 0x4e, 0x47},
	}

	got, err := p.Extract(context.Background(), att)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if got != "scanned receipt text" {
		t.Errorf("Extract = %q, want OCR output", got)
	}
	if ocr.mimeType != "image/png" {
		t.Errorf("OCR mime type = %q, want image/png", ocr.mimeType)
	}
}

func TestExtractImageWithoutOCR(t *testing.T) {
	p := testParser(nil)

	att := emails.Attachment{
		Filename: "receipt.png",
		MimeType: "image/png",
		Data:     []byte{0x89},
	}

	_, err := p.Extract(context.Background(), att)
	if !errors.Is(err, extraction.ErrUnsupportedFormat) {
		t.Errorf("error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestExtractOCRFailure(t *testing.T) {
	ocr := &fakeOCR{err: errors.New("vision capability down")}
	p := testParser(ocr)

	att := emails.Attachment{
		Filename: "receipt.jpg",
		MimeType: "image/jpeg",
		Data:     []byte{0xff},
	}

	_, err := p.Extract(context.Background(), att)
	if !errors.Is(err, extraction.ErrExtractionFailed) {
		t.Errorf("error = %v, want ErrExtractionFailed", err)
	}
}

func TestExtractUnsupportedFormat(t *testing.T) {
	p := testParser(nil)

	att := emails.Attachment{
		Filename: "archive.zip",
		MimeType: "application/zip",
		Data:     []byte{0x50, 0x4b},
	}

	_, err := p.Extract(context.Background(), att)
	if !errors.Is(err, extraction.ErrUnsupportedFormat) {
		t.Errorf("error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestExtractCorruptPDF(t *testing.T) {
	p := testParser(nil)

	att := emails.Attachment{
		Filename: "invoice.pdf",
		MimeType: "application/pdf",
		Data:     []byte("not really a pdf"),
	}

	_, err := p.Extract(context.Background(), att)
	if !errors.Is(err, extraction.ErrExtractionFailed) {
		t.Errorf("error = %v, want ErrExtractionFailed", err)
	}
}

func TestExtractSniffsMissingContentType(t *testing.T) {
	p := testParser(nil)

	att := emails.Attachment{
		Filename: "note",
		MimeType: "",
		Data:     []byte("plain words, nothing binary"),
	}

	got, err := p.Extract(context.Background(), att)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if got != "plain words, nothing binary" {
		t.Errorf("Extract = %q, want sniffed text passthrough", got)
	}
}

func TestParseCollectsFailuresWithoutAborting(t *testing.T) {
	p := testParser(nil)

	raw := emails.RawEmail{
		ID:      "email-1",
		Sender:  "vendor@example.com",
		Subject: "Invoice",
		Body:    "see attached",
		Attachments: []emails.Attachment{
			{Filename: "summary.txt", MimeType: "text/plain", Data: []byte("total $99")},
			{Filename: "broken.pdf", MimeType: "application/pdf", Data: []byte("garbage")},
		},
	}

	parsed, failures := p.Parse(context.Background(), raw)

	if len(failures) != 1 {
		t.Fatalf("failures = %d, want 1", len(failures))
	}
	if failures[0].Index != 1 || failures[0].Filename != "broken.pdf" {
		t.Errorf("failure = %+v, want index 1 broken.pdf", failures[0])
	}
	if parsed.AttachmentText[0] != "total $99" {
		t.Errorf("attachment 0 text = %q, want extracted", parsed.AttachmentText[0])
	}
	if parsed.AttachmentText[1] != "" {
		t.Errorf("attachment 1 text = %q, want empty slot", parsed.AttachmentText[1])
	}
}

func TestParsedEmailText(t *testing.T) {
	parsed := emails.ParsedEmail{
		RawEmail: emails.RawEmail{
			Body: "body text",
			Attachments: []emails.Attachment{
				{Filename: "a.txt"},
				{Filename: "b.txt"},
			},
		},
		AttachmentText: map[int]string{
			0: "first attachment",
			1: "",
		},
	}

	got := parsed.Text()
	want := "body text\n\nfirst attachment"
	if got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
}
