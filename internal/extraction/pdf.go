package extraction

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// extractPDF validates the document structure with pdfcpu, then pulls the
// plain text stream. A zero page count or a malformed cross-reference table
// surfaces here as an error, not a panic in the text reader.
func extractPDF(data []byte) (string, error) {
	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return "", err
	}
	if count == 0 {
		return "", fmt.Errorf("pdf contains no pages")
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}

	return buf.String(), nil
}
