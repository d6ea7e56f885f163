package formatting

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDate is returned when a value cannot be normalized to a calendar date.
var ErrInvalidDate = errors.New("invalid date")

// DateLayout is the unambiguous calendar representation used across the pipeline.
const DateLayout = "2006-01-02"

// dateLayouts are tried in order. Day-first layouts come after ISO and
// month-name layouts so unambiguous forms always win.
var dateLayouts = []string{
	DateLayout,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"02/01/2006",
	"02-01-2006",
}

// NormalizeDate parses a date string in any supported layout and returns it
// in DateLayout form. Returns ErrInvalidDate when no layout matches.
func NormalizeDate(s string) (string, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidDate)
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format(DateLayout), nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
}
