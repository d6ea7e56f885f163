package formatting

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when a value cannot be normalized to a decimal amount.
var ErrInvalidAmount = errors.New("invalid amount")

var amountCleaner = regexp.MustCompile(`[^\d.\-]`)

// currencySymbols maps common currency markers to ISO 4217 codes.
// Symbol entries are checked before code entries so "$1,500 USD" resolves once.
var currencySymbols = []struct {
	marker string
	code   string
}{
	{"$", "USD"},
	{"₹", "INR"},
	{"€", "EUR"},
	{"£", "GBP"},
	{"¥", "JPY"},
	{"USD", "USD"},
	{"INR", "INR"},
	{"EUR", "EUR"},
	{"GBP", "GBP"},
	{"JPY", "JPY"},
}

// ParseAmount normalizes a monetary string ("$1,500.00", "1.500,00" is not
// supported, "1500") to a decimal value. Currency markers and grouping commas
// are stripped; the currency itself is never inferred here.
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := amountCleaner.ReplaceAllString(strings.TrimSpace(s), "")
	if cleaned == "" || cleaned == "-" {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d, nil
}

// DetectCurrency scans text for a recognized currency symbol or ISO code.
// Returns the ISO 4217 code and true on a match.
func DetectCurrency(text string) (string, bool) {
	for _, c := range currencySymbols {
		if strings.Contains(text, c.marker) {
			return c.code, true
		}
	}
	return "", false
}
