package fields

import (
	"regexp"

	"github.com/harishmarimuthu13022003/finance-agent/pkg/formatting"
)

// sweepConfidence is assigned to fields recovered by the textual sweep. It
// sits above the default minimum but below typical capability confidence, so
// a stricter threshold still drops swept values.
const sweepConfidence = 0.6

var amountPattern = regexp.MustCompile(
	`(?:[$₹€£¥]|USD|INR|EUR|GBP|JPY)\s*([\d,]+(?:\.\d{1,2})?)`)

// Sweep scans raw text for an amount and currency as a secondary source when
// the extraction capability omits them. The first well-formed monetary token
// wins; no match contributes nothing.
func Sweep(text string) Set {
	set := Set{}

	match := amountPattern.FindString(text)
	if match == "" {
		return set
	}

	amount, err := formatting.ParseAmount(match)
	if err != nil {
		return set
	}

	span := match
	set[FieldAmount] = Field{
		Value:      amount.String(),
		Confidence: sweepConfidence,
		SourceSpan: &span,
	}

	if currency, ok := formatting.DetectCurrency(match); ok {
		set[FieldCurrency] = Field{
			Value:      currency,
			Confidence: sweepConfidence,
			SourceSpan: &span,
		}
	}

	return set
}
