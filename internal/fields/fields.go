// Package fields defines the structured financial fields extracted from email
// content: the field set type, per-intent request schemas, normalization, and
// the confidence threshold that separates trusted values from noise.
package fields

import (
	"context"

	"github.com/harishmarimuthu13022003/finance-agent/internal/intents"
)

// Canonical field names used across extraction, mapping, and replies.
const (
	FieldAmount      = "amount"
	FieldCurrency    = "currency"
	FieldVendor      = "vendor"
	FieldInvoiceID   = "invoice_id"
	FieldDueDate     = "due_date"
	FieldReferenceID = "reference_id"
	FieldPayer       = "payer"
	FieldCategory    = "category"
)

// Field is one extracted value with its confidence and optional source span.
// Confidence is always within [0,1]; a producer that cannot establish
// confidence reports 0.0.
type Field struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	SourceSpan *string `json:"source_span,omitempty"`
}

// Set maps field names to extracted fields. Fields that were not found are
// absent; they are never defaulted to fabricated values.
type Set map[string]Field

// Get returns the value for name and whether it is present.
func (s Set) Get(name string) (string, bool) {
	f, ok := s[name]
	if !ok {
		return "", false
	}
	return f.Value, true
}

// Missing returns the subset of names absent from the set, in input order.
func (s Set) Missing(names []string) []string {
	var missing []string
	for _, name := range names {
		if _, ok := s[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// ApplyThreshold returns a copy containing only fields whose confidence meets
// the minimum. Below-threshold fields are removed entirely so that downstream
// stages cannot distinguish "absent" from "extracted but untrusted".
// Out-of-range confidences are clamped to [0,1] before comparison.
func (s Set) ApplyThreshold(minimum float64) Set {
	out := make(Set, len(s))
	for name, f := range s {
		if f.Confidence < 0 {
			f.Confidence = 0
		}
		if f.Confidence > 1 {
			f.Confidence = 1
		}
		if f.Confidence >= minimum {
			out[name] = f
		}
	}
	return out
}

// Schema returns the field names requested from the extraction capability for
// the given intent. Unmapped intents request nothing.
func Schema(intent intents.Intent) []string {
	switch intent {
	case intents.IntentInvoice:
		return []string{FieldAmount, FieldCurrency, FieldVendor, FieldInvoiceID, FieldDueDate}
	case intents.IntentPaymentConfirmation:
		return []string{FieldAmount, FieldCurrency, FieldReferenceID, FieldPayer}
	case intents.IntentPaymentRequest:
		return []string{FieldAmount, FieldCurrency, FieldVendor}
	case intents.IntentBankAlert:
		return []string{FieldAmount, FieldCurrency}
	case intents.IntentExpenseReport:
		return []string{FieldAmount, FieldCurrency, FieldVendor, FieldCategory}
	default:
		return nil
	}
}

// Extractor pulls structured fields from text given a requested schema.
// Implementations wrap the LLM capability; tests substitute deterministic fakes.
type Extractor interface {
	Extract(ctx context.Context, text string, schema []string) (Set, error)
}
