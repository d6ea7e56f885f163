// Package intents defines the closed intent enumeration for financial emails
// and the classification result attached to a parsed email.
package intents

import (
	"encoding/json"
	"slices"
)

// Intent is a discrete category assigned to an email. The set is closed;
// anything outside it resolves to IntentOther at parse time, and a failed
// classification reports IntentUnknown rather than guessing.
type Intent string

// Valid intents.
const (
	IntentInvoice             Intent = "Invoice"
	IntentPaymentConfirmation Intent = "PaymentConfirmation"
	IntentPaymentRequest      Intent = "PaymentRequest"
	IntentBankAlert           Intent = "BankAlert"
	IntentExpenseReport       Intent = "ExpenseReport"
	IntentQuery               Intent = "Query"
	IntentOther               Intent = "Other"
	IntentUnknown             Intent = "Unknown"
)

var intents = []Intent{
	IntentInvoice,
	IntentPaymentConfirmation,
	IntentPaymentRequest,
	IntentBankAlert,
	IntentExpenseReport,
	IntentQuery,
	IntentOther,
	IntentUnknown,
}

// Intents returns the list of valid intents.
func Intents() []Intent {
	return intents
}

// ParseIntent maps a string to a known intent. Unrecognized labels resolve
// to IntentOther so the capability can never introduce an open-ended value.
func ParseIntent(s string) Intent {
	v := Intent(s)
	if slices.Contains(intents, v) {
		return v
	}
	return IntentOther
}

// UnmarshalJSON decodes a string and resolves it through ParseIntent.
func (i *Intent) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*i = ParseIntent(raw)
	return nil
}
