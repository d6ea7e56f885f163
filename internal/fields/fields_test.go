package fields_test

import (
	"slices"
	"testing"

	"github.com/harishmarimuthu13022003/finance-agent/internal/fields"
	"github.com/harishmarimuthu13022003/finance-agent/internal/intents"
)

func TestSetGet(t *testing.T) {
	set := fields.Set{
		fields.FieldAmount: {Value: "1500", Confidence: 0.9},
	}

	if v, ok := set.Get(fields.FieldAmount); !ok || v != "1500" {
		t.Errorf("Get(amount) = (%q, %v), want (1500, true)", v, ok)
	}
	if _, ok := set.Get(fields.FieldVendor); ok {
		t.Error("Get(vendor) should report absent")
	}
}

func TestSetMissing(t *testing.T) {
	set := fields.Set{
		fields.FieldAmount: {Value: "1500", Confidence: 0.9},
	}

	missing := set.Missing([]string{fields.FieldAmount, fields.FieldVendor, fields.FieldCurrency})
	want := []string{fields.FieldVendor, fields.FieldCurrency}
	if !slices.Equal(missing, want) {
		t.Errorf("Missing = %v, want %v", missing, want)
	}

	if got := set.Missing([]string{fields.FieldAmount}); got != nil {
		t.Errorf("Missing = %v, want nil", got)
	}
}

func TestApplyThreshold(t *testing.T) {
	set := fields.Set{
		fields.FieldAmount:   {Value: "1500", Confidence: 0.95},
		fields.FieldVendor:   {Value: "ABC Corp", Confidence: 0.4},
		fields.FieldCurrency: {Value: "USD", Confidence: 0.6},
	}

	got := set.ApplyThreshold(0.6)

	if _, ok := got[fields.FieldAmount]; !ok {
		t.Error("amount above threshold should survive")
	}
	if _, ok := got[fields.FieldCurrency]; !ok {
		t.Error("currency at threshold should survive")
	}
	if _, ok := got[fields.FieldVendor]; ok {
		t.Error("vendor below threshold should be removed")
	}
}

func TestApplyThresholdClampsConfidence(t *testing.T) {
	set := fields.Set{
		fields.FieldAmount: {Value: "10", Confidence: 1.7},
		fields.FieldVendor: {Value: "x", Confidence: -0.3},
	}

	got := set.ApplyThreshold(0.5)

	if f, ok := got[fields.FieldAmount]; !ok || f.Confidence != 1 {
		t.Errorf("amount = %+v, want present with confidence 1", f)
	}
	if _, ok := got[fields.FieldVendor]; ok {
		t.Error("negative confidence should clamp to 0 and be removed")
	}
}

func TestSchema(t *testing.T) {
	tests := []struct {
		intent intents.Intent
		want   []string
	}{
		{intents.IntentInvoice, []string{"amount", "currency", "vendor", "invoice_id", "due_date"}},
		{intents.IntentPaymentConfirmation, []string{"amount", "currency", "reference_id", "payer"}},
		{intents.IntentPaymentRequest, []string{"amount", "currency", "vendor"}},
		{intents.IntentBankAlert, []string{"amount", "currency"}},
		{intents.IntentExpenseReport, []string{"amount", "currency", "vendor", "category"}},
		{intents.IntentQuery, nil},
		{intents.IntentOther, nil},
		{intents.IntentUnknown, nil},
	}

	for _, tt := range tests {
		t.Run(string(tt.intent), func(t *testing.T) {
			if got := fields.Schema(tt.intent); !slices.Equal(got, tt.want) {
				t.Errorf("Schema(%s) = %v, want %v", tt.intent, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	set := fields.Set{
		fields.FieldAmount:  {Value: "$1,500.00", Confidence: 0.9},
		fields.FieldDueDate: {Value: "March 15, 2026", Confidence: 0.8},
		fields.FieldVendor:  {Value: "  ABC Corp ", Confidence: 0.85},
	}

	got, dropped := fields.Normalize(set)

	if len(dropped) != 0 {
		t.Fatalf("dropped = %v, want none", dropped)
	}
	if v, _ := got.Get(fields.FieldAmount); v != "1500" {
		t.Errorf("amount = %q, want 1500", v)
	}
	if v, _ := got.Get(fields.FieldDueDate); v != "2026-03-15" {
		t.Errorf("due_date = %q, want 2026-03-15", v)
	}
	if v, _ := got.Get(fields.FieldVendor); v != "  ABC Corp " {
		t.Errorf("vendor = %q, want passthrough", v)
	}
}

func TestNormalizeDropsMalformed(t *testing.T) {
	set := fields.Set{
		fields.FieldAmount:  {Value: "about fifteen hundred", Confidence: 0.9},
		fields.FieldDueDate: {Value: "soon", Confidence: 0.8},
		fields.FieldVendor:  {Value: "ABC Corp", Confidence: 0.85},
	}

	got, dropped := fields.Normalize(set)

	if len(got) != 1 {
		t.Errorf("surviving fields = %d, want 1", len(got))
	}
	if len(dropped) != 2 {
		t.Errorf("dropped = %v, want amount and due_date", dropped)
	}
	if _, ok := got.Get(fields.FieldVendor); !ok {
		t.Error("vendor should survive")
	}
}

func TestSweep(t *testing.T) {
	t.Run("amount and currency from symbol", func(t *testing.T) {
		set := fields.Sweep("Please remit $1,500.00 by Friday.")

		amount, ok := set.Get(fields.FieldAmount)
		if !ok || amount != "1500" {
			t.Errorf("amount = (%q, %v), want (1500, true)", amount, ok)
		}
		currency, ok := set.Get(fields.FieldCurrency)
		if !ok || currency != "USD" {
			t.Errorf("currency = (%q, %v), want (USD, true)", currency, ok)
		}
	})

	t.Run("iso code", func(t *testing.T) {
		set := fields.Sweep("Outstanding balance of INR 25,000 on your account")
		if v, _ := set.Get(fields.FieldAmount); v != "25000" {
			t.Errorf("amount = %q, want 25000", v)
		}
		if v, _ := set.Get(fields.FieldCurrency); v != "INR" {
			t.Errorf("currency = %q, want INR", v)
		}
	})

	t.Run("first token wins", func(t *testing.T) {
		set := fields.Sweep("invoice for $100.00, late fee $5.00")
		if v, _ := set.Get(fields.FieldAmount); v != "100" {
			t.Errorf("amount = %q, want 100", v)
		}
	})

	t.Run("no monetary token", func(t *testing.T) {
		set := fields.Sweep("just checking in about the meeting tomorrow")
		if len(set) != 0 {
			t.Errorf("set = %v, want empty", set)
		}
	})

	t.Run("swept fields carry sweep confidence", func(t *testing.T) {
		set := fields.Sweep("total €42.00")
		f := set[fields.FieldAmount]
		if f.Confidence != 0.6 {
			t.Errorf("confidence = %v, want 0.6", f.Confidence)
		}
		if f.SourceSpan == nil {
			t.Error("swept field should carry its source span")
		}
	})
}
