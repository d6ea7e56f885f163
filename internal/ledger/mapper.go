package ledger

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harishmarimuthu13022003/finance-agent/internal/fields"
	"github.com/harishmarimuthu13022003/finance-agent/internal/intents"
)

// Result carries the mapped entry plus the missing field names when the
// mapping was rejected for absent required fields. MissingFields drives the
// reply branch that asks the sender for the gaps.
type Result struct {
	Entry         *Entry   `json:"entry"`
	MissingFields []string `json:"missing_fields,omitempty"`
}

// Mapper converts a classification and extracted fields into exactly one
// ledger entry, Draft or Rejected. It never writes storage itself.
type Mapper struct {
	rules  RuleTable
	logger *slog.Logger
}

// NewMapper creates a Mapper over the given rule table.
func NewMapper(rules RuleTable, logger *slog.Logger) *Mapper {
	return &Mapper{
		rules:  rules,
		logger: logger.With("system", "ledger"),
	}
}

// Map applies the rule table to one email's classification and fields.
// Unknown or unmapped intents reject with "unmapped intent". Missing
// required fields reject with a reason listing the field names. Otherwise
// the entry is a Draft with values copied verbatim from the field set.
func (m *Mapper) Map(c intents.Classification, set fields.Set, referenceEmailID string) Result {
	rule, ok := m.rules[c.Intent]
	if !ok {
		m.logger.Info("no mapping rule for intent",
			"email_id", referenceEmailID,
			"intent", c.Intent,
		)
		return Result{Entry: rejected(c.Intent, referenceEmailID, "unmapped intent")}
	}

	missing := set.Missing(rule.Required)
	if len(missing) > 0 {
		reason := fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", "))
		m.logger.Info("mapping rejected",
			"email_id", referenceEmailID,
			"intent", c.Intent,
			"missing", missing,
		)
		return Result{
			Entry:         rejected(c.Intent, referenceEmailID, reason),
			MissingFields: missing,
		}
	}

	rawAmount, _ := set.Get(fields.FieldAmount)
	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		reason := fmt.Sprintf("invalid amount %q", rawAmount)
		return Result{
			Entry:         rejected(c.Intent, referenceEmailID, reason),
			MissingFields: []string{fields.FieldAmount},
		}
	}

	account, side := rule.resolve(amount, set)
	currency, _ := set.Get(fields.FieldCurrency)
	vendor, _ := set.Get(fields.FieldVendor)

	entry := &Entry{
		ID:               uuid.New(),
		AccountCode:      account.Code,
		AccountName:      account.Name,
		Side:             side,
		Amount:           amount,
		Currency:         currency,
		Vendor:           vendor,
		Intent:           c.Intent,
		ReferenceEmailID: referenceEmailID,
		Status:           StatusDraft,
		CreatedAt:        time.Now().UTC(),
	}

	m.logger.Info("mapped entry",
		"email_id", referenceEmailID,
		"intent", c.Intent,
		"account_code", account.Code,
		"side", side,
	)

	return Result{Entry: entry}
}

func rejected(intent intents.Intent, referenceEmailID, reason string) *Entry {
	return &Entry{
		ID:               uuid.New(),
		Intent:           intent,
		ReferenceEmailID: referenceEmailID,
		Status:           StatusRejected,
		Reason:           reason,
		CreatedAt:        time.Now().UTC(),
	}
}
