package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/harishmarimuthu13022003/finance-agent/internal/fields"
	"github.com/harishmarimuthu13022003/finance-agent/internal/intents"
)

// Account identifies a general-ledger account by code and name.
type Account struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

var (
	AccountCash           = Account{Code: "1000", Name: "Cash"}
	AccountReceivable     = Account{Code: "1100", Name: "Accounts Receivable"}
	AccountPayable        = Account{Code: "2100", Name: "Accounts Payable"}
	AccountPayableCapital = Account{Code: "2110", Name: "Accounts Payable - Capital"}
	AccountRevenue        = Account{Code: "4000", Name: "Revenue"}
	AccountExpenses       = Account{Code: "5000", Name: "Operating Expenses"}
	AccountBankCharges    = Account{Code: "5200", Name: "Bank Charges"}
)

// Accounts returns the chart of accounts. Codes without a mapping rule are
// available for manual postings.
func Accounts() []Account {
	return []Account{
		AccountCash,
		AccountReceivable,
		AccountPayable,
		AccountPayableCapital,
		AccountRevenue,
		AccountExpenses,
		AccountBankCharges,
	}
}

// candidate pairs an account assignment with the predicate that selects it.
// A nil predicate always matches.
type candidate struct {
	matches func(amount decimal.Decimal, set fields.Set) bool
	account Account
	side    Side
}

// Rule defines how one intent maps to the ledger: which fields must be
// present and an ordered candidate list evaluated top to bottom.
type Rule struct {
	Required   []string
	candidates []candidate
}

// RuleTable holds the mapping rules keyed by intent. Intents absent from the
// table are unmapped and always produce a rejection.
type RuleTable map[intents.Intent]Rule

// Rules builds the rule table. Invoices at or above the capital threshold
// post to the capital payables account instead of general payables.
func Rules(capitalThreshold decimal.Decimal) RuleTable {
	atLeastCapital := func(amount decimal.Decimal, _ fields.Set) bool {
		return amount.GreaterThanOrEqual(capitalThreshold)
	}

	return RuleTable{
		intents.IntentInvoice: {
			Required: []string{fields.FieldAmount, fields.FieldVendor},
			candidates: []candidate{
				{matches: atLeastCapital, account: AccountPayableCapital, side: SideCredit},
				{account: AccountPayable, side: SideCredit},
			},
		},
		intents.IntentPaymentConfirmation: {
			Required: []string{fields.FieldAmount, fields.FieldReferenceID},
			candidates: []candidate{
				{account: AccountCash, side: SideCredit},
			},
		},
		intents.IntentPaymentRequest: {
			Required: []string{fields.FieldAmount, fields.FieldVendor},
			candidates: []candidate{
				{account: AccountPayable, side: SideCredit},
			},
		},
		intents.IntentBankAlert: {
			Required: []string{fields.FieldAmount},
			candidates: []candidate{
				{account: AccountBankCharges, side: SideDebit},
			},
		},
		intents.IntentExpenseReport: {
			Required: []string{fields.FieldAmount, fields.FieldVendor},
			candidates: []candidate{
				{account: AccountExpenses, side: SideDebit},
			},
		},
	}
}

// resolve walks the candidate list in order and returns the first match.
func (r Rule) resolve(amount decimal.Decimal, set fields.Set) (Account, Side) {
	for _, c := range r.candidates {
		if c.matches == nil || c.matches(amount, set) {
			return c.account, c.side
		}
	}
	// Tables built by Rules always end in an unconditional candidate.
	last := r.candidates[len(r.candidates)-1]
	return last.account, last.side
}
