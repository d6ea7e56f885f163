package fields

import (
	"github.com/harishmarimuthu13022003/finance-agent/pkg/formatting"
)

// Normalize canonicalizes field values in place of their raw extracted forms:
// amounts become plain decimal strings (currency markers stripped, grouping
// removed), dates become the unambiguous 2006-01-02 form, and everything else
// (vendor, payer, reference ids) passes through unmodified. Fields whose value
// cannot be normalized are dropped rather than kept in a malformed state; the
// returned slice names them for logging.
func Normalize(s Set) (Set, []string) {
	out := make(Set, len(s))
	var dropped []string

	for name, f := range s {
		switch name {
		case FieldAmount:
			amount, err := formatting.ParseAmount(f.Value)
			if err != nil {
				dropped = append(dropped, name)
				continue
			}
			f.Value = amount.String()
		case FieldDueDate:
			date, err := formatting.NormalizeDate(f.Value)
			if err != nil {
				dropped = append(dropped, name)
				continue
			}
			f.Value = date
		}
		out[name] = f
	}

	return out, dropped
}
