package core

import "github.com/shopspring/decimal"

// Summary is the running budget position over a set of records.
type Summary struct {
	TotalBudget decimal.Decimal
	Spent       decimal.Decimal
	Remaining   decimal.Decimal
}

// Summarize computes the budget position. Spent is the sum of full charges
// for out-of-pocket records plus the unreimbursed portion of the rest; it is
// defined purely over the two stored amounts, whatever rule derived them.
func Summarize(records []Record, budgetTotal decimal.Decimal) Summary {
	spent := decimal.Zero
	for _, r := range records {
		if r.OutOfPocket {
			spent = spent.Add(r.Charged)
		} else {
			spent = spent.Add(r.Charged.Sub(r.Reimbursed))
		}
	}
	return Summary{
		TotalBudget: budgetTotal,
		Spent:       spent,
		Remaining:   budgetTotal.Sub(spent),
	}
}

// FilterByPocketFlag returns the records matching the out-of-pocket flag,
// preserving order. The two export views are flag=false (reimbursed) and
// flag=true (out-of-pocket).
func FilterByPocketFlag(records []Record, flag bool) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.OutOfPocket == flag {
			out = append(out, r)
		}
	}
	return out
}
