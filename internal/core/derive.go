package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Rule selects how a reimbursed amount is derived from the charged amount
// and the out-of-pocket flag. Exactly one rule is active per deployment.
type Rule string

const (
	// OutOfPocketRule reimburses the full charge unless the record is
	// marked out of pocket, in which case the submitter bears it all.
	OutOfPocketRule Rule = "out-of-pocket"

	// TaxAdjustedRule applies a fixed tax-adjustment formula to every
	// record regardless of the out-of-pocket flag.
	TaxAdjustedRule Rule = "tax-adjusted"
)

var (
	taxDivisor    = decimal.RequireFromString("1.13")
	taxMultiplier = decimal.RequireFromString("1.0341")
)

// IsValid returns true if the rule is one of the known derivations.
func (r Rule) IsValid() bool {
	switch r {
	case OutOfPocketRule, TaxAdjustedRule:
		return true
	default:
		return false
	}
}

func (r Rule) String() string {
	return string(r)
}

// Derive computes the reimbursed amount for a charge under this rule.
// Results are rounded half-up to cents so stored and displayed values agree.
func (r Rule) Derive(charged decimal.Decimal, outOfPocket bool) decimal.Decimal {
	switch r {
	case TaxAdjustedRule:
		return charged.Div(taxDivisor).Mul(taxMultiplier).Round(2)
	default:
		if outOfPocket {
			return decimal.Zero
		}
		return charged
	}
}

// ParseRule validates a configured rule name, defaulting empty input to
// OutOfPocketRule.
func ParseRule(s string) (Rule, error) {
	if s == "" {
		return OutOfPocketRule, nil
	}
	r := Rule(s)
	if !r.IsValid() {
		return "", fmt.Errorf("unknown reimbursement rule %q", s)
	}
	return r, nil
}
