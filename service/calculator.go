package service

import (
	"github.com/shopspring/decimal"
)

const (
	// moneyScale is the fixed scale of monetary results
	moneyScale = 6
	// rateScale is the scale used for the annual-rate fraction
	rateScale = moneyScale + 2
)

var (
	hundred = decimal.NewFromInt(100)
)

// ComputeDailyInterest converts a principal and an annual percentage rate
// into one day's simple interest on the given day-count basis (365 or 366).
//
// The arithmetic is fixed-point throughout: the rate fraction is rounded
// half-up to 8 decimal places, the daily interest to 6, so identical inputs
// always produce identical output. A nil principal or rate yields zero
// interest rather than an error; upstream data gaps surface as zero-interest
// days, not batch failures.
func ComputeDailyInterest(principal, annualRatePercent *decimal.Decimal, dayCountBasis int64) decimal.Decimal {
	if principal == nil || annualRatePercent == nil {
		return decimal.Zero
	}

	// DivRound rounds half away from zero, which is half-up for the
	// non-negative values the account invariants guarantee.
	rateFraction := annualRatePercent.DivRound(hundred, rateScale)
	annualInterest := principal.Mul(rateFraction)

	return annualInterest.DivRound(decimal.NewFromInt(dayCountBasis), moneyScale)
}
