package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanAccount represents an interest-bearing loan account
type LoanAccount struct {
	ID                int64           `db:"id"`
	AccountNumber     string          `db:"account_number"`
	AccountHolderName string          `db:"account_holder_name"`
	PrincipalAmount   decimal.Decimal `db:"principal_amount"`
	// Annual interest rate as a percentage (e.g. 5.5 for 5.5%)
	InterestRate decimal.Decimal `db:"interest_rate"`
	// Interest accrued daily but not yet compounded into principal
	InterestAmount        decimal.Decimal `db:"interest_amount"`
	DateOfDisbursal       time.Time       `db:"date_of_disbursal"`
	LastInterestAppliedAt *time.Time      `db:"last_interest_applied_at"`
	// Optimistic concurrency token, bumped on every successful write
	Version   int64     `db:"version"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// NeedsAccrualFor reports whether the account is eligible for daily accrual
// on forDate: never accrued, or last accrued on an earlier calendar date.
func (a *LoanAccount) NeedsAccrualFor(forDate time.Time, loc *time.Location) bool {
	if a.LastInterestAppliedAt == nil {
		return true
	}
	last := a.LastInterestAppliedAt.In(loc)
	lastDay := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, loc)
	target := time.Date(forDate.Year(), forDate.Month(), forDate.Day(), 0, 0, 0, 0, loc)
	return lastDay.Before(target)
}
