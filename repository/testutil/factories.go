package testutil

import (
	"time"

	"accruald/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateTestLoanAccount creates a loan account with sensible defaults
func CreateTestLoanAccount(holderName string) *models.LoanAccount {
	return &models.LoanAccount{
		AccountNumber:     uuid.NewString(),
		AccountHolderName: holderName,
		PrincipalAmount:   decimal.RequireFromString("100000.00"),
		InterestRate:      decimal.RequireFromString("10.00"),
		InterestAmount:    decimal.Zero,
		DateOfDisbursal:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// CreateTestLoanAccountWithTerms creates a loan account with specific terms
func CreateTestLoanAccountWithTerms(holderName, principal, rate string) *models.LoanAccount {
	account := CreateTestLoanAccount(holderName)
	account.PrincipalAmount = decimal.RequireFromString(principal)
	account.InterestRate = decimal.RequireFromString(rate)
	return account
}

// CreateTestAccrualResult creates a batch result with specific counts
func CreateTestAccrualResult(date time.Time, processed, failed int, totalInterest string) *models.AccrualResult {
	return &models.AccrualResult{
		Date:                   date,
		TotalAccountsProcessed: processed,
		FailedAccounts:         failed,
		TotalInterestApplied:   decimal.RequireFromString(totalInterest),
		DurationMs:             5,
	}
}
