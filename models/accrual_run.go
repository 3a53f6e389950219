package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccrualJob identifies which batch job produced a run record
type AccrualJob string

const (
	AccrualJobDaily    AccrualJob = "daily"
	AccrualJobMonthEnd AccrualJob = "month_end"
)

// AccrualResult is the outcome of a single batch invocation. It is returned
// to the caller and is not persisted by the accrual service itself.
type AccrualResult struct {
	Date                   time.Time       `json:"date"`
	TotalAccountsProcessed int             `json:"totalAccountsProcessed"`
	FailedAccounts         int             `json:"failedAccounts"`
	TotalInterestApplied   decimal.Decimal `json:"totalInterestApplied"`
	DurationMs             int64           `json:"durationMs"`
}

// AccrualRun is a persisted record of a completed batch run, written by the
// callers (scheduler, manual trigger endpoint) for audit purposes.
type AccrualRun struct {
	ID                   int64                  `db:"id"`
	RunDate              time.Time              `db:"run_date"`
	Job                  AccrualJob             `db:"job"`
	AccountsProcessed    int                    `db:"accounts_processed"`
	FailedAccounts       int                    `db:"failed_accounts"`
	TotalInterestApplied decimal.Decimal        `db:"total_interest_applied"`
	DurationMs           int64                  `db:"duration_ms"`
	ExecutionSummary     map[string]interface{} `db:"execution_summary"`
	CreatedAt            time.Time              `db:"created_at"`
}

// NewAccrualRun builds a run record from a batch result.
func NewAccrualRun(job AccrualJob, result *AccrualResult) *AccrualRun {
	return &AccrualRun{
		RunDate:              result.Date,
		Job:                  job,
		AccountsProcessed:    result.TotalAccountsProcessed,
		FailedAccounts:       result.FailedAccounts,
		TotalInterestApplied: result.TotalInterestApplied,
		DurationMs:           result.DurationMs,
		ExecutionSummary: map[string]interface{}{
			"succeeded": result.TotalAccountsProcessed - result.FailedAccounts,
			"failed":    result.FailedAccounts,
		},
	}
}
