package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"accruald/database"
	"accruald/models"

	"github.com/jackc/pgx/v5"
)

// AccrualRunRepository implements the service.AccrualRunRepository interface
type AccrualRunRepository struct {
	q queryable
}

// NewAccrualRunRepository creates a new accrual run repository on the pool
func NewAccrualRunRepository(db *database.DB) *AccrualRunRepository {
	return &AccrualRunRepository{q: db.Pool}
}

// newAccrualRunRepositoryWithTx creates an accrual run repository bound to a transaction
func newAccrualRunRepositoryWithTx(tx queryable) *AccrualRunRepository {
	return &AccrualRunRepository{q: tx}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func (r *AccrualRunRepository) scanRun(row pgx.Row) (*models.AccrualRun, error) {
	var run models.AccrualRun
	var summaryJSON []byte

	err := row.Scan(
		&run.ID,
		&run.RunDate,
		&run.Job,
		&run.AccountsProcessed,
		&run.FailedAccounts,
		&run.TotalInterestApplied,
		&run.DurationMs,
		&summaryJSON,
		&run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(summaryJSON) > 0 {
		if err := json.Unmarshal(summaryJSON, &run.ExecutionSummary); err != nil {
			return nil, fmt.Errorf("failed to unmarshal execution summary: %w", err)
		}
	}

	return &run, nil
}

// GetByDate returns the run record for a specific date and job, nil if none
func (r *AccrualRunRepository) GetByDate(ctx context.Context, date time.Time, job models.AccrualJob) (*models.AccrualRun, error) {
	query := `
		SELECT id, run_date, job, accounts_processed, failed_accounts,
		       total_interest_applied, duration_ms, execution_summary, created_at
		FROM accrual_runs
		WHERE run_date = $1 AND job = $2
	`

	run, err := r.scanRun(r.q.QueryRow(ctx, query, startOfDay(date), job))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s accrual run for %s: %w",
			job, date.Format("2006-01-02"), err)
	}

	return run, nil
}

// Create persists a new run record
func (r *AccrualRunRepository) Create(ctx context.Context, run *models.AccrualRun) error {
	run.RunDate = startOfDay(run.RunDate)

	summaryJSON, err := json.Marshal(run.ExecutionSummary)
	if err != nil {
		return fmt.Errorf("failed to marshal execution summary: %w", err)
	}

	query := `
		INSERT INTO accrual_runs
			(run_date, job, accounts_processed, failed_accounts,
			 total_interest_applied, duration_ms, execution_summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err = r.q.QueryRow(ctx, query,
		run.RunDate,
		run.Job,
		run.AccountsProcessed,
		run.FailedAccounts,
		run.TotalInterestApplied,
		run.DurationMs,
		summaryJSON,
	).Scan(&run.ID, &run.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create %s accrual run for %s: %w",
			run.Job, run.RunDate.Format("2006-01-02"), err)
	}

	return nil
}

// GetLatest returns the most recent run for a job, nil if none
func (r *AccrualRunRepository) GetLatest(ctx context.Context, job models.AccrualJob) (*models.AccrualRun, error) {
	query := `
		SELECT id, run_date, job, accounts_processed, failed_accounts,
		       total_interest_applied, duration_ms, execution_summary, created_at
		FROM accrual_runs
		WHERE job = $1
		ORDER BY run_date DESC
		LIMIT 1
	`

	run, err := r.scanRun(r.q.QueryRow(ctx, query, job))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest %s accrual run: %w", job, err)
	}

	return run, nil
}
