package repository

import (
	"context"
	"fmt"
	"time"

	"accruald/database"
	"accruald/models"
	"accruald/service"

	"github.com/jackc/pgx/v5"
)

// LoanAccountRepository implements the service.LoanAccountRepository interface
type LoanAccountRepository struct {
	q queryable
}

// NewLoanAccountRepository creates a new loan account repository on the pool
func NewLoanAccountRepository(db *database.DB) *LoanAccountRepository {
	return &LoanAccountRepository{q: db.Pool}
}

// newLoanAccountRepositoryWithTx creates a loan account repository bound to a transaction
func newLoanAccountRepositoryWithTx(tx queryable) *LoanAccountRepository {
	return &LoanAccountRepository{q: tx}
}

const loanAccountColumns = `
	id, account_number, account_holder_name, principal_amount, interest_rate,
	interest_amount, date_of_disbursal, last_interest_applied_at, version,
	created_at, updated_at`

func scanLoanAccount(row pgx.Row) (*models.LoanAccount, error) {
	var account models.LoanAccount
	err := row.Scan(
		&account.ID,
		&account.AccountNumber,
		&account.AccountHolderName,
		&account.PrincipalAmount,
		&account.InterestRate,
		&account.InterestAmount,
		&account.DateOfDisbursal,
		&account.LastInterestAppliedAt,
		&account.Version,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func collectLoanAccounts(rows pgx.Rows) ([]*models.LoanAccount, error) {
	defer rows.Close()

	var accounts []*models.LoanAccount
	for rows.Next() {
		account, err := scanLoanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate loan accounts: %w", err)
	}

	return accounts, nil
}

// GetByID retrieves an account by its ID
func (r *LoanAccountRepository) GetByID(ctx context.Context, id int64) (*models.LoanAccount, error) {
	query := `SELECT ` + loanAccountColumns + ` FROM loan_accounts WHERE id = $1`

	account, err := scanLoanAccount(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get loan account %d: %w", id, err)
	}

	return account, nil
}

// GetByIDForUpdate retrieves an account with an exclusive row lock. Only
// meaningful when the repository is bound to a transaction.
func (r *LoanAccountRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.LoanAccount, error) {
	query := `SELECT ` + loanAccountColumns + ` FROM loan_accounts WHERE id = $1 FOR UPDATE`

	account, err := scanLoanAccount(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock loan account %d: %w", id, err)
	}

	return account, nil
}

// Create persists a new account and fills in its generated fields
func (r *LoanAccountRepository) Create(ctx context.Context, account *models.LoanAccount) error {
	query := `
		INSERT INTO loan_accounts
			(account_number, account_holder_name, principal_amount, interest_rate,
			 interest_amount, date_of_disbursal)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, version, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		account.AccountNumber,
		account.AccountHolderName,
		account.PrincipalAmount,
		account.InterestRate,
		account.InterestAmount,
		account.DateOfDisbursal,
	).Scan(&account.ID, &account.Version, &account.CreatedAt, &account.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create loan account for %s: %w", account.AccountHolderName, err)
	}

	return nil
}

// List returns accounts ordered by creation time, newest first
func (r *LoanAccountRepository) List(ctx context.Context, offset, limit int) ([]*models.LoanAccount, error) {
	query := `
		SELECT ` + loanAccountColumns + `
		FROM loan_accounts
		ORDER BY created_at DESC, id DESC
		OFFSET $1 LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list loan accounts: %w", err)
	}

	return collectLoanAccounts(rows)
}

// CountEligibleForAccrual counts accounts that have never accrued or last
// accrued before cutoff
func (r *LoanAccountRepository) CountEligibleForAccrual(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM loan_accounts
		WHERE last_interest_applied_at IS NULL OR last_interest_applied_at < $1
	`

	var count int64
	if err := r.q.QueryRow(ctx, query, cutoff).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count accounts eligible for accrual: %w", err)
	}

	return count, nil
}

// PageEligibleForAccrual returns up to limit eligible accounts with ID above
// afterID, ordered by ID. Keyset pagination on the immutable primary key: a
// processed account dropping out of the eligible set cannot shift the rank of
// accounts behind it, so every eligible row is visited exactly once.
func (r *LoanAccountRepository) PageEligibleForAccrual(ctx context.Context, cutoff time.Time, afterID int64, limit int) ([]*models.LoanAccount, error) {
	query := `
		SELECT ` + loanAccountColumns + `
		FROM loan_accounts
		WHERE (last_interest_applied_at IS NULL OR last_interest_applied_at < $1)
		  AND id > $2
		ORDER BY id
		LIMIT $3
	`

	rows, err := r.q.Query(ctx, query, cutoff, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to page accounts eligible for accrual: %w", err)
	}

	return collectLoanAccounts(rows)
}

// PageEligibleForAccrualLocked is the row-locking variant of
// PageEligibleForAccrual. SKIP LOCKED makes overlapping runs pass over each
// other's claimed rows instead of blocking or double-processing them. Only
// meaningful when the repository is bound to a transaction.
func (r *LoanAccountRepository) PageEligibleForAccrualLocked(ctx context.Context, cutoff time.Time, afterID int64, limit int) ([]*models.LoanAccount, error) {
	query := `
		SELECT ` + loanAccountColumns + `
		FROM loan_accounts
		WHERE (last_interest_applied_at IS NULL OR last_interest_applied_at < $1)
		  AND id > $2
		ORDER BY id
		LIMIT $3
		FOR UPDATE SKIP LOCKED
	`

	rows, err := r.q.Query(ctx, query, cutoff, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to page accounts eligible for accrual with lock: %w", err)
	}

	return collectLoanAccounts(rows)
}

// PageAll returns up to limit accounts with ID above afterID, ordered by ID
func (r *LoanAccountRepository) PageAll(ctx context.Context, afterID int64, limit int) ([]*models.LoanAccount, error) {
	query := `
		SELECT ` + loanAccountColumns + `
		FROM loan_accounts
		WHERE id > $1
		ORDER BY id
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to page loan accounts: %w", err)
	}

	return collectLoanAccounts(rows)
}

// UpdateWithVersion writes the account's mutable fields conditioned on the
// in-memory version still matching the stored one, bumping the version in the
// same statement. Zero rows touched means another writer won the race.
func (r *LoanAccountRepository) UpdateWithVersion(ctx context.Context, account *models.LoanAccount) error {
	query := `
		UPDATE loan_accounts
		SET principal_amount = $1,
		    interest_amount = $2,
		    last_interest_applied_at = $3,
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $4 AND version = $5
	`

	result, err := r.q.Exec(ctx, query,
		account.PrincipalAmount,
		account.InterestAmount,
		account.LastInterestAppliedAt,
		account.ID,
		account.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update loan account %d: %w", account.ID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("stale write on loan account %d (version %d): %w",
			account.ID, account.Version, service.ErrVersionConflict)
	}

	account.Version++
	return nil
}
