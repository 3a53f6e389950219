package service

import (
	"context"
	"time"

	"accruald/events"
	"accruald/models"

	"github.com/shopspring/decimal"
)

// LoanAccountRepository defines the interface for loan account data access
type LoanAccountRepository interface {
	// GetByID retrieves an account by its ID, nil if not found
	GetByID(ctx context.Context, id int64) (*models.LoanAccount, error)

	// GetByIDForUpdate retrieves an account with a row lock. Only meaningful
	// inside a transaction.
	GetByIDForUpdate(ctx context.Context, id int64) (*models.LoanAccount, error)

	// Create persists a new account and fills in its generated fields
	Create(ctx context.Context, account *models.LoanAccount) error

	// List returns accounts ordered by creation time, newest first
	List(ctx context.Context, offset, limit int) ([]*models.LoanAccount, error)

	// CountEligibleForAccrual counts accounts whose last accrual happened
	// before cutoff (or never)
	CountEligibleForAccrual(ctx context.Context, cutoff time.Time) (int64, error)

	// PageEligibleForAccrual returns up to limit eligible accounts with
	// ID > afterID, ordered by ID. Keyset pagination: the cursor is stable
	// under concurrent mutation of the eligibility predicate.
	PageEligibleForAccrual(ctx context.Context, cutoff time.Time, afterID int64, limit int) ([]*models.LoanAccount, error)

	// PageEligibleForAccrualLocked is the row-locking variant
	// (FOR UPDATE SKIP LOCKED). Only meaningful inside a transaction.
	PageEligibleForAccrualLocked(ctx context.Context, cutoff time.Time, afterID int64, limit int) ([]*models.LoanAccount, error)

	// PageAll returns up to limit accounts with ID > afterID, ordered by ID
	PageAll(ctx context.Context, afterID int64, limit int) ([]*models.LoanAccount, error)

	// UpdateWithVersion writes the account's mutable fields conditioned on
	// account.Version matching the stored version. On success the stored and
	// in-memory versions are incremented; on a stale version it returns
	// ErrVersionConflict.
	UpdateWithVersion(ctx context.Context, account *models.LoanAccount) error
}

// AccrualRunRepository defines the interface for persisted run records
type AccrualRunRepository interface {
	// GetByDate returns the run record for a date and job, nil if none
	GetByDate(ctx context.Context, date time.Time, job models.AccrualJob) (*models.AccrualRun, error)

	// Create persists a new run record
	Create(ctx context.Context, run *models.AccrualRun) error

	// GetLatest returns the most recent run for a job, nil if none
	GetLatest(ctx context.Context, job models.AccrualJob) (*models.AccrualRun, error)
}

// AccrualWriter applies a single account mutation as an atomic
// read-modify-write with optimistic conflict detection. It is the sole path
// through which account rows are mutated by the batch jobs.
type AccrualWriter interface {
	// Apply reads the current account state in its own transaction, applies
	// mutate and writes the result back conditioned on expectedVersion still
	// matching. Returns ErrVersionConflict if another writer got there first.
	Apply(ctx context.Context, accountID int64, expectedVersion int64, mutate func(*models.LoanAccount) error) (*models.LoanAccount, error)
}

// AccrualService runs the daily accrual and month-end compounding batches
type AccrualService interface {
	// ApplyDailyAccrual computes and applies one day of interest to every
	// account eligible for forDate. Per-account failures are reflected in the
	// result, not returned as errors; only a failure to page the account set
	// at all aborts the run.
	ApplyDailyAccrual(ctx context.Context, forDate time.Time) (*models.AccrualResult, error)

	// ApplyMonthEndCompounding transfers accrued interest into principal for
	// the entire account population. Idempotent when run back-to-back.
	ApplyMonthEndCompounding(ctx context.Context, forDate time.Time) (*models.AccrualResult, error)

	// RecordRun persists a run record and publishes a completion event
	RecordRun(ctx context.Context, job models.AccrualJob, result *models.AccrualResult) error

	// LastRun returns the most recent persisted run for a job, nil if none
	LastRun(ctx context.Context, job models.AccrualJob) (*models.AccrualRun, error)
}

// AccountService defines the interface for account management operations
type AccountService interface {
	// CreateAccount validates and persists a new loan account
	CreateAccount(ctx context.Context, holderName string, principal, rate decimal.Decimal, dateOfDisbursal time.Time) (*models.LoanAccount, error)

	// GetAccount retrieves an account by ID, nil if not found
	GetAccount(ctx context.Context, id int64) (*models.LoanAccount, error)

	// ListAccounts returns a page of accounts, newest first
	ListAccounts(ctx context.Context, page, size int) ([]*models.LoanAccount, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// Clock supplies the timestamps written to last_interest_applied_at. Batch
// runs inject a fixed implementation in tests for reproducibility.
type Clock interface {
	Now() time.Time
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	LoanAccountRepository() LoanAccountRepository
	AccrualRunRepository() AccrualRunRepository

	// EventBus returns the transactional event bus; events publish after commit
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
