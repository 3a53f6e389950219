package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"accruald/config"
	"accruald/events"
	"accruald/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// accrualService implements the AccrualService interface
type accrualService struct {
	accounts   LoanAccountRepository
	runs       AccrualRunRepository
	writer     AccrualWriter
	uowFactory UnitOfWorkFactory
	clock      Clock

	dayCountBasis int64
	batchSize     int
	workers       int
	location      *time.Location
}

// NewAccrualService creates a new accrual service
func NewAccrualService(accounts LoanAccountRepository, runs AccrualRunRepository, writer AccrualWriter, uowFactory UnitOfWorkFactory, clock Clock, cfg *config.Config) AccrualService {
	return &accrualService{
		accounts:      accounts,
		runs:          runs,
		writer:        writer,
		uowFactory:    uowFactory,
		clock:         clock,
		dayCountBasis: cfg.DayCountBasis,
		batchSize:     cfg.AccrualBatchSize,
		workers:       cfg.AccrualWorkers,
		location:      cfg.Location(),
	}
}

// batchTally aggregates per-account outcomes across a run. Counters are
// atomic and the decimal sum is mutex-guarded so pages may be processed by a
// worker pool.
type batchTally struct {
	succeeded atomic.Int64
	failed    atomic.Int64

	mu            sync.Mutex
	totalInterest decimal.Decimal
}

func newBatchTally() *batchTally {
	return &batchTally{totalInterest: decimal.Zero}
}

func (t *batchTally) recordSuccess(applied decimal.Decimal) {
	t.succeeded.Add(1)
	t.mu.Lock()
	t.totalInterest = t.totalInterest.Add(applied)
	t.mu.Unlock()
}

func (t *batchTally) result(date time.Time, started time.Time) *models.AccrualResult {
	t.mu.Lock()
	total := t.totalInterest
	t.mu.Unlock()

	return &models.AccrualResult{
		Date:                   date,
		TotalAccountsProcessed: int(t.succeeded.Load() + t.failed.Load()),
		FailedAccounts:         int(t.failed.Load()),
		TotalInterestApplied:   total,
		DurationMs:             time.Since(started).Milliseconds(),
	}
}

// startOfDay normalizes forDate to midnight in the accrual timezone. Any
// last_interest_applied_at strictly before this instant belongs to an earlier
// calendar date, which is exactly the daily eligibility rule.
func (s *accrualService) startOfDay(forDate time.Time) time.Time {
	d := forDate.In(s.location)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, s.location)
}

// ApplyDailyAccrual computes and applies one day of interest to every account
// eligible for forDate. A per-account failure is counted and skipped; only a
// failure to page the account set at all aborts the run. On context
// cancellation the partial result so far is returned with ctx.Err().
func (s *accrualService) ApplyDailyAccrual(ctx context.Context, forDate time.Time) (*models.AccrualResult, error) {
	started := time.Now()
	cutoff := s.startOfDay(forDate)

	log.WithField("date", cutoff.Format("2006-01-02")).Info("Starting daily interest accrual")

	// Diagnostic only; the paging loop terminates on an empty page, not on
	// this count.
	eligible, err := s.accounts.CountEligibleForAccrual(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to count eligible accounts: %w", err)
	}
	log.WithFields(log.Fields{
		"date":     cutoff.Format("2006-01-02"),
		"eligible": eligible,
	}).Info("Counted accounts eligible for accrual")

	tally := newBatchTally()

	afterID := int64(0)
	for {
		if err := ctx.Err(); err != nil {
			return tally.result(cutoff, started), err
		}

		page, err := s.accounts.PageEligibleForAccrual(ctx, cutoff, afterID, s.batchSize)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch accrual page after ID %d: %w", afterID, err)
		}
		if len(page) == 0 {
			break
		}

		s.processAccounts(ctx, page, tally, s.accrueDaily)

		afterID = page[len(page)-1].ID
		if len(page) < s.batchSize {
			break
		}
	}

	result := tally.result(cutoff, started)
	log.WithFields(log.Fields{
		"date":          result.Date.Format("2006-01-02"),
		"processed":     result.TotalAccountsProcessed,
		"failed":        result.FailedAccounts,
		"totalInterest": result.TotalInterestApplied.String(),
		"durationMs":    result.DurationMs,
	}).Info("Completed daily interest accrual")

	return result, nil
}

// ApplyMonthEndCompounding transfers accrued interest into principal for the
// entire account population. Accounts with nothing accrued are counted but
// not written, which makes back-to-back invocations no-ops.
func (s *accrualService) ApplyMonthEndCompounding(ctx context.Context, forDate time.Time) (*models.AccrualResult, error) {
	started := time.Now()
	runDate := s.startOfDay(forDate)

	log.WithField("date", runDate.Format("2006-01-02")).Info("Starting month-end compounding")

	tally := newBatchTally()

	afterID := int64(0)
	for {
		if err := ctx.Err(); err != nil {
			return tally.result(runDate, started), err
		}

		page, err := s.accounts.PageAll(ctx, afterID, s.batchSize)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch compounding page after ID %d: %w", afterID, err)
		}
		if len(page) == 0 {
			break
		}

		s.processAccounts(ctx, page, tally, s.compound)

		afterID = page[len(page)-1].ID
		if len(page) < s.batchSize {
			break
		}
	}

	result := tally.result(runDate, started)
	log.WithFields(log.Fields{
		"date":          result.Date.Format("2006-01-02"),
		"processed":     result.TotalAccountsProcessed,
		"failed":        result.FailedAccounts,
		"totalInterest": result.TotalInterestApplied.String(),
		"durationMs":    result.DurationMs,
	}).Info("Completed month-end compounding")

	return result, nil
}

// processAccounts runs the per-account operation over one page, sequentially
// or on a bounded worker pool. Writes stay atomic per account either way, so
// the only shared state is the tally.
func (s *accrualService) processAccounts(ctx context.Context, accounts []*models.LoanAccount, tally *batchTally, op func(context.Context, *models.LoanAccount) (decimal.Decimal, error)) {
	if s.workers <= 1 {
		for _, account := range accounts {
			s.processOne(ctx, account, tally, op)
		}
		return
	}

	jobs := make(chan *models.LoanAccount)
	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for account := range jobs {
				s.processOne(ctx, account, tally, op)
			}
		}()
	}

	for _, account := range accounts {
		jobs <- account
	}
	close(jobs)
	wg.Wait()
}

// processOne applies op to a single account and folds the outcome into the
// tally. Failures never propagate: one bad account must not take down the
// batch or its siblings.
func (s *accrualService) processOne(ctx context.Context, account *models.LoanAccount, tally *batchTally, op func(context.Context, *models.LoanAccount) (decimal.Decimal, error)) {
	applied, err := op(ctx, account)
	if err != nil {
		tally.failed.Add(1)
		log.WithFields(log.Fields{
			"accountId": account.ID,
			"error":     err,
		}).Error("Failed to process account")
		return
	}
	tally.recordSuccess(applied)
}

// accrueDaily adds one day's interest to the account's accrued balance and
// stamps last_interest_applied_at, so the account drops out of the eligible
// set for this date.
func (s *accrualService) accrueDaily(ctx context.Context, account *models.LoanAccount) (decimal.Decimal, error) {
	var applied decimal.Decimal
	now := s.clock.Now().In(s.location)

	_, err := s.writer.Apply(ctx, account.ID, account.Version, func(a *models.LoanAccount) error {
		applied = ComputeDailyInterest(&a.PrincipalAmount, &a.InterestRate, s.dayCountBasis)
		a.InterestAmount = a.InterestAmount.Add(applied)
		a.LastInterestAppliedAt = &now
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}

	return applied, nil
}

// compound moves the account's accrued interest into principal. Accounts with
// nothing accrued are skipped without a write; the version condition on the
// write catches the race where interest lands between the page read and the
// transfer.
func (s *accrualService) compound(ctx context.Context, account *models.LoanAccount) (decimal.Decimal, error) {
	if account.InterestAmount.IsZero() {
		return decimal.Zero, nil
	}

	var transferred decimal.Decimal

	_, err := s.writer.Apply(ctx, account.ID, account.Version, func(a *models.LoanAccount) error {
		transferred = a.InterestAmount
		a.PrincipalAmount = a.PrincipalAmount.Add(transferred)
		a.InterestAmount = decimal.Zero
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}

	return transferred, nil
}

// RecordRun persists a run record and publishes a completion event after the
// record commits.
func (s *accrualService) RecordRun(ctx context.Context, job models.AccrualJob, result *models.AccrualResult) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	run := models.NewAccrualRun(job, result)
	if err := uow.AccrualRunRepository().Create(ctx, run); err != nil {
		return fmt.Errorf("failed to record %s run: %w", job, err)
	}

	uow.EventBus().Publish(events.AccrualRunCompletedEvent{
		Job:               string(job),
		RunDate:           result.Date,
		AccountsProcessed: result.TotalAccountsProcessed,
		FailedAccounts:    result.FailedAccounts,
		TotalInterest:     result.TotalInterestApplied,
		DurationMs:        result.DurationMs,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// LastRun returns the most recent persisted run for a job, nil if none
func (s *accrualService) LastRun(ctx context.Context, job models.AccrualJob) (*models.AccrualRun, error) {
	run, err := s.runs.GetLatest(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest %s run: %w", job, err)
	}
	return run, nil
}
