package service

import (
	"context"
	"fmt"

	"accruald/models"
)

// accrualWriter implements the AccrualWriter interface. Each Apply call is
// its own transaction: read, mutate, conditional write. Keeping the unit of
// work this small bounds lock duration and means a crash mid-batch leaves
// every previously written account intact.
type accrualWriter struct {
	uowFactory UnitOfWorkFactory
	// useRowLocks switches the read to SELECT ... FOR UPDATE. With the row
	// held exclusively the version check cannot lose a race; without it the
	// version condition on the write detects one.
	useRowLocks bool
}

// NewAccrualWriter creates a new accrual writer
func NewAccrualWriter(uowFactory UnitOfWorkFactory, useRowLocks bool) AccrualWriter {
	return &accrualWriter{
		uowFactory:  uowFactory,
		useRowLocks: useRowLocks,
	}
}

// Apply reads the current account state, applies mutate and writes the result
// back conditioned on expectedVersion still matching the stored version.
func (w *accrualWriter) Apply(ctx context.Context, accountID int64, expectedVersion int64, mutate func(*models.LoanAccount) error) (*models.LoanAccount, error) {
	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	var account *models.LoanAccount
	var err error
	if w.useRowLocks {
		account, err = uow.LoanAccountRepository().GetByIDForUpdate(ctx, accountID)
	} else {
		account, err = uow.LoanAccountRepository().GetByID(ctx, accountID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read account %d: %w", accountID, err)
	}
	if account == nil {
		return nil, fmt.Errorf("account %d: %w", accountID, ErrAccountNotFound)
	}

	if account.Version != expectedVersion {
		return nil, fmt.Errorf("account %d moved from version %d to %d: %w",
			accountID, expectedVersion, account.Version, ErrVersionConflict)
	}

	if err := mutate(account); err != nil {
		return nil, fmt.Errorf("failed to mutate account %d: %w", accountID, err)
	}

	if err := uow.LoanAccountRepository().UpdateWithVersion(ctx, account); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return account, nil
}
