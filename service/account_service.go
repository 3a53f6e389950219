package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"accruald/events"
	"accruald/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// accountService implements the AccountService interface
type accountService struct {
	accounts   LoanAccountRepository
	uowFactory UnitOfWorkFactory
}

// NewAccountService creates a new account service
func NewAccountService(accounts LoanAccountRepository, uowFactory UnitOfWorkFactory) AccountService {
	return &accountService{
		accounts:   accounts,
		uowFactory: uowFactory,
	}
}

// CreateAccount validates and persists a new loan account. New accounts start
// with zero accrued interest and version zero.
func (s *accountService) CreateAccount(ctx context.Context, holderName string, principal, rate decimal.Decimal, dateOfDisbursal time.Time) (*models.LoanAccount, error) {
	if strings.TrimSpace(holderName) == "" {
		return nil, fmt.Errorf("account holder name must not be blank")
	}
	if !principal.IsPositive() {
		return nil, fmt.Errorf("principal amount must be greater than zero")
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("interest rate must be between 0 and 100")
	}
	if dateOfDisbursal.IsZero() {
		return nil, fmt.Errorf("date of disbursal is required")
	}

	account := &models.LoanAccount{
		AccountNumber:     uuid.NewString(),
		AccountHolderName: strings.TrimSpace(holderName),
		PrincipalAmount:   principal,
		InterestRate:      rate,
		InterestAmount:    decimal.Zero,
		DateOfDisbursal:   dateOfDisbursal,
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	if err := uow.LoanAccountRepository().Create(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	uow.EventBus().Publish(events.AccountCreatedEvent{
		AccountID:     account.ID,
		AccountNumber: account.AccountNumber,
		HolderName:    account.AccountHolderName,
		Principal:     account.PrincipalAmount,
		InterestRate:  account.InterestRate,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return account, nil
}

// GetAccount retrieves an account by ID, nil if not found
func (s *accountService) GetAccount(ctx context.Context, id int64) (*models.LoanAccount, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get account %d: %w", id, err)
	}
	return account, nil
}

// ListAccounts returns a page of accounts, newest first
func (s *accountService) ListAccounts(ctx context.Context, page, size int) ([]*models.LoanAccount, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 || size > 100 {
		size = 20
	}

	accounts, err := s.accounts.List(ctx, page*size, size)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}
