package service

import (
	"context"
	"time"

	"accruald/events"
	"accruald/models"

	"github.com/stretchr/testify/mock"
)

// MockLoanAccountRepository is a mock implementation of LoanAccountRepository
type MockLoanAccountRepository struct {
	mock.Mock
}

func (m *MockLoanAccountRepository) GetByID(ctx context.Context, id int64) (*models.LoanAccount, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LoanAccount), args.Error(1)
}

func (m *MockLoanAccountRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.LoanAccount, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LoanAccount), args.Error(1)
}

func (m *MockLoanAccountRepository) Create(ctx context.Context, account *models.LoanAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockLoanAccountRepository) List(ctx context.Context, offset, limit int) ([]*models.LoanAccount, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LoanAccount), args.Error(1)
}

func (m *MockLoanAccountRepository) CountEligibleForAccrual(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLoanAccountRepository) PageEligibleForAccrual(ctx context.Context, cutoff time.Time, afterID int64, limit int) ([]*models.LoanAccount, error) {
	args := m.Called(ctx, cutoff, afterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LoanAccount), args.Error(1)
}

func (m *MockLoanAccountRepository) PageEligibleForAccrualLocked(ctx context.Context, cutoff time.Time, afterID int64, limit int) ([]*models.LoanAccount, error) {
	args := m.Called(ctx, cutoff, afterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LoanAccount), args.Error(1)
}

func (m *MockLoanAccountRepository) PageAll(ctx context.Context, afterID int64, limit int) ([]*models.LoanAccount, error) {
	args := m.Called(ctx, afterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LoanAccount), args.Error(1)
}

func (m *MockLoanAccountRepository) UpdateWithVersion(ctx context.Context, account *models.LoanAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

// MockAccrualRunRepository is a mock implementation of AccrualRunRepository
type MockAccrualRunRepository struct {
	mock.Mock
}

func (m *MockAccrualRunRepository) GetByDate(ctx context.Context, date time.Time, job models.AccrualJob) (*models.AccrualRun, error) {
	args := m.Called(ctx, date, job)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AccrualRun), args.Error(1)
}

func (m *MockAccrualRunRepository) Create(ctx context.Context, run *models.AccrualRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockAccrualRunRepository) GetLatest(ctx context.Context, job models.AccrualJob) (*models.AccrualRun, error) {
	args := m.Called(ctx, job)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AccrualRun), args.Error(1)
}

// MockAccrualWriter is a mock implementation of AccrualWriter
type MockAccrualWriter struct {
	mock.Mock
}

func (m *MockAccrualWriter) Apply(ctx context.Context, accountID int64, expectedVersion int64, mutate func(*models.LoanAccount) error) (*models.LoanAccount, error) {
	args := m.Called(ctx, accountID, expectedVersion, mutate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LoanAccount), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
	loanAccountRepo LoanAccountRepository
	accrualRunRepo  AccrualRunRepository
	eventPublisher  EventPublisher
}

// SetRepositories wires the repositories returned by the getters
func (m *MockUnitOfWork) SetRepositories(accounts LoanAccountRepository, runs AccrualRunRepository, publisher EventPublisher) {
	m.loanAccountRepo = accounts
	m.accrualRunRepo = runs
	m.eventPublisher = publisher
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) LoanAccountRepository() LoanAccountRepository {
	return m.loanAccountRepo
}

func (m *MockUnitOfWork) AccrualRunRepository() AccrualRunRepository {
	return m.accrualRunRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.eventPublisher
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
