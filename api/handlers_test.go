package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"accruald/config"
	"accruald/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockAccountService is a mock implementation of service.AccountService
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) CreateAccount(ctx context.Context, holderName string, principal, rate decimal.Decimal, dateOfDisbursal time.Time) (*models.LoanAccount, error) {
	args := m.Called(ctx, holderName, principal, rate, dateOfDisbursal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LoanAccount), args.Error(1)
}

func (m *MockAccountService) GetAccount(ctx context.Context, id int64) (*models.LoanAccount, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LoanAccount), args.Error(1)
}

func (m *MockAccountService) ListAccounts(ctx context.Context, page, size int) ([]*models.LoanAccount, error) {
	args := m.Called(ctx, page, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LoanAccount), args.Error(1)
}

// MockAccrualService is a mock implementation of service.AccrualService
type MockAccrualService struct {
	mock.Mock
}

func (m *MockAccrualService) ApplyDailyAccrual(ctx context.Context, forDate time.Time) (*models.AccrualResult, error) {
	args := m.Called(ctx, forDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AccrualResult), args.Error(1)
}

func (m *MockAccrualService) ApplyMonthEndCompounding(ctx context.Context, forDate time.Time) (*models.AccrualResult, error) {
	args := m.Called(ctx, forDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AccrualResult), args.Error(1)
}

func (m *MockAccrualService) RecordRun(ctx context.Context, job models.AccrualJob, result *models.AccrualResult) error {
	args := m.Called(ctx, job, result)
	return args.Error(0)
}

func (m *MockAccrualService) LastRun(ctx context.Context, job models.AccrualJob) (*models.AccrualRun, error) {
	args := m.Called(ctx, job)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AccrualRun), args.Error(1)
}

func newTestHandler() (*Handler, *MockAccountService, *MockAccrualService) {
	accounts := new(MockAccountService)
	accrual := new(MockAccrualService)
	cfg := &config.Config{AccrualTimezone: "UTC"}
	return NewHandler(accounts, accrual, cfg), accounts, accrual
}

func sampleAccount(id int64) *models.LoanAccount {
	return &models.LoanAccount{
		ID:                id,
		AccountNumber:     "4f5b8a1e-0000-0000-0000-000000000000",
		AccountHolderName: "Jane Smith",
		PrincipalAmount:   decimal.RequireFromString("50000.00"),
		InterestRate:      decimal.RequireFromString("8.50"),
		InterestAmount:    decimal.Zero,
		DateOfDisbursal:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestHandler_CreateAccount(t *testing.T) {
	handler, accounts, _ := newTestHandler()

	accounts.On("CreateAccount", mock.Anything, "Jane Smith",
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.RequireFromString("50000.00")) }),
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.RequireFromString("8.50")) }),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	).Return(sampleAccount(1), nil)

	body := `{"accountHolderName":"Jane Smith","principalAmount":"50000.00","interestRate":"8.50","dateOfDisbursal":"2024-01-01"}`
	req := httptest.NewRequest("POST", "/api/accounts", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"accountHolderName":"Jane Smith"`)
	assert.Contains(t, rec.Body.String(), `"dateOfDisbursal":"2024-01-01"`)
	accounts.AssertExpectations(t)
}

func TestHandler_CreateAccount_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"accountHolderName":`},
		{"bad date format", `{"accountHolderName":"Jane","principalAmount":"1000","interestRate":"5","dateOfDisbursal":"01-01-2024"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, accounts, _ := newTestHandler()

			req := httptest.NewRequest("POST", "/api/accounts", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			handler.Router().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			accounts.AssertNotCalled(t, "CreateAccount",
				mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestHandler_CreateAccount_ValidationErrorFromService(t *testing.T) {
	handler, accounts, _ := newTestHandler()

	accounts.On("CreateAccount", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("principal amount must be greater than zero"))

	body := `{"accountHolderName":"Jane","principalAmount":"0","interestRate":"5","dateOfDisbursal":"2024-01-01"}`
	req := httptest.NewRequest("POST", "/api/accounts", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "principal amount must be greater than zero")
}

func TestHandler_GetAccount(t *testing.T) {
	handler, accounts, _ := newTestHandler()

	accounts.On("GetAccount", mock.Anything, int64(7)).Return(sampleAccount(7), nil)

	req := httptest.NewRequest("GET", "/api/accounts/7", nil)
	rec := httptest.NewRecorder()
	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":7`)
}

func TestHandler_GetAccount_NotFound(t *testing.T) {
	handler, accounts, _ := newTestHandler()

	accounts.On("GetAccount", mock.Anything, int64(99)).Return(nil, nil)

	req := httptest.NewRequest("GET", "/api/accounts/99", nil)
	rec := httptest.NewRecorder()
	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_ListAccounts(t *testing.T) {
	handler, accounts, _ := newTestHandler()

	accounts.On("ListAccounts", mock.Anything, 2, 10).
		Return([]*models.LoanAccount{sampleAccount(21), sampleAccount(22)}, nil)

	req := httptest.NewRequest("GET", "/api/accounts?page=2&size=10", nil)
	rec := httptest.NewRecorder()
	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":21`)
	assert.Contains(t, rec.Body.String(), `"id":22`)
	accounts.AssertExpectations(t)
}

func TestHandler_ApplyDailyInterest(t *testing.T) {
	handler, _, accrual := newTestHandler()

	forDate := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	result := &models.AccrualResult{
		Date:                   forDate,
		TotalAccountsProcessed: 5,
		FailedAccounts:         1,
		TotalInterestApplied:   decimal.RequireFromString("136.986300"),
		DurationMs:             12,
	}

	accrual.On("ApplyDailyAccrual", mock.Anything, forDate).Return(result, nil)
	accrual.On("RecordRun", mock.Anything, models.AccrualJobDaily, result).Return(nil)

	req := httptest.NewRequest("POST", "/api/interest/apply-daily?date=2024-01-15", nil)
	rec := httptest.NewRecorder()
	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"totalAccountsProcessed":5`)
	assert.Contains(t, rec.Body.String(), `"failedAccounts":1`)
	accrual.AssertExpectations(t)
}

func TestHandler_ApplyDailyInterest_BadDate(t *testing.T) {
	handler, _, accrual := newTestHandler()

	req := httptest.NewRequest("POST", "/api/interest/apply-daily?date=Jan-15", nil)
	rec := httptest.NewRecorder()
	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	accrual.AssertNotCalled(t, "ApplyDailyAccrual", mock.Anything, mock.Anything)
}

func TestHandler_ApplyDailyInterest_AccrualFailure(t *testing.T) {
	handler, _, accrual := newTestHandler()

	accrual.On("ApplyDailyAccrual", mock.Anything, mock.Anything).
		Return(nil, errors.New("database unavailable"))

	req := httptest.NewRequest("POST", "/api/interest/apply-daily?date=2024-01-15", nil)
	rec := httptest.NewRecorder()
	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	accrual.AssertNotCalled(t, "RecordRun", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_ApplyDailyInterest_RecordFailureStillOK(t *testing.T) {
	handler, _, accrual := newTestHandler()

	forDate := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	result := &models.AccrualResult{Date: forDate, TotalInterestApplied: decimal.Zero}

	accrual.On("ApplyDailyAccrual", mock.Anything, forDate).Return(result, nil)
	accrual.On("RecordRun", mock.Anything, models.AccrualJobDaily, result).
		Return(errors.New("duplicate run for date"))

	req := httptest.NewRequest("POST", "/api/interest/apply-daily?date=2024-01-15", nil)
	rec := httptest.NewRecorder()
	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_ApplyMonthEndInterest(t *testing.T) {
	handler, _, accrual := newTestHandler()

	forDate := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	result := &models.AccrualResult{
		Date:                   forDate,
		TotalAccountsProcessed: 3,
		TotalInterestApplied:   decimal.RequireFromString("821.917800"),
	}

	accrual.On("ApplyMonthEndCompounding", mock.Anything, forDate).Return(result, nil)
	accrual.On("RecordRun", mock.Anything, models.AccrualJobMonthEnd, result).Return(nil)

	req := httptest.NewRequest("POST", "/api/interest/apply-month-end?date=2024-01-31", nil)
	rec := httptest.NewRecorder()
	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	accrual.AssertExpectations(t)
}

func TestHandler_LatestRun(t *testing.T) {
	handler, _, accrual := newTestHandler()

	run := &models.AccrualRun{
		ID:                1,
		RunDate:           time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Job:               models.AccrualJobDaily,
		AccountsProcessed: 10,
	}
	accrual.On("LastRun", mock.Anything, models.AccrualJobDaily).Return(run, nil)

	req := httptest.NewRequest("GET", "/api/interest/runs/latest", nil)
	rec := httptest.NewRecorder()
	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_LatestRun_InvalidJob(t *testing.T) {
	handler, _, accrual := newTestHandler()

	req := httptest.NewRequest("GET", "/api/interest/runs/latest?job=hourly", nil)
	rec := httptest.NewRecorder()
	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	accrual.AssertNotCalled(t, "LastRun", mock.Anything, mock.Anything)
}

func TestHandler_LatestRun_NoRuns(t *testing.T) {
	handler, _, accrual := newTestHandler()

	accrual.On("LastRun", mock.Anything, models.AccrualJobMonthEnd).Return(nil, nil)

	req := httptest.NewRequest("GET", "/api/interest/runs/latest?job=month_end", nil)
	rec := httptest.NewRecorder()
	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
