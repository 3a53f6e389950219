package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"accruald/config"
	"accruald/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

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

func testConfig() *config.Config {
	return &config.Config{
		AccrualTimezone:  "UTC",
		DailyAccrualCron: "59 23 * * *",
	}
}

func TestNew(t *testing.T) {
	t.Run("valid cron spec", func(t *testing.T) {
		s, err := New(new(MockAccrualService), testConfig())
		require.NoError(t, err)
		assert.NotNil(t, s)
	})

	t.Run("invalid cron spec", func(t *testing.T) {
		cfg := testConfig()
		cfg.DailyAccrualCron = "not a cron spec"
		s, err := New(new(MockAccrualService), cfg)
		assert.Error(t, err)
		assert.Nil(t, s)
	})
}

func TestIsLastDayOfMonth(t *testing.T) {
	tests := []struct {
		name string
		date time.Time
		want bool
	}{
		{"mid-month", time.Date(2024, 1, 15, 23, 59, 0, 0, time.UTC), false},
		{"january 31st", time.Date(2024, 1, 31, 23, 59, 0, 0, time.UTC), true},
		{"start of 30-day month", time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), false},
		{"april 30th", time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC), true},
		{"february 28th leap year", time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC), false},
		{"february 29th leap year", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), true},
		{"february 28th non-leap year", time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC), true},
		{"december 31st", time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isLastDayOfMonth(tt.date))
		})
	}
}

func TestScheduler_RunDailyAccrual(t *testing.T) {
	accrual := new(MockAccrualService)
	s, err := New(accrual, testConfig())
	require.NoError(t, err)

	result := &models.AccrualResult{TotalAccountsProcessed: 3, TotalInterestApplied: decimal.Zero}
	accrual.On("ApplyDailyAccrual", mock.Anything, mock.Anything).Return(result, nil)
	accrual.On("RecordRun", mock.Anything, models.AccrualJobDaily, result).Return(nil)

	s.runDailyAccrual()
	accrual.AssertExpectations(t)
}

func TestScheduler_RunDailyAccrual_FailureNotRecorded(t *testing.T) {
	accrual := new(MockAccrualService)
	s, err := New(accrual, testConfig())
	require.NoError(t, err)

	accrual.On("ApplyDailyAccrual", mock.Anything, mock.Anything).
		Return(nil, errors.New("database unavailable"))

	s.runDailyAccrual()
	accrual.AssertNotCalled(t, "RecordRun", mock.Anything, mock.Anything, mock.Anything)
}

func TestScheduler_RunMonthEndCompounding_GatedOnCalendar(t *testing.T) {
	accrual := new(MockAccrualService)
	s, err := New(accrual, testConfig())
	require.NoError(t, err)

	s.runMonthEndCompounding()

	// Unless today happens to be the last day of the month, nothing fires.
	// On the last day, both calls must have happened.
	if isLastDayOfMonth(time.Now().UTC()) {
		t.Skip("last day of month, gate is open")
	}
	accrual.AssertNotCalled(t, "ApplyMonthEndCompounding", mock.Anything, mock.Anything)
}
