package scheduler

import (
	"context"
	"fmt"
	"time"

	"accruald/config"
	"accruald/models"
	"accruald/service"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Scheduler triggers the daily accrual and month-end compounding jobs. It
// only decides when to call the accrual service; the batch semantics live
// entirely in the service.
type Scheduler struct {
	accrual  service.AccrualService
	cron     *cron.Cron
	location *time.Location
}

// New creates a scheduler with both jobs registered. The month-end job shares
// the daily cron spec and gates itself on the calendar, since the standard
// cron syntax has no last-day-of-month field.
func New(accrual service.AccrualService, cfg *config.Config) (*Scheduler, error) {
	s := &Scheduler{
		accrual:  accrual,
		cron:     cron.New(cron.WithLocation(cfg.Location())),
		location: cfg.Location(),
	}

	if _, err := s.cron.AddFunc(cfg.DailyAccrualCron, s.runDailyAccrual); err != nil {
		return nil, fmt.Errorf("invalid daily accrual cron spec %q: %w", cfg.DailyAccrualCron, err)
	}
	if _, err := s.cron.AddFunc(cfg.DailyAccrualCron, s.runMonthEndCompounding); err != nil {
		return nil, fmt.Errorf("invalid month-end cron spec %q: %w", cfg.DailyAccrualCron, err)
	}

	return s, nil
}

// Start begins triggering jobs
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info("Accrual scheduler started")
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info("Accrual scheduler stopped")
}

func (s *Scheduler) runDailyAccrual() {
	today := time.Now().In(s.location)
	log.WithField("date", today.Format("2006-01-02")).Info("Starting scheduled daily interest accrual")

	result, err := s.accrual.ApplyDailyAccrual(context.Background(), today)
	if err != nil {
		log.WithError(err).Error("Scheduled daily interest accrual failed")
		return
	}

	if err := s.accrual.RecordRun(context.Background(), models.AccrualJobDaily, result); err != nil {
		log.WithError(err).Warn("Failed to record scheduled daily accrual run")
	}
}

func (s *Scheduler) runMonthEndCompounding() {
	today := time.Now().In(s.location)
	if !isLastDayOfMonth(today) {
		return
	}

	log.WithField("date", today.Format("2006-01-02")).Info("Starting scheduled month-end compounding")

	result, err := s.accrual.ApplyMonthEndCompounding(context.Background(), today)
	if err != nil {
		log.WithError(err).Error("Scheduled month-end compounding failed")
		return
	}

	if err := s.accrual.RecordRun(context.Background(), models.AccrualJobMonthEnd, result); err != nil {
		log.WithError(err).Warn("Failed to record scheduled month-end run")
	}
}

func isLastDayOfMonth(t time.Time) bool {
	return t.AddDate(0, 0, 1).Day() == 1
}
