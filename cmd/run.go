package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"accruald/api"
	"accruald/config"
	"accruald/database"
	"accruald/events"
	"accruald/repository"
	"accruald/scheduler"
	"accruald/service"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Info("Starting accrual service...")

	cfg := config.Get()

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	eventBus := events.NewBus()
	subscribeLogging(eventBus)

	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)
	accountRepo := repository.NewLoanAccountRepository(db)
	runRepo := repository.NewAccrualRunRepository(db)

	writer := service.NewAccrualWriter(uowFactory, cfg.UseRowLocks)
	accrualService := service.NewAccrualService(accountRepo, runRepo, writer, uowFactory, service.NewSystemClock(), cfg)
	accountService := service.NewAccountService(accountRepo, uowFactory)

	sched, err := scheduler.New(accrualService, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize scheduler: %w", err)
	}
	sched.Start()

	handler := api.NewHandler(accountService, accrualService, cfg)
	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      handler.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.HTTPPort).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	log.WithField("environment", cfg.Environment).Info("Accrual service is running")

	select {
	case err := <-serverErr:
		return fmt.Errorf("HTTP server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down HTTP server")
	}

	sched.Stop()
	db.Close()

	log.Info("Shutdown completed")
	return nil
}

// subscribeLogging attaches log-only handlers for the domain events
func subscribeLogging(bus *events.Bus) {
	bus.Subscribe(events.EventTypeAccountCreated, func(ctx context.Context, event events.Event) {
		e := event.(events.AccountCreatedEvent)
		log.WithFields(log.Fields{
			"accountId":     e.AccountID,
			"accountNumber": e.AccountNumber,
			"principal":     e.Principal.String(),
			"interestRate":  e.InterestRate.String(),
		}).Info("Loan account created")
	})

	bus.Subscribe(events.EventTypeAccrualRunCompleted, func(ctx context.Context, event events.Event) {
		e := event.(events.AccrualRunCompletedEvent)
		log.WithFields(log.Fields{
			"job":           e.Job,
			"date":          e.RunDate.Format("2006-01-02"),
			"processed":     e.AccountsProcessed,
			"failed":        e.FailedAccounts,
			"totalInterest": e.TotalInterest.String(),
			"durationMs":    e.DurationMs,
		}).Info("Accrual run recorded")
	})
}
