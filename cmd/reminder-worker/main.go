package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/clinicflow/scheduler/internal/appointments"
	appconfig "github.com/clinicflow/scheduler/internal/config"
	"github.com/clinicflow/scheduler/internal/notify"
	"github.com/clinicflow/scheduler/internal/reminder"
	"github.com/clinicflow/scheduler/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.DatabaseURL == "" {
		logger.Error("reminder worker requires DATABASE_URL")
		os.Exit(1)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	var email notify.EmailSender
	if cfg.SendGridAPIKey != "" {
		email = notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
	} else {
		email = notify.NewStubEmailSender(logger)
	}

	var sms notify.SMSSender
	if cfg.SMSMode == appconfig.SMSModeTwilio {
		sms = notify.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger)
	} else {
		sms = notify.NewSimulatedSMSSender(cfg.SMSLogPath, logger)
	}

	svc := reminder.NewService(appointments.NewRepository(pool), email, sms, logger)
	within := time.Duration(cfg.ReminderWithinHours) * time.Hour

	logger.Info("reminder worker starting",
		"within_hours", cfg.ReminderWithinHours,
		"interval", cfg.ReminderInterval.String(),
	)

	go func() {
		ticker := time.NewTicker(cfg.ReminderInterval)
		defer ticker.Stop()

		// First sweep immediately, then on every tick.
		for {
			sent, err := svc.RunSweep(ctx, within)
			if err != nil {
				logger.Error("reminder sweep failed", "sent_before_failure", sent, "error", err)
			} else {
				logger.Info("reminder sweep complete", "sent", sent)
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("reminder worker shutting down")
	cancel()
	time.Sleep(2 * time.Second)
}
