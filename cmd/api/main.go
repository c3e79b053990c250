package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/clinicflow/scheduler/cmd/mainconfig"
	"github.com/clinicflow/scheduler/internal/api"
	"github.com/clinicflow/scheduler/internal/appointments"
	"github.com/clinicflow/scheduler/internal/booking"
	"github.com/clinicflow/scheduler/internal/calendly"
	appconfig "github.com/clinicflow/scheduler/internal/config"
	"github.com/clinicflow/scheduler/internal/intake"
	"github.com/clinicflow/scheduler/internal/notify"
	"github.com/clinicflow/scheduler/internal/observability/metrics"
	"github.com/clinicflow/scheduler/internal/patients"
	"github.com/clinicflow/scheduler/internal/pipeline"
	"github.com/clinicflow/scheduler/internal/scheduling"
	"github.com/clinicflow/scheduler/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting scheduler API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"booking_backend", cfg.BookingBackend,
	)

	ctx := context.Background()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	patientRepo := patients.NewRepository(pool)
	slotRepo := scheduling.NewRepository(pool)
	apptRepo := appointments.NewRepository(pool)

	llm, cleanup, err := buildLLMClient(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize LLM client", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	parser := intake.NewParser(llm, cfg.BedrockModelID, logger)
	lookup := patients.NewService(patientRepo, logger)
	booker := buildBooker(cfg, slotRepo, apptRepo, logger)
	notifier := notify.NewNotifier(buildEmailSender(ctx, cfg, logger), buildSMSSender(cfg, logger), logger)

	pipelineMetrics := metrics.NewPipelineMetrics(nil)
	runner := pipeline.NewRunner(parser, lookup, booker, notifier, pipelineMetrics, logger)

	var dedupe *redis.Client
	if cfg.RedisAddr != "" {
		dedupe = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer func() { _ = dedupe.Close() }()
	}
	webhook := calendly.NewWebhookHandler(apptRepo, dedupe, pipelineMetrics, logger)

	router := api.NewRouter(api.RouterConfig{
		Handler:        api.NewHandler(parser, runner, logger),
		Webhook:        webhook,
		MetricsHandler: promhttp.Handler(),
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// buildLLMClient prefers Bedrock, with Gemini as the fallback when both are
// configured. The returned cleanup releases the Gemini connection, if any.
func buildLLMClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (intake.LLMClient, func(), error) {
	cleanup := func() {}

	var bedrock intake.LLMClient
	if cfg.BedrockModelID != "" {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, cleanup, err
		}
		bedrock = intake.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg))
	}

	var gemini *intake.GeminiLLMClient
	if cfg.GeminiAPIKey != "" {
		var err error
		gemini, err = intake.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			return nil, cleanup, err
		}
		cleanup = func() { _ = gemini.Close() }
	}

	switch {
	case bedrock != nil && gemini != nil:
		return intake.NewFallbackLLMClient(bedrock, gemini, logger), cleanup, nil
	case bedrock != nil:
		return bedrock, cleanup, nil
	case gemini != nil:
		return gemini, cleanup, nil
	default:
		logger.Error("no LLM configured, set BEDROCK_MODEL_ID or GEMINI_API_KEY")
		os.Exit(1)
		return nil, cleanup, nil
	}
}

func buildBooker(cfg *appconfig.Config, slots *scheduling.Repository, appts *appointments.Repository, logger *logging.Logger) booking.Booker {
	if cfg.BookingBackend == appconfig.BookingBackendCalendly {
		client := calendly.NewClient(cfg.CalendlyAPIKey, cfg.CalendlyBaseURL, logger)
		return booking.NewProviderBooker(client, logger)
	}
	return booking.NewFallbackBooker(slots, appts, cfg.SlotDaysAhead, cfg.SlotFetchLimit, logger)
}

func buildEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	switch cfg.EmailProvider {
	case appconfig.EmailProviderSES:
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config for SES", "error", err)
			os.Exit(1)
		}
		return notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger)
	case appconfig.EmailProviderStub:
		return notify.NewStubEmailSender(logger)
	default:
		if cfg.SendGridAPIKey == "" {
			logger.Warn("SENDGRID_API_KEY missing, emails will be logged only")
			return notify.NewStubEmailSender(logger)
		}
		return notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
	}
}

func buildSMSSender(cfg *appconfig.Config, logger *logging.Logger) notify.SMSSender {
	if cfg.SMSMode == appconfig.SMSModeTwilio {
		return notify.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger)
	}
	return notify.NewSimulatedSMSSender(cfg.SMSLogPath, logger)
}
