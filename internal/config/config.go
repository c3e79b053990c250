package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Backend names accepted for BOOKING_BACKEND.
const (
	BookingBackendFallback = "fallback"
	BookingBackendCalendly = "calendly"
)

// SMS modes accepted for SMS_MODE.
const (
	SMSModeTwilio    = "twilio"
	SMSModeSimulated = "simulated"
)

// Email providers accepted for EMAIL_PROVIDER.
const (
	EmailProviderSendGrid = "sendgrid"
	EmailProviderSES      = "ses"
	EmailProviderStub     = "stub"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string
	DatabaseURL   string

	// Booking backend selection, fixed for the lifetime of the process.
	BookingBackend  string
	CalendlyAPIKey  string
	CalendlyBaseURL string
	SlotDaysAhead   int
	SlotFetchLimit  int

	// Intake LLM configuration
	BedrockModelID string
	GeminiAPIKey   string
	GeminiModelID  string

	// Notification channels
	EmailProvider     string
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	SESFromEmail      string
	SESFromName       string
	SMSMode           string
	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioFromNumber  string
	SMSLogPath        string

	// Reminder worker
	ReminderWithinHours int
	ReminderInterval    time.Duration
	ReminderStage       int

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	RedisAddr     string
	RedisPassword string
}

// Load reads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		BookingBackend:  strings.ToLower(strings.TrimSpace(getEnv("BOOKING_BACKEND", ""))),
		CalendlyAPIKey:  getEnv("CALENDLY_API_KEY", ""),
		CalendlyBaseURL: getEnv("CALENDLY_BASE_URL", "https://api.calendly.com"),
		SlotDaysAhead:   getEnvAsInt("SLOT_DAYS_AHEAD", 7),
		SlotFetchLimit:  getEnvAsInt("SLOT_FETCH_LIMIT", 5),

		BedrockModelID: getEnv("BEDROCK_MODEL_ID", ""),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModelID:  getEnv("GEMINI_MODEL_ID", ""),

		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", EmailProviderSendGrid))),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Clinic Scheduler"),
		SESFromEmail:      getEnv("SES_FROM_EMAIL", ""),
		SESFromName:       getEnv("SES_FROM_NAME", "Clinic Scheduler"),
		SMSMode:           strings.ToLower(strings.TrimSpace(getEnv("SMS_MODE", SMSModeSimulated))),
		TwilioAccountSID:  getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:   getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber:  getEnv("TWILIO_FROM_NUMBER", ""),
		SMSLogPath:        getEnv("SMS_LOG_PATH", "sms_log.txt"),

		ReminderWithinHours: getEnvAsInt("REMINDER_WITHIN_HOURS", 48),
		ReminderInterval:    getEnvAsDuration("REMINDER_INTERVAL", time.Hour),
		ReminderStage:       getEnvAsInt("REMINDER_STAGE", 1),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
	}

	// Without a Calendly key the local slot store is the only usable backend.
	if cfg.BookingBackend == "" {
		if cfg.CalendlyAPIKey != "" {
			cfg.BookingBackend = BookingBackendCalendly
		} else {
			cfg.BookingBackend = BookingBackendFallback
		}
	}

	return cfg
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
