package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.SlotDaysAhead != 7 {
		t.Errorf("expected default slot window of 7 days, got %d", cfg.SlotDaysAhead)
	}
	if cfg.SMSMode != SMSModeSimulated {
		t.Errorf("expected simulated SMS mode by default, got %s", cfg.SMSMode)
	}
	if cfg.ReminderInterval != time.Hour {
		t.Errorf("expected default reminder interval 1h, got %s", cfg.ReminderInterval)
	}
}

func TestBookingBackendSelection(t *testing.T) {
	t.Run("no key falls back to local store", func(t *testing.T) {
		cfg := Load()
		if cfg.BookingBackend != BookingBackendFallback {
			t.Errorf("expected fallback backend, got %s", cfg.BookingBackend)
		}
	})

	t.Run("calendly key selects provider", func(t *testing.T) {
		t.Setenv("CALENDLY_API_KEY", "key-123")
		cfg := Load()
		if cfg.BookingBackend != BookingBackendCalendly {
			t.Errorf("expected calendly backend, got %s", cfg.BookingBackend)
		}
	})

	t.Run("explicit backend wins", func(t *testing.T) {
		t.Setenv("CALENDLY_API_KEY", "key-123")
		t.Setenv("BOOKING_BACKEND", "fallback")
		cfg := Load()
		if cfg.BookingBackend != BookingBackendFallback {
			t.Errorf("expected fallback backend, got %s", cfg.BookingBackend)
		}
	})
}
