// Registers the Calendly webhook subscription for invitee events, resolving
// the organization from the authenticated user.
package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/clinicflow/scheduler/internal/calendly"
	appconfig "github.com/clinicflow/scheduler/internal/config"
	"github.com/clinicflow/scheduler/pkg/logging"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	_ = godotenv.Load()
	cfg := appconfig.Load()
	if cfg.CalendlyAPIKey == "" {
		log.Fatal("CALENDLY_API_KEY is required")
	}
	if cfg.PublicBaseURL == "" {
		log.Fatal("PUBLIC_BASE_URL is required, e.g. https://example.ngrok-free.app")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := calendly.NewClient(cfg.CalendlyAPIKey, cfg.CalendlyBaseURL, logging.New(cfg.LogLevel))

	user, err := client.CurrentUser(ctx)
	if err != nil {
		log.Fatalf("resolve current user: %v", err)
	}
	log.Printf("authenticated as %s (%s)", user.Name, user.URI)

	callbackURL := cfg.PublicBaseURL + "/webhooks/calendly"
	sub, err := client.RegisterWebhook(ctx, user.Organization, callbackURL)
	if err != nil {
		log.Fatalf("register webhook: %v", err)
	}

	log.Printf("webhook registered: %s -> %s (state=%s)", sub.URI, sub.CallbackURL, sub.State)
}
