package calendly

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/clinicflow/scheduler/internal/appointments"
	"github.com/clinicflow/scheduler/internal/observability/metrics"
	"github.com/clinicflow/scheduler/pkg/logging"
)

var webhookTracer = otel.Tracer("scheduler.internal.calendly.webhook")

// Webhook event types this receiver understands.
const (
	EventInviteeCreated  = "invitee.created"
	EventInviteeCanceled = "invitee.canceled"

	dedupeTTL = 24 * time.Hour
)

// AppointmentStore is the appointments surface the webhook receiver needs.
type AppointmentStore interface {
	Insert(ctx context.Context, a appointments.Appointment) (int64, error)
	CancelByEmail(ctx context.Context, email string) (int64, error)
}

// WebhookHandler receives Calendly invitee events and mirrors them into the
// appointments store.
type WebhookHandler struct {
	appts   AppointmentStore
	dedupe  *redis.Client
	metrics *metrics.PipelineMetrics
	logger  *logging.Logger
}

// NewWebhookHandler constructs the receiver. The redis client is optional;
// without it duplicate deliveries are processed again.
func NewWebhookHandler(appts AppointmentStore, dedupe *redis.Client, m *metrics.PipelineMetrics, logger *logging.Logger) *WebhookHandler {
	if appts == nil {
		panic("calendly: appointment store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &WebhookHandler{appts: appts, dedupe: dedupe, metrics: m, logger: logger}
}

// Status handles GET requests so Calendly's endpoint check and humans can see
// the receiver is alive.
func (h *WebhookHandler) Status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "listening"})
}

// Receive handles POST /webhooks/calendly.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	ctx, span := webhookTracer.Start(r.Context(), "calendly.webhook.receive")
	defer span.End()

	var event WebhookEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		h.logger.Error("failed to decode calendly webhook", "error", err)
		h.metrics.ObserveWebhookEvent("unknown", "bad_request")
		http.Error(w, "Bad Request", http.StatusBadRequest)
		span.RecordError(err)
		return
	}
	span.SetAttributes(
		attribute.String("calendly.event", event.Event),
		attribute.String("calendly.invitee", event.Payload.Invitee.Email),
	)

	if dup, err := h.seenBefore(ctx, event); err != nil {
		h.logger.Warn("dedupe check failed, processing anyway", "error", err)
	} else if dup {
		h.logger.Info("duplicate calendly delivery ignored", "event", event.Event, "invitee", event.Payload.Invitee.URI)
		h.metrics.ObserveWebhookEvent(event.Event, "duplicate")
		w.WriteHeader(http.StatusOK)
		return
	}

	var err error
	switch event.Event {
	case EventInviteeCreated:
		err = h.handleCreated(ctx, event)
	case EventInviteeCanceled:
		err = h.handleCanceled(ctx, event)
	default:
		h.logger.Info("ignoring calendly event", "event", event.Event)
		h.metrics.ObserveWebhookEvent(event.Event, "ignored")
		w.WriteHeader(http.StatusOK)
		return
	}
	if err != nil {
		h.logger.Error("failed to process calendly event", "event", event.Event, "error", err)
		h.metrics.ObserveWebhookEvent(event.Event, "error")
		// The claim must not outlive a failed attempt: Calendly retries the
		// delivery and the retry has to process, not drop as a duplicate.
		h.releaseDelivery(ctx, event)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		span.RecordError(err)
		return
	}

	h.metrics.ObserveWebhookEvent(event.Event, "ok")
	w.WriteHeader(http.StatusOK)
}

func (h *WebhookHandler) handleCreated(ctx context.Context, event WebhookEvent) error {
	if event.Payload.Invitee.Email == "" {
		return errors.New("calendly: invitee.created without invitee email")
	}

	appt := appointments.Appointment{
		PatientName:  event.Payload.Invitee.Name,
		PatientEmail: event.Payload.Invitee.Email,
		BookingURL:   event.Payload.Event.URI,
		Status:       appointments.StatusConfirmed,
	}
	if start, err := time.Parse(time.RFC3339, event.Payload.Event.StartTime); err == nil {
		appt.StartTime = &start
	}
	if end, err := time.Parse(time.RFC3339, event.Payload.Event.EndTime); err == nil {
		appt.EndTime = &end
	}
	if appt.StartTime != nil && appt.EndTime != nil {
		appt.DurationMinutes = int(appt.EndTime.Sub(*appt.StartTime).Minutes())
	}

	id, err := h.appts.Insert(ctx, appt)
	if err != nil {
		return err
	}
	h.logger.Info("calendly booking recorded", "appointment_id", id, "invitee", appt.PatientEmail)
	return nil
}

func (h *WebhookHandler) handleCanceled(ctx context.Context, event WebhookEvent) error {
	if event.Payload.Invitee.Email == "" {
		return errors.New("calendly: invitee.canceled without invitee email")
	}
	n, err := h.appts.CancelByEmail(ctx, event.Payload.Invitee.Email)
	if err != nil {
		return err
	}
	h.logger.Info("calendly cancellation recorded", "invitee", event.Payload.Invitee.Email, "canceled_rows", n)
	return nil
}

// seenBefore claims the delivery key in redis. First delivery wins the SETNX.
func (h *WebhookHandler) seenBefore(ctx context.Context, event WebhookEvent) (bool, error) {
	if h.dedupe == nil || event.Payload.Invitee.URI == "" {
		return false, nil
	}
	claimed, err := h.dedupe.SetNX(ctx, deliveryKey(event), "1", dedupeTTL).Result()
	if err != nil {
		return false, err
	}
	return !claimed, nil
}

// releaseDelivery gives the claim back after a failed processing attempt.
func (h *WebhookHandler) releaseDelivery(ctx context.Context, event WebhookEvent) {
	if h.dedupe == nil || event.Payload.Invitee.URI == "" {
		return
	}
	if err := h.dedupe.Del(ctx, deliveryKey(event)).Err(); err != nil {
		h.logger.Warn("failed to release webhook dedupe key", "error", err, "invitee", event.Payload.Invitee.URI)
	}
}

func deliveryKey(event WebhookEvent) string {
	return "calendly:webhook:" + event.Event + ":" + event.Payload.Invitee.URI
}
