package booking

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/clinicflow/scheduler/internal/calendly"
	"github.com/clinicflow/scheduler/internal/patients"
	"github.com/clinicflow/scheduler/pkg/logging"
)

var providerTracer = otel.Tracer("scheduler.internal.booking.provider")

// SchedulingProvider is the Calendly surface the provider booker needs.
type SchedulingProvider interface {
	ListEventTypes(ctx context.Context, userURI string) ([]calendly.EventType, error)
	CreateSchedulingLink(ctx context.Context, eventTypeURI string) (string, error)
}

// ProviderBooker issues a single-use scheduling link instead of claiming a
// concrete slot; the chosen time arrives later via webhook.
type ProviderBooker struct {
	provider SchedulingProvider
	logger   *logging.Logger
}

// NewProviderBooker constructs the external-provider booker.
func NewProviderBooker(provider SchedulingProvider, logger *logging.Logger) *ProviderBooker {
	if provider == nil {
		panic("booking: scheduling provider required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ProviderBooker{provider: provider, logger: logger}
}

// Book finds the first event type whose name mentions the target duration
// and requests a scheduling link for it. The substring match mirrors the
// provider's template naming ("30 Minute Meeting"); templates with an
// explicit duration field are preferred when both would match.
func (b *ProviderBooker) Book(ctx context.Context, patient patients.PatientRecord, lookup patients.LookupResult) (Booking, error) {
	ctx, span := providerTracer.Start(ctx, "booking.provider")
	defer span.End()

	duration := DurationFor(lookup.Classification)
	span.SetAttributes(attribute.Int("scheduler.duration_minutes", duration))

	eventTypes, err := b.provider.ListEventTypes(ctx, "")
	if err != nil {
		span.RecordError(err)
		return Booking{}, fmt.Errorf("booking: list event types: %w", err)
	}

	matched := matchEventType(eventTypes, duration)
	if matched == nil {
		span.RecordError(ErrNoMatchingEventType)
		return Booking{}, fmt.Errorf("%w: %d minutes", ErrNoMatchingEventType, duration)
	}

	link, err := b.provider.CreateSchedulingLink(ctx, matched.URI)
	if err != nil {
		span.RecordError(err)
		return Booking{}, fmt.Errorf("booking: create scheduling link: %w", err)
	}

	b.logger.Info("scheduling link issued",
		"event_type", matched.Name,
		"duration_minutes", duration,
	)

	return Booking{
		StartTime:       StartTimeTBD,
		DurationMinutes: duration,
		Status:          StatusPending,
		BookingURL:      link,
		EventTypeName:   matched.Name,
	}, nil
}

// matchEventType picks the template for the duration. An exact duration
// field wins; otherwise the first name containing the number as a substring
// is taken, e.g. "30" inside "30 Minute Meeting".
func matchEventType(eventTypes []calendly.EventType, duration int) *calendly.EventType {
	for i := range eventTypes {
		if eventTypes[i].Duration == duration {
			return &eventTypes[i]
		}
	}
	needle := strconv.Itoa(duration)
	for i := range eventTypes {
		if strings.Contains(eventTypes[i].Name, needle) {
			return &eventTypes[i]
		}
	}
	return nil
}

var _ Booker = (*ProviderBooker)(nil)
