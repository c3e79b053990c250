package booking

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/clinicflow/scheduler/internal/appointments"
	"github.com/clinicflow/scheduler/internal/patients"
	"github.com/clinicflow/scheduler/internal/scheduling"
	"github.com/clinicflow/scheduler/pkg/logging"
)

var fallbackTracer = otel.Tracer("scheduler.internal.booking.fallback")

// SlotSource is the slot-store surface the fallback booker needs.
type SlotSource interface {
	FreeSlots(ctx context.Context, before time.Time, limit int) ([]scheduling.Slot, error)
	Claim(ctx context.Context, slotID int64) (bool, error)
}

// AppointmentWriter records claimed bookings. Optional; nil skips persistence.
type AppointmentWriter interface {
	Insert(ctx context.Context, a appointments.Appointment) (int64, error)
}

// FallbackBooker books the first free slot from the local store.
type FallbackBooker struct {
	slots     SlotSource
	appts     AppointmentWriter
	daysAhead int
	limit     int
	logger    *logging.Logger
	now       func() time.Time
}

// NewFallbackBooker constructs the local-store booker.
func NewFallbackBooker(slots SlotSource, appts AppointmentWriter, daysAhead, limit int, logger *logging.Logger) *FallbackBooker {
	if slots == nil {
		panic("booking: slot source required")
	}
	if daysAhead <= 0 {
		daysAhead = 7
	}
	if limit <= 0 {
		limit = 5
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &FallbackBooker{
		slots:     slots,
		appts:     appts,
		daysAhead: daysAhead,
		limit:     limit,
		logger:    logger,
		now:       time.Now,
	}
}

// WithNow overrides the clock, for tests.
func (b *FallbackBooker) WithNow(now func() time.Time) *FallbackBooker {
	b.now = now
	return b
}

// Book claims the first free slot. Losing the claim race yields
// Status=failed, not an error; an empty store yields ErrNoSlotsAvailable.
func (b *FallbackBooker) Book(ctx context.Context, patient patients.PatientRecord, lookup patients.LookupResult) (Booking, error) {
	ctx, span := fallbackTracer.Start(ctx, "booking.fallback")
	defer span.End()

	duration := DurationFor(lookup.Classification)
	span.SetAttributes(attribute.Int("scheduler.duration_minutes", duration))

	cutoff := b.now().AddDate(0, 0, b.daysAhead)
	slots, err := b.slots.FreeSlots(ctx, cutoff, b.limit)
	if err != nil {
		span.RecordError(err)
		return Booking{}, fmt.Errorf("booking: fetch free slots: %w", err)
	}
	if len(slots) == 0 {
		span.RecordError(ErrNoSlotsAvailable)
		return Booking{}, ErrNoSlotsAvailable
	}

	slot := slots[0]
	claimed, err := b.slots.Claim(ctx, slot.ID)
	if err != nil {
		span.RecordError(err)
		return Booking{}, err
	}

	result := Booking{
		SlotID:          slot.ID,
		StartTime:       slot.Start.Format(time.RFC3339),
		EndTime:         slot.End.Format(time.RFC3339),
		DurationMinutes: duration,
		Status:          StatusBooked,
	}
	if !claimed {
		// Another booking won the conditional update.
		result.Status = StatusFailed
		b.logger.Warn("slot already claimed", "slot_id", slot.ID)
		return result, nil
	}

	b.logger.Info("slot booked", "slot_id", slot.ID, "start", result.StartTime, "duration_minutes", duration)

	if b.appts != nil {
		start := slot.Start
		end := slot.End
		if _, err := b.appts.Insert(ctx, appointments.Appointment{
			PatientName:     patient.Name,
			PatientEmail:    patient.Email,
			PatientPhone:    patient.Phone,
			DOB:             patient.DOB,
			Doctor:          patient.Doctor,
			Location:        slot.Location,
			StartTime:       &start,
			EndTime:         &end,
			DurationMinutes: duration,
			Status:          appointments.StatusConfirmed,
		}); err != nil {
			span.RecordError(err)
			return Booking{}, fmt.Errorf("booking: persist appointment: %w", err)
		}
	}

	return result, nil
}

var _ Booker = (*FallbackBooker)(nil)
