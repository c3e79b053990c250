package booking

import (
	"context"
	"errors"

	"github.com/clinicflow/scheduler/internal/patients"
)

type Status string

const (
	// StatusBooked means a concrete slot was claimed in the local store.
	StatusBooked Status = "booked"
	// StatusFailed means another booking claimed the slot first.
	StatusFailed Status = "failed"
	// StatusPending means the patient books a time via scheduling link; the
	// concrete slot arrives later over the provider webhook.
	StatusPending Status = "pending"
)

// StartTimeTBD marks a pending booking whose slot is not yet known.
const StartTimeTBD = "TBD"

var (
	// ErrNoSlotsAvailable is the terminal failure of fallback booking when
	// the slot store has nothing free.
	ErrNoSlotsAvailable = errors.New("booking: no slots available in fallback store")
	// ErrNoMatchingEventType means no provider template matched the
	// requested duration. No scheduling link is requested in that case.
	ErrNoMatchingEventType = errors.New("booking: no event type matches requested duration")
)

// Booking is the outcome of the booking stage. Fallback mode fills the slot
// fields; provider mode fills BookingURL and leaves StartTime as TBD.
type Booking struct {
	SlotID          int64  `json:"slot_id,omitempty"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time,omitempty"`
	DurationMinutes int    `json:"duration_minutes"`
	Status          Status `json:"status"`
	BookingURL      string `json:"booking_url,omitempty"`
	EventTypeName   string `json:"event_type,omitempty"`
}

// Booker obtains a booking for a patient. The implementation is chosen once
// at configuration time, never per call.
type Booker interface {
	Book(ctx context.Context, patient patients.PatientRecord, lookup patients.LookupResult) (Booking, error)
}

// DurationFor maps the lookup classification to an appointment length in
// minutes: returning patients get 30, everyone else 60.
func DurationFor(c patients.Classification) int {
	if c == patients.ClassificationReturning {
		return 30
	}
	return 60
}
