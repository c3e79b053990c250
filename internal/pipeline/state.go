// Package pipeline chains intake, lookup, booking, and notification into one
// request-scoped run. State moves by value; stages never share mutable data.
package pipeline

import (
	"github.com/clinicflow/scheduler/internal/booking"
	"github.com/clinicflow/scheduler/internal/patients"
)

// State is the value threaded through the pipeline. Each stage returns a new
// State with exactly one field populated on top of its input.
type State struct {
	RequestID string                 `json:"request_id"`
	Patient   patients.PatientRecord `json:"patient"`
	Lookup    *patients.LookupResult `json:"lookup,omitempty"`
	Booking   *booking.Booking       `json:"booking,omitempty"`
	Notified  bool                   `json:"notified"`
}

// withPatient returns a copy with the patient record replaced.
func (s State) withPatient(p patients.PatientRecord) State {
	s.Patient = p
	return s
}

// withLookup returns a copy with the lookup result attached.
func (s State) withLookup(r patients.LookupResult) State {
	s.Lookup = &r
	return s
}

// withBooking returns a copy with the booking attached.
func (s State) withBooking(b booking.Booking) State {
	s.Booking = &b
	return s
}

// withNotified returns a copy marked as notified.
func (s State) withNotified() State {
	s.Notified = true
	return s
}
