package appointments

import "time"

type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCanceled  Status = "canceled"
)

// Appointment is one row in the append-style appointments log. Rows arrive
// either from a fallback booking or from the Calendly webhook receiver.
type Appointment struct {
	ID              int64
	PatientName     string
	PatientEmail    string
	PatientPhone    string
	DOB             string
	Doctor          string
	Location        string
	StartTime       *time.Time
	EndTime         *time.Time
	DurationMinutes int
	BookingURL      string
	Status          Status
	CreatedAt       time.Time
}

// Summary is the slice of an appointment the reminder utility needs.
type Summary struct {
	ID          int64
	PatientName string
	Email       string
	Phone       string
	StartTime   time.Time
	Location    string
}
