package scheduling

import "time"

type SlotStatus string

const (
	SlotFree   SlotStatus = "free"
	SlotBooked SlotStatus = "booked"
)

// Slot is one bookable entry in the local doctor_schedules table.
type Slot struct {
	ID       int64      `json:"id"`
	DoctorID string     `json:"doctor_id"`
	Location string     `json:"location"`
	Start    time.Time  `json:"start"`
	End      time.Time  `json:"end"`
	Status   SlotStatus `json:"status,omitempty"`
}
