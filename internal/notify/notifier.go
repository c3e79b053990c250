package notify

import (
	"context"
	"fmt"

	"github.com/clinicflow/scheduler/internal/booking"
	"github.com/clinicflow/scheduler/internal/patients"
	"github.com/clinicflow/scheduler/pkg/logging"
)

// Notifier sends the post-booking email and SMS to the patient. Channel
// failures propagate to the caller; there is no partial-completion recovery.
type Notifier struct {
	email  EmailSender
	sms    SMSSender
	logger *logging.Logger
}

// NewNotifier constructs a notifier over the configured transports.
func NewNotifier(email EmailSender, sms SMSSender, logger *logging.Logger) *Notifier {
	if email == nil {
		panic("notify: email sender required")
	}
	if sms == nil {
		panic("notify: sms sender required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Notifier{email: email, sms: sms, logger: logger}
}

// NotifyBooking sends exactly one email and one SMS describing the booking:
// a scheduling link for pending bookings, a confirmation otherwise.
func (n *Notifier) NotifyBooking(ctx context.Context, patient patients.PatientRecord, b booking.Booking) error {
	doctor := patient.Doctor
	if doctor == "" {
		doctor = "your doctor"
	}

	var msg EmailMessage
	var sms string
	if b.BookingURL != "" {
		msg = bookingLinkEmail(patient, doctor, b)
		sms = fmt.Sprintf("Hello %s, please book your %d-minute appointment using this link: %s",
			patient.Name, b.DurationMinutes, b.BookingURL)
	} else {
		msg = confirmationEmail(patient, doctor, b)
		sms = fmt.Sprintf("Hello %s, your %d-minute appointment with %s is booked for %s.",
			patient.Name, b.DurationMinutes, doctor, b.StartTime)
	}

	if err := n.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: booking email: %w", err)
	}
	if err := n.sms.SendSMS(ctx, patient.Phone, sms); err != nil {
		return fmt.Errorf("notify: booking sms: %w", err)
	}

	n.logger.Info("patient notified", "email", patient.Email, "phone", patient.Phone, "status", b.Status)
	return nil
}

func bookingLinkEmail(patient patients.PatientRecord, doctor string, b booking.Booking) EmailMessage {
	body := fmt.Sprintf("Hello %s,\n\n"+
		"Please book your %d-minute appointment with %s at %s using the link below:\n\n"+
		"%s\n\n"+
		"Thank you,\nClinic Scheduler Team",
		patient.Name, b.DurationMinutes, doctor, patient.Location, b.BookingURL)

	html := fmt.Sprintf(`<html>
  <body style="font-family: Arial, sans-serif; line-height: 1.6;">
    <p>Hello <b>%s</b>,</p>
    <p>Please use the link below to book your <b>%d-minute</b> appointment with <b>%s</b> at <b>%s</b>:</p>
    <p><a href="%s" style="color: #007bff; text-decoration: none;">Click here to book your appointment</a></p>
    <p style="color: gray; font-size: 12px;">Thank you,<br>Clinic Scheduler Team</p>
  </body>
</html>`,
		patient.Name, b.DurationMinutes, doctor, patient.Location, b.BookingURL)

	return EmailMessage{
		To:      patient.Email,
		ToName:  patient.Name,
		Subject: fmt.Sprintf("Book Your Appointment with %s", doctor),
		Body:    body,
		HTML:    html,
	}
}

func confirmationEmail(patient patients.PatientRecord, doctor string, b booking.Booking) EmailMessage {
	body := fmt.Sprintf("Hello %s,\n\n"+
		"Your %d-minute appointment with %s at %s is booked for %s.\n\n"+
		"Please arrive 10 minutes early.\n\n"+
		"Thank you,\nClinic Scheduler Team",
		patient.Name, b.DurationMinutes, doctor, patient.Location, b.StartTime)

	html := fmt.Sprintf(`<html>
  <body style="font-family: Arial, sans-serif; line-height: 1.6;">
    <p>Hello <b>%s</b>,</p>
    <p>Your <b>%d-minute</b> appointment with <b>%s</b> at <b>%s</b> is booked for:</p>
    <p><b>%s</b></p>
    <p>Please arrive 10 minutes early.</p>
    <p style="color: gray; font-size: 12px;">Thank you,<br>Clinic Scheduler Team</p>
  </body>
</html>`,
		patient.Name, b.DurationMinutes, doctor, patient.Location, b.StartTime)

	return EmailMessage{
		To:      patient.Email,
		ToName:  patient.Name,
		Subject: fmt.Sprintf("Your Appointment with %s is Confirmed", doctor),
		Body:    body,
		HTML:    html,
	}
}
