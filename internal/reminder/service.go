// Package reminder drives the three-stage appointment reminder sweep. It is
// a standalone utility over the appointments store, not a pipeline stage.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/clinicflow/scheduler/internal/appointments"
	"github.com/clinicflow/scheduler/internal/notify"
	"github.com/clinicflow/scheduler/pkg/logging"
)

var tracer = otel.Tracer("scheduler.internal.reminder")

// ErrInvalidStage is returned when the reminder stage is outside 1..3.
var ErrInvalidStage = errors.New("reminder: stage must be 1, 2, or 3")

// Reminder stages.
const (
	StageGeneric  = 1 // plain reminder
	StageForms    = 2 // intake forms still pending
	StageConfirm  = 3 // attendance confirmation
	DefaultWithin = 48 * time.Hour
)

// AppointmentSource lists upcoming confirmed appointments.
type AppointmentSource interface {
	ListUpcoming(ctx context.Context, now time.Time, within time.Duration) ([]appointments.Summary, error)
}

// Service sends reminder emails and SMS for upcoming appointments.
type Service struct {
	appts  AppointmentSource
	email  notify.EmailSender
	sms    notify.SMSSender
	logger *logging.Logger
	now    func() time.Time

	mu       sync.Mutex
	lastSent map[int64]int
}

func NewService(appts AppointmentSource, email notify.EmailSender, sms notify.SMSSender, logger *logging.Logger) *Service {
	if appts == nil {
		panic("reminder: appointment source required")
	}
	if email == nil {
		panic("reminder: email sender required")
	}
	if sms == nil {
		panic("reminder: sms sender required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		appts:    appts,
		email:    email,
		sms:      sms,
		logger:   logger,
		now:      time.Now,
		lastSent: make(map[int64]int),
	}
}

// WithNow overrides the service clock. Test hook.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// ListUpcoming returns confirmed appointments starting within the window.
func (s *Service) ListUpcoming(ctx context.Context, within time.Duration) ([]appointments.Summary, error) {
	if within <= 0 {
		within = DefaultWithin
	}
	return s.appts.ListUpcoming(ctx, s.now(), within)
}

// SendReminder sends one email and one SMS for the appointment at the given
// stage. Stages: 1 generic, 2 forms pending, 3 attendance confirmation.
func (s *Service) SendReminder(ctx context.Context, appt appointments.Summary, stage int) error {
	ctx, span := tracer.Start(ctx, "reminder.send", trace.WithAttributes(
		attribute.Int64("appointment.id", appt.ID),
		attribute.Int("reminder.stage", stage),
	))
	defer span.End()

	msg, sms, err := composeReminder(appt, stage)
	if err != nil {
		span.RecordError(err)
		return err
	}

	if err := s.email.Send(ctx, msg); err != nil {
		span.RecordError(err)
		return fmt.Errorf("reminder: email stage %d: %w", stage, err)
	}
	if err := s.sms.SendSMS(ctx, appt.Phone, sms); err != nil {
		span.RecordError(err)
		return fmt.Errorf("reminder: sms stage %d: %w", stage, err)
	}

	s.logger.Info("reminder sent",
		"appointment_id", appt.ID,
		"stage", stage,
		"email", appt.Email,
	)
	return nil
}

// StageFor keys the reminder stage off the time to the appointment: generic
// beyond a day out, forms inside a day, attendance confirmation in the final
// hours before the visit.
func StageFor(until time.Duration) int {
	switch {
	case until > 24*time.Hour:
		return StageGeneric
	case until > 4*time.Hour:
		return StageForms
	default:
		return StageConfirm
	}
}

// RunSweep sends at most one reminder per appointment per sweep, the stage
// due for its time-to-appointment. Stages already sent for an appointment
// are not repeated on later ticks. The first failure aborts the sweep so a
// broken transport is noticed early.
func (s *Service) RunSweep(ctx context.Context, within time.Duration) (int, error) {
	ctx, span := tracer.Start(ctx, "reminder.sweep")
	defer span.End()

	appts, err := s.ListUpcoming(ctx, within)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("reminder: list upcoming: %w", err)
	}

	now := s.now()
	sent := 0
	for _, appt := range appts {
		stage := StageFor(appt.StartTime.Sub(now))
		if !s.claimStage(appt.ID, stage) {
			continue
		}
		if err := s.SendReminder(ctx, appt, stage); err != nil {
			s.unclaimStage(appt.ID, stage)
			span.RecordError(err)
			return sent, err
		}
		sent++
	}
	span.SetAttributes(attribute.Int("reminder.sent", sent))
	return sent, nil
}

// claimStage records the stage as sent for the appointment. Returns false if
// this stage, or a later one, already went out.
func (s *Service) claimStage(apptID int64, stage int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastSent[apptID] >= stage {
		return false
	}
	s.lastSent[apptID] = stage
	return true
}

func (s *Service) unclaimStage(apptID int64, stage int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastSent[apptID] == stage {
		s.lastSent[apptID] = stage - 1
	}
}

func composeReminder(appt appointments.Summary, stage int) (notify.EmailMessage, string, error) {
	start := appt.StartTime.Format(time.RFC3339)

	var subject, body, sms string
	switch stage {
	case StageGeneric:
		subject = fmt.Sprintf("Reminder: Appointment on %s", start)
		body = fmt.Sprintf("Hello %s,\n\n"+
			"This is a reminder for your upcoming appointment on %s.\n"+
			"Location: %s\n\n"+
			"Please arrive 10 minutes early.\n\n"+
			"Thank you,\nClinic Scheduler Team",
			appt.PatientName, start, appt.Location)
		sms = fmt.Sprintf("Reminder: Your appointment is on %s.", start)
	case StageForms:
		subject = fmt.Sprintf("Action Needed: Forms for your appointment on %s", start)
		body = fmt.Sprintf("Hello %s,\n\n"+
			"Please complete your intake forms before your appointment on %s.\n\n"+
			"Thank you,\nClinic Scheduler Team",
			appt.PatientName, start)
		sms = fmt.Sprintf("Reminder: Please complete your intake forms before %s.", start)
	case StageConfirm:
		subject = fmt.Sprintf("Confirm Your Appointment on %s", start)
		body = fmt.Sprintf("Hello %s,\n\n"+
			"Please confirm if you will attend your appointment on %s. "+
			"If not, reply with the reason for cancellation.\n\n"+
			"Thank you,\nClinic Scheduler Team",
			appt.PatientName, start)
		sms = fmt.Sprintf("Confirm your appointment on %s. Reply YES to confirm or NO to cancel.", start)
	default:
		return notify.EmailMessage{}, "", ErrInvalidStage
	}

	return notify.EmailMessage{
		To:      appt.Email,
		ToName:  appt.PatientName,
		Subject: subject,
		Body:    body,
	}, sms, nil
}
