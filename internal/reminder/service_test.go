package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicflow/scheduler/internal/appointments"
	"github.com/clinicflow/scheduler/internal/notify"
)

type stubSource struct {
	summaries []appointments.Summary
	err       error
	gotWithin time.Duration
}

func (s *stubSource) ListUpcoming(ctx context.Context, now time.Time, within time.Duration) ([]appointments.Summary, error) {
	s.gotWithin = within
	return s.summaries, s.err
}

type recordingEmail struct {
	messages []notify.EmailMessage
	err      error
}

func (r *recordingEmail) Send(ctx context.Context, msg notify.EmailMessage) error {
	if r.err != nil {
		return r.err
	}
	r.messages = append(r.messages, msg)
	return nil
}

type recordingSMS struct {
	bodies []string
	err    error
}

func (r *recordingSMS) SendSMS(ctx context.Context, to, body string) error {
	if r.err != nil {
		return r.err
	}
	r.bodies = append(r.bodies, body)
	return nil
}

func testSummary() appointments.Summary {
	return appointments.Summary{
		ID:          7,
		PatientName: "Jane Smith",
		Email:       "jane@example.com",
		Phone:       "+15551234567",
		StartTime:   time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC),
		Location:    "Downtown Clinic",
	}
}

func TestSendReminderStages(t *testing.T) {
	tests := []struct {
		stage       int
		wantSubject string
		wantSMS     string
	}{
		{
			stage:       StageGeneric,
			wantSubject: "Reminder: Appointment on 2026-09-01T09:00:00Z",
			wantSMS:     "Reminder: Your appointment is on 2026-09-01T09:00:00Z.",
		},
		{
			stage:       StageForms,
			wantSubject: "Action Needed: Forms for your appointment on 2026-09-01T09:00:00Z",
			wantSMS:     "Reminder: Please complete your intake forms before 2026-09-01T09:00:00Z.",
		},
		{
			stage:       StageConfirm,
			wantSubject: "Confirm Your Appointment on 2026-09-01T09:00:00Z",
			wantSMS:     "Confirm your appointment on 2026-09-01T09:00:00Z. Reply YES to confirm or NO to cancel.",
		},
	}

	for _, tt := range tests {
		email := &recordingEmail{}
		sms := &recordingSMS{}
		svc := NewService(&stubSource{}, email, sms, nil)

		err := svc.SendReminder(context.Background(), testSummary(), tt.stage)
		require.NoError(t, err, "stage %d", tt.stage)

		require.Len(t, email.messages, 1)
		assert.Equal(t, tt.wantSubject, email.messages[0].Subject)
		assert.Equal(t, "jane@example.com", email.messages[0].To)

		require.Len(t, sms.bodies, 1)
		assert.Equal(t, tt.wantSMS, sms.bodies[0])
	}
}

func TestSendReminderInvalidStage(t *testing.T) {
	email := &recordingEmail{}
	sms := &recordingSMS{}
	svc := NewService(&stubSource{}, email, sms, nil)

	for _, stage := range []int{0, 4, -1} {
		err := svc.SendReminder(context.Background(), testSummary(), stage)
		require.ErrorIs(t, err, ErrInvalidStage, "stage %d", stage)
	}
	assert.Empty(t, email.messages)
	assert.Empty(t, sms.bodies)
}

func TestSendReminderEmailFailureSkipsSMS(t *testing.T) {
	email := &recordingEmail{err: errors.New("boom")}
	sms := &recordingSMS{}
	svc := NewService(&stubSource{}, email, sms, nil)

	err := svc.SendReminder(context.Background(), testSummary(), StageGeneric)
	require.Error(t, err)
	assert.Empty(t, sms.bodies)
}

func TestUpcomingDefaultsWindow(t *testing.T) {
	src := &stubSource{summaries: []appointments.Summary{testSummary()}}
	svc := NewService(src, &recordingEmail{}, &recordingSMS{}, nil)

	got, err := svc.ListUpcoming(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, DefaultWithin, src.gotWithin)
}

func TestStageFor(t *testing.T) {
	assert.Equal(t, StageGeneric, StageFor(40*time.Hour))
	assert.Equal(t, StageForms, StageFor(20*time.Hour))
	assert.Equal(t, StageConfirm, StageFor(2*time.Hour))
	assert.Equal(t, StageConfirm, StageFor(-10*time.Minute))
}

func TestRunSweepSendsStageDueForEachAppointment(t *testing.T) {
	start := testSummary().StartTime
	src := &stubSource{summaries: []appointments.Summary{testSummary(), {
		ID: 8, PatientName: "Bob Ray", Email: "bob@example.com",
		Phone: "+15550000000", StartTime: start.Add(3 * time.Hour),
	}}}
	email := &recordingEmail{}
	sms := &recordingSMS{}
	// Appointment 7 is two hours out, appointment 8 five hours out.
	svc := NewService(src, email, sms, nil).WithNow(func() time.Time {
		return start.Add(-2 * time.Hour)
	})

	sent, err := svc.RunSweep(context.Background(), DefaultWithin)
	require.NoError(t, err)
	assert.Equal(t, 2, sent, "one reminder per appointment per sweep")
	require.Len(t, email.messages, 2)
	assert.Contains(t, email.messages[0].Subject, "Confirm Your Appointment")
	assert.Contains(t, email.messages[1].Subject, "Action Needed: Forms")
}

func TestRunSweepDoesNotRepeatStagesAcrossTicks(t *testing.T) {
	start := testSummary().StartTime
	src := &stubSource{summaries: []appointments.Summary{testSummary()}}
	email := &recordingEmail{}
	sms := &recordingSMS{}
	clock := start.Add(-40 * time.Hour)
	svc := NewService(src, email, sms, nil).WithNow(func() time.Time {
		return clock
	})

	sent, err := svc.RunSweep(context.Background(), DefaultWithin)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	// Same tick window again: nothing new is due.
	sent, err = svc.RunSweep(context.Background(), DefaultWithin)
	require.NoError(t, err)
	assert.Zero(t, sent, "a stage already sent is not repeated")

	// Time advances inside a day of the visit: the forms stage goes out once.
	clock = start.Add(-20 * time.Hour)
	sent, err = svc.RunSweep(context.Background(), DefaultWithin)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, email.messages, 2)
	assert.Contains(t, email.messages[1].Subject, "Action Needed: Forms")
}

func TestRunSweepFailedSendIsRetriedNextTick(t *testing.T) {
	start := testSummary().StartTime
	src := &stubSource{summaries: []appointments.Summary{testSummary()}}
	email := &recordingEmail{err: errors.New("smtp down")}
	sms := &recordingSMS{}
	svc := NewService(src, email, sms, nil).WithNow(func() time.Time {
		return start.Add(-40 * time.Hour)
	})

	sent, err := svc.RunSweep(context.Background(), DefaultWithin)
	require.Error(t, err)
	assert.Zero(t, sent)

	email.err = nil
	sent, err = svc.RunSweep(context.Background(), DefaultWithin)
	require.NoError(t, err)
	assert.Equal(t, 1, sent, "a failed stage is due again on the next sweep")
}

func TestRunSweepListFailure(t *testing.T) {
	src := &stubSource{err: errors.New("db down")}
	svc := NewService(src, &recordingEmail{}, &recordingSMS{}, nil)

	sent, err := svc.RunSweep(context.Background(), DefaultWithin)
	require.Error(t, err)
	assert.Zero(t, sent)
}
