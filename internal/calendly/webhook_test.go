package calendly

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicflow/scheduler/internal/appointments"
	"github.com/clinicflow/scheduler/internal/observability/metrics"
)

type stubAppointments struct {
	inserted []appointments.Appointment
	canceled []string
	err      error
	failures int
}

func (s *stubAppointments) Insert(ctx context.Context, a appointments.Appointment) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	if s.failures > 0 {
		s.failures--
		return 0, errors.New("connection reset")
	}
	s.inserted = append(s.inserted, a)
	return int64(len(s.inserted)), nil
}

func (s *stubAppointments) CancelByEmail(ctx context.Context, email string) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.canceled = append(s.canceled, email)
	return 1, nil
}

func testMetrics() *metrics.PipelineMetrics {
	return metrics.NewPipelineMetrics(prometheus.NewRegistry())
}

const createdPayload = `{
  "event": "invitee.created",
  "payload": {
    "invitee": {
      "uri": "https://api.calendly.com/scheduled_events/EV1/invitees/INV1",
      "name": "Jane Smith",
      "email": "jane@example.com"
    },
    "event": {
      "uri": "https://api.calendly.com/scheduled_events/EV1",
      "start_time": "2026-09-01T09:00:00Z",
      "end_time": "2026-09-01T10:00:00Z"
    }
  }
}`

func TestWebhookInviteeCreatedInsertsAppointment(t *testing.T) {
	store := &stubAppointments{}
	h := NewWebhookHandler(store, nil, testMetrics(), nil)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/calendly", strings.NewReader(createdPayload))
	rec := httptest.NewRecorder()
	h.Receive(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, store.inserted, 1)

	got := store.inserted[0]
	assert.Equal(t, "Jane Smith", got.PatientName)
	assert.Equal(t, "jane@example.com", got.PatientEmail)
	assert.Equal(t, appointments.StatusConfirmed, got.Status)
	require.NotNil(t, got.StartTime)
	assert.Equal(t, time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC), got.StartTime.UTC())
	assert.Equal(t, 60, got.DurationMinutes)
}

func TestWebhookInviteeCanceledMarksCanceled(t *testing.T) {
	store := &stubAppointments{}
	h := NewWebhookHandler(store, nil, testMetrics(), nil)

	payload := `{"event": "invitee.canceled", "payload": {"invitee": {"uri": "https://api.calendly.com/i/1", "email": "jane@example.com"}}}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/calendly", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	h.Receive(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"jane@example.com"}, store.canceled)
	assert.Empty(t, store.inserted)
}

func TestWebhookUnknownEventIgnored(t *testing.T) {
	store := &stubAppointments{}
	h := NewWebhookHandler(store, nil, testMetrics(), nil)

	payload := `{"event": "routing_form_submission.created", "payload": {}}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/calendly", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	h.Receive(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, store.inserted)
	assert.Empty(t, store.canceled)
}

func TestWebhookMalformedBody(t *testing.T) {
	h := NewWebhookHandler(&stubAppointments{}, nil, testMetrics(), nil)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/calendly", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.Receive(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookStoreFailure(t *testing.T) {
	store := &stubAppointments{err: errors.New("db down")}
	h := NewWebhookHandler(store, nil, testMetrics(), nil)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/calendly", strings.NewReader(createdPayload))
	rec := httptest.NewRecorder()
	h.Receive(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestWebhookDuplicateDeliveryDeduped(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	store := &stubAppointments{}
	h := NewWebhookHandler(store, rdb, testMetrics(), nil)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/calendly", strings.NewReader(createdPayload))
		rec := httptest.NewRecorder()
		h.Receive(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	assert.Len(t, store.inserted, 1, "second delivery must be ignored")
}

func TestWebhookRetryAfterStoreFailureProcesses(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	store := &stubAppointments{failures: 1}
	h := NewWebhookHandler(store, rdb, testMetrics(), nil)

	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/calendly", strings.NewReader(createdPayload))
		rec := httptest.NewRecorder()
		h.Receive(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusInternalServerError, post())
	assert.Empty(t, store.inserted)

	// A failed attempt must not hold the dedupe claim; the retried
	// delivery inserts the appointment.
	assert.Equal(t, http.StatusOK, post())
	require.Len(t, store.inserted, 1, "retried delivery must insert the appointment")

	// Once recorded, further redeliveries are still duplicates.
	assert.Equal(t, http.StatusOK, post())
	assert.Len(t, store.inserted, 1)
}

func TestWebhookStatus(t *testing.T) {
	h := NewWebhookHandler(&stubAppointments{}, nil, testMetrics(), nil)

	req := httptest.NewRequest(http.MethodGet, "/webhooks/calendly", nil)
	rec := httptest.NewRecorder()
	h.Status(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "listening")
}
