package booking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicflow/scheduler/internal/calendly"
	"github.com/clinicflow/scheduler/internal/patients"
)

type stubProvider struct {
	eventTypes []calendly.EventType
	link       string
	linkCalls  int
	linkedURI  string
}

func (s *stubProvider) ListEventTypes(ctx context.Context, userURI string) ([]calendly.EventType, error) {
	return s.eventTypes, nil
}

func (s *stubProvider) CreateSchedulingLink(ctx context.Context, eventTypeURI string) (string, error) {
	s.linkCalls++
	s.linkedURI = eventTypeURI
	return s.link, nil
}

func TestProviderIssuesPendingBooking(t *testing.T) {
	provider := &stubProvider{
		eventTypes: []calendly.EventType{
			{URI: "et/15", Name: "15 Minute Intro"},
			{URI: "et/60", Name: "60 Minute Meeting"},
		},
		link: "https://calendly.com/d/new-60",
	}
	booker := NewProviderBooker(provider, nil)

	got, err := booker.Book(context.Background(), patients.PatientRecord{Name: "Jane Smith"},
		patients.LookupResult{Classification: patients.ClassificationNew})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, StartTimeTBD, got.StartTime)
	assert.Equal(t, 60, got.DurationMinutes)
	assert.Equal(t, "https://calendly.com/d/new-60", got.BookingURL)
	assert.Equal(t, "et/60", provider.linkedURI)
}

func TestProviderNoMatchSkipsLinkCreation(t *testing.T) {
	provider := &stubProvider{
		eventTypes: []calendly.EventType{
			{URI: "et/15", Name: "15 Minute Intro"},
		},
	}
	booker := NewProviderBooker(provider, nil)

	_, err := booker.Book(context.Background(), patients.PatientRecord{},
		patients.LookupResult{Classification: patients.ClassificationReturning})
	assert.ErrorIs(t, err, ErrNoMatchingEventType)
	assert.Zero(t, provider.linkCalls, "no network call to create a link on a failed match")
}

func TestMatchEventType(t *testing.T) {
	tests := []struct {
		name       string
		eventTypes []calendly.EventType
		duration   int
		wantURI    string
	}{
		{
			name: "explicit duration field wins over substring",
			eventTypes: []calendly.EventType{
				{URI: "et/130", Name: "130 Minute Special"},
				{URI: "et/30", Name: "Standard Visit", Duration: 30},
			},
			duration: 30,
			wantURI:  "et/30",
		},
		{
			name: "substring match on display name",
			eventTypes: []calendly.EventType{
				{URI: "et/a", Name: "Intro Call"},
				{URI: "et/b", Name: "30 Minute Meeting"},
			},
			duration: 30,
			wantURI:  "et/b",
		},
		{
			name: "no match",
			eventTypes: []calendly.EventType{
				{URI: "et/a", Name: "Intro Call"},
			},
			duration: 30,
			wantURI:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matchEventType(tt.eventTypes, tt.duration)
			if tt.wantURI == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantURI, got.URI)
		})
	}
}
