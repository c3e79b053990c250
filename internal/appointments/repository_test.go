package appointments

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertDefaultsToConfirmed(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	start := time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)

	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs("Jane Smith", "jane@example.com", "+15550001111", "1990-03-12",
			"Dr. Johnson", "Clinic A", &start, &end, 30, "", StatusConfirmed).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))

	repo := NewRepository(mock)
	id, err := repo.Insert(context.Background(), Appointment{
		PatientName:     "Jane Smith",
		PatientEmail:    "jane@example.com",
		PatientPhone:    "+15550001111",
		DOB:             "1990-03-12",
		Doctor:          "Dr. Johnson",
		Location:        "Clinic A",
		StartTime:       &start,
		EndTime:         &end,
		DurationMinutes: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelByEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("UPDATE appointments").
		WithArgs("jane@example.com").
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))

	repo := NewRepository(mock)
	n, err := repo.CancelByEmail(context.Background(), "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListUpcomingWindow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC)
	start := now.Add(5 * time.Hour)

	mock.ExpectQuery("SELECT id, patient_name").
		WithArgs(now, now.Add(48*time.Hour)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "patient_name", "patient_email", "patient_phone", "start_time", "location"}).
			AddRow(int64(1), "Jane Smith", "jane@example.com", "+15550001111", start, "Clinic A"))

	repo := NewRepository(mock)
	out, err := repo.ListUpcoming(context.Background(), now, 48*time.Hour)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Jane Smith", out[0].PatientName)
	require.NoError(t, mock.ExpectationsWereMet())
}
