package scheduling

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreeSlotsPreservesIDOrder(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	start := time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC)
	cutoff := start.AddDate(0, 0, 7)

	mock.ExpectQuery("SELECT id, doctor_id, clinic_location, start_dt, end_dt").
		WithArgs(cutoff, 5).
		WillReturnRows(pgxmock.NewRows([]string{"id", "doctor_id", "clinic_location", "start_dt", "end_dt"}).
			AddRow(int64(1), "D001", "Clinic A", start, start.Add(30*time.Minute)).
			AddRow(int64(2), "D002", "Clinic B", start.Add(time.Hour), start.Add(90*time.Minute)))

	repo := NewRepository(mock)
	slots, err := repo.FreeSlots(context.Background(), cutoff, 5)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, int64(1), slots[0].ID)
	assert.Equal(t, SlotFree, slots[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimReportsWhetherSlotWasStillFree(t *testing.T) {
	t.Run("slot free", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec("UPDATE doctor_schedules").
			WithArgs(int64(7)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		repo := NewRepository(mock)
		claimed, err := repo.Claim(context.Background(), 7)
		require.NoError(t, err)
		assert.True(t, claimed)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("slot already taken", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec("UPDATE doctor_schedules").
			WithArgs(int64(7)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		repo := NewRepository(mock)
		claimed, err := repo.Claim(context.Background(), 7)
		require.NoError(t, err)
		assert.False(t, claimed, "a lost race must surface as claimed=false, not an error")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
