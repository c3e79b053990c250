package patients

import (
	"context"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func patientRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"mrn", "name", "dob", "email", "phone", "insurance_carrier",
		"insurance_member_id", "insurance_group", "doctor", "preferred_location",
		"last_visit",
	})
}

func TestFindByMRN(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM patients").
		WithArgs("MRN001").
		WillReturnRows(patientRows().AddRow(
			"MRN001", "Jane Smith", "1990-03-12", "jane@example.com", "+15550001111",
			"Blue Cross", "BC789456", "GRP7890", "Dr. Johnson", "Clinic A", "2025-05-01",
		))

	repo := NewRepository(mock)
	p, err := repo.FindByMRN(context.Background(), "MRN001")
	require.NoError(t, err)
	assert.Equal(t, "Jane Smith", p.Name)
	assert.Equal(t, "2025-05-01", p.LastVisit)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByNameDOBNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM patients").
		WithArgs("Nobody", "1900-01-01").
		WillReturnRows(patientRows())

	repo := NewRepository(mock)
	_, err = repo.FindByNameDOB(context.Background(), "Nobody", "1900-01-01")
	assert.ErrorIs(t, err, ErrPatientNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
