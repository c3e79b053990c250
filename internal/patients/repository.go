package patients

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrPatientNotFound indicates the patient is not present in the store.
var ErrPatientNotFound = errors.New("patients: not found")

// Querier is the subset of pgxpool.Pool used by the repository, so pgxmock
// pools can stand in for tests.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const patientColumns = `mrn, name, dob, email, phone, insurance_carrier,
	       insurance_member_id, insurance_group, doctor, preferred_location,
	       COALESCE(last_visit, '')`

// Repository reads patients from Postgres. The pipeline never writes here.
type Repository struct {
	db Querier
}

// NewRepository creates a patients repository.
func NewRepository(db Querier) *Repository {
	if db == nil {
		panic("patients: querier required")
	}
	return &Repository{db: db}
}

// FindByMRN looks a patient up by medical record number.
func (r *Repository) FindByMRN(ctx context.Context, mrn string) (*StoredPatient, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE mrn = $1
	`, mrn)
	return scanPatient(row)
}

// FindByNameDOB looks a patient up by exact name and date of birth.
func (r *Repository) FindByNameDOB(ctx context.Context, name, dob string) (*StoredPatient, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE name = $1 AND dob = $2
	`, name, dob)
	return scanPatient(row)
}

func scanPatient(row pgx.Row) (*StoredPatient, error) {
	var p StoredPatient
	err := row.Scan(
		&p.MRN,
		&p.Name,
		&p.DOB,
		&p.Email,
		&p.Phone,
		&p.InsuranceCarrier,
		&p.InsuranceMemberID,
		&p.InsuranceGroup,
		&p.Doctor,
		&p.PreferredLocation,
		&p.LastVisit,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("patients: scan: %w", err)
	}
	return &p, nil
}
