package appointments

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the pgx surface the repository needs; pgxmock satisfies it.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository persists booked appointments.
type Repository struct {
	db Querier
}

// NewRepository creates an appointments repository.
func NewRepository(db Querier) *Repository {
	if db == nil {
		panic("appointments: querier required")
	}
	return &Repository{db: db}
}

// Insert appends a booking record and returns its id.
func (r *Repository) Insert(ctx context.Context, a Appointment) (int64, error) {
	if a.Status == "" {
		a.Status = StatusConfirmed
	}
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO appointments (
			patient_name, patient_email, patient_phone, dob, doctor, location,
			start_time, end_time, duration_minutes, booking_url, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`,
		a.PatientName, a.PatientEmail, a.PatientPhone, a.DOB, a.Doctor, a.Location,
		a.StartTime, a.EndTime, a.DurationMinutes, a.BookingURL, a.Status,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("appointments: insert: %w", err)
	}
	return id, nil
}

// CancelByEmail marks every appointment for the invitee email as canceled.
// Calendly cancel payloads carry the invitee, not our row id.
func (r *Repository) CancelByEmail(ctx context.Context, email string) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE appointments
		SET status = 'canceled'
		WHERE patient_email = $1
	`, email)
	if err != nil {
		return 0, fmt.Errorf("appointments: cancel by email: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListUpcoming returns confirmed appointments starting within the window.
func (r *Repository) ListUpcoming(ctx context.Context, now time.Time, within time.Duration) ([]Summary, error) {
	cutoff := now.Add(within)
	rows, err := r.db.Query(ctx, `
		SELECT id, patient_name, COALESCE(patient_email, ''), COALESCE(patient_phone, ''),
		       start_time, COALESCE(location, '')
		FROM appointments
		WHERE status = 'confirmed'
		  AND start_time IS NOT NULL
		  AND start_time >= $1
		  AND start_time < $2
		ORDER BY start_time
	`, now, cutoff)
	if err != nil {
		return nil, fmt.Errorf("appointments: list upcoming: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.PatientName, &s.Email, &s.Phone, &s.StartTime, &s.Location); err != nil {
			return nil, fmt.Errorf("appointments: scan summary: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: iterate summaries: %w", err)
	}
	return out, nil
}
