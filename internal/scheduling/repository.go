package scheduling

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

// Repository owns the local fallback slot store.
type Repository struct {
	db Querier
}

// NewRepository creates a slot repository.
func NewRepository(db Querier) *Repository {
	if db == nil {
		panic("scheduling: querier required")
	}
	return &Repository{db: db}
}

// FreeSlots returns up to limit free slots starting before the cutoff, in
// insertion order.
func (r *Repository) FreeSlots(ctx context.Context, before time.Time, limit int) ([]Slot, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, doctor_id, clinic_location, start_dt, end_dt
		FROM doctor_schedules
		WHERE status = 'free' AND start_dt < $1
		ORDER BY id
		LIMIT $2
	`, before, limit)
	if err != nil {
		return nil, fmt.Errorf("scheduling: query free slots: %w", err)
	}
	defer rows.Close()

	var slots []Slot
	for rows.Next() {
		var s Slot
		if err := rows.Scan(&s.ID, &s.DoctorID, &s.Location, &s.Start, &s.End); err != nil {
			return nil, fmt.Errorf("scheduling: scan slot: %w", err)
		}
		s.Status = SlotFree
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scheduling: iterate slots: %w", err)
	}
	return slots, nil
}

// Claim transitions a slot from free to booked. The update is conditional on
// the slot still being free, so of two concurrent claims exactly one sees
// true; a read-then-write pair here would break the at-most-once guarantee.
func (r *Repository) Claim(ctx context.Context, slotID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE doctor_schedules
		SET status = 'booked'
		WHERE id = $1 AND status = 'free'
	`, slotID)
	if err != nil {
		return false, fmt.Errorf("scheduling: claim slot %d: %w", slotID, err)
	}
	return tag.RowsAffected() > 0, nil
}
