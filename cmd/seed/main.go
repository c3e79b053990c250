package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	appconfig "github.com/clinicflow/scheduler/internal/config"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	numDays := flag.Int("days", 5, "number of schedule days to seed")
	slotsPerDay := flag.Int("slots", 4, "free slots per doctor per day")
	numPatients := flag.Int("patients", 20, "demo patients to seed")
	flag.Parse()

	_ = godotenv.Load()
	cfg := appconfig.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedPatients(ctx, pool, *numPatients); err != nil {
		log.Fatalf("seed patients: %v", err)
	}
	if err := seedSchedules(ctx, pool, *numDays, *slotsPerDay); err != nil {
		log.Fatalf("seed schedules: %v", err)
	}

	log.Println("seed complete")
}

// seedPatients inserts demo patients. Roughly half get a recent last visit so
// both classifications show up in demos.
func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d patients", count)

	doctors := []string{"Dr. Patel", "Dr. Lee", "General Physician"}
	carriers := []string{"Aetna", "BlueCross", "Cigna", "UnitedHealth"}
	locations := []string{"Clinic A", "Clinic B"}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM patients`); err != nil {
		return err
	}

	for i := 0; i < count; i++ {
		mrn := fmt.Sprintf("MRN-%05d", i+1)
		dob := gofakeit.DateRange(
			time.Date(1940, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2005, 12, 31, 0, 0, 0, 0, time.UTC),
		).Format("2006-01-02")

		var lastVisit any
		if i%2 == 0 {
			daysAgo := gofakeit.Number(10, 1500)
			lastVisit = time.Now().UTC().AddDate(0, 0, -daysAgo).Format("2006-01-02")
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO patients (
				mrn, name, dob, email, phone, insurance_carrier,
				insurance_member_id, insurance_group, doctor, preferred_location, last_visit
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`,
			mrn,
			gofakeit.Name(),
			dob,
			gofakeit.Email(),
			gofakeit.Phone(),
			carriers[gofakeit.Number(0, len(carriers)-1)],
			fmt.Sprintf("MEM%06d", gofakeit.Number(100000, 999999)),
			fmt.Sprintf("GRP%03d", gofakeit.Number(100, 999)),
			doctors[gofakeit.Number(0, len(doctors)-1)],
			locations[gofakeit.Number(0, len(locations)-1)],
			lastVisit,
		)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	log.Println("patients seeded")
	return nil
}

// seedSchedules fills doctor_schedules with a days x doctors x slots grid of
// free 30-minute slots starting at 09:00.
func seedSchedules(ctx context.Context, pool *pgxpool.Pool, numDays, slotsPerDay int) error {
	doctors := map[string]string{
		"D001": "Clinic A",
		"D002": "Clinic B",
	}
	log.Printf("seeding %d slots", numDays*slotsPerDay*len(doctors))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM doctor_schedules`); err != nil {
		return err
	}

	now := time.Now().UTC()
	base := time.Date(now.Year(), now.Month(), now.Day(), 9, 0, 0, 0, time.UTC)

	for day := 0; day < numDays; day++ {
		for doc, location := range doctors {
			for slot := 0; slot < slotsPerDay; slot++ {
				start := base.AddDate(0, 0, day).Add(time.Duration(slot) * time.Hour)
				end := start.Add(30 * time.Minute)
				_, err := tx.Exec(ctx, `
					INSERT INTO doctor_schedules (doctor_id, clinic_location, start_dt, end_dt, status)
					VALUES ($1, $2, $3, $4, 'free')
				`, doc, location, start, end)
				if err != nil {
					return err
				}
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	log.Println("schedules seeded")
	return nil
}
