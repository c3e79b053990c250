package patients

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clinicflow/scheduler/pkg/logging"
)

// Patients who visited within this window count as returning.
const returningWindowDays = 730

// ErrMissingIdentity indicates the caller supplied neither an MRN nor a
// (name, dob) pair. This is the lookup precondition, never retried.
var ErrMissingIdentity = errors.New("patients: provide either mrn or both name and dob")

// DefaultDoctor is used when the stored patient has no doctor on file.
const DefaultDoctor = "General Physician"

// Store is the read-only patient lookup contract.
type Store interface {
	FindByMRN(ctx context.Context, mrn string) (*StoredPatient, error)
	FindByNameDOB(ctx context.Context, name, dob string) (*StoredPatient, error)
}

// LookupQuery identifies a patient. MRN takes precedence when both are set.
type LookupQuery struct {
	Name string
	DOB  string
	MRN  string
}

// Service resolves patient records and classifies them as new or returning.
type Service struct {
	store  Store
	logger *logging.Logger
	now    func() time.Time
}

// NewService constructs a lookup service.
func NewService(store Store, logger *logging.Logger) *Service {
	if store == nil {
		panic("patients: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// Lookup resolves the query against the store. A missing patient is a normal
// outcome: Found=false, Classification=new, nil error.
func (s *Service) Lookup(ctx context.Context, q LookupQuery) (LookupResult, error) {
	mrn := strings.TrimSpace(q.MRN)
	name := strings.TrimSpace(q.Name)
	dob := strings.TrimSpace(q.DOB)

	if mrn == "" && (name == "" || dob == "") {
		return LookupResult{}, ErrMissingIdentity
	}

	var (
		stored *StoredPatient
		err    error
	)
	if mrn != "" {
		stored, err = s.store.FindByMRN(ctx, mrn)
	} else {
		stored, err = s.store.FindByNameDOB(ctx, name, dob)
	}
	if errors.Is(err, ErrPatientNotFound) {
		s.logger.Info("patient not found, treating as new", "mrn", mrn, "name", name)
		return LookupResult{
			Found:          false,
			Classification: ClassificationNew,
			Reason:         "not found in store, treat as new patient",
		}, nil
	}
	if err != nil {
		return LookupResult{}, fmt.Errorf("patients: lookup: %w", err)
	}

	classification, reason := s.classify(stored.LastVisit)

	doctor := stored.Doctor
	if doctor == "" {
		doctor = DefaultDoctor
	}

	return LookupResult{
		Found:             true,
		Classification:    classification,
		Reason:            reason,
		MRN:               stored.MRN,
		Name:              stored.Name,
		DOB:               stored.DOB,
		Email:             stored.Email,
		Phone:             stored.Phone,
		InsuranceCarrier:  stored.InsuranceCarrier,
		InsuranceMemberID: stored.InsuranceMemberID,
		InsuranceGroup:    stored.InsuranceGroup,
		Doctor:            doctor,
		PreferredLocation: stored.PreferredLocation,
		LastVisit:         stored.LastVisit,
	}, nil
}

// classify applies the 730-day recency window. An unparsable last-visit date
// classifies as new with a diagnostic reason instead of failing.
func (s *Service) classify(lastVisit string) (Classification, string) {
	if strings.TrimSpace(lastVisit) == "" {
		return ClassificationNew, "no visit record"
	}

	visited, err := time.Parse("2006-01-02", lastVisit)
	if err != nil {
		return ClassificationNew, fmt.Sprintf("invalid last_visit format: %v", err)
	}

	// Compare calendar dates: a visit exactly 730 days ago still counts.
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	cutoff := today.AddDate(0, 0, -returningWindowDays)
	if !visited.Before(cutoff) {
		return ClassificationReturning, "visited within last 24 months"
	}
	return ClassificationNew, "last visit more than 24 months ago"
}
