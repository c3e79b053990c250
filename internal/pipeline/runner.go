package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/clinicflow/scheduler/internal/booking"
	"github.com/clinicflow/scheduler/internal/observability/metrics"
	"github.com/clinicflow/scheduler/internal/patients"
	"github.com/clinicflow/scheduler/pkg/logging"
)

var tracer = otel.Tracer("scheduler.internal.pipeline")

// RecordParser structures free-text requests into patient records.
type RecordParser interface {
	Parse(ctx context.Context, request string) (patients.PatientRecord, error)
}

// PatientLookup resolves and classifies patients against the store.
type PatientLookup interface {
	Lookup(ctx context.Context, q patients.LookupQuery) (patients.LookupResult, error)
}

// BookingNotifier sends the post-booking email and SMS.
type BookingNotifier interface {
	NotifyBooking(ctx context.Context, patient patients.PatientRecord, b booking.Booking) error
}

// Runner executes the intake pipeline: parse, look up, book, notify. Runs are
// independent; the only shared state is whatever store the booker uses.
type Runner struct {
	parser   RecordParser
	lookup   PatientLookup
	booker   booking.Booker
	notifier BookingNotifier
	metrics  *metrics.PipelineMetrics
	logger   *logging.Logger
}

func NewRunner(parser RecordParser, lookup PatientLookup, booker booking.Booker, notifier BookingNotifier, m *metrics.PipelineMetrics, logger *logging.Logger) *Runner {
	if parser == nil {
		panic("pipeline: parser required")
	}
	if lookup == nil {
		panic("pipeline: lookup required")
	}
	if booker == nil {
		panic("pipeline: booker required")
	}
	if notifier == nil {
		panic("pipeline: notifier required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Runner{parser: parser, lookup: lookup, booker: booker, notifier: notifier, metrics: m, logger: logger}
}

// Run drives the four stages in order. The first stage error aborts the run;
// there is no retry and no rollback of earlier stages.
func (r *Runner) Run(ctx context.Context, in State) (State, error) {
	if in.RequestID == "" {
		in.RequestID = uuid.NewString()
	}
	ctx, span := tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("request.id", in.RequestID),
	))
	defer span.End()

	log := r.logger.With("request_id", in.RequestID)

	state, err := r.runStage(ctx, "intake", in, r.intakeStage)
	if err != nil {
		span.RecordError(err)
		return state, err
	}
	state, err = r.runStage(ctx, "lookup", state, r.lookupStage)
	if err != nil {
		span.RecordError(err)
		return state, err
	}
	state, err = r.runStage(ctx, "booking", state, r.bookingStage)
	if err != nil {
		span.RecordError(err)
		return state, err
	}
	state, err = r.runStage(ctx, "notify", state, r.notifyStage)
	if err != nil {
		span.RecordError(err)
		return state, err
	}

	r.metrics.ObserveRun(string(state.Booking.Status), string(state.Lookup.Classification))
	log.Info("pipeline complete",
		"patient", state.Patient.Name,
		"classification", state.Lookup.Classification,
		"booking_status", state.Booking.Status,
	)
	return state, nil
}

func (r *Runner) runStage(ctx context.Context, name string, in State, fn func(context.Context, State) (State, error)) (State, error) {
	ctx, span := tracer.Start(ctx, "pipeline."+name)
	defer span.End()

	start := time.Now()
	out, err := fn(ctx, in)
	r.metrics.ObserveStageLatency(name, time.Since(start).Seconds())
	if err != nil {
		r.metrics.ObserveStageFailure(name)
		span.RecordError(err)
		return out, fmt.Errorf("pipeline: %s: %w", name, err)
	}
	return out, nil
}

// intakeStage structures the carried free text, if any. A record with no
// pending Request passes through untouched.
func (r *Runner) intakeStage(ctx context.Context, in State) (State, error) {
	if in.Patient.Request == "" {
		return in, nil
	}
	parsed, err := r.parser.Parse(ctx, in.Patient.Request)
	if err != nil {
		return in, err
	}
	merged := in.Patient.Merge(parsed)
	merged.Request = ""
	return in.withPatient(merged), nil
}

func (r *Runner) lookupStage(ctx context.Context, in State) (State, error) {
	result, err := r.lookup.Lookup(ctx, patients.LookupQuery{
		Name: in.Patient.Name,
		DOB:  in.Patient.DOB,
		MRN:  in.Patient.MRN,
	})
	if err != nil {
		return in, err
	}
	// Store echoes only fill gaps the intake left. The requested doctor and
	// location stay authoritative; the lookup default doctor must not win.
	out := in.withLookup(result)
	if result.Found {
		out = out.withPatient(out.Patient.FillEmpty(patients.PatientRecord{
			MRN:               result.MRN,
			Email:             result.Email,
			Phone:             result.Phone,
			Doctor:            result.Doctor,
			Location:          result.PreferredLocation,
			InsuranceCarrier:  result.InsuranceCarrier,
			InsuranceMemberID: result.InsuranceMemberID,
			InsuranceGroup:    result.InsuranceGroup,
		}))
	}
	return out, nil
}

func (r *Runner) bookingStage(ctx context.Context, in State) (State, error) {
	b, err := r.booker.Book(ctx, in.Patient, *in.Lookup)
	if err != nil {
		return in, err
	}
	return in.withBooking(b), nil
}

func (r *Runner) notifyStage(ctx context.Context, in State) (State, error) {
	if err := r.notifier.NotifyBooking(ctx, in.Patient, *in.Booking); err != nil {
		return in, err
	}
	return in.withNotified(), nil
}
