// Package api exposes the HTTP surface of the scheduler: intake parsing,
// pipeline runs, the Calendly webhook receiver, health, and metrics.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.opentelemetry.io/otel"

	"github.com/clinicflow/scheduler/internal/booking"
	"github.com/clinicflow/scheduler/internal/patients"
	"github.com/clinicflow/scheduler/internal/pipeline"
	"github.com/clinicflow/scheduler/pkg/logging"
)

var tracer = otel.Tracer("scheduler.internal.api")

// RecordParser structures free text into a patient record.
type RecordParser interface {
	Parse(ctx context.Context, request string) (patients.PatientRecord, error)
}

// PipelineRunner executes one full intake-to-notification run.
type PipelineRunner interface {
	Run(ctx context.Context, in pipeline.State) (pipeline.State, error)
}

// Handler serves the intake and appointment endpoints.
type Handler struct {
	parser RecordParser
	runner PipelineRunner
	logger *logging.Logger
}

func NewHandler(parser RecordParser, runner PipelineRunner, logger *logging.Logger) *Handler {
	if parser == nil {
		panic("api: parser required")
	}
	if runner == nil {
		panic("api: runner required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{parser: parser, runner: runner, logger: logger}
}

type parseRequest struct {
	Request string `json:"request"`
}

type appointmentRequest struct {
	Request string                 `json:"request,omitempty"`
	Patient patients.PatientRecord `json:"patient,omitempty"`
}

// ParseIntake handles POST /intake/parse. It structures the request text and
// returns the record for human confirmation without touching any store.
func (h *Handler) ParseIntake(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "api.intake.parse")
	defer span.End()

	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		span.RecordError(err)
		return
	}
	if req.Request == "" {
		writeError(w, http.StatusBadRequest, "request text required")
		return
	}

	record, err := h.parser.Parse(ctx, req.Request)
	if err != nil {
		h.logger.Error("intake parse failed", "error", err)
		writeError(w, http.StatusBadGateway, "extraction service unavailable")
		span.RecordError(err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// CreateAppointment handles POST /appointments: one pipeline run from either
// free text or an already-structured record, returning the final state.
func (h *Handler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "api.appointments.create")
	defer span.End()

	var req appointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		span.RecordError(err)
		return
	}

	state := pipeline.State{Patient: req.Patient}
	if req.Request != "" {
		state.Patient.Request = req.Request
	}
	if state.Patient.Request == "" && state.Patient.Name == "" && state.Patient.MRN == "" {
		writeError(w, http.StatusBadRequest, "request text or patient record required")
		return
	}

	out, err := h.runner.Run(ctx, state)
	if err != nil {
		span.RecordError(err)
		switch {
		case errors.Is(err, patients.ErrMissingIdentity):
			writeError(w, http.StatusBadRequest, "provide an MRN or both name and date of birth")
		case errors.Is(err, booking.ErrNoSlotsAvailable):
			writeError(w, http.StatusConflict, "no free slots available")
		case errors.Is(err, booking.ErrNoMatchingEventType):
			writeError(w, http.StatusConflict, "no matching event type for appointment duration")
		default:
			h.logger.Error("pipeline run failed", "request_id", out.RequestID, "error", err)
			writeError(w, http.StatusInternalServerError, "appointment processing failed")
		}
		return
	}

	writeJSON(w, http.StatusCreated, out)
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
