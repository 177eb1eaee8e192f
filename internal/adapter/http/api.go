package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/couchcryptid/crisis-triage-service/internal/domain"
	"github.com/couchcryptid/crisis-triage-service/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 20

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (s *Server) handleCrises(w http.ResponseWriter, r *http.Request) {
	crises, err := s.service.Crises(r.Context())
	if err != nil {
		s.logger.Error("list crises failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, crises)
}

func (s *Server) handleResources(w http.ResponseWriter, r *http.Request) {
	resources, err := s.service.Resources(r.Context())
	if err != nil {
		s.logger.Error("list resources failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, resources)
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	recs, err := s.service.Recommend(r.Context(), id)
	switch {
	case errors.Is(err, pipeline.ErrCrisisNotFound):
		writeError(w, http.StatusNotFound, "Crisis not found")
	case err != nil:
		s.logger.Error("recommend failed", "crisis_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		sharedobs.WriteJSON(w, http.StatusOK, recs)
	}
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var d domain.Decision
	if err := decodeBody(w, r, &d); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := d.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	d.ID = uuid.NewString()
	d.DecidedAt = s.clock.Now().UTC()

	if err := s.audit.RecordDecision(r.Context(), d); err != nil {
		s.metrics.AuditEvents.WithLabelValues("decision", "error").Inc()
		s.logger.Error("record decision failed", "decision_id", d.ID, "crisis_id", d.CrisisID, "error", err)
		writeError(w, http.StatusInternalServerError, "decision could not be recorded")
		return
	}
	s.metrics.AuditEvents.WithLabelValues("decision", "success").Inc()

	sharedobs.WriteJSON(w, http.StatusOK, statusResponse{
		Status:  "success",
		Message: fmt.Sprintf("Action '%s' recorded. Awaiting final operational sign-off.", d.Action),
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	var report domain.ManualReport
	if err := decodeBody(w, r, &report); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := report.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	report.ID = uuid.NewString()
	report.ReceivedAt = s.clock.Now().UTC()

	if err := s.audit.RecordReport(r.Context(), report); err != nil {
		s.metrics.AuditEvents.WithLabelValues("report", "error").Inc()
		s.logger.Error("record report failed", "report_id", report.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "report could not be recorded")
		return
	}
	s.metrics.AuditEvents.WithLabelValues("report", "success").Inc()

	sharedobs.WriteJSON(w, http.StatusOK, statusResponse{
		Status:  "success",
		Message: "Crisis reported. Status set to 'Awaiting Verification'.",
		Data:    report,
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
