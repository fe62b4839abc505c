package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"payflow/internal/logging"
	"payflow/internal/request"
	"payflow/internal/workflow"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var payload submitPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return
	}
	ctx := r.Context()

	key := strings.TrimSpace(payload.DeliveryID)
	if key != "" && s.dedup != nil {
		code, seen, err := s.dedup.Lookup(ctx, key)
		if err != nil {
			logging.FromContext(ctx, s.logger).Warn("delivery lookup failed", logging.Error(err))
		} else if seen {
			existing, err := s.engine.Get(ctx, code)
			if err != nil {
				s.writeEngineError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, submitResponse{
				Code:      existing.Code,
				Status:    string(existing.Status),
				Announced: true,
				Replay:    true,
			})
			return
		}
	}

	result, err := s.engine.Submit(ctx, workflow.SubmitInput{
		RequesterID:   payload.RequesterID,
		RequesterTag:  payload.RequesterTag,
		OriginSurface: payload.OriginSurface,
		Amount:        payload.Amount,
		Purpose:       payload.Purpose,
		Note:          payload.Note,
		EvidenceRefs:  payload.EvidenceRefs,
	})
	if err != nil && result == nil {
		submissionsTotal.WithLabelValues("rejected").Inc()
		s.writeEngineError(w, err)
		return
	}

	if key != "" && s.dedup != nil {
		if recordErr := s.dedup.Record(ctx, key, result.Code); recordErr != nil {
			logging.FromContext(ctx, s.logger).Warn("delivery record failed", logging.Error(recordErr))
		}
	}

	response := submitResponse{
		Code:      result.Code,
		Status:    string(request.StatusPending),
		Announced: result.Announced,
	}
	status := http.StatusCreated
	if err != nil {
		// Row persisted, review posting failed. The caller should retry the
		// announcement, not the submission.
		submissionsTotal.WithLabelValues("accepted_unannounced").Inc()
		response.Warning = err.Error()
		status = http.StatusAccepted
	} else {
		submissionsTotal.WithLabelValues("accepted").Inc()
	}
	writeJSON(w, status, response)
}

func (s *Server) handleDecision(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	var payload decisionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return
	}
	outcome, ok := workflow.ParseOutcome(payload.Outcome)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "outcome must be approved or rejected"})
		return
	}

	result, err := s.engine.Decide(r.Context(), workflow.DecideInput{
		Code:     code,
		ActorID:  payload.ActorID,
		ActorTag: payload.ActorTag,
		Roles:    payload.Roles,
		Outcome:  outcome,
		Reason:   payload.Reason,
	})
	if err != nil && result == nil {
		decisionsTotal.WithLabelValues(string(outcome), "failed").Inc()
		s.writeEngineError(w, err)
		return
	}

	decisionsTotal.WithLabelValues(string(outcome), "applied").Inc()
	warning := ""
	if err != nil {
		warning = err.Error()
	}
	writeJSON(w, http.StatusOK, decisionViewOf(result, warning))
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	var payload withdrawPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return
	}

	withdrawn, err := s.engine.Withdraw(r.Context(), workflow.WithdrawInput{
		Code:        code,
		RequesterID: payload.RequesterID,
	})
	if err != nil && withdrawn == nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(withdrawn))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	req, err := s.engine.Get(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(req))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	items, err := s.engine.List(r.Context())
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	var statusFilter request.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, ok := request.ParseStatus(raw)
		if !ok {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown status " + raw})
			return
		}
		statusFilter = parsed
	}

	views := make([]requestView, 0, len(items))
	for _, item := range items {
		if statusFilter != "" && item.Status != statusFilter {
			continue
		}
		views = append(views, viewOf(item))
	}
	writeJSON(w, http.StatusOK, listResponse{Requests: views, Count: len(views)})
}

// writeEngineError maps the engine's error taxonomy onto HTTP status codes.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	var decided *workflow.AlreadyDecidedError
	switch {
	case errors.As(err, &decided):
		writeJSON(w, http.StatusConflict, errorResponse{
			Error:         err.Error(),
			SettledStatus: string(decided.Status),
		})
	case errors.Is(err, workflow.ErrAlreadyDecided):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, workflow.ErrInvalidEvidence), errors.Is(err, workflow.ErrReasonRequired):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, workflow.ErrUnauthorized):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, workflow.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, workflow.ErrStoreUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
