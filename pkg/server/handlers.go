package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"arbiter-hq/arbiter/pkg/gateway"
	"arbiter-hq/arbiter/pkg/provenance"
)

// errorBody is the JSON envelope for error responses.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// handleDecide serves POST /v1/decisions.
func (s *Server) handleDecide(w http.ResponseWriter, r *http.Request) {
	var req gateway.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body is not valid JSON")
		return
	}

	result, err := s.gateway.Decide(r.Context(), &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	writeJSON(w, statusFor(result), result)
}

// statusFor maps a pipeline result to an HTTP status. Decisions of every
// kind are successful responses; only pre-evaluation rejections and
// internal faults use error statuses.
func statusFor(result *gateway.Result) int {
	if result.Status == gateway.StatusDecided {
		if result.ReasonCode == gateway.ReasonInternalFault {
			return http.StatusServiceUnavailable
		}
		return http.StatusOK
	}

	switch result.ReasonCode {
	case gateway.ReasonNonceRequired:
		return http.StatusUnauthorized
	case gateway.ReasonReplay:
		return http.StatusConflict
	default:
		return http.StatusServiceUnavailable
	}
}

// handleIssueNonce serves POST /v1/nonces.
func (s *Server) handleIssueNonce(w http.ResponseWriter, r *http.Request) {
	n, err := s.gateway.IssueNonce(r.Context())
	if err != nil {
		s.logger.Error("nonce issuance failed", "error", err, "request_id", requestID(r.Context()))
		writeError(w, http.StatusServiceUnavailable, "nonce_unavailable", "could not issue a token")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"nonce":      n.Token,
		"issued_at":  n.IssuedAt,
		"expires_at": n.ExpiresAt,
	})
}

// handleTrace serves GET /v1/traces/{id}. The response carries the full
// chain together with the verification verdict; a broken chain is still a
// 200 because the read itself succeeded.
func (s *Server) handleTrace(w http.ResponseWriter, r *http.Request) {
	traceID := r.PathValue("id")
	if traceID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "trace id is required")
		return
	}

	report, err := s.gateway.Trace(r.Context(), traceID)
	if err != nil {
		var storageErr *provenance.StorageError
		if errors.As(err, &storageErr) {
			s.logger.Error("trace read failed", "trace_id", traceID, "error", err)
			writeError(w, http.StatusServiceUnavailable, "ledger_unavailable", "could not read the trace")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}

	if len(report.Events) == 0 {
		writeError(w, http.StatusNotFound, "trace_not_found", "no events recorded for this trace")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// handleHealth serves GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
