package handler

import (
	"encoding/json"
	"net/http"

	"github.com/pkordes/tourdesk/internal/domain"
)

// Envelope is the body of every successful response. Status is "ok" or
// "partial_failure"; Failures lists the side effects that did not complete.
type Envelope struct {
	Success    bool                       `json:"success"`
	Status     domain.OutcomeStatus       `json:"status"`
	Data       any                        `json:"data,omitempty"`
	Pagination *Pagination                `json:"pagination,omitempty"`
	Warnings   []domain.FieldWarning      `json:"warnings,omitempty"`
	Failures   []domain.SideEffectFailure `json:"failures,omitempty"`
}

// Pagination describes the page returned by a list endpoint.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, body ErrorResponse) {
	writeJSON(w, status, body)
}

// writeData wraps data in a successful envelope carrying out's status.
func writeData(w http.ResponseWriter, status int, data any, out domain.Outcome, warnings []domain.FieldWarning) {
	writeJSON(w, status, Envelope{
		Success:  true,
		Status:   out.Status(),
		Data:     data,
		Warnings: warnings,
		Failures: out.Failures,
	})
}

// fail maps err to a response, logging anything that is not a caller error.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	status, body := statusFor(err, notFound)
	if status == http.StatusInternalServerError {
		s.log.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeError(w, status, body)
}
