package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/pkordes/tourdesk/internal/domain"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Status  string      `json:"status"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail names the failure with a stable code and a human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func errorBody(code, message string) ErrorResponse {
	return ErrorResponse{
		Status: string(domain.OutcomeFailed),
		Error:  ErrorDetail{Code: code, Message: message},
	}
}

// notFoundBody returns an ErrorResponse for a missing resource.
// The caller supplies the message because the handler is the layer that
// knows what was being looked up.
func notFoundBody(message string) ErrorResponse {
	return errorBody("not_found", message)
}

// requestBody returns an ErrorResponse for a bad request rejected before
// reaching the service layer (e.g. malformed body or path parameter).
func requestBody(message string) ErrorResponse {
	return errorBody("validation_error", message)
}

// statusFor maps a service error onto an HTTP status and error body.
// Unknown errors become 500 with a generic message; the caller logs them.
func statusFor(err error, notFound string) (int, ErrorResponse) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, notFoundBody(notFound)
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity, errorBody("validation_error", unwrapMessage(err))
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, errorBody("unauthenticated", "authentication required")
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorBody("forbidden", "not a member of this organization")
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, errorBody("conflict", unwrapMessage(err))
	default:
		return http.StatusInternalServerError, errorBody("internal_error", "internal server error")
	}
}

// unwrapMessage extracts the human-readable part from a wrapped sentinel error.
// e.g. "service.ExperienceService.Create: validation error: name is required" → "name is required"
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, sentinel := range []error{domain.ErrValidation, domain.ErrConflict} {
		marker := sentinel.Error() + ": "
		if i := strings.LastIndex(msg, marker); i >= 0 && len(msg) > i+len(marker) {
			return msg[i+len(marker):]
		}
	}
	return msg
}
