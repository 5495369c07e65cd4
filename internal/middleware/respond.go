package middleware

import (
	"encoding/json"
	"net/http"
)

// errorEnvelope matches the handler package's error body so clients see one
// shape whether a request is rejected here or by a handler.
type errorEnvelope struct {
	Success bool        `json:"success"`
	Status  string      `json:"status"`
	Error   errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{
		Status: "failed",
		Error:  errorDetail{Code: code, Message: message},
	})
}
