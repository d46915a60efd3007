package errors

import (
	"encoding/json"
	"net/http"
	"time"
)

// APIError is the JSON envelope every non-2xx response carries.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RateLimitError extends APIError with throttle hints for 429 responses.
type RateLimitError struct {
	Code          string     `json:"code"`
	Message       string     `json:"message"`
	RetryAfterSec int64      `json:"retry_after_sec"`
	CooldownUntil *time.Time `json:"cooldown_until"`
}

// Write serializes payload as JSON with the given status code.
func Write(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteError is shorthand for the plain code/message envelope.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	Write(w, status, APIError{Code: code, Message: message})
}
