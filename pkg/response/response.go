package response

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Data  any          `json:"data,omitempty"`
	Error *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail is a machine readable error. Clients switch on Kind and may show
// Message to the user. WaitSeconds is set for rate limited requests.
type ErrorDetail struct {
	Kind        string `json:"kind"`
	Message     string `json:"message"`
	WaitSeconds int    `json:"wait_seconds,omitempty"`
}

// Error kinds.
const (
	KindBadRequest        = "bad_request"
	KindInvalidTransition = "invalid_transition"
	KindUnauthorized      = "unauthorized"
	KindForbidden         = "forbidden"
	KindRateLimited       = "rate_limited"
	KindNotFound          = "not_found"
	KindUnavailable       = "unavailable"
	KindInternal          = "internal_error"
)

// JSON writes data wrapped in an Envelope.
func JSON(w http.ResponseWriter, status int, data any) error {
	return write(w, status, Envelope{Data: data})
}

// Error writes detail wrapped in an Envelope. Rate limited errors also get a
// Retry-After header.
func Error(w http.ResponseWriter, status int, detail ErrorDetail) error {
	if detail.WaitSeconds > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(detail.WaitSeconds))
	}
	return write(w, status, Envelope{Error: &detail})
}

func write(w http.ResponseWriter, status int, body Envelope) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(body)
}
