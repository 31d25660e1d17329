// Package httputil centralizes JSON response writing so every endpoint emits
// the same envelope: {"success":true,"data":...} on success and
// {"success":false,"error":...} on failure.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "census/pkg/domain-errors"
)

type successEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type errorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// WriteJSON writes v as-is with the given status. Used for payloads that are
// not wrapped in the success envelope, such as the statistics snapshot.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess wraps data in the success envelope.
func WriteSuccess(w http.ResponseWriter, status int, data any) {
	if data == nil {
		data = struct{}{}
	}
	WriteJSON(w, status, successEnvelope{Success: true, Data: data})
}

// WriteError translates a domain error into the failure envelope. Internal
// errors are reduced to a generic message; callers are expected to log the
// full error before handing it here.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	WriteJSON(w, dErrors.ToHTTPStatus(code), errorEnvelope{
		Success: false,
		Error:   dErrors.MessageOf(err),
	})
}
