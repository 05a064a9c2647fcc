// Package httpapi holds the JSON request and response helpers shared by
// every HTTP handler.
package httpapi

import (
	"encoding/json"
	"net/http"

	"lead-intake/internal/common/errors"
)

// ErrorBody is the envelope for every non-2xx response.
type ErrorBody struct {
	Error string `json:"error"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes {"error": message}.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorBody{Error: message})
}

// WriteStandardError writes err using its code's status and its public
// message. Details never reach the client.
func WriteStandardError(w http.ResponseWriter, err error) {
	stdErr := errors.Normalize(err)
	WriteError(w, errors.HTTPStatus(stdErr), stdErr.Message)
}
