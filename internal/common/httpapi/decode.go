package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"lead-intake/internal/common/errors"
	"lead-intake/internal/models"
)

// DefaultMaxBodyBytes bounds a submission body when no limit is configured.
const DefaultMaxBodyBytes int64 = 1 << 20

// DecodePayload reads a JSON object body. Anything that is not a single
// JSON object yields an INVALID_PAYLOAD error.
func DecodePayload(w http.ResponseWriter, r *http.Request, maxBytes int64) (models.SubmissionPayload, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	body := http.MaxBytesReader(w, r.Body, maxBytes)
	defer body.Close()

	var payload models.SubmissionPayload
	if err := decodeStrict(body, &payload); err != nil {
		return nil, errors.NewInvalidPayloadError(err)
	}
	if payload == nil {
		return nil, errors.NewInvalidPayloadError(fmt.Errorf("body must be a JSON object"))
	}
	return payload, nil
}

// DecodeJSON reads a JSON body into v.
func DecodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, v interface{}) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	body := http.MaxBytesReader(w, r.Body, maxBytes)
	defer body.Close()

	if err := decodeStrict(body, v); err != nil {
		return errors.NewInvalidPayloadError(err)
	}
	return nil
}

func decodeStrict(r io.Reader, v interface{}) error {
	dec := json.NewDecoder(r)
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected data after JSON body")
	}
	return nil
}
