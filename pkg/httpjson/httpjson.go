package httpjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
)

var (
	ErrMissingContentType   = errors.New("missing content type")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrInvalidJSON          = errors.New("invalid JSON")
)

// maxBodyBytes caps request bodies. Webhook payloads and API requests are
// both far below this.
const maxBodyBytes = 1 << 20

// Envelope is the standard response body. Exactly one of Data and Error is
// set.
type Envelope struct {
	Data  any          `json:"data,omitempty"`
	Error *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail carries a machine-readable code and a human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// Respond writes v inside the standard envelope.
func Respond(w http.ResponseWriter, status int, v any) {
	write(w, status, Envelope{Data: v})
}

// RespondRaw writes v as the whole body, for endpoints whose response shape
// is dictated by an external contract rather than the envelope.
func RespondRaw(w http.ResponseWriter, status int, v any) {
	write(w, status, v)
}

// Error writes an error envelope.
func Error(w http.ResponseWriter, status int, code, message string) {
	write(w, status, Envelope{Error: &ErrorDetail{Code: code, Message: message}})
}

func write(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response body", slog.Any("error", err))
	}
}

// Decode reads a JSON request body into v. Decoding is strict: the content
// type must be application/json, unknown fields are rejected, and the body is
// size-capped.
func Decode(r *http.Request, v any) error {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return fmt.Errorf("%w: expected application/json", ErrMissingContentType)
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "application/json" {
		return fmt.Errorf("%w: got %s, expected application/json", ErrUnsupportedMediaType, contentType)
	}

	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidJSON, err.Error())
	}
	return nil
}
