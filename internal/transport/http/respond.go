package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"handoff/internal/domain"
	"handoff/internal/observability/middleware"
)

const maxBodyBytes = 1 << 20

type envelope struct {
	Success bool       `json:"success"`
	Message string     `json:"message,omitempty"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Message string `json:"message"`
}

var errRateLimited = errors.New("too many requests")

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func writeData(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

// errorWriter renders taxonomy errors. In production internal failures are
// reported without detail.
type errorWriter struct {
	production bool
}

func (ew errorWriter) write(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := publicMessage(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.RequestIDFromContext(r.Context()),
			"trace_id", middleware.TraceIDFromContext(r.Context()),
		)
		if ew.production {
			msg = "internal server error"
		}
	}
	writeJSON(w, status, envelope{Success: false, Error: &errorBody{Message: msg}})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage drops the taxonomy prefix from wrapped errors.
func publicMessage(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{domain.ErrInvalidInput, domain.ErrUnauthorized, domain.ErrNotFound, domain.ErrConflict, domain.ErrInternal, errRateLimited} {
		if rest, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok {
			return rest
		}
	}
	return msg
}

// decodeJSON reads a single JSON object from the body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", domain.ErrInvalidInput)
		}
		return fmt.Errorf("%w: malformed JSON body", domain.ErrInvalidInput)
	}
	return nil
}
