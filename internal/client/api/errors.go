package api

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrUnavailable marks transport-level failures: the request never
	// produced an HTTP response. Callers treat it as transient.
	ErrUnavailable = errors.New("server unavailable")

	// ErrAuthRevoked marks a terminal authentication failure: the refresh
	// credential is absent, rejected, or a retried request still came back
	// unauthorized. The session must end.
	ErrAuthRevoked = errors.New("authentication revoked")
)

// APIError is a non-401 HTTP error response surfaced verbatim to the
// caller. The pipeline never retries these.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: %s", http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("api error: %d %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.StatusCode == code
}

// ValidationError reports client-side field validation failures. A request
// that fails validation is never sent to the backend.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	return "validation failed: " + strings.Join(names, ", ")
}

type fieldErrors map[string]string

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}
