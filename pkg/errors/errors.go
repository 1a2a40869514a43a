// Package errors defines the application error taxonomy shared by the
// adapters, cache, and orchestrator, plus an AppError type carrying an HTTP
// status code for the API layer.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnsupportedSearchType means the caller asked a source for a search
	// type it does not recognise (e.g. "vendor" against a lobbying source).
	ErrUnsupportedSearchType = errors.New("unsupported search type")
	// ErrEmptyQuery means the caller supplied a blank query where one is
	// required.
	ErrEmptyQuery = errors.New("search query is required")
	// ErrUnknownSource means the requested data source is not configured.
	ErrUnknownSource = errors.New("unknown data source")
	// ErrUpstreamTransient marks failures worth retrying: network errors,
	// timeouts, 5xx responses, and rate limiting.
	ErrUpstreamTransient = errors.New("transient upstream error")
	// ErrUpstreamUnavailable is the terminal form of ErrUpstreamTransient
	// after retries are exhausted.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrMapping means an upstream payload did not have the expected shape
	// at all and could not be repaired by field defaulting.
	ErrMapping = errors.New("upstream payload mapping failed")
	// ErrNotFound means a detail lookup matched no upstream record.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidInput covers malformed caller parameters other than the
	// query text itself.
	ErrInvalidInput = errors.New("invalid input")
)

// AppError pairs a sentinel error with a human-readable message and the HTTP
// status the API layer should respond with.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// Transient reports whether err should be retried by the resilience layer.
func Transient(err error) bool {
	return errors.Is(err, ErrUpstreamTransient)
}

// HTTPStatusCode maps an error to the HTTP status the API layer should use.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrEmptyQuery),
		errors.Is(err, ErrUnsupportedSearchType),
		errors.Is(err, ErrUnknownSource),
		errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUpstreamTransient),
		errors.Is(err, ErrUpstreamUnavailable),
		errors.Is(err, ErrMapping):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
