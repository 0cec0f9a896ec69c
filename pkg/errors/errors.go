// Package errors defines the service's error kinds and how each maps to an
// HTTP status and a caller-facing message.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnknownTool        = errors.New("unknown tool")
	ErrInvalidDataset     = errors.New("invalid dataset")
	ErrDatasetUnavailable = errors.New("dataset unavailable")
	ErrCacheUnavailable   = errors.New("cache unavailable")
	ErrInternal           = errors.New("internal error")
	ErrTimeout            = errors.New("operation timed out")
)

// statuses is checked in order; the first kind found in the chain wins.
var statuses = []struct {
	kind   error
	status int
}{
	{ErrInvalidInput, http.StatusBadRequest},
	{ErrUnknownTool, http.StatusNotFound},
	{ErrTimeout, http.StatusServiceUnavailable},
	{ErrDatasetUnavailable, http.StatusServiceUnavailable},
	{ErrCacheUnavailable, http.StatusServiceUnavailable},
	{ErrInvalidDataset, http.StatusInternalServerError},
	{ErrInternal, http.StatusInternalServerError},
}

// AppError pairs an error kind with a detail meant for the caller.
type AppError struct {
	Kind   error
	Detail string
}

func (e *AppError) Error() string { return e.Kind.Error() + ": " + e.Detail }

func (e *AppError) Unwrap() error { return e.Kind }

func Newf(kind error, format string, args ...any) *AppError {
	return &AppError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Invalidf reports bad caller input.
func Invalidf(format string, args ...any) *AppError {
	return Newf(ErrInvalidInput, format, args...)
}

// HTTPStatusCode maps err to a response status; unclassified errors are 500.
func HTTPStatusCode(err error) int {
	for _, s := range statuses {
		if errors.Is(err, s.kind) {
			return s.status
		}
	}
	return http.StatusInternalServerError
}

// PublicMessage is the text shown to callers: the AppError detail when
// there is one, otherwise the whole error string.
func PublicMessage(err error) string {
	var app *AppError
	if errors.As(err, &app) {
		return app.Detail
	}
	return err.Error()
}
