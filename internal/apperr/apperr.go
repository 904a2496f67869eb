// Package apperr defines the error taxonomy shared by the stores, the auth
// service and the HTTP handlers, and maps it onto HTTP responses.
package apperr

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Kind classifies an error for the API boundary.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindConflict
	KindNotFound
	KindUpstream
)

// InternalMessage is the only text clients see for unexpected failures.
const InternalMessage = "Internal server error"

// Error carries a Kind, a client-safe message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Upstream wraps a failure talking to an external provider (OAuth).
func Upstream(msg string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: msg, Err: err}
}

// Internal wraps an unexpected failure. msg is logged, never returned to clients.
func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf reports the Kind of err. Errors outside the taxonomy are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err belongs to kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Status maps a Kind to its HTTP status code.
func Status(kind Kind) int {
	switch kind {
	case KindValidation, KindUpstream:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Respond writes err as {"error": message} and aborts the gin chain.
func Respond(c *gin.Context, err error) {
	var e *Error
	if !errors.As(err, &e) || e.Kind == KindInternal {
		slog.Error("Request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": InternalMessage})
		return
	}

	if e.Kind == KindUpstream && e.Err != nil {
		slog.Warn("Upstream provider failure", "path", c.FullPath(), "error", e.Err)
	}

	c.AbortWithStatusJSON(Status(e.Kind), gin.H{"error": e.Message})
}
