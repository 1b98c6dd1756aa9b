// Package apperr defines the error kinds surfaced by the bot core.
// Collaborator failures are wrapped into one of these kinds at the component
// boundary so handlers never see raw transport or provider errors.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an error for user-facing handling.
type Kind string

const (
	// AccessDenied is returned for banned or unsubscribed users.
	AccessDenied Kind = "access_denied"
	// NotInitialized is returned when the user has no session yet.
	NotInitialized Kind = "not_initialized"
	// EmptyResult marks a valid query that matched nothing.
	EmptyResult Kind = "empty_result"
	// ProviderError wraps network, decoding or upstream failures.
	ProviderError Kind = "provider_error"
	// InvalidInput marks malformed user input such as a bad numeric id.
	InvalidInput Kind = "invalid_input"
)

// Error carries a kind, the failing operation and an optional cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// New builds an error of the given kind.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds an error of the given kind with a formatted cause.
func Errorf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Kind))
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Code reports the kind in a form the router uses as err_code.
func (e *Error) Code() string { return string(e.Kind) }

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
