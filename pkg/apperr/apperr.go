// Package apperr holds the error taxonomy shared by the ingest pipeline, the
// repository and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrDuplicateContent = errors.New("duplicate content")
	ErrStorage          = errors.New("storage error")
	ErrCodec            = errors.New("codec error")
	ErrPersistence      = errors.New("persistence error")
	ErrNotFound         = errors.New("not found")
	ErrAuth             = errors.New("unauthorized")
)

// Error pairs a kind sentinel with a reason that is safe to show to clients.
// errors.Is matches both the kind and the wrapped cause.
type Error struct {
	Kind   error
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func Validation(reason string) error {
	return &Error{Kind: ErrValidation, Reason: reason}
}

func DuplicateContent(reason string) error {
	return &Error{Kind: ErrDuplicateContent, Reason: reason}
}

func NotFound(reason string) error {
	return &Error{Kind: ErrNotFound, Reason: reason}
}

func Auth(reason string) error {
	return &Error{Kind: ErrAuth, Reason: reason}
}

func Storage(reason string, err error) error {
	return &Error{Kind: ErrStorage, Reason: reason, Err: err}
}

func Codec(reason string, err error) error {
	return &Error{Kind: ErrCodec, Reason: reason, Err: err}
}

func Persistence(reason string, err error) error {
	return &Error{Kind: ErrPersistence, Reason: reason, Err: err}
}

// Reason returns the client-facing reason of err, or "" when err carries none.
func Reason(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}

// IsClientError reports whether err was caused by the request rather than by
// the service, so its reason may be returned verbatim.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrDuplicateContent) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrAuth)
}
