// Package errors provides the typed errors that cross the certval component
// boundary. Callers are expected to import it as berrors.
package errors

import (
	"errors"
	"fmt"
)

// ErrorType provides a coarse category for CertValErrors
type ErrorType int

const (
	InternalServer ErrorType = iota
	// ServiceUnavailable means the remote validation service could not be
	// reached at all. Callers may retry with backoff.
	ServiceUnavailable
	// ServiceError means the remote validation service was reached but its
	// answer could not be used.
	ServiceError
	Malformed
	NotFound
)

func (t ErrorType) String() string {
	switch t {
	case InternalServer:
		return "internalServer"
	case ServiceUnavailable:
		return "serviceUnavailable"
	case ServiceError:
		return "serviceError"
	case Malformed:
		return "malformed"
	case NotFound:
		return "notFound"
	}
	return fmt.Sprintf("unknown(%d)", int(t))
}

// CertValError represents internal certval errors
type CertValError struct {
	Type   ErrorType
	Detail string
	// Cause is the underlying error, if any. It is reachable with errors.Is
	// and errors.As but is not part of the message.
	Cause error
}

func (ce *CertValError) Error() string {
	return ce.Detail
}

func (ce *CertValError) Unwrap() error {
	return ce.Cause
}

// New is a convenience function for creating a new CertValError
func New(errType ErrorType, msg string, args ...any) error {
	return &CertValError{
		Type:   errType,
		Detail: fmt.Sprintf(msg, args...),
	}
}

// Wrap creates a CertValError of the given type whose detail is msg followed
// by the message of cause.
func Wrap(errType ErrorType, cause error, msg string, args ...any) error {
	detail := fmt.Sprintf(msg, args...)
	if cause != nil {
		detail = fmt.Sprintf("%s: %s", detail, cause)
	}
	return &CertValError{
		Type:   errType,
		Detail: detail,
		Cause:  cause,
	}
}

// Is is a convenience function for testing the internal type of a
// CertValError anywhere in err's chain.
func Is(err error, errType ErrorType) bool {
	var cErr *CertValError
	if !errors.As(err, &cErr) {
		return false
	}
	return cErr.Type == errType
}

func ServiceUnavailableError(msg string, args ...any) error {
	return New(ServiceUnavailable, msg, args...)
}

func ServiceErrorError(msg string, args ...any) error {
	return New(ServiceError, msg, args...)
}

func MalformedError(msg string, args ...any) error {
	return New(Malformed, msg, args...)
}

func InternalServerError(msg string, args ...any) error {
	return New(InternalServer, msg, args...)
}

func NotFoundError(msg string, args ...any) error {
	return New(NotFound, msg, args...)
}
