package auth

import (
	"fmt"
	"net/http"
)

// Kind classifies why an authorization attempt was denied.
type Kind string

const (
	KindMissingToken           Kind = "missing_token"
	KindMalformedToken         Kind = "malformed_token"
	KindKeyResolutionFailed    Kind = "key_resolution_failed"
	KindInvalidSignature       Kind = "invalid_signature"
	KindInvalidClaims          Kind = "invalid_claims"
	KindInsufficientPermission Kind = "insufficient_permission"
)

// Status is the HTTP status a denial of this kind is reported with.
func (k Kind) Status() int {
	if k == KindInsufficientPermission {
		return http.StatusForbidden
	}
	return http.StatusUnauthorized
}

// Message is the generic text shown to callers.
func (k Kind) Message() string {
	switch k {
	case KindMissingToken:
		return "authorization header with bearer token is required"
	case KindMalformedToken:
		return "authorization token is malformed"
	case KindKeyResolutionFailed:
		return "unable to find appropriate signing key"
	case KindInvalidSignature:
		return "authorization token signature is invalid"
	case KindInvalidClaims:
		return "authorization token claims are invalid"
	case KindInsufficientPermission:
		return "permission not granted"
	default:
		return "unauthorized"
	}
}

// Error is the single classified failure raised by the gate. Reason holds the
// diagnostic detail for logs and is never rendered to clients.
type Error struct {
	Kind   Kind
	Reason string
	cause  error
}

func newError(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{
		Kind:   kind,
		Reason: fmt.Sprintf(format, args...),
		cause:  cause,
	}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) Status() int {
	return e.Kind.Status()
}

func (e *Error) Message() string {
	return e.Kind.Message()
}
