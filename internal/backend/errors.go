package backend

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes failures of the form backend collaborator. Every
// transport or HTTP failure is classified into one of these before it leaves
// this package; no raw errors propagate upward.
type ErrorKind string

const (
	// KindNotFound: the backend reports the resource missing (404).
	KindNotFound ErrorKind = "NOT_FOUND"

	// KindNetwork: transport failure, timeout, or an unparseable body.
	// Retryable by user action only, never automatically.
	KindNetwork ErrorKind = "NETWORK"

	// KindAuthRequired: the backend rejected the call with 401. Recoverable
	// via redirect-and-resume with the persisted draft.
	KindAuthRequired ErrorKind = "AUTH_REQUIRED"

	// KindConflict: backend-reported conflict (409), e.g. a duplicate under a
	// single-response policy. Surfaced verbatim to the user.
	KindConflict ErrorKind = "CONFLICT"

	// KindBackend: any other non-2xx response.
	KindBackend ErrorKind = "BACKEND"
)

// Error is a classified backend failure.
type Error struct {
	Kind       ErrorKind
	Message    string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status=%d)", e.Kind, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func kindOf(err error) (ErrorKind, bool) {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind, true
	}
	return "", false
}

// IsNotFound reports whether err is a classified 404.
func IsNotFound(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindNotFound
}

// IsNetwork reports whether err is a classified transport failure.
func IsNetwork(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindNetwork
}

// IsAuthRequired reports whether err is a classified 401.
func IsAuthRequired(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindAuthRequired
}

// IsConflict reports whether err is a classified 409.
func IsConflict(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindConflict
}
