package gateway

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by gateway operations. Callers match them with
// errors.Is; transport layers map them to protocol signals via FailureSignal.
var (
	ErrIdentityRequired = errors.New("identity required")
	ErrInvalidPath      = errors.New("invalid filename or path traversal attempt")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("already exists")
	ErrCommandRejected  = errors.New("command not allowed")
)

// PermissionDeniedError reports an ACL, role, or lock failure. Locked is set
// when the denial came from a file lock so the caller can prompt for a
// passcode instead of treating it as a plain denial.
type PermissionDeniedError struct {
	Reason string
	Locked bool
}

func (e *PermissionDeniedError) Error() string {
	if e.Locked {
		return "file is locked: passcode required"
	}
	return e.Reason
}

// ErrLocked creates a lock-flavored permission denial.
func ErrLocked() *PermissionDeniedError {
	return &PermissionDeniedError{Locked: true}
}

// ErrDenied creates a plain permission denial with the given reason.
func ErrDenied(format string, args ...any) *PermissionDeniedError {
	return &PermissionDeniedError{Reason: fmt.Sprintf(format, args...)}
}

// IsPermissionDenied reports whether err is a permission denial.
func IsPermissionDenied(err error) bool {
	var pd *PermissionDeniedError
	return errors.As(err, &pd)
}

// IsLocked reports whether err is a permission denial caused by a file lock.
func IsLocked(err error) bool {
	var pd *PermissionDeniedError
	return errors.As(err, &pd) && pd.Locked
}

// FailureSignal maps an operation error to a conventional status signal for
// an external transport layer: "invalid", "not-found", "forbidden",
// "conflict", "rejected", or "internal".
func FailureSignal(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidPath):
		return "invalid"
	case errors.Is(err, ErrNotFound):
		return "not-found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrCommandRejected):
		return "rejected"
	case errors.Is(err, ErrIdentityRequired), IsPermissionDenied(err):
		return "forbidden"
	default:
		return "internal"
	}
}
