package desk

import (
	"errors"
	"fmt"

	"github.com/zulandar/switchboard/internal/roster"
)

// Sentinel error kinds. The structured error types below match them under
// errors.Is.
var (
	ErrNotFound         = errors.New("desk: not found")
	ErrUnavailable      = errors.New("desk: operator unavailable")
	ErrLockConflict     = errors.New("desk: inquiry locked by another operator")
	ErrCapacityExceeded = errors.New("desk: operator at capacity")
	ErrInvalid          = errors.New("desk: invalid argument")
)

// NotFoundError names the missing resource: "inquiry", "operator", "chat"
// or "escalation".
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("desk: %s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// UnavailableError reports an operator on break or offline.
type UnavailableError struct {
	OperatorID string
	Status     roster.Status
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("desk: operator %s is %s", e.OperatorID, e.Status)
}

func (e *UnavailableError) Is(target error) bool { return target == ErrUnavailable }

// LockConflictError identifies the operator currently holding an inquiry.
type LockConflictError struct {
	InquiryID  string
	HolderID   string
	HolderName string
}

func (e *LockConflictError) Error() string {
	return fmt.Sprintf("desk: inquiry %s is locked by %s", e.InquiryID, e.HolderName)
}

func (e *LockConflictError) Is(target error) bool { return target == ErrLockConflict }

// CapacityError carries the guard's counts at the time of rejection. Status
// is set when the operator was refused for being on break or offline.
type CapacityError struct {
	OperatorID string
	Current    int
	Max        int
	Status     roster.Status
}

func (e *CapacityError) Error() string {
	if !accepting(e.Status) && e.Status != "" {
		return fmt.Sprintf("desk: operator %s cannot take more work (%s, %d/%d)", e.OperatorID, e.Status, e.Current, e.Max)
	}
	return fmt.Sprintf("desk: operator %s at capacity (%d/%d)", e.OperatorID, e.Current, e.Max)
}

func (e *CapacityError) Is(target error) bool { return target == ErrCapacityExceeded }

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Kind returns a short machine name for err's kind, or "" if err carries
// none of the desk kinds.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrLockConflict):
		return "lock_conflict"
	case errors.Is(err, ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, ErrInvalid):
		return "invalid"
	}
	return ""
}
