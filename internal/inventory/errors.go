package inventory

import (
	"errors"
	"fmt"
)

type Kind uint8

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindCapacityExceeded
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindCapacityExceeded:
		return "capacity_exceeded"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a failure with a message that is safe to show to clients.
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

var (
	ErrEventNotFound       = &Error{Kind: KindNotFound, Message: "Event not found"}
	ErrSectionNotFound     = &Error{Kind: KindNotFound, Message: "Section not found"}
	ErrRowNotFound         = &Error{Kind: KindNotFound, Message: "Row not found"}
	ErrPurchaseNotFound    = &Error{Kind: KindNotFound, Message: "Purchase not found"}
	ErrInvalidPurchase     = &Error{Kind: KindValidation, Message: "sectionName, rowName and valid quantity are required"}
	ErrEventInputRequired  = &Error{Kind: KindValidation, Message: "Name and sections are required"}
	ErrIdempotencyConflict = &Error{Kind: KindConflict, Message: "Idempotency key was already used for a different purchase"}
)

func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func CapacityExceeded(available int) error {
	return &Error{Kind: KindCapacityExceeded, Message: fmt.Sprintf("Only %d seats are available", available)}
}

func Internal(message string, err error) error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf reports the kind of err. Untyped errors are internal.
func KindOf(err error) Kind {
	var invErr *Error
	if errors.As(err, &invErr) {
		return invErr.Kind
	}
	return KindInternal
}

// PublicMessage returns the client-facing message for err. Internal causes
// are never exposed.
func PublicMessage(err error) string {
	var invErr *Error
	if errors.As(err, &invErr) && invErr.Kind != KindInternal {
		return invErr.Message
	}
	return "Internal server error"
}
