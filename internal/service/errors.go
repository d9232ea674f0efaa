// Package service holds the showing scheduler and the seat reservation
// ledger.  Operations return either a result or an *Error from the domain
// taxonomy below; any other error is an unexpected persistence failure.
package service

import (
	"errors"
	"fmt"
)

// Kind classifies domain failures.
type Kind uint8

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindConflict
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation_failed"
	}
	return "internal"
}

// Conflict reasons.  Scheduling conflicts always carry one so callers can
// tell a past start from an overlap.
const (
	ReasonPastStart   = "past_start"
	ReasonOverlap     = "overlap"
	ReasonSeatTaken   = "seat_unavailable"
	ReasonConcurrency = "concurrent_update"
)

// Error is a domain failure.  Seat names the offending seat for ledger
// failures; ConflictWith names the overlapping showing.
type Error struct {
	Kind         Kind
	Message      string
	Reason       string
	Seat         string
	ConflictWith uint64
}

func (e *Error) Error() string { return e.Message }

// KindOf returns the Kind of err, KindInternal when err is not a domain
// error.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

func notFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func invalid(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func conflict(reason, format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Reason: reason, Message: fmt.Sprintf(format, args...)}
}
