// Package apperr holds the error taxonomy shared by the negotiation core.
// Handlers map these onto HTTP responses; usecases never touch status codes.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRefundNotImplemented signals the refund path that exists in policy
	// but has no payment-provider implementation yet.
	ErrRefundNotImplemented = errors.New("refund is not implemented")

	// ErrNoRefundWindow is returned when a cancelation happens too close to
	// the appointment for any refund, and the caller did not opt to tolerate it.
	ErrNoRefundWindow = errors.New("cannot refund this close to the appointment")
)

// StateConflictError reports a transition attempted from a disallowed status.
// It always names the appointment status; EventStatus is empty for operations
// that only guard the appointment (confirm, cancel, reopen).
type StateConflictError struct {
	Op                string
	AppointmentStatus string
	EventStatus       string
}

func (e *StateConflictError) Error() string {
	if e.EventStatus == "" {
		return fmt.Sprintf("cannot %s appointment in status %s", e.Op, e.AppointmentStatus)
	}
	return fmt.Sprintf("cannot %s appointment in status %s and event in status %s",
		e.Op, e.AppointmentStatus, e.EventStatus)
}

// IsStateConflict reports whether err is (or wraps) a StateConflictError.
func IsStateConflict(err error) bool {
	var sc *StateConflictError
	return errors.As(err, &sc)
}

// NotFoundError reports a missing or not-owned resource.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// EmptyMatchError reports that a clinic matcher stage produced zero candidates
// while the caller asked for an error rather than an empty set. Fields names
// the criteria that emptied the set ("treatments", "location", or both).
type EmptyMatchError struct {
	Fields []string
}

func (e *EmptyMatchError) Error() string {
	return fmt.Sprintf("no clinics match the requested %s", strings.Join(e.Fields, " and "))
}

func IsEmptyMatch(err error) bool {
	var em *EmptyMatchError
	return errors.As(err, &em)
}
