package checkin

import (
	"errors"
	"fmt"
)

// ErrBusy is returned by CheckIn and PrintBadge when another check-in or
// print operation is still running. State is left untouched.
var ErrBusy = errors.New("checkin: operation already in progress")

// ErrBadgeTimeout means every poll attempt found the badge still generating.
var ErrBadgeTimeout = errors.New("checkin: badge generation timed out")

// DecodeError is a malformed scan payload.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "checkin: decode scan payload: " + e.Err.Error() }
func (e *DecodeError) Unwrap() error { return e.Err }

// TransportError is a network or HTTP failure talking to eventyay.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("checkin: %s: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// RedemptionRejected is an explicit denial from the server.
type RedemptionRejected struct {
	Status string
	Reason string
}

func (e *RedemptionRejected) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("checkin: redemption rejected: %s (%s)", e.Status, e.Reason)
	}
	return "checkin: redemption rejected: " + e.Status
}
