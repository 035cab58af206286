package domain

import (
	"errors"
	"fmt"
)

// FailureKind classifies a remote call failure so the control loop can pick
// the right reaction: transient failures are retried on the next tick,
// permanent ones are logged differently but never assumed successful.
type FailureKind int

const (
	// FailureTransient covers timeouts, connection errors, 429 and 5xx
	// responses. Worth retrying.
	FailureTransient FailureKind = iota
	// FailurePermanent covers 4xx responses and malformed payloads.
	// Retrying the same request will not help.
	FailurePermanent
)

func (k FailureKind) String() string {
	if k == FailurePermanent {
		return "permanent"
	}
	return "transient"
}

// RemoteError is a typed failure from a remote gateway.
type RemoteError struct {
	Op   string // e.g. "upbit.GetPrice"
	Kind FailureKind
	Err  error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s failure: %v", e.Op, e.Kind, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Transient wraps err as a transient remote failure.
func Transient(op string, err error) error {
	return &RemoteError{Op: op, Kind: FailureTransient, Err: err}
}

// Permanent wraps err as a permanent remote failure.
func Permanent(op string, err error) error {
	return &RemoteError{Op: op, Kind: FailurePermanent, Err: err}
}

// IsTransient reports whether err is a transient remote failure. Unclassified
// errors count as transient: never assume success, never give up on a market
// for good because of one bad response.
func IsTransient(err error) bool {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Kind == FailureTransient
	}
	return true
}

// IsPermanent reports whether err is a classified permanent remote failure.
func IsPermanent(err error) bool {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Kind == FailurePermanent
	}
	return false
}
