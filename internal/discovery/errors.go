package discovery

import (
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"

	"go.uber.org/multierr"
)

// BindReason classifies why the receive socket could not be bound
type BindReason int

const (
	// BindReasonUnknown covers any failure not classified below
	BindReasonUnknown BindReason = iota
	// BindReasonAddrInUse indicates another socket already owns the port
	BindReasonAddrInUse
	// BindReasonPermission indicates the process may not bind the port
	BindReasonPermission
	// BindReasonAddrNotAvailable indicates the local address does not exist
	BindReasonAddrNotAvailable
)

// String returns a human-readable name for the reason
func (r BindReason) String() string {
	switch r {
	case BindReasonAddrInUse:
		return "address in use"
	case BindReasonPermission:
		return "permission denied"
	case BindReasonAddrNotAvailable:
		return "address not available"
	case BindReasonUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("BindReason(%d)", r)
	}
}

// BindError is returned by Start when the receive socket cannot be bound.
// By the time it is returned the session has been fully torn down and Start
// may be retried.
type BindError struct {
	Port   int
	Reason BindReason
	Err    error
}

// Error implements the error interface
func (e *BindError) Error() string {
	return fmt.Sprintf("bind udp port %d: %s: %v", e.Port, e.Reason, e.Err)
}

// Unwrap returns the underlying socket error
func (e *BindError) Unwrap() error {
	return e.Err
}

// newBindError classifies a listen failure
func newBindError(port int, err error) *BindError {
	reason := BindReasonUnknown
	switch {
	case errors.Is(err, syscall.EADDRINUSE):
		reason = BindReasonAddrInUse
	case errors.Is(err, syscall.EACCES), errors.Is(err, os.ErrPermission):
		reason = BindReasonPermission
	case errors.Is(err, syscall.EADDRNOTAVAIL):
		reason = BindReasonAddrNotAvailable
	}
	return &BindError{Port: port, Reason: reason, Err: err}
}

// IsBindError reports whether err is, or wraps, a *BindError
func IsBindError(err error) bool {
	var be *BindError
	return errors.As(err, &be)
}

// SendWarning reports probe sends that failed. It never fails Start; it is
// passed to Client.OnSendWarning and logged.
type SendWarning struct {
	// Attempted is the number of probe sends tried
	Attempted int
	// Sent is the number that succeeded
	Sent int
	// Err combines every individual failure
	Err error
}

// Error implements the error interface
func (w *SendWarning) Error() string {
	return fmt.Sprintf("probe sent on %d of %d sources: %v", w.Sent, w.Attempted, w.Err)
}

// Unwrap exposes the individual failures for errors.Is / errors.As
func (w *SendWarning) Unwrap() []error {
	return multierr.Errors(w.Err)
}

// Failures returns the individual send errors
func (w *SendWarning) Failures() []error {
	return multierr.Errors(w.Err)
}

// SourceError records a probe send failure from one local source address
type SourceError struct {
	Interface string
	Source    net.IP
	Err       error
}

// Error implements the error interface
func (e *SourceError) Error() string {
	if e.Source == nil {
		return fmt.Sprintf("send probe: %v", e.Err)
	}
	return fmt.Sprintf("send probe from %s (%s): %v", e.Source, e.Interface, e.Err)
}

// Unwrap returns the underlying socket error
func (e *SourceError) Unwrap() error {
	return e.Err
}

// isSocketGone reports whether a read error means the socket itself is no
// longer usable, as opposed to a transient failure.
func isSocketGone(err error) bool {
	return errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.EBADF) ||
		errors.Is(err, syscall.ENOTSOCK)
}
