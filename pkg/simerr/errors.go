// Package simerr defines the simulator's error taxonomy: sentinel errors
// for errors.Is checks, and structured types carrying diagnostic context
// for errors.As checks.
package simerr

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Structured error types below Unwrap() to one of these
// so callers can test with errors.Is without caring about the concrete type.
var (
	ErrRouterNotFound         = errors.New("router not found")
	ErrDeviceNameNotFound     = errors.New("device name not found")
	ErrDeviceIsExternal       = errors.New("device is external")
	ErrDeviceIsInternal       = errors.New("device is internal")
	ErrCannotConnectExternals = errors.New("cannot connect two external routers")
	ErrCannotConfigureExternalLink = errors.New("cannot configure link weight on a link with an external endpoint")
	ErrLinkNotFound           = errors.New("link not found")
	ErrNoBgpSession           = errors.New("no bgp session")
	ErrSessionAlreadyExists   = errors.New("bgp session already exists")
	ErrInvalidBgpSessionType  = errors.New("invalid bgp session type for endpoints")
	ErrInconsistentBgpSession = errors.New("inconsistent bgp session type between endpoints")
	ErrExprOverload           = errors.New("configuration expression already exists for this key")
	ErrModifierMismatch       = errors.New("update modifier keys do not match")
	ErrNoConvergence          = errors.New("event queue exhausted budget before reaching quiescence")
	ErrInvalidBgpTable        = errors.New("invalid bgp table state")
	ErrUnknownNeighbor        = errors.New("unknown neighbor for advertisement replay")
	ErrAlgebraPayloadMismatch = errors.New("custom protocol event payload does not match this protocol's attribute type")
)

// RouterNotFoundError names the missing router id.
type RouterNotFoundError struct {
	Router uint64
}

func (e *RouterNotFoundError) Error() string {
	return fmt.Sprintf("router %d not found", e.Router)
}

func (e *RouterNotFoundError) Unwrap() error { return ErrRouterNotFound }

// NoBgpSessionError names the two endpoints with no configured session.
type NoBgpSessionError struct {
	A, B uint64
}

func (e *NoBgpSessionError) Error() string {
	return fmt.Sprintf("no bgp session between %d and %d", e.A, e.B)
}

func (e *NoBgpSessionError) Unwrap() error { return ErrNoBgpSession }

// SessionAlreadyExistsError names the duplicate session's endpoints.
type SessionAlreadyExistsError struct {
	A, B uint64
}

func (e *SessionAlreadyExistsError) Error() string {
	return fmt.Sprintf("bgp session already exists between %d and %d", e.A, e.B)
}

func (e *SessionAlreadyExistsError) Unwrap() error { return ErrSessionAlreadyExists }

// InvalidBgpSessionTypeError reports a session-type/endpoint mismatch.
type InvalidBgpSessionTypeError struct {
	A, B   uint64
	Reason string
}

func (e *InvalidBgpSessionTypeError) Error() string {
	return fmt.Sprintf("invalid bgp session type between %d and %d: %s", e.A, e.B, e.Reason)
}

func (e *InvalidBgpSessionTypeError) Unwrap() error { return ErrInvalidBgpSessionType }

// ForwardingLoopError carries the path walked to the loop and the cycle,
// rotated to start at the first router of the cycle the walk reached.
type ForwardingLoopError struct {
	ToLoop []uint64
	Cycle  []uint64
}

func (e *ForwardingLoopError) Error() string {
	return fmt.Sprintf("forwarding loop: reached %v, cycle %v", e.ToLoop, e.Cycle)
}

func (e *ForwardingLoopError) Unwrap() error { return errForwardingLoop }

var errForwardingLoop = errors.New("forwarding loop")

// ErrForwardingLoop is the sentinel matched by ForwardingLoopError.
var ErrForwardingLoop = errForwardingLoop

// ForwardingBlackHoleError carries the path walked before the black hole.
type ForwardingBlackHoleError struct {
	Path []uint64
}

func (e *ForwardingBlackHoleError) Error() string {
	return fmt.Sprintf("forwarding black hole after %v", e.Path)
}

func (e *ForwardingBlackHoleError) Unwrap() error { return errForwardingBlackHole }

var errForwardingBlackHole = errors.New("forwarding black hole")

// ErrForwardingBlackHole is the sentinel matched by ForwardingBlackHoleError.
var ErrForwardingBlackHole = errForwardingBlackHole

// ModifierError wraps an error that occurred while applying a single
// ConfigModifier, naming the modifier for diagnostics.
type ModifierError struct {
	Modifier string
	Cause    error
}

func (e *ModifierError) Error() string {
	return fmt.Sprintf("applying modifier %s: %v", e.Modifier, e.Cause)
}

func (e *ModifierError) Unwrap() error { return e.Cause }

// NewModifierError wraps cause with the modifier's description.
func NewModifierError(modifier string, cause error) *ModifierError {
	return &ModifierError{Modifier: modifier, Cause: cause}
}

// Builder accumulates validation-style error messages, mirroring the
// ergonomics of building up a multi-issue report before failing once.
type Builder struct {
	errors []string
}

// Add appends message when condition is false.
func (b *Builder) Add(condition bool, message string) *Builder {
	if !condition {
		b.errors = append(b.errors, message)
	}
	return b
}

// Addf appends a formatted message unconditionally.
func (b *Builder) Addf(format string, args ...interface{}) *Builder {
	b.errors = append(b.errors, fmt.Sprintf(format, args...))
	return b
}

// HasErrors reports whether any message was recorded.
func (b *Builder) HasErrors() bool {
	return len(b.errors) > 0
}

// Build returns nil if no messages were recorded, else a combined error.
func (b *Builder) Build() error {
	if len(b.errors) == 0 {
		return nil
	}
	if len(b.errors) == 1 {
		return fmt.Errorf("validation failed: %s", b.errors[0])
	}
	return fmt.Errorf("validation failed:\n  - %s", strings.Join(b.errors, "\n  - "))
}
