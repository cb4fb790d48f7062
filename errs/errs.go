// Package errs implements the error-kind taxonomy of §7: DomainError,
// ConfigError, UsageError, GeometryError, and InterruptedError. Each
// kind carries the offending context (coordinates, partition id,
// argument name) rather than relying on string interpolation alone, in
// the spirit of the teacher's named sentinel errors in
// controller/crud.go (errInvalidArgument, errKeyNotFound) generalized
// into typed, wrapped errors.
package errs

import "fmt"

// Kind identifies one of the error taxonomies in §7.
type Kind int

const (
	Domain Kind = iota
	Config
	Usage
	Geometry
	Interrupted
)

func (k Kind) String() string {
	switch k {
	case Domain:
		return "DomainError"
	case Config:
		return "ConfigError"
	case Usage:
		return "UsageError"
	case Geometry:
		return "GeometryError"
	case Interrupted:
		return "InterruptedError"
	default:
		return "UnknownError"
	}
}

// Error is the concrete error type for every kind in this package. It
// carries optional context so a caller can recover coordinates or a
// partition id without parsing the message.
type Error struct {
	kind    Kind
	msg     string
	context map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e.context == nil || len(e.context) == 0 {
		return fmt.Sprintf("%s: %s", e.kind, e.msg)
	}
	return fmt.Sprintf("%s: %s %v", e.kind, e.msg, e.context)
}

// Kind reports the error's taxonomy.
func (e *Error) Kind() Kind { return e.kind }

// Unwrap supports errors.Is/errors.As chaining.
func (e *Error) Unwrap() error { return e.cause }

// Context returns the attached context map (may be nil).
func (e *Error) Context() map[string]any { return e.context }

func newError(k Kind, msg string, context map[string]any) *Error {
	return &Error{kind: k, msg: msg, context: context}
}

// NewDomainError builds a DomainError, e.g. a coordinate out of the
// universe or a negative dimension.
func NewDomainError(msg string, context map[string]any) *Error {
	return newError(Domain, msg, context)
}

// NewConfigError builds a ConfigError, e.g. maxCost <= 0.
func NewConfigError(msg string, context map[string]any) *Error {
	return newError(Config, msg, context)
}

// NewUsageError builds a UsageError, e.g. querying an unbuilt index.
func NewUsageError(msg string, context map[string]any) *Error {
	return newError(Usage, msg, context)
}

// NewGeometryError builds a GeometryError, e.g. a WKT parse failure.
func NewGeometryError(msg string, context map[string]any) *Error {
	return newError(Geometry, msg, context)
}

// NewInterruptedError builds an InterruptedError for observed cancellation.
func NewInterruptedError(msg string, context map[string]any) *Error {
	return newError(Interrupted, msg, context)
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, k Kind) bool {
	e, ok := err.(*Error)
	return ok && e.kind == k
}
