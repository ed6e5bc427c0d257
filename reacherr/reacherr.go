// Package reacherr defines the error kinds raised by the discretization
// and reachability packages.
package reacherr

import "fmt"

// Kind identifies one of the error categories a caller may want to
// switch on.
type Kind int

const (
	// DomainError marks an out-of-domain argument, e.g. a negative
	// discretization step.
	DomainError Kind = iota
	// InvalidApproxModel marks an unrecognized approx_model string.
	InvalidApproxModel
	// NotImplemented marks a parallel code path that has no
	// implementation yet.
	NotImplemented
	// DimensionMismatch marks inconsistent matrix/set/partition
	// dimensions.
	DimensionMismatch
)

func (k Kind) String() string {
	switch k {
	case DomainError:
		return "DomainError"
	case InvalidApproxModel:
		return "InvalidApproxModel"
	case NotImplemented:
		return "NotImplemented"
	case DimensionMismatch:
		return "DimensionMismatch"
	default:
		return "UnknownError"
	}
}

// Error is the concrete error type returned by this module. It carries
// a Kind so callers can recover() or errors.As() into a category
// without parsing messages.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// New builds an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Is reports whether err is a *Error of the given kind, following the
// errors.Is convention used by this package's callers.
func Is(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}
