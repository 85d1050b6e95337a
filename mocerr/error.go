// Package mocerr defines the fatal/non-fatal error taxonomy shared across
// the simulation kernel.
package mocerr

import "fmt"

// Kind classifies an Error. Cycle-internal conditions (site blocking,
// unstable start/end, frequency skip) are never represented as a Kind —
// those are counter events, not errors.
type Kind int

const (
	Ok Kind = iota
	Argument
	Validation
	NullPointer
	MemAllocation
	BufferOverflow
	DataConsistency
	Database
	Stream
	File
	NoMobiles
	UseDefault
	Unknown
)

func (k Kind) String() string {
	switch k {
	case Ok:
		return "Ok"
	case Argument:
		return "Argument"
	case Validation:
		return "Validation"
	case NullPointer:
		return "NullPointer"
	case MemAllocation:
		return "MemAllocation"
	case BufferOverflow:
		return "BufferOverflow"
	case DataConsistency:
		return "DataConsistency"
	case Database:
		return "Database"
	case Stream:
		return "Stream"
	case File:
		return "File"
	case NoMobiles:
		return "NoMobiles"
	case UseDefault:
		return "UseDefault"
	default:
		return "Unknown"
	}
}

// Fatal reports whether an error of this Kind must stop the scheduler loop
// per spec.md §7 (input/initialization errors, allocation failures).
func (k Kind) Fatal() bool {
	switch k {
	case Database, File, Validation, DataConsistency, NoMobiles, MemAllocation, NullPointer, BufferOverflow:
		return true
	default:
		return false
	}
}

// Error carries a Kind plus the routine+line source identifier spec.md §7
// requires fatal errors to surface with.
type Error struct {
	Kind   Kind
	Source string // "routine:line" or similar caller-supplied identifier
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Source)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Source, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error wrapping err with the given Kind and source.
func New(kind Kind, source string, err error) *Error {
	return &Error{Kind: kind, Source: source, Err: err}
}

// Newf builds an Error with a formatted message in place of a wrapped error.
func Newf(kind Kind, source, format string, args ...any) *Error {
	return &Error{Kind: kind, Source: source, Err: fmt.Errorf(format, args...)}
}
