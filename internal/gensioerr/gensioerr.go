// Package gensioerr provides the standardized error taxonomy shared by every
// driver and collaborator in the gensio core.
package gensioerr

import "fmt"

// Kind identifies one of the abstract error categories a driver or
// collaborator can surface, per the error handling design.
type Kind string

const (
	Invalid      Kind = "INVALID"
	NotSupported Kind = "NOT_SUPPORTED"
	NotReady     Kind = "NOT_READY"
	NotFound     Kind = "NOT_FOUND"
	NoData       Kind = "NO_DATA"
	Busy         Kind = "BUSY"
	NoMemory     Kind = "NO_MEMORY"
	Inconsistent Kind = "INCONSISTENT"
	TooLarge     Kind = "TOO_LARGE"
	RemoteClose  Kind = "REMOTE_CLOSE"
	IOError      Kind = "IO_ERROR"
	InProgress   Kind = "IN_PROGRESS"
	OSError      Kind = "OS_ERROR"
)

// Error is the concrete error type produced throughout the core. Op names the
// operation that failed (e.g. "tcp.Alloc", "pty.setupPTY"); Err, when present,
// is the underlying cause (often an os-level error translated through the
// osservices façade).
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Op, e.Kind, e.Msg, e.Err)
	}

	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether err carries the given Kind. It is the idiomatic way for
// callers to branch on the taxonomy without type-asserting *Error directly.
func Is(err error, k Kind) bool {
	var e *Error
	if ok := asError(err, &e); ok {
		return e.Kind == k
	}

	return false
}

func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e

			return true
		}

		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}

		err = u.Unwrap()
	}

	return false
}

// New builds an *Error of the given kind, wrapping cause when non-nil.
func New(k Kind, op, msg string, cause error) *Error {
	return &Error{Kind: k, Op: op, Msg: msg, Err: cause}
}

func InvalidErr(op, msg string) *Error          { return New(Invalid, op, msg, nil) }
func NotSupportedErr(op, msg string) *Error     { return New(NotSupported, op, msg, nil) }
func NotReadyErr(op, msg string) *Error         { return New(NotReady, op, msg, nil) }
func NotFoundErr(op, msg string) *Error         { return New(NotFound, op, msg, nil) }
func NoDataErr(op, msg string) *Error           { return New(NoData, op, msg, nil) }
func BusyErr(op, msg string) *Error             { return New(Busy, op, msg, nil) }
func NoMemoryErr(op, msg string) *Error         { return New(NoMemory, op, msg, nil) }
func InconsistentErr(op, msg string) *Error     { return New(Inconsistent, op, msg, nil) }
func TooLargeErr(op, msg string) *Error         { return New(TooLarge, op, msg, nil) }
func RemoteCloseErr(op, msg string) *Error      { return New(RemoteClose, op, msg, nil) }
func InProgressErr(op, msg string) *Error       { return New(InProgress, op, msg, nil) }
func IOErrorErr(op, msg string, cause error) *Error { return New(IOError, op, msg, cause) }
func OSErrorErr(op string, cause error) *Error      { return New(OSError, op, cause.Error(), cause) }
