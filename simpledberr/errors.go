// Package simpledberr defines the error taxonomy shared by every layer of
// the storage core: file I/O, page decoding, log iteration, buffer-pool
// exhaustion, and caller-contract violations.
package simpledberr

import "fmt"

// Code classifies a storage-core error into one of the kinds a caller needs
// to distinguish in order to decide how to react (retry, abort the
// transaction, or treat it as a programming error).
type Code int

const (
	// FileIO indicates that an underlying OS-level read/write/seek failed.
	FileIO Code = iota
	// OutOfBounds indicates a Page accessor ran past the end of the buffer.
	OutOfBounds
	// InvalidFormat indicates a decoded length-prefixed value was negative
	// or would overflow the containing page.
	InvalidFormat
	// NoMoreRecords indicates a LogIterator was advanced past the oldest
	// record in the log.
	NoMoreRecords
	// BufferAbort indicates the buffer pool stayed exhausted past its
	// configured timeout; the caller should abort its transaction.
	BufferAbort
	// LogicError indicates the caller violated a documented contract, e.g.
	// unpinning an already-unpinned frame or reading a field before the
	// first successful call to next().
	LogicError
)

func (c Code) String() string {
	switch c {
	case FileIO:
		return "FileIO"
	case OutOfBounds:
		return "OutOfBounds"
	case InvalidFormat:
		return "InvalidFormat"
	case NoMoreRecords:
		return "NoMoreRecords"
	case BufferAbort:
		return "BufferAbort"
	case LogicError:
		return "LogicError"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type returned by this module. It carries a
// Code so callers can branch with errors.As, plus a human-readable message
// built with whatever context (filename, block number, field name) was
// available at the call site.
type Error struct {
	Code Code
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.msg)
}

func (e *Error) Unwrap() error {
	return e.err
}

// Is reports whether target is an *Error with the same Code, so callers can
// write errors.Is(err, simpledberr.New(simpledberr.BufferAbort, "")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New constructs an Error with the given code and message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, msg: fmt.Sprintf(format, args...)}
}

// Wrap constructs an Error with the given code and message, chaining the
// underlying cause so errors.Unwrap/errors.As still reach it.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, msg: fmt.Sprintf(format, args...), err: cause}
}

// Assert panics with a LogicError if cond is false. It documents an
// invariant the caller must already have upheld (unpinning a frame that
// isn't pinned, reading a field before a successful scan position) rather
// than a runtime condition this module could reasonably recover from.
func Assert(cond bool, format string, args ...any) {
	if !cond {
		panic(New(LogicError, format, args...))
	}
}
