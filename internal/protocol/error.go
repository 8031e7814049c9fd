package protocol

import "fmt"

// ErrorKind is the closed set of error kinds from spec.md §7. Every
// failure the protocol engine or its callers can observe is one of
// these; no other error shape crosses a package boundary from here.
type ErrorKind int

const (
	TransportIo ErrorKind = iota
	Timeout
	FramingBadPrefix
	FramingBadTerminator
	CrcFailure
	UnexpectedReply
	ProtocolAbort
	DecodeInvalidField
	ArgumentInvalid
	EepromProtected
	ArchiveIo
	ArchiveOutOfOrder
	NotPermitted
	AlreadyBusy
)

func (k ErrorKind) String() string {
	switch k {
	case TransportIo:
		return "TransportIo"
	case Timeout:
		return "Timeout"
	case FramingBadPrefix:
		return "FramingBadPrefix"
	case FramingBadTerminator:
		return "FramingBadTerminator"
	case CrcFailure:
		return "CrcFailure"
	case UnexpectedReply:
		return "UnexpectedReply"
	case ProtocolAbort:
		return "ProtocolAbort"
	case DecodeInvalidField:
		return "DecodeInvalidField"
	case ArgumentInvalid:
		return "ArgumentInvalid"
	case EepromProtected:
		return "EepromProtected"
	case ArchiveIo:
		return "ArchiveIo"
	case ArchiveOutOfOrder:
		return "ArchiveOutOfOrder"
	case NotPermitted:
		return "NotPermitted"
	case AlreadyBusy:
		return "AlreadyBusy"
	default:
		return "Unknown"
	}
}

// Error wraps an underlying cause with its ErrorKind. No stack traces
// or internal enum names are meant to reach an external caller
// directly — the dispatcher renders only the wrapped Err's message
// into its data.error field, never the Kind or this Error's Go-level
// type name.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError constructs an Error of the given kind from a message.
func NewError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf("%s", msg)}
}

// Newf constructs an Error of the given kind from a format string.
func Newf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Wrap constructs an Error of the given kind wrapping err.
func Wrap(kind ErrorKind, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// KindOf extracts the ErrorKind from err if it (or something it
// wraps) is an *Error, and reports whether one was found.
func KindOf(err error) (ErrorKind, bool) {
	var pe *Error
	for err != nil {
		if e, ok := err.(*Error); ok {
			pe = e
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if pe == nil {
		return 0, false
	}
	return pe.Kind, true
}
