// Package transport defines the byte-level link to the console and a
// serial-port implementation of it. Per spec.md §1, byte transport is
// "deliberately OUT of scope" as a core concern — this package is the
// thin external collaborator the protocol engine talks to through an
// interface, grounded on the teacher's own separation between
// Station.rwc (an io.ReadWriteCloser) and the protocol logic built on
// top of it.
package transport

import (
	"io"
	"time"
)

// Transport is everything the protocol engine needs from a physical
// or emulated link to the console: byte-oriented read/write with a
// per-call deadline, and the ability to discard whatever is sitting
// unread in the input buffer (used when re-issuing a wakeup after a
// framing failure).
type Transport interface {
	io.ReadWriteCloser

	// SetDeadline arms a deadline for the next Read/Write call,
	// mirroring net.Conn and os.File's SetDeadline. spec.md §5 calls
	// for "a per-call timeout (~2s)" on every byte read.
	SetDeadline(t time.Time) error

	// Drain discards any bytes currently buffered for read, without
	// blocking for more to arrive. Used before a wakeup retry so a
	// stale reply from an earlier, abandoned command can't be
	// mistaken for a fresh one.
	Drain() error
}
