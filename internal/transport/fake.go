package transport

import (
	"bytes"
	"errors"
	"sync"
	"time"
)

// Fake is an in-memory Transport for tests: writes are captured for
// assertions, and reads are served from a scripted queue of byte
// slices (or produced on demand by a Responder), the way the
// teacher's davis-emulator answers command bytes with scripted
// replies instead of real hardware.
type Fake struct {
	mu        sync.Mutex
	responder func(written []byte) []byte
	pending   bytes.Buffer
	writes    [][]byte
	closed    bool
	deadline  time.Time
}

// NewFake constructs a Fake transport. responder, if non-nil, is
// invoked on every Write with the bytes just written and should
// return the bytes the fake console "replies" with (possibly empty).
func NewFake(responder func(written []byte) []byte) *Fake {
	return &Fake{responder: responder}
}

func (f *Fake) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0, errors.New("transport: fake is closed")
	}
	cp := append([]byte(nil), p...)
	f.writes = append(f.writes, cp)
	if f.responder != nil {
		// The reply goes ahead of bytes already queued with Feed, so fed
		// bytes follow the reply to the Write that comes after them.
		queued := append([]byte(nil), f.pending.Bytes()...)
		f.pending.Reset()
		f.pending.Write(f.responder(cp))
		f.pending.Write(queued)
	}
	return len(p), nil
}

func (f *Fake) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0, errors.New("transport: fake is closed")
	}
	if f.pending.Len() == 0 {
		return 0, errors.New("transport: fake read timeout, no data queued")
	}
	return f.pending.Read(p)
}

// Feed queues bytes to be returned by subsequent Reads, after the
// responder's reply to the next Write (used to script a reply that
// follows an acknowledgement, e.g. the data block after EEBRD's ACK).
func (f *Fake) Feed(p []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending.Write(p)
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *Fake) SetDeadline(t time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deadline = t
	return nil
}

// Drain discards any bytes currently queued for read.
func (f *Fake) Drain() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending.Reset()
	return nil
}

// Writes returns every byte slice passed to Write so far, for test
// assertions on what the protocol engine sent.
func (f *Fake) Writes() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.writes...)
}
