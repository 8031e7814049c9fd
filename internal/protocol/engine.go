// Package protocol implements the console's serial command language as
// a blocking state machine: wakeup, framed commands, the ACK/NACK/CRC
// dance, and the streaming archive and EEPROM exchanges. It owns the
// one rule the rest of the system leans on — only one logical command
// is ever in flight on the wire at a time — grounded on the teacher's
// Station, which drives its serial port the same single-threaded way.
package protocol

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/chrissnell/vantaged/internal/crc16"
	"github.com/chrissnell/vantaged/internal/transport"
)

const (
	ack byte = 0x06
	nak byte = 0x21
	crcFailByte byte = 0x18
	esc byte = 0x1b

	// WakeupAttempts is how many LF/LF-CR round trips the engine will
	// try before declaring the console unreachable.
	WakeupAttempts = 5

	// CommandRetries is how many times a framed command is re-issued
	// (with a fresh wakeup in between) before it fails to its caller.
	CommandRetries = 3

	// PageRetries is how many times a single DMP/DMPAFT page is
	// re-requested after a CRC failure before the download aborts.
	PageRetries = 3

	// readTimeout bounds every individual byte read on the wire.
	readTimeout = 2 * time.Second

	wakeupRetryDelay = 300 * time.Millisecond
)

// Engine drives one console over one Transport. It is not safe for
// concurrent use by more than one goroutine — callers serialize access
// to it themselves (the dispatcher's console-bound worker does this).
type Engine struct {
	tr     transport.Transport
	logger *zap.SugaredLogger

	awake bool
	diag  Diagnostics
}

// Diagnostics mirrors the original's ConsoleDiagnosticReport: running
// counters the LPS loop accumulates across its lifetime, surfaced
// read-only via Engine.Diagnostics for the query-console-diagnostics
// command.
type Diagnostics struct {
	PacketsReceived uint32
	PacketsMissed   uint32
	ResyncCount     uint32
	CrcErrorCount   uint32
}

// Diagnostics returns a snapshot of the engine's running packet
// counters.
func (e *Engine) Diagnostics() Diagnostics {
	return e.diag
}

// New constructs an Engine over an already-open Transport.
func New(tr transport.Transport, logger *zap.SugaredLogger) *Engine {
	return &Engine{tr: tr, logger: logger}
}

// Close closes the underlying transport.
func (e *Engine) Close() error {
	return e.tr.Close()
}

func (e *Engine) readN(ctx context.Context, n int) ([]byte, error) {
	buf := make([]byte, n)
	got := 0
	for got < n {
		if err := ctx.Err(); err != nil {
			return nil, Wrap(Timeout, err)
		}
		if err := e.tr.SetDeadline(time.Now().Add(readTimeout)); err != nil {
			return nil, Wrap(TransportIo, err)
		}
		m, err := e.tr.Read(buf[got:])
		if err != nil {
			return nil, Wrap(TransportIo, err)
		}
		got += m
	}
	return buf, nil
}

// readUntil reads a single byte at a time until the trailing bytes of
// the accumulated buffer equal delim, or maxLen is exceeded.
func (e *Engine) readUntil(ctx context.Context, delim []byte, maxLen int) ([]byte, error) {
	var buf []byte
	one := make([]byte, 1)
	for {
		if len(buf) > maxLen {
			return nil, Newf(FramingBadTerminator, "no %q within %d bytes", delim, maxLen)
		}
		if err := ctx.Err(); err != nil {
			return nil, Wrap(Timeout, err)
		}
		if err := e.tr.SetDeadline(time.Now().Add(readTimeout)); err != nil {
			return nil, Wrap(TransportIo, err)
		}
		n, err := e.tr.Read(one)
		if err != nil {
			return nil, Wrap(TransportIo, err)
		}
		if n == 0 {
			continue
		}
		buf = append(buf, one[0])
		if len(buf) >= len(delim) && bytes.Equal(buf[len(buf)-len(delim):], delim) {
			return buf, nil
		}
	}
}

func (e *Engine) write(p []byte) error {
	_, err := e.tr.Write(p)
	if err != nil {
		return Wrap(TransportIo, err)
	}
	return nil
}

// Wakeup sends LF and expects LF CR back, retrying up to WakeupAttempts
// times. It is the precondition for every other exchange.
func (e *Engine) Wakeup(ctx context.Context) error {
	var lastErr error
	for attempt := 1; attempt <= WakeupAttempts; attempt++ {
		if err := e.tr.Drain(); err != nil {
			return Wrap(TransportIo, err)
		}
		if err := e.write([]byte("\n")); err != nil {
			lastErr = err
			continue
		}
		reply, err := e.readN(ctx, 2)
		if err != nil {
			lastErr = err
			e.logger.Debugw("wakeup attempt failed", "attempt", attempt, "error", err)
			time.Sleep(wakeupRetryDelay)
			continue
		}
		if reply[0] == '\n' && reply[1] == '\r' {
			e.awake = true
			return nil
		}
		lastErr = Newf(UnexpectedReply, "wakeup got %x, want 0a0d", reply)
		time.Sleep(wakeupRetryDelay)
	}
	e.awake = false
	return Wrap(ProtocolAbort, fmt.Errorf("console did not wake after %d attempts: %w", WakeupAttempts, lastErr))
}

// withRetry issues fn, and on a retriable error (anything tagged
// TransportIo, Timeout, CrcFailure, UnexpectedReply, FramingBadPrefix,
// or FramingBadTerminator) drains the transport, re-wakes the console,
// and tries again, up to CommandRetries times total.
func (e *Engine) withRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= CommandRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !retriable(err) {
			return err
		}
		e.logger.Debugw("command failed, retrying", "attempt", attempt, "error", err)
		_ = e.tr.Drain()
		if wakeErr := e.Wakeup(ctx); wakeErr != nil {
			return wakeErr
		}
	}
	return Wrap(ProtocolAbort, fmt.Errorf("exhausted %d retries: %w", CommandRetries, lastErr))
}

func retriable(err error) bool {
	kind, ok := KindOf(err)
	if !ok {
		return false
	}
	switch kind {
	case TransportIo, Timeout, CrcFailure, UnexpectedReply, FramingBadPrefix, FramingBadTerminator:
		return true
	default:
		return false
	}
}

// sendOKFramed sends cmd+LF and expects LF CR "OK" LF CR.
func (e *Engine) sendOKFramed(ctx context.Context, cmd string) error {
	return e.withRetry(ctx, func() error {
		if err := e.write([]byte(cmd + "\n")); err != nil {
			return err
		}
		reply, err := e.readUntil(ctx, []byte("OK\n\r"), 64)
		if err != nil {
			return err
		}
		if !bytes.HasPrefix(reply, []byte("\n\r")) {
			return Newf(FramingBadPrefix, "OK-framed reply missing leading LF CR: %q", reply)
		}
		return nil
	})
}

// sendACKFramed sends cmd+LF and expects a single ACK byte.
func (e *Engine) sendACKFramed(ctx context.Context, cmd string) error {
	return e.withRetry(ctx, func() error {
		if err := e.write([]byte(cmd + "\n")); err != nil {
			return err
		}
		reply, err := e.readN(ctx, 1)
		if err != nil {
			return err
		}
		return classifyAck(reply[0])
	})
}

func classifyAck(b byte) error {
	switch b {
	case ack:
		return nil
	case nak:
		return NewError(UnexpectedReply, "console replied NAK")
	case crcFailByte:
		return NewError(CrcFailure, "console replied CRC-fail")
	default:
		return Newf(UnexpectedReply, "console replied unexpected byte %#x", b)
	}
}

// sendStringValue sends an OK-framed command then reads the body up to
// the next LF CR, returning it with the trailing delimiter stripped.
func (e *Engine) sendStringValue(ctx context.Context, cmd string) (string, error) {
	var body string
	err := e.withRetry(ctx, func() error {
		if err := e.write([]byte(cmd + "\n")); err != nil {
			return err
		}
		header, err := e.readUntil(ctx, []byte("OK\n\r"), 64)
		if err != nil {
			return err
		}
		if !bytes.HasPrefix(header, []byte("\n\r")) {
			return Newf(FramingBadPrefix, "string-value reply missing leading LF CR: %q", header)
		}
		raw, err := e.readUntil(ctx, []byte("\n\r"), 512)
		if err != nil {
			return err
		}
		body = string(bytes.TrimSuffix(raw, []byte("\n\r")))
		return nil
	})
	return body, err
}

// crcOK reports whether buf's trailing two bytes are a valid
// big-endian CRC-16 over the buffer, per internal/crc16.
func crcOK(buf []byte) bool {
	return crc16.Valid(buf)
}
