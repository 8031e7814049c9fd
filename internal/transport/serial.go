package transport

import (
	"fmt"
	"io"
	"time"

	serial "github.com/tarm/goserial"
)

// SerialConfig configures the serial device the console is attached
// to. BaudRate follows the console's documented default of 19200.
type SerialConfig struct {
	Device   string
	BaudRate int
}

// serialTransport adapts a goserial port (which exposes no deadline
// or drain of its own) to the Transport interface, the way the
// teacher's Station wraps a serial.Config behind an io.ReadWriteCloser
// field rather than exposing goserial's type directly.
type serialTransport struct {
	port io.ReadWriteCloser
}

// OpenSerial opens the console's serial device, grounded on the
// teacher's connectToSerialStation (internal/weatherstations/davis).
func OpenSerial(cfg SerialConfig) (Transport, error) {
	if cfg.BaudRate == 0 {
		cfg.BaudRate = 19200
	}
	port, err := serial.OpenPort(&serial.Config{
		Name: cfg.Device,
		Baud: cfg.BaudRate,
	})
	if err != nil {
		return nil, fmt.Errorf("transport: open serial device %s: %w", cfg.Device, err)
	}
	return &serialTransport{port: port}, nil
}

func (s *serialTransport) Read(p []byte) (int, error)  { return s.port.Read(p) }
func (s *serialTransport) Write(p []byte) (int, error) { return s.port.Write(p) }
func (s *serialTransport) Close() error                { return s.port.Close() }

// SetDeadline is a no-op: github.com/tarm/goserial configures its read
// timeout once at Open time (serial.Config has no per-call deadline
// API). Nothing else bounds a read on this transport: internal/protocol
// checks its context only between reads, so a Read returns only when
// the port itself returns data or an error.
func (s *serialTransport) SetDeadline(t time.Time) error { return nil }

// Drain reads and discards whatever is currently available without
// blocking past a short grace period.
func (s *serialTransport) Drain() error {
	buf := make([]byte, 256)
	for {
		_ = s.SetDeadline(time.Now().Add(50 * time.Millisecond))
		n, err := s.port.Read(buf)
		if n == 0 || err != nil {
			return nil
		}
	}
}
