package protocol

import (
	"context"
	"fmt"

	"github.com/chrissnell/vantaged/internal/crc16"
)

// protectedAddresses is the fixed set of EEPROM addresses the console
// refuses to have written, per spec.md §4.3: "{0x01–0x0A, 0x2D}".
var protectedAddresses = func() map[uint16]bool {
	m := make(map[uint16]bool, 11)
	for a := uint16(0x01); a <= 0x0A; a++ {
		m[a] = true
	}
	m[0x2D] = true
	return m
}()

// IsProtected reports whether addr is refused for write.
func IsProtected(addr uint16) bool {
	return protectedAddresses[addr]
}

const eepromSize = 4096

// GetEE reads the entire 4096-byte EEPROM block with its trailing CRC.
func (e *Engine) GetEE(ctx context.Context) ([eepromSize]byte, error) {
	var out [eepromSize]byte
	err := e.withRetry(ctx, func() error {
		if err := e.write([]byte("GETEE\n")); err != nil {
			return err
		}
		reply, err := e.readN(ctx, 1)
		if err != nil {
			return err
		}
		if err := classifyAck(reply[0]); err != nil {
			return err
		}
		buf, err := e.readN(ctx, eepromSize+2)
		if err != nil {
			return err
		}
		if !crcOK(buf) {
			return NewError(CrcFailure, "GETEE CRC mismatch")
		}
		copy(out[:], buf[:eepromSize])
		return nil
	})
	return out, err
}

// EERD reads n bytes starting at addr, rendered by the console as
// ASCII hex lines ("HH\n\r" per byte), and returns the decoded bytes.
func (e *Engine) EERD(ctx context.Context, addr uint16, n int) ([]byte, error) {
	body, err := e.sendStringValue(ctx, fmt.Sprintf("EERD %X %X", addr, n))
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, n)
	for _, line := range splitHexLines(body) {
		var b byte
		if _, scanErr := fmt.Sscanf(line, "%02X", &b); scanErr != nil {
			return nil, Wrap(DecodeInvalidField, scanErr)
		}
		out = append(out, b)
	}
	if len(out) != n {
		return nil, Newf(UnexpectedReply, "EERD returned %d bytes, want %d", len(out), n)
	}
	return out, nil
}

func splitHexLines(body string) []string {
	var lines []string
	var cur []byte
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == '\n' || c == '\r' {
			if len(cur) > 0 {
				lines = append(lines, string(cur))
				cur = nil
			}
			continue
		}
		cur = append(cur, c)
	}
	if len(cur) > 0 {
		lines = append(lines, string(cur))
	}
	return lines
}

// EEBRD reads n bytes starting at addr as a single binary+CRC blob.
func (e *Engine) EEBRD(ctx context.Context, addr uint16, n int) ([]byte, error) {
	var out []byte
	err := e.withRetry(ctx, func() error {
		cmd := fmt.Sprintf("EEBRD %X %X\n", addr, n)
		if err := e.write([]byte(cmd)); err != nil {
			return err
		}
		reply, err := e.readN(ctx, 1)
		if err != nil {
			return err
		}
		if err := classifyAck(reply[0]); err != nil {
			return err
		}
		buf, err := e.readN(ctx, n+2)
		if err != nil {
			return err
		}
		if !crcOK(buf) {
			return NewError(CrcFailure, "EEBRD CRC mismatch")
		}
		out = append([]byte(nil), buf[:n]...)
		return nil
	})
	return out, err
}

// EEBWR writes data starting at addr as a single binary+CRC blob. It
// refuses (without performing any I/O) if data overlaps a protected
// address.
func (e *Engine) EEBWR(ctx context.Context, addr uint16, data []byte) error {
	for i := range data {
		if IsProtected(addr + uint16(i)) {
			return Newf(EepromProtected, "address %#x is protected", addr+uint16(i))
		}
	}
	return e.withRetry(ctx, func() error {
		cmd := fmt.Sprintf("EEBWR %X %X\n", addr, len(data))
		if err := e.write([]byte(cmd)); err != nil {
			return err
		}
		reply, err := e.readN(ctx, 1)
		if err != nil {
			return err
		}
		if err := classifyAck(reply[0]); err != nil {
			return err
		}
		payload := crc16.AppendBE(append([]byte(nil), data...))
		if err := e.write(payload); err != nil {
			return err
		}
		reply, err = e.readN(ctx, 1)
		if err != nil {
			return err
		}
		return classifyAck(reply[0])
	})
}

// EEWR writes a single byte at addr, rendered as hex. It refuses
// (without performing any I/O) if addr is protected.
func (e *Engine) EEWR(ctx context.Context, addr uint16, b byte) error {
	if IsProtected(addr) {
		return Newf(EepromProtected, "address %#x is protected", addr)
	}
	return e.sendACKFramed(ctx, fmt.Sprintf("EEWR %X %02X", addr, b))
}
