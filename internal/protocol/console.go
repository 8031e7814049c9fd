package protocol

import (
	"context"
	"fmt"
)

// Firmware returns the console's firmware date string, e.g.
// "Apr 27 2023", via the "VER" string-value command.
func (e *Engine) Firmware(ctx context.Context) (string, error) {
	return e.sendStringValue(ctx, "VER")
}

// ConsoleType returns the console hardware type string via "WRD".
func (e *Engine) ConsoleType(ctx context.Context) (string, error) {
	return e.sendStringValue(ctx, "WRD\x12\x4d")
}

// Receivers returns the bitmask of transmitter channels (1..8, bit
// 0 = channel 1) the console currently hears from.
func (e *Engine) Receivers(ctx context.Context) (byte, error) {
	var mask byte
	err := e.withRetry(ctx, func() error {
		if err := e.write([]byte("RECEIVERS\n")); err != nil {
			return err
		}
		header, err := e.readUntil(ctx, []byte("OK\n\r"), 64)
		if err != nil {
			return err
		}
		reply, err := e.readN(ctx, 1)
		if err != nil {
			return err
		}
		_ = header
		mask = reply[0]
		return nil
	})
	return mask, err
}

// Backlight turns the console's backlight on or off via "LAMPS".
func (e *Engine) Backlight(ctx context.Context, on bool) error {
	v := 0
	if on {
		v = 1
	}
	return e.sendOKFramed(ctx, fmt.Sprintf("LAMPS %d", v))
}

// SetArchivePeriod sets the interval, in minutes, at which the
// console writes archive records. Valid values per spec.md §6:
// {1,5,10,15,30,60,120}.
func (e *Engine) SetArchivePeriod(ctx context.Context, minutes int) error {
	switch minutes {
	case 1, 5, 10, 15, 30, 60, 120:
	default:
		return Newf(ArgumentInvalid, "unsupported archive period %d", minutes)
	}
	return e.sendACKFramed(ctx, fmt.Sprintf("SETPER %d", minutes))
}

// ClearArchive clears the console's internal circular archive buffer
// via "CLRLOG".
func (e *Engine) ClearArchive(ctx context.Context) error {
	return e.sendOKFramed(ctx, "CLRLOG")
}

// PutYearRain sets the console's year-to-date rainfall, in rain
// clicks, via "PUTRAIN".
func (e *Engine) PutYearRain(ctx context.Context, clicks uint16) error {
	return e.sendOKFramed(ctx, fmt.Sprintf("PUTRAIN %d", clicks))
}

// PutYearET sets the console's year-to-date ET, in hundredths of an
// inch, via "PUTET".
func (e *Engine) PutYearET(ctx context.Context, hundredths uint16) error {
	return e.sendOKFramed(ctx, fmt.Sprintf("PUTET %d", hundredths))
}

// HiLow requests the Hi/Low packet via "HILOWS" and returns the raw,
// CRC-validated 438-byte body for the caller to decode with
// packet.DecodeHiLow.
func (e *Engine) HiLow(ctx context.Context) ([]byte, error) {
	var body []byte
	err := e.withRetry(ctx, func() error {
		if err := e.write([]byte("HILOWS\n")); err != nil {
			return err
		}
		reply, err := e.readN(ctx, 1)
		if err != nil {
			return err
		}
		if err := classifyAck(reply[0]); err != nil {
			return err
		}
		buf, err := e.readN(ctx, 438)
		if err != nil {
			return err
		}
		if !crcOK(buf) {
			return NewError(CrcFailure, "HILOWS CRC mismatch")
		}
		body = buf
		return nil
	})
	return body, err
}
