package protocol

import (
	"context"
	"time"

	"github.com/chrissnell/vantaged/internal/crc16"
)

// SetTime sets the console's clock: ACK → send {ss,mm,HH,dd,MM,yy}+CRC
// → ACK.
func (e *Engine) SetTime(ctx context.Context, t time.Time) error {
	return e.withRetry(ctx, func() error {
		if err := e.write([]byte("SETTIME\n")); err != nil {
			return err
		}
		reply, err := e.readN(ctx, 1)
		if err != nil {
			return err
		}
		if err := classifyAck(reply[0]); err != nil {
			return err
		}
		payload := []byte{
			byte(t.Second()), byte(t.Minute()), byte(t.Hour()),
			byte(t.Day()), byte(t.Month()), byte(t.Year() - 1900),
		}
		payload = crc16.AppendBE(payload)
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

// GetTime reads the console's clock: ACK → read 6-byte tuple+CRC.
func (e *Engine) GetTime(ctx context.Context) (time.Time, error) {
	var out time.Time
	err := e.withRetry(ctx, func() error {
		if err := e.write([]byte("GETTIME\n")); err != nil {
			return err
		}
		reply, err := e.readN(ctx, 1)
		if err != nil {
			return err
		}
		if err := classifyAck(reply[0]); err != nil {
			return err
		}
		buf, err := e.readN(ctx, 8)
		if err != nil {
			return err
		}
		if !crcOK(buf) {
			return NewError(CrcFailure, "GETTIME CRC mismatch")
		}
		sec, min, hour, day, month, year := int(buf[0]), int(buf[1]), int(buf[2]), int(buf[3]), int(buf[4]), int(buf[5])
		out = time.Date(year+1900, time.Month(month), day, hour, min, sec, 0, time.Local)
		return nil
	})
	return out, err
}
