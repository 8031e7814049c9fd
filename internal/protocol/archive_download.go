package protocol

import (
	"context"
	"time"

	"github.com/chrissnell/vantaged/internal/crc16"
	"github.com/chrissnell/vantaged/internal/decode"
	"github.com/chrissnell/vantaged/internal/packet"
)

const (
	// MaxDumpPages is the number of pages a full DMP reads: 512 pages
	// (2560 records). The source comments disagree across files about
	// the true limit (512 pages / 2560 records / 2450 records); absent
	// an authoritative device manual, DMP reads this fixed count — see
	// DESIGN.md's Open Question decisions.
	MaxDumpPages = 512

	pageSize       = 267
	recordsPerPage = 5
	pageCRCOffset  = pageSize - 2
)

// DMP requests an unconditional full archive dump and reads exactly
// MaxDumpPages pages. A console that stops sending before the last
// page makes a page read fail; that failure is retried like any other
// command failure and, once retries run out, returned as
// ProtocolAbort.
func (e *Engine) DMP(ctx context.Context, d *decode.Decoder) ([]*packet.Record, error) {
	var records []*packet.Record
	err := e.withRetry(ctx, func() error {
		records = nil
		if err := e.write([]byte("DMP\n")); err != nil {
			return err
		}
		reply, err := e.readN(ctx, 1)
		if err != nil {
			return err
		}
		if err := classifyAck(reply[0]); err != nil {
			return err
		}
		got, err := e.pageLoop(ctx, d, 0, MaxDumpPages)
		if err != nil {
			return err
		}
		records = got
		return nil
	})
	return records, err
}

// DMPAFT requests every archive record strictly after since. It
// returns an empty (non-nil) slice, not an error, if the console
// reports zero new records.
func (e *Engine) DMPAFT(ctx context.Context, d *decode.Decoder, since time.Time) ([]*packet.Record, error) {
	var records []*packet.Record
	err := e.withRetry(ctx, func() error {
		records = nil
		if err := e.write([]byte("DMPAFT\n")); err != nil {
			return err
		}
		reply, err := e.readN(ctx, 1)
		if err != nil {
			return err
		}
		if err := classifyAck(reply[0]); err != nil {
			return err
		}

		datePayload := dateTimeBytes(since)
		datePayload = crc16.AppendBE(datePayload)
		if err := e.write(datePayload); err != nil {
			return err
		}
		reply, err = e.readN(ctx, 1)
		if err != nil {
			return err
		}
		if err := classifyAck(reply[0]); err != nil {
			return err
		}

		header, err := e.readN(ctx, 6)
		if err != nil {
			return err
		}
		if !crcOK(header) {
			return NewError(CrcFailure, "DMPAFT header CRC mismatch")
		}
		pageCount := int(header[0]) | int(header[1])<<8
		firstValid := int(header[2]) | int(header[3])<<8
		if err := e.write([]byte{ack}); err != nil {
			return err
		}
		if pageCount == 0 {
			records = []*packet.Record{}
			return nil
		}

		got, err := e.pageLoop(ctx, d, firstValid, pageCount)
		if err != nil {
			return err
		}
		records = got
		return nil
	})
	return records, err
}

// dateTimeBytes packs t the way SETTIME/DMPAFT date arguments are
// packed: a 2-byte packed date (year+2000/month/day) followed by a
// 2-byte time (hour*100+minute), little-endian.
func dateTimeBytes(t time.Time) []byte {
	date := uint16((t.Year()-2000)<<9 | int(t.Month())<<5 | t.Day())
	clock := uint16(t.Hour()*100 + t.Minute())
	return []byte{byte(date), byte(date >> 8), byte(clock), byte(clock >> 8)}
}

// pageLoop reads pageCount pages of 267 bytes each, retrying a CRC
// failure up to PageRetries times by sending NAK for the same page.
// Records before firstValid are skipped on the first page only;
// records whose decoded time is ≤ the highest seen so far are
// skipped everywhere (guards against the console wrapping into
// earlier data near the end of its circular buffer).
func (e *Engine) pageLoop(ctx context.Context, d *decode.Decoder, firstValid, pageCount int) ([]*packet.Record, error) {
	var records []*packet.Record
	var highest time.Time
	loc := time.Local

	for page := 0; page < pageCount; page++ {
		var buf []byte
		ok := false
		for attempt := 0; attempt < PageRetries; attempt++ {
			b, err := e.readN(ctx, pageSize)
			if err != nil {
				return nil, err
			}
			if crcOK(b) {
				buf = b
				ok = true
				break
			}
			e.logger.Debugw("archive page CRC failure, requesting retransmit", "page", page, "attempt", attempt)
			if err := e.write([]byte{nak}); err != nil {
				return nil, err
			}
		}
		if !ok {
			return nil, Newf(CrcFailure, "page %d failed CRC after %d attempts", page, PageRetries)
		}

		for i := 0; i < recordsPerPage; i++ {
			if page == 0 && i < firstValid {
				continue
			}
			off := 1 + i*packet.RecordSize
			raw := buf[off : off+packet.RecordSize]
			rec, err := packet.Decode(raw, d)
			if err != nil {
				return nil, Wrap(DecodeInvalidField, err)
			}
			if rec.IsEmpty() {
				continue
			}
			t := rec.EpochTime(loc)
			if !highest.IsZero() && !t.After(highest) {
				continue
			}
			highest = t
			records = append(records, rec)
		}

		if page == pageCount-1 {
			if err := e.write([]byte{ack}); err != nil {
				return nil, err
			}
			break
		}
		if err := ctx.Err(); err != nil {
			_ = e.write([]byte{esc})
			return nil, Wrap(Timeout, err)
		}
		if err := e.write([]byte{ack}); err != nil {
			return nil, err
		}
	}
	if records == nil {
		records = []*packet.Record{}
	}
	return records, nil
}
