package protocol

import (
	"bytes"
	"context"
	"fmt"

	"github.com/chrissnell/vantaged/internal/decode"
	"github.com/chrissnell/vantaged/internal/packet"
)

// PacketHandler receives one decoded LOOP or LOOP2 packet (exactly one
// of the two pointers is non-nil) and reports whether the LPS loop
// should continue. Returning false causes the engine to cancel the
// loop via a wakeup, per spec.md §4.3/§4.5.
type PacketHandler func(loop *packet.Loop, loop2 *packet.Loop2) (more bool)

// LPS drives "LPS 3 <n>" for n alternating LOOP/LOOP2 packets (LOOP
// first, then LOOP2, repeated), invoking handler after each decode.
// The loop stops early on handler's request, a framing/CRC failure
// that exhausts retries, or after n packets.
func (e *Engine) LPS(ctx context.Context, n int, d *decode.Decoder, handler PacketHandler) error {
	return e.withRetry(ctx, func() error {
		cmd := []byte(fmt.Sprintf("LPS 3 %d\n", n))
		if err := e.write(cmd); err != nil {
			return err
		}
		reply, err := e.readN(ctx, 1)
		if err != nil {
			return err
		}
		if err := classifyAck(reply[0]); err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			wantLoop2 := i%2 == 1
			more, err := e.readLoopPacket(ctx, d, wantLoop2, handler)
			if err != nil {
				return err
			}
			if !more {
				return e.Wakeup(ctx)
			}
		}
		return nil
	})
}

func (e *Engine) readLoopPacket(ctx context.Context, d *decode.Decoder, wantLoop2 bool, handler PacketHandler) (bool, error) {
	buf, err := e.readN(ctx, packet.Size)
	if err != nil {
		return false, err
	}
	if !bytes.HasPrefix(buf, []byte("LOO")) {
		e.diag.ResyncCount++
		return false, Newf(FramingBadPrefix, "LOOP packet missing LOO prefix: %x", buf[:3])
	}
	if buf[95] != '\n' || buf[96] != '\r' {
		e.diag.PacketsMissed++
		return false, NewError(FramingBadTerminator, "LOOP packet missing LF CR trailer")
	}
	if !crcOK(buf) {
		e.diag.CrcErrorCount++
		e.diag.PacketsMissed++
		return false, NewError(CrcFailure, "LOOP packet CRC mismatch")
	}
	e.diag.PacketsReceived++
	if wantLoop2 {
		p2, err := packet.DecodeLoop2(buf, d)
		if err != nil {
			return false, Wrap(DecodeInvalidField, err)
		}
		return handler(nil, p2), nil
	}
	p1, err := packet.DecodeLoop(buf, d)
	if err != nil {
		return false, Wrap(DecodeInvalidField, err)
	}
	return handler(p1, nil), nil
}
