package protocol

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chrissnell/vantaged/internal/crc16"
	"github.com/chrissnell/vantaged/internal/decode"
	"github.com/chrissnell/vantaged/internal/packet"
	"github.com/chrissnell/vantaged/internal/transport"
)

// minimalLoopFrame builds a syntactically valid, all-dashed LOOP
// (packetType 0) or LOOP2 (packetType 1) frame of packet.Size bytes.
func minimalLoopFrame(packetType byte) []byte {
	buf := make([]byte, packet.Size-2)
	copy(buf, "LOO")
	buf[4] = packetType
	buf[packet.Size-4] = '\n'
	buf[packet.Size-3] = '\r'
	return crc16.AppendBE(buf)
}

func TestLPSDeliversLoopThenLoop2InOrder(t *testing.T) {
	loopFrame := minimalLoopFrame(0)
	loop2Frame := minimalLoopFrame(1)

	var script [][]byte
	script = append(script, loopFrame, loop2Frame)

	fake := transport.NewFake(func(written []byte) []byte {
		s := string(written)
		if s == "\n" {
			return []byte("\n\r")
		}
		if s == "LPS 3 2\n" {
			out := append([]byte{ack}, loopFrame...)
			out = append(out, loop2Frame...)
			return out
		}
		return nil
	})
	e := New(fake, testLogger())
	ctx := context.Background()
	require.NoError(t, e.Wakeup(ctx))

	d := decode.NewDecoder(0.01, nil)
	var gotLoop, gotLoop2 bool
	err := e.LPS(ctx, 2, d, func(loop *packet.Loop, loop2 *packet.Loop2) bool {
		if loop != nil {
			gotLoop = true
			require.False(t, gotLoop2, "LOOP must arrive before its paired LOOP2")
		}
		if loop2 != nil {
			gotLoop2 = true
		}
		return true
	})
	require.NoError(t, err)
	require.True(t, gotLoop)
	require.True(t, gotLoop2)
}

func TestLPSStopsEarlyOnHandlerRequest(t *testing.T) {
	loopFrame := minimalLoopFrame(0)
	loop2Frame := minimalLoopFrame(1)

	fake := transport.NewFake(func(written []byte) []byte {
		s := string(written)
		switch s {
		case "\n":
			return []byte("\n\r")
		case "LPS 3 4\n":
			out := append([]byte{ack}, loopFrame...)
			out = append(out, loop2Frame...)
			return out
		}
		return nil
	})
	e := New(fake, testLogger())
	ctx := context.Background()
	require.NoError(t, e.Wakeup(ctx))

	d := decode.NewDecoder(0.01, nil)
	calls := 0
	err := e.LPS(ctx, 4, d, func(loop *packet.Loop, loop2 *packet.Loop2) bool {
		calls++
		return calls < 2
	})
	require.NoError(t, err)
	require.Equal(t, 2, calls, "handler returning false must cancel the loop early")
}

func TestLPSFailsOnCRCMismatch(t *testing.T) {
	bad := minimalLoopFrame(0)
	bad[len(bad)-1] ^= 0xFF // corrupt the CRC

	fake := transport.NewFake(func(written []byte) []byte {
		s := string(written)
		if s == "\n" {
			return []byte("\n\r")
		}
		if s == "LPS 3 1\n" {
			return append([]byte{ack}, bad...)
		}
		return nil
	})
	e := New(fake, testLogger())
	ctx := context.Background()
	require.NoError(t, e.Wakeup(ctx))

	d := decode.NewDecoder(0.01, nil)
	err := e.LPS(ctx, 1, d, func(loop *packet.Loop, loop2 *packet.Loop2) bool { return true })
	require.Error(t, err)
}
