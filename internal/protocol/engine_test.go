package protocol

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chrissnell/vantaged/internal/crc16"
	"github.com/chrissnell/vantaged/internal/decode"
	"github.com/chrissnell/vantaged/internal/transport"
)

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// scriptedResponder answers a fixed set of exact-match writes and
// otherwise returns nothing, mirroring how the teacher's test fakes
// script a davis-emulator conversation.
func scriptedResponder(t *testing.T, script map[string][]byte) func([]byte) []byte {
	t.Helper()
	return func(written []byte) []byte {
		if reply, ok := script[string(written)]; ok {
			return reply
		}
		return nil
	}
}

func TestWakeupSucceeds(t *testing.T) {
	fake := transport.NewFake(scriptedResponder(t, map[string][]byte{
		"\n": []byte("\n\r"),
	}))
	e := New(fake, testLogger())
	require.NoError(t, e.Wakeup(context.Background()))
	require.True(t, e.awake)
}

func TestWakeupFailsAfterExhaustingAttempts(t *testing.T) {
	fake := transport.NewFake(nil)
	e := New(fake, testLogger())
	err := e.Wakeup(context.Background())
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	require.Equal(t, ProtocolAbort, kind)
}

// scenario 1 from spec.md §8: query-firmware over a fake that replies
// to LF with LF CR, then to "VER\n" with "\n\rOK\n\rApr 27 2023\n\r".
func TestFirmwareEndToEnd(t *testing.T) {
	fake := transport.NewFake(scriptedResponder(t, map[string][]byte{
		"\n":     []byte("\n\r"),
		"VER\n":  []byte("\n\rOK\n\rApr 27 2023\n\r"),
	}))
	e := New(fake, testLogger())
	ctx := context.Background()
	require.NoError(t, e.Wakeup(ctx))
	date, err := e.Firmware(ctx)
	require.NoError(t, err)
	require.Equal(t, "Apr 27 2023", date)
}

func TestSendACKFramedClassifiesNakAndCrcFail(t *testing.T) {
	cases := []struct {
		name string
		byte byte
		kind ErrorKind
	}{
		{"nak", 0x21, UnexpectedReply},
		{"crcfail", 0x18, CrcFailure},
		{"garbage", 0x55, UnexpectedReply},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fake := transport.NewFake(func(written []byte) []byte {
				return []byte{tc.byte}
			})
			e := New(fake, testLogger())
			err := e.sendACKFramed(context.Background(), "TEST")
			require.Error(t, err)
			kind, ok := KindOf(err)
			require.True(t, ok)
			require.Equal(t, ProtocolAbort, kind, "a reply that never becomes ACK fails the command once retries run out")

			kind, ok = KindOf(classifyAck(tc.byte))
			require.True(t, ok)
			require.Equal(t, tc.kind, kind)
		})
	}
}

func TestSendACKFramedAccepts(t *testing.T) {
	fake := transport.NewFake(func(written []byte) []byte {
		return []byte{ack}
	})
	e := New(fake, testLogger())
	require.NoError(t, e.sendACKFramed(context.Background(), "TEST"))
}

func TestEEWRRejectsProtectedAddress(t *testing.T) {
	fake := transport.NewFake(nil)
	e := New(fake, testLogger())
	err := e.EEWR(context.Background(), 0x2D, 0)
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	require.Equal(t, EepromProtected, kind)
	require.Empty(t, fake.Writes(), "protected write must perform no I/O")
}

func TestEEBWRRejectsProtectedRange(t *testing.T) {
	fake := transport.NewFake(nil)
	e := New(fake, testLogger())
	err := e.EEBWR(context.Background(), 0x09, []byte{1, 2, 3})
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	require.Equal(t, EepromProtected, kind)
	require.Empty(t, fake.Writes())
}

func TestEEBRDRoundTripsAgainstFake(t *testing.T) {
	want := []byte{0xAA, 0xBB, 0xCC, 0xDD}
	fake := transport.NewFake(func(written []byte) []byte {
		s := string(written)
		if s == "EEBRD 100 4\n" {
			return []byte{ack}
		}
		return nil
	})
	// Second reply (the data+CRC) must be queued independently since
	// it follows the ACK, not the command write.
	fake.Feed(crc16.AppendBE(append([]byte(nil), want...)))
	e := New(fake, testLogger())
	got, err := e.EEBRD(context.Background(), 0x100, 4)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestGetTimeDecodesTuple(t *testing.T) {
	tuple := []byte{30, 15, 9, 4, 7, 126} // sec,min,hour,day,month,year-1900
	fake := transport.NewFake(func(written []byte) []byte {
		if string(written) == "GETTIME\n" {
			return []byte{ack}
		}
		return nil
	})
	fake.Feed(crc16.AppendBE(append([]byte(nil), tuple...)))
	e := New(fake, testLogger())
	got, err := e.GetTime(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2026, got.Year())
	require.Equal(t, time.Month(7), got.Month())
	require.Equal(t, 4, got.Day())
	require.Equal(t, 9, got.Hour())
	require.Equal(t, 15, got.Minute())
	require.Equal(t, 30, got.Second())
}

func TestDMPAFTReturnsEmptyOnZeroNewRecords(t *testing.T) {
	header := crc16.AppendBE([]byte{0, 0, 0, 0}) // pageCount=0, firstValid=0
	fake := transport.NewFake(func(written []byte) []byte {
		s := string(written)
		if s == "DMPAFT\n" {
			return []byte{ack}
		}
		if len(written) == 6 {
			// the 4-byte date+time + 2-byte CRC payload
			return []byte{ack}
		}
		return nil
	})
	fake.Feed(header)
	e := New(fake, testLogger())
	d := decode.NewDecoder(0.01, nil)
	recs, err := e.DMPAFT(context.Background(), d, time.Now())
	require.NoError(t, err)
	require.Empty(t, recs)
}
