package bitcodec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTrip16LE(t *testing.T) {
	tests := []struct {
		name string
		in   int16
	}{
		{"zero", 0},
		{"positive", 12345},
		{"negative", -32768},
		{"maxint16", 32767},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := make([]byte, 4)
			PutInt16LE(buf, 1, tt.in)
			require.Equal(t, tt.in, Int16LE(buf, 1))
		})
	}
}

func TestRoundTrip32LE(t *testing.T) {
	buf := make([]byte, 8)
	PutUint32LE(buf, 2, 0xDEADBEEF)
	require.Equal(t, uint32(0xDEADBEEF), Uint32LE(buf, 2))
}

func TestBigEndianDiffersFromLittleEndian(t *testing.T) {
	buf := make([]byte, 2)
	PutUint16BE(buf, 0, 0x1234)
	require.Equal(t, byte(0x12), buf[0])
	require.Equal(t, byte(0x34), buf[1])

	PutUint16LE(buf, 0, 0x1234)
	require.Equal(t, byte(0x34), buf[0])
	require.Equal(t, byte(0x12), buf[1])
}

func TestUint8AndInt8(t *testing.T) {
	buf := []byte{0xFF, 0x7F}
	require.Equal(t, uint8(0xFF), Uint8(buf, 0))
	require.Equal(t, int8(-1), Int8(buf, 0))
	require.Equal(t, int8(127), Int8(buf, 1))
}
