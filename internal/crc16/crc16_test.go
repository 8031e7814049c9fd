package crc16

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksumOfEmptyIsZero(t *testing.T) {
	require.Equal(t, uint16(0), Checksum(nil))
}

func TestAppendBEMakesBufferValid(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
	}{
		{"empty", []byte{}},
		{"short", []byte{0x4C, 0x4F, 0x4F}},
		{"loop-like", []byte("LOOP packet body goes here, 99 bytes worth of nonsense filler")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			framed := AppendBE(append([]byte(nil), tt.buf...))
			assert.True(t, Valid(framed))
			assert.Equal(t, uint16(0), Checksum(framed))
		})
	}
}

func TestValidRejectsCorruption(t *testing.T) {
	framed := AppendBE([]byte{0x01, 0x02, 0x03})
	framed[0] ^= 0xFF
	assert.False(t, Valid(framed))
}

func TestChecksumIsOrderSensitive(t *testing.T) {
	a := Checksum([]byte{0x01, 0x02})
	b := Checksum([]byte{0x02, 0x01})
	assert.NotEqual(t, a, b)
}
