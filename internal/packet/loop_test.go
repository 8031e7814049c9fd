package packet

import (
	"testing"

	"github.com/chrissnell/vantaged/internal/bitcodec"
	"github.com/chrissnell/vantaged/internal/crc16"
	"github.com/chrissnell/vantaged/internal/decode"
	"github.com/stretchr/testify/require"
)

// newLoopBuffer builds a syntactically valid 99-byte LOOP body (sans
// CRC) with every field at its "dash" sentinel, then lets the caller
// patch individual fields before the CRC is appended.
func newLoopBuffer(packetType byte, patch func(buf []byte)) []byte {
	buf := make([]byte, 97) // everything but LF/CR/CRC
	copy(buf, "LOO")
	buf[offBaroTrend] = 0
	buf[offPacketType] = packetType
	bitcodec.PutUint16LE(buf, offNextRecord, 0)
	bitcodec.PutUint16LE(buf, offBarometer, 0) // sentinel
	bitcodec.PutInt16LE(buf, offInsideTemp, 32767)
	buf[offInsideHumid] = 255
	bitcodec.PutInt16LE(buf, offOutsideTemp, 32767)
	buf[offWindSpeed] = 255
	buf[offWindSpeed10] = 255
	bitcodec.PutUint16LE(buf, offWindDir, 255)
	for i := 0; i < 3; i++ {
		buf[offExtraTemp+i] = 255
		buf[offSoilTemp+i] = 255
	}
	for i := 0; i < 2; i++ {
		buf[offLeafTemp+i] = 255
		buf[offExtraHumid+i] = 255
		buf[offLeafWetness+i] = 255
	}
	buf[offOutsideHumid] = 255
	bitcodec.PutUint16LE(buf, offRainRate, 0)
	buf[offUV] = 255
	bitcodec.PutUint16LE(buf, offSolarRad, 0)
	bitcodec.PutUint16LE(buf, offStormRain, 0)
	bitcodec.PutInt16LE(buf, offStormStart, -1)
	bitcodec.PutUint16LE(buf, offDayRain, 0)
	bitcodec.PutUint16LE(buf, offMonthRain, 0)
	bitcodec.PutUint16LE(buf, offYearRain, 0)
	buf[offDayET] = 0
	bitcodec.PutUint16LE(buf, offMonthET, 0)
	bitcodec.PutUint16LE(buf, offYearET, 0)
	for i := 0; i < 4; i++ {
		buf[offSoilMoisture+i] = 255
	}

	if patch != nil {
		patch(buf)
	}

	framed := make([]byte, Size)
	copy(framed, buf)
	framed[offLF] = '\n'
	framed[offCR] = '\r'
	crc := crc16.Checksum(framed[:97])
	bitcodec.PutUint16BE(framed, offCRC, crc)
	return framed
}

func TestDecodeLoopAllDashed(t *testing.T) {
	buf := newLoopBuffer(loopPacketType, nil)
	require.True(t, crc16.Valid(buf))
	require.Equal(t, byte('\n'), buf[offLF])
	require.Equal(t, byte('\r'), buf[offCR])

	d := decode.NewDecoder(decode.ClickSizeStandard, nil)
	l, err := DecodeLoop(buf, d)
	require.NoError(t, err)

	_, ok := l.Barometer.Get()
	require.False(t, ok)
	_, ok = l.InsideTemperature.Get()
	require.False(t, ok)
	_, ok = l.WindDirection.Get()
	require.False(t, ok)
	require.False(t, l.StormActive)
}

func TestDecodeLoopRejectsWrongPacketType(t *testing.T) {
	buf := newLoopBuffer(loop2PacketType, nil)
	d := decode.NewDecoder(decode.ClickSizeStandard, nil)
	_, err := DecodeLoop(buf, d)
	require.Error(t, err)
}

func TestDecodeLoopWindDirectionWraps(t *testing.T) {
	buf := newLoopBuffer(loopPacketType, func(buf []byte) {
		bitcodec.PutUint16LE(buf, offWindDir, 360)
	})
	d := decode.NewDecoder(decode.ClickSizeStandard, nil)
	l, err := DecodeLoop(buf, d)
	require.NoError(t, err)
	got, ok := l.WindDirection.Get()
	require.True(t, ok)
	require.Equal(t, 0, got)
}

func TestDecodeLoopAlarmBits(t *testing.T) {
	buf := newLoopBuffer(loopPacketType, func(buf []byte) {
		buf[offAlarmBitsBase] = 0x01 // bit 0
		buf[offAlarmBitsBase+1] = 0x80 // bit 15
	})
	d := decode.NewDecoder(decode.ClickSizeStandard, nil)
	l, err := DecodeLoop(buf, d)
	require.NoError(t, err)
	require.True(t, l.AlarmBits[0])
	require.True(t, l.AlarmBits[15])
	require.False(t, l.AlarmBits[1])
}

func TestDecodeLoopRejectsWrongLength(t *testing.T) {
	d := decode.NewDecoder(decode.ClickSizeStandard, nil)
	_, err := DecodeLoop(make([]byte, 10), d)
	require.Error(t, err)
}

func TestTransmitterBatteryGood(t *testing.T) {
	l := &Loop{TransmitterBattery: 0b00000010}
	require.True(t, l.TransmitterBatteryGood(1))
	require.False(t, l.TransmitterBatteryGood(2))
}

func TestIsStormOngoing(t *testing.T) {
	d := decode.NewDecoder(decode.ClickSizeStandard, nil)
	buf := newLoopBuffer(loopPacketType, func(buf []byte) {
		raw := int16((24 << 9) | (6 << 5) | 1)
		bitcodec.PutInt16LE(buf, offStormStart, raw)
		bitcodec.PutUint16LE(buf, offStormRain, 50)
	})
	l, err := DecodeLoop(buf, d)
	require.NoError(t, err)
	require.True(t, l.IsStormOngoing())
}
