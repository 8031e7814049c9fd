package eeprom

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnitsRoundTrips(t *testing.T) {
	u := Units{
		Barometer:   BarometerHPa,
		Temperature: TemperatureC,
		Elevation:   ElevationMeters,
		Rain:        RainMillimeters,
		Wind:        WindKPH,
	}
	buf := EncodeUnits(u)
	require.Len(t, buf, 2)
	got, err := DecodeUnits(buf)
	require.NoError(t, err)
	require.Equal(t, u, got)
}

func TestDecodeUnitsRejectsBadChecksum(t *testing.T) {
	_, err := DecodeUnits([]byte{0x05, 0x05})
	require.Error(t, err)
}
