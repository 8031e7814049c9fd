package packet

import (
	"testing"

	"github.com/chrissnell/vantaged/internal/measurement"
	"github.com/stretchr/testify/require"
)

func TestHiLowRoundTrip(t *testing.T) {
	h := &HiLow{}
	h.Barometer.DayHigh.Value = measurement.Valid(30.1)
	h.Barometer.DayHigh.Time = 1345
	h.Barometer.YearLow = measurement.Valid(29.1)
	h.Wind.Day.Value = measurement.Valid(28.0)
	h.Wind.Day.Time = 1602
	h.OutdoorTemperature.DayHigh.Value = measurement.Valid(95.4)
	h.OutdoorTemperature.DayLow.Value = measurement.Valid(58.2)
	h.HeatIndex.Year = measurement.Valid(101.0)
	h.RainRate.Day.Value = measurement.Valid(2.5)

	buf := h.Encode()
	decoded, err := DecodeHiLow(buf)
	require.NoError(t, err)

	got, ok := decoded.Barometer.DayHigh.Value.Get()
	require.True(t, ok)
	require.InDelta(t, 30.1, got, 0.05)
	require.Equal(t, 1345, decoded.Barometer.DayHigh.Time)

	got, ok = decoded.Wind.Day.Value.Get()
	require.True(t, ok)
	require.InDelta(t, 28.0, got, 0.05)

	got, ok = decoded.HeatIndex.Year.Get()
	require.True(t, ok)
	require.InDelta(t, 101.0, got, 0.05)
}

func TestHiLowInvalidFieldsStaySentinel(t *testing.T) {
	h := &HiLow{}
	buf := h.Encode()
	decoded, err := DecodeHiLow(buf)
	require.NoError(t, err)

	_, ok := decoded.Barometer.DayHigh.Value.Get()
	require.False(t, ok)
	_, ok = decoded.UVIndex.Year.Get()
	require.False(t, ok)
}

func TestDecodeHiLowRejectsShortBuffer(t *testing.T) {
	_, err := DecodeHiLow(make([]byte, 10))
	require.Error(t, err)
}
