package decode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemp16Sentinels(t *testing.T) {
	tests := []struct {
		name string
		raw  int16
		want float64
		ok   bool
	}{
		{"low sentinel", 32767, 0, false},
		{"high sentinel", -32768, 0, false},
		{"normal", 725, 72.5, true},
		{"negative", -50, -5.0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Temp16(tt.raw)
			got, ok := v.Get()
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestTemp8BiasAndSentinel(t *testing.T) {
	v := Temp8(255)
	_, ok := v.Get()
	require.False(t, ok)

	v = Temp8(90)
	got, ok := v.Get()
	require.True(t, ok)
	assert.Equal(t, 0.0, got)
}

func TestTempNonScaled16(t *testing.T) {
	_, ok := TempNonScaled16(32767).Get()
	require.False(t, ok)
	got, ok := TempNonScaled16(68).Get()
	require.True(t, ok)
	assert.Equal(t, 68.0, got)
}

func TestHumiditySentinel(t *testing.T) {
	_, ok := Humidity(255).Get()
	require.False(t, ok)
	got, ok := Humidity(55).Get()
	require.True(t, ok)
	assert.Equal(t, 55.0, got)
}

func TestBarometerScaleAndSentinel(t *testing.T) {
	_, ok := Barometer(0).Get()
	require.False(t, ok)
	got, ok := Barometer(29921).Get()
	require.True(t, ok)
	assert.InDelta(t, 29.921, got, 1e-9)
}

func TestUVIndex(t *testing.T) {
	_, ok := UVIndex(255).Get()
	require.False(t, ok)
	got, ok := UVIndex(45).Get()
	require.True(t, ok)
	assert.InDelta(t, 4.5, got, 1e-9)
}

func TestETScales(t *testing.T) {
	_, ok := DayET(0).Get()
	require.False(t, ok)
	got, ok := DayET(12).Get()
	require.True(t, ok)
	assert.InDelta(t, 0.012, got, 1e-9)

	got, ok = PeriodET(150).Get()
	require.True(t, ok)
	assert.InDelta(t, 1.5, got, 1e-9)
}

func TestWindSpeed(t *testing.T) {
	_, ok := WindSpeed8(255).Get()
	require.False(t, ok)
	got, ok := WindSpeed8(12).Get()
	require.True(t, ok)
	assert.Equal(t, 12.0, got)

	// 16-bit gust speed has no dash sentinel.
	got, ok = WindSpeed16(255).Get()
	require.True(t, ok)
	assert.Equal(t, 255.0, got)
}

func TestWindHeadingSlice(t *testing.T) {
	tests := []struct {
		name string
		raw  uint16
		want int
		ok   bool
	}{
		{"sentinel", 255, 0, false},
		{"raw 360 wraps to north", 360, 0, true},
		{"raw 0 is north", 0, 0, true},
		{"south", 8, 8, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := WindHeadingSlice(tt.raw)
			got, ok := v.Get()
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestStormStartDateSentinel(t *testing.T) {
	_, _, _, ok := StormStartDate(-1)
	require.False(t, ok)
}

func TestStormStartDatePacking(t *testing.T) {
	// year=2024 (raw 24), month=6, day=15: (24<<9)|(6<<5)|15
	raw := int16((24 << 9) | (6 << 5) | 15)
	year, month, day, ok := StormStartDate(raw)
	require.True(t, ok)
	assert.Equal(t, 2024, year)
	assert.Equal(t, 6, month)
	assert.Equal(t, 15, day)
}

func TestRainRequiresClickSize(t *testing.T) {
	warned := false
	d := NewDecoder(0, func() { warned = true })
	_, ok := d.Rain(10).Get()
	require.False(t, ok)
	require.True(t, warned)
}

func TestRainScalesByClickSize(t *testing.T) {
	d := NewDecoder(ClickSizeStandard, nil)
	got, ok := d.Rain(100).Get()
	require.True(t, ok)
	assert.InDelta(t, 1.0, got, 1e-9)

	d.SetRainClickSize(ClickSizeMetric02)
	got, ok = d.Rain(5).Get()
	require.True(t, ok)
	assert.InDelta(t, 5*0.2/25.4, got, 1e-9)
}
