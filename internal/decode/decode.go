// Package decode implements the field-level conversion policies from
// the console's wire format into engineering units: sentinel
// detection, scaling, and the occasional sign or bias correction.
// Every function here is pure and takes its raw field as an already
// extracted integer (see internal/bitcodec for extraction); nothing
// here knows about packet layout.
package decode

import "github.com/chrissnell/vantaged/internal/measurement"

// Collector click sizes, in inches of rain per tip, for the three
// tipping-bucket sizes the console supports.
const (
	ClickSizeStandard = 0.01       // 0.01 in
	ClickSizeMetric02 = 0.2 / 25.4 // 0.2 mm
	ClickSizeMetric01 = 0.1 / 25.4 // 0.1 mm
)

// Sentinel ("dash") values documented per field type in spec.md §4.2.
const (
	sentinelTemp16High   = -32768
	sentinelTemp16Low    = 32767
	sentinelTemp8        = 255
	sentinelHumidity     = 255
	sentinelBarometer    = 0
	sentinelUV           = 255
	sentinelET           = 0
	sentinelWindSpeed8   = 255
	sentinelWindHeading  = 255
	sentinelStormStartYr = -1
)

// Decoder holds the process state a handful of decode policies need:
// the installed rain collector's click size. It is deliberately an
// instance field rather than package-level state so a test or a
// second console on the same process can use a different size without
// cross-talk.
type Decoder struct {
	rainClickSize float64 // inches per click; zero means unset
	onUnsetRain   func()
}

// NewDecoder constructs a Decoder with the given rain collector click
// size in inches (see the ClickSize* constants). A size of zero is
// accepted but every rain decode will report invalid and invoke
// onUnsetRainWarning if non-nil, mirroring spec.md §4.2's "decoders
// log a warning if unset".
func NewDecoder(rainClickSizeInches float64, onUnsetRainWarning func()) *Decoder {
	return &Decoder{rainClickSize: rainClickSizeInches, onUnsetRain: onUnsetRainWarning}
}

// SetRainClickSize updates the installed collector size.
func (d *Decoder) SetRainClickSize(inches float64) {
	d.rainClickSize = inches
}

// Temp16 decodes a 16-bit, tenths-of-a-degree-Fahrenheit temperature
// field such as average/high/low outside temperature.
func Temp16(raw int16) measurement.Value[float64] {
	if raw == sentinelTemp16High || raw == sentinelTemp16Low {
		return measurement.Invalid[float64]()
	}
	return measurement.Valid(float64(raw) / 10.0)
}

// TempNonScaled16 decodes a 16-bit temperature field that is already
// in whole degrees Fahrenheit (no tenths scaling), used by LOOP2's
// derived temperatures (dew point, heat index, wind chill, THSW).
func TempNonScaled16(raw int16) measurement.Value[float64] {
	if raw == sentinelTemp16High || raw == sentinelTemp16Low {
		return measurement.Invalid[float64]()
	}
	return measurement.Valid(float64(raw))
}

// Temp8 decodes an 8-bit temperature field biased by +90 degrees F,
// used for leaf, soil, and extra temperature sensors.
func Temp8(raw uint8) measurement.Value[float64] {
	if raw == sentinelTemp8 {
		return measurement.Invalid[float64]()
	}
	return measurement.Valid(float64(raw) - 90.0)
}

// Humidity decodes an 8-bit relative-humidity percentage field.
func Humidity(raw uint8) measurement.Value[float64] {
	if raw == sentinelHumidity {
		return measurement.Invalid[float64]()
	}
	return measurement.Valid(float64(raw))
}

// Barometer decodes a 16-bit barometric-pressure field, scaled by
// 1/1000 to inches of mercury.
func Barometer(raw uint16) measurement.Value[float64] {
	if raw == sentinelBarometer {
		return measurement.Invalid[float64]()
	}
	return measurement.Valid(float64(raw) / 1000.0)
}

// UVIndex decodes an 8-bit UV index field, scaled by 1/10.
func UVIndex(raw uint8) measurement.Value[float64] {
	if raw == sentinelUV {
		return measurement.Invalid[float64]()
	}
	return measurement.Valid(float64(raw) / 10.0)
}

// DayET decodes the daily evapotranspiration field, scaled by
// 1/1000 inches.
func DayET(raw uint8) measurement.Value[float64] {
	if raw == sentinelET {
		return measurement.Invalid[float64]()
	}
	return measurement.Valid(float64(raw) / 1000.0)
}

// PeriodET decodes a month/year evapotranspiration field, scaled by
// 1/100 inches.
func PeriodET(raw uint16) measurement.Value[float64] {
	if raw == sentinelET {
		return measurement.Invalid[float64]()
	}
	return measurement.Valid(float64(raw) / 100.0)
}

// WindSpeed8 decodes an 8-bit mph wind-speed field.
func WindSpeed8(raw uint8) measurement.Value[float64] {
	if raw == sentinelWindSpeed8 {
		return measurement.Invalid[float64]()
	}
	return measurement.Valid(float64(raw))
}

// WindSpeed16 decodes a 16-bit mph wind-speed field (gusts), which
// carries no dash sentinel per spec.md §4.2.
func WindSpeed16(raw uint16) measurement.Value[float64] {
	return measurement.Valid(float64(raw))
}

// WindHeadingSlice decodes a raw compass-slice byte into 0..15, where
// slice 0 is North. Raw 360 also means North (the console's way of
// saying "calm but pointing due north"); raw 255 is the dash sentinel.
func WindHeadingSlice(raw uint16) measurement.Value[int] {
	if raw == sentinelWindHeading {
		return measurement.Invalid[int]()
	}
	if raw == 360 {
		return measurement.Valid(0)
	}
	return measurement.Valid(int(raw))
}

// StormStartDate decodes the packed 16-bit storm-start date field:
// bits [15:9] year (since 2000), [8:5] month, [4:0] day. Raw -1 (all
// bits set) is the sentinel for "no storm in progress".
func StormStartDate(raw int16) (year, month, day int, ok bool) {
	if raw == sentinelStormStartYr {
		return 0, 0, 0, false
	}
	u := uint16(raw)
	year = int(u>>9) + 2000
	month = int((u >> 5) & 0x0F)
	day = int(u & 0x1F)
	return year, month, day, true
}

// Rain decodes a raw click count into inches of rainfall using the
// Decoder's configured collector size. It reports invalid (and fires
// the unset-rain warning) if no collector size has been configured.
func (d *Decoder) Rain(rawClicks uint16) measurement.Value[float64] {
	if d.rainClickSize <= 0 {
		if d.onUnsetRain != nil {
			d.onUnsetRain()
		}
		return measurement.Invalid[float64]()
	}
	return measurement.Valid(float64(rawClicks) * d.rainClickSize)
}
