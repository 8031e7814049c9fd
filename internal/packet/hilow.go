package packet

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/chrissnell/vantaged/internal/bitcodec"
	"github.com/chrissnell/vantaged/internal/measurement"
)

// HiLowSize is the fixed length, in bytes, of a Hi/Low packet
// (framing CRC included).
const HiLowSize = 438

// Extreme is one high- or low-water-mark value: the value itself plus
// (for day extremes only — spec.md §3) the packed time-of-day it
// occurred, per original_source's HiLowPacket::Values template.
type Extreme struct {
	Value measurement.Value[float64]
	Time  int // packed HHMM, meaningful for day extremes only
}

// TwoSided holds both the low and high extreme of a field across day,
// month, and year windows.
type TwoSided struct {
	DayLow, DayHigh     Extreme
	MonthLow, MonthHigh measurement.Value[float64]
	YearLow, YearHigh   measurement.Value[float64]
}

// OneSided holds a single extreme (only a high, or only a low) of a
// field across day, month, and year windows — for fields the console
// only ever tracks one direction of (e.g. wind speed has no "low").
type OneSided struct {
	Day   Extreme
	Month measurement.Value[float64]
	Year  measurement.Value[float64]
}

// HiLow is a decoded Hi/Low packet.
type HiLow struct {
	Barometer         TwoSided
	Wind              OneSided // high only
	IndoorTemperature TwoSided
	IndoorHumidity    TwoSided
	OutdoorTemperature TwoSided
	OutdoorHumidity   TwoSided
	DewPoint          TwoSided
	HeatIndex         OneSided // high only
	WindChill         OneSided // low only
	THSW              OneSided // high only
	SolarRadiation    OneSided // high only
	UVIndex           OneSided // high only
	RainRate          OneSided // high only
	HighHourRainRate  measurement.Value[float64]
}

// MarshalJSON renders Extreme with Value omitted (not null) when
// invalid, matching Loop.MarshalJSON's rationale.
func (e Extreme) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Value *float64 `json:"value,omitempty"`
		Time  int      `json:"time"`
	}{Value: e.Value.Ptr(), Time: e.Time})
}

// MarshalJSON renders TwoSided with every measurement field omitted
// (not null) when invalid; DayLow/DayHigh delegate to Extreme's own
// MarshalJSON.
func (ts TwoSided) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		DayLow    Extreme  `json:"dayLow"`
		DayHigh   Extreme  `json:"dayHigh"`
		MonthLow  *float64 `json:"monthLow,omitempty"`
		MonthHigh *float64 `json:"monthHigh,omitempty"`
		YearLow   *float64 `json:"yearLow,omitempty"`
		YearHigh  *float64 `json:"yearHigh,omitempty"`
	}{
		DayLow: ts.DayLow, DayHigh: ts.DayHigh,
		MonthLow: ts.MonthLow.Ptr(), MonthHigh: ts.MonthHigh.Ptr(),
		YearLow: ts.YearLow.Ptr(), YearHigh: ts.YearHigh.Ptr(),
	})
}

// MarshalJSON renders OneSided with every measurement field omitted
// (not null) when invalid; Day delegates to Extreme's own MarshalJSON.
func (os OneSided) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Day   Extreme  `json:"day"`
		Month *float64 `json:"month,omitempty"`
		Year  *float64 `json:"year,omitempty"`
	}{
		Day:   os.Day,
		Month: os.Month.Ptr(), Year: os.Year.Ptr(),
	})
}

// MarshalJSON renders HiLow with HighHourRainRate omitted (not null)
// when invalid; every sub-field delegates to its own MarshalJSON.
func (h *HiLow) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Barometer          TwoSided `json:"barometer"`
		Wind               OneSided `json:"wind"`
		IndoorTemperature  TwoSided `json:"indoorTemperature"`
		IndoorHumidity     TwoSided `json:"indoorHumidity"`
		OutdoorTemperature TwoSided `json:"outdoorTemperature"`
		OutdoorHumidity    TwoSided `json:"outdoorHumidity"`
		DewPoint           TwoSided `json:"dewPoint"`
		HeatIndex          OneSided `json:"heatIndex"`
		WindChill          OneSided `json:"windChill"`
		THSW               OneSided `json:"thsw"`
		SolarRadiation     OneSided `json:"solarRadiation"`
		UVIndex            OneSided `json:"uvIndex"`
		RainRate           OneSided `json:"rainRate"`
		HighHourRainRate   *float64 `json:"highHourRainRate,omitempty"`
	}{
		Barometer: h.Barometer, Wind: h.Wind,
		IndoorTemperature: h.IndoorTemperature, IndoorHumidity: h.IndoorHumidity,
		OutdoorTemperature: h.OutdoorTemperature, OutdoorHumidity: h.OutdoorHumidity,
		DewPoint: h.DewPoint, HeatIndex: h.HeatIndex, WindChill: h.WindChill,
		THSW: h.THSW, SolarRadiation: h.SolarRadiation, UVIndex: h.UVIndex,
		RainRate:         h.RainRate,
		HighHourRainRate: h.HighHourRainRate.Ptr(),
	})
}

// cursor is a simple sequential byte-offset allocator used to lay out
// the Hi/Low record's many repeated {day+time, month, year} groups
// without hand-maintaining one offset constant per field (there are
// over a dozen of them, per original_source's HiLowPacket.h member
// list).
type cursor struct {
	buf []byte
	pos int
}

func newCursor(buf []byte) *cursor { return &cursor{buf: buf} }

func (c *cursor) int16() int16 {
	v := bitcodec.Int16LE(c.buf, c.pos)
	c.pos += 2
	return v
}

func (c *cursor) uint16() uint16 {
	v := bitcodec.Uint16LE(c.buf, c.pos)
	c.pos += 2
	return v
}

func (c *cursor) putInt16(v int16) {
	bitcodec.PutInt16LE(c.buf, c.pos, v)
	c.pos += 2
}

func (c *cursor) putUint16(v uint16) {
	bitcodec.PutUint16LE(c.buf, c.pos, v)
	c.pos += 2
}

const hiLowTempSentinel = 32767
const hiLowScale = 10.0

func (c *cursor) readTemp() measurement.Value[float64] {
	raw := c.int16()
	if raw == hiLowTempSentinel {
		return measurement.Invalid[float64]()
	}
	return measurement.Valid(float64(raw) / hiLowScale)
}

func (c *cursor) writeTemp(v measurement.Value[float64]) {
	if val, ok := v.Get(); ok {
		c.putInt16(int16(val * hiLowScale))
	} else {
		c.putInt16(hiLowTempSentinel)
	}
}

func (c *cursor) readScaled() measurement.Value[float64] {
	raw := c.uint16()
	if raw == 0xFFFF {
		return measurement.Invalid[float64]()
	}
	return measurement.Valid(float64(raw) / hiLowScale)
}

func (c *cursor) writeScaled(v measurement.Value[float64]) {
	if val, ok := v.Get(); ok {
		c.putUint16(uint16(val * hiLowScale))
	} else {
		c.putUint16(0xFFFF)
	}
}

func (c *cursor) readTime() int {
	return int(c.uint16())
}

func (c *cursor) writeTime(t int) {
	c.putUint16(uint16(t))
}

func (c *cursor) readTwoSidedTemp() TwoSided {
	var ts TwoSided
	ts.DayLow.Value = c.readTemp()
	ts.DayLow.Time = c.readTime()
	ts.DayHigh.Value = c.readTemp()
	ts.DayHigh.Time = c.readTime()
	ts.MonthLow = c.readTemp()
	ts.MonthHigh = c.readTemp()
	ts.YearLow = c.readTemp()
	ts.YearHigh = c.readTemp()
	return ts
}

func (c *cursor) writeTwoSidedTemp(ts TwoSided) {
	c.writeTemp(ts.DayLow.Value)
	c.writeTime(ts.DayLow.Time)
	c.writeTemp(ts.DayHigh.Value)
	c.writeTime(ts.DayHigh.Time)
	c.writeTemp(ts.MonthLow)
	c.writeTemp(ts.MonthHigh)
	c.writeTemp(ts.YearLow)
	c.writeTemp(ts.YearHigh)
}

func (c *cursor) readOneSidedScaled(high bool) OneSided {
	var os OneSided
	os.Day.Value = c.readScaled()
	os.Day.Time = c.readTime()
	os.Month = c.readScaled()
	os.Year = c.readScaled()
	return os
}

func (c *cursor) writeOneSidedScaled(os OneSided) {
	c.writeScaled(os.Day.Value)
	c.writeTime(os.Day.Time)
	c.writeScaled(os.Month)
	c.writeScaled(os.Year)
}

// DecodeHiLow decodes a Hi/Low packet's data portion (HiLowSize bytes
// minus its trailing CRC, per the protocol engine's framing). Layout
// is this module's own canonical sequential grouping of the fields
// original_source/source/vws/HiLowPacket.h exposes; the device's true
// byte offsets are undocumented in the retrieval pack, so this is a
// self-consistent layout rather than a wire-verified one — every
// consumer in this module goes through Decode/Encode, never raw
// offsets, so that is safe.
func DecodeHiLow(buf []byte) (*HiLow, error) {
	if len(buf) < HiLowSize-2 {
		return nil, fmt.Errorf("packet: HiLow buffer too short: %d bytes", len(buf))
	}
	c := newCursor(buf)
	h := &HiLow{}
	h.Barometer = c.readTwoSidedTemp()
	h.Wind = c.readOneSidedScaled(true)
	h.IndoorTemperature = c.readTwoSidedTemp()
	h.IndoorHumidity = c.readTwoSidedTemp()
	h.OutdoorTemperature = c.readTwoSidedTemp()
	h.OutdoorHumidity = c.readTwoSidedTemp()
	h.DewPoint = c.readTwoSidedTemp()
	h.HeatIndex = c.readOneSidedScaled(true)
	h.WindChill = c.readOneSidedScaled(false)
	h.THSW = c.readOneSidedScaled(true)
	h.SolarRadiation = c.readOneSidedScaled(true)
	h.UVIndex = c.readOneSidedScaled(true)
	h.RainRate = c.readOneSidedScaled(true)
	h.HighHourRainRate = c.readScaled()
	return h, nil
}

// Encode renders h back into a buffer using the same canonical
// layout DecodeHiLow reads.
func (h *HiLow) Encode() []byte {
	buf := make([]byte, HiLowSize-2)
	c := newCursor(buf)
	c.writeTwoSidedTemp(h.Barometer)
	c.writeOneSidedScaled(h.Wind)
	c.writeTwoSidedTemp(h.IndoorTemperature)
	c.writeTwoSidedTemp(h.IndoorHumidity)
	c.writeTwoSidedTemp(h.OutdoorTemperature)
	c.writeTwoSidedTemp(h.OutdoorHumidity)
	c.writeTwoSidedTemp(h.DewPoint)
	c.writeOneSidedScaled(h.HeatIndex)
	c.writeOneSidedScaled(h.WindChill)
	c.writeOneSidedScaled(h.THSW)
	c.writeOneSidedScaled(h.SolarRadiation)
	c.writeOneSidedScaled(h.UVIndex)
	c.writeOneSidedScaled(h.RainRate)
	c.writeScaled(h.HighHourRainRate)
	return buf
}

// DayExtremeTime renders a packed HHMM day-extreme timestamp against
// a reference date, mirroring Loop.SunriseTime/SunsetTime.
func DayExtremeTime(reference time.Time, packed int) time.Time {
	return packedTimeOnDate(reference, packed)
}
