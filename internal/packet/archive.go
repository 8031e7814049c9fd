package packet

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/chrissnell/vantaged/internal/bitcodec"
	"github.com/chrissnell/vantaged/internal/decode"
	"github.com/chrissnell/vantaged/internal/measurement"
)

// RecordSize is the fixed length, in bytes, of a Rev-B archive
// record.
const RecordSize = 52

// Archive record field offsets, Rev-B layout, grounded on
// original_source/source/vws/ArchivePacket.h.
const (
	aOffDateStamp       = 0
	aOffTimeStamp       = 2
	aOffOutsideTemp     = 4
	aOffHighOutsideTemp = 6
	aOffLowOutsideTemp  = 8
	aOffRainfall        = 10
	aOffHighRainRate    = 12
	aOffBarometer       = 14
	aOffSolarRadiation  = 16
	aOffNumWindSamples  = 18
	aOffInsideTemp      = 20
	aOffInsideHumidity  = 22
	aOffOutsideHumidity = 23
	aOffAvgWindSpeed    = 24
	aOffHighWindSpeed   = 25
	aOffHighWindDir     = 26
	aOffPrevailingWind  = 27
	aOffAvgUVIndex      = 28
	aOffET              = 29
	aOffHighSolarRad    = 30
	aOffHighUVIndex     = 32
	aOffForecastRule    = 33
	aOffLeafTempBase    = 34 // 2
	aOffLeafWetBase     = 36 // 2
	aOffSoilTempBase    = 38 // 3
	aOffRecordType      = 42
	aOffExtraHumidBase  = 43 // 2
	aOffExtraTempBase   = 45 // 3
	aOffSoilMoistBase   = 48 // 4

	RecordTypeRevB = 0x00
	RecordTypeRevA = 0xFF
)

// Record is a decoded 52-byte Rev-B archive record.
type Record struct {
	Year, Month, Day int
	Hour, Minute     int

	OutsideTemperatureAvg  measurement.Value[float64]
	OutsideTemperatureHigh measurement.Value[float64]
	OutsideTemperatureLow  measurement.Value[float64]

	Rainfall       measurement.Value[float64]
	HighRainRate   measurement.Value[float64]
	Barometer      measurement.Value[float64]
	SolarRadiation measurement.Value[float64]
	NumWindSamples uint16

	InsideTemperature measurement.Value[float64]
	InsideHumidity    measurement.Value[float64]
	OutsideHumidity   measurement.Value[float64]

	AvgWindSpeed  measurement.Value[float64]
	HighWindSpeed measurement.Value[float64]
	HighWindDir   measurement.Value[int]
	PrevailingWindDir measurement.Value[int]

	AvgUVIndex measurement.Value[float64]
	ET         measurement.Value[float64]

	HighSolarRadiation measurement.Value[float64]
	HighUVIndex        measurement.Value[float64]
	ForecastRule       uint8

	LeafTemperature [2]measurement.Value[float64]
	LeafWetness     [2]measurement.Value[float64]
	SoilTemperature [3]measurement.Value[float64]

	RecordType uint8

	ExtraHumidity    [2]measurement.Value[float64]
	ExtraTemperature [3]measurement.Value[float64]
	SoilMoisture     [4]measurement.Value[float64]
}

// packDate packs a year/month/day into the console's 16-bit date
// stamp: bits [15:9] year since 2000, [8:5] month, [4:0] day — the
// same packing spec.md documents for the storm-start field.
func packDate(year, month, day int) uint16 {
	return uint16((year-2000)<<9) | uint16(month)<<5 | uint16(day)
}

func unpackDate(raw uint16) (year, month, day int) {
	return int(raw>>9) + 2000, int((raw >> 5) & 0x0F), int(raw & 0x1F)
}

// Decode decodes a 52-byte Rev-B archive record.
func Decode(buf []byte, d *decode.Decoder) (*Record, error) {
	if len(buf) != RecordSize {
		return nil, fmt.Errorf("packet: archive record must be %d bytes, got %d", RecordSize, len(buf))
	}

	r := &Record{}
	dateRaw := bitcodec.Uint16LE(buf, aOffDateStamp)
	timeRaw := bitcodec.Uint16LE(buf, aOffTimeStamp)
	r.Year, r.Month, r.Day = unpackDate(dateRaw)
	r.Hour, r.Minute = int(timeRaw)/100, int(timeRaw)%100

	if dateRaw == 0 {
		r.Year, r.Month, r.Day = 0, 0, 0
	}

	r.OutsideTemperatureAvg = decode.Temp16(bitcodec.Int16LE(buf, aOffOutsideTemp))
	r.OutsideTemperatureHigh = decode.Temp16(bitcodec.Int16LE(buf, aOffHighOutsideTemp))
	r.OutsideTemperatureLow = decode.Temp16(bitcodec.Int16LE(buf, aOffLowOutsideTemp))

	r.Rainfall = d.Rain(bitcodec.Uint16LE(buf, aOffRainfall))
	r.HighRainRate = d.Rain(bitcodec.Uint16LE(buf, aOffHighRainRate))
	r.Barometer = decode.Barometer(bitcodec.Uint16LE(buf, aOffBarometer))
	r.SolarRadiation = measurement.Valid(float64(bitcodec.Uint16LE(buf, aOffSolarRadiation)))
	r.NumWindSamples = bitcodec.Uint16LE(buf, aOffNumWindSamples)

	r.InsideTemperature = decode.Temp16(bitcodec.Int16LE(buf, aOffInsideTemp))
	r.InsideHumidity = decode.Humidity(bitcodec.Uint8(buf, aOffInsideHumidity))
	r.OutsideHumidity = decode.Humidity(bitcodec.Uint8(buf, aOffOutsideHumidity))

	r.AvgWindSpeed = decode.WindSpeed8(bitcodec.Uint8(buf, aOffAvgWindSpeed))
	r.HighWindSpeed = decode.WindSpeed8(bitcodec.Uint8(buf, aOffHighWindSpeed))
	r.HighWindDir = decode.WindHeadingSlice(uint16(bitcodec.Uint8(buf, aOffHighWindDir)))
	r.PrevailingWindDir = decode.WindHeadingSlice(uint16(bitcodec.Uint8(buf, aOffPrevailingWind)))

	r.AvgUVIndex = decode.UVIndex(bitcodec.Uint8(buf, aOffAvgUVIndex))
	r.ET = decode.DayET(bitcodec.Uint8(buf, aOffET))

	r.HighSolarRadiation = measurement.Valid(float64(bitcodec.Uint16LE(buf, aOffHighSolarRad)))
	r.HighUVIndex = decode.UVIndex(bitcodec.Uint8(buf, aOffHighUVIndex))
	r.ForecastRule = bitcodec.Uint8(buf, aOffForecastRule)

	for i := 0; i < 2; i++ {
		r.LeafTemperature[i] = decode.Temp8(bitcodec.Uint8(buf, aOffLeafTempBase+i))
		r.LeafWetness[i] = decode.Humidity(bitcodec.Uint8(buf, aOffLeafWetBase+i))
		r.ExtraHumidity[i] = decode.Humidity(bitcodec.Uint8(buf, aOffExtraHumidBase+i))
	}
	for i := 0; i < 3; i++ {
		r.SoilTemperature[i] = decode.Temp8(bitcodec.Uint8(buf, aOffSoilTempBase+i))
		r.ExtraTemperature[i] = decode.Temp8(bitcodec.Uint8(buf, aOffExtraTempBase+i))
	}
	for i := 0; i < 4; i++ {
		r.SoilMoisture[i] = decode.Humidity(bitcodec.Uint8(buf, aOffSoilMoistBase+i))
	}

	r.RecordType = bitcodec.Uint8(buf, aOffRecordType)

	return r, nil
}

// Encode renders r back into a 52-byte Rev-B buffer. It is the
// inverse of Decode for every field Decode can losslessly represent;
// used both by tests (the round-trip law in spec.md §8) and by the
// archive manager when writing synthetic/replayed records.
func (r *Record) Encode() []byte {
	buf := make([]byte, RecordSize)
	dateRaw := packDate(r.Year, r.Month, r.Day)
	if r.Year == 0 && r.Month == 0 && r.Day == 0 {
		dateRaw = 0
	}
	bitcodec.PutUint16LE(buf, aOffDateStamp, dateRaw)
	bitcodec.PutUint16LE(buf, aOffTimeStamp, uint16(r.Hour*100+r.Minute))

	putTemp16(buf, aOffOutsideTemp, r.OutsideTemperatureAvg)
	putTemp16(buf, aOffHighOutsideTemp, r.OutsideTemperatureHigh)
	putTemp16(buf, aOffLowOutsideTemp, r.OutsideTemperatureLow)

	bitcodec.PutUint16LE(buf, aOffRainfall, rainClicks(r.Rainfall))
	bitcodec.PutUint16LE(buf, aOffHighRainRate, rainClicks(r.HighRainRate))
	putBarometer(buf, aOffBarometer, r.Barometer)
	bitcodec.PutUint16LE(buf, aOffSolarRadiation, uint16(r.SolarRadiation.OrElse(0)))
	bitcodec.PutUint16LE(buf, aOffNumWindSamples, r.NumWindSamples)

	putTemp16(buf, aOffInsideTemp, r.InsideTemperature)
	putHumidity(buf, aOffInsideHumidity, r.InsideHumidity)
	putHumidity(buf, aOffOutsideHumidity, r.OutsideHumidity)

	putWindSpeed8(buf, aOffAvgWindSpeed, r.AvgWindSpeed)
	putWindSpeed8(buf, aOffHighWindSpeed, r.HighWindSpeed)
	putSlice8(buf, aOffHighWindDir, r.HighWindDir)
	putSlice8(buf, aOffPrevailingWind, r.PrevailingWindDir)

	putUV(buf, aOffAvgUVIndex, r.AvgUVIndex)
	putDayET(buf, aOffET, r.ET)

	bitcodec.PutUint16LE(buf, aOffHighSolarRad, uint16(r.HighSolarRadiation.OrElse(0)))
	putUV(buf, aOffHighUVIndex, r.HighUVIndex)
	bitcodec.PutUint8(buf, aOffForecastRule, r.ForecastRule)

	for i := 0; i < 2; i++ {
		putTemp8(buf, aOffLeafTempBase+i, r.LeafTemperature[i])
		putHumidity(buf, aOffLeafWetBase+i, r.LeafWetness[i])
		putHumidity(buf, aOffExtraHumidBase+i, r.ExtraHumidity[i])
	}
	for i := 0; i < 3; i++ {
		putTemp8(buf, aOffSoilTempBase+i, r.SoilTemperature[i])
		putTemp8(buf, aOffExtraTempBase+i, r.ExtraTemperature[i])
	}
	for i := 0; i < 4; i++ {
		putHumidity(buf, aOffSoilMoistBase+i, r.SoilMoisture[i])
	}

	bitcodec.PutUint8(buf, aOffRecordType, r.RecordType)

	return buf
}

func putTemp16(buf []byte, off int, v measurement.Value[float64]) {
	if val, ok := v.Get(); ok {
		bitcodec.PutInt16LE(buf, off, int16(math.Round(val*10)))
	} else {
		bitcodec.PutInt16LE(buf, off, 32767)
	}
}

func putTemp8(buf []byte, off int, v measurement.Value[float64]) {
	if val, ok := v.Get(); ok {
		bitcodec.PutUint8(buf, off, uint8(math.Round(val+90)))
	} else {
		bitcodec.PutUint8(buf, off, 255)
	}
}

func putHumidity(buf []byte, off int, v measurement.Value[float64]) {
	if val, ok := v.Get(); ok {
		bitcodec.PutUint8(buf, off, uint8(math.Round(val)))
	} else {
		bitcodec.PutUint8(buf, off, 255)
	}
}

func putBarometer(buf []byte, off int, v measurement.Value[float64]) {
	if val, ok := v.Get(); ok {
		bitcodec.PutUint16LE(buf, off, uint16(math.Round(val*1000)))
	} else {
		bitcodec.PutUint16LE(buf, off, 0)
	}
}

func putUV(buf []byte, off int, v measurement.Value[float64]) {
	if val, ok := v.Get(); ok {
		bitcodec.PutUint8(buf, off, uint8(math.Round(val*10)))
	} else {
		bitcodec.PutUint8(buf, off, 255)
	}
}

func putDayET(buf []byte, off int, v measurement.Value[float64]) {
	if val, ok := v.Get(); ok {
		bitcodec.PutUint8(buf, off, uint8(math.Round(val*1000)))
	} else {
		bitcodec.PutUint8(buf, off, 0)
	}
}

func putWindSpeed8(buf []byte, off int, v measurement.Value[float64]) {
	if val, ok := v.Get(); ok {
		bitcodec.PutUint8(buf, off, uint8(math.Round(val)))
	} else {
		bitcodec.PutUint8(buf, off, 255)
	}
}

func putSlice8(buf []byte, off int, v measurement.Value[int]) {
	if val, ok := v.Get(); ok {
		bitcodec.PutUint8(buf, off, uint8(val))
	} else {
		bitcodec.PutUint8(buf, off, 255)
	}
}

func rainClicks(v measurement.Value[float64]) uint16 {
	val, ok := v.Get()
	if !ok {
		return 0
	}
	return uint16(val/decode.ClickSizeStandard + 0.5)
}

// MarshalJSON renders Record with every measurement field omitted
// (not null) when invalid, matching Loop.MarshalJSON's rationale —
// this is the shape dispatcher's query-archive handler actually
// returns to callers.
func (r *Record) MarshalJSON() ([]byte, error) {
	var leafTemp, leafWet, extraHumid [2]*float64
	var soilTemp, extraTemp [3]*float64
	var soilMoist [4]*float64
	for i := 0; i < 2; i++ {
		leafTemp[i] = r.LeafTemperature[i].Ptr()
		leafWet[i] = r.LeafWetness[i].Ptr()
		extraHumid[i] = r.ExtraHumidity[i].Ptr()
	}
	for i := 0; i < 3; i++ {
		soilTemp[i] = r.SoilTemperature[i].Ptr()
		extraTemp[i] = r.ExtraTemperature[i].Ptr()
	}
	for i := 0; i < 4; i++ {
		soilMoist[i] = r.SoilMoisture[i].Ptr()
	}

	return json.Marshal(struct {
		Year, Month, Day int
		Hour, Minute     int

		OutsideTemperatureAvg  *float64 `json:"outsideTemperatureAvg,omitempty"`
		OutsideTemperatureHigh *float64 `json:"outsideTemperatureHigh,omitempty"`
		OutsideTemperatureLow  *float64 `json:"outsideTemperatureLow,omitempty"`

		Rainfall       *float64 `json:"rainfall,omitempty"`
		HighRainRate   *float64 `json:"highRainRate,omitempty"`
		Barometer      *float64 `json:"barometer,omitempty"`
		SolarRadiation *float64 `json:"solarRadiation,omitempty"`
		NumWindSamples uint16   `json:"numWindSamples"`

		InsideTemperature *float64 `json:"insideTemperature,omitempty"`
		InsideHumidity    *float64 `json:"insideHumidity,omitempty"`
		OutsideHumidity   *float64 `json:"outsideHumidity,omitempty"`

		AvgWindSpeed      *float64 `json:"avgWindSpeed,omitempty"`
		HighWindSpeed     *float64 `json:"highWindSpeed,omitempty"`
		HighWindDir       *int     `json:"highWindDir,omitempty"`
		PrevailingWindDir *int     `json:"prevailingWindDir,omitempty"`

		AvgUVIndex *float64 `json:"avgUVIndex,omitempty"`
		ET         *float64 `json:"et,omitempty"`

		HighSolarRadiation *float64 `json:"highSolarRadiation,omitempty"`
		HighUVIndex        *float64 `json:"highUVIndex,omitempty"`
		ForecastRule       uint8    `json:"forecastRule"`

		LeafTemperature [2]*float64 `json:"leafTemperature"`
		LeafWetness     [2]*float64 `json:"leafWetness"`
		SoilTemperature [3]*float64 `json:"soilTemperature"`

		RecordType uint8 `json:"recordType"`

		ExtraHumidity    [2]*float64 `json:"extraHumidity"`
		ExtraTemperature [3]*float64 `json:"extraTemperature"`
		SoilMoisture     [4]*float64 `json:"soilMoisture"`
	}{
		Year: r.Year, Month: r.Month, Day: r.Day, Hour: r.Hour, Minute: r.Minute,

		OutsideTemperatureAvg:  r.OutsideTemperatureAvg.Ptr(),
		OutsideTemperatureHigh: r.OutsideTemperatureHigh.Ptr(),
		OutsideTemperatureLow:  r.OutsideTemperatureLow.Ptr(),

		Rainfall:       r.Rainfall.Ptr(),
		HighRainRate:   r.HighRainRate.Ptr(),
		Barometer:      r.Barometer.Ptr(),
		SolarRadiation: r.SolarRadiation.Ptr(),
		NumWindSamples: r.NumWindSamples,

		InsideTemperature: r.InsideTemperature.Ptr(),
		InsideHumidity:    r.InsideHumidity.Ptr(),
		OutsideHumidity:   r.OutsideHumidity.Ptr(),

		AvgWindSpeed:      r.AvgWindSpeed.Ptr(),
		HighWindSpeed:     r.HighWindSpeed.Ptr(),
		HighWindDir:       r.HighWindDir.Ptr(),
		PrevailingWindDir: r.PrevailingWindDir.Ptr(),

		AvgUVIndex: r.AvgUVIndex.Ptr(),
		ET:         r.ET.Ptr(),

		HighSolarRadiation: r.HighSolarRadiation.Ptr(),
		HighUVIndex:        r.HighUVIndex.Ptr(),
		ForecastRule:       r.ForecastRule,

		LeafTemperature: leafTemp,
		LeafWetness:     leafWet,
		SoilTemperature: soilTemp,

		RecordType: r.RecordType,

		ExtraHumidity:    extraHumid,
		ExtraTemperature: extraTemp,
		SoilMoisture:     soilMoist,
	})
}

// IsEmpty reports whether this is the console's "no data" marker
// record: both date and time stamps are zero.
func (r *Record) IsEmpty() bool {
	return r.Year == 0 && r.Month == 0 && r.Day == 0 && r.Hour == 0 && r.Minute == 0
}

// EpochTime returns the record's decoded timestamp in loc, combining
// the date-stamp and time-stamp fields. Archive timestamps are kept
// as both epoch time and the original Y-M-D-H-m fields (see
// SPEC_FULL.md / DESIGN.md Design Note on time zones); this is the
// epoch-conversion half of that pair, and its correctness depends on
// the caller supplying the console's actual local time zone.
func (r *Record) EpochTime(loc *time.Location) time.Time {
	return time.Date(r.Year, time.Month(r.Month), r.Day, r.Hour, r.Minute, 0, 0, loc)
}

// Valid reports whether the record's date-stamp decodes to a valid
// Gregorian date and the time-stamp is within range, per spec.md §3's
// archive-record invariant.
func (r *Record) Valid() bool {
	if r.IsEmpty() {
		return true
	}
	if r.Hour < 0 || r.Hour > 23 || r.Minute < 0 || r.Minute > 59 {
		return false
	}
	if r.Month < 1 || r.Month > 12 || r.Day < 1 {
		return false
	}
	t := time.Date(r.Year, time.Month(r.Month), r.Day, 0, 0, 0, 0, time.UTC)
	return t.Year() == r.Year && int(t.Month()) == r.Month && t.Day() == r.Day
}
