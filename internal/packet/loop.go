// Package packet defines the console's wire record types — LOOP,
// LOOP2, Hi/Low, and the archive record — along with their decoders.
// Every decoder here is a pure function of a byte buffer: framing
// (CRC, prefix, terminator) is validated by the protocol engine before
// a decoder ever sees the bytes, per spec.md §4.3/§7 ("a packet fails
// only on CRC, prefix, or terminator issues").
package packet

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/chrissnell/vantaged/internal/bitcodec"
	"github.com/chrissnell/vantaged/internal/decode"
	"github.com/chrissnell/vantaged/internal/measurement"
)

// Size is the fixed length, in bytes, of a LOOP or LOOP2 packet,
// including its LF/CR terminator and CRC.
const Size = 99

// BaroTrend enumerates the console's 3-hour barometer trend arrow.
type BaroTrend int8

const (
	BaroTrendUnknown        BaroTrend = 0
	BaroTrendFallingRapidly BaroTrend = -60
	BaroTrendFallingSlowly  BaroTrend = -20
	BaroTrendSteady         BaroTrend = 0
	BaroTrendRisingSlowly   BaroTrend = 20
	BaroTrendRisingRapidly  BaroTrend = 60
)

// ForecastIcon enumerates the console's forecast pictogram bitmap.
type ForecastIcon uint8

const (
	ForecastSunny                        ForecastIcon = 0x08
	ForecastPartlyCloudy                 ForecastIcon = 0x06
	ForecastMostlyCloudy                 ForecastIcon = 0x02
	ForecastMostlyCloudyWithRain         ForecastIcon = 0x03
	ForecastMostlyCloudyWithSnow         ForecastIcon = 0x04
	ForecastMostlyCloudyWithRainOrSnow   ForecastIcon = 0x07
	ForecastPartlyCloudyWithRainLater    ForecastIcon = 0x22
	ForecastPartlyCloudyWithSnowLater    ForecastIcon = 0x23
	ForecastPartlyCloudyWithRainOrSnow   ForecastIcon = 0x2B
)

// AlarmBits is the 128-bit alarm bitmap carried by every LOOP packet.
type AlarmBits [128]bool

// Loop is a decoded LOOP packet (packet type 0): the console's
// primary real-time status record.
type Loop struct {
	BaroTrend          BaroTrend
	NextRecord         uint16
	Barometer          measurement.Value[float64]
	InsideTemperature  measurement.Value[float64]
	InsideHumidity     measurement.Value[float64]
	OutsideTemperature measurement.Value[float64]
	WindSpeed          measurement.Value[float64]
	WindSpeed10Min     measurement.Value[float64]
	WindDirection      measurement.Value[int]
	ExtraTemperature   [3]measurement.Value[float64]
	SoilTemperature    [3]measurement.Value[float64]
	LeafTemperature    [2]measurement.Value[float64]
	OutsideHumidity    measurement.Value[float64]
	ExtraHumidity      [2]measurement.Value[float64]
	RainRate           measurement.Value[float64]
	UVIndex            measurement.Value[float64]
	SolarRadiation     measurement.Value[float64]
	StormRain          measurement.Value[float64]
	StormStartYear     int
	StormStartMonth    int
	StormStartDay      int
	StormActive        bool
	DayRain            measurement.Value[float64]
	MonthRain          measurement.Value[float64]
	YearRain           measurement.Value[float64]
	DayET              measurement.Value[float64]
	MonthET            measurement.Value[float64]
	YearET             measurement.Value[float64]
	SoilMoisture       [4]measurement.Value[float64]
	LeafWetness        [2]measurement.Value[float64]
	AlarmBits          AlarmBits
	TransmitterBattery uint8
	ConsoleBatteryVolts float64
	ForecastIcon       ForecastIcon
	ForecastRule       uint8
	Sunrise            int // packed HHMM
	Sunset             int // packed HHMM
}

// offsets within a Loop/Loop2 body, grounded on the original decoder
// (LoopPacket::decodeLoopPacket / Loop2Packet::decodeLoop2Packet).
const (
	offPrefix        = 0 // "LOO"
	offBaroTrend     = 3
	offPacketType    = 4
	offNextRecord    = 5
	offBarometer     = 7
	offInsideTemp    = 9
	offInsideHumid   = 11
	offOutsideTemp   = 12
	offWindSpeed     = 14
	offWindSpeed10   = 15
	offWindDir       = 16
	offExtraTemp     = 18 // 3 bytes
	offSoilTemp      = 25 // 3 bytes
	offLeafTemp      = 29 // 2 bytes... original uses 4, we keep the spec's MAX_LEAF_TEMPERATURES=2
	offOutsideHumid  = 33
	offExtraHumid    = 34 // 2 bytes
	offRainRate      = 41
	offUV            = 43
	offSolarRad      = 44
	offStormRain     = 46
	offStormStart    = 48
	offDayRain       = 50
	offMonthRain     = 52
	offYearRain      = 54
	offDayET         = 56
	offMonthET       = 58
	offYearET        = 60
	offSoilMoisture  = 62 // 4 bytes
	offLeafWetness   = 66 // 2 bytes
	offAlarmBitsBase = 70 // 16 bytes, 8 bits each
	offTxBattery     = 86
	offConsBattery   = 87
	offForecastIcon  = 89
	offForecastRule  = 90
	offSunrise       = 91
	offSunset        = 93
	offLF            = 95
	offCR            = 96
	offCRC           = 97

	loopPacketType  = 0
	loop2PacketType = 1
)

// DecodeLoop decodes a 99-byte LOOP (packet type 0) body. The caller
// is responsible for having already validated framing (prefix, CRC,
// terminator) — see internal/protocol.
func DecodeLoop(buf []byte, d *decode.Decoder) (*Loop, error) {
	if len(buf) != Size {
		return nil, fmt.Errorf("packet: LOOP buffer must be %d bytes, got %d", Size, len(buf))
	}
	if pt := bitcodec.Uint8(buf, offPacketType); pt != loopPacketType {
		return nil, fmt.Errorf("packet: expected LOOP packet type %d, got %d", loopPacketType, pt)
	}

	l := &Loop{}
	if buf[offBaroTrend] == 'P' {
		l.BaroTrend = BaroTrendUnknown
	} else {
		l.BaroTrend = BaroTrend(bitcodec.Int8(buf, offBaroTrend))
	}
	l.NextRecord = bitcodec.Uint16LE(buf, offNextRecord)
	l.Barometer = decode.Barometer(bitcodec.Uint16LE(buf, offBarometer))
	l.InsideTemperature = decode.Temp16(bitcodec.Int16LE(buf, offInsideTemp))
	l.InsideHumidity = decode.Humidity(bitcodec.Uint8(buf, offInsideHumid))
	l.OutsideTemperature = decode.Temp16(bitcodec.Int16LE(buf, offOutsideTemp))
	l.WindSpeed = decode.WindSpeed8(bitcodec.Uint8(buf, offWindSpeed))
	l.WindSpeed10Min = decode.WindSpeed8(bitcodec.Uint8(buf, offWindSpeed10))
	l.WindDirection = decode.WindHeadingSlice(bitcodec.Uint16LE(buf, offWindDir))

	for i := 0; i < 3; i++ {
		l.ExtraTemperature[i] = decode.Temp8(bitcodec.Uint8(buf, offExtraTemp+i))
		l.SoilTemperature[i] = decode.Temp8(bitcodec.Uint8(buf, offSoilTemp+i))
	}
	for i := 0; i < 2; i++ {
		l.LeafTemperature[i] = decode.Temp8(bitcodec.Uint8(buf, offLeafTemp+i))
		l.ExtraHumidity[i] = decode.Humidity(bitcodec.Uint8(buf, offExtraHumid+i))
		l.LeafWetness[i] = decode.Humidity(bitcodec.Uint8(buf, offLeafWetness+i))
	}
	l.OutsideHumidity = decode.Humidity(bitcodec.Uint8(buf, offOutsideHumid))

	l.RainRate = d.Rain(bitcodec.Uint16LE(buf, offRainRate))
	l.UVIndex = decode.UVIndex(bitcodec.Uint8(buf, offUV))
	l.SolarRadiation = measurement.Valid(float64(bitcodec.Uint16LE(buf, offSolarRad)))

	l.StormRain = d.Rain(bitcodec.Uint16LE(buf, offStormRain))
	year, month, day, ok := decode.StormStartDate(bitcodec.Int16LE(buf, offStormStart))
	l.StormStartYear, l.StormStartMonth, l.StormStartDay, l.StormActive = year, month, day, ok

	l.DayRain = d.Rain(bitcodec.Uint16LE(buf, offDayRain))
	l.MonthRain = d.Rain(bitcodec.Uint16LE(buf, offMonthRain))
	l.YearRain = d.Rain(bitcodec.Uint16LE(buf, offYearRain))

	l.DayET = decode.DayET(bitcodec.Uint8(buf, offDayET))
	l.MonthET = decode.PeriodET(bitcodec.Uint16LE(buf, offMonthET))
	l.YearET = decode.PeriodET(bitcodec.Uint16LE(buf, offYearET))

	for i := 0; i < 4; i++ {
		l.SoilMoisture[i] = decode.Humidity(bitcodec.Uint8(buf, offSoilMoisture+i))
	}

	for i := 0; i < 16; i++ {
		b := bitcodec.Uint8(buf, offAlarmBitsBase+i)
		for j := 0; j < 8; j++ {
			l.AlarmBits[i*8+j] = b&(1<<uint(j)) != 0
		}
	}

	l.TransmitterBattery = bitcodec.Uint8(buf, offTxBattery)
	l.ConsoleBatteryVolts = float64(bitcodec.Uint16LE(buf, offConsBattery)) * 300.0 / 512.0 / 100.0
	l.ForecastIcon = ForecastIcon(bitcodec.Uint8(buf, offForecastIcon))
	l.ForecastRule = bitcodec.Uint8(buf, offForecastRule)
	l.Sunrise = int(bitcodec.Uint16LE(buf, offSunrise))
	l.Sunset = int(bitcodec.Uint16LE(buf, offSunset))

	return l, nil
}

// MarshalJSON renders Loop with every measurement field omitted (not
// null) when invalid, per spec.md §3's "omitted from JSON when
// invalid" — encoding/json's omitempty never treats a struct as
// empty, so each measurement.Value[T] field is converted to its
// pointer form (measurement.Value[T].Ptr) before marshaling.
func (l *Loop) MarshalJSON() ([]byte, error) {
	var extraTemp, soilTemp [3]*float64
	var leafTemp, extraHumid, leafWet [2]*float64
	var soilMoist [4]*float64
	for i := 0; i < 3; i++ {
		extraTemp[i] = l.ExtraTemperature[i].Ptr()
		soilTemp[i] = l.SoilTemperature[i].Ptr()
	}
	for i := 0; i < 2; i++ {
		leafTemp[i] = l.LeafTemperature[i].Ptr()
		extraHumid[i] = l.ExtraHumidity[i].Ptr()
		leafWet[i] = l.LeafWetness[i].Ptr()
	}
	for i := 0; i < 4; i++ {
		soilMoist[i] = l.SoilMoisture[i].Ptr()
	}

	return json.Marshal(struct {
		BaroTrend           BaroTrend    `json:"baroTrend"`
		NextRecord          uint16       `json:"nextRecord"`
		Barometer           *float64     `json:"barometer,omitempty"`
		InsideTemperature   *float64     `json:"insideTemperature,omitempty"`
		InsideHumidity      *float64     `json:"insideHumidity,omitempty"`
		OutsideTemperature  *float64     `json:"outsideTemperature,omitempty"`
		WindSpeed           *float64     `json:"windSpeed,omitempty"`
		WindSpeed10Min      *float64     `json:"windSpeed10Min,omitempty"`
		WindDirection       *int         `json:"windDirection,omitempty"`
		ExtraTemperature    [3]*float64  `json:"extraTemperature"`
		SoilTemperature     [3]*float64  `json:"soilTemperature"`
		LeafTemperature     [2]*float64  `json:"leafTemperature"`
		OutsideHumidity     *float64     `json:"outsideHumidity,omitempty"`
		ExtraHumidity       [2]*float64  `json:"extraHumidity"`
		RainRate            *float64     `json:"rainRate,omitempty"`
		UVIndex             *float64     `json:"uvIndex,omitempty"`
		SolarRadiation      *float64     `json:"solarRadiation,omitempty"`
		StormRain           *float64     `json:"stormRain,omitempty"`
		StormStartYear      int          `json:"stormStartYear,omitempty"`
		StormStartMonth     int          `json:"stormStartMonth,omitempty"`
		StormStartDay       int          `json:"stormStartDay,omitempty"`
		StormActive         bool         `json:"stormActive"`
		DayRain             *float64     `json:"dayRain,omitempty"`
		MonthRain           *float64     `json:"monthRain,omitempty"`
		YearRain            *float64     `json:"yearRain,omitempty"`
		DayET               *float64     `json:"dayET,omitempty"`
		MonthET             *float64     `json:"monthET,omitempty"`
		YearET              *float64     `json:"yearET,omitempty"`
		SoilMoisture        [4]*float64  `json:"soilMoisture"`
		LeafWetness         [2]*float64  `json:"leafWetness"`
		AlarmBits           AlarmBits    `json:"alarmBits"`
		TransmitterBattery  uint8        `json:"transmitterBattery"`
		ConsoleBatteryVolts float64      `json:"consoleBatteryVolts"`
		ForecastIcon        ForecastIcon `json:"forecastIcon"`
		ForecastRule        uint8        `json:"forecastRule"`
		Sunrise             int          `json:"sunrise"`
		Sunset              int          `json:"sunset"`
	}{
		BaroTrend:           l.BaroTrend,
		NextRecord:          l.NextRecord,
		Barometer:           l.Barometer.Ptr(),
		InsideTemperature:   l.InsideTemperature.Ptr(),
		InsideHumidity:      l.InsideHumidity.Ptr(),
		OutsideTemperature:  l.OutsideTemperature.Ptr(),
		WindSpeed:           l.WindSpeed.Ptr(),
		WindSpeed10Min:      l.WindSpeed10Min.Ptr(),
		WindDirection:       l.WindDirection.Ptr(),
		ExtraTemperature:    extraTemp,
		SoilTemperature:     soilTemp,
		LeafTemperature:     leafTemp,
		OutsideHumidity:     l.OutsideHumidity.Ptr(),
		ExtraHumidity:       extraHumid,
		RainRate:            l.RainRate.Ptr(),
		UVIndex:             l.UVIndex.Ptr(),
		SolarRadiation:      l.SolarRadiation.Ptr(),
		StormRain:           l.StormRain.Ptr(),
		StormStartYear:      l.StormStartYear,
		StormStartMonth:     l.StormStartMonth,
		StormStartDay:       l.StormStartDay,
		StormActive:         l.StormActive,
		DayRain:             l.DayRain.Ptr(),
		MonthRain:           l.MonthRain.Ptr(),
		YearRain:            l.YearRain.Ptr(),
		DayET:               l.DayET.Ptr(),
		MonthET:             l.MonthET.Ptr(),
		YearET:              l.YearET.Ptr(),
		SoilMoisture:        soilMoist,
		LeafWetness:         leafWet,
		AlarmBits:           l.AlarmBits,
		TransmitterBattery:  l.TransmitterBattery,
		ConsoleBatteryVolts: l.ConsoleBatteryVolts,
		ForecastIcon:        l.ForecastIcon,
		ForecastRule:        l.ForecastRule,
		Sunrise:             l.Sunrise,
		Sunset:              l.Sunset,
	})
}

// TransmitterBatteryGood reports whether the given 1-based channel's
// battery status bit is clear (0 == good).
func (l *Loop) TransmitterBatteryGood(channel int) bool {
	return l.TransmitterBattery&(1<<uint(channel-1)) == 0
}

// IsStormOngoing reports whether the packet indicates an active
// storm: a storm-start date is set and accumulated storm rain is
// positive.
func (l *Loop) IsStormOngoing() bool {
	if !l.StormActive {
		return false
	}
	rain, ok := l.StormRain.Get()
	return ok && rain > 0
}

// SunriseTime and SunsetTime render the packed HHMM sunrise/sunset
// fields against a reference date (the engine supplies "today" in the
// console's local time, since the packet itself carries no date).
func (l *Loop) SunriseTime(reference time.Time) time.Time {
	return packedTimeOnDate(reference, l.Sunrise)
}

func (l *Loop) SunsetTime(reference time.Time) time.Time {
	return packedTimeOnDate(reference, l.Sunset)
}

func packedTimeOnDate(reference time.Time, packed int) time.Time {
	hh := packed / 100
	mm := packed % 100
	y, mo, d := reference.Date()
	return time.Date(y, mo, d, hh, mm, 0, 0, reference.Location())
}
