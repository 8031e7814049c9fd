package packet

import (
	"encoding/json"
	"fmt"

	"github.com/chrissnell/vantaged/internal/bitcodec"
	"github.com/chrissnell/vantaged/internal/decode"
	"github.com/chrissnell/vantaged/internal/measurement"
)

// Loop2 is a decoded LOOP2 packet (packet type 1): the console's
// extended real-time record, carrying averaged wind, short-interval
// rain, and derived temperatures the LOOP packet omits.
type Loop2 struct {
	Barometer          measurement.Value[float64]
	InsideTemperature  measurement.Value[float64]
	InsideHumidity     measurement.Value[float64]
	OutsideTemperature measurement.Value[float64]
	OutsideHumidity    measurement.Value[float64]

	WindSpeed              measurement.Value[float64]
	WindDirection          measurement.Value[int]
	WindSpeed10MinAvg      measurement.Value[float64]
	WindSpeed2MinAvg       measurement.Value[float64]
	WindGust10Min          measurement.Value[float64]
	WindGustDirection10Min measurement.Value[int]

	DewPoint  measurement.Value[float64]
	HeatIndex measurement.Value[float64]
	WindChill measurement.Value[float64]
	THSW      measurement.Value[float64]

	RainRate    measurement.Value[float64]
	UVIndex     measurement.Value[float64]
	SolarRadiation measurement.Value[float64]

	Rain15Min measurement.Value[float64]
	RainHour  measurement.Value[float64]
	Rain24Hour measurement.Value[float64]

	AtmPressure measurement.Value[float64]
}

const (
	off2WindSpeed10Avg = 18
	off2WindSpeed2Avg  = 20
	off2WindGust10     = 22
	off2WindGustDir10  = 24
	off2DewPoint       = 30
	off2HeatIndex      = 35
	off2WindChill      = 37
	off2THSW           = 39
	off2Rain15Min      = 52
	off2RainHour       = 54
	off2Rain24Hour     = 58
	off2AtmPressure    = 65
)

// DecodeLoop2 decodes a 99-byte LOOP2 (packet type 1) body.
func DecodeLoop2(buf []byte, d *decode.Decoder) (*Loop2, error) {
	if len(buf) != Size {
		return nil, fmt.Errorf("packet: LOOP2 buffer must be %d bytes, got %d", Size, len(buf))
	}
	if pt := bitcodec.Uint8(buf, offPacketType); pt != loop2PacketType {
		return nil, fmt.Errorf("packet: expected LOOP2 packet type %d, got %d", loop2PacketType, pt)
	}

	l := &Loop2{}
	l.Barometer = decode.Barometer(bitcodec.Uint16LE(buf, offBarometer))
	l.InsideTemperature = decode.Temp16(bitcodec.Int16LE(buf, offInsideTemp))
	l.InsideHumidity = decode.Humidity(bitcodec.Uint8(buf, offInsideHumid))
	l.OutsideTemperature = decode.Temp16(bitcodec.Int16LE(buf, offOutsideTemp))
	l.OutsideHumidity = decode.Humidity(bitcodec.Uint8(buf, offOutsideHumid))

	l.WindSpeed = decode.WindSpeed8(bitcodec.Uint8(buf, offWindSpeed))
	l.WindDirection = decode.WindHeadingSlice(bitcodec.Uint16LE(buf, offWindDir))
	l.WindSpeed10MinAvg = decode.WindSpeed16(bitcodec.Uint16LE(buf, off2WindSpeed10Avg))
	l.WindSpeed2MinAvg = decode.WindSpeed16(bitcodec.Uint16LE(buf, off2WindSpeed2Avg))
	l.WindGust10Min = decode.WindSpeed16(bitcodec.Uint16LE(buf, off2WindGust10))
	l.WindGustDirection10Min = decode.WindHeadingSlice(bitcodec.Uint16LE(buf, off2WindGustDir10))

	l.DewPoint = decode.TempNonScaled16(bitcodec.Int16LE(buf, off2DewPoint))
	l.HeatIndex = decode.TempNonScaled16(bitcodec.Int16LE(buf, off2HeatIndex))
	l.WindChill = decode.TempNonScaled16(bitcodec.Int16LE(buf, off2WindChill))
	l.THSW = decode.TempNonScaled16(bitcodec.Int16LE(buf, off2THSW))

	l.RainRate = d.Rain(bitcodec.Uint16LE(buf, offRainRate))
	l.UVIndex = decode.UVIndex(bitcodec.Uint8(buf, offUV))
	l.SolarRadiation = measurement.Valid(float64(bitcodec.Uint16LE(buf, offSolarRad)))

	l.Rain15Min = d.Rain(bitcodec.Uint16LE(buf, off2Rain15Min))
	l.RainHour = d.Rain(bitcodec.Uint16LE(buf, off2RainHour))
	l.Rain24Hour = d.Rain(bitcodec.Uint16LE(buf, off2Rain24Hour))

	l.AtmPressure = decode.Barometer(bitcodec.Uint16LE(buf, off2AtmPressure))

	return l, nil
}

// MarshalJSON renders Loop2 with every measurement field omitted (not
// null) when invalid, matching Loop.MarshalJSON's rationale.
func (l *Loop2) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Barometer          *float64 `json:"barometer,omitempty"`
		InsideTemperature  *float64 `json:"insideTemperature,omitempty"`
		InsideHumidity     *float64 `json:"insideHumidity,omitempty"`
		OutsideTemperature *float64 `json:"outsideTemperature,omitempty"`
		OutsideHumidity    *float64 `json:"outsideHumidity,omitempty"`

		WindSpeed              *float64 `json:"windSpeed,omitempty"`
		WindDirection          *int     `json:"windDirection,omitempty"`
		WindSpeed10MinAvg      *float64 `json:"windSpeed10MinAvg,omitempty"`
		WindSpeed2MinAvg       *float64 `json:"windSpeed2MinAvg,omitempty"`
		WindGust10Min          *float64 `json:"windGust10Min,omitempty"`
		WindGustDirection10Min *int     `json:"windGustDirection10Min,omitempty"`

		DewPoint  *float64 `json:"dewPoint,omitempty"`
		HeatIndex *float64 `json:"heatIndex,omitempty"`
		WindChill *float64 `json:"windChill,omitempty"`
		THSW      *float64 `json:"thsw,omitempty"`

		RainRate       *float64 `json:"rainRate,omitempty"`
		UVIndex        *float64 `json:"uvIndex,omitempty"`
		SolarRadiation *float64 `json:"solarRadiation,omitempty"`

		Rain15Min  *float64 `json:"rain15Min,omitempty"`
		RainHour   *float64 `json:"rainHour,omitempty"`
		Rain24Hour *float64 `json:"rain24Hour,omitempty"`

		AtmPressure *float64 `json:"atmPressure,omitempty"`
	}{
		Barometer:          l.Barometer.Ptr(),
		InsideTemperature:  l.InsideTemperature.Ptr(),
		InsideHumidity:     l.InsideHumidity.Ptr(),
		OutsideTemperature: l.OutsideTemperature.Ptr(),
		OutsideHumidity:    l.OutsideHumidity.Ptr(),

		WindSpeed:              l.WindSpeed.Ptr(),
		WindDirection:          l.WindDirection.Ptr(),
		WindSpeed10MinAvg:      l.WindSpeed10MinAvg.Ptr(),
		WindSpeed2MinAvg:       l.WindSpeed2MinAvg.Ptr(),
		WindGust10Min:          l.WindGust10Min.Ptr(),
		WindGustDirection10Min: l.WindGustDirection10Min.Ptr(),

		DewPoint:  l.DewPoint.Ptr(),
		HeatIndex: l.HeatIndex.Ptr(),
		WindChill: l.WindChill.Ptr(),
		THSW:      l.THSW.Ptr(),

		RainRate:       l.RainRate.Ptr(),
		UVIndex:        l.UVIndex.Ptr(),
		SolarRadiation: l.SolarRadiation.Ptr(),

		Rain15Min:  l.Rain15Min.Ptr(),
		RainHour:   l.RainHour.Ptr(),
		Rain24Hour: l.Rain24Hour.Ptr(),

		AtmPressure: l.AtmPressure.Ptr(),
	})
}
