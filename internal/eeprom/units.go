package eeprom

import "fmt"

// BarometerUnit is the console's barometric pressure display unit.
type BarometerUnit int

const (
	BarometerInHg BarometerUnit = 0
	BarometerMM   BarometerUnit = 1
	BarometerHPa  BarometerUnit = 2
	BarometerMB   BarometerUnit = 3
)

// TemperatureUnit is the console's temperature display unit.
type TemperatureUnit int

const (
	TemperatureF TemperatureUnit = 0
	TemperatureC TemperatureUnit = 1
)

// ElevationUnit is the console's elevation display unit.
type ElevationUnit int

const (
	ElevationFeet   ElevationUnit = 0
	ElevationMeters ElevationUnit = 1
)

// RainUnit is the console's rainfall display unit.
type RainUnit int

const (
	RainInches      RainUnit = 0
	RainMillimeters RainUnit = 1
)

// WindUnit is the console's wind speed display unit.
type WindUnit int

const (
	WindMPH   WindUnit = 0
	WindMPS   WindUnit = 1
	WindKPH   WindUnit = 2
	WindKnots WindUnit = 3
)

// Units is the console's display-unit configuration, packed into a
// single EEPROM byte at AddrUnitBits plus an inverted checksum byte
// immediately after it.
type Units struct {
	Barometer   BarometerUnit
	Temperature TemperatureUnit
	Elevation   ElevationUnit
	Rain        RainUnit
	Wind        WindUnit
}

// DecodeUnits parses the unit-bits byte and validates its inverted
// checksum companion, per VantageConfiguration::retrieveUnitsSettings.
func DecodeUnits(buf []byte) (Units, error) {
	if len(buf) < 2 {
		return Units{}, fmt.Errorf("eeprom: unit bits need 2 bytes, got %d", len(buf))
	}
	b, check := buf[0], buf[1]
	if b != ^check {
		return Units{}, fmt.Errorf("eeprom: unit bits checksum mismatch: %#02x vs ~%#02x", b, check)
	}
	return Units{
		Barometer:   BarometerUnit(b & 0x03),
		Temperature: TemperatureUnit((b >> 2) & 0x03),
		Elevation:   ElevationUnit((b >> 4) & 0x01),
		Rain:        RainUnit((b >> 5) & 0x01),
		Wind:        WindUnit((b >> 6) & 0x03),
	}, nil
}

// EncodeUnits renders u as the unit-bits byte followed by its inverted
// checksum byte.
func EncodeUnits(u Units) []byte {
	b := byte(u.Barometer&0x03) |
		byte(u.Temperature&0x03)<<2 |
		byte(u.Elevation&0x01)<<4 |
		byte(u.Rain&0x01)<<5 |
		byte(u.Wind&0x03)<<6
	return []byte{b, ^b}
}
