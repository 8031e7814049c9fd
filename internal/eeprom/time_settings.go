package eeprom

import "fmt"

// TimeSettings is the console's 6-byte time zone / DST configuration
// block (VantageConfiguration::retrieveTimeSettings). Byte layout:
//
//	0: time zone index (ASCII digit '0'-'F' style index into the
//	   console's built-in time zone table)
//	1: manual DST override in effect (0/1)
//	2: manual DST is currently "on" (0/1), meaningful only when byte 1
//	   is set
//	3-4: GMT offset packed as (hours*100)+minutes, little-endian
//	5: use GMT offset instead of a time zone index (0/1)
type TimeSettings struct {
	TimeZoneIndex  int
	ManualDST      bool
	DSTOn          bool
	GMTOffsetHours int
	GMTOffsetMins  int
	UseGMTOffset   bool
}

// DecodeTimeSettings parses the 6-byte block starting at
// AddrTimeFields.
func DecodeTimeSettings(buf []byte) (TimeSettings, error) {
	if len(buf) < timeFieldsSize {
		return TimeSettings{}, fmt.Errorf("eeprom: time settings block needs %d bytes, got %d", timeFieldsSize, len(buf))
	}
	packed := int16(le16(buf, 3))
	return TimeSettings{
		TimeZoneIndex:  int(buf[0]),
		ManualDST:      buf[1] != 0,
		DSTOn:          buf[2] != 0,
		GMTOffsetHours: int(packed / 100),
		GMTOffsetMins:  int(packed % 100),
		UseGMTOffset:   buf[5] != 0,
	}, nil
}

// EncodeTimeSettings renders t as the 6-byte EEPROM block.
func EncodeTimeSettings(t TimeSettings) []byte {
	buf := make([]byte, timeFieldsSize)
	buf[0] = byte(t.TimeZoneIndex)
	if t.ManualDST {
		buf[1] = 1
	}
	if t.DSTOn {
		buf[2] = 1
	}
	packed := int16(t.GMTOffsetHours*100 + t.GMTOffsetMins)
	putLE16(buf, 3, uint16(packed))
	if t.UseGMTOffset {
		buf[5] = 1
	}
	return buf
}
