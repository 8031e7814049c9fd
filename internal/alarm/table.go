package alarm

// NumAlarms matches vp2's AlarmManager::NUM_ALARMS.
const NumAlarms = 86

// alarmEEPROMBase and alarmEEPROMSize are vws's
// EE_ALARM_THRESHOLDS_ADDRESS/EE_ALARM_THRESHOLDS_SIZE: the 86
// thresholds pack into a 94-byte EEPROM block, so only a handful can
// be 2-byte fields — the rest are single bytes, matching how the
// console scales most alarm thresholds to fit a byte.
const (
	alarmEEPROMBase = 0x52
	alarmEEPROMSize = 94
)

// twoByteAlarms names the handful of thresholds wide enough to need
// two EEPROM bytes; every other alarm gets one. This split is this
// module's own allocation (tightened against alarmEEPROMSize) since
// the real per-alarm layout isn't in the retrieval pack — see
// DESIGN.md.
var twoByteAlarms = map[string]bool{
	"barometer falling rate":  true,
	"barometer rising rate":   true,
	"rain storm total high":   true,
	"rain 24 hour total high": true,
	"dew point low":           true,
	"dew point high":          true,
	"heat index high":         true,
	"wind chill low":          true,
}

// defaultDefinitions builds the 86-entry named alarm table in the
// order its categories appear in the LOOP packet.
func defaultDefinitions() []Definition {
	var defs []Definition
	addr := uint16(alarmEEPROMBase)
	bit := 0

	add := func(name string) {
		size := 1
		if twoByteAlarms[name] {
			size = 2
		}
		defs = append(defs, Definition{
			Name: name, Bit: bit, EEPROMAddr: addr, EEPROMSize: size,
			EEPROMNotSetVal: notSetForSize(size),
		})
		bit++
		addr += uint16(size)
	}

	add("barometer falling rate")
	add("barometer rising rate")
	add("time")

	add("inside temperature low")
	add("inside temperature high")
	add("inside humidity low")
	add("inside humidity high")

	add("outside temperature low")
	add("outside temperature high")
	add("outside humidity low")
	add("outside humidity high")
	add("dew point low")
	add("dew point high")
	add("heat index high")
	add("wind chill low")
	add("THSW index high")

	add("wind speed high")
	add("wind speed 10 minute average high")

	add("rain rate high")
	add("rain 15 minute total high")
	add("rain 24 hour total high")
	add("rain storm total high")
	add("UV index high")
	add("UV dose high")
	add("solar radiation high")

	for ch := 1; ch <= 7; ch++ {
		add(nameForChannel("extra temperature low", ch))
		add(nameForChannel("extra temperature high", ch))
		add(nameForChannel("extra humidity low", ch))
		add(nameForChannel("extra humidity high", ch))
	}

	for ch := 1; ch <= 4; ch++ {
		add(nameForChannel("leaf wetness low", ch))
		add(nameForChannel("leaf wetness high", ch))
	}

	for ch := 1; ch <= 4; ch++ {
		add(nameForChannel("soil moisture low", ch))
		add(nameForChannel("soil moisture high", ch))
	}

	for ch := 1; ch <= 2; ch++ {
		add(nameForChannel("leaf temperature low", ch))
		add(nameForChannel("leaf temperature high", ch))
	}

	for ch := 1; ch <= 2; ch++ {
		add(nameForChannel("soil temperature low", ch))
		add(nameForChannel("soil temperature high", ch))
	}

	for len(defs) < NumAlarms {
		add(nameForChannel("transmitter battery low", len(defs)-76))
	}

	return defs[:NumAlarms]
}

func nameForChannel(base string, ch int) string {
	return base + " " + itoa(ch)
}

func notSetForSize(size int) int {
	if size == 1 {
		return 255
	}
	return 32767
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
