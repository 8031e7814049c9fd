// Package alarm tracks the console's named alarm conditions, the
// finished storms the current-weather pipeline detects, and their
// history, grounded on original_source/source/vp2/Alarm.h.
package alarm

// Definition binds one named alarm to a bit position in the LOOP
// packet's 128-bit alarm bitmap and the EEPROM address/size of the
// threshold that arms it, mirroring vp2's AlarmProperties.
type Definition struct {
	Name            string
	Bit             int
	EEPROMAddr      uint16
	EEPROMSize      int
	EEPROMNotSetVal int
}

// Alarm is one monitored condition: its static definition plus
// whatever threshold the console currently has configured for it and
// whether it is presently triggered.
type Alarm struct {
	Definition
	ThresholdRaw int
	ThresholdSet bool
	Triggered    bool
}
