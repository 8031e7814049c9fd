package dispatcher

import "github.com/chrissnell/vantaged/internal/protocol"

// enumTable is a small name<->value lookup for enum-valued command
// arguments, matching CommandHandler.cpp's EnumeratedType helper
// (barometerUnitsEnum, temperatureUnitsEnum, etc.): invalid names fail
// the command with ArgumentInvalid rather than a zero value.
type enumTable[T any] map[string]T

func (t enumTable[T]) parse(argName, value string) (T, error) {
	v, ok := t[value]
	if !ok {
		var zero T
		return zero, protocol.Newf(protocol.ArgumentInvalid, "invalid value %q for %s", value, argName)
	}
	return v, nil
}
