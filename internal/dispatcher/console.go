package dispatcher

import (
	"context"
	"strconv"

	"github.com/chrissnell/vantaged/internal/eeprom"
	"github.com/chrissnell/vantaged/internal/network"
	"github.com/chrissnell/vantaged/internal/packet"
	"github.com/chrissnell/vantaged/internal/protocol"
)

var barometerUnitsEnum = enumTable[eeprom.BarometerUnit]{
	"in": eeprom.BarometerInHg, "mm": eeprom.BarometerMM, "hPa": eeprom.BarometerHPa, "mb": eeprom.BarometerMB,
}
var temperatureUnitsEnum = enumTable[eeprom.TemperatureUnit]{
	"F": eeprom.TemperatureF, "C": eeprom.TemperatureC,
}
var elevationUnitsEnum = enumTable[eeprom.ElevationUnit]{
	"feet": eeprom.ElevationFeet, "meters": eeprom.ElevationMeters,
}
var rainUnitsEnum = enumTable[eeprom.RainUnit]{
	"in": eeprom.RainInches, "mm": eeprom.RainMillimeters,
}
var windUnitsEnum = enumTable[eeprom.WindUnit]{
	"mph": eeprom.WindMPH, "mps": eeprom.WindMPS, "kph": eeprom.WindKPH, "knots": eeprom.WindKnots,
}

func unitsName[T ~int](v T, table enumTable[T]) string {
	for name, val := range table {
		if val == v {
			return name
		}
	}
	return ""
}

// ConsoleDeps bundles the console-bound handlers' collaborators — the
// serial-side objects the single console worker goroutine is allowed
// to touch (spec.md §5: "Serial port: exclusive to the protocol
// thread; never accessed elsewhere.").
type ConsoleDeps struct {
	Engine    *protocol.Engine
	Store     *eeprom.Store
	Inventory *network.Inventory // may be nil; query-network is then not registered at all
}

// RegisterConsoleHandlers wires every console-bound command named in
// spec.md §6 against deps, matching CommandHandler.cpp's
// command-name-to-method table.
func RegisterConsoleHandlers(d *Dispatcher, deps ConsoleDeps) {
	eng := deps.Engine
	store := deps.Store

	d.RegisterConsole("query-console-type", func(ctx context.Context, _ Arguments) (any, error) {
		t, err := eng.ConsoleType(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]string{"consoleType": t}, nil
	})

	d.RegisterConsole("query-firmware", func(ctx context.Context, _ Arguments) (any, error) {
		date, err := eng.Firmware(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]string{"firmwareDate": date}, nil
	})

	if deps.Inventory != nil {
		d.RegisterConsole("query-network", func(ctx context.Context, _ Arguments) (any, error) {
			return map[string]any{"stations": deps.Inventory.Stations}, nil
		})
	}

	d.RegisterConsole("query-receiver-list", func(ctx context.Context, _ Arguments) (any, error) {
		mask, err := eng.Receivers(ctx)
		if err != nil {
			return nil, err
		}
		var channels []int
		for i := 0; i < network.NumStations; i++ {
			if mask&(1<<uint(i)) != 0 {
				channels = append(channels, i+1)
			}
		}
		return map[string]any{"receiverList": channels}, nil
	})

	d.RegisterConsole("query-highlows", func(ctx context.Context, _ Arguments) (any, error) {
		body, err := eng.HiLow(ctx)
		if err != nil {
			return nil, err
		}
		hl, err := packet.DecodeHiLow(body)
		if err != nil {
			return nil, protocol.Wrap(protocol.DecodeInvalidField, err)
		}
		return hl, nil
	})

	d.RegisterConsole("query-console-diagnostics", func(ctx context.Context, _ Arguments) (any, error) {
		diag := eng.Diagnostics()
		return map[string]any{
			"totalPacketsReceived": diag.PacketsReceived,
			"totalPacketsMissed":   diag.PacketsMissed,
			"resyncCount":          diag.ResyncCount,
			"crcErrorCount":        diag.CrcErrorCount,
		}, nil
	})

	d.RegisterConsole("query-units", func(ctx context.Context, _ Arguments) (any, error) {
		u, err := store.Units(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]string{
			"baroUnits":        unitsName(u.Barometer, barometerUnitsEnum),
			"temperatureUnits": unitsName(u.Temperature, temperatureUnitsEnum),
			"elevationUnits":   unitsName(u.Elevation, elevationUnitsEnum),
			"rainUnits":        unitsName(u.Rain, rainUnitsEnum),
			"windUnits":        unitsName(u.Wind, windUnitsEnum),
		}, nil
	})

	d.RegisterConsole("update-units", func(ctx context.Context, args Arguments) (any, error) {
		u, err := store.Units(ctx)
		if err != nil {
			return nil, err
		}
		if v, ok := args.Get("baroUnits"); ok {
			if u.Barometer, err = barometerUnitsEnum.parse("baroUnits", v); err != nil {
				return nil, err
			}
		}
		if v, ok := args.Get("temperatureUnits"); ok {
			if u.Temperature, err = temperatureUnitsEnum.parse("temperatureUnits", v); err != nil {
				return nil, err
			}
		}
		if v, ok := args.Get("elevationUnits"); ok {
			if u.Elevation, err = elevationUnitsEnum.parse("elevationUnits", v); err != nil {
				return nil, err
			}
		}
		if v, ok := args.Get("rainUnits"); ok {
			if u.Rain, err = rainUnitsEnum.parse("rainUnits", v); err != nil {
				return nil, err
			}
		}
		if v, ok := args.Get("windUnits"); ok {
			if u.Wind, err = windUnitsEnum.parse("windUnits", v); err != nil {
				return nil, err
			}
		}
		return nil, store.SetUnits(ctx, u)
	})

	d.RegisterConsole("query-archive-period", func(ctx context.Context, _ Arguments) (any, error) {
		period, err := store.ArchivePeriod(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]int{"period": period}, nil
	})

	d.RegisterConsole("update-archive-period", func(ctx context.Context, args Arguments) (any, error) {
		v, ok := args.Get("period")
		if !ok {
			return nil, protocol.NewError(protocol.ArgumentInvalid, "missing period argument")
		}
		minutes, err := strconv.Atoi(v)
		if err != nil {
			return nil, protocol.Newf(protocol.ArgumentInvalid, "period %q is not a number", v)
		}
		return nil, eng.SetArchivePeriod(ctx, minutes)
	})

	d.RegisterConsole("query-console-time", func(ctx context.Context, _ Arguments) (any, error) {
		t, err := eng.GetTime(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]string{"time": t.Format("2006-01-02 15:04:05")}, nil
	})

	d.RegisterConsole("backlight", func(ctx context.Context, args Arguments) (any, error) {
		v, ok := args.Get("state")
		if !ok {
			return nil, protocol.NewError(protocol.ArgumentInvalid, "missing state argument")
		}
		var on bool
		switch v {
		case "on":
			on = true
		case "off":
			on = false
		default:
			return nil, protocol.Newf(protocol.ArgumentInvalid, "invalid state %q", v)
		}
		return nil, eng.Backlight(ctx, on)
	})

	d.RegisterConsole("clear-archive", func(ctx context.Context, _ Arguments) (any, error) {
		return nil, eng.ClearArchive(ctx)
	})

	d.RegisterConsole("put-year-rain", func(ctx context.Context, args Arguments) (any, error) {
		clicks, err := parsePositiveInt(args, "value")
		if err != nil {
			return nil, err
		}
		return nil, eng.PutYearRain(ctx, uint16(clicks))
	})

	d.RegisterConsole("put-year-et", func(ctx context.Context, args Arguments) (any, error) {
		hundredths, err := parsePositiveInt(args, "value")
		if err != nil {
			return nil, err
		}
		return nil, eng.PutYearET(ctx, uint16(hundredths))
	})
}

func parsePositiveInt(args Arguments, key string) (int, error) {
	v, ok := args.Get(key)
	if !ok {
		return 0, protocol.Newf(protocol.ArgumentInvalid, "missing %s argument", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, protocol.Newf(protocol.ArgumentInvalid, "invalid %s value %q", key, v)
	}
	return n, nil
}
