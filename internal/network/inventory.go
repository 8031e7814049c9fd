package network

import (
	"os"

	"github.com/vmihailenco/msgpack/v5"
)

// NumStations is the number of wireless sensor-station slots a
// Vantage console tracks (8 transmitter channels).
const NumStations = 8

// stationListEEPROMAddr is EE_STATION_LIST_ADDRESS. The per-station
// byte layout within that block isn't preserved in any documentation
// available to this module, so the packing below is this module's own
// scheme rather than a literal wire decode: 3 bytes per station — a
// full StationType byte, a "repeaterId|hasAnemometer<<7" byte, and a
// "(humidityIndex<<4)|temperatureIndex" index byte. A real console's
// GETEE dump would need to be reverse-engineered against this to
// confirm the scheme; see DESIGN.md.
const (
	stationListEEPROMAddr = 0x19
	bytesPerStation       = 3
	stationListEEPROMSize = NumStations * bytesPerStation
)

// Inventory is the console's full 8-slot station network: which
// stations are configured (from EEPROM) and which are actually being
// heard on the air (from RECEIVERS).
type Inventory struct {
	Stations [NumStations]Station
}

// DecodeEEPROM parses the station-list block (see the layout note
// above) into an Inventory. A slot's type byte is taken as-is, so an
// unconfigured slot carries NoStation (10); a zero byte is
// IntegratedSensorStation. Slots past the end of buf decode to
// StationType NoStation.
func DecodeEEPROM(buf []byte) *Inventory {
	inv := &Inventory{}
	for i := 0; i < NumStations; i++ {
		inv.Stations[i].Channel = i + 1
		off := i * bytesPerStation
		if off+bytesPerStation > len(buf) {
			inv.Stations[i].Type = NoStation
			continue
		}
		inv.Stations[i].Type = StationType(buf[off])
		repeaterByte := buf[off+1]
		inv.Stations[i].RepeaterID = RepeaterID(repeaterByte & 0x7F)
		inv.Stations[i].HasAnemometer = repeaterByte&0x80 != 0

		idx := buf[off+2]
		inv.Stations[i].HumiditySensorIndex = int(idx >> 4)
		inv.Stations[i].TemperatureSensorIndex = int(idx & 0x0F)
	}
	return inv
}

// DecodeFullEEPROM slices the station-list block out of a full 4096-byte
// GETEE dump at EE_STATION_LIST_ADDRESS and decodes it, for callers
// that hold the whole dump rather than a pre-sliced block.
func DecodeFullEEPROM(full []byte) *Inventory {
	end := stationListEEPROMAddr + stationListEEPROMSize
	if end > len(full) {
		end = len(full)
	}
	if stationListEEPROMAddr >= end {
		return DecodeEEPROM(nil)
	}
	return DecodeEEPROM(full[stationListEEPROMAddr:end])
}

// ApplyReceiverMask marks each station slot heard according to the
// RECEIVERS command's bitmask (bit i set means channel i+1 is heard).
func (inv *Inventory) ApplyReceiverMask(mask byte) {
	for i := 0; i < NumStations; i++ {
		inv.Stations[i].Heard = mask&(1<<uint(i)) != 0
	}
}

// SaveSnapshot persists the inventory to path as msgpack, the format
// spec.md leaves unspecified for this on-disk model.
func SaveSnapshot(path string, inv *Inventory) error {
	data, err := msgpack.Marshal(inv)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadSnapshot restores a previously saved inventory snapshot.
func LoadSnapshot(path string) (*Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var inv Inventory
	if err := msgpack.Unmarshal(data, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}
