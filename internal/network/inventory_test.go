package network

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeEEPROMParsesStationList(t *testing.T) {
	buf := make([]byte, stationListEEPROMSize)
	// Station 1 (index 0): integrated sensor station, repeater A, has
	// anemometer, humidity index 2, temperature index 3.
	buf[0] = byte(IntegratedSensorStation)
	buf[1] = byte(RepeaterA) | 0x80
	buf[2] = (2 << 4) | 3
	// Station 2 (index 1): unconfigured.
	buf[bytesPerStation] = byte(NoStation)

	inv := DecodeEEPROM(buf)
	require.Equal(t, IntegratedSensorStation, inv.Stations[0].Type)
	require.Equal(t, RepeaterA, inv.Stations[0].RepeaterID)
	require.True(t, inv.Stations[0].HasAnemometer)
	require.Equal(t, 2, inv.Stations[0].HumiditySensorIndex)
	require.Equal(t, 3, inv.Stations[0].TemperatureSensorIndex)
	require.Equal(t, 1, inv.Stations[0].Channel)

	require.Equal(t, NoStation, inv.Stations[1].Type)
}

func TestDecodeFullEEPROMSlicesStationListBlock(t *testing.T) {
	full := make([]byte, 4096)
	full[stationListEEPROMAddr] = byte(Anemometer)
	full[stationListEEPROMAddr+1] = byte(NoRepeater)
	full[stationListEEPROMAddr+2] = 0

	inv := DecodeFullEEPROM(full)
	require.Equal(t, Anemometer, inv.Stations[0].Type)
}

func TestDecodeFullEEPROMHandlesShortBuffer(t *testing.T) {
	inv := DecodeFullEEPROM(make([]byte, 4))
	require.Equal(t, NoStation, inv.Stations[0].Type)
}

func TestApplyReceiverMaskMarksHeardStations(t *testing.T) {
	inv := &Inventory{}
	inv.ApplyReceiverMask(0b00000101) // channels 1 and 3

	require.True(t, inv.Stations[0].Heard)
	require.False(t, inv.Stations[1].Heard)
	require.True(t, inv.Stations[2].Heard)
}

func TestSnapshotRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "network.msgpack")
	inv := &Inventory{}
	inv.Stations[0] = Station{Type: Anemometer, Channel: 1, HasAnemometer: true, LinkQuality: 95}

	require.NoError(t, SaveSnapshot(path, inv))
	got, err := LoadSnapshot(path)
	require.NoError(t, err)
	require.Equal(t, Anemometer, got.Stations[0].Type)
	require.Equal(t, 95, got.Stations[0].LinkQuality)
}

func TestStationTypeString(t *testing.T) {
	require.Equal(t, "anemometer", Anemometer.String())
	require.Equal(t, "unknown", StationType(42).String())
}
