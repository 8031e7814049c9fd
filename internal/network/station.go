// Package network models the console's sensor station network: which
// wireless transmitter channels are heard, and the EEPROM-configured
// station list describing each one's type, repeater, and extra
// sensor index assignments. Grounded on
// original_source/source/vp2/SensorStation.h.
package network

// StationType mirrors the Vantage serial protocol's sensor station
// type enum (the integer values are the wire values, not arbitrary).
type StationType int

const (
	IntegratedSensorStation StationType = 0
	TemperatureOnly         StationType = 1
	HumidityOnly            StationType = 2
	TemperatureHumidity     StationType = 3
	Anemometer              StationType = 4
	Rain                    StationType = 5
	Leaf                    StationType = 6
	Soil                    StationType = 7
	SoilLeaf                StationType = 8
	NoStation               StationType = 10
	UnknownStation          StationType = 99
)

var stationTypeNames = map[StationType]string{
	IntegratedSensorStation: "integrated sensor station",
	TemperatureOnly:         "temperature only",
	HumidityOnly:            "humidity only",
	TemperatureHumidity:     "temperature/humidity",
	Anemometer:              "anemometer",
	Rain:                    "rain",
	Leaf:                    "leaf",
	Soil:                    "soil",
	SoilLeaf:                "soil/leaf",
	NoStation:               "no station",
	UnknownStation:          "unknown",
}

func (t StationType) String() string {
	if s, ok := stationTypeNames[t]; ok {
		return s
	}
	return "unknown"
}

// RepeaterID mirrors the wire-level repeater channel encoding; zero
// means the station transmits directly with no repeater.
type RepeaterID int

const (
	NoRepeater RepeaterID = 0
	RepeaterA  RepeaterID = 8
	RepeaterB  RepeaterID = 9
	RepeaterC  RepeaterID = 10
	RepeaterD  RepeaterID = 11
	RepeaterE  RepeaterID = 12
	RepeaterF  RepeaterID = 13
	RepeaterG  RepeaterID = 14
	RepeaterH  RepeaterID = 15
)

// NoLinkQuality marks a station for which link quality isn't tracked
// (only an ISS or anemometer station reports it).
const NoLinkQuality = 999

// Station is one entry in the console's 8-slot station list.
type Station struct {
	Type                   StationType `msgpack:"type"`
	Channel                int         `msgpack:"channel"` // 1-8
	RepeaterID             RepeaterID  `msgpack:"repeater_id"`
	HasAnemometer          bool        `msgpack:"has_anemometer"`
	HumiditySensorIndex    int         `msgpack:"humidity_sensor_index"`    // 1-8, 0 if unassigned
	TemperatureSensorIndex int         `msgpack:"temperature_sensor_index"` // 0-7, 0 if unassigned
	BatteryGood            bool        `msgpack:"battery_good"`
	LinkQuality            int         `msgpack:"link_quality"`
	Heard                  bool        `msgpack:"heard"` // set from the RECEIVERS bitmask
}
