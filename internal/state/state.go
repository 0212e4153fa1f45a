// Package state defines the device state messages published by Dyson
// fans and purifiers, one type per protocol schema, plus the parsing of
// raw MQTT payloads into those types.
package state

// Message is the closed set of state updates a device can report. A
// consumer switches over the concrete type; there are exactly six
// shapes, mirroring the two protocol generations and the heater-equipped
// subtypes.
type Message interface {
	isMessage()
}

// EnvironmentalV1 carries the ambient sensor readings of a first
// generation (Pure Cool/Hot+Cool Link) device.
type EnvironmentalV1 struct {
	Humidity    float64 // relative humidity, percent
	Temperature float64 // kelvin
	Dust        float64
	VOC         float64
}

// EnvironmentalV2 carries the ambient sensor readings of a second
// generation device.
type EnvironmentalV2 struct {
	Humidity        float64 // relative humidity, percent
	Temperature     float64 // kelvin
	PM25            float64
	PM10            float64
	NitrogenDioxide float64
	VOC             float64
}

// FanV1 is the operational state of a first generation cooling-only fan.
// Values are kept verbatim as reported; unit handling is the consumer's
// concern.
type FanV1 struct {
	FanMode       string // AUTO, FAN, OFF
	FanState      string // FAN, OFF
	Speed         string // "0001".."0010" or "AUTO"
	Oscillation   string // ON, OFF
	QualityTarget string
	FilterLife    string // hours remaining
}

// HotCoolV1 is the operational state of a first generation Hot+Cool
// device: FanV1 plus the heating fields.
type HotCoolV1 struct {
	FanV1
	HeatMode   string // HEAT, OFF
	HeatState  string // HEAT, OFF
	HeatTarget string // decikelvin
	FocusMode  string // ON, OFF
}

// FanV2 is the operational state of a second generation cooling-only
// device.
type FanV2 struct {
	FanPower             string // ON, OFF
	AutoMode             string // ON, OFF
	FanState             string // FAN, OFF
	Speed                string // "0001".."0010" or "AUTO"
	ContinuousMonitoring string // ON, OFF
	CarbonFilterState    string // percent remaining
	HepaFilterState      string // percent remaining
	NightMode            string // ON, OFF
	NightModeSpeed       string
	OscillationStatus    string // ON, OFF, IDLE
	OscillationAngleLow  string // degrees
	OscillationAngleHigh string // degrees
	FrontDirection       string // ON, OFF
}

// HotCoolV2 is the operational state of a second generation Hot+Cool
// device: FanV2 plus the heating fields.
type HotCoolV2 struct {
	FanV2
	HeatMode   string // HEAT, OFF
	HeatState  string // HEAT, OFF
	HeatTarget string // decikelvin
}

func (EnvironmentalV1) isMessage() {}
func (EnvironmentalV2) isMessage() {}
func (FanV1) isMessage()           {}
func (HotCoolV1) isMessage()       {}
func (FanV2) isMessage()           {}
func (HotCoolV2) isMessage()       {}
