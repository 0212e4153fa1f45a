package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Message discriminators used on the device status topic.
const (
	msgCurrentState  = "CURRENT-STATE"
	msgStateChange   = "STATE-CHANGE"
	msgEnvironmental = "ENVIRONMENTAL-CURRENT-SENSOR-DATA"
)

// ErrUnknownMessage is returned when a payload's msg discriminator does
// not match any supported schema.
var ErrUnknownMessage = errors.New("unknown message type")

type envelope struct {
	Msg          string                     `json:"msg"`
	ProductState map[string]json.RawMessage `json:"product-state"`
	Data         map[string]json.RawMessage `json:"data"`
}

// Parse decodes a raw status payload from a device of the given product
// type into the matching Message variant.
func Parse(productType string, payload []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("decoding status payload: %w", err)
	}

	switch env.Msg {
	case msgCurrentState, msgStateChange:
		if IsV2(productType) {
			return parseFanV2(productType, env.ProductState)
		}
		return parseFanV1(productType, env.ProductState)
	case msgEnvironmental:
		if IsV2(productType) {
			return parseEnvironmentalV2(env.Data)
		}
		return parseEnvironmentalV1(env.Data)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, env.Msg)
}

// field extracts a named value from a product-state or data object.
// CURRENT-STATE reports plain strings; STATE-CHANGE reports [old, new]
// pairs, of which the new value is wanted.
func field(obj map[string]json.RawMessage, key string) string {
	raw, ok := obj[key]
	if !ok {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var pair []string
	if err := json.Unmarshal(raw, &pair); err == nil && len(pair) > 0 {
		return pair[len(pair)-1]
	}
	return ""
}

// number parses a sensor reading. Devices pad readings with leading
// zeros ("0058") and report non-numeric placeholders (e.g. "INIT")
// while a sensor is warming up; those read as zero.
func number(obj map[string]json.RawMessage, key string) float64 {
	v, err := strconv.ParseFloat(field(obj, key), 64)
	if err != nil {
		return 0
	}
	return v
}

func parseEnvironmentalV1(data map[string]json.RawMessage) (Message, error) {
	if data == nil {
		return nil, errors.New("environmental payload missing data object")
	}
	return EnvironmentalV1{
		Humidity:    number(data, "hact"),
		Temperature: number(data, "tact") / 10, // wire format is decikelvin
		Dust:        number(data, "pact"),
		VOC:         number(data, "vact"),
	}, nil
}

func parseEnvironmentalV2(data map[string]json.RawMessage) (Message, error) {
	if data == nil {
		return nil, errors.New("environmental payload missing data object")
	}
	return EnvironmentalV2{
		Humidity:        number(data, "hact"),
		Temperature:     number(data, "tact") / 10,
		PM25:            number(data, "pm25"),
		PM10:            number(data, "pm10"),
		NitrogenDioxide: number(data, "noxl"),
		VOC:             number(data, "va10"),
	}, nil
}

func parseFanV1(productType string, ps map[string]json.RawMessage) (Message, error) {
	if ps == nil {
		return nil, errors.New("state payload missing product-state object")
	}
	fan := FanV1{
		FanMode:       field(ps, "fmod"),
		FanState:      field(ps, "fnst"),
		Speed:         field(ps, "fnsp"),
		Oscillation:   field(ps, "oson"),
		QualityTarget: field(ps, "qtar"),
		FilterLife:    field(ps, "filf"),
	}
	if !HasHeating(productType) {
		return fan, nil
	}
	return HotCoolV1{
		FanV1:      fan,
		HeatMode:   field(ps, "hmod"),
		HeatState:  field(ps, "hsta"),
		HeatTarget: field(ps, "hmax"),
		FocusMode:  field(ps, "ffoc"),
	}, nil
}

func parseFanV2(productType string, ps map[string]json.RawMessage) (Message, error) {
	if ps == nil {
		return nil, errors.New("state payload missing product-state object")
	}
	fan := FanV2{
		FanPower:             field(ps, "fpwr"),
		AutoMode:             field(ps, "auto"),
		FanState:             field(ps, "fnst"),
		Speed:                field(ps, "fnsp"),
		ContinuousMonitoring: field(ps, "rhtm"),
		CarbonFilterState:    field(ps, "cflr"),
		HepaFilterState:      field(ps, "hflr"),
		NightMode:            field(ps, "nmod"),
		NightModeSpeed:       field(ps, "nmdv"),
		OscillationStatus:    field(ps, "oscs"),
		OscillationAngleLow:  field(ps, "osal"),
		OscillationAngleHigh: field(ps, "osau"),
		FrontDirection:       field(ps, "fdir"),
	}
	if !HasHeating(productType) {
		return fan, nil
	}
	return HotCoolV2{
		FanV2:      fan,
		HeatMode:   field(ps, "hmod"),
		HeatState:  field(ps, "hsta"),
		HeatTarget: field(ps, "hmax"),
	}, nil
}
