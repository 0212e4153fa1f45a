package metrics

import (
	"log/slog"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nickrw/prometheus-dyson/internal/state"
)

// Dyson reports temperatures against a slightly rounded absolute zero
// of -273.2 celsius rather than the textbook -273.15.
const kelvinOffset = 273.2

// Update receives one tagged state update and applies it to the
// instruments. It never returns an error: anomalies are logged and the
// affected field is skipped or defaulted. Safe for concurrent use from
// independent device delivery goroutines.
func (m *Metrics) Update(name, serial string, message state.Message) {
	if name == "" || serial == "" {
		slog.Error("update with missing identity", "name", name, "serial", serial)
	}

	slog.Debug("received update", "name", name, "serial", serial, "message", message)

	switch msg := message.(type) {
	case state.EnvironmentalV1:
		m.updateEnvironmentalV1(name, serial, msg)
	case state.EnvironmentalV2:
		m.updateEnvironmentalV2(name, serial, msg)
	case state.HotCoolV1:
		m.updateFanV1(name, serial, msg.FanV1)
		m.updateHeat(name, serial, msg.HeatMode, msg.HeatState, msg.HeatTarget)
		m.focusMode.Set(name, serial, msg.FocusMode)
	case state.FanV1:
		m.updateFanV1(name, serial, msg)
	case state.HotCoolV2:
		m.updateFanV2(name, serial, msg.FanV2)
		m.updateHeat(name, serial, msg.HeatMode, msg.HeatState, msg.HeatTarget)
	case state.FanV2:
		m.updateFanV2(name, serial, msg)
	default:
		slog.Warn("unknown update message; ignoring", "name", name, "serial", serial)
	}
}

func (m *Metrics) updateEnvironmentalCommon(name, serial string, humidity, temperature float64) {
	m.humidity.WithLabelValues(name, serial).Set(humidity)
	m.temperature.WithLabelValues(name, serial).Set(temperature - kelvinOffset)
}

func (m *Metrics) updateEnvironmentalV1(name, serial string, msg state.EnvironmentalV1) {
	m.updateEnvironmentalCommon(name, serial, msg.Humidity, msg.Temperature)
	m.dust.WithLabelValues(name, serial).Set(msg.Dust)
	m.voc.WithLabelValues(name, serial).Set(msg.VOC)
}

func (m *Metrics) updateEnvironmentalV2(name, serial string, msg state.EnvironmentalV2) {
	m.updateEnvironmentalCommon(name, serial, msg.Humidity, msg.Temperature)
	m.pm25.WithLabelValues(name, serial).Set(msg.PM25)
	m.pm10.WithLabelValues(name, serial).Set(msg.PM10)
	m.nox.WithLabelValues(name, serial).Set(msg.NitrogenDioxide)
	m.voc.WithLabelValues(name, serial).Set(msg.VOC)
}

func (m *Metrics) updateFanV1(name, serial string, msg state.FanV1) {
	m.fanMode.Set(name, serial, msg.FanMode)
	m.fanState.Set(name, serial, msg.FanState)
	m.setFanSpeed(name, serial, msg.Speed)
	m.oscillation.Set(name, serial, msg.Oscillation)
	m.setGauge(m.qualityTarget, name, serial, "quality_target", msg.QualityTarget)

	if hours, ok := parseNumber(name, serial, "filter_life", msg.FilterLife); ok {
		m.filterLife.WithLabelValues(name, serial).Set(hours * 3600)
	}

	// Synthesize the binary power/auto split the V2 schema reports
	// natively, so both metric families stay populated per device.
	auto, power := "OFF", "OFF"
	if msg.FanMode == "AUTO" {
		auto = "ON"
	}
	if msg.FanMode == "AUTO" || msg.FanMode == "FAN" {
		power = "ON"
	}
	m.autoMode.Set(name, serial, auto)
	m.fanPower.Set(name, serial, power)

	// V2 units report IDLE when configured to oscillate but paused in
	// auto mode; mirror that behaviour for V1 units.
	oscState := msg.Oscillation
	if msg.Oscillation == "ON" && msg.FanMode == "AUTO" && msg.FanState == "OFF" {
		oscState = "IDLE"
	}
	m.oscillationState.Set(name, serial, oscState)
}

func (m *Metrics) updateFanV2(name, serial string, msg state.FanV2) {
	// Derive the V1-compatible fan_mode from the V2 power/auto pair.
	fanMode := "OFF"
	switch {
	case msg.AutoMode == "ON":
		fanMode = "AUTO"
	case msg.FanPower == "ON":
		fanMode = "FAN"
	case msg.FanPower == "OFF":
		fanMode = "OFF"
	default:
		slog.Warn("unknown fan_power setting; defaulting",
			"name", name, "serial", serial, "fan_power", msg.FanPower, "fan_mode", fanMode)
	}
	m.fanMode.Set(name, serial, fanMode)
	m.fanPower.Set(name, serial, msg.FanPower)
	m.autoMode.Set(name, serial, msg.AutoMode)

	m.fanState.Set(name, serial, msg.FanState)
	m.setFanSpeed(name, serial, msg.Speed)

	m.continuousMonitoring.Set(name, serial, msg.ContinuousMonitoring)
	m.setGauge(m.carbonFilterLife, name, serial, "carbon_filter_state", msg.CarbonFilterState)
	m.setGauge(m.hepaFilterLife, name, serial, "hepa_filter_state", msg.HepaFilterState)

	m.nightMode.Set(name, serial, msg.NightMode)
	m.setGauge(m.nightModeSpeed, name, serial, "night_mode_speed", msg.NightModeSpeed)

	m.oscillation.Set(name, serial, msg.OscillationStatus)
	m.oscillationState.Set(name, serial, msg.OscillationStatus)
	m.setGauge(m.oscillationAngleLow, name, serial, "oscillation_angle_low", msg.OscillationAngleLow)
	m.setGauge(m.oscillationAngleHigh, name, serial, "oscillation_angle_high", msg.OscillationAngleHigh)

	m.frontDirection.Set(name, serial, msg.FrontDirection)
}

func (m *Metrics) updateHeat(name, serial, heatMode, heatState, heatTarget string) {
	m.heatMode.Set(name, serial, heatMode)
	m.heatState.Set(name, serial, heatState)

	// heat_target arrives in decikelvin, e.g. "2932" for 20.0 celsius.
	if raw, ok := parseNumber(name, serial, "heat_target", heatTarget); ok {
		m.heatTarget.WithLabelValues(name, serial).Set(raw/10 - kelvinOffset)
	}
}

// setFanSpeed handles the one non-numeric speed value: devices report
// the literal "AUTO" while in automatic mode, exported as -1.
func (m *Metrics) setFanSpeed(name, serial, speed string) {
	if speed == "AUTO" {
		m.fanSpeed.WithLabelValues(name, serial).Set(-1)
		return
	}
	m.setGauge(m.fanSpeed, name, serial, "speed", speed)
}

func (m *Metrics) setGauge(g *prometheus.GaugeVec, name, serial, field, raw string) {
	if v, ok := parseNumber(name, serial, field, raw); ok {
		g.WithLabelValues(name, serial).Set(v)
	}
}

func parseNumber(name, serial, field, raw string) (float64, bool) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		slog.Warn("non-numeric field value; skipping",
			"name", name, "serial", serial, "field", field, "value", raw)
		return 0, false
	}
	return v, true
}
