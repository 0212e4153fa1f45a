// Package metrics registers the exported Dyson metric instruments and
// normalizes incoming device state updates onto them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every exported instrument. The set is created once at
// startup and never reshaped afterwards; only per-device values change.
// All instruments are labeled by device name and serial.
type Metrics struct {
	// Environmental sensors (v1 & v2 common)
	humidity    *prometheus.GaugeVec
	temperature *prometheus.GaugeVec
	voc         *prometheus.GaugeVec

	// Environmental sensors (v1 units only)
	dust *prometheus.GaugeVec

	// Environmental sensors (v2 units only)
	pm25 *prometheus.GaugeVec
	pm10 *prometheus.GaugeVec
	nox  *prometheus.GaugeVec

	// Operational state (v1 & v2 common)
	fanMode          *Enum
	fanPower         *Enum
	autoMode         *Enum
	fanState         *Enum
	fanSpeed         *prometheus.GaugeVec
	oscillation      *Enum
	oscillationState *Enum
	heatMode         *Enum
	heatState        *Enum
	heatTarget       *prometheus.GaugeVec

	// Operational state (v1 units only)
	focusMode     *Enum
	qualityTarget *prometheus.GaugeVec
	filterLife    *prometheus.GaugeVec

	// Operational state (v2 units only)
	continuousMonitoring *Enum
	carbonFilterLife     *prometheus.GaugeVec
	hepaFilterLife       *prometheus.GaugeVec
	nightMode            *Enum
	nightModeSpeed       *prometheus.GaugeVec
	oscillationAngleLow  *prometheus.GaugeVec
	oscillationAngleHigh *prometheus.GaugeVec
	frontDirection       *Enum
}

// New registers all instruments with reg and returns the registry
// object. Instrument values for a device identity are created implicitly
// on first write from that identity.
func New(reg prometheus.Registerer) *Metrics {
	labels := []string{"name", "serial"}

	gauge := func(name, help string) *prometheus.GaugeVec {
		return promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, labels)
	}

	return &Metrics{
		humidity:    gauge("dyson_humidity_percent", "Relative humidity (percentage)"),
		temperature: gauge("dyson_temperature_celsius", "Ambient temperature (celsius)"),
		voc:         gauge("dyson_volatile_organic_compounds_units", "Level of volatile organic compounds"),

		dust: gauge("dyson_dust_units", "Level of dust (V1 units only)"),

		pm25: gauge("dyson_pm25_units", "Level of PM2.5 particulate matter (V2 units only)"),
		pm10: gauge("dyson_pm10_units", "Level of PM10 particulate matter (V2 units only)"),
		nox:  gauge("dyson_nitrogen_oxide_units", "Level of nitrogen oxides (NOx, V2 units only)"),

		fanMode:  NewEnum(reg, "dyson_fan_mode", "Current mode of the fan", "AUTO", "FAN", "OFF"),
		fanPower: NewEnum(reg, "dyson_fan_power_mode", "Current power mode of the fan (like fan_mode but binary)", "ON", "OFF"),
		autoMode: NewEnum(reg, "dyson_fan_auto_mode", "Current auto mode of the fan (like fan_mode but binary)", "ON", "OFF"),
		fanState: NewEnum(reg, "dyson_fan_state", "Current running state of the fan", "FAN", "OFF"),
		fanSpeed: gauge("dyson_fan_speed_units", "Current speed of fan (-1 = AUTO)"),
		oscillation: NewEnum(reg, "dyson_oscillation_mode",
			"Current oscillation mode (will the fan move?)", "ON", "OFF"),
		oscillationState: NewEnum(reg, "dyson_oscillation_state",
			"Current oscillation state (is the fan moving?)", "ON", "OFF", "IDLE"),
		heatMode:   NewEnum(reg, "dyson_heat_mode", "Current heat mode", "HEAT", "OFF"),
		heatState:  NewEnum(reg, "dyson_heat_state", "Current heat state", "HEAT", "OFF"),
		heatTarget: gauge("dyson_heat_target_celsius", "Heat target temperature (celsius)"),

		focusMode:     NewEnum(reg, "dyson_focus_mode", "Current focus mode (V1 units only)", "ON", "OFF"),
		qualityTarget: gauge("dyson_quality_target_units", "Quality target for fan (V1 units only)"),
		filterLife:    gauge("dyson_filter_life_seconds", "Remaining HEPA filter life (seconds, V1 units only)"),

		continuousMonitoring: NewEnum(reg, "dyson_continuous_monitoring",
			"Monitor air quality continuously (V2 units only)", "ON", "OFF"),
		carbonFilterLife:     gauge("dyson_carbon_filter_life_percent", "Percent remaining of carbon filter (V2 units only)"),
		hepaFilterLife:       gauge("dyson_hepa_filter_life_percent", "Percent remaining of HEPA filter (V2 units only)"),
		nightMode:            NewEnum(reg, "dyson_night_mode", "Night mode (V2 units only)", "ON", "OFF"),
		nightModeSpeed:       gauge("dyson_night_mode_fan_speed_units", "Night mode fan speed (V2 units only)"),
		oscillationAngleLow:  gauge("dyson_oscillation_angle_low_degrees", "Low oscillation angle (V2 units only)"),
		oscillationAngleHigh: gauge("dyson_oscillation_angle_high_degrees", "High oscillation angle (V2 units only)"),
		frontDirection:       NewEnum(reg, "dyson_front_direction_mode", "Airflow direction from front (V2 units only)", "ON", "OFF"),
	}
}
