package metrics

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Enum is an enumerated-state indicator: a metric holding exactly one
// active value from a fixed finite set of states per device. It is
// exported as a gauge with one series per state, where the active state
// carries 1 and every other state 0, matching the exposition produced by
// the Python prometheus client's Enum type (the state label key is the
// metric name itself).
type Enum struct {
	name   string
	states []string
	vec    *prometheus.GaugeVec
}

// NewEnum registers an enumerated-state indicator with the given
// registry. The state set is fixed for the process lifetime.
func NewEnum(reg prometheus.Registerer, name, help string, states ...string) *Enum {
	return &Enum{
		name:   name,
		states: states,
		vec: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{Name: name, Help: help},
			[]string{"name", "serial", name},
		),
	}
}

// Set marks state as the active value for the device identified by name
// and serial. A value outside the state set is logged and skipped; the
// previously active state, if any, is left in place.
func (e *Enum) Set(name, serial, state string) {
	if !e.valid(state) {
		slog.Warn("enum value outside known states; skipping",
			"metric", e.name, "name", name, "serial", serial, "state", state)
		return
	}
	for _, s := range e.states {
		v := 0.0
		if s == state {
			v = 1.0
		}
		e.vec.WithLabelValues(name, serial, s).Set(v)
	}
}

func (e *Enum) valid(state string) bool {
	for _, s := range e.states {
		if s == state {
			return true
		}
	}
	return false
}
