// Package monitor discovers the account's devices, connects to each and
// feeds their state updates to a single dispatch function.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nickrw/prometheus-dyson/internal/account"
	"github.com/nickrw/prometheus-dyson/internal/device"
	"github.com/nickrw/prometheus-dyson/internal/state"
)

// UpdateFunc receives every state update, tagged with the identity of
// the device that produced it.
type UpdateFunc func(name, serial string, message state.Message)

// event pairs an update with its device identity on the shared queue.
type event struct {
	name    string
	serial  string
	message state.Message
}

// Monitor owns the device connections. Updates from all devices funnel
// through one channel and one consumer goroutine, so dispatch calls for
// a single device are serialized in arrival order.
type Monitor struct {
	client  *account.Client
	hosts   map[string]string // serial (lowercased) -> MQTT host override
	events  chan event
	devices []*device.Device
}

// New creates a monitor over an account client. hosts maps device
// serials to MQTT hosts for devices that cannot be reached by their
// default .local name.
func New(client *account.Client, hosts map[string]string) *Monitor {
	normalized := make(map[string]string, len(hosts))
	for serial, host := range hosts {
		normalized[strings.ToLower(serial)] = host
	}
	return &Monitor{
		client: client,
		hosts:  normalized,
		events: make(chan event, 64),
	}
}

// Login authenticates the account session. Failure is fatal to the run:
// without a session no devices can be monitored.
func (m *Monitor) Login(ctx context.Context) error {
	if err := m.client.Login(ctx); err != nil {
		slog.Error("could not login to Dyson account", "error", err)
		return err
	}
	return nil
}

// Monitor enumerates the account's devices and connects to each one.
// Devices not flagged active are skipped when onlyActive is set. A
// single device failing to connect is logged and skipped; it does not
// abort the run. On success the consumer loop is started and dispatch
// receives each device's current state followed by all future change
// events.
func (m *Monitor) Monitor(ctx context.Context, dispatch UpdateFunc, onlyActive bool) error {
	devices, err := m.client.Devices(ctx)
	if err != nil {
		return fmt.Errorf("listing devices: %w", err)
	}

	for _, d := range devices {
		if onlyActive && !d.Active {
			slog.Info("found device but it is not active; skipping",
				"name", d.Name, "serial", d.Serial)
			continue
		}
		if !state.KnownProduct(d.ProductType) {
			slog.Warn("found device with unsupported product type; skipping",
				"name", d.Name, "serial", d.Serial, "product_type", d.ProductType)
			continue
		}

		dev := device.New(d, m.hostFor(d.Serial))
		if err := dev.Connect(ctx); err != nil {
			slog.Error("could not connect to device; skipping",
				"name", d.Name, "serial", d.Serial, "error", err)
			continue
		}

		slog.Info("monitoring device", "name", d.Name, "serial", d.Serial,
			"product_type", d.ProductType)
		m.devices = append(m.devices, dev)
		go m.forward(dev)
	}

	if len(m.devices) == 0 {
		slog.Warn("no devices connected; nothing to monitor")
	}

	go m.consume(ctx, dispatch)
	return nil
}

// hostFor resolves the MQTT host for a serial: the configured override
// if present, otherwise the device's default mDNS name.
func (m *Monitor) hostFor(serial string) string {
	if host, ok := m.hosts[strings.ToLower(serial)]; ok {
		return host
	}
	return fmt.Sprintf("%s.local", serial)
}

// forward moves one device's updates onto the shared queue, tagged with
// its identity. It exits when the device's event stream closes.
func (m *Monitor) forward(dev *device.Device) {
	for msg := range dev.Events() {
		m.events <- event{name: dev.Name, serial: dev.Serial, message: msg}
	}
}

// consume is the single consumer loop invoking dispatch.
func (m *Monitor) consume(ctx context.Context, dispatch UpdateFunc) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-m.events:
			dispatch(ev.name, ev.serial, ev.message)
		}
	}
}

// Close disconnects every monitored device.
func (m *Monitor) Close() {
	for _, dev := range m.devices {
		dev.Close()
	}
}
