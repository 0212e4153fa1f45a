// Package device maintains the MQTT connection to a single Dyson
// appliance and delivers its parsed state updates.
package device

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/nickrw/prometheus-dyson/internal/account"
	"github.com/nickrw/prometheus-dyson/internal/state"
)

const (
	mqttPort       = 1883
	connectTimeout = 10 * time.Second

	// eventBuffer bounds the per-device queue of undelivered updates.
	// Devices publish at most every few seconds; the consumer applies
	// updates in microseconds, so overflow means the consumer is gone.
	eventBuffer = 16
)

// Device is a live connection to one appliance. Updates parsed from its
// status topic are delivered on Events, in arrival order.
type Device struct {
	Name        string
	Serial      string
	ProductType string

	host     string
	password string
	client   paho.Client
	events   chan state.Message
}

// New prepares a device handle from its manifest entry and the MQTT host
// to reach it on. No connection is made until Connect.
func New(d account.Device, host string) *Device {
	return &Device{
		Name:        d.Name,
		Serial:      d.Serial,
		ProductType: d.ProductType,
		host:        host,
		password:    d.MQTTPassword,
		events:      make(chan state.Message, eventBuffer),
	}
}

// Events is the stream of state updates from this device. The first
// messages after a successful Connect are the device's current state,
// requested during connection setup.
func (d *Device) Events() <-chan state.Message {
	return d.events
}

// Connect dials the device's MQTT listener, subscribes to its status
// topic and requests the current state so consumers see an initial
// update without waiting for the next change event.
func (d *Device) Connect(ctx context.Context) error {
	opts := paho.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", d.host, mqttPort)).
		SetClientID(fmt.Sprintf("prometheus-dyson-%s", d.Serial)).
		SetUsername(d.Serial).
		SetPassword(d.password).
		SetConnectTimeout(connectTimeout).
		SetOrderMatters(true)

	client := paho.NewClient(opts)
	if err := wait(ctx, client.Connect()); err != nil {
		return fmt.Errorf("connecting to %s: %w", d.host, err)
	}

	statusTopic := fmt.Sprintf("%s/%s/status/current", d.ProductType, d.Serial)
	if err := wait(ctx, client.Subscribe(statusTopic, 0, d.handleMessage)); err != nil {
		client.Disconnect(0)
		return fmt.Errorf("subscribing to %s: %w", statusTopic, err)
	}

	d.client = client
	if err := d.requestCurrentState(ctx); err != nil {
		slog.Warn("could not request current state; waiting for next change event",
			"name", d.Name, "serial", d.Serial, "error", err)
	}
	return nil
}

// requestCurrentState asks the device to republish its full state on the
// status topic.
func (d *Device) requestCurrentState(ctx context.Context) error {
	payload, err := json.Marshal(map[string]string{
		"msg":  "REQUEST-CURRENT-STATE",
		"time": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	commandTopic := fmt.Sprintf("%s/%s/command", d.ProductType, d.Serial)
	return wait(ctx, d.client.Publish(commandTopic, 1, false, payload))
}

func (d *Device) handleMessage(_ paho.Client, m paho.Message) {
	msg, err := state.Parse(d.ProductType, m.Payload())
	if err != nil {
		slog.Warn("undecodable status payload; ignoring",
			"name", d.Name, "serial", d.Serial, "topic", m.Topic(), "error", err)
		return
	}

	select {
	case d.events <- msg:
	default:
		slog.Warn("event queue full; dropping update", "name", d.Name, "serial", d.Serial)
	}
}

// Close tears down the MQTT connection and the event stream.
func (d *Device) Close() {
	if d.client != nil {
		d.client.Disconnect(250)
	}
	close(d.events)
}

// wait blocks on a paho token, honouring context cancellation.
func wait(ctx context.Context, token paho.Token) error {
	done := token.Done()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return token.Error()
	}
}
