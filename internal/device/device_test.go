package device

import (
	"context"
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/nickrw/prometheus-dyson/internal/account"
	"github.com/nickrw/prometheus-dyson/internal/state"
)

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

type fakeToken struct {
	err  error
	done chan struct{}
}

func newFakeToken(err error) *fakeToken {
	done := make(chan struct{})
	close(done)
	return &fakeToken{err: err, done: done}
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

func testDevice() *Device {
	return New(account.Device{
		Name:         "Living room",
		Serial:       "NN2-EU-KKA0717A",
		ProductType:  state.ProductPureHotCoolLink,
		Active:       true,
		MQTTPassword: "hash",
	}, "192.168.1.101")
}

func TestHandleMessageDeliversParsedUpdate(t *testing.T) {
	d := testDevice()

	d.handleMessage(nil, fakeMessage{
		topic:   "455/NN2-EU-KKA0717A/status/current",
		payload: []byte(`{"msg":"ENVIRONMENTAL-CURRENT-SENSOR-DATA","data":{"hact":"0058","tact":"2962","pact":"0003","vact":"0004"}}`),
	})

	select {
	case msg := <-d.Events():
		env, ok := msg.(state.EnvironmentalV1)
		if !ok {
			t.Fatalf("message = %T, want EnvironmentalV1", msg)
		}
		if env.Humidity != 58 {
			t.Errorf("Humidity = %v, want 58", env.Humidity)
		}
	default:
		t.Fatal("no message delivered")
	}
}

func TestHandleMessageIgnoresUndecodablePayload(t *testing.T) {
	d := testDevice()

	d.handleMessage(nil, fakeMessage{
		topic:   "455/NN2-EU-KKA0717A/status/current",
		payload: []byte(`{"msg":"GOODBYE"}`),
	})

	select {
	case msg := <-d.Events():
		t.Fatalf("unexpected message %v for undecodable payload", msg)
	default:
	}
}

func TestHandleMessageDropsWhenQueueFull(t *testing.T) {
	d := testDevice()

	payload := []byte(`{"msg":"ENVIRONMENTAL-CURRENT-SENSOR-DATA","data":{"hact":"0058","tact":"2962"}}`)
	for i := 0; i < eventBuffer+5; i++ {
		d.handleMessage(nil, fakeMessage{payload: payload})
	}

	if got := len(d.events); got != eventBuffer {
		t.Errorf("queued events = %d, want %d", got, eventBuffer)
	}
}

func TestWait(t *testing.T) {
	sentinel := errors.New("token failed")

	tests := []struct {
		name    string
		token   paho.Token
		ctx     func() context.Context
		wantErr error
	}{
		{
			"completed ok",
			newFakeToken(nil),
			context.Background,
			nil,
		},
		{
			"completed with error",
			newFakeToken(sentinel),
			context.Background,
			sentinel,
		},
		{
			"context cancelled",
			&fakeToken{done: make(chan struct{})},
			func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			},
			context.Canceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := wait(tt.ctx(), tt.token)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("wait() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
