package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/xzhiot/telemetry-replayer/internal/config"
	"github.com/xzhiot/telemetry-replayer/internal/models"
)

// ErrTimeout is returned when the broker does not acknowledge in time.
var ErrTimeout = errors.New("transport: operation timed out")

// Client is one device session with the message broker. A Client is owned
// by a single replay loop and is not safe for concurrent use.
type Client interface {
	// Connect opens the session, honoring ctx cancellation.
	Connect(ctx context.Context) error
	// Publish sends one message without retrying.
	Publish(ctx context.Context, topic string, payload []byte) error
	// Disconnect closes the session. It is safe to call when not connected.
	Disconnect()
}

// Factory creates the client for a device.
type Factory func(d *models.Device) (Client, error)

// NewFactory returns the factory for the configured transport.
func NewFactory(broker *config.BrokerConfig, nc *config.NATSConfig) (Factory, error) {
	switch broker.Transport {
	case "", "mqtt":
		tlsConfig, err := NewTLSConfig(&broker.TLS)
		if err != nil {
			return nil, err
		}
		return func(d *models.Device) (Client, error) {
			return NewMQTTClient(broker, tlsConfig, d), nil
		}, nil

	case "nats":
		return func(d *models.Device) (Client, error) {
			return NewNATSClient(nc, broker, d), nil
		}, nil

	default:
		return nil, fmt.Errorf("unsupported transport %q", broker.Transport)
	}
}
