package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/xzhiot/telemetry-replayer/internal/config"
	"github.com/xzhiot/telemetry-replayer/internal/models"
)

// NATSClient publishes device telemetry as NATS messages
type NATSClient struct {
	cfg    *config.NATSConfig
	broker *config.BrokerConfig
	device *models.Device
	nc     *nats.Conn
}

// NewNATSClient creates an unconnected NATS client for the device
func NewNATSClient(cfg *config.NATSConfig, broker *config.BrokerConfig, d *models.Device) *NATSClient {
	return &NATSClient{cfg: cfg, broker: broker, device: d}
}

// Subject maps a slash separated topic onto a NATS subject.
func Subject(topic string) string {
	return strings.ReplaceAll(strings.Trim(topic, "/"), "/", ".")
}

func (c *NATSClient) options() []nats.Option {
	d := c.device

	user, password := c.cfg.Username, c.cfg.Password
	if d.Principal != "" && d.Secret != "" {
		user, password = d.Principal, d.Secret
	}

	opts := []nats.Option{
		nats.Name(d.ClientID),
		nats.ReconnectWait(c.cfg.ReconnectInterval),
		nats.MaxReconnects(c.cfg.MaxReconnects),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn().Err(err).Str("zone", d.Zone).Str("device", d.Name).Msg("Disconnected from NATS")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("zone", d.Zone).Str("device", d.Name).Msg("Reconnected to NATS")
		}),
	}
	if user != "" {
		opts = append(opts, nats.UserInfo(user, password))
	}
	if c.broker != nil && c.broker.ConnectTimeout > 0 {
		opts = append(opts, nats.Timeout(c.broker.ConnectTimeout))
	}
	return opts
}

// Connect dials the NATS server
func (c *NATSClient) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	nc, err := nats.Connect(c.cfg.URL, c.options()...)
	if err != nil {
		return fmt.Errorf("nats connect: %w", err)
	}
	c.nc = nc
	return nil
}

// Publish sends payload on the subject derived from topic
func (c *NATSClient) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.nc == nil {
		return fmt.Errorf("nats publish: %w", nats.ErrConnectionClosed)
	}

	if err := c.nc.Publish(Subject(topic), payload); err != nil {
		return fmt.Errorf("nats publish to %s: %w", Subject(topic), err)
	}
	return nil
}

// Disconnect drains and closes the connection
func (c *NATSClient) Disconnect() {
	if c.nc == nil {
		return
	}
	if err := c.nc.Drain(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		c.nc.Close()
	}
	c.nc = nil
}
