package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/xzhiot/telemetry-replayer/internal/config"
	"github.com/xzhiot/telemetry-replayer/internal/models"
)

// MQTTClient publishes device telemetry through an MQTT broker
type MQTTClient struct {
	client         mqtt.Client
	qos            byte
	connectTimeout time.Duration
	publishTimeout time.Duration
}

// NewMQTTClient creates an unconnected MQTT client for the device
func NewMQTTClient(broker *config.BrokerConfig, tlsConfig *tls.Config, d *models.Device) *MQTTClient {
	c := &MQTTClient{
		client:         mqtt.NewClient(newClientOptions(broker, tlsConfig, d)),
		qos:            broker.QoS,
		connectTimeout: broker.ConnectTimeout,
		publishTimeout: broker.PublishTimeout,
	}
	if c.connectTimeout <= 0 {
		c.connectTimeout = 10 * time.Second
	}
	if c.publishTimeout <= 0 {
		c.publishTimeout = 5 * time.Second
	}
	return c
}

func newClientOptions(broker *config.BrokerConfig, tlsConfig *tls.Config, d *models.Device) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker.BrokerURL())
	opts.SetClientID(d.ClientID)

	if d.Principal != "" {
		opts.SetUsername(d.Principal)
		opts.SetPassword(d.Secret)
	}

	if tlsConfig != nil {
		opts.SetTLSConfig(tlsConfig)
	}

	// The replay loop owns the initial connect backoff; once connected
	// the library keeps the session alive.
	opts.SetConnectRetry(false)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(broker.ConnectTimeout)
	opts.SetKeepAlive(broker.KeepAlive)
	opts.SetCleanSession(true)

	opts.SetOnConnectHandler(func(client mqtt.Client) {
		log.Debug().
			Str("zone", d.Zone).
			Str("device", d.Name).
			Msg("MQTT client connected")
	})

	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.Warn().
			Err(err).
			Str("zone", d.Zone).
			Str("device", d.Name).
			Msg("MQTT connection lost")
	})

	return opts
}

// Connect dials the broker and waits for the CONNACK
func (c *MQTTClient) Connect(ctx context.Context) error {
	token := c.client.Connect()

	timer := time.NewTimer(c.connectTimeout)
	defer timer.Stop()

	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("mqtt connect: %w", ErrTimeout)
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

// Publish sends payload to topic and waits for the broker acknowledgement
// at the configured QoS.
func (c *MQTTClient) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	token := c.client.Publish(topic, c.qos, false, payload)
	if !token.WaitTimeout(c.publishTimeout) {
		return fmt.Errorf("mqtt publish to %s: %w", topic, ErrTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish to %s: %w", topic, err)
	}
	return nil
}

// Disconnect closes the session, waiting briefly for in-flight work
func (c *MQTTClient) Disconnect() {
	if c.client.IsConnected() {
		c.client.Disconnect(250)
	}
}
