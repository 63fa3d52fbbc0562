package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "replayer.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)

	assert.Equal(t, "datasets", cfg.Replay.DataDir)
	assert.Equal(t, 1.0, cfg.Replay.SpeedFactor)
	assert.Equal(t, 0.05, cfg.Replay.MinInterval)
	assert.Equal(t, "factory", cfg.Replay.Tenant)
	assert.Equal(t, 5*time.Second, cfg.Replay.RetryInterval)
	assert.Equal(t, "mqtt", cfg.Broker.Transport)
	assert.Equal(t, "tcp://localhost:1883", cfg.Broker.BrokerURL())
	assert.Equal(t, 60*time.Second, cfg.Broker.KeepAlive)
	assert.Equal(t, -1, cfg.NATS.MaxReconnects)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.False(t, cfg.API.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
replay:
  data_dir: /srv/logs
  speed_factor: 4
  min_interval: 0.2
  zones: [office, security]
  retry_interval: 1s
broker:
  host: emqx
  qos: 1
  tls:
    enabled: true
    ca_file: certs/ca-cert.pem
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/logs", cfg.Replay.DataDir)
	assert.Equal(t, 4.0, cfg.Replay.SpeedFactor)
	assert.Equal(t, 0.2, cfg.Replay.MinInterval)
	assert.Equal(t, []string{"office", "security"}, cfg.Replay.Zones)
	assert.Equal(t, time.Second, cfg.Replay.RetryInterval)
	assert.Equal(t, byte(1), cfg.Broker.QoS)
	assert.Equal(t, "ssl://emqx:8883", cfg.Broker.BrokerURL())
	assert.Equal(t, "json", cfg.Log.Format)
	require.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BROKER_HOST", "broker.internal")
	t.Setenv("BROKER_PORT", "2883")
	t.Setenv("NATS_URL", "nats://nats:4222")
	t.Setenv("DATABASE_URL", "postgres://replayer@db/replayer")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("REPLAY_DATA_DIR", "/data")
	t.Setenv("REPLAY_SPEED_FACTOR", "2.5")

	cfg, err := Load(writeConfig(t, "broker:\n  host: ignored\n"))
	require.NoError(t, err)

	assert.Equal(t, "tcp://broker.internal:2883", cfg.Broker.BrokerURL())
	assert.Equal(t, "nats://nats:4222", cfg.NATS.URL)
	assert.Equal(t, "postgres://replayer@db/replayer", cfg.Database.DSN)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "/data", cfg.Replay.DataDir)
	assert.Equal(t, 2.5, cfg.Replay.SpeedFactor)
}

func TestLoad_InvalidEnvIgnored(t *testing.T) {
	t.Setenv("BROKER_PORT", "not-a-port")
	t.Setenv("REPLAY_SPEED_FACTOR", "fast")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	assert.Equal(t, 1883, cfg.Broker.Port)
	assert.Equal(t, 1.0, cfg.Replay.SpeedFactor)
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "replay: [unclosed"))
	assert.ErrorContains(t, err, "unmarshal config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"transport", func(c *Config) { c.Broker.Transport = "amqp" }, "Broker.Transport"},
		{"port", func(c *Config) { c.Broker.Port = 70000 }, "Broker.Port"},
		{"qos", func(c *Config) { c.Broker.QoS = 3 }, "Broker.QoS"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "Log.Format"},
		{"negative floor", func(c *Config) { c.Replay.MinInterval = -1 }, "Replay.MinInterval"},
		{"api secret", func(c *Config) { c.API.Enabled = true; c.Admin.PasswordHash = "x" }, "jwt.secret"},
		{"api admin", func(c *Config) { c.API.Enabled = true; c.JWT.Secret = "x" }, "admin.password_hash"},
		{"api plain password", func(c *Config) { c.API.Enabled = true; c.JWT.Secret = "x"; c.Admin.PasswordHash = "hunter2" }, "not a bcrypt hash"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
			require.NoError(t, err)

			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestParseZones(t *testing.T) {
	assert.Nil(t, ParseZones(""))
	assert.Equal(t, []string{"office", "storage"}, ParseZones(" office,, storage "))
}
