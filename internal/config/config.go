package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"gopkg.in/yaml.v3"

	"github.com/xzhiot/telemetry-replayer/internal/validation"
	"github.com/xzhiot/telemetry-replayer/pkg/crypto"
)

// Config represents the application configuration
type Config struct {
	Replay   ReplayConfig   `yaml:"replay"`
	Broker   BrokerConfig   `yaml:"broker"`
	NATS     NATSConfig     `yaml:"nats"`
	Registry RegistryConfig `yaml:"registry"`
	Database DatabaseConfig `yaml:"database"`
	API      APIConfig      `yaml:"api"`
	JWT      JWTConfig      `yaml:"jwt"`
	Admin    AdminConfig    `yaml:"admin"`
	Log      LogConfig      `yaml:"log"`
}

// ReplayConfig controls how recorded telemetry is replayed
type ReplayConfig struct {
	DataDir string `yaml:"data_dir" validate:"required"`
	// SpeedFactor divides every recorded delay; 2 replays twice as fast.
	SpeedFactor float64 `yaml:"speed_factor"`
	// MinInterval is the smallest delay between rows, in seconds.
	MinInterval   float64       `yaml:"min_interval" validate:"min=0"`
	Zones         []string      `yaml:"zones"`
	Tenant        string        `yaml:"tenant" validate:"required"`
	RetryInterval time.Duration `yaml:"retry_interval"`
	// Seed for the value generators; 0 seeds from the clock.
	Seed int64 `yaml:"seed"`
}

// BrokerConfig represents the publish transport configuration
type BrokerConfig struct {
	Transport      string        `yaml:"transport" validate:"oneof=mqtt nats"`
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port" validate:"min=1,max=65535"`
	QoS            byte          `yaml:"qos" validate:"max=2"`
	KeepAlive      time.Duration `yaml:"keep_alive"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	PublishTimeout time.Duration `yaml:"publish_timeout"`
	TLS            TLSConfig     `yaml:"tls"`
}

// TLSConfig represents broker TLS settings
type TLSConfig struct {
	Enabled            bool   `yaml:"enabled"`
	CAFile             string `yaml:"ca_file"`
	CertFile           string `yaml:"cert_file"`
	KeyFile            string `yaml:"key_file"`
	ServerName         string `yaml:"server_name"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
}

// NATSConfig represents NATS configuration
type NATSConfig struct {
	URL               string        `yaml:"url"`
	Username          string        `yaml:"username"`
	Password          string        `yaml:"password"`
	MaxReconnects     int           `yaml:"max_reconnects"`
	ReconnectInterval time.Duration `yaml:"reconnect_interval"`
}

// RegistryConfig points at an optional device registry file
type RegistryConfig struct {
	File string `yaml:"file"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// APIConfig represents API configuration
type APIConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// JWTConfig represents JWT configuration
type JWTConfig struct {
	Secret         string        `yaml:"secret"`
	Issuer         string        `yaml:"issuer"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl"`
}

// AdminConfig holds the single API account
type AdminConfig struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format" validate:"oneof=console json"`
}

// Load reads the configuration file. A missing file yields the defaults so
// the replayer can run from flags alone.
func Load(filename string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(filename)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Warn().Str("file", filename).Msg("Config file not found, using defaults")
	case err != nil:
		return nil, fmt.Errorf("read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
	}

	// Apply environment overrides
	cfg.applyEnvOverrides()
	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if host := os.Getenv("BROKER_HOST"); host != "" {
		c.Broker.Host = host
	}

	if port := os.Getenv("BROKER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Broker.Port = p
		} else {
			log.Warn().Str("value", port).Msg("Ignoring invalid BROKER_PORT")
		}
	}

	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		c.NATS.URL = natsURL
	}

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		c.Database.DSN = dsn
	}

	if jwtSecret := os.Getenv("JWT_SECRET"); jwtSecret != "" {
		c.JWT.Secret = jwtSecret
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Log.Level = logLevel
	}

	if dir := os.Getenv("REPLAY_DATA_DIR"); dir != "" {
		c.Replay.DataDir = dir
	}

	if speed := os.Getenv("REPLAY_SPEED_FACTOR"); speed != "" {
		if f, err := strconv.ParseFloat(speed, 64); err == nil {
			c.Replay.SpeedFactor = f
		} else {
			log.Warn().Str("value", speed).Msg("Ignoring invalid REPLAY_SPEED_FACTOR")
		}
	}
}

func (c *Config) setDefaults() {
	if c.Replay.DataDir == "" {
		c.Replay.DataDir = "datasets"
	}
	if c.Replay.SpeedFactor == 0 {
		c.Replay.SpeedFactor = 1.0
	}
	if c.Replay.MinInterval == 0 {
		c.Replay.MinInterval = 0.05
	}
	if c.Replay.Tenant == "" {
		c.Replay.Tenant = "factory"
	}
	if c.Replay.RetryInterval == 0 {
		c.Replay.RetryInterval = 5 * time.Second
	}

	if c.Broker.Transport == "" {
		c.Broker.Transport = "mqtt"
	}
	if c.Broker.Host == "" {
		c.Broker.Host = "localhost"
	}
	if c.Broker.Port == 0 {
		c.Broker.Port = 1883
		if c.Broker.TLS.Enabled {
			c.Broker.Port = 8883
		}
	}
	if c.Broker.KeepAlive == 0 {
		c.Broker.KeepAlive = 60 * time.Second
	}
	if c.Broker.ConnectTimeout == 0 {
		c.Broker.ConnectTimeout = 10 * time.Second
	}
	if c.Broker.PublishTimeout == 0 {
		c.Broker.PublishTimeout = 5 * time.Second
	}

	if c.NATS.URL == "" {
		c.NATS.URL = "nats://localhost:4222"
	}
	if c.NATS.MaxReconnects == 0 {
		c.NATS.MaxReconnects = -1
	}
	if c.NATS.ReconnectInterval == 0 {
		c.NATS.ReconnectInterval = 2 * time.Second
	}

	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 2
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 30 * time.Minute
	}

	if c.API.Host == "" {
		c.API.Host = "0.0.0.0"
	}
	if c.API.Port == 0 {
		c.API.Port = 8090
	}
	if len(c.API.AllowedOrigins) == 0 {
		c.API.AllowedOrigins = []string{"*"}
	}

	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "telemetry-replayer"
	}
	if c.JWT.AccessTokenTTL == 0 {
		c.JWT.AccessTokenTTL = time.Hour
	}

	if c.Admin.Username == "" {
		c.Admin.Username = "admin"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// Validate checks the configuration after defaults and overrides.
func (c *Config) Validate() error {
	if err := validation.NewValidator().Validate(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.API.Enabled {
		if c.JWT.Secret == "" {
			return errors.New("invalid config: jwt.secret is required when the API is enabled")
		}
		if c.Admin.PasswordHash == "" {
			return errors.New("invalid config: admin.password_hash is required when the API is enabled")
		}
		if !crypto.IsHash(c.Admin.PasswordHash) {
			return errors.New("invalid config: admin.password_hash is not a bcrypt hash (see -hash-password)")
		}
	}

	return nil
}

// BrokerURL returns the MQTT broker address in paho's scheme://host:port
// form.
func (c *BrokerConfig) BrokerURL() string {
	scheme := "tcp"
	if c.TLS.Enabled {
		scheme = "ssl"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Host, c.Port)
}

// ParseZones splits a comma-separated zone list, dropping empty entries.
func ParseZones(s string) []string {
	var zones []string
	for _, z := range strings.Split(s, ",") {
		if z = strings.TrimSpace(z); z != "" {
			zones = append(zones, z)
		}
	}
	return zones
}

// PrintConfigSummary prints the effective configuration
func (c *Config) PrintConfigSummary() {
	fmt.Printf("=== Telemetry Replayer Configuration ===\n")
	fmt.Printf("Data Dir: %s\n", c.Replay.DataDir)
	fmt.Printf("Tenant: %s\n", c.Replay.Tenant)
	if len(c.Replay.Zones) == 0 {
		fmt.Printf("Zones: all\n")
	} else {
		fmt.Printf("Zones: %s\n", strings.Join(c.Replay.Zones, ", "))
	}
	fmt.Printf("Speed Factor: %.3g\n", c.Replay.SpeedFactor)
	fmt.Printf("Min Interval: %.3fs\n", c.Replay.MinInterval)
	fmt.Printf("Retry Interval: %s\n", c.Replay.RetryInterval)

	fmt.Printf("Transport: %s\n", c.Broker.Transport)
	switch c.Broker.Transport {
	case "nats":
		fmt.Printf("  URL: %s\n", c.NATS.URL)
	default:
		fmt.Printf("  Broker: %s\n", c.Broker.BrokerURL())
		fmt.Printf("  QoS: %d\n", c.Broker.QoS)
		if c.Broker.TLS.Enabled {
			fmt.Printf("  TLS CA: %s\n", c.Broker.TLS.CAFile)
		}
	}

	if c.Registry.File != "" {
		fmt.Printf("Registry: %s\n", c.Registry.File)
	} else {
		fmt.Printf("Registry: built-in\n")
	}

	if c.Database.DSN != "" {
		fmt.Printf("Event Store: postgres\n")
	} else {
		fmt.Printf("Event Store: memory\n")
	}

	if c.API.Enabled {
		fmt.Printf("API: %s:%d\n", c.API.Host, c.API.Port)
	} else {
		fmt.Printf("API: disabled\n")
	}

	fmt.Printf("Log: %s (%s)\n", c.Log.Level, c.Log.Format)
	fmt.Printf("==========================================\n")
}
