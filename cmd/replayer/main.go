package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/xzhiot/telemetry-replayer/internal/api"
	"github.com/xzhiot/telemetry-replayer/internal/config"
	"github.com/xzhiot/telemetry-replayer/internal/fleet"
	"github.com/xzhiot/telemetry-replayer/internal/metrics"
	"github.com/xzhiot/telemetry-replayer/internal/models"
	"github.com/xzhiot/telemetry-replayer/internal/registry"
	"github.com/xzhiot/telemetry-replayer/internal/replay"
	"github.com/xzhiot/telemetry-replayer/internal/storage"
	"github.com/xzhiot/telemetry-replayer/internal/transport"
	"github.com/xzhiot/telemetry-replayer/pkg/crypto"
)

const shutdownTimeout = 5 * time.Second

type flags struct {
	configFile   string
	dataDir      string
	brokerHost   string
	brokerPort   int
	speedFactor  float64
	minInterval  float64
	zones        string
	transport    string
	showConfig   bool
	hashPassword string
}

func main() {
	var f flags
	flag.StringVar(&f.configFile, "config", "config/replayer.yml", "Configuration file path")
	flag.StringVar(&f.dataDir, "indir", "", "Directory holding the recorded CSV logs")
	flag.StringVar(&f.brokerHost, "broker", "", "Broker host")
	flag.IntVar(&f.brokerPort, "port", 0, "Broker port")
	flag.Float64Var(&f.speedFactor, "speed-factor", 0, "Replay speed multiplier (2 = twice as fast)")
	flag.Float64Var(&f.minInterval, "min-interval", 0, "Minimum delay between rows in seconds")
	flag.StringVar(&f.zones, "zones", "", "Comma separated zones to replay (default all)")
	flag.StringVar(&f.transport, "transport", "", "Publish transport: mqtt or nats")
	flag.BoolVar(&f.showConfig, "show-config", false, "Print the effective configuration and exit")
	flag.StringVar(&f.hashPassword, "hash-password", "", "Print a bcrypt hash for admin.password_hash and exit")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if f.hashPassword != "" {
		hash, err := crypto.HashPassword(f.hashPassword)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to hash password")
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load(f.configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	applyFlags(cfg, &f)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	setupLogging(&cfg.Log)

	if f.showConfig {
		cfg.PrintConfigSummary()
		return
	}

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("Replayer failed")
	}
}

// applyFlags overrides configuration with the flags given on the command
// line. Unset flags leave the file and environment values alone.
func applyFlags(cfg *config.Config, f *flags) {
	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "indir":
			cfg.Replay.DataDir = f.dataDir
		case "broker":
			cfg.Broker.Host = f.brokerHost
		case "port":
			cfg.Broker.Port = f.brokerPort
		case "speed-factor":
			cfg.Replay.SpeedFactor = f.speedFactor
		case "min-interval":
			cfg.Replay.MinInterval = f.minInterval
		case "zones":
			cfg.Replay.Zones = config.ParseZones(f.zones)
		case "transport":
			cfg.Broker.Transport = f.transport
		}
	})
}

func setupLogging(cfg *config.LogConfig) {
	if cfg.Format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		log.Warn().Str("level", cfg.Level).Msg("Unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	devices, err := loadDevices(cfg)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		return errors.New("no devices selected")
	}

	store, err := openStore(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(promRegistry)

	factory, err := transport.NewFactory(&cfg.Broker, &cfg.NATS)
	if err != nil {
		return err
	}

	f := fleet.New(devices, fleet.Options{
		Replay: replay.Options{
			SpeedFactor:   cfg.Replay.SpeedFactor,
			MinInterval:   cfg.Replay.MinInterval,
			RetryInterval: cfg.Replay.RetryInterval,
			Seed:          cfg.Replay.Seed,
			Observer:      m,
			Events:        store,
		},
		Factory: factory,
	})

	log.Info().
		Str("run_id", f.RunID().String()).
		Int("devices", len(devices)).
		Str("transport", cfg.Broker.Transport).
		Float64("speed_factor", cfg.Replay.SpeedFactor).
		Float64("min_interval", cfg.Replay.MinInterval).
		Msg("Starting telemetry replay")

	var apiServer *api.RESTServer
	if cfg.API.Enabled {
		apiServer = api.NewRESTServer(cfg, f, store, promRegistry)
		go func() {
			addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
			if err := apiServer.ListenAndServe(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("REST API server failed")
				stop()
			}
		}()
	}

	if err := f.Run(ctx); err != nil {
		return err
	}
	log.Info().Msg("Received signal, shutting down")

	if !f.Wait(shutdownTimeout) {
		log.Warn().Dur("timeout", shutdownTimeout).Msg("Some devices did not stop in time")
	}

	if apiServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Failed to shutdown API server gracefully")
		}
	}

	log.Info().Msg("Replayer stopped")
	return nil
}

func loadDevices(cfg *config.Config) ([]*models.Device, error) {
	reg := registry.Builtin()
	if cfg.Registry.File != "" {
		custom, err := registry.LoadFile(cfg.Registry.File)
		if err != nil {
			return nil, err
		}
		reg = reg.Merge(custom)
	}

	reg, err := reg.Select(cfg.Replay.Zones)
	if err != nil {
		return nil, err
	}
	return reg.Devices(cfg.Replay.DataDir, cfg.Replay.Tenant)
}

func openStore(ctx context.Context, cfg *config.DatabaseConfig) (storage.Store, error) {
	if cfg.DSN == "" {
		log.Info().Msg("No database configured, keeping events in memory")
		return storage.NewMemoryStore(storage.DefaultMemoryCapacity), nil
	}

	pg, err := storage.NewPostgresStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pg.Migrate(ctx); err != nil {
		pg.Close()
		return nil, err
	}
	log.Info().Msg("Connected to database")
	return pg, nil
}
