// Ordos Core - Substation Device Data Collection
//
// This is the main entry point for the Ordos Core application. Ordos
// polls a fleet of protection relays and similar substation devices,
// archives their disturbance recordings and diagnostic files exactly
// once, and serves the archive to dashboards and SCADA integrations
// over HTTP and MQTT.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	// Import migrations package to register embedded migration files
	_ "github.com/ordos-scada/ordos-core/migrations"

	"github.com/ordos-scada/ordos-core/internal/api"
	"github.com/ordos-scada/ordos-core/internal/collector"
	"github.com/ordos-scada/ordos-core/internal/ied"
	"github.com/ordos-scada/ordos-core/internal/infrastructure/config"
	"github.com/ordos-scada/ordos-core/internal/infrastructure/database"
	"github.com/ordos-scada/ordos-core/internal/infrastructure/influxdb"
	"github.com/ordos-scada/ordos-core/internal/infrastructure/logging"
	"github.com/ordos-scada/ordos-core/internal/infrastructure/mqtt"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Ordos Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	applied, pending, statusErr := db.GetMigrationStatus(ctx)
	if statusErr != nil {
		return fmt.Errorf("checking migration status: %w", statusErr)
	}
	if len(pending) > 0 {
		return fmt.Errorf("schema has %d pending migrations after migrate", len(pending))
	}
	log.Info("database migrations complete", "applied", len(applied))

	// Fleet model
	repo := ied.NewSQLiteRepository(db.DB)
	registry := ied.NewRegistry(repo, log)
	if refreshErr := registry.Refresh(ctx); refreshErr != nil {
		return fmt.Errorf("loading device snapshot: %w", refreshErr)
	}
	log.Info("device snapshot loaded",
		"devices", registry.Count(),
		"company", registry.CompanyName(),
	)

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	var mqttEvents *mqtt.EventPublisher
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT connected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		mqttEvents = mqtt.NewEventPublisher(mqttClient)
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Connectivity tracker fans transitions out to every enabled sink
	var sinks []ied.StatusSink
	if mqttEvents != nil {
		sinks = append(sinks, mqttEvents)
	}
	if influxClient != nil {
		sinks = append(sinks, influxClient)
	}
	tracker := ied.NewTracker(repo, log, sinks...)

	// Ingestion announcements go to the same backends
	var publishers []ied.EventPublisher
	if mqttEvents != nil {
		publishers = append(publishers, mqttEvents)
	}
	if influxClient != nil {
		publishers = append(publishers, influxClient)
	}
	ingestor := ied.NewIngestor(repo, log, fanout(publishers))

	// Collector (optional)
	var coll *collector.Collector
	if cfg.Poller.Enabled {
		coll = collector.New(collector.Config{
			Interval:       cfg.GetPollInterval(),
			ContactTimeout: cfg.GetContactTimeout(),
		},
			registry,
			ied.NewDeduplicator(repo, log),
			ingestor,
			tracker,
			collector.NewDirScanner(cfg.Poller.SpoolDir),
			log.With("component", "collector"),
		)
		if influxClient != nil {
			coll.SetMetrics(influxClient)
		}
		coll.Start(ctx)
		defer func() {
			log.Info("stopping collector")
			coll.Stop()
		}()
		log.Info("collector started",
			"interval", cfg.GetPollInterval().String(),
			"spool_dir", cfg.Poller.SpoolDir,
		)

		// Operator-triggered cycles via MQTT
		if mqttClient != nil {
			pollTopic := mqtt.Topics{}.CommandPoll()
			if subErr := mqttClient.Subscribe(pollTopic, byte(cfg.MQTT.QoS),
				func(_ string, _ []byte) error {
					coll.PollNow()
					return nil
				}); subErr != nil {
				log.Warn("failed to subscribe to poll command", "error", subErr)
			} else {
				defer func() {
					if unsubErr := mqttClient.Unsubscribe(pollTopic); unsubErr != nil {
						log.Warn("failed to unsubscribe from poll command", "error", unsubErr)
					}
				}()
			}
		}
	} else {
		log.Info("collector disabled")
	}

	// HTTP API
	apiDeps := api.Deps{
		Config:   cfg.API,
		Logger:   log.With("component", "api"),
		Registry: registry,
		Repo:     repo,
		Version:  version,
	}
	if coll != nil {
		apiDeps.Poller = coll
	}
	apiServer, err := api.New(apiDeps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := apiServer.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if healthErr := healthCheck(ctx, db, mqttClient, influxClient); healthErr != nil {
		log.Warn("startup health check reported a problem", "error", healthErr)
	} else {
		log.Info("startup health check passed")
	}

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// API, collector, InfluxDB, MQTT, database

	log.Info("Ordos Core stopped")
	return nil
}

// healthCheck verifies the core backends respond after startup.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}

// getConfigPath returns the configuration file path.
// Uses ORDOS_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("ORDOS_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// multiPublisher fans ingest announcements out to several backends.
type multiPublisher []ied.EventPublisher

func (m multiPublisher) RecordingsStored(deviceID string, count int) {
	for _, p := range m {
		p.RecordingsStored(deviceID, count)
	}
}

func (m multiPublisher) FilesStored(deviceID string, count int) {
	for _, p := range m {
		p.FilesStored(deviceID, count)
	}
}

// fanout wraps publishers into one, or nil when none are enabled.
func fanout(publishers []ied.EventPublisher) ied.EventPublisher {
	if len(publishers) == 0 {
		return nil
	}
	return multiPublisher(publishers)
}
