// Wattson Core - Autonomous Building Energy Management
//
// This is the main entry point for the Wattson Core application. Wattson
// runs a roster of policy agents over a live building model: telemetry
// flows in over MQTT, policies decide, the actuation gateway executes, and
// every decision lands in the audit trail. Operators steer the system
// through a natural-language command surface backed by Gemini.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/wattson-io/wattson-core/migrations"

	"github.com/wattson-io/wattson-core/internal/actuation"
	"github.com/wattson-io/wattson-core/internal/agent"
	"github.com/wattson-io/wattson-core/internal/api"
	"github.com/wattson-io/wattson-core/internal/audit"
	"github.com/wattson-io/wattson-core/internal/building"
	"github.com/wattson-io/wattson-core/internal/chat"
	"github.com/wattson-io/wattson-core/internal/infrastructure/config"
	"github.com/wattson-io/wattson-core/internal/infrastructure/database"
	"github.com/wattson-io/wattson-core/internal/infrastructure/influxdb"
	"github.com/wattson-io/wattson-core/internal/infrastructure/logging"
	"github.com/wattson-io/wattson-core/internal/infrastructure/mqtt"
	"github.com/wattson-io/wattson-core/internal/llm"
	"github.com/wattson-io/wattson-core/internal/telemetry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
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
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Wattson Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

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

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Repositories
	buildingRepo := building.NewSQLiteRepository(db.DB)
	auditRepo := audit.NewSQLiteRepository(db.DB)

	// Connect to MQTT broker. Wattson degrades without one: local control
	// and the audit trail keep working, device fan-out and telemetry stop.
	var mqttClient *mqtt.Client
	mqttClient, err = mqtt.Connect(cfg.MQTT)
	if err != nil {
		log.Warn("MQTT unavailable, running without broker", "error", err)
		mqttClient = nil
	} else {
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
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
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Actuation gateway: the single write path for device state
	gatewayOpts := []actuation.Option{actuation.WithLogger(log)}
	if mqttClient != nil {
		gatewayOpts = append(gatewayOpts, actuation.WithPublisher(mqttClient, byte(cfg.MQTT.QoS)))
	}
	gateway := actuation.NewGateway(db.DB, gatewayOpts...)

	// Telemetry ingestion
	if mqttClient != nil {
		ingestorOpts := []telemetry.Option{telemetry.WithLogger(log)}
		if influxClient != nil {
			ingestorOpts = append(ingestorOpts, telemetry.WithMirror(influxClient))
		}
		ingestor := telemetry.NewIngestor(buildingRepo, ingestorOpts...)
		if err := ingestor.Start(mqttClient); err != nil {
			return fmt.Errorf("starting telemetry ingestion: %w", err)
		}
	} else {
		log.Warn("telemetry ingestion disabled without MQTT")
	}

	// Agent roster and scheduler
	policyDeps := agent.PolicyDeps{
		Building:          buildingRepo,
		Audit:             auditRepo,
		Actuator:          gateway,
		Logger:            log,
		HighTempThreshold: cfg.Agents.HighTempThreshold,
		LoadShedThreshold: cfg.Agents.LoadShedThreshold,
		MaintenanceHours:  cfg.Agents.MaintenanceHours,
		SiteID:            cfg.Site.ID,
	}
	if influxClient != nil {
		policyDeps.Mirror = influxClient
	}
	roster := agent.NewRoster(policyDeps)

	orchestrator := agent.NewOrchestrator(roster, auditRepo)
	if err := orchestrator.LoadInstructions(ctx); err != nil {
		return fmt.Errorf("loading agent instructions: %w", err)
	}

	scheduler := agent.NewScheduler(roster, agent.SchedulerConfig{
		TickInterval: cfg.GetTickInterval(),
		ErrorBackoff: cfg.GetErrorBackoff(),
		Disabled:     cfg.Agents.BackgroundDisabled,
	}, log)
	if err := scheduler.Start(ctx); err != nil {
		return fmt.Errorf("starting agent scheduler: %w", err)
	}
	defer scheduler.Stop()

	// Gemini generator (optional; chat degrades to snapshot answers)
	var generator llm.Generator
	if cfg.LLM.APIKey != "" {
		gemini, err := llm.NewGeminiClient(ctx, cfg.LLM.APIKey, cfg.LLM.Model, cfg.GetLLMTimeout())
		if err != nil {
			log.Warn("Gemini unavailable, chat runs in basic mode", "error", err)
		} else {
			generator = gemini
			log.Info("Gemini initialised", "model", gemini.Model())
		}
	} else {
		log.Warn("no LLM API key configured, chat runs in basic mode")
	}

	// Chat command surface
	memory := chat.NewMemory(cfg.Chat.MemoryCapacity)
	if err := memory.Load(ctx, auditRepo); err != nil {
		return fmt.Errorf("loading chat history: %w", err)
	}
	rosterLines := make([]string, 0, len(roster))
	for _, info := range orchestrator.Agents() {
		rosterLines = append(rosterLines, info.Name+": "+info.Role)
	}
	chatService := chat.NewService(chat.ServiceConfig{
		Generator:          generator,
		Building:           buildingRepo,
		Audit:              auditRepo,
		Dispatcher:         chat.NewDispatcher(buildingRepo, gateway, orchestrator),
		Gate:               chat.NewGate(cfg.GetPendingTTL(), cfg.Chat.AffirmWords, cfg.Chat.RejectWords),
		Memory:             memory,
		Logger:             log,
		ConfirmDestructive: cfg.Chat.ConfirmDestructive,
		SiteName:           cfg.Site.Name,
		RosterLines:        rosterLines,
	})

	// HTTP API
	server, err := api.New(api.Deps{
		Config:       cfg.API,
		Logger:       log,
		Building:     buildingRepo,
		Audit:        auditRepo,
		Actuator:     gateway,
		Chat:         chatService,
		Orchestrator: orchestrator,
		Version:      version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient, server); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses WATTSON_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("WATTSON_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client, server *api.Server) error {
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := db.HealthCheck(checkCtx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(checkCtx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(checkCtx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	if err := server.HealthCheck(checkCtx); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}
