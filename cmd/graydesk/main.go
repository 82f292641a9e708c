// Gray Logic Desk - Lighting Playback Engine
//
// This is the main entry point for the desk. It loads the show from SQLite,
// runs the cue playback loop at the configured frame rate, and drives the
// output universe over Art-Net. Operators control playback through the REST
// API, the WebSocket stream, or MQTT commands.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"golang.org/x/sync/errgroup"

	_ "github.com/nerrad567/gray-logic-desk/migrations"

	"github.com/nerrad567/gray-logic-desk/internal/api"
	"github.com/nerrad567/gray-logic-desk/internal/artnet"
	"github.com/nerrad567/gray-logic-desk/internal/audit"
	"github.com/nerrad567/gray-logic-desk/internal/cue"
	"github.com/nerrad567/gray-logic-desk/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-desk/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-desk/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-desk/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-desk/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-desk/internal/playback"
	"github.com/nerrad567/gray-logic-desk/internal/show"
	"github.com/nerrad567/gray-logic-desk/internal/universe"
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
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // linear startup sequence
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Gray Logic Desk",
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

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Load the show
	shows := show.NewRegistry(show.NewSQLiteRepository(db.DB))
	shows.SetLogger(log.Component("show"))
	if refreshErr := shows.RefreshCache(ctx); refreshErr != nil {
		return fmt.Errorf("loading show: %w", refreshErr)
	}
	journal := audit.NewSQLiteRepository(db.DB)
	if importErr := importShow(ctx, shows, journal, cfg.Show.ImportPath, log); importErr != nil {
		return importErr
	}
	log.Info("show loaded", "cue_lists", shows.CueListCount())

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
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
		mqttClient.SetLogger(log.Component("mqtt"))
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
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
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Open Art-Net output (optional)
	var dmx playback.DMXSender
	if cfg.ArtNet.Enabled {
		sender, senderErr := artnet.NewSender(cfg.ArtNet.BroadcastAddress, cfg.ArtNet.Port)
		if senderErr != nil {
			return fmt.Errorf("opening Art-Net output: %w", senderErr)
		}
		defer func() {
			if closeErr := sender.Close(); closeErr != nil {
				log.Error("error closing Art-Net output", "error", closeErr)
			}
		}()
		dmx = &artnetOutput{sender: sender, sync: cfg.ArtNet.Sync}
		log.Info("Art-Net output open",
			"target", sender.Target(),
			"universe", cfg.Desk.ArtNetUniverse,
			"sync", cfg.ArtNet.Sync,
		)
	} else {
		log.Info("Art-Net output disabled")
	}

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	// The hub exists before the engine so both the engine and the API share it.
	hub := api.NewHub(cfg.WebSocket, log.Component("websocket"))

	engine, err := newEngine(cfg, shows, dmx, mqttClient, influxClient, hub, log)
	if err != nil {
		return err
	}

	if mqttClient != nil {
		if subErr := mqttClient.Subscribe(
			mqtt.Topics{}.AllCommands(),
			mqttClient.DefaultQoS(),
			journaledCommands(engine.HandleCommand, journal, log),
		); subErr != nil {
			return fmt.Errorf("subscribing to commands: %w", subErr)
		}
		log.Info("listening for MQTT commands", "topic", mqtt.Topics{}.AllCommands())
	}

	var mqttStatus api.ConnectionChecker
	if mqttClient != nil {
		mqttStatus = mqttClient
	}
	server, err := api.New(api.Deps{
		Config:  cfg.API,
		WS:      cfg.WebSocket,
		Logger:  log.Component("api"),
		Shows:   shows,
		Engine:  engine,
		MQTT:    mqttStatus,
		DB:      db,
		Journal: journal,
		Hub:     hub,
		Version: version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		log.Info("playback started",
			"tick_rate", engine.TickRate(),
			"policy", engine.Policy().String(),
			"universe_size", cfg.Desk.UniverseSize,
		)
		if runErr := engine.Run(gctx); runErr != nil {
			return fmt.Errorf("playback: %w", runErr)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return server.Close()
	})

	log.Info("initialisation complete, waiting for shutdown signal")

	err = g.Wait()
	if err != nil {
		log.Error("desk stopped with error", "error", err)
	}

	// Deferred Close() calls run in reverse order:
	// Art-Net, InfluxDB, MQTT, then the database.
	log.Info("Gray Logic Desk stopped", "ticks", engine.TickCount())
	return err
}

// getConfigPath returns the configuration file path.
// Uses GRAYDESK_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GRAYDESK_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// importShow loads a cue list document into the show, replacing any list
// with the same number. An empty path does nothing. A nil journal skips
// recording the import.
func importShow(ctx context.Context, shows *show.Registry, journal audit.Repository, path string, log *logging.Logger) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading show import %s: %w", path, err)
	}
	list, err := shows.Import(ctx, data)
	if err != nil {
		return fmt.Errorf("importing show %s: %w", path, err)
	}
	log.Info("show imported", "path", path, "cue_list", list.Number, "cues", list.Len())

	if journal != nil {
		entry := &audit.Entry{
			Action:     audit.ActionImport,
			EntityType: audit.EntityCueList,
			EntityID:   strconv.Itoa(list.Number),
			Source:     audit.SourceShow,
			Details:    map[string]any{"path": path, "cues": list.Len()},
		}
		if err := journal.Create(ctx, entry); err != nil {
			log.Warn("failed to journal show import", "error", err)
		}
	}
	return nil
}

// journaledCommands wraps an MQTT command handler so every command the
// engine accepts is written to the operator journal. Rejected commands are
// not recorded.
func journaledCommands(handler mqtt.MessageHandler, journal audit.Repository, log *logging.Logger) mqtt.MessageHandler {
	return func(topic string, payload []byte) error {
		if err := handler(topic, payload); err != nil {
			return err
		}

		name, _ := mqtt.Topics{}.CommandName(topic)
		entry := &audit.Entry{
			Action:     name,
			EntityType: audit.EntityPlayback,
			Source:     audit.SourceMQTT,
		}
		var details map[string]any
		if json.Unmarshal(payload, &details) == nil && len(details) > 0 {
			entry.Details = details
		}
		if err := journal.Create(context.Background(), entry); err != nil {
			log.Warn("failed to journal command", "command", name, "error", err)
		}
		return nil
	}
}

// newEngine builds the playback engine from configuration. Optional outputs
// are left unset when nil so the engine skips them.
func newEngine(
	cfg *config.Config,
	shows *show.Registry,
	dmx playback.DMXSender,
	mqttClient *mqtt.Client,
	influxClient *influxdb.Client,
	hub *api.Hub,
	log *logging.Logger,
) (*playback.Engine, error) {
	policy, err := cue.ParsePolicy(cfg.Desk.MergePolicy)
	if err != nil {
		return nil, fmt.Errorf("desk merge policy: %w", err)
	}

	u, err := universe.New(cfg.Desk.UniverseSize)
	if err != nil {
		return nil, fmt.Errorf("creating universe: %w", err)
	}

	opts := playback.Options{
		Cues:           shows,
		Universe:       u,
		TickRate:       cfg.Desk.TickRate,
		Policy:         policy,
		ArtNetUniverse: uint16(cfg.Desk.ArtNetUniverse), //nolint:gosec // validated to 0..32767
		DMX:            dmx,
		Logger:         log.Component("playback"),
	}
	// Typed nils would defeat the engine's nil checks.
	if hub != nil {
		opts.Hub = hub
	}
	if mqttClient != nil {
		opts.MQTT = mqttClient
	}
	if influxClient != nil {
		opts.Metrics = influxClient
	}

	engine, err := playback.NewEngine(opts)
	if err != nil {
		return nil, fmt.Errorf("creating playback engine: %w", err)
	}
	return engine, nil
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check (may be nil if disabled)
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
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

// artnetOutput adapts an Art-Net sender to the engine, following each frame
// with an ArtSync when configured.
type artnetOutput struct {
	sender *artnet.Sender
	sync   bool
}

// SendFrame implements playback.DMXSender.
func (o *artnetOutput) SendFrame(dmx []byte, universe uint16) error {
	if err := o.sender.SendFrame(dmx, universe); err != nil {
		return err
	}
	if o.sync {
		if err := o.sender.SendSync(); err != nil {
			return fmt.Errorf("art-net sync: %w", err)
		}
	}
	return nil
}
