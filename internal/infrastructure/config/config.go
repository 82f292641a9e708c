package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the desk.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Desk      DeskConfig      `yaml:"desk"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	ArtNet    ArtNetConfig    `yaml:"artnet"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
	Show      ShowConfig      `yaml:"show"`
}

// DeskConfig contains playback settings.
type DeskConfig struct {
	// TickRate is the number of playback frames per second.
	TickRate float64 `yaml:"tick_rate"`

	// UniverseSize is the number of output channels (1..512).
	UniverseSize int `yaml:"universe_size"`

	// MergePolicy is "htp" or "ltp".
	MergePolicy string `yaml:"merge_policy"`

	// ArtNetUniverse is the 15-bit Port-Address the output is sent on.
	ArtNetUniverse int `yaml:"artnet_universe"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// ArtNetConfig contains Art-Net output settings.
type ArtNetConfig struct {
	Enabled          bool   `yaml:"enabled"`
	BroadcastAddress string `yaml:"broadcast_address"`
	Port             int    `yaml:"port"`

	// Sync sends an ArtSync after every frame.
	Sync bool `yaml:"sync"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`

	// Tags are added to every point, e.g. {desk: foh}.
	Tags map[string]string `yaml:"tags"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// ShowConfig contains show file settings.
type ShowConfig struct {
	// ImportPath is an optional cue list document loaded on startup.
	ImportPath string `yaml:"import_path"`
}

// Limits enforced by Validate.
const (
	maxUniverseSize   = 512
	maxTickRate       = 1000
	maxArtNetUniverse = 0x7FFF
)

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: GRAYDESK_SECTION_KEY
// For example: GRAYDESK_DATABASE_PATH, GRAYDESK_DESK_MERGE_POLICY
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Desk: DeskConfig{
			TickRate:     40,
			UniverseSize: maxUniverseSize,
			MergePolicy:  "htp",
		},
		Database: DatabaseConfig{
			Path:        "./data/graydesk.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "graydesk",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		ArtNet: ArtNetConfig{
			BroadcastAddress: "255.255.255.255",
			Port:             6454,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	// Desk
	if v := os.Getenv("GRAYDESK_DESK_MERGE_POLICY"); v != "" {
		cfg.Desk.MergePolicy = v
	}

	// Database
	if v := os.Getenv("GRAYDESK_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("GRAYDESK_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("GRAYDESK_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GRAYDESK_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Art-Net
	if v := os.Getenv("GRAYDESK_ARTNET_BROADCAST_ADDRESS"); v != "" {
		cfg.ArtNet.BroadcastAddress = v
	}

	// API
	if v := os.Getenv("GRAYDESK_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// InfluxDB
	if v := os.Getenv("GRAYDESK_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Show
	if v := os.Getenv("GRAYDESK_SHOW_IMPORT_PATH"); v != "" {
		cfg.Show.ImportPath = v
	}
}

// Validate checks the configuration for errors.
// All problems are reported together.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Desk validation
	if c.Desk.TickRate <= 0 || c.Desk.TickRate > maxTickRate {
		errs = append(errs, fmt.Sprintf("desk.tick_rate must be greater than 0 and at most %d", maxTickRate))
	}
	if c.Desk.UniverseSize < 1 || c.Desk.UniverseSize > maxUniverseSize {
		errs = append(errs, fmt.Sprintf("desk.universe_size must be between 1 and %d", maxUniverseSize))
	}
	switch strings.ToLower(c.Desk.MergePolicy) {
	case "htp", "ltp":
	default:
		errs = append(errs, "desk.merge_policy must be htp or ltp")
	}
	if c.Desk.ArtNetUniverse < 0 || c.Desk.ArtNetUniverse > maxArtNetUniverse {
		errs = append(errs, "desk.artnet_universe must be between 0 and 32767")
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled && c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
	}

	// Art-Net validation
	if c.ArtNet.Enabled && (c.ArtNet.Port < 1 || c.ArtNet.Port > 65535) {
		errs = append(errs, "artnet.port must be between 1 and 65535")
	}

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled && (c.InfluxDB.URL == "" || c.InfluxDB.Bucket == "") {
		errs = append(errs, "influxdb.url and influxdb.bucket are required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// TickInterval returns the playback frame period.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.Desk.TickRate)
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
