package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Wattson Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site     SiteConfig     `yaml:"site"`
	Database DatabaseConfig `yaml:"database"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	API      APIConfig      `yaml:"api"`
	LLM      LLMConfig      `yaml:"llm"`
	Agents   AgentsConfig   `yaml:"agents"`
	Chat     ChatConfig     `yaml:"chat"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SiteConfig contains site-specific information.
type SiteConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
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

// InfluxDBConfig contains the optional time-series mirror settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// LLMConfig contains settings for the Gemini command-interpretation collaborator.
type LLMConfig struct {
	// APIKey authenticates against the Gemini API. Usually supplied via
	// WATTSON_LLM_API_KEY rather than the config file.
	APIKey string `yaml:"api_key"`

	// Model is the generation model name (e.g. "gemini-2.0-flash").
	Model string `yaml:"model"`

	// Timeout is the per-request deadline in seconds.
	Timeout int `yaml:"timeout"`
}

// AgentsConfig contains agent scheduler and policy threshold settings.
type AgentsConfig struct {
	// TickInterval is the duty-cycle period in seconds.
	TickInterval int `yaml:"tick_interval"`

	// ErrorBackoff is the pause after a failed duty cycle in seconds.
	ErrorBackoff int `yaml:"error_backoff"`

	// BackgroundDisabled skips launching duty loops entirely. Intended for
	// batch/serverless deployments with no ambient multitasking; the
	// scheduler logs the degraded mode instead of blocking.
	BackgroundDisabled bool `yaml:"background_disabled"`

	// HighTempThreshold is the safety-lockdown trigger in degrees Celsius.
	HighTempThreshold float64 `yaml:"high_temp_threshold"`

	// LoadShedThreshold is the aggregate power trigger for load shedding.
	LoadShedThreshold float64 `yaml:"load_shed_threshold"`

	// MaintenanceHours is the device runtime threshold for maintenance alerts.
	MaintenanceHours float64 `yaml:"maintenance_hours"`
}

// ChatConfig contains command interpreter and confirmation gate settings.
type ChatConfig struct {
	// ConfirmDestructive parks destructive intents (delete_room,
	// delete_sensor) in the confirmation gate until the actor affirms.
	// When false the dispatcher executes them immediately ("manager mode").
	ConfirmDestructive bool `yaml:"confirm_destructive"`

	// PendingTTL is how long an unresolved confirmation survives, in
	// minutes. 0 keeps entries forever.
	PendingTTL int `yaml:"pending_ttl"`

	// MemoryCapacity is the conversation ring buffer size.
	MemoryCapacity int `yaml:"memory_capacity"`

	// AffirmWords and RejectWords are the vocabularies used to classify
	// replies to a pending confirmation. Single words match against the
	// lower-cased, whitespace-tokenized reply; multi-word entries match
	// as phrases.
	AffirmWords []string `yaml:"affirm_words"`
	RejectWords []string `yaml:"reject_words"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: WATTSON_SECTION_KEY
// For example: WATTSON_DATABASE_PATH, WATTSON_LLM_API_KEY
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
		Site: SiteConfig{
			ID:       "site-001",
			Name:     "Wattson",
			Timezone: "UTC",
		},
		Database: DatabaseConfig{
			Path:        "./data/wattson.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "wattson-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
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
		LLM: LLMConfig{
			Model:   "gemini-2.0-flash",
			Timeout: 30,
		},
		Agents: AgentsConfig{
			TickInterval:      15,
			ErrorBackoff:      5,
			HighTempThreshold: 50,
			LoadShedThreshold: 1000,
			MaintenanceHours:  5000,
		},
		Chat: ChatConfig{
			ConfirmDestructive: true,
			PendingTTL:         10,
			MemoryCapacity:     100,
			AffirmWords: []string{
				"yes", "yeah", "ok", "okay", "sure", "confirm",
				"có", "được", "đồng ý", "xác nhận", "duyệt",
			},
			RejectWords: []string{
				"no", "cancel", "stop", "không", "hủy", "đừng",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: WATTSON_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("WATTSON_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("WATTSON_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("WATTSON_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("WATTSON_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("WATTSON_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("WATTSON_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	// InfluxDB
	if v := os.Getenv("WATTSON_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// LLM - the API key should come from the environment in production
	if v := os.Getenv("WATTSON_LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.Agents.TickInterval < 1 {
		errs = append(errs, "agents.tick_interval must be at least 1 second")
	}
	if c.Agents.HighTempThreshold <= 0 {
		errs = append(errs, "agents.high_temp_threshold must be positive")
	}

	if c.Chat.MemoryCapacity < 1 {
		errs = append(errs, "chat.memory_capacity must be at least 1")
	}
	if len(c.Chat.AffirmWords) == 0 {
		errs = append(errs, "chat.affirm_words must not be empty")
	}
	if len(c.Chat.RejectWords) == 0 {
		errs = append(errs, "chat.reject_words must not be empty")
	}

	if c.LLM.Timeout < 1 {
		errs = append(errs, "llm.timeout must be at least 1 second")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
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

// GetTickInterval returns the agent duty-cycle period as a Duration.
func (c *Config) GetTickInterval() time.Duration {
	return time.Duration(c.Agents.TickInterval) * time.Second
}

// GetErrorBackoff returns the post-failure pause as a Duration.
func (c *Config) GetErrorBackoff() time.Duration {
	return time.Duration(c.Agents.ErrorBackoff) * time.Second
}

// GetLLMTimeout returns the per-request LLM deadline as a Duration.
func (c *Config) GetLLMTimeout() time.Duration {
	return time.Duration(c.LLM.Timeout) * time.Second
}

// GetPendingTTL returns the confirmation expiry as a Duration (0 = no expiry).
func (c *Config) GetPendingTTL() time.Duration {
	return time.Duration(c.Chat.PendingTTL) * time.Minute
}
