package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_ValidConfig(t *testing.T) {
	// Create a temporary config file
	content := `
site:
  id: "test-site"
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
api:
  host: "0.0.0.0"
  port: 8080
agents:
  tick_interval: 15
  high_temp_threshold: 50
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Site.ID != "test-site" {
		t.Errorf("Site.ID = %q, want %q", cfg.Site.ID, "test-site")
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}

	if cfg.MQTT.Broker.Host != "localhost" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "localhost")
	}

	// Sections absent from the file keep their defaults
	if cfg.Agents.LoadShedThreshold != 1000 {
		t.Errorf("Agents.LoadShedThreshold = %v, want 1000", cfg.Agents.LoadShedThreshold)
	}
	if !cfg.Chat.ConfirmDestructive {
		t.Error("Chat.ConfirmDestructive should default to true")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
site:
  id: ""
database:
  path: "/tmp/test.db"
api:
  port: 8080
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for empty site.id, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config { return defaultConfig() }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing site ID",
			mutate:  func(c *Config) { c.Site.ID = "" },
			wantErr: true,
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: true,
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name:    "invalid port low",
			mutate:  func(c *Config) { c.API.Port = 0 },
			wantErr: true,
		},
		{
			name:    "invalid port high",
			mutate:  func(c *Config) { c.API.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "zero tick interval",
			mutate:  func(c *Config) { c.Agents.TickInterval = 0 },
			wantErr: true,
		},
		{
			name:    "negative temp threshold",
			mutate:  func(c *Config) { c.Agents.HighTempThreshold = -1 },
			wantErr: true,
		},
		{
			name:    "empty affirmation vocabulary",
			mutate:  func(c *Config) { c.Chat.AffirmWords = nil },
			wantErr: true,
		},
		{
			name:    "zero memory capacity",
			mutate:  func(c *Config) { c.Chat.MemoryCapacity = 0 },
			wantErr: true,
		},
		{
			name:    "zero llm timeout",
			mutate:  func(c *Config) { c.LLM.Timeout = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
		Agents: AgentsConfig{
			TickInterval: 15,
			ErrorBackoff: 5,
		},
		LLM:  LLMConfig{Timeout: 30},
		Chat: ChatConfig{PendingTTL: 10},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}

	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}

	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}

	if got := cfg.GetTickInterval().Seconds(); got != 15 {
		t.Errorf("GetTickInterval() = %v, want 15", got)
	}

	if got := cfg.GetErrorBackoff().Seconds(); got != 5 {
		t.Errorf("GetErrorBackoff() = %v, want 5", got)
	}

	if got := cfg.GetLLMTimeout().Seconds(); got != 30 {
		t.Errorf("GetLLMTimeout() = %v, want 30", got)
	}

	if got := cfg.GetPendingTTL().Minutes(); got != 10 {
		t.Errorf("GetPendingTTL() = %v, want 10", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	// Set environment variables
	t.Setenv("WATTSON_DATABASE_PATH", "/custom/path.db")
	t.Setenv("WATTSON_MQTT_HOST", "mqtt.example.com")
	t.Setenv("WATTSON_MQTT_USERNAME", "testuser")
	t.Setenv("WATTSON_MQTT_PASSWORD", "testpass")
	t.Setenv("WATTSON_API_HOST", "192.168.1.1")
	t.Setenv("WATTSON_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("WATTSON_LLM_API_KEY", "llm-key")

	applyEnvOverrides(cfg)

	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}

	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}

	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}

	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}

	if cfg.API.Host != "192.168.1.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "192.168.1.1")
	}

	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}

	if cfg.LLM.APIKey != "llm-key" {
		t.Errorf("LLM.APIKey = %q, want %q", cfg.LLM.APIKey, "llm-key")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Site.ID == "" {
		t.Error("defaultConfig should have non-empty Site.ID")
	}

	if cfg.Database.Path == "" {
		t.Error("defaultConfig should have non-empty Database.Path")
	}

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}

	if cfg.API.Port != 8080 {
		t.Errorf("defaultConfig API.Port = %d, want 8080", cfg.API.Port)
	}

	if cfg.Agents.TickInterval != 15 {
		t.Errorf("defaultConfig Agents.TickInterval = %d, want 15", cfg.Agents.TickInterval)
	}

	if cfg.Agents.HighTempThreshold != 50 {
		t.Errorf("defaultConfig Agents.HighTempThreshold = %v, want 50", cfg.Agents.HighTempThreshold)
	}

	if cfg.Chat.MemoryCapacity != 100 {
		t.Errorf("defaultConfig Chat.MemoryCapacity = %d, want 100", cfg.Chat.MemoryCapacity)
	}

	if len(cfg.Chat.AffirmWords) == 0 || len(cfg.Chat.RejectWords) == 0 {
		t.Error("defaultConfig should ship non-empty confirmation vocabularies")
	}
}
