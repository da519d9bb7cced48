// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML/TOML loading, env var expansion, defaults, and legacy env overrides

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
server:
  http_addr: "127.0.0.1:9090"

webhook:
  host: "rasa:5005"
  timeout: "10s"

sessions:
  backend: "dynamodb"
  table: "sessions-test"
  region: "us-west-2"
  endpoint: "http://localhost:8000"
  cache_ttl: "1m"
  cache_size: 50

mqtt:
  host: "broker.local"
  port: 8883
  username: "user"
  password: "pass"
  topic_prefix: "test/lex"
  publish_timeout: "2s"

identity:
  phone_attribute: "CallerNumber"

timezone: "UTC"

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "127.0.0.1:9090" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "127.0.0.1:9090")
	}
	if cfg.Webhook.Host != "rasa:5005" {
		t.Errorf("Webhook.Host = %q, want %q", cfg.Webhook.Host, "rasa:5005")
	}
	if cfg.Webhook.Timeout != 10*time.Second {
		t.Errorf("Webhook.Timeout = %v, want %v", cfg.Webhook.Timeout, 10*time.Second)
	}
	if cfg.Sessions.Backend != BackendDynamoDB {
		t.Errorf("Sessions.Backend = %q, want %q", cfg.Sessions.Backend, BackendDynamoDB)
	}
	if cfg.Sessions.Table != "sessions-test" {
		t.Errorf("Sessions.Table = %q, want %q", cfg.Sessions.Table, "sessions-test")
	}
	if cfg.Sessions.CacheTTL != time.Minute {
		t.Errorf("Sessions.CacheTTL = %v, want %v", cfg.Sessions.CacheTTL, time.Minute)
	}
	if cfg.Sessions.CacheSize != 50 {
		t.Errorf("Sessions.CacheSize = %d, want 50", cfg.Sessions.CacheSize)
	}
	if cfg.MQTT.Port != 8883 {
		t.Errorf("MQTT.Port = %d, want 8883", cfg.MQTT.Port)
	}
	if cfg.MQTT.PublishTimeout != 2*time.Second {
		t.Errorf("MQTT.PublishTimeout = %v, want %v", cfg.MQTT.PublishTimeout, 2*time.Second)
	}
	if !cfg.MQTT.Enabled() {
		t.Error("MQTT.Enabled() = false, want true")
	}
	if cfg.Identity.PhoneAttribute != "CallerNumber" {
		t.Errorf("Identity.PhoneAttribute = %q, want %q", cfg.Identity.PhoneAttribute, "CallerNumber")
	}
	// Unset identity keys still get defaults
	if cfg.Identity.ConversationAttribute != "ContactId" {
		t.Errorf("Identity.ConversationAttribute = %q, want %q", cfg.Identity.ConversationAttribute, "ContactId")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "json")
	}
}

func TestLoad_TOML(t *testing.T) {
	configPath := writeConfig(t, "config.toml", `
timezone = "UTC"

[webhook]
url = "http://rasa.internal/webhooks/rest/webhook"

[sessions]
backend = "memory"

[mqtt]
host = "broker"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Webhook.URL != "http://rasa.internal/webhooks/rest/webhook" {
		t.Errorf("Webhook.URL = %q", cfg.Webhook.URL)
	}
	if cfg.Sessions.Backend != BackendMemory {
		t.Errorf("Sessions.Backend = %q, want %q", cfg.Sessions.Backend, BackendMemory)
	}
	// Host alone is not a complete broker configuration
	if cfg.MQTT.Enabled() {
		t.Error("MQTT.Enabled() = true, want false without credentials")
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_MQTT_USER", "user-from-env")
	t.Setenv("TEST_MQTT_PASS", "pass-from-env")

	configPath := writeConfig(t, "config.yaml", `
mqtt:
  host: "broker"
  username: "${TEST_MQTT_USER}"
  password: "${TEST_MQTT_PASS}"
  client_id: "${TEST_UNSET_VAR}"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Username != "user-from-env" {
		t.Errorf("MQTT.Username = %q, want %q", cfg.MQTT.Username, "user-from-env")
	}
	if cfg.MQTT.Password != "pass-from-env" {
		t.Errorf("MQTT.Password = %q, want %q", cfg.MQTT.Password, "pass-from-env")
	}
	// Unset variable expands to empty, then the default applies
	if cfg.MQTT.ClientID != "lambdaRasa" {
		t.Errorf("MQTT.ClientID = %q, want %q", cfg.MQTT.ClientID, "lambdaRasa")
	}
}

func TestLoad_Defaults(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", "")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := Default()
	if cfg.Server.HTTPAddr != want.Server.HTTPAddr {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, want.Server.HTTPAddr)
	}
	if cfg.Sessions.Backend != BackendSQLite {
		t.Errorf("Sessions.Backend = %q, want %q", cfg.Sessions.Backend, BackendSQLite)
	}
	if cfg.Sessions.Table != "ris-sessions" {
		t.Errorf("Sessions.Table = %q, want %q", cfg.Sessions.Table, "ris-sessions")
	}
	if cfg.MQTT.Port != 1883 {
		t.Errorf("MQTT.Port = %d, want 1883", cfg.MQTT.Port)
	}
	if cfg.MQTT.TopicPrefix != "rasa/lex" {
		t.Errorf("MQTT.TopicPrefix = %q, want %q", cfg.MQTT.TopicPrefix, "rasa/lex")
	}
	if cfg.Identity.FallbackSender != "lex" {
		t.Errorf("Identity.FallbackSender = %q, want %q", cfg.Identity.FallbackSender, "lex")
	}
	if cfg.Timezone != "America/Los_Angeles" {
		t.Errorf("Timezone = %q, want %q", cfg.Timezone, "America/Los_Angeles")
	}
	if cfg.Webhook.Host != "" || cfg.Webhook.URL != "" {
		t.Error("webhook should be unset by default")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
webhook:
  timeout: "soon"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected error for invalid duration")
	}
	if !strings.Contains(err.Error(), "webhook.timeout") {
		t.Errorf("error should name the field, got: %v", err)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("Load() expected error for missing file")
	}
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	t.Setenv("RASA_HOST", "rasa:5005")

	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.Webhook.Host != "rasa:5005" {
		t.Errorf("Webhook.Host = %q, want %q", cfg.Webhook.Host, "rasa:5005")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"RASA_HOST":           "rasa:5005",
		"MQTT_HOST":           "broker",
		"MQTT_PORT":           "1884",
		"MQTT_USER":           "u",
		"MQTT_PASS":           "p",
		"LEX_GATEWAY_DB_PATH": "/tmp/s.db",
		"TZ_NAME":             "UTC",
	}

	cfg := Default()
	if err := cfg.ApplyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}

	if cfg.Webhook.Host != "rasa:5005" {
		t.Errorf("Webhook.Host = %q", cfg.Webhook.Host)
	}
	if cfg.MQTT.Port != 1884 {
		t.Errorf("MQTT.Port = %d, want 1884", cfg.MQTT.Port)
	}
	if !cfg.MQTT.Enabled() {
		t.Error("MQTT.Enabled() = false, want true")
	}
	if cfg.Sessions.Path != "/tmp/s.db" {
		t.Errorf("Sessions.Path = %q", cfg.Sessions.Path)
	}
	if cfg.Timezone != "UTC" {
		t.Errorf("Timezone = %q", cfg.Timezone)
	}
}

func TestApplyEnv_InvalidPort(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(func(k string) string {
		if k == "MQTT_PORT" {
			return "not-a-port"
		}
		return ""
	})
	if err == nil {
		t.Fatal("ApplyEnv() expected error for invalid MQTT_PORT")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			modify: func(c *Config) {},
		},
		{
			name:    "unknown backend",
			modify:  func(c *Config) { c.Sessions.Backend = "redis" },
			wantErr: "sessions.backend",
		},
		{
			name:    "sqlite without path",
			modify:  func(c *Config) { c.Sessions.Path = "" },
			wantErr: "sessions.path",
		},
		{
			name:    "dynamodb without table",
			modify:  func(c *Config) { c.Sessions.Backend = BackendDynamoDB; c.Sessions.Table = "" },
			wantErr: "sessions.table",
		},
		{
			name:    "port out of range",
			modify:  func(c *Config) { c.MQTT.Port = 70000 },
			wantErr: "mqtt.port",
		},
		{
			name:    "unknown timezone",
			modify:  func(c *Config) { c.Timezone = "Mars/Olympus_Mons" },
			wantErr: "timezone",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLocation(t *testing.T) {
	cfg := Default()
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("Location() error = %v", err)
	}
	if loc.String() != "America/Los_Angeles" {
		t.Errorf("Location() = %q, want %q", loc.String(), "America/Los_Angeles")
	}

	cfg.Timezone = "Nowhere/Special"
	if _, err := cfg.Location(); err == nil {
		t.Error("Location() expected error for unknown timezone")
	}
}

func TestApplyEnv_SessionsBackend(t *testing.T) {
	env := map[string]string{
		"LEX_GATEWAY_SESSIONS_BACKEND": "dynamodb",
		"LEX_GATEWAY_SESSIONS_TABLE":   "sessions-prod",
		"AWS_REGION":                   "us-east-1",
	}

	cfg := Default()
	if err := cfg.ApplyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}

	if cfg.Sessions.Backend != BackendDynamoDB {
		t.Errorf("Sessions.Backend = %q, want %q", cfg.Sessions.Backend, BackendDynamoDB)
	}
	if cfg.Sessions.Table != "sessions-prod" {
		t.Errorf("Sessions.Table = %q, want %q", cfg.Sessions.Table, "sessions-prod")
	}
	if cfg.Sessions.Region != "us-east-1" {
		t.Errorf("Sessions.Region = %q, want %q", cfg.Sessions.Region, "us-east-1")
	}
}

func TestApplyEnv_RegionDoesNotOverrideConfig(t *testing.T) {
	cfg := Default()
	cfg.Sessions.Region = "eu-west-1"
	if err := cfg.ApplyEnv(func(k string) string {
		if k == "AWS_REGION" {
			return "us-east-1"
		}
		return ""
	}); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}
	if cfg.Sessions.Region != "eu-west-1" {
		t.Errorf("Sessions.Region = %q, want %q", cfg.Sessions.Region, "eu-west-1")
	}
}

func TestLoadOrDefault_LambdaEnvironment(t *testing.T) {
	t.Setenv("RASA_HOST", "rasa:5005")
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "lex-rasa")
	t.Setenv("AWS_REGION", "us-west-2")

	cfg, err := LoadOrDefault("")
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}

	if cfg.Sessions.Backend != BackendDynamoDB {
		t.Errorf("Sessions.Backend = %q, want %q", cfg.Sessions.Backend, BackendDynamoDB)
	}
	if cfg.Sessions.Table != "ris-sessions" {
		t.Errorf("Sessions.Table = %q, want %q", cfg.Sessions.Table, "ris-sessions")
	}
	if cfg.Sessions.Region != "us-west-2" {
		t.Errorf("Sessions.Region = %q, want %q", cfg.Sessions.Region, "us-west-2")
	}
}

func TestApplyEnv_LambdaKeepsExplicitChoice(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		wantBackend string
	}{
		{
			name:        "explicit backend wins",
			env:         map[string]string{"AWS_LAMBDA_FUNCTION_NAME": "fn", "LEX_GATEWAY_SESSIONS_BACKEND": "memory"},
			wantBackend: BackendMemory,
		},
		{
			name:        "absolute sqlite path kept",
			env:         map[string]string{"AWS_LAMBDA_FUNCTION_NAME": "fn", "LEX_GATEWAY_DB_PATH": "/tmp/sessions.db"},
			wantBackend: BackendSQLite,
		},
		{
			name:        "outside lambda stays sqlite",
			env:         map[string]string{},
			wantBackend: BackendSQLite,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			if err := cfg.ApplyEnv(func(k string) string { return tt.env[k] }); err != nil {
				t.Fatalf("ApplyEnv() error = %v", err)
			}
			if cfg.Sessions.Backend != tt.wantBackend {
				t.Errorf("Sessions.Backend = %q, want %q", cfg.Sessions.Backend, tt.wantBackend)
			}
		})
	}
}

func TestLoad_CacheDisabled(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
sessions:
  backend: "memory"
  cache_size: -1
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Sessions.CacheEnabled() {
		t.Error("CacheEnabled() = true, want false for negative cache_size")
	}
}

func TestSessionsConfig_CacheEnabled(t *testing.T) {
	tests := []struct {
		name string
		ttl  time.Duration
		size int
		want bool
	}{
		{"defaults", 30 * time.Minute, 10_000, true},
		{"negative size", 30 * time.Minute, -1, false},
		{"negative ttl", -time.Second, 10_000, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := SessionsConfig{CacheTTL: tt.ttl, CacheSize: tt.size}
			if got := s.CacheEnabled(); got != tt.want {
				t.Errorf("CacheEnabled() = %v, want %v", got, tt.want)
			}
		})
	}
}
