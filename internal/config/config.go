// ABOUTME: Configuration loading and parsing for lex-gateway
// ABOUTME: Supports YAML or TOML files with environment variable expansion and duration parsing

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Session store backends
const (
	BackendSQLite   = "sqlite"
	BackendDynamoDB = "dynamodb"
	BackendMemory   = "memory"
)

// Config represents the complete lex-gateway configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" toml:"server"`
	Webhook  WebhookConfig  `yaml:"webhook" toml:"webhook"`
	Sessions SessionsConfig `yaml:"sessions" toml:"sessions"`
	MQTT     MQTTConfig     `yaml:"mqtt" toml:"mqtt"`
	Identity IdentityConfig `yaml:"identity" toml:"identity"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`

	// Timezone is applied to time.Local at startup (e.g. "America/Los_Angeles")
	Timezone string `yaml:"timezone" toml:"timezone"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr" toml:"http_addr"`
}

// WebhookConfig holds the conversational webhook (Rasa REST channel) configuration.
// Host is the legacy RASA_HOST form ("rasa:5005"); URL overrides it when set.
type WebhookConfig struct {
	Host       string        `yaml:"host" toml:"host"`
	URL        string        `yaml:"url" toml:"url"`
	Timeout    time.Duration `yaml:"-" toml:"-"`
	TimeoutRaw string        `yaml:"timeout" toml:"timeout"`
}

// SessionsConfig holds session existence store configuration
type SessionsConfig struct {
	Backend  string `yaml:"backend" toml:"backend"`   // sqlite, dynamodb, memory
	Path     string `yaml:"path" toml:"path"`         // sqlite database path
	Table    string `yaml:"table" toml:"table"`       // dynamodb table name
	Region   string `yaml:"region" toml:"region"`     // dynamodb region
	Endpoint string `yaml:"endpoint" toml:"endpoint"` // dynamodb endpoint override (DynamoDB Local)

	// A negative cache_ttl or cache_size disables the existence cache;
	// zero means unset and takes the default.
	CacheTTL    time.Duration `yaml:"-" toml:"-"`
	CacheTTLRaw string        `yaml:"cache_ttl" toml:"cache_ttl"`
	CacheSize   int           `yaml:"cache_size" toml:"cache_size"`
}

// CacheEnabled reports whether the existence cache should be used.
func (s SessionsConfig) CacheEnabled() bool {
	return s.CacheTTL > 0 && s.CacheSize > 0
}

// MQTTConfig holds broker configuration for the notification side channel.
// The side channel is only enabled when Host, Username and Password are all set.
type MQTTConfig struct {
	Host        string `yaml:"host" toml:"host"`
	Port        int    `yaml:"port" toml:"port"`
	Username    string `yaml:"username" toml:"username"`
	Password    string `yaml:"password" toml:"password"`
	ClientID    string `yaml:"client_id" toml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix" toml:"topic_prefix"`

	PublishTimeout    time.Duration `yaml:"-" toml:"-"`
	PublishTimeoutRaw string        `yaml:"publish_timeout" toml:"publish_timeout"`
}

// Enabled reports whether a complete broker configuration is present.
func (m MQTTConfig) Enabled() bool {
	return m.Host != "" && m.Username != "" && m.Password != ""
}

// IdentityConfig names the session attributes used to resolve the sender
type IdentityConfig struct {
	PhoneAttribute        string `yaml:"phone_attribute" toml:"phone_attribute"`
	ConversationAttribute string `yaml:"conversation_attribute" toml:"conversation_attribute"`
	FallbackSender        string `yaml:"fallback_sender" toml:"fallback_sender"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Default returns a configuration with every default applied and no webhook
// or broker configured. Used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are decoded as TOML, everything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(expandedData, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault loads the config at path, falling back to Default when the
// file does not exist. Legacy environment overrides are applied in both cases.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = Default()
	} else if err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overlays the legacy environment variables used by the
// Lambda deployment: RASA_HOST, MQTT_HOST, MQTT_USER, MQTT_PASS, plus
// LEX_GATEWAY_DB_PATH, LEX_GATEWAY_SESSIONS_BACKEND, LEX_GATEWAY_SESSIONS_TABLE,
// AWS_REGION and TZ_NAME. Unset variables leave the config untouched.
//
// Inside Lambda (AWS_LAMBDA_FUNCTION_NAME set) a sqlite store on a relative
// path cannot be written, so unless a backend is chosen explicitly through
// LEX_GATEWAY_SESSIONS_BACKEND the sessions move to DynamoDB.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("RASA_HOST"); v != "" {
		c.Webhook.Host = v
	}
	if v := getenv("MQTT_HOST"); v != "" {
		c.MQTT.Host = v
	}
	if v := getenv("MQTT_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing MQTT_PORT %q: %w", v, err)
		}
		c.MQTT.Port = port
	}
	if v := getenv("MQTT_USER"); v != "" {
		c.MQTT.Username = v
	}
	if v := getenv("MQTT_PASS"); v != "" {
		c.MQTT.Password = v
	}
	if v := getenv("LEX_GATEWAY_DB_PATH"); v != "" {
		c.Sessions.Path = v
	}
	if v := getenv("LEX_GATEWAY_SESSIONS_TABLE"); v != "" {
		c.Sessions.Table = v
	}
	if v := getenv("AWS_REGION"); v != "" && c.Sessions.Region == "" {
		c.Sessions.Region = v
	}
	if v := getenv("LEX_GATEWAY_SESSIONS_BACKEND"); v != "" {
		c.Sessions.Backend = v
	} else if getenv("AWS_LAMBDA_FUNCTION_NAME") != "" &&
		c.Sessions.Backend == BackendSQLite && !filepath.IsAbs(c.Sessions.Path) {
		c.Sessions.Backend = BackendDynamoDB
	}
	if v := getenv("TZ_NAME"); v != "" {
		c.Timezone = v
	}
	return nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyDefaults fills in zero-valued fields
func applyDefaults(cfg *Config) {
	if cfg.Server.HTTPAddr == "" {
		cfg.Server.HTTPAddr = "0.0.0.0:8080"
	}
	if cfg.Webhook.Timeout == 0 {
		cfg.Webhook.Timeout = 30 * time.Second
	}

	if cfg.Sessions.Backend == "" {
		cfg.Sessions.Backend = BackendSQLite
	}
	if cfg.Sessions.Path == "" {
		cfg.Sessions.Path = "lex-gateway.db"
	}
	if cfg.Sessions.Table == "" {
		cfg.Sessions.Table = "ris-sessions"
	}
	if cfg.Sessions.CacheTTL == 0 {
		cfg.Sessions.CacheTTL = 30 * time.Minute
	}
	if cfg.Sessions.CacheSize == 0 {
		cfg.Sessions.CacheSize = 10_000
	}

	if cfg.MQTT.Port == 0 {
		cfg.MQTT.Port = 1883
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "lambdaRasa"
	}
	if cfg.MQTT.TopicPrefix == "" {
		cfg.MQTT.TopicPrefix = "rasa/lex"
	}
	if cfg.MQTT.PublishTimeout == 0 {
		cfg.MQTT.PublishTimeout = 5 * time.Second
	}

	if cfg.Identity.PhoneAttribute == "" {
		cfg.Identity.PhoneAttribute = "PhoneNumber"
	}
	if cfg.Identity.ConversationAttribute == "" {
		cfg.Identity.ConversationAttribute = "ContactId"
	}
	if cfg.Identity.FallbackSender == "" {
		cfg.Identity.FallbackSender = "lex"
	}

	if cfg.Timezone == "" {
		cfg.Timezone = "America/Los_Angeles"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
// A missing webhook is not an error: turns are answered with a configuration
// message until one is set.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	switch c.Sessions.Backend {
	case BackendSQLite:
		if c.Sessions.Path == "" {
			return fmt.Errorf("sessions.path is required for the sqlite backend")
		}
	case BackendDynamoDB:
		if c.Sessions.Table == "" {
			return fmt.Errorf("sessions.table is required for the dynamodb backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("sessions.backend %q is not one of sqlite, dynamodb, memory", c.Sessions.Backend)
	}

	if c.MQTT.Port <= 0 || c.MQTT.Port > 65535 {
		return fmt.Errorf("mqtt.port %d is out of range", c.MQTT.Port)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}

	return nil
}

// Location returns the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"webhook.timeout", cfg.Webhook.TimeoutRaw, &cfg.Webhook.Timeout},
		{"sessions.cache_ttl", cfg.Sessions.CacheTTLRaw, &cfg.Sessions.CacheTTL},
		{"mqtt.publish_timeout", cfg.MQTT.PublishTimeoutRaw, &cfg.MQTT.PublishTimeout},
	}

	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}

	return nil
}
