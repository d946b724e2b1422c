// Package config provides configuration management using Viper.
// It loads configuration from environment variables, .env files, and config files.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultServerPort                = 8080
	defaultServerHost                = "0.0.0.0"
	defaultReadTimeout               = 30 * time.Second
	defaultWriteTimeout              = 30 * time.Second
	defaultDatabasePath              = "./data/streamhub.db"
	defaultDatabaseConnectionTimeout = 5 * time.Second
	defaultDatabaseEnableWAL         = true
	defaultLogLevel                  = "info"
	defaultLogPretty                 = false
	defaultTokenTTL                  = 12 * time.Hour
	defaultErrorSkipDelay            = 3 * time.Second
	defaultWatchdogInterval          = 5 * time.Second
	defaultControlsHideDelay         = 3 * time.Second
	defaultUnmuteDelay               = 800 * time.Millisecond
	defaultPreferredQuality          = "hd1080"
	defaultRedisChannel              = "streamhub:playlist"
	envPrefix                        = "STREAMHUB"
)

// ConfigError reports configuration the service cannot start without.
// It is fatal at startup and never retried.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration needed: %s %s", e.Field, e.Reason)
}

// IsConfigError reports whether err is (or wraps) a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logging  LoggingConfig
	Auth     AuthConfig
	Playback PlaybackConfig
	Redis    RedisConfig
	Realtime RealtimeConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Path              string
	ConnectionTimeout time.Duration
	EnableWAL         bool
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Pretty bool
}

// AuthConfig holds the admin password fallback and session token settings.
// DefaultPassword is used only when the settings record holds no override.
type AuthConfig struct {
	DefaultPassword string
	TokenSecret     string
	TokenTTL        time.Duration
}

// PlaybackConfig tunes the display session state machine.
type PlaybackConfig struct {
	ErrorSkipDelay    time.Duration
	WatchdogInterval  time.Duration
	ControlsHideDelay time.Duration
	UnmuteDelay       time.Duration
	PreferredQuality  string
	// Origin locks the embedded player to a page origin. Empty uses the
	// origin each display connects from.
	Origin string
}

// RedisConfig enables cross-instance change fan-out when Addr is set.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// RealtimeConfig holds websocket settings.
type RealtimeConfig struct {
	AllowedOrigins []string
}

// Load reads configuration from .env file, config files, environment variables, and defaults
func Load() (*Config, error) {
	// .env files are optional in production and CI where env vars are set directly
	_ = godotenv.Load() // nolint:errcheck // .env file is optional

	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/streamhub")

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options.
// Every key needs a default so AutomaticEnv can bind it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("server.host", defaultServerHost)
	v.SetDefault("server.readtimeout", defaultReadTimeout)
	v.SetDefault("server.writetimeout", defaultWriteTimeout)

	v.SetDefault("database.path", defaultDatabasePath)
	v.SetDefault("database.connectiontimeout", defaultDatabaseConnectionTimeout)
	v.SetDefault("database.enablewal", defaultDatabaseEnableWAL)

	v.SetDefault("logging.level", defaultLogLevel)
	v.SetDefault("logging.pretty", defaultLogPretty)

	v.SetDefault("auth.defaultpassword", "")
	v.SetDefault("auth.tokensecret", "")
	v.SetDefault("auth.tokenttl", defaultTokenTTL)

	v.SetDefault("playback.errorskipdelay", defaultErrorSkipDelay)
	v.SetDefault("playback.watchdoginterval", defaultWatchdogInterval)
	v.SetDefault("playback.controlshidedelay", defaultControlsHideDelay)
	v.SetDefault("playback.unmutedelay", defaultUnmuteDelay)
	v.SetDefault("playback.preferredquality", defaultPreferredQuality)
	v.SetDefault("playback.origin", "")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel", defaultRedisChannel)

	v.SetDefault("realtime.allowedorigins", []string{})
}

// Validate checks that configuration values are valid
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return &ConfigError{Field: "database.path", Reason: "is empty"}
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("invalid read timeout: %v (must be > 0)", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("invalid write timeout: %v (must be > 0)", c.Server.WriteTimeout)
	}
	if c.Database.ConnectionTimeout <= 0 {
		return fmt.Errorf("invalid database connection timeout: %v (must be > 0)", c.Database.ConnectionTimeout)
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.Logging.Level, strings.Join(validLevels, ", "))
	}

	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("invalid token ttl: %v (must be > 0)", c.Auth.TokenTTL)
	}

	durations := map[string]time.Duration{
		"playback.errorskipdelay":    c.Playback.ErrorSkipDelay,
		"playback.watchdoginterval":  c.Playback.WatchdogInterval,
		"playback.controlshidedelay": c.Playback.ControlsHideDelay,
	}
	for name, d := range durations {
		if d <= 0 {
			return fmt.Errorf("invalid %s: %v (must be > 0)", name, d)
		}
	}
	if c.Playback.UnmuteDelay < 0 {
		return fmt.Errorf("invalid playback.unmutedelay: %v (must be >= 0)", c.Playback.UnmuteDelay)
	}

	if c.Redis.Addr != "" && c.Redis.Channel == "" {
		return fmt.Errorf("redis.channel is required when redis.addr is set")
	}

	// An empty default password is allowed: login then depends on the
	// settings override and fails closed without one.

	return nil
}

// contains checks if a string slice contains a specific value
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
