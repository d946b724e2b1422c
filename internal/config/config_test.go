package config

import (
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  defaultReadTimeout,
			WriteTimeout: defaultWriteTimeout,
		},
		Database: DatabaseConfig{
			Path:              "./data/streamhub.db",
			ConnectionTimeout: defaultDatabaseConnectionTimeout,
			EnableWAL:         true,
		},
		Logging: LoggingConfig{Level: "info"},
		Auth:    AuthConfig{TokenTTL: time.Hour},
		Playback: PlaybackConfig{
			ErrorSkipDelay:    3 * time.Second,
			WatchdogInterval:  5 * time.Second,
			ControlsHideDelay: 3 * time.Second,
			UnmuteDelay:       800 * time.Millisecond,
		},
		Redis: RedisConfig{Channel: defaultRedisChannel},
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != defaultServerPort {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, defaultServerPort)
	}
	if cfg.Database.Path != defaultDatabasePath {
		t.Errorf("Database.Path = %s, want %s", cfg.Database.Path, defaultDatabasePath)
	}
	if cfg.Logging.Level != defaultLogLevel {
		t.Errorf("Logging.Level = %s, want %s", cfg.Logging.Level, defaultLogLevel)
	}
	if cfg.Auth.TokenTTL != defaultTokenTTL {
		t.Errorf("Auth.TokenTTL = %v, want %v", cfg.Auth.TokenTTL, defaultTokenTTL)
	}
	if cfg.Playback.ErrorSkipDelay != defaultErrorSkipDelay {
		t.Errorf("Playback.ErrorSkipDelay = %v, want %v", cfg.Playback.ErrorSkipDelay, defaultErrorSkipDelay)
	}
	if cfg.Playback.ControlsHideDelay != defaultControlsHideDelay {
		t.Errorf("Playback.ControlsHideDelay = %v, want %v", cfg.Playback.ControlsHideDelay, defaultControlsHideDelay)
	}
	if cfg.Playback.PreferredQuality != defaultPreferredQuality {
		t.Errorf("Playback.PreferredQuality = %s, want %s", cfg.Playback.PreferredQuality, defaultPreferredQuality)
	}
	if cfg.Redis.Addr != "" {
		t.Errorf("Redis.Addr = %q, want empty", cfg.Redis.Addr)
	}
}

func TestConfigEnvOverride(t *testing.T) {
	t.Setenv("STREAMHUB_SERVER_PORT", "9090")
	t.Setenv("STREAMHUB_AUTH_DEFAULTPASSWORD", "admin2026")
	t.Setenv("STREAMHUB_PLAYBACK_ERRORSKIPDELAY", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Auth.DefaultPassword != "admin2026" {
		t.Errorf("Auth.DefaultPassword = %q, want admin2026", cfg.Auth.DefaultPassword)
	}
	if cfg.Playback.ErrorSkipDelay != 5*time.Second {
		t.Errorf("Playback.ErrorSkipDelay = %v, want 5s", cfg.Playback.ErrorSkipDelay)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*Config)
		wantErr    bool
		wantConfig bool
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "missing database path", mutate: func(c *Config) { c.Database.Path = "  " }, wantErr: true, wantConfig: true},
		{name: "port too high", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: true},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "trace" }, wantErr: true},
		{name: "zero token ttl", mutate: func(c *Config) { c.Auth.TokenTTL = 0 }, wantErr: true},
		{name: "zero skip delay", mutate: func(c *Config) { c.Playback.ErrorSkipDelay = 0 }, wantErr: true},
		{name: "negative unmute delay", mutate: func(c *Config) { c.Playback.UnmuteDelay = -time.Second }, wantErr: true},
		{name: "zero unmute delay", mutate: func(c *Config) { c.Playback.UnmuteDelay = 0 }},
		{name: "redis without channel", mutate: func(c *Config) { c.Redis.Addr = "localhost:6379"; c.Redis.Channel = "" }, wantErr: true},
		{name: "empty default password allowed", mutate: func(c *Config) { c.Auth.DefaultPassword = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantConfig && !IsConfigError(err) {
				t.Errorf("Validate() error = %v, want ConfigError", err)
			}
		})
	}
}
