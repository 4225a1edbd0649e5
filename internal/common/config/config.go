package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Hub     HubConfig     `mapstructure:"hub"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Polling PollingConfig `mapstructure:"polling"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// HubConfig holds connection settings for the Borrowing Hub backend API.
type HubConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

// GetRequestTimeout returns the request timeout as a duration, defaulting to 15s.
func (h HubConfig) GetRequestTimeout() time.Duration {
	if h.RequestTimeout <= 0 {
		return 15 * time.Second
	}
	return time.Duration(h.RequestTimeout) * time.Millisecond
}

// AuthConfig holds session authentication settings.
type AuthConfig struct {
	TokenURL string `mapstructure:"token_url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	// Token short-circuits the login flow when a pre-issued bearer token is supplied.
	Token string `mapstructure:"token"`
}

// PollingConfig holds the refresh cadence of the notification poller.
type PollingConfig struct {
	Interval int `mapstructure:"interval"` // seconds
}

// GetInterval returns the polling interval as a duration, defaulting to 30s.
func (p PollingConfig) GetInterval() time.Duration {
	if p.Interval <= 0 {
		return 30 * time.Second
	}
	return time.Duration(p.Interval) * time.Second
}

// CacheConfig holds snapshot cache settings.
type CacheConfig struct {
	Enabled bool        `mapstructure:"enabled"`
	TTL     int         `mapstructure:"ttl"` // seconds
	Redis   RedisConfig `mapstructure:"redis"`
}

// GetTTL returns the snapshot TTL as a duration, defaulting to 24h.
func (c CacheConfig) GetTTL() time.Duration {
	if c.TTL <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.TTL) * time.Second
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// MetricsConfig holds the metrics/pprof listener settings.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// GetListenAddr returns the listen address for the metrics endpoint.
func (m MetricsConfig) GetListenAddr() string {
	port := m.Port
	if port <= 0 {
		port = 9090
	}
	return fmt.Sprintf(":%d", port)
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
