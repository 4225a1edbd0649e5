package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like HUB_BASE_URL
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overrides, ignored when absent
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if cfg.App.Environment == "" {
		cfg.App.Environment = env
	}

	if cfg.Hub.BaseURL == "" {
		return nil, fmt.Errorf("hub.base_url is required")
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("app.name", "notification-agent")
	viper.SetDefault("hub.request_timeout", 15000)
	viper.SetDefault("polling.interval", 30)
	viper.SetDefault("cache.enabled", false)
	viper.SetDefault("cache.ttl", 86400)
	viper.SetDefault("cache.redis.address", "localhost:6379")
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.port", 9090)
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "console")
}

// loadEnvFile loads a .env from the working directory or any parent of it.
func loadEnvFile() {
	candidates := []string{".env", "../.env", "../../.env"}

	for _, candidate := range candidates {
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		if _, err := os.Stat(abs); err == nil {
			_ = godotenv.Load(abs)
			return
		}
	}
}
