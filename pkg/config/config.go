package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "FOUTA"

// Config holds all configuration for the application
type Config struct {
	Database   DatabaseConfig
	Store      StoreConfig
	Redis      RedisConfig
	Server     ServerConfig
	Scheduler  SchedulerConfig
	Publishing PublishingConfig
	Logging    LoggingConfig
	Telemetry  TelemetryConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// StoreConfig selects and tunes the document store
type StoreConfig struct {
	Driver   string // "memory" or "postgres"
	AppID    string
	PageSize int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL     string
	Enabled bool
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int
	Host string
}

// SchedulerConfig holds tick intervals for the time-triggered jobs
type SchedulerConfig struct {
	PublishInterval  time.Duration
	StoriesInterval  time.Duration
	DispatchInterval time.Duration
	RollupEnabled    bool
	LockTTL          time.Duration
}

// PublishingConfig holds scheduled-post publishing settings
type PublishingConfig struct {
	Enabled          bool
	ForbiddenTerms   []string
	MaxContentLength int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string
	Format     string // "json" or "text"
	FlatFormat bool   // single-level JSON objects for log aggregators
}

// TelemetryConfig holds observability configuration
type TelemetryConfig struct {
	Enabled           bool
	JaegerURL         string
	PrometheusEnabled bool
	ServiceName       string
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	setDefaults()

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.fouta")
	viper.AddConfigPath("/etc/fouta")

	if err := viper.ReadInConfig(); err != nil {
		// Env vars alone are enough
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Database: DatabaseConfig{
			URL: getString("database_url", ""),
		},
		Store: StoreConfig{
			Driver:   getString("store_driver", "memory"),
			AppID:    getString("app_id", "fouta-app"),
			PageSize: getInt("page_size", 500),
		},
		Redis: RedisConfig{
			URL:     getString("redis_url", ""),
			Enabled: getString("redis_url", "") != "",
		},
		Server: ServerConfig{
			Port: getInt("http_server_port", 8080),
			Host: getString("http_server_host", "0.0.0.0"),
		},
		Scheduler: SchedulerConfig{
			PublishInterval:  getDuration("publish_interval", 5*time.Minute),
			StoriesInterval:  getDuration("stories_interval", time.Hour),
			DispatchInterval: getDuration("dispatch_interval", 5*time.Minute),
			RollupEnabled:    getBool("rollup_enabled", true),
			LockTTL:          getDuration("lock_ttl", 10*time.Minute),
		},
		Publishing: PublishingConfig{
			Enabled:          getBool("scheduled_posts_enabled", false),
			ForbiddenTerms:   getStringSlice("forbidden_terms", []string{"spam", "scam", "fake"}),
			MaxContentLength: getInt("max_content_length", 5000),
		},
		Logging: LoggingConfig{
			Level:      getString("log_level", "INFO"),
			Format:     getString("log_format", "json"),
			FlatFormat: getBool("log_flat_format", false),
		},
		Telemetry: TelemetryConfig{
			Enabled:           getBool("telemetry_enabled", false),
			JaegerURL:         getString("jaeger_url", ""),
			PrometheusEnabled: getBool("prometheus_enabled", true),
			ServiceName:       getString("service_name", "fouta-functions"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("store_driver", "memory")
	viper.SetDefault("app_id", "fouta-app")
	viper.SetDefault("page_size", 500)
	viper.SetDefault("http_server_port", 8080)
	viper.SetDefault("http_server_host", "0.0.0.0")
	viper.SetDefault("publish_interval", "5m")
	viper.SetDefault("stories_interval", "60m")
	viper.SetDefault("dispatch_interval", "5m")
	viper.SetDefault("rollup_enabled", true)
	viper.SetDefault("lock_ttl", "10m")
	viper.SetDefault("scheduled_posts_enabled", false)
	viper.SetDefault("max_content_length", 5000)
	viper.SetDefault("log_level", "INFO")
	viper.SetDefault("log_format", "json")
	viper.SetDefault("telemetry_enabled", false)
	viper.SetDefault("prometheus_enabled", true)
	viper.SetDefault("service_name", "fouta-functions")
}

func getString(key, defaultValue string) string {
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	if val := os.Getenv(toEnvKey(key)); val != "" {
		return val
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if viper.IsSet(key) {
		return viper.GetInt(key)
	}
	if val := os.Getenv(toEnvKey(key)); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if viper.IsSet(key) {
		return viper.GetBool(key)
	}
	if val := os.Getenv(toEnvKey(key)); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if viper.IsSet(key) {
		if d := viper.GetDuration(key); d > 0 {
			return d
		}
	}
	return defaultValue
}

// getStringSlice accepts a YAML list or a comma separated env value
func getStringSlice(key string, defaultValue []string) []string {
	if !viper.IsSet(key) {
		return defaultValue
	}
	var out []string
	for _, v := range viper.GetStringSlice(key) {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func toEnvKey(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "memory":
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("database_url is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown store_driver %q", c.Store.Driver)
	}
	if c.Store.AppID == "" {
		return fmt.Errorf("app_id is required")
	}
	if c.Store.PageSize <= 0 || c.Store.PageSize > 10000 {
		return fmt.Errorf("page_size must be between 1 and 10000")
	}
	if c.Publishing.MaxContentLength <= 0 {
		return fmt.Errorf("max_content_length must be positive")
	}
	if c.Scheduler.PublishInterval < time.Minute {
		return fmt.Errorf("publish_interval must be at least 1m")
	}
	if c.Scheduler.StoriesInterval < time.Minute || c.Scheduler.DispatchInterval < time.Minute {
		return fmt.Errorf("stories_interval and dispatch_interval must be at least 1m")
	}
	if c.Scheduler.LockTTL <= 0 {
		return fmt.Errorf("lock_ttl must be positive")
	}
	return nil
}
