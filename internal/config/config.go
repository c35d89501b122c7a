package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Environment string          `mapstructure:"environment"`
	Server      ServerConfig    `mapstructure:"server"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Kafka       KafkaConfig     `mapstructure:"kafka"`
	Dashboard   DashboardConfig `mapstructure:"dashboard"`
	Logging     LoggingConfig   `mapstructure:"logging"`
	Metrics     MetricsConfig   `mapstructure:"metrics"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
	IdleTimeout  int `mapstructure:"idle_timeout"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	Database int    `mapstructure:"database"`
	PoolSize int    `mapstructure:"pool_size"`
}

// DatabaseConfig contains the durable record store connection settings
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// DSN builds the Postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.Username, d.Password, d.Name, d.SSLMode)
}

// KafkaConfig contains the deal change-event consumer settings
type KafkaConfig struct {
	Enabled       bool     `mapstructure:"enabled"`
	Brokers       []string `mapstructure:"brokers"`
	DealEvents    string   `mapstructure:"deal_events_topic"`
	ConsumerGroup string   `mapstructure:"consumer_group"`
}

// DashboardConfig contains the aggregation engine knobs
type DashboardConfig struct {
	// StoreBackend selects which record store implementation serves raw
	// deal records: "redis" or "postgres".
	StoreBackend           string `mapstructure:"store_backend"`
	GoalDealsPerPeriod     int    `mapstructure:"goal_deals_per_period"`
	DefaultTimePeriod      string `mapstructure:"default_time_period"`
	RefreshIntervalSeconds int    `mapstructure:"refresh_interval_seconds"`
	CacheEnabled           bool   `mapstructure:"cache_enabled"`
	// NightlyRefreshSchedule is a cron expression for the scheduled
	// full refresh and cache sweep.
	NightlyRefreshSchedule string `mapstructure:"nightly_refresh_schedule"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("DASHBOARD_ENGINE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); !ok {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
		// Missing file falls back to defaults and environment variables.
	}

	overrideWithEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.idle_timeout", 120)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "dealerpulse")
	v.SetDefault("database.ssl_mode", "disable")

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.deal_events_topic", "deal-events")
	v.SetDefault("kafka.consumer_group", "dashboard-engine")

	v.SetDefault("dashboard.store_backend", "redis")
	v.SetDefault("dashboard.goal_deals_per_period", 15)
	v.SetDefault("dashboard.default_time_period", "this-month")
	v.SetDefault("dashboard.refresh_interval_seconds", 30)
	v.SetDefault("dashboard.cache_enabled", true)
	v.SetDefault("dashboard.nightly_refresh_schedule", "0 0 3 * * *")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.endpoint", "/metrics")
}

// overrideWithEnvVars overrides configuration with environment variables
func overrideWithEnvVars(v *viper.Viper) {
	if host := os.Getenv("REDIS_HOST"); host != "" {
		v.Set("redis.host", host)
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		v.Set("redis.password", password)
	}
	if host := os.Getenv("DATABASE_HOST"); host != "" {
		v.Set("database.host", host)
	}
	if password := os.Getenv("DATABASE_PASSWORD"); password != "" {
		v.Set("database.password", password)
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		v.Set("kafka.brokers", strings.Split(brokers, ","))
	}
}
