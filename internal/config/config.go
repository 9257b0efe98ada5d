package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Storefront StorefrontConfig `mapstructure:"storefront"`
	Cart       CartConfig       `mapstructure:"cart"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Log        LogConfig        `mapstructure:"log"`
}

// StorefrontConfig holds storefront backend API configuration
type StorefrontConfig struct {
	BaseURL                string   `mapstructure:"base_url"`
	Timeout                int      `mapstructure:"timeout"`
	MaxRetries             int      `mapstructure:"max_retries"`
	MaxRequestsPerSecond   int      `mapstructure:"max_requests_per_second"`
	CircuitBreakerCooldown int      `mapstructure:"circuit_breaker_cooldown"`
	InsecureSkipVerify     bool     `mapstructure:"insecure_skip_verify"`
	Proxies                []string `mapstructure:"proxies"`

	// Session
	AuthToken   string `mapstructure:"auth_token"`
	CartSession string `mapstructure:"cart_session"`
	UserID      string `mapstructure:"user_id"`
}

// CartConfig holds display and caching settings of the cart engine
type CartConfig struct {
	Currency          string `mapstructure:"currency"`
	CandidateCacheTTL int    `mapstructure:"candidate_cache_ttl"`
	PublishReports    bool   `mapstructure:"publish_reports"`
	RecordCommits     bool   `mapstructure:"record_commits"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// DSN builds the pgx connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.Name)
}

// RedisConfig holds Redis connection details
type RedisConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Password      string `mapstructure:"password"`
	Database      int    `mapstructure:"database"`
	ConsumerGroup string `mapstructure:"consumer_group"`
	MinIdleTime   int    `mapstructure:"min_idle_time"`
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// LogConfig holds logrus settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from config.yaml with environment variable overrides.
// A missing config file is not an error: defaults and environment are used.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper(), ".")
}

// LoadFrom reads the configuration through v, looking for config.yaml in paths.
func LoadFrom(v *viper.Viper, paths ...string) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks settings that have no usable default
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Storefront.BaseURL) == "" {
		return fmt.Errorf("storefront.base_url is required")
	}
	if c.Storefront.Timeout <= 0 {
		return fmt.Errorf("storefront.timeout must be positive, got %d", c.Storefront.Timeout)
	}
	if c.Storefront.MaxRetries < 0 {
		return fmt.Errorf("storefront.max_retries must not be negative, got %d", c.Storefront.MaxRetries)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("storefront.base_url", "http://localhost:8000/api")
	v.SetDefault("storefront.timeout", 15)
	v.SetDefault("storefront.max_retries", 2)
	v.SetDefault("storefront.max_requests_per_second", 10)
	v.SetDefault("storefront.circuit_breaker_cooldown", 60)
	v.SetDefault("storefront.insecure_skip_verify", false)
	v.SetDefault("storefront.auth_token", "")
	v.SetDefault("storefront.cart_session", "")
	v.SetDefault("storefront.user_id", "")

	v.SetDefault("cart.currency", "EUR")
	v.SetDefault("cart.candidate_cache_ttl", 300)
	v.SetDefault("cart.publish_reports", false)
	v.SetDefault("cart.record_commits", false)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "storefront")
	v.SetDefault("database.user", "storefront_user")
	v.SetDefault("database.password", "storefront_pass")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.consumer_group", "storefront_notifier")
	v.SetDefault("redis.min_idle_time", 120)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}
