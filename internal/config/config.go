// Package config loads the proxy configuration from a YAML file, a .env
// file and OPENMART_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Sternrassler/openmart-client/pkg/client"
)

// EnvPrefix is prepended to every environment override, e.g. OPENMART_API_KEY
// or OPENMART_REDIS_ADDR.
const EnvPrefix = "OPENMART"

// Config is the proxy configuration.
type Config struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`

	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`

	Port string `mapstructure:"port"`

	// CORSOrigins enables CORS on the proxy for these origins.
	CORSOrigins []string `mapstructure:"cors_origins"`

	Redis RedisConfig `mapstructure:"redis"`
	Cache CacheConfig `mapstructure:"cache"`
	Log   LogConfig   `mapstructure:"log"`
}

// RedisConfig configures the shared Redis instance. An empty Addr disables
// caching and keeps rate-limit state in memory.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CacheConfig configures the response cache.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// LogConfig configures zerolog.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// Options controls where Load looks.
type Options struct {
	// ConfigFile is an explicit YAML file. When empty, config.yaml is looked
	// up in ./configs and the working directory; a missing file is not an error.
	ConfigFile string

	// EnvFiles are loaded with godotenv before reading the environment.
	// Missing files are skipped. Already set variables are not overwritten.
	EnvFiles []string
}

// DefaultOptions returns options that read ./.env and config.yaml.
func DefaultOptions() Options {
	return Options{EnvFiles: []string{".env"}}
}

// Load reads the configuration. Precedence: environment, then the YAML
// file, then defaults.
func Load(opts Options) (*Config, error) {
	if err := loadEnvFiles(opts.EnvFiles); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading base config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFiles(paths []string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Every key needs a default so AutomaticEnv can see it during Unmarshal.
	v.SetDefault("api_key", "")
	v.SetDefault("base_url", client.DefaultBaseURL)
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("max_retries", 0)
	v.SetDefault("initial_backoff", time.Second)
	v.SetDefault("port", "8080")
	v.SetDefault("cors_origins", []string{})

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", 5*time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

// Validate checks required fields and ranges.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("api_key is required (set %s_API_KEY)", EnvPrefix)
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative")
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	return nil
}

// RedisEnabled reports whether a Redis address is configured.
func (c *Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}

// ClientConfig maps the loaded values onto a client configuration. Cache and
// rate limiter are left for the caller to attach.
func (c *Config) ClientConfig() client.Config {
	cfg := client.DefaultConfig(c.APIKey)
	cfg.BaseURL = c.BaseURL
	cfg.Timeout = c.Timeout
	cfg.MaxRetries = c.MaxRetries
	cfg.InitialBackoff = c.InitialBackoff
	if c.Cache.TTL > 0 {
		cfg.CacheTTL = c.Cache.TTL
	}
	return cfg
}
