// Package config loads and validates application configuration from YAML
// files with environment-variable overrides. It provides typed structs for
// every subsystem (Server, Sources, Cache, Retry, Insights, etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Sources   SourcesConfig   `yaml:"sources"`
	Cache     CacheConfig     `yaml:"cache"`
	Redis     RedisConfig     `yaml:"redis"`
	Retry     RetryConfig     `yaml:"retry"`
	Search    SearchConfig    `yaml:"search"`
	Insights  InsightsConfig  `yaml:"insights"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               int           `yaml:"port"`
	ReadTimeout        time.Duration `yaml:"readTimeout"`
	WriteTimeout       time.Duration `yaml:"writeTimeout"`
	RequestTimeout     time.Duration `yaml:"requestTimeout"`
	ShutdownTimeout    time.Duration `yaml:"shutdownTimeout"`
	AllowedOrigins     []string      `yaml:"allowedOrigins"`
	RateLimitPerMinute int           `yaml:"rateLimitPerMinute"`
}

// SourcesConfig groups the three upstream data sources.
type SourcesConfig struct {
	Federal       SourceConfig `yaml:"federal"`
	CityLobbying  SourceConfig `yaml:"cityLobbying"`
	CityContracts SourceConfig `yaml:"cityContracts"`
}

// SourceConfig holds the connection parameters for one upstream API.
// BrowseAllTypes lists the search types that may run with an empty query
// text against this source; types not listed require a search term.
type SourceConfig struct {
	BaseURL         string        `yaml:"baseUrl"`
	APIKey          string        `yaml:"apiKey"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
	CacheTTL        time.Duration `yaml:"cacheTTL"`
	BrowseAllTypes  []string      `yaml:"browseAllTypes"`
	ContractDataset string        `yaml:"contractDataset"`
}

// CacheConfig controls the in-process result cache.
type CacheConfig struct {
	MaxEntries     int           `yaml:"maxEntries"`
	StaleRetention time.Duration `yaml:"staleRetention"`
	UseRedis       bool          `yaml:"useRedis"`
}

// RedisConfig holds connection parameters for the optional shared cache
// store. Only consulted when cache.useRedis is true.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"poolSize"`
}

// RetryConfig controls the upstream retry/backoff policy. AttemptTimeout
// bounds a single attempt inside the retry loop, independent of the overall
// search deadline.
type RetryConfig struct {
	MaxAttempts    int           `yaml:"maxAttempts"`
	InitialDelay   time.Duration `yaml:"initialDelay"`
	MaxDelay       time.Duration `yaml:"maxDelay"`
	Multiplier     float64       `yaml:"multiplier"`
	JitterFraction float64       `yaml:"jitterFraction"`
	AttemptTimeout time.Duration `yaml:"attemptTimeout"`
}

// SearchConfig controls pagination bounds and the overall search deadline.
type SearchConfig struct {
	DefaultPageSize int           `yaml:"defaultPageSize"`
	MaxPageSize     int           `yaml:"maxPageSize"`
	Deadline        time.Duration `yaml:"deadline"`
}

// InsightsConfig controls the aggregation engine.
type InsightsConfig struct {
	TopN      int `yaml:"topN"`
	FetchSize int `yaml:"fetchSize"`
}

// AnalyticsConfig controls the optional Kafka search-event publisher.
type AnalyticsConfig struct {
	Enabled    bool     `yaml:"enabled"`
	Brokers    []string `yaml:"brokers"`
	Topic      string   `yaml:"topic"`
	BufferSize int      `yaml:"bufferSize"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// defaultConfig returns a Config with working defaults for local development.
// Disclosure filings change quarterly at most, so the lobbying sources get a
// long TTL; contract registrations move faster and get a short one.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:               8080,
			ReadTimeout:        30 * time.Second,
			WriteTimeout:       60 * time.Second,
			RequestTimeout:     55 * time.Second,
			ShutdownTimeout:    15 * time.Second,
			AllowedOrigins:     []string{"*"},
			RateLimitPerMinute: 120,
		},
		Sources: SourcesConfig{
			Federal: SourceConfig{
				BaseURL:        "https://lda.senate.gov/api/v1",
				RequestTimeout: 45 * time.Second,
				CacheTTL:       24 * time.Hour,
			},
			CityLobbying: SourceConfig{
				BaseURL:        "https://lobbyistsearch.nyc.gov/api/v1",
				RequestTimeout: 30 * time.Second,
				CacheTTL:       12 * time.Hour,
			},
			CityContracts: SourceConfig{
				BaseURL:         "https://data.cityofnewyork.us/resource",
				RequestTimeout:  30 * time.Second,
				CacheTTL:        1 * time.Hour,
				ContractDataset: "6vm5-bzd6",
			},
		},
		Cache: CacheConfig{
			MaxEntries:     512,
			StaleRetention: 7 * 24 * time.Hour,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
		},
		Retry: RetryConfig{
			MaxAttempts:    3,
			InitialDelay:   500 * time.Millisecond,
			MaxDelay:       10 * time.Second,
			Multiplier:     2.0,
			JitterFraction: 0.1,
			AttemptTimeout: 20 * time.Second,
		},
		Search: SearchConfig{
			DefaultPageSize: 25,
			MaxPageSize:     200,
			Deadline:        50 * time.Second,
		},
		Insights: InsightsConfig{
			TopN:      10,
			FetchSize: 100,
		},
		Analytics: AnalyticsConfig{
			Enabled:    false,
			Brokers:    []string{"localhost:9092"},
			Topic:      "search-events",
			BufferSize: 1000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

func (c *Config) validate() error {
	if c.Search.DefaultPageSize < 1 || c.Search.DefaultPageSize > c.Search.MaxPageSize {
		return fmt.Errorf("search.defaultPageSize %d outside [1, %d]", c.Search.DefaultPageSize, c.Search.MaxPageSize)
	}
	if c.Cache.MaxEntries < 1 {
		return fmt.Errorf("cache.maxEntries must be positive, got %d", c.Cache.MaxEntries)
	}
	if c.Insights.TopN < 1 {
		return fmt.Errorf("insights.topN must be positive, got %d", c.Insights.TopN)
	}
	return nil
}

// applyEnvOverrides reads VIH_* environment variables and overrides the
// corresponding config fields. Secrets are expected to arrive this way.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("VIH_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("VIH_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("VIH_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.RateLimitPerMinute = n
		}
	}
	if v := os.Getenv("VIH_LDA_API_KEY"); v != "" {
		cfg.Sources.Federal.APIKey = v
	}
	if v := os.Getenv("VIH_LDA_BASE_URL"); v != "" {
		cfg.Sources.Federal.BaseURL = v
	}
	if v := os.Getenv("VIH_CITY_LOBBYING_TOKEN"); v != "" {
		cfg.Sources.CityLobbying.APIKey = v
	}
	if v := os.Getenv("VIH_CITY_LOBBYING_BASE_URL"); v != "" {
		cfg.Sources.CityLobbying.BaseURL = v
	}
	if v := os.Getenv("VIH_CITY_CONTRACTS_TOKEN"); v != "" {
		cfg.Sources.CityContracts.APIKey = v
	}
	if v := os.Getenv("VIH_CITY_CONTRACTS_BASE_URL"); v != "" {
		cfg.Sources.CityContracts.BaseURL = v
	}
	if v := os.Getenv("VIH_CACHE_MAX_ENTRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Cache.MaxEntries = n
		}
	}
	if v := os.Getenv("VIH_CACHE_USE_REDIS"); v != "" {
		cfg.Cache.UseRedis = v == "true" || v == "1"
	}
	if v := os.Getenv("VIH_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("VIH_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("VIH_KAFKA_BROKERS"); v != "" {
		cfg.Analytics.Brokers = strings.Split(v, ",")
		cfg.Analytics.Enabled = true
	}
	if v := os.Getenv("VIH_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("VIH_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("VIH_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
}
