package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// UpstreamConfig describes one quota-limited upstream HTTP API.
type UpstreamConfig struct {
	BaseURL     string        `yaml:"base_url"`
	StreamURL   string        `yaml:"stream_url"` // optional websocket feed
	APIKey      string        `yaml:"api_key"`
	MaxRequests int           `yaml:"max_requests"`
	Window      time.Duration `yaml:"window"`
	RetryAfter  time.Duration `yaml:"retry_after"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`
	MaxRetries  int           `yaml:"max_retries"`
}

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Upstreams struct {
		Price  UpstreamConfig `yaml:"price"`
		Social UpstreamConfig `yaml:"social"`
		News   UpstreamConfig `yaml:"news"`
	} `yaml:"upstreams"`
	Cache struct {
		MaxSize    int           `yaml:"max_size"`
		DefaultTTL time.Duration `yaml:"default_ttl"`
	} `yaml:"cache"`
	Aggregator struct {
		TTL          time.Duration `yaml:"ttl"`
		FallbackMode bool          `yaml:"fallback_mode"`
	} `yaml:"aggregator"`
	Stream struct {
		Enabled   bool          `yaml:"enabled"`
		Symbols   []string      `yaml:"symbols"`
		Reconnect time.Duration `yaml:"reconnect_delay"`
		Ping      time.Duration `yaml:"ping_interval"`
		BufferTTL time.Duration `yaml:"buffer_ttl"`
	} `yaml:"stream"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	ClickHouse struct {
		Enabled      bool          `yaml:"enabled"`
		Host         string        `yaml:"host"`
		Port         int           `yaml:"port"`
		Database     string        `yaml:"database"`
		User         string        `yaml:"user"`
		Password     string        `yaml:"password"`
		DialTimeout  time.Duration `yaml:"dial_timeout"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic"`
		RequiredAcks int           `yaml:"required_acks"`
		Compression  string        `yaml:"compression"`
		MaxAttempts  int           `yaml:"max_attempts"`
		BatchSize    int           `yaml:"batch_size"`
		BatchTimeout time.Duration `yaml:"batch_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
	} `yaml:"kafka"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("PRICE_API_KEY"); v != "" {
		c.Upstreams.Price.APIKey = v
	}
	if v := os.Getenv("SOCIAL_API_KEY"); v != "" {
		c.Upstreams.Social.APIKey = v
	}
	if v := os.Getenv("NEWS_API_KEY"); v != "" {
		c.Upstreams.News.APIKey = v
	}
	if v := os.Getenv("FALLBACK_MODE"); v == "1" || strings.EqualFold(v, "true") {
		c.Aggregator.FallbackMode = true
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}

	return c, nil
}

// applyDefaults fills the per-service rate windows plus cache and
// aggregator sizing when the file leaves them unset.
func (c *Config) applyDefaults() {
	def := func(u *UpstreamConfig, maxReq int, window, retryAfter, ttl time.Duration) {
		if u.MaxRequests <= 0 {
			u.MaxRequests = maxReq
		}
		if u.Window <= 0 {
			u.Window = window
		}
		if u.RetryAfter <= 0 {
			u.RetryAfter = retryAfter
		}
		if u.CacheTTL <= 0 {
			u.CacheTTL = ttl
		}
		if u.MaxRetries <= 0 {
			u.MaxRetries = 3
		}
	}
	def(&c.Upstreams.Price, 10, time.Minute, time.Minute, 2*time.Minute)
	def(&c.Upstreams.Social, 300, 15*time.Minute, 5*time.Second, 5*time.Minute)
	def(&c.Upstreams.News, 100, 24*time.Hour, 15*time.Minute, 30*time.Minute)

	if c.Cache.MaxSize <= 0 {
		c.Cache.MaxSize = 500
	}
	if c.Cache.DefaultTTL <= 0 {
		c.Cache.DefaultTTL = 5 * time.Minute
	}
	if c.Aggregator.TTL <= 0 {
		c.Aggregator.TTL = 5 * time.Minute
	}
	if c.Stream.Reconnect <= 0 {
		c.Stream.Reconnect = 5 * time.Second
	}
	if c.Stream.Ping <= 0 {
		c.Stream.Ping = 30 * time.Second
	}
	if c.Stream.BufferTTL <= 0 {
		c.Stream.BufferTTL = time.Hour
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	for name, u := range map[string]UpstreamConfig{
		"price":  c.Upstreams.Price,
		"social": c.Upstreams.Social,
		"news":   c.Upstreams.News,
	} {
		if u.MaxRequests <= 0 {
			return fmt.Errorf("upstreams.%s.max_requests must be positive", name)
		}
		if u.Window <= 0 {
			return fmt.Errorf("upstreams.%s.window must be positive", name)
		}
		if !c.Aggregator.FallbackMode && u.BaseURL == "" {
			return fmt.Errorf("upstreams.%s.base_url is required unless aggregator.fallback_mode is set", name)
		}
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when clickhouse is enabled")
	}
	if c.Stream.Enabled && c.Upstreams.Social.StreamURL == "" {
		return fmt.Errorf("upstreams.social.stream_url is required when stream is enabled")
	}
	return nil
}
