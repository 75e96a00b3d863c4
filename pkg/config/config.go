package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"ProxyPull/pkg/logger"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string        `yaml:"environment" default:"development" validate:"oneof=development staging production test"`
	Server      Server        `yaml:"server"`
	Log         logger.Config `yaml:"log"`
	LogShipping LogShipping   `yaml:"log_shipping"`
	Catalog     Catalog       `yaml:"catalog"`
	Sources     Sources       `yaml:"sources"`
	Fallback    Fallback      `yaml:"fallback"`
	Benchmarks  Benchmarks    `yaml:"benchmarks"`
	Cache       Cache         `yaml:"cache"`
	Redis       Redis         `yaml:"redis"`
	Kafka       Kafka         `yaml:"kafka"`
	Stream      Stream        `yaml:"stream"`
}

type Server struct {
	Host            string        `yaml:"host" default:"0.0.0.0"`
	Port            int           `yaml:"port" default:"8080" validate:"gte=0,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	SlowRequest     time.Duration `yaml:"slow_request" default:"2s"`
	CORSOrigins     []string      `yaml:"cors_origins" default:"[\"*\"]"`
	RateLimit       struct {
		Enabled bool    `yaml:"enabled" default:"true"`
		RPS     float64 `yaml:"rps" default:"10" validate:"gt=0"`
		Burst   int     `yaml:"burst" default:"40" validate:"gte=1"`
	} `yaml:"rate_limit"`
}

// LogShipping aggregates repeated error logs and ships them to Kafka.
type LogShipping struct {
	Enabled         bool          `yaml:"enabled"`
	Topic           string        `yaml:"topic" default:"proxypull.logs"`
	Interval        time.Duration `yaml:"interval" default:"30s"`
	Threshold       int           `yaml:"threshold" default:"100"`
	CollectWarnings bool          `yaml:"collect_warnings" default:"true"`
}

type Catalog struct {
	Path string `yaml:"path" default:"config/catalog.yaml" validate:"required"`
}

type Sources struct {
	// Timeout bounds one upstream fetch, including retries.
	Timeout   time.Duration `yaml:"timeout" default:"15s"`
	Attempts  int           `yaml:"attempts" default:"2" validate:"gte=1,lte=5"`
	Backoff   time.Duration `yaml:"backoff" default:"300ms"`
	UserAgent string        `yaml:"user_agent" default:"Mozilla/5.0 (compatible; proxypull/1.0)"`
	RateLimit struct {
		RPS   float64 `yaml:"rps" default:"5"`
		Burst int     `yaml:"burst" default:"10"`
	} `yaml:"rate_limit"`
	Breaker struct {
		Failures    uint32        `yaml:"failures" default:"5"`
		OpenTimeout time.Duration `yaml:"open_timeout" default:"30s"`
	} `yaml:"breaker"`
	Yahoo struct {
		BaseURL string `yaml:"base_url" default:"https://query1.finance.yahoo.com" validate:"url"`
	} `yaml:"yahoo"`
	Fred struct {
		BaseURL string `yaml:"base_url" default:"https://api.stlouisfed.org" validate:"url"`
		APIKey  string `yaml:"api_key"`
		Mode    string `yaml:"mode" default:"api" validate:"oneof=api csv"`
	} `yaml:"fred"`
	Polymarket struct {
		GammaURL string `yaml:"gamma_url" default:"https://gamma-api.polymarket.com" validate:"url"`
		ClobURL  string `yaml:"clob_url" default:"https://clob.polymarket.com" validate:"url"`
	} `yaml:"polymarket"`
	News struct {
		BaseURL string `yaml:"base_url" default:"https://news.google.com" validate:"url"`
	} `yaml:"news"`
}

// Fallback overrides the reference values the synthetic generator starts
// from. Keys are tickers or market slugs.
type Fallback struct {
	ReferencePrices        map[string]float64 `yaml:"reference_prices"`
	ReferenceProbabilities map[string]float64 `yaml:"reference_probabilities"`
}

type Benchmarks struct {
	Symbols  []string `yaml:"symbols" default:"[\"SPY\",\"QQQ\"]" validate:"max=2"`
	Excluded []string `yaml:"excluded"`
}

type Cache struct {
	Backend   string        `yaml:"backend" default:"memory" validate:"oneof=memory redis layered"`
	MaxSize   int           `yaml:"max_size" default:"2000" validate:"gte=1"`
	MemoryTTL time.Duration `yaml:"memory_ttl" default:"30s"`
	TTL       TTL           `yaml:"ttl"`
}

// TTL is the staleness window per source family.
type TTL struct {
	Equity      time.Duration `yaml:"equity" default:"1h"`
	Economic    time.Duration `yaml:"economic" default:"24h"`
	Market      time.Duration `yaml:"market" default:"5m"`
	MarketShort time.Duration `yaml:"market_short" default:"1m"`
	News        time.Duration `yaml:"news" default:"5m"`
	Synthetic   time.Duration `yaml:"synthetic" default:"1m"`
}

type Redis struct {
	Addr        string        `yaml:"addr" default:"localhost:6379"`
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db"`
	PoolSize    int           `yaml:"pool_size" default:"10"`
	MinIdle     int           `yaml:"min_idle" default:"2"`
	DialTimeout time.Duration `yaml:"dial_timeout" default:"5s"`
	Prefix      string        `yaml:"prefix" default:"proxypull"`
}

type Kafka struct {
	Enabled      bool          `yaml:"enabled"`
	Brokers      []string      `yaml:"brokers"`
	EventsTopic  string        `yaml:"events_topic" default:"proxypull.series-events"`
	Compression  string        `yaml:"compression" default:"snappy" validate:"oneof=none gzip snappy lz4 zstd"`
	RequiredAcks int           `yaml:"required_acks" default:"1" validate:"oneof=-1 0 1"`
	MaxAttempts  int           `yaml:"max_attempts" default:"3"`
	BatchSize    int           `yaml:"batch_size" default:"100"`
	BatchTimeout time.Duration `yaml:"batch_timeout" default:"200ms"`
	Async        bool          `yaml:"async"`
}

type Stream struct {
	PingInterval   time.Duration `yaml:"ping_interval" default:"30s"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

// Load reads path (if not empty) over the defaults and validates the result.
func Load(path string) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

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
	if err := c.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("FRED_API_KEY"); ok {
		c.Sources.Fred.APIKey = v
	}
	if v, ok := lookup("REDIS_ADDR"); ok && v != "" {
		c.Redis.Addr = v
	}
	if v, ok := lookup("REDIS_PASSWORD"); ok {
		c.Redis.Password = v
	}
	if v, ok := lookup("KAFKA_BROKERS"); ok && v != "" {
		c.Kafka.Brokers = splitList(v)
		c.Kafka.Enabled = len(c.Kafka.Brokers) > 0
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v, ok := lookup("CACHE_BACKEND"); ok && v != "" {
		c.Cache.Backend = strings.ToLower(v)
	}
	if v, ok := lookup("CATALOG_PATH"); ok && v != "" {
		c.Catalog.Path = v
	}
	if v, ok := lookup("HTTP_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HTTP_PORT: %w", err)
		}
		c.Server.Port = port
	}
	return nil
}

var validate = validator.New()

// Validate checks field rules and cross-field requirements.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	var errs []error
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("kafka.brokers is required when kafka is enabled"))
	}
	if c.LogShipping.Enabled && !c.Kafka.Enabled {
		errs = append(errs, errors.New("log_shipping needs kafka"))
	}
	if (c.Cache.Backend == "redis" || c.Cache.Backend == "layered") && c.Redis.Addr == "" {
		errs = append(errs, fmt.Errorf("redis.addr is required for cache backend %q", c.Cache.Backend))
	}
	if c.Sources.Timeout <= 0 {
		errs = append(errs, errors.New("sources.timeout must be positive"))
	}
	for k, v := range c.Fallback.ReferenceProbabilities {
		if v < 0 || v > 100 {
			errs = append(errs, fmt.Errorf("fallback.reference_probabilities[%s]: %v is not a percentage", k, v))
		}
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
