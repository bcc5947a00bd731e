package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Log         struct {
		Level      string `yaml:"level" default:"info"`
		Format     string `yaml:"format" default:"json"`
		Output     string `yaml:"output" default:"stdout"`
		TimeFormat string `yaml:"time_format"`
		Collector  struct {
			Enabled        bool          `yaml:"enabled"`
			Interval       time.Duration `yaml:"interval" default:"30s"`
			CountThreshold int           `yaml:"count_threshold" default:"100"`
			DigestSize     int           `yaml:"digest_size" default:"50"`
		} `yaml:"collector"`
	} `yaml:"log"`
	Server struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"60s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		AllowOrigins    []string      `yaml:"allow_origins" default:"[\"*\"]"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"stockpulse"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		RequiredAcks int      `yaml:"required_acks" default:"1"`
		Compression  string   `yaml:"compression" default:"snappy"`
		Topics       struct {
			Signals string `yaml:"signals" default:"stockpulse.signals"`
			Risk    string `yaml:"risk" default:"stockpulse.risk"`
			Bars    string `yaml:"bars" default:"stockpulse.bars"`
			Logs    string `yaml:"logs" default:"stockpulse.logs"`
		} `yaml:"topics"`
		Producer struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"10ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id" default:"stockpulse-bars"`
			Workers    int           `yaml:"workers" default:"4"`
			BufferSize int           `yaml:"buffer_size" default:"256"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"100ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes" default:"1"`
			MaxBytes   int           `yaml:"max_bytes" default:"10485760"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size" default:"10"`
	} `yaml:"redis"`
	Cache struct {
		Backend   string `yaml:"backend" default:"memory"`
		MaxSize   int    `yaml:"max_size" default:"1000"`
		KeyPrefix string `yaml:"key_prefix" default:"stockpulse:cache"`
		TTL       struct {
			Forecast   time.Duration `yaml:"forecast" default:"1h"`
			Evaluation time.Duration `yaml:"evaluation" default:"1h"`
			Signals    time.Duration `yaml:"signals" default:"15m"`
			Anomalies  time.Duration `yaml:"anomalies" default:"15m"`
			Backtest   time.Duration `yaml:"backtest" default:"1h"`
			Portfolio  time.Duration `yaml:"portfolio" default:"15m"`
		} `yaml:"ttl"`
		MaxAge time.Duration `yaml:"max_age" default:"1h"`
	} `yaml:"cache"`
	Forecast struct {
		ServiceURL string        `yaml:"service_url"`
		Timeout    time.Duration `yaml:"timeout" default:"30s"`
		Retries    int           `yaml:"retries" default:"2"`
		Horizon    int           `yaml:"horizon" default:"7"`
		History    int           `yaml:"history" default:"365"`
		Timeframe  string        `yaml:"timeframe" default:"1d"`
		Breaker    struct {
			MaxRequests  uint32        `yaml:"max_requests" default:"1"`
			Interval     time.Duration `yaml:"interval" default:"1m"`
			Timeout      time.Duration `yaml:"timeout" default:"30s"`
			FailureRatio float64       `yaml:"failure_ratio" default:"0.6"`
			MinRequests  uint32        `yaml:"min_requests" default:"5"`
		} `yaml:"breaker"`
	} `yaml:"forecast"`
	Sentiment struct {
		Provider   string        `yaml:"provider" default:"deterministic"`
		ServiceURL string        `yaml:"service_url"`
		Timeout    time.Duration `yaml:"timeout" default:"5s"`
		Seed       string        `yaml:"seed" default:"stockpulse"`
	} `yaml:"sentiment"`
	Tickers struct {
		Monitored []string `yaml:"monitored" default:"[\"AAPL\",\"GOOGL\",\"MSFT\",\"AMZN\",\"TSLA\"]"`
		RedisKey  string   `yaml:"redis_key" default:"stockpulse:tickers"`
	} `yaml:"tickers"`
	Refresh struct {
		Enabled       bool          `yaml:"enabled"`
		Interval      time.Duration `yaml:"interval" default:"1h"`
		RetryInterval time.Duration `yaml:"retry_interval" default:"5m"`
		Workers       int           `yaml:"workers" default:"2"`
		QueueName     string        `yaml:"queue_name" default:"refresh"`
		MaxRetries    int           `yaml:"max_retries" default:"3"`
	} `yaml:"refresh"`
	RateLimit struct {
		Enabled bool    `yaml:"enabled"`
		RPS     float64 `yaml:"rps" default:"10"`
		Burst   int     `yaml:"burst" default:"20"`
	} `yaml:"ratelimit"`
	Finnhub struct {
		Enabled        bool          `yaml:"enabled"`
		APIKey         string        `yaml:"api_key"`
		WebSocketURL   string        `yaml:"websocket_url" default:"wss://ws.finnhub.io"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay" default:"5s"`
		PingInterval   time.Duration `yaml:"ping_interval" default:"30s"`
		BatchSize      int           `yaml:"batch_size" default:"100"`
		BatchTimeout   time.Duration `yaml:"batch_timeout" default:"1s"`
	} `yaml:"finnhub"`
	Evaluation struct {
		TestSize       int     `yaml:"test_size" default:"20"`
		InitialCapital float64 `yaml:"initial_capital" default:"10000"`
	} `yaml:"evaluation"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var c Config
	if err := defaults.Set(&c); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return &c
}

// Parse decodes YAML on top of the defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c, err := decode(b)
	if err != nil {
		return nil, err
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

func decode(b []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// LoadWithEnv loads config from YAML, overrides it with environment variables,
// then validates.
func LoadWithEnv(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := decode(b)
	if err != nil {
		return nil, err
	}
	c.ApplyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// ApplyEnv overrides selected fields from environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("STOCKPULSE_ENV"); v != "" {
		c.Environment = v
	}
	if v := getenv("TICKERS"); v != "" {
		c.Tickers.Monitored = splitList(v)
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
		c.Kafka.Enabled = true
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
		c.ClickHouse.Enabled = true
	}
	if v := getenv("FORECAST_SERVICE_URL"); v != "" {
		c.Forecast.ServiceURL = v
	}
	if v := getenv("SENTIMENT_SERVICE_URL"); v != "" {
		c.Sentiment.ServiceURL = v
		c.Sentiment.Provider = "http"
	}
	if v := getenv("FINNHUB_API_KEY"); v != "" {
		c.Finnhub.APIKey = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if len(c.Tickers.Monitored) == 0 {
		return fmt.Errorf("tickers.monitored cannot be empty")
	}
	switch c.Cache.Backend {
	case "memory", "redis", "layered":
	default:
		return fmt.Errorf("cache.backend must be 'memory', 'redis' or 'layered', got '%s'", c.Cache.Backend)
	}
	if c.Cache.Backend != "memory" && !c.Redis.Enabled {
		return fmt.Errorf("cache.backend '%s' requires redis.enabled", c.Cache.Backend)
	}
	switch c.Sentiment.Provider {
	case "deterministic", "static":
	case "http":
		if c.Sentiment.ServiceURL == "" {
			return fmt.Errorf("sentiment.service_url is required for the http provider")
		}
	default:
		return fmt.Errorf("sentiment.provider must be 'http', 'deterministic' or 'static', got '%s'", c.Sentiment.Provider)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Finnhub.Enabled && c.Finnhub.APIKey == "" {
		return fmt.Errorf("finnhub.api_key is required when finnhub is enabled")
	}
	if c.Refresh.Enabled && !c.Redis.Enabled {
		return fmt.Errorf("refresh requires redis.enabled")
	}
	if c.Evaluation.TestSize < 2 {
		return fmt.Errorf("evaluation.test_size must be at least 2")
	}
	if c.Evaluation.InitialCapital <= 0 {
		return fmt.Errorf("evaluation.initial_capital must be positive")
	}
	return nil
}
