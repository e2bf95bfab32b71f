package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"SentiMatch/internal/services/matchrate"
	"SentiMatch/pkg/util"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Log         struct {
		Level      string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error fatal panic"`
		Format     string `yaml:"format" default:"console" validate:"oneof=console json"`
		Output     string `yaml:"output" default:"stdout"`
		TimeFormat string `yaml:"time_format"`
		Collect    struct {
			Enabled        bool          `yaml:"enabled"`
			Topic          string        `yaml:"topic" default:"sentimatch.logs"`
			Interval       time.Duration `yaml:"interval" default:"30s"`
			CountThreshold int           `yaml:"count_threshold" default:"100"`
		} `yaml:"collect"`
	} `yaml:"log"`
	Analysis struct {
		ThresholdPct    float64       `yaml:"threshold_pct" default:"0.1" validate:"gte=0"`
		PriceResolution time.Duration `yaml:"price_resolution" default:"5m" validate:"gt=0"`
		InputMinutes    []int         `yaml:"input_minutes" default:"[5,10,20,30,60,120]" validate:"required,unique,dive,gt=0"`
		OutputMinutes   []int         `yaml:"output_minutes" default:"[10,20,30,60,120]" validate:"required,unique,dive,gt=0"`
		Workers         int           `yaml:"workers" default:"1" validate:"gte=0"`
	} `yaml:"analysis"`
	Events struct {
		Source  string   `yaml:"source" default:"files" validate:"oneof=files clickhouse"`
		BaseDir string   `yaml:"base_dir"`
		Dirs    []string `yaml:"dirs" default:"[\"ALL\",\"BTC\"]"`
	} `yaml:"events"`
	Prices struct {
		Source   string `yaml:"source" default:"csv" validate:"oneof=csv clickhouse"`
		CSVPath  string `yaml:"csv_path"`
		Symbol   string `yaml:"symbol" default:"BTCUSDT" validate:"required"`
		Interval string `yaml:"interval" default:"5m" validate:"required"`
	} `yaml:"prices"`
	Output struct {
		Dir        string        `yaml:"dir" default:"correlation_matrix"`
		Files      bool          `yaml:"files" default:"true"`
		ClickHouse bool          `yaml:"clickhouse"`
		Kafka      bool          `yaml:"kafka"`
		KafkaTopic string        `yaml:"kafka_topic" default:"sentimatch.scenarios"`
		Cache      bool          `yaml:"cache"`
		CacheTTL   time.Duration `yaml:"cache_ttl" default:"24h"`
	} `yaml:"output"`
	Server struct {
		Port            int           `yaml:"port" default:"8080" validate:"gt=0,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		CORSOrigins     []string      `yaml:"cors_origins"`
		RateLimit       struct {
			Capacity     float64 `yaml:"capacity" default:"5"`
			RefillPerSec float64 `yaml:"refill_per_sec" default:"1"`
		} `yaml:"rate_limit"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Redis struct {
		Host     string `yaml:"host" default:"localhost"`
		Port     int    `yaml:"port" default:"6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"sentimatch"`
		PoolSize int    `yaml:"pool_size" default:"10"`
	} `yaml:"redis"`
	Queue struct {
		Workers    int           `yaml:"workers" default:"2" validate:"gte=1"`
		RetryLimit int           `yaml:"retry_limit" default:"3" validate:"gte=0"`
		RetryDelay time.Duration `yaml:"retry_delay" default:"10s"`
		KeyPrefix  string        `yaml:"key_prefix" default:"sentimatch:queue"`
	} `yaml:"queue"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"1s"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"sentimatch"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
	Binance struct {
		BaseURL           string        `yaml:"base_url" default:"https://api.binance.com" validate:"url"`
		Limit             int           `yaml:"limit" default:"1000" validate:"gte=1,lte=1000"`
		Timeout           time.Duration `yaml:"timeout" default:"15s"`
		RequestsPerSecond float64       `yaml:"requests_per_second" default:"5" validate:"gt=0"`
		MaxRetries        int           `yaml:"max_retries" default:"3" validate:"gte=0"`
		OutputDir         string        `yaml:"output_dir" default:"data"`
		FilePrefix        string        `yaml:"file_prefix" default:"binance"`
	} `yaml:"binance"`
}

var validate = validator.New()

// Load reads a YAML file over the defaults and validates the result.
// An empty path yields the defaults alone.
func Load(path string) (*Config, error) {
	c, err := load(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("SENTIMATCH_EVENTS_DIR"); v != "" {
		c.Events.BaseDir = v
	}
	if v := os.Getenv("SENTIMATCH_PRICES_CSV"); v != "" {
		c.Prices.CSVPath = v
	}
	if v := os.Getenv("SENTIMATCH_OUTPUT_DIR"); v != "" {
		c.Output.Dir = v
	}
	if v := os.Getenv("SENTIMATCH_WORKERS"); v != "" {
		c.Analysis.Workers = util.IntOr(v, c.Analysis.Workers)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func load(path string) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if path == "" {
		return &c, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &c, nil
}

// Validate checks tags first, then rules that span sections.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Events.Source == "files" && c.Events.BaseDir == "" {
		return fmt.Errorf("events.base_dir is required when events.source is 'files'")
	}
	if c.Prices.Source == "csv" && c.Prices.CSVPath == "" {
		return fmt.Errorf("prices.csv_path is required when prices.source is 'csv'")
	}
	if c.UsesClickHouse() && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required by the selected sources or outputs")
	}
	if (c.Output.Kafka || c.Log.Collect.Enabled) && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka output or log collection is enabled")
	}
	if err := c.SweepConfig().Validate(); err != nil {
		return err
	}
	return nil
}

// UsesClickHouse reports whether any source or sink talks to ClickHouse.
func (c *Config) UsesClickHouse() bool {
	return c.Events.Source == "clickhouse" || c.Prices.Source == "clickhouse" || c.Output.ClickHouse
}

// SweepConfig maps the analysis section onto the engine configuration.
func (c *Config) SweepConfig() matchrate.SweepConfig {
	return matchrate.SweepConfig{
		ThresholdPct:      c.Analysis.ThresholdPct,
		PriceResolution:   c.Analysis.PriceResolution,
		InputMinutesGrid:  append([]int(nil), c.Analysis.InputMinutes...),
		OutputMinutesGrid: append([]int(nil), c.Analysis.OutputMinutes...),
		Workers:           c.Analysis.Workers,
	}
}
