package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/newthinker/riskon/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Data     DataConfig     `mapstructure:"data"`
	Backtest BacktestConfig `mapstructure:"backtest"`
	Signal   SignalConfig   `mapstructure:"signal"`
	Sweep    SweepConfig    `mapstructure:"sweep"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Log      LogConfig      `mapstructure:"log"`

	// Profiles maps a profile name to its asset and crossover windows
	Profiles map[string]ProfileConfig `mapstructure:"profiles"`
}

// DataConfig selects where price histories come from
type DataConfig struct {
	Source string `mapstructure:"source"` // "csv" or "yahoo"
	Dir    string `mapstructure:"dir"`    // For csv
}

// BacktestConfig mirrors backtest.Config
type BacktestConfig struct {
	PeriodsPerYear int     `mapstructure:"periods_per_year"`
	TrainFrac      float64 `mapstructure:"train_frac"`
	MinPoints      int     `mapstructure:"min_points"`
	Epsilon        float64 `mapstructure:"epsilon"`
}

// ProfileConfig pins one asset to its own crossover. Empty Source and Type
// fall back to data.source and signal.type.
type ProfileConfig struct {
	Symbol string `mapstructure:"symbol"`
	Source string `mapstructure:"source"`
	Type   string `mapstructure:"type"`
	Fast   int    `mapstructure:"fast"`
	Slow   int    `mapstructure:"slow"`
}

type SignalConfig struct {
	Type string `mapstructure:"type"` // "sma" or "ema"
	Fast int    `mapstructure:"fast"`
	Slow int    `mapstructure:"slow"`
}

// SweepConfig bounds the parameter grid and its parallelism
type SweepConfig struct {
	FastMin     int `mapstructure:"fast_min"`
	FastMax     int `mapstructure:"fast_max"`
	SlowMin     int `mapstructure:"slow_min"`
	SlowMax     int `mapstructure:"slow_max"`
	Step        int `mapstructure:"step"`
	Parallelism int `mapstructure:"parallelism"`
}

type ArchiveConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Type    string   `mapstructure:"type"` // "localfs" or "s3"
	Path    string   `mapstructure:"path"` // For localfs
	S3      S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Textfile string `mapstructure:"textfile"`
}

type LLMConfig struct {
	Provider string       `mapstructure:"provider"`
	Claude   ClaudeConfig `mapstructure:"claude"`
	OpenAI   OpenAIConfig `mapstructure:"openai"`
}

type ClaudeConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"` // "json" or "console"
}

// Load reads configuration from file. A .env file in the working directory
// is loaded first so ${VAR} references and env overrides can use it. An
// empty path yields the defaults with env overrides applied.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v, Defaults())

	// Support environment variable overrides
	v.SetEnvPrefix("RISKON")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
				return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("config file %s: %w", path, err))
			}
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every leaf key, including empty ones, since
// AutomaticEnv only resolves keys viper already knows about.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("data.source", d.Data.Source)
	v.SetDefault("data.dir", d.Data.Dir)
	v.SetDefault("backtest.periods_per_year", d.Backtest.PeriodsPerYear)
	v.SetDefault("backtest.train_frac", d.Backtest.TrainFrac)
	v.SetDefault("backtest.min_points", d.Backtest.MinPoints)
	v.SetDefault("backtest.epsilon", d.Backtest.Epsilon)
	v.SetDefault("signal.type", d.Signal.Type)
	v.SetDefault("signal.fast", d.Signal.Fast)
	v.SetDefault("signal.slow", d.Signal.Slow)
	v.SetDefault("sweep.fast_min", d.Sweep.FastMin)
	v.SetDefault("sweep.fast_max", d.Sweep.FastMax)
	v.SetDefault("sweep.slow_min", d.Sweep.SlowMin)
	v.SetDefault("sweep.slow_max", d.Sweep.SlowMax)
	v.SetDefault("sweep.step", d.Sweep.Step)
	v.SetDefault("sweep.parallelism", d.Sweep.Parallelism)
	v.SetDefault("archive.enabled", d.Archive.Enabled)
	v.SetDefault("archive.type", d.Archive.Type)
	v.SetDefault("archive.path", d.Archive.Path)
	v.SetDefault("archive.s3.bucket", d.Archive.S3.Bucket)
	v.SetDefault("archive.s3.endpoint", d.Archive.S3.Endpoint)
	v.SetDefault("archive.s3.region", d.Archive.S3.Region)
	v.SetDefault("archive.s3.access_key", d.Archive.S3.AccessKey)
	v.SetDefault("archive.s3.secret_key", d.Archive.S3.SecretKey)
	v.SetDefault("archive.s3.prefix", d.Archive.S3.Prefix)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.textfile", d.Metrics.Textfile)
	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.claude.api_key", d.LLM.Claude.APIKey)
	v.SetDefault("llm.claude.model", d.LLM.Claude.Model)
	v.SetDefault("llm.openai.api_key", d.LLM.OpenAI.APIKey)
	v.SetDefault("llm.openai.model", d.LLM.OpenAI.Model)
	v.SetDefault("llm.openai.base_url", d.LLM.OpenAI.BaseURL)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.encoding", d.Log.Encoding)
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Data: DataConfig{
			Source: "csv",
			Dir:    "data",
		},
		Backtest: BacktestConfig{
			PeriodsPerYear: 365,
			TrainFrac:      0.7,
			Epsilon:        1e-12,
		},
		Signal: SignalConfig{
			Type: "sma",
			Fast: 50,
			Slow: 200,
		},
		Sweep: SweepConfig{
			FastMin:     10,
			FastMax:     100,
			SlowMin:     50,
			SlowMax:     300,
			Step:        10,
			Parallelism: 4,
		},
		Archive: ArchiveConfig{
			Type: "localfs",
			Path: "archive",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		LLM: LLMConfig{
			Claude: ClaudeConfig{Model: "claude-sonnet-4-5"},
			OpenAI: OpenAIConfig{Model: "gpt-4o"},
		},
		Log: LogConfig{
			Level:    "info",
			Encoding: "console",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Data.Source {
	case "csv", "yahoo":
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("data.source must be csv or yahoo, got %q", c.Data.Source))
	}

	// Backtest validation
	if c.Backtest.PeriodsPerYear <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("periods_per_year must be positive, got %d", c.Backtest.PeriodsPerYear))
	}
	if c.Backtest.TrainFrac < 0 || c.Backtest.TrainFrac >= 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("train_frac must be in [0,1), got %f", c.Backtest.TrainFrac))
	}
	if c.Backtest.MinPoints < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("min_points cannot be negative, got %d", c.Backtest.MinPoints))
	}
	if c.Backtest.Epsilon < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("epsilon cannot be negative, got %g", c.Backtest.Epsilon))
	}

	// Signal validation
	if c.Signal.Type != "sma" && c.Signal.Type != "ema" {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("signal.type must be sma or ema, got %q", c.Signal.Type))
	}
	if c.Signal.Fast <= 0 || c.Signal.Fast >= c.Signal.Slow {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("signal windows must satisfy 0 < fast < slow, got %d/%d", c.Signal.Fast, c.Signal.Slow))
	}

	if c.Sweep.Step <= 0 || c.Sweep.Parallelism <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("sweep step and parallelism must be positive"))
	}

	for name, p := range c.Profiles {
		if err := p.validate(name); err != nil {
			return err
		}
	}

	// Archive validation
	if c.Archive.Enabled {
		switch c.Archive.Type {
		case "localfs":
			if c.Archive.Path == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("archive path required for localfs"))
			}
		case "s3":
			if c.Archive.S3.Bucket == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("archive s3 bucket required for s3"))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("archive.type must be localfs or s3, got %q", c.Archive.Type))
		}
	}

	// LLM validation - if provider set, check config exists
	if c.LLM.Provider != "" {
		switch c.LLM.Provider {
		case "claude":
			if c.LLM.Claude.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("claude api_key required when provider is claude"))
			}
		case "openai":
			if c.LLM.OpenAI.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("openai api_key required when provider is openai"))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown llm provider %q", c.LLM.Provider))
		}
	}

	return nil
}

func (p ProfileConfig) validate(name string) error {
	if p.Symbol == "" {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("profile %q: symbol required", name))
	}
	switch p.Source {
	case "", "csv", "yahoo":
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("profile %q: source must be csv or yahoo, got %q", name, p.Source))
	}
	if p.Type != "" && p.Type != "sma" && p.Type != "ema" {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("profile %q: type must be sma or ema, got %q", name, p.Type))
	}
	if p.Fast <= 0 || p.Fast >= p.Slow {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("profile %q: windows must satisfy 0 < fast < slow, got %d/%d", name, p.Fast, p.Slow))
	}
	return nil
}
