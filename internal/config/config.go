package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/newthinker/pairwise/internal/core"
	"github.com/newthinker/pairwise/internal/pipeline"
)

type Config struct {
	Server   ServerConfig    `mapstructure:"server"`
	Source   SourceConfig    `mapstructure:"source"`
	Pipeline pipeline.Config `mapstructure:"pipeline"`
	Sweep    SweepConfig     `mapstructure:"sweep"`
	Archive  ArchiveConfig   `mapstructure:"archive"`
	Metrics  MetricsConfig   `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	JobTTLHours int    `mapstructure:"job_ttl_hours"`
	MaxJobs     int    `mapstructure:"max_jobs"`
}

// SourceConfig selects the price provider and how much history to fetch.
type SourceConfig struct {
	Provider string `mapstructure:"provider"`
	Range    string `mapstructure:"range"`
	BaseURL  string `mapstructure:"base_url"`
}

// SweepConfig bounds threshold grid searches.
type SweepConfig struct {
	Workers         int       `mapstructure:"workers"`
	EntryThresholds []float64 `mapstructure:"entry_thresholds"`
	ExitThresholds  []float64 `mapstructure:"exit_thresholds"`
}

// ArchiveConfig selects where completed runs are persisted.
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
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			JobTTLHours: 1,
			MaxJobs:     100,
		},
		Source: SourceConfig{
			Provider: "yahoo",
			Range:    "3y",
		},
		Pipeline: pipeline.Defaults(),
		Sweep: SweepConfig{
			Workers:         4,
			EntryThresholds: []float64{1.0, 1.5, 2.0, 2.5},
			ExitThresholds:  []float64{0.0, 0.25, 0.5},
		},
		Archive: ArchiveConfig{
			Type: "localfs",
			Path: "data/archive",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	if c.Source.Provider != "yahoo" {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown price provider %q", c.Source.Provider))
	}

	if c.Sweep.Workers < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("sweep workers must be at least 1, got %d", c.Sweep.Workers))
	}

	switch c.Archive.Type {
	case "localfs":
		if c.Archive.Enabled && c.Archive.Path == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("archive path required for localfs"))
		}
	case "s3":
		if c.Archive.Enabled && c.Archive.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("s3 bucket required when archive type is s3"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown archive type %q", c.Archive.Type))
	}

	// Pipeline parameters fail fast here too, so a bad config file never
	// reaches a run.
	if err := c.Pipeline.Validate(); err != nil {
		return err
	}

	return nil
}
