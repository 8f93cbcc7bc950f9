package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/newthinker/pairwise/internal/collector"
	"github.com/newthinker/pairwise/internal/collector/yahoo"
	"github.com/newthinker/pairwise/internal/config"
	"github.com/newthinker/pairwise/internal/storage/archive"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "pairwise",
	Short: "PAIRWISE - pairs-trading statistical arbitrage engine",
	Long: `PAIRWISE backtests mean-reversion strategies on cointegrated pairs:
it aligns two price histories, estimates the hedge ratio, generates rolling
z-score signals and simulates the resulting trades with full P&L accounting.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

// loadConfig reads the config file or falls back to defaults.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
		return cfg, nil
	}
	return config.Defaults(), nil
}

// newProvider builds the configured price provider.
func newProvider(cfg *config.Config) (collector.Provider, error) {
	switch cfg.Source.Provider {
	case "yahoo":
		if cfg.Source.BaseURL != "" {
			return yahoo.NewWithBase(cfg.Source.BaseURL), nil
		}
		return yahoo.New(), nil
	default:
		return nil, fmt.Errorf("unknown price provider %q", cfg.Source.Provider)
	}
}

// newArchive builds the configured archive backend, or nil when disabled.
func newArchive(cfg *config.Config) (archive.Storage, error) {
	if !cfg.Archive.Enabled {
		return nil, nil
	}
	switch cfg.Archive.Type {
	case "localfs":
		return archive.NewLocalFS(cfg.Archive.Path)
	case "s3":
		return archive.NewS3(archive.S3Config{
			Bucket:    cfg.Archive.S3.Bucket,
			Endpoint:  cfg.Archive.S3.Endpoint,
			Region:    cfg.Archive.S3.Region,
			AccessKey: cfg.Archive.S3.AccessKey,
			SecretKey: cfg.Archive.S3.SecretKey,
			Prefix:    cfg.Archive.S3.Prefix,
		})
	default:
		return nil, fmt.Errorf("unknown archive type %q", cfg.Archive.Type)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
