package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/cfdb/internal/config"
	"github.com/cfdb/internal/dataset"
	"github.com/cfdb/internal/db"
	"github.com/cfdb/internal/debug"
	"github.com/cfdb/internal/linkage"
	"github.com/cfdb/internal/metrics"
	"github.com/cfdb/internal/pipeline"
	"github.com/cfdb/internal/schema"
)

// app holds what every subcommand shares once flags are resolved.
type app struct {
	settings config.Settings
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

func newRootCmd() *cobra.Command {
	a := &app{}
	d := config.Defaults()

	rootCmd := &cobra.Command{
		Use:   "cfdb",
		Short: "Campaign finance standardization and entity resolution",
		Long: `cfdb reads raw campaign finance exports from state agencies and
academic archives, standardizes them onto one schema, and links the
individuals and organizations that refer to the same entity.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			if err := config.SetAllConfig(v, cmd.Flags(), config.EnvPrefix); err != nil {
				return err
			}
			a.settings = config.FromViper(v)

			logger, err := debug.New(a.settings.Debug)
			if err != nil {
				return fmt.Errorf("failed to build logger: %w", err)
			}
			a.logger = logger
			a.metrics = metrics.New()
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "YAML configuration file")
	pf.String("raw-dir", d.RawDir, "directory holding one subdirectory of raw files per source")
	pf.String("output", d.Output, "dataset directory, s3://bucket/prefix, or sqlite file")
	pf.String("format", d.Format, "dataset format: csv, feather, sqlite or postgres")
	pf.StringSlice("states", nil, "states to process (default all registered)")
	pf.String("linkage-config", "", "directory with individuals.yaml and organizations.yaml overriding the built-in linkage configuration")
	pf.Int("workers", d.Workers, "parallel comparison workers")
	pf.Float64("threshold", 0, "match probability threshold (0 keeps the configured one)")
	pf.Float64("max-loss-rate", d.MaxLossRate, "fraction of malformed lines a source may skip before failing")
	pf.Bool("fail-fast", false, "stop at the first failing source")
	pf.Bool("debug", d.Debug, "verbose development logging")
	pf.String("database-url", d.DatabaseURL, "postgres connection string for --format=postgres")

	rootCmd.AddCommand(createSourcesCmd(a))
	rootCmd.AddCommand(createStandardizeCmd(a))
	rootCmd.AddCommand(createLinkCmd(a))
	rootCmd.AddCommand(createRunCmd(a))
	rootCmd.AddCommand(createTuneCmd(a))
	rootCmd.AddCommand(createServeCmd(a))

	return rootCmd
}

func (a *app) format() (dataset.Format, error) {
	return dataset.ParseFormat(a.settings.Format)
}

// location is where the dataset lives for format.
func (a *app) location(format dataset.Format) string {
	switch format {
	case dataset.Postgres:
		if a.settings.DatabaseURL != "" {
			return a.settings.DatabaseURL
		}
		return db.PostgresDSN()
	case dataset.SQLite:
		if filepath.Ext(a.settings.Output) == "" {
			return filepath.Join(a.settings.Output, "cfdb.sqlite")
		}
	}
	return a.settings.Output
}

// options translates the resolved settings into pipeline options.
func (a *app) options() (pipeline.Options, error) {
	s := a.settings
	format, err := a.format()
	if err != nil {
		return pipeline.Options{}, err
	}
	configs, err := loadLinkageConfigs(s.LinkageConfig)
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		RawDir:      s.RawDir,
		States:      s.States,
		FailFast:    s.FailFast,
		MaxLossRate: s.MaxLossRate,
		Linkage:     configs,
		Threshold:   s.Threshold,
		Workers:     s.Workers,
		Output:      a.location(format),
		Format:      format,
		Logger:      a.logger,
		Metrics:     a.metrics,
		Debug:       s.Debug,
	}, nil
}

// loadLinkageConfigs reads <dir>/<table>.yaml for each linked table. A
// missing file keeps the built-in configuration for that table.
func loadLinkageConfigs(dir string) (map[schema.TableType]*linkage.Config, error) {
	if dir == "" {
		return nil, nil
	}
	out := make(map[schema.TableType]*linkage.Config)
	for _, tt := range pipeline.LinkedTables {
		path := filepath.Join(dir, string(tt)+".yaml")
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		cfg, err := linkage.LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		out[tt] = cfg
	}
	return out, nil
}
