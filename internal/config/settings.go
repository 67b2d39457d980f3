package config

import (
	"runtime"

	"github.com/spf13/viper"
)

// Settings are the run parameters shared by the CLI commands.
type Settings struct {
	RawDir        string
	Output        string
	Format        string
	States        []string
	LinkageConfig string
	Workers       int
	Threshold     float64
	MaxLossRate   float64
	FailFast      bool
	Debug         bool
	DatabaseURL   string
}

// Defaults fill the settings no flag, variable or file provided.
func Defaults() Settings {
	return Settings{
		RawDir:      GetEnv("CFDB_RAW_DIR", "data/raw"),
		Output:      GetEnv("CFDB_OUTPUT", "data/db"),
		Format:      GetEnv("CFDB_FORMAT", "feather"),
		Workers:     GetEnvInt("CFDB_WORKERS", runtime.NumCPU()),
		MaxLossRate: GetEnvFloat("CFDB_MAX_LOSS_RATE", 0.01),
		Debug:       GetEnvBool("CFDB_DEBUG", false),
		DatabaseURL: GetEnv("DATABASE_URL", ""),
	}
}

// FromViper reads settings after SetAllConfig has resolved the flags.
func FromViper(v *viper.Viper) Settings {
	return Settings{
		RawDir:        v.GetString("raw-dir"),
		Output:        v.GetString("output"),
		Format:        v.GetString("format"),
		States:        v.GetStringSlice("states"),
		LinkageConfig: v.GetString("linkage-config"),
		Workers:       v.GetInt("workers"),
		Threshold:     v.GetFloat64("threshold"),
		MaxLossRate:   v.GetFloat64("max-loss-rate"),
		FailFast:      v.GetBool("fail-fast"),
		Debug:         v.GetBool("debug"),
		DatabaseURL:   v.GetString("database-url"),
	}
}
