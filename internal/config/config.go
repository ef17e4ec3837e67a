// Package config loads pipeline tuning and model locations.
//
// Tunables come from an optional deeparchive.yaml in the working
// directory and DEEPARCHIVE_* environment variables, with defaults
// matching the sizing the pipeline was designed around. Model paths are
// resolved separately (see models.go): a .env file first, then a
// filesystem search that persists its findings back to .env.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Pipeline holds the knobs of the ingestion run.
type Pipeline struct {
	HashWorkers     int   // parallel hashing workers
	ProcessWorkers  int   // parallel media/inference workers
	ChannelCapacity int   // bounded capacity of each cross-stage channel
	BatchSize       int   // records per ingest transaction
	MmapThreshold   int64 // bytes; files above this are hashed via mmap
}

// Default returns the built-in tuning.
func Default() Pipeline {
	return Pipeline{
		HashWorkers:     4,
		ProcessWorkers:  2,
		ChannelCapacity: 1024,
		BatchSize:       1000,
		MmapThreshold:   500 << 20,
	}
}

// Load reads tuning from deeparchive.yaml (if present) and the
// DEEPARCHIVE_* environment, on top of the defaults.
func Load() (Pipeline, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("hash_workers", def.HashWorkers)
	v.SetDefault("process_workers", def.ProcessWorkers)
	v.SetDefault("channel_capacity", def.ChannelCapacity)
	v.SetDefault("batch_size", def.BatchSize)
	v.SetDefault("mmap_threshold", def.MmapThreshold)

	v.SetEnvPrefix("DEEPARCHIVE")
	v.AutomaticEnv()

	v.SetConfigName("deeparchive")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Pipeline{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := Pipeline{
		HashWorkers:     v.GetInt("hash_workers"),
		ProcessWorkers:  v.GetInt("process_workers"),
		ChannelCapacity: v.GetInt("channel_capacity"),
		BatchSize:       v.GetInt("batch_size"),
		MmapThreshold:   v.GetInt64("mmap_threshold"),
	}
	return cfg.WithDefaults(), nil
}

// WithDefaults clamps nonsensical values back to the built-ins.
func (p Pipeline) WithDefaults() Pipeline {
	def := Default()
	if p.HashWorkers <= 0 {
		p.HashWorkers = def.HashWorkers
	}
	if p.ProcessWorkers <= 0 {
		p.ProcessWorkers = def.ProcessWorkers
	}
	if p.ChannelCapacity <= 0 {
		p.ChannelCapacity = def.ChannelCapacity
	}
	if p.BatchSize <= 0 {
		p.BatchSize = def.BatchSize
	}
	if p.MmapThreshold <= 0 {
		p.MmapThreshold = def.MmapThreshold
	}
	return p
}
