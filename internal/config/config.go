// Package config aggregates the per-package configuration of the service
// and the CLI.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/go-sod/seqwin/internal/collect"
	"github.com/go-sod/seqwin/internal/database"
	"github.com/go-sod/seqwin/internal/notify"
	"github.com/go-sod/seqwin/internal/observation"
	"github.com/go-sod/seqwin/internal/pipeline"
	"github.com/go-sod/seqwin/internal/predictor"
	"github.com/go-sod/seqwin/internal/predictor/knn"
	"github.com/go-sod/seqwin/internal/predictor/remote"
	"github.com/go-sod/seqwin/internal/predictor/ridge"
	"github.com/go-sod/seqwin/internal/report/cache"
	"github.com/go-sod/seqwin/internal/run"
	"github.com/go-sod/seqwin/internal/scrape"
	"github.com/go-sod/seqwin/internal/setup"
	"github.com/kelseyhightower/envconfig"
)

var (
	_ setup.DatabaseConfigProvider    = (*Config)(nil)
	_ setup.PredictorConfigProvider   = (*Config)(nil)
	_ setup.ObservationConfigProvider = (*Config)(nil)
	_ setup.CacheConfigProvider       = (*Config)(nil)
	_ setup.ScrapeConfigProvider      = (*Config)(nil)
	_ setup.NotifyConfigProvider      = (*Config)(nil)
)

type Config struct {
	SrvAddr        string `envconfig:"SEQWIN_ADDR" default:":8787" toml:"addr"`
	GRPCAddr       string `envconfig:"SEQWIN_GRPC_ADDR" default:":8788" toml:"grpc_addr"`
	MaxConnections int    `envconfig:"SEQWIN_MAX_CONNECTIONS" default:"256" toml:"max_connections"`
	LogLevel       string `envconfig:"SEQWIN_LOG_LEVEL" default:"info" toml:"log_level"`
	LogDevelopment bool   `envconfig:"SEQWIN_LOG_DEVELOPMENT" default:"false" toml:"log_development"`

	Pipeline    pipeline.Config    `toml:"pipeline"`
	Observation observation.Config `toml:"observation"`
	Collect     collect.Config     `toml:"collect"`
	Run         run.Config         `toml:"run"`
	Database    database.Config    `toml:"database"`
	Predictor   predictor.Config   `toml:"predictor"`
	Ridge       ridge.Config       `toml:"ridge"`
	Remote      remote.Config      `toml:"remote"`
	KNN         knn.Config         `toml:"knn"`
	Cache       cache.Config       `toml:"cache"`
	Scrape      scrape.Config      `toml:"scrape"`
	Notify      notify.Config      `toml:"notify"`
}

// Load applies defaults and environment variables, then the TOML file at
// path when path is not empty. Values in an explicit file win over the
// environment.
func Load(path string, cfg interface{}) error {
	if err := envconfig.Process("", cfg); err != nil {
		return fmt.Errorf("error loading environment variables: %w", err)
	}
	if path == "" {
		return nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) DatabaseConfig() *database.Config {
	return &c.Database
}

func (c *Config) PredictorType() predictor.AlgType {
	return c.Predictor.Type
}

func (c *Config) PredictConfig() *predictor.Config {
	return &c.Predictor
}

func (c *Config) RidgeConfig() *ridge.Config {
	return &c.Ridge
}

func (c *Config) RemoteConfig() *remote.Config {
	return &c.Remote
}

func (c *Config) ObservationConfig() *observation.Config {
	return &c.Observation
}

func (c *Config) CacheConfig() *cache.Config {
	return &c.Cache
}

func (c *Config) ScrapeConfig() *scrape.Config {
	return &c.Scrape
}

func (c *Config) NotifyConfig() *notify.Config {
	return &c.Notify
}

func (c *Config) KNNConfig() *knn.Config {
	return &c.KNN
}
