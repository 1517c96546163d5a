package database

import (
	"context"
	"fmt"
	"time"

	"github.com/go-sod/seqwin/internal/logging"
	bolt "go.etcd.io/bbolt"
)

type Config struct {
	FileName    string        `envconfig:"SEQWIN_DB_FILE" default:"seqwin.db" toml:"file_name"`
	OpenTimeout time.Duration `envconfig:"SEQWIN_DB_OPEN_TIMEOUT" default:"5s" toml:"open_timeout"`
}

type DB struct {
	DB *bolt.DB
}

func NewFromEnv(ctx context.Context, config *Config) (*DB, error) {
	logger := logging.FromContext(ctx)
	logger.Infof("opening db %s", config.FileName)

	db, err := bolt.Open(config.FileName, 0600, &bolt.Options{Timeout: config.OpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("opening db %s: %w", config.FileName, err)
	}

	return &DB{DB: db}, nil
}

func (db *DB) Close(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	logger.Infof("closing db")

	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("error close db: %w", err)
	}

	return nil
}
