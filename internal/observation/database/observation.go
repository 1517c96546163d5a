package database

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-sod/seqwin/internal/database"
	"github.com/go-sod/seqwin/internal/observation/model"
	bolt "go.etcd.io/bbolt"
)

const (
	datasetKeys   = "dataset:keys:"
	datasetFields = "dataset:fields:"
	prefix        = "observation:"
)

type FilterFn func(o model.Observation) bool

func New(db *database.DB) *DB {
	return &DB{sDB: db}
}

// DB stores observations in one bucket per dataset keyed by the big-endian
// unix-nano timestamp, so cursor order is chronological. A second observation
// with the same timestamp replaces the first.
type DB struct {
	sDB *database.DB
}

func timeKey(t time.Time) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(t.UnixNano()))
	return k
}

func bucketName(dataset string) []byte {
	return []byte(prefix + dataset)
}

func (db *DB) extractKey(key string) string {
	return strings.TrimPrefix(key, prefix)
}

// Datasets returns every dataset name that has been written to, sorted.
func (db *DB) Datasets() ([]string, error) {
	var keys []string
	err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(datasetKeys))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			keys = append(keys, db.extractKey(string(k)))
		}
		return nil
	})

	return keys, err
}

func (db *DB) Store(ctx context.Context, o model.Observation) error {
	return db.AppendMany(ctx, []model.Observation{o})
}

func (db *DB) AppendMany(_ context.Context, observations []model.Observation) error {
	if len(observations) == 0 {
		return nil
	}
	if err := db.sDB.DB.Batch(func(tx *bolt.Tx) error {
		keys, err := tx.CreateBucketIfNotExists([]byte(datasetKeys))
		if err != nil {
			return fmt.Errorf("unable create datasets bucket: %w", err)
		}
		for _, o := range observations {
			b, err := tx.CreateBucketIfNotExists(bucketName(o.Dataset))
			if err != nil {
				return fmt.Errorf("create bucket: %w", err)
			}
			bytes, err := json.Marshal(o)
			if err != nil {
				return err
			}
			if err := b.Put(timeKey(o.Time), bytes); err != nil {
				return fmt.Errorf("put to bucket error: %w", err)
			}
			if err := keys.Put(bucketName(o.Dataset), []byte{0x0}); err != nil {
				return fmt.Errorf("unable put to datasets bucket: %w", err)
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}

	return nil
}

func (db *DB) DeleteMany(_ context.Context, observations []model.Observation) error {
	if len(observations) == 0 {
		return nil
	}
	if err := db.sDB.DB.Batch(func(tx *bolt.Tx) error {
		for _, o := range observations {
			b := tx.Bucket(bucketName(o.Dataset))
			if b == nil {
				continue
			}
			if err := b.Delete(timeKey(o.Time)); err != nil {
				return fmt.Errorf("unable delete: %w", err)
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}

	return nil
}

func (db *DB) CountByDataset(dataset string) (int, error) {
	var length int
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName(dataset))
		if b == nil {
			return nil
		}
		length = b.Stats().KeyN
		return nil
	}); err != nil {
		return 0, fmt.Errorf("view transaction error: %w", err)
	}

	return length, nil
}

// FindByDataset returns the dataset's observations in chronological order.
func (db *DB) FindByDataset(dataset string, filter FilterFn) ([]model.Observation, error) {
	var list []model.Observation
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName(dataset))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var o model.Observation
			if err := json.Unmarshal(v, &o); err != nil {
				return fmt.Errorf("json unmarshal error, %q", err)
			}
			if filter == nil || filter(o) {
				list = append(list, o)
			}
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %w", err)
	}

	return list, nil
}

// FindBefore returns the dataset's observations older than t, oldest first.
func (db *DB) FindBefore(dataset string, t time.Time) ([]model.Observation, error) {
	var list []model.Observation
	limit := timeKey(t)
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName(dataset))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.First(); k != nil && string(k) < string(limit); k, v = c.Next() {
			var o model.Observation
			if err := json.Unmarshal(v, &o); err != nil {
				return fmt.Errorf("json unmarshal error, %q", err)
			}
			list = append(list, o)
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %w", err)
	}

	return list, nil
}

// Fields returns the field names registered for dataset, nil if none.
func (db *DB) Fields(dataset string) ([]string, error) {
	var fields []string
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(datasetFields))
		if b == nil {
			return nil
		}
		v := b.Get([]byte(dataset))
		if v == nil {
			return nil
		}
		return json.Unmarshal(v, &fields)
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %w", err)
	}
	return fields, nil
}

func (db *DB) SetFields(_ context.Context, dataset string, fields []string) error {
	bytes, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(datasetFields))
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		return b.Put([]byte(dataset), bytes)
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}
	return nil
}
