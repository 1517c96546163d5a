package database

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-sod/seqwin/internal/database"
	"github.com/go-sod/seqwin/internal/pipeline"
	bolt "go.etcd.io/bbolt"
)

const (
	reportKeys = "report:keys:"
	prefix     = "report:"
)

func New(db *database.DB) *DB {
	return &DB{sDB: db}
}

// DB keeps every report of a dataset in one bucket keyed by creation time
// followed by the report id, so the last key is the latest report.
type DB struct {
	sDB *database.DB
}

func reportKey(r *pipeline.Report) []byte {
	k := make([]byte, 8, 8+16)
	binary.BigEndian.PutUint64(k, uint64(r.CreatedAt.UnixNano()))
	return append(k, r.ID[:]...)
}

func (db *DB) Datasets() ([]string, error) {
	var keys []string
	err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(reportKeys))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			keys = append(keys, strings.TrimPrefix(string(k), prefix))
		}
		return nil
	})
	return keys, err
}

func (db *DB) Store(_ context.Context, r *pipeline.Report) error {
	bytes, err := json.Marshal(r)
	if err != nil {
		return err
	}
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(prefix + r.Dataset))
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		if err := b.Put(reportKey(r), bytes); err != nil {
			return fmt.Errorf("put to bucket error: %w", err)
		}
		keys, err := tx.CreateBucketIfNotExists([]byte(reportKeys))
		if err != nil {
			return fmt.Errorf("unable create reports bucket: %w", err)
		}
		if err := keys.Put([]byte(prefix+r.Dataset), []byte{0x0}); err != nil {
			return fmt.Errorf("unable put to reports bucket: %w", err)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}
	return nil
}

// Latest returns the most recent report of dataset, nil if there is none.
func (db *DB) Latest(dataset string) (*pipeline.Report, error) {
	var r *pipeline.Report
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(prefix + dataset))
		if b == nil {
			return nil
		}
		_, v := b.Cursor().Last()
		if v == nil {
			return nil
		}
		r = &pipeline.Report{}
		return json.Unmarshal(v, r)
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %w", err)
	}
	return r, nil
}

// FindByDataset returns the reports of dataset, oldest first.
func (db *DB) FindByDataset(dataset string) ([]pipeline.Report, error) {
	var list []pipeline.Report
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(prefix + dataset))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var r pipeline.Report
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("json unmarshal error, %q", err)
			}
			list = append(list, r)
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %w", err)
	}
	return list, nil
}
