package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-sod/seqwin/internal/database"
	"github.com/go-sod/seqwin/internal/notify/model"
	bolt "go.etcd.io/bbolt"
)

const (
	notifyKeys = "notify:keys:"
	prefix     = "notify:"
)

type FilterFn func(n model.Notification) bool

func New(db *database.DB) *DB {
	return &DB{sDB: db}
}

// DB keeps undelivered notifications in one bucket per target URL.
type DB struct {
	sDB *database.DB
}

func (db *DB) Store(_ context.Context, list ...model.Notification) error {
	if len(list) == 0 {
		return nil
	}
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		keys, err := tx.CreateBucketIfNotExists([]byte(notifyKeys))
		if err != nil {
			return fmt.Errorf("unable create keys bucket: %w", err)
		}
		for _, n := range list {
			bytes, err := json.Marshal(n)
			if err != nil {
				return err
			}
			b, err := tx.CreateBucketIfNotExists([]byte(prefix + n.Target))
			if err != nil {
				return fmt.Errorf("create bucket: %w", err)
			}
			if err := b.Put([]byte(n.ID.String()), bytes); err != nil {
				return fmt.Errorf("put to bucket error: %w", err)
			}
			if err := keys.Put([]byte(prefix+n.Target), []byte{0x0}); err != nil {
				return fmt.Errorf("unable put to keys bucket: %w", err)
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}
	return nil
}

func (db *DB) Delete(_ context.Context, list ...model.Notification) error {
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		for _, n := range list {
			b := tx.Bucket([]byte(prefix + n.Target))
			if b == nil {
				continue
			}
			if err := b.Delete([]byte(n.ID.String())); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}
	return nil
}

func (db *DB) FindAll(_ context.Context, filter FilterFn) ([]model.Notification, error) {
	var list []model.Notification
	err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		keys := tx.Bucket([]byte(notifyKeys))
		if keys == nil {
			return nil
		}
		return keys.ForEach(func(k, _ []byte) error {
			b := tx.Bucket(k)
			if b == nil {
				return nil
			}
			return b.ForEach(func(_, v []byte) error {
				var n model.Notification
				if err := json.Unmarshal(v, &n); err != nil {
					return fmt.Errorf("notification unmarshal error: %w", err)
				}
				if filter == nil || filter(n) {
					list = append(list, n)
				}
				return nil
			})
		})
	})
	return list, err
}
