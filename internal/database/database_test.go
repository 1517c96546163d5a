package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestNewFromEnv(t *testing.T) {
	ctx := context.Background()
	cfg := &Config{FileName: filepath.Join(t.TempDir(), "test.db"), OpenTimeout: time.Second}

	db, err := NewFromEnv(ctx, cfg)
	if err != nil {
		t.Fatalf("calling NewFromEnv, err got: %v, expected: nil", err)
	}
	if err := db.Close(ctx); err != nil {
		t.Errorf("calling Close, err got: %v, expected: nil", err)
	}
}
