package observation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-sod/seqwin/internal/logging"
	"github.com/go-sod/seqwin/internal/observation/model"
)

type appendFn func(context.Context, []model.Observation) error

type writerOptions struct {
	flushSize int
	flushTime time.Duration
}

// writer accumulates observations and inserts them into storage in bulk,
// when the buffer reaches flushSize or every flushTime.
type writer struct {
	mtx sync.Mutex

	opts writerOptions
	buf  []model.Observation
	// held from drain to the end of the storage write
	flushMtx sync.Mutex
}

func newWriter(opts writerOptions) *writer {
	return &writer{opts: opts}
}

// append buffers data and triggers an asynchronous flush once the buffer is
// full.
func (w *writer) append(ctx context.Context, fn appendFn, data ...model.Observation) {
	w.mtx.Lock()
	w.buf = append(w.buf, data...)
	bufLen := len(w.buf)
	w.mtx.Unlock()

	if w.opts.flushSize > 0 && bufLen >= w.opts.flushSize {
		go w.bulkAppend(ctx, fn)
	}
}

func (w *writer) drain() []model.Observation {
	w.mtx.Lock()
	defer w.mtx.Unlock()
	if len(w.buf) == 0 {
		return nil
	}
	tmp := make([]model.Observation, len(w.buf))
	copy(tmp, w.buf)
	w.buf = w.buf[:0]
	return tmp
}

func (w *writer) bulkAppend(ctx context.Context, fn appendFn) {
	logger := logging.FromContext(ctx)
	w.flushMtx.Lock()
	defer w.flushMtx.Unlock()
	tmp := w.drain()
	if len(tmp) == 0 {
		return
	}
	if err := fn(context.Background(), tmp); err != nil {
		logger.Errorf("writer: append many operation failed: %v", err)
	}
}

// shutdown waits for a running flush and synchronously writes whatever is
// left in the buffer.
func (w *writer) shutdown(fn appendFn) error {
	w.flushMtx.Lock()
	defer w.flushMtx.Unlock()
	tmp := w.drain()
	if len(tmp) == 0 {
		return nil
	}
	if err := fn(context.Background(), tmp); err != nil {
		return fmt.Errorf("writer: append many operation failed: %w", err)
	}
	return nil
}

func (w *writer) len() int {
	w.mtx.Lock()
	defer w.mtx.Unlock()
	return len(w.buf)
}

// flusher writes the buffer every flushTime until ctx is done, then flushes
// the remainder and reports the outcome on doneCh.
func (w *writer) flusher(ctx context.Context, fn appendFn, doneCh chan<- error) {
	defer func() {
		doneCh <- w.shutdown(fn)
	}()
	ticker := time.NewTicker(w.opts.flushTime)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.bulkAppend(ctx, fn)
		case <-ctx.Done():
			return
		}
	}
}
