// Package scrape periodically pulls batches of rows from remote endpoints and
// hands them to an observation collector.
package scrape

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-sod/seqwin/internal/httputil"
	"github.com/go-sod/seqwin/internal/logging"
	"github.com/go-sod/seqwin/internal/metrics"
	"github.com/go-sod/seqwin/internal/observation"
	"github.com/go-sod/seqwin/internal/observation/model"
	"golang.org/x/sync/semaphore"
)

const UserAgent = "seqwin/0.1"

type Manager interface {
	Run(context.Context) error
	Stop()
}

type ProvideFn = func(observation.Collector, chan<- error) (Manager, error)

type Option func(*manager)

func WithConfig(cfg *Config) Option {
	return func(m *manager) {
		m.cfg = *cfg
	}
}

func New(collector observation.Collector, shutdownCh chan<- error, opts ...Option) (*manager, error) {
	if collector == nil {
		return nil, fmt.Errorf("collector is not defined")
	}
	m := &manager{
		collector:  collector,
		shutdownCh: shutdownCh,
		cfg: Config{
			MaxConcurrentRequest: 8,
			Interval:             time.Minute,
			RequestTimeout:       10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.cfg.MaxConcurrentRequest <= 0 {
		m.cfg.MaxConcurrentRequest = 1
	}
	if m.cfg.Interval <= 0 {
		return nil, fmt.Errorf("scrape interval must be positive, got %s", m.cfg.Interval)
	}
	for _, target := range m.cfg.Targets {
		if _, err := url.ParseRequestURI(target.URL); err != nil {
			return nil, fmt.Errorf("target url %q: %w", target.URL, err)
		}
	}

	client, err := httputil.NewClientFromConfig(httputil.HTTPClientConfig{BearerToken: m.cfg.BearerToken}, m.cfg.RequestTimeout, false)
	if err != nil {
		return nil, err
	}
	m.client = client
	return m, nil
}

type manager struct {
	cfg        Config
	collector  observation.Collector
	client     *http.Client
	shutdownCh chan<- error
	cancel     func()
}

func (s *manager) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *manager) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	go func() {
		defer func() {
			s.shutdownCh <- nil
		}()
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.scrapeAll(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

func (s *manager) scrape(ctx context.Context, target Target) (model.Batch, error) {
	var batch model.Batch
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.URL, nil)
	if err != nil {
		return batch, fmt.Errorf("creating request error: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept-Encoding", "gzip")
	resp, err := s.client.Do(req)
	if err != nil {
		return batch, fmt.Errorf("sending request error: %w", err)
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return batch, fmt.Errorf("unable create gzip.NewReader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := ioutil.ReadAll(io.LimitReader(reader, 1024))
		return batch, fmt.Errorf("response was not 200 OK: %s", body)
	}

	if err := json.NewDecoder(reader).Decode(&batch); err != nil {
		return batch, fmt.Errorf("decoding response error: %w", err)
	}
	if target.Dataset != "" {
		batch.Dataset = target.Dataset
	}
	return batch, nil
}

func (s *manager) collect(ctx context.Context, target Target) (int, error) {
	batch, err := s.scrape(ctx, target)
	if err != nil {
		return 0, err
	}
	list, err := batch.Observations()
	if err != nil {
		return 0, err
	}
	if len(batch.Fields) > 0 {
		if err := s.collector.Register(ctx, batch.Dataset, batch.Fields); err != nil {
			return 0, err
		}
	}
	if err := s.collector.Collect(ctx, list...); err != nil {
		return 0, fmt.Errorf("send to collect error: %w", err)
	}
	metrics.Record(ctx, metrics.KeyDataset, batch.Dataset, metrics.CollectedRows.M(int64(len(list))))
	return len(list), nil
}

// scrapeAll polls every target at most MaxConcurrentRequest at a time. A
// failing target is logged and does not affect the others.
func (s *manager) scrapeAll(ctx context.Context) {
	logger := logging.FromContext(ctx)
	sem := semaphore.NewWeighted(int64(s.cfg.MaxConcurrentRequest))
	wg := sync.WaitGroup{}
	for _, target := range s.cfg.Targets {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(target Target) {
			defer wg.Done()
			defer sem.Release(1)
			n, err := s.collect(ctx, target)
			if err != nil {
				logger.Errorf("scrape %s: %v", target.URL, err)
				return
			}
			logger.Debugf("scraped %d rows from %s", n, target.URL)
		}(target)
	}
	wg.Wait()
}
