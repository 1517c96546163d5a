// Package notify delivers report summaries to webhook targets. Pending
// notifications survive restarts in storage.
package notify

import (
	"bytes"
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

	"github.com/go-sod/seqwin/internal/database"
	"github.com/go-sod/seqwin/internal/httputil"
	"github.com/go-sod/seqwin/internal/logging"
	notifyDb "github.com/go-sod/seqwin/internal/notify/database"
	"github.com/go-sod/seqwin/internal/notify/model"
	"github.com/go-sod/seqwin/internal/pipeline"
	"golang.org/x/sync/semaphore"
)

type ProvideFn = func(chan<- error) (Manager, error)

const UserAgent = "seqwin/0.1"

type Notifier interface {
	Notify(rep *pipeline.Report)
}

type Manager interface {
	Notifier
	Run(context.Context) error
	Stop()
}

type request struct {
	Notifications []model.Notification `json:"notifications"`
}

type Option func(*manager)

func WithConfig(cfg *Config) Option {
	return func(m *manager) {
		m.cfg = *cfg
	}
}

func New(db *database.DB, shutdownCh chan<- error, opts ...Option) (*manager, error) {
	if db == nil {
		return nil, fmt.Errorf("database is not configured")
	}
	m := &manager{
		notifyDb:   notifyDb.New(db),
		shutdownCh: shutdownCh,
		cfg: Config{
			Interval:             5 * time.Second,
			MaxConcurrentRequest: 8,
			RequestTimeout:       10 * time.Second,
		},
		clients: map[string]*http.Client{},
		pending: map[string][]model.Notification{},
	}
	for _, f := range opts {
		f(m)
	}
	if m.cfg.Interval <= 0 {
		return nil, fmt.Errorf("notify interval must be positive, got %s", m.cfg.Interval)
	}
	if m.cfg.MaxConcurrentRequest <= 0 {
		m.cfg.MaxConcurrentRequest = 1
	}
	for _, target := range m.cfg.Targets {
		if _, err := url.ParseRequestURI(target.URL); err != nil {
			return nil, fmt.Errorf("target url %q: %w", target.URL, err)
		}
		if _, ok := m.clients[target.URL]; ok {
			continue
		}
		client, err := httputil.NewClientFromConfig(target.HTTPConfig, m.cfg.RequestTimeout, true)
		if err != nil {
			return nil, fmt.Errorf("unable create client for target %s: %w", target.URL, err)
		}
		m.clients[target.URL] = client
	}
	return m, nil
}

type manager struct {
	mtx        sync.Mutex
	cfg        Config
	notifyDb   *notifyDb.DB
	shutdownCh chan<- error
	clients    map[string]*http.Client
	pending    map[string][]model.Notification
	cancel     func()
}

// Run restores notifications left over from a previous run and starts the
// delivery loop.
func (m *manager) Run(ctx context.Context) error {
	if err := m.initialize(ctx); err != nil {
		return fmt.Errorf("can not start notify manager: %w", err)
	}
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	go m.notifier(ctx)
	return nil
}

func (m *manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
}

func (m *manager) Notify(rep *pipeline.Report) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	for _, target := range m.cfg.Targets {
		if target.accepts(rep.Dataset) {
			m.pending[target.URL] = append(m.pending[target.URL], model.NewNotification(target.URL, rep))
		}
	}
}

func (m *manager) initialize(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	list, err := m.notifyDb.FindAll(ctx, func(n model.Notification) bool {
		_, ok := m.clients[n.Target]
		return ok
	})
	if err != nil {
		return err
	}
	m.mtx.Lock()
	for _, n := range list {
		m.pending[n.Target] = append(m.pending[n.Target], n)
	}
	m.mtx.Unlock()
	if err := m.notifyDb.Delete(ctx, list...); err != nil {
		return fmt.Errorf("unable delete restored notifications: %w", err)
	}
	if len(list) > 0 {
		logger.Infof("restored %d pending notifications", len(list))
	}
	return nil
}

// shutdown stores whatever is still pending.
func (m *manager) shutdown(ctx context.Context) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	for target, list := range m.pending {
		if err := m.notifyDb.Store(ctx, list...); err != nil {
			return fmt.Errorf("notify shutdown: unable store notifications: %w", err)
		}
		delete(m.pending, target)
	}
	return nil
}

func (m *manager) notifier(ctx context.Context) {
	defer func() {
		m.shutdownCh <- m.shutdown(context.Background())
	}()
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.deliver(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// deliver sends the pending notifications of every target. A target that
// fails keeps its notifications for the next round.
func (m *manager) deliver(ctx context.Context) {
	logger := logging.FromContext(ctx)
	sem := semaphore.NewWeighted(int64(m.cfg.MaxConcurrentRequest))
	wg := sync.WaitGroup{}
	for target := range m.clients {
		m.mtx.Lock()
		list := append([]model.Notification(nil), m.pending[target]...)
		m.mtx.Unlock()
		if len(list) == 0 {
			continue
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(target string, list []model.Notification) {
			defer wg.Done()
			defer sem.Release(1)
			if err := m.do(ctx, target, request{Notifications: list}); err != nil {
				logger.Errorf("notify %s: %v", target, err)
				return
			}
			m.mtx.Lock()
			m.pending[target] = m.pending[target][len(list):]
			m.mtx.Unlock()
		}(target, list)
	}
	wg.Wait()
}

func (m *manager) do(ctx context.Context, target string, r request) error {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if err := json.NewEncoder(gz).Encode(&r); err != nil {
		return fmt.Errorf("unable encode json data: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("unable compress request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, &buf)
	if err != nil {
		return fmt.Errorf("creating request error: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")
	req.Header.Set("User-Agent", UserAgent)

	resp, err := m.clients[target].Do(req)
	if err != nil {
		return fmt.Errorf("sending request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := ioutil.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("response was not 2xx: %d %s", resp.StatusCode, body)
	}
	_, _ = io.Copy(ioutil.Discard, resp.Body)
	return nil
}
