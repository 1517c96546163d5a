package srvenv

import (
	"context"

	"github.com/go-sod/seqwin/internal/database"
	"github.com/go-sod/seqwin/internal/notify"
	"github.com/go-sod/seqwin/internal/observation"
	"github.com/go-sod/seqwin/internal/predictor"
	"github.com/go-sod/seqwin/internal/report"
	"github.com/go-sod/seqwin/internal/scrape"
)

type Option func(*SrvEnv) *SrvEnv

func New(opts ...Option) *SrvEnv {
	env := &SrvEnv{}
	for _, f := range opts {
		env = f(env)
	}

	return env
}

type SrvEnv struct {
	database    *database.DB
	predictor   predictor.ProvideFn
	observation observation.ProvideFn
	reports     *report.Store
	scrape      scrape.ProvideFn
	notify      notify.ProvideFn
	closers     []func() error
}

func (s *SrvEnv) ProvidePredictor() predictor.ProvideFn {
	return s.predictor
}

func (s *SrvEnv) ProvideObservation() observation.ProvideFn {
	return s.observation
}

// ProvideScrape is nil when no scrape target is configured.
func (s *SrvEnv) ProvideScrape() scrape.ProvideFn {
	return s.scrape
}

// ProvideNotify is nil when no notification target is configured.
func (s *SrvEnv) ProvideNotify() notify.ProvideFn {
	return s.notify
}

func (s *SrvEnv) Reports() *report.Store {
	return s.reports
}

func (s *SrvEnv) Database() *database.DB {
	return s.database
}

func WithPredictor(fn predictor.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.predictor = fn
		return s
	}
}

func WithObservation(fn observation.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.observation = fn
		return s
	}
}

func WithScrape(fn scrape.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.scrape = fn
		return s
	}
}

func WithNotify(fn notify.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.notify = fn
		return s
	}
}

func WithReports(store *report.Store) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.reports = store
		return s
	}
}

func WithDatabase(db *database.DB) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.database = db
		return s
	}
}

// WithCloser registers fn to run on Close before the database is closed.
func WithCloser(fn func() error) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.closers = append(s.closers, fn)
		return s
	}
}

func (s *SrvEnv) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}
	for _, fn := range s.closers {
		if err := fn(); err != nil {
			return err
		}
	}

	if s.database != nil {
		return s.database.Close(ctx)
	}
	return nil
}
