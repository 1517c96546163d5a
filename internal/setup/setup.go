// Package setup builds a srvenv.SrvEnv from a configuration struct. Each
// concern is configured only when the struct implements its provider
// interface.
package setup

import (
	"context"
	"fmt"

	"github.com/go-sod/seqwin/internal/database"
	"github.com/go-sod/seqwin/internal/logging"
	"github.com/go-sod/seqwin/internal/notify"
	"github.com/go-sod/seqwin/internal/observation"
	"github.com/go-sod/seqwin/internal/predictor"
	"github.com/go-sod/seqwin/internal/predictor/knn"
	"github.com/go-sod/seqwin/internal/predictor/mean"
	"github.com/go-sod/seqwin/internal/predictor/remote"
	"github.com/go-sod/seqwin/internal/predictor/ridge"
	"github.com/go-sod/seqwin/internal/report"
	"github.com/go-sod/seqwin/internal/report/cache"
	reportDb "github.com/go-sod/seqwin/internal/report/database"
	"github.com/go-sod/seqwin/internal/scrape"
	"github.com/go-sod/seqwin/internal/srvenv"
)

type DatabaseConfigProvider interface {
	DatabaseConfig() *database.Config
}

type PredictorConfigProvider interface {
	PredictConfig() *predictor.Config
	PredictorType() predictor.AlgType
	RidgeConfig() *ridge.Config
	RemoteConfig() *remote.Config
	KNNConfig() *knn.Config
}

type ObservationConfigProvider interface {
	ObservationConfig() *observation.Config
}

type CacheConfigProvider interface {
	CacheConfig() *cache.Config
}

type ScrapeConfigProvider interface {
	ScrapeConfig() *scrape.Config
}

type NotifyConfigProvider interface {
	NotifyConfig() *notify.Config
}

// Setup expects config to be loaded already.
func Setup(ctx context.Context, config interface{}) (*srvenv.SrvEnv, error) {
	logger := logging.FromContext(ctx)
	var serverEnvOpts []srvenv.Option

	var db *database.DB
	if dbConfigProvider, ok := config.(DatabaseConfigProvider); ok {
		logger.Info("Configuring db")
		dbFromEnv, err := database.NewFromEnv(ctx, dbConfigProvider.DatabaseConfig())
		if err != nil {
			return nil, fmt.Errorf("unable to connect to database: %w", err)
		}
		db = dbFromEnv
		serverEnvOpts = append(serverEnvOpts, srvenv.WithDatabase(db))
	}

	if predictConfigProvider, ok := config.(PredictorConfigProvider); ok {
		logger.Infof("Configuring predictor %s", predictConfigProvider.PredictorType())
		provideFn, err := ProvidePredictorFor(predictConfigProvider)
		if err != nil {
			return nil, fmt.Errorf("unable create predictor provide function: %w", err)
		}
		serverEnvOpts = append(serverEnvOpts, srvenv.WithPredictor(provideFn))
	}

	if obsConfigProvider, ok := config.(ObservationConfigProvider); ok && db != nil {
		logger.Info("Configuring observation storage")
		serverEnvOpts = append(serverEnvOpts, srvenv.WithObservation(ProvideObservationFor(obsConfigProvider, db)))
	}

	if scrapeConfigProvider, ok := config.(ScrapeConfigProvider); ok && scrapeConfigProvider.ScrapeConfig().Enabled() {
		logger.Infof("Configuring scrape of %d targets", len(scrapeConfigProvider.ScrapeConfig().Targets))
		serverEnvOpts = append(serverEnvOpts, srvenv.WithScrape(ProvideScrapeFor(scrapeConfigProvider)))
	}

	if notifyConfigProvider, ok := config.(NotifyConfigProvider); ok && notifyConfigProvider.NotifyConfig().Enabled() && db != nil {
		logger.Infof("Configuring notifications to %d targets", len(notifyConfigProvider.NotifyConfig().Targets))
		serverEnvOpts = append(serverEnvOpts, srvenv.WithNotify(ProvideNotifyFor(notifyConfigProvider, db)))
	}

	if db != nil {
		var c *cache.Cache
		if cacheConfigProvider, ok := config.(CacheConfigProvider); ok && cacheConfigProvider.CacheConfig().Enabled() {
			cfg := cacheConfigProvider.CacheConfig()
			logger.Infof("Configuring report cache on %s", cfg.Addr)
			client, err := cache.NewClient(ctx, cfg)
			if err != nil {
				return nil, fmt.Errorf("unable to connect to redis: %w", err)
			}
			c = cache.New(client, cfg.TTL)
			serverEnvOpts = append(serverEnvOpts, srvenv.WithCloser(client.Close))
		}
		serverEnvOpts = append(serverEnvOpts, srvenv.WithReports(report.NewStore(reportDb.New(db), c)))
	}

	return srvenv.New(serverEnvOpts...), nil
}

func ProvideObservationFor(provider ObservationConfigProvider, db *database.DB) observation.ProvideFn {
	cfg := provider.ObservationConfig()
	return func(shutdownCh chan<- error) (observation.Manager, error) {
		return observation.New(db, shutdownCh, observation.WithConfig(cfg))
	}
}

func ProvideNotifyFor(provider NotifyConfigProvider, db *database.DB) notify.ProvideFn {
	cfg := provider.NotifyConfig()
	return func(shutdownCh chan<- error) (notify.Manager, error) {
		return notify.New(db, shutdownCh, notify.WithConfig(cfg))
	}
}

func ProvideScrapeFor(provider ScrapeConfigProvider) scrape.ProvideFn {
	cfg := provider.ScrapeConfig()
	return func(collector observation.Collector, shutdownCh chan<- error) (scrape.Manager, error) {
		return scrape.New(collector, shutdownCh, scrape.WithConfig(cfg))
	}
}

// ProvidePredictorFor returns a factory producing a fresh, unfitted predictor
// of the configured type on every call.
func ProvidePredictorFor(provider PredictorConfigProvider) (predictor.ProvideFn, error) {
	switch provider.PredictorType() {
	case predictor.AlgTypeMean:
		return func() (predictor.Predictor, error) {
			return mean.New(), nil
		}, nil
	case predictor.AlgTypeRidge:
		cfg := provider.RidgeConfig()
		if _, err := ridge.New(ridge.WithLambda(cfg.Lambda)); err != nil {
			return nil, err
		}
		return func() (predictor.Predictor, error) {
			return ridge.New(ridge.WithLambda(cfg.Lambda))
		}, nil
	case predictor.AlgTypeKNN:
		cfg := provider.KNNConfig()
		if _, err := knn.New(knn.WithK(cfg.K)); err != nil {
			return nil, err
		}
		return func() (predictor.Predictor, error) {
			return knn.New(knn.WithK(cfg.K))
		}, nil
	case predictor.AlgTypeRemote:
		cfg := provider.RemoteConfig()
		if _, err := remote.New(cfg); err != nil {
			return nil, err
		}
		return func() (predictor.Predictor, error) {
			return remote.New(cfg)
		}, nil
	default:
		return nil, fmt.Errorf("unknown predictor type: %s", provider.PredictorType())
	}
}
