package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/go-sod/seqwin/internal/buildinfo"
	"github.com/go-sod/seqwin/internal/collect"
	"github.com/go-sod/seqwin/internal/config"
	"github.com/go-sod/seqwin/internal/logging"
	"github.com/go-sod/seqwin/internal/metrics"
	"github.com/go-sod/seqwin/internal/notify"
	"github.com/go-sod/seqwin/internal/report"
	"github.com/go-sod/seqwin/internal/run"
	"github.com/go-sod/seqwin/internal/server"
	"github.com/go-sod/seqwin/internal/setup"
	"github.com/go-sod/seqwin/internal/shutdown"
	"github.com/joho/godotenv"
)

var configPath = flag.String("config", "", "path to a TOML config file")

func main() {
	flag.Parse()
	_, _ = fmt.Fprintf(
		os.Stdout,
		"%s: %s, %s\n",
		buildinfo.Info.Name(),
		buildinfo.Info.Time(),
		buildinfo.Info.Tag(),
	)

	ctx, done := shutdown.New()
	defer done()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.FromContext(ctx).Fatalf("load .env: %v", err)
	}

	cfg := config.Config{}
	if err := config.Load(*configPath, &cfg); err != nil {
		logging.FromContext(ctx).Fatal(err)
	}

	logger := logging.NewLogger(cfg.LogLevel, cfg.LogDevelopment)
	ctx = logging.WithLogger(ctx, logger)
	if err := runServer(ctx, done, &cfg); err != nil {
		logger.Fatal(err)
	}
}

func runServer(ctx context.Context, cancel func(), cfg *config.Config) error {
	logger := logging.FromContext(ctx)

	env, err := setup.Setup(ctx, cfg)
	if err != nil {
		return fmt.Errorf("setup.Setup: %w", err)
	}
	defer func() {
		if err := env.Close(context.Background()); err != nil {
			logger.Errorf("srvenv.Close: %v", err)
		}
	}()

	shutdownCount := 1
	if env.ProvideScrape() != nil {
		shutdownCount++
	}
	if env.ProvideNotify() != nil {
		shutdownCount++
	}
	shutdownCh := make(chan error, shutdownCount)
	manager, err := env.ProvideObservation()(shutdownCh)
	if err != nil {
		return fmt.Errorf("observation provider function error: %w", err)
	}
	if err := manager.Run(ctx); err != nil {
		return fmt.Errorf("observation.Run: %w", err)
	}

	if env.ProvideScrape() != nil {
		scrapper, err := env.ProvideScrape()(manager, shutdownCh)
		if err != nil {
			return fmt.Errorf("scrape provider function error: %w", err)
		}
		if err := scrapper.Run(ctx); err != nil {
			return fmt.Errorf("scrape.Run: %w", err)
		}
	}

	var notifier notify.Notifier
	if env.ProvideNotify() != nil {
		notifyManager, err := env.ProvideNotify()(shutdownCh)
		if err != nil {
			return fmt.Errorf("notify provider function error: %w", err)
		}
		if err := notifyManager.Run(ctx); err != nil {
			return fmt.Errorf("notify.Run: %w", err)
		}
		notifier = notifyManager
	}

	mux := http.NewServeMux()

	collectHandler, err := collect.NewHandler(&cfg.Collect, manager)
	if err != nil {
		return fmt.Errorf("collect.NewHandler: %w", err)
	}
	runHandler, err := run.NewHandler(&cfg.Run, run.Deps{
		Loader:    manager,
		Predictor: env.ProvidePredictor(),
		Reports:   env.Reports(),
		Pipeline:  cfg.Pipeline,
		Notifier:  notifier,
	})
	if err != nil {
		return fmt.Errorf("run.NewHandler: %w", err)
	}
	metricsHandler, err := metrics.NewHandler()
	if err != nil {
		return fmt.Errorf("metrics.NewHandler: %w", err)
	}

	mux.Handle("/collect", collectHandler)
	mux.Handle("/run", runHandler)
	mux.Handle("/report", report.NewHandler(env.Reports()))
	mux.Handle("/metrics", metricsHandler)
	mux.Handle("/health", server.HandleHealth(ctx))

	srv, err := server.New(cfg.SrvAddr, cfg.MaxConnections)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}
	grpcSrv, err := server.New(cfg.GRPCAddr, cfg.MaxConnections)
	if err != nil {
		return fmt.Errorf("server.New grpc: %w", err)
	}
	healthSrv, _ := server.NewHealthGRPC()

	logger.Infof("listening on %s, grpc health on %s", srv.Addr(), grpcSrv.Addr())
	go func() {
		if err := srv.ServeHTTPHandler(ctx, mux); err != nil {
			logger.Errorf("http: %v", err)
			cancel()
		}
	}()
	go func() {
		if err := grpcSrv.ServeGRPC(ctx, healthSrv); err != nil {
			logger.Errorf("grpc: %v", err)
			cancel()
		}
	}()

	var shutdownErr error
	for i := 0; i < shutdownCount; i++ {
		if err := <-shutdownCh; err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}
	return shutdownErr
}
