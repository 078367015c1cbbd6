package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"esusu/native/savings"
	"esusu/observability"
	"esusu/observability/logging"
	telemetry "esusu/observability/otel"
	"esusu/services/savings/chain"
	"esusu/services/savings/server"
	"esusu/services/savings/snapshot"
	"esusu/services/savings/source"
	"esusu/services/savings/storage"
	"esusu/services/savingsd/config"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "services/savingsd/config.yaml", "path to savingsd config")
	flag.Parse()

	if err := run(cfgPath); err != nil {
		log.Fatalf("savingsd: %v", err)
	}
}

func run(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	env := cfg.Environment
	if override := strings.TrimSpace(os.Getenv("SAVINGS_ENV")); override != "" {
		env = override
	}
	logger, logCloser := logging.Setup("savingsd", env, logging.Options{
		Level: logging.ParseLevel(cfg.Logging.Level),
		File: logging.FileOptions{
			Path:       cfg.Logging.File,
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAgeDays: cfg.Logging.MaxAgeDays,
			Compress:   cfg.Logging.Compress,
		},
	})
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.ConfigFromEnv("savingsd", env))
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			logger.Warn("telemetry shutdown", "error", err)
		}
	}()

	src, closeSource, err := buildSource(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	var store snapshot.Store
	if cfg.Storage.DSN != "" {
		db, err := storage.Open(storage.Config{Driver: cfg.Storage.Driver, DSN: cfg.Storage.DSN})
		if err != nil {
			return fmt.Errorf("open storage %s: %w", logging.MaskEndpoint(cfg.Storage.DSN), err)
		}
		defer db.Close()
		store = db
		go db.RunRetention(ctx, cfg.Storage.Retain, cfg.Storage.PruneEvery, func(err error) {
			logger.Warn("prune snapshots", "error", err)
		})
		logger.Info("snapshot storage ready", "driver", cfg.Storage.Driver, "dsn", logging.MaskEndpoint(cfg.Storage.DSN))
	}

	refresher, err := snapshot.NewRefresher(src, store, snapshot.Config{
		Interval: cfg.Refresh.Interval,
		MinGap:   cfg.Refresh.MinGap,
		Logger:   logger,
		Metrics:  observability.Snapshot(),
	})
	if err != nil {
		return fmt.Errorf("build refresher: %w", err)
	}
	if err := refresher.Restore(ctx); err != nil {
		logger.Warn("restore snapshot", "error", err)
	}
	go func() {
		if err := refresher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("snapshot refresher stopped", "error", err)
		}
	}()

	estimator, err := savings.NewEstimator(cfg.Reward.Rate())
	if err != nil {
		return fmt.Errorf("build estimator: %w", err)
	}
	api, err := server.New(server.Config{
		Snapshots:       refresher,
		Estimator:       estimator,
		Contracts:       cfg.Contracts(),
		Logger:          logger,
		Metrics:         observability.API(),
		SnapshotMetrics: observability.Snapshot(),
		RateLimit: server.RateLimit{
			RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
			Burst:             cfg.RateLimit.Burst,
			TrustedProxies:    cfg.RateLimit.TrustedProxies,
		},
		ServiceName: "savingsd",
	})
	if err != nil {
		return fmt.Errorf("build api: %w", err)
	}

	httpServer := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           otelhttp.NewHandler(api.Handler(), "savingsd"),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("savingsd listening", "addr", cfg.ListenAddress, "env", env)
		serverErr <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("forcing server stop", "error", err)
			_ = httpServer.Close()
		}
		return nil
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	}
}

// buildSource selects the chain or fixture source. The returned func
// releases the RPC connection, if any.
func buildSource(ctx context.Context, cfg config.Config, logger *slog.Logger) (source.Source, func(), error) {
	var fixture *source.Fixture
	if cfg.Fixtures != "" {
		loaded, err := source.NewFixture(cfg.Fixtures)
		if err != nil {
			return nil, nil, fmt.Errorf("load fixtures: %w", err)
		}
		fixture = loaded
	}
	if !cfg.Chain.Enabled {
		logger.Info("serving fixture data", "path", cfg.Fixtures)
		return fixture, func() {}, nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	client, err := chain.Dial(dialCtx, cfg.Chain.RPCURL, cfg.Chain.ChainID)
	if err != nil {
		return nil, nil, fmt.Errorf("connect %s: %w", logging.MaskEndpoint(cfg.Chain.RPCURL), err)
	}
	reader, err := chain.NewThriftReader(client, chain.ThriftConfig{
		Address:      common.HexToAddress(cfg.Chain.Thrift),
		TotalRounds:  cfg.Chain.TotalRounds,
		MaxCampaigns: cfg.Chain.MaxCampaigns,
		Logger:       logger,
	})
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	var locks source.Source
	if fixture != nil {
		locks = fixture
	}
	logger.Info("reading campaigns on chain",
		"network", cfg.Chain.Network,
		"chain_id", cfg.Chain.ChainID,
		"rpc", logging.MaskEndpoint(cfg.Chain.RPCURL),
		"thrift", cfg.Chain.Thrift)
	return source.NewChain(reader, locks), client.Close, nil
}
