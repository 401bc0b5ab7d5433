package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/rickgao/zorro-assets/internal/catalog"
	"github.com/rickgao/zorro-assets/internal/collector"
	"github.com/rickgao/zorro-assets/internal/config"
	"github.com/rickgao/zorro-assets/internal/database"
	"github.com/rickgao/zorro-assets/internal/feed"
	"github.com/rickgao/zorro-assets/internal/host"
	"github.com/rickgao/zorro-assets/internal/model"
	"github.com/rickgao/zorro-assets/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/assetgen.local.yaml", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err, "config", *configPath)
		os.Exit(1)
	}

	runID := uuid.New()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	})).With("run_id", runID.String())
	slog.SetDefault(logger)

	logger.Info("starting assetgen",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
		"source", cfg.Feed.Source,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if err := run(ctx, cfg, runID, logger); err != nil {
		logger.Error("assetgen failed", "error", err)
		os.Exit(1)
	}

	logger.Info("assetgen stopped")
}

func run(ctx context.Context, cfg *config.GeneratorConfig, runID uuid.UUID, logger *slog.Logger) error {
	src, cleanup, err := newSource(ctx, cfg, runID, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	cat := catalog.NewMemory()
	h := host.New(cat,
		host.WithLogger(logger.With("component", "host")),
		host.WithBufferSize(cfg.Feed.BufferSize),
	)

	drv := collector.New(collectorConfig(cfg), cat,
		collector.WithLogger(logger.With("component", "collector")),
		collector.WithStatusSink(collector.LogStatus(logger.With("component", "status"))),
		collector.WithStopFunc(h.Stop),
	)
	defer drv.Close()

	err = h.Run(ctx, src, drv)
	logger.Info("run finished", summary(drv.Phase(), drv.Stats(), h.Stats())...)

	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("interrupted in %s phase: %w", drv.Phase(), err)
	}
	return err
}

// newSource builds the configured feed source and its cleanup.
func newSource(ctx context.Context, cfg *config.GeneratorConfig, runID uuid.UUID, logger *slog.Logger) (feed.Source, func(), error) {
	switch cfg.Feed.Source {
	case config.SourceReplay:
		logger.Info("connecting to database",
			"host", cfg.Database.Host,
			"port", cfg.Database.Port,
			"database", cfg.Database.Name,
		)
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		logger.Info("database connected")

		src := feed.NewReplaySource(pool, feed.ReplayConfig{
			Account:  model.Account{BrokerName: cfg.Account.Broker, IsLive: cfg.Account.Live},
			From:     cfg.Replay.From,
			To:       cfg.Replay.To,
			PageSize: cfg.Replay.PageSize,
		}, logger.With("component", "replay"))
		return src, pool.Close, nil

	default:
		src := feed.NewWSSource(feed.ClientConfig{
			URL:          cfg.Feed.WSURL,
			APIKey:       cfg.Feed.APIKey,
			PingTimeout:  cfg.Feed.PingTimeout,
			WriteTimeout: cfg.Feed.WriteTimeout,
			BufferSize:   cfg.Feed.BufferSize,
		}, runID, logger.With("component", "feed"))
		return src, func() {}, nil
	}
}

// summary returns the log attributes for the end-of-run line.
func summary(phase collector.Phase, stats collector.Stats, events host.Stats) []any {
	return []any{
		"phase", phase.String(),
		"admitted", stats.Admitted,
		"excluded", stats.Excluded,
		"invalid", stats.Invalid,
		"written", stats.Written,
		"session_faults", stats.SessionFaults,
		"stale_samples", stats.StaleSamples,
		"quotes", events.Quotes,
		"steps", events.Steps,
		"early_quotes", events.EarlyQuotes,
		"unknown_quotes", events.UnknownQuotes,
	}
}

func collectorConfig(cfg *config.GeneratorConfig) collector.Config {
	return collector.Config{
		HistoryPath:  cfg.Export.HistoryPath,
		Exclude:      cfg.Export.Exclude,
		SampleTarget: cfg.Export.SampleTarget,
		Window: collector.Window{
			Enabled:   cfg.SessionWindow.Enabled,
			StartHour: cfg.SessionWindow.Start(),
			EndHour:   cfg.SessionWindow.End(),
		},
		StatusEvery: cfg.Status.Interval(),
	}
}
