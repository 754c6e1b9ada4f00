// Package commands implements the contrib-stats subcommands.
package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/oss-pulse/contrib-stats/internal/config"
	"github.com/oss-pulse/contrib-stats/internal/ingest"
	"github.com/oss-pulse/contrib-stats/internal/repolist"
	"github.com/oss-pulse/contrib-stats/internal/report"
	"github.com/oss-pulse/contrib-stats/internal/store"
	"github.com/oss-pulse/contrib-stats/internal/telemetry"
)

// app carries the shared runtime every subcommand needs.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
}

// setup loads configuration and builds the logger and telemetry runtime.
// The returned cleanup must run before process exit.
func setup(cmd *cobra.Command) (*app, func(), error) {
	configPath, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, nil, fmt.Errorf("read config flag: %w", err)
	}

	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = zap.NewAtomicLevelAt(logLevel(cfg.LogLevel))
	logger, err := loggerConfig.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}

	telemetryRuntime, err := telemetry.Setup(telemetry.Config{
		Enabled:     cfg.Telemetry.OTELEnabled,
		ServiceName: "contrib-stats",
		SampleRatio: cfg.Telemetry.OTELTraceSampleRatio,
	})
	if err != nil {
		_ = logger.Sync()
		return nil, nil, fmt.Errorf("setup telemetry: %w", err)
	}

	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = telemetryRuntime.Shutdown(shutdownCtx)
		_ = logger.Sync()
	}
	return &app{cfg: cfg, logger: logger}, cleanup, nil
}

func logLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// normalizer builds the event normalizer from aggregation settings.
func (a *app) normalizer() *ingest.Normalizer {
	return ingest.NewNormalizer(a.cfg.Aggregation.StartDate, a.cfg.Aggregation.Bots)
}

// sources resolves the cache directories and tracked repository list.
func (a *app) sources() (report.Sources, error) {
	repos, err := repolist.Load(a.cfg.Project.RepositoriesFile)
	if err != nil {
		return report.Sources{}, fmt.Errorf("load repository list: %w", err)
	}
	return report.Sources{
		ContributorDir:  a.cfg.Cache.ContributorDir,
		StargazerDir:    a.cfg.Cache.StargazerDir,
		Repositories:    repos,
		DiscussionsRepo: a.cfg.Project.DiscussionsRepo,
	}, nil
}

// stores builds the publish targets: the file store always, Redis in
// addition when configured as the backend.
func (a *app) stores() ([]store.Store, func(), error) {
	fileStore, err := store.NewFileStore(a.cfg.Results.Dir)
	if err != nil {
		return nil, nil, fmt.Errorf("open results store: %w", err)
	}
	targets := []store.Store{fileStore}

	if a.cfg.Store.Backend == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     a.cfg.Store.RedisAddr,
			Password: a.cfg.Store.RedisPassword,
			DB:       a.cfg.Store.RedisDB,
		})
		targets = append(targets, store.NewRedisStore(client, store.RedisStoreConfig{
			TTL: a.cfg.Store.RedisTTL,
		}))
	}

	cleanup := func() {
		for _, target := range targets {
			_ = target.Close()
		}
	}
	return targets, cleanup, nil
}
