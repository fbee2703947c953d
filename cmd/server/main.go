// Package main runs the DataDex exchange server: the swap engine and
// liquidity manager behind an HTTP API, with optional Postgres persistence,
// ClickHouse trade analytics, a WAL-backed ledger journal, and a WebSocket
// trade feed.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/NnamdiCode/Datadextoken-sub001/internal/config"
	"github.com/NnamdiCode/Datadextoken-sub001/internal/engine"
	"github.com/NnamdiCode/Datadextoken-sub001/internal/feed"
	"github.com/NnamdiCode/Datadextoken-sub001/internal/ledger"
	"github.com/NnamdiCode/Datadextoken-sub001/internal/observability"
	"github.com/NnamdiCode/Datadextoken-sub001/internal/server"
	chstore "github.com/NnamdiCode/Datadextoken-sub001/internal/storage/clickhouse"
	"github.com/NnamdiCode/Datadextoken-sub001/internal/storage/memory"
	"github.com/NnamdiCode/Datadextoken-sub001/internal/storage/migrations"
	pgstore "github.com/NnamdiCode/Datadextoken-sub001/internal/storage/postgres"
	"github.com/NnamdiCode/Datadextoken-sub001/internal/storage/wal"
)

func main() {
	root := &cobra.Command{
		Use:          "datadex-server",
		Short:        "Constant-product swap engine server",
		SilenceUsage: true,
		RunE:         run,
	}

	root.Flags().String("config", "", "config file path")
	root.Flags().String("listen-addr", ":8080", "HTTP listen address")
	root.Flags().String("storage", "memory", "storage backend (memory, postgres)")
	root.Flags().String("postgres-dsn", "", "PostgreSQL connection string")
	root.Flags().String("clickhouse-dsn", "", "ClickHouse connection string (empty disables analytics)")
	root.Flags().String("wal-dir", "", "ledger WAL directory (empty disables the journal)")
	root.Flags().Uint64("fee-numerator", 997, "swap fee numerator")
	root.Flags().Uint64("fee-denominator", 1000, "swap fee denominator")
	root.Flags().Uint64("ratio-tolerance-bps", 100, "deposit ratio tolerance in basis points")
	root.Flags().Duration("shutdown-timeout", 15*time.Second, "graceful shutdown timeout")
	root.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := buildLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, cleanup, err := createStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	lg, journal, err := buildLedger(cfg, logger)
	if err != nil {
		return err
	}
	if journal != nil {
		defer journal.Close()
	}

	registry := engine.NewRegistry()
	hub := feed.NewHub(feed.DefaultHubConfig(), logger)
	defer hub.Close()

	srv := server.New(
		server.Config{
			FeeNumerator:      cfg.FeeNumerator,
			FeeDenominator:    cfg.FeeDenominator,
			RatioToleranceBps: uint32(cfg.RatioToleranceBps),
		},
		logger,
		registry,
		engine.NewSwapEngine(registry, lg),
		engine.NewLiquidityManager(registry, lg),
		lg,
		stores,
		hub,
	)

	if err := srv.Restore(ctx); err != nil {
		return fmt.Errorf("restore state: %w", err)
	}

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.ListenAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// createStores builds the persistence stack for the configured backend.
func createStores(ctx context.Context, cfg config.Config) (server.Stores, func(), error) {
	var (
		stores  server.Stores
		cleanup = func() {}
	)

	switch cfg.StorageBackend {
	case "memory":
		pools := memory.NewPoolStore()
		stores = server.Stores{
			Pools:     pools,
			Positions: memory.NewPositionStore(),
			Trades:    memory.NewTradeStoreWithPools(pools),
			Events:    memory.NewLiquidityEventStoreWithPools(pools),
		}
	case "postgres":
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return server.Stores{}, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return server.Stores{}, nil, fmt.Errorf("migrate postgres: %w", err)
		}
		stores = server.Stores{
			Pools:     pgstore.NewPoolStore(pool),
			Positions: pgstore.NewPositionStore(pool),
			Trades:    pgstore.NewTradeStore(pool),
			Events:    pgstore.NewLiquidityEventStore(pool),
		}
		cleanup = pool.Close
	}

	if cfg.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		if err != nil {
			cleanup()
			return server.Stores{}, nil, fmt.Errorf("migrate clickhouse: %w", err)
		}
		stores.Analytics = chstore.NewTradeAnalyticsStore(conn)

		prev := cleanup
		cleanup = func() {
			conn.Close()
			prev()
		}
	}

	return stores, cleanup, nil
}

// buildLedger creates the in-memory ledger, journaled if a WAL directory is
// configured, replaying any journaled entries first.
func buildLedger(cfg config.Config, logger *zap.Logger) (*ledger.Ledger, *wal.Journal, error) {
	if cfg.WALDir == "" {
		return ledger.New(), nil, nil
	}

	journal, err := wal.NewJournal(cfg.WALDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open ledger wal: %w", err)
	}

	lg := ledger.NewWithJournal(journal)
	lg.OnJournalError(func(err error) {
		logger.Error("ledger journal write failed", zap.Error(err))
		observability.DefaultMetrics.JournalWriteErrors.Inc()
	})

	byPool, err := journal.Replay()
	if err != nil {
		journal.Close()
		return nil, nil, fmt.Errorf("replay ledger wal: %w", err)
	}
	for poolID, entries := range byPool {
		if err := lg.Restore(entries); err != nil {
			journal.Close()
			return nil, nil, fmt.Errorf("restore ledger for pool %s: %w", poolID, err)
		}
	}
	if len(byPool) > 0 {
		logger.Info("replayed ledger journal", zap.Int("pools", len(byPool)))
	}

	return lg, journal, nil
}

func buildLogger(level string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}
