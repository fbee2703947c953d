// Package server exposes the swap engine over HTTP: pool management,
// quotes, swap execution, liquidity operations, ledger statistics, and the
// WebSocket trade feed.
package server

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/NnamdiCode/Datadextoken-sub001/internal/engine"
	"github.com/NnamdiCode/Datadextoken-sub001/internal/feed"
	"github.com/NnamdiCode/Datadextoken-sub001/internal/ledger"
	"github.com/NnamdiCode/Datadextoken-sub001/internal/observability"
	"github.com/NnamdiCode/Datadextoken-sub001/internal/storage"
)

// Stores groups the persistence collaborators. All fields are optional;
// a nil store disables that persistence path, leaving the in-memory state
// authoritative for the process lifetime.
type Stores struct {
	Pools     storage.PoolStore
	Positions storage.PositionStore
	Trades    storage.TradeStore
	Events    storage.LiquidityEventStore
	Analytics storage.TradeAnalyticsStore
}

// Config carries the engine parameters the API applies to new pools and
// liquidity operations.
type Config struct {
	FeeNumerator      uint64
	FeeDenominator    uint64
	RatioToleranceBps uint32
}

// Server wires the engine, ledger, stores, and feed behind an HTTP mux.
type Server struct {
	cfg       Config
	logger    *zap.Logger
	registry  *engine.Registry
	swaps     *engine.SwapEngine
	liquidity *engine.LiquidityManager
	ledger    *ledger.Ledger
	stores    Stores
	hub       *feed.Hub

	started time.Time
}

// New creates a Server. hub may be nil to disable the trade feed.
func New(cfg Config, logger *zap.Logger, registry *engine.Registry, swaps *engine.SwapEngine,
	liquidity *engine.LiquidityManager, lg *ledger.Ledger, stores Stores, hub *feed.Hub) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:       cfg,
		logger:    logger,
		registry:  registry,
		swaps:     swaps,
		liquidity: liquidity,
		ledger:    lg,
		stores:    stores,
		hub:       hub,
		started:   time.Now(),
	}
}

// Router builds the HTTP mux.
func (s *Server) Router() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", observability.Handler())
	mux.HandleFunc("GET /status", s.handleStatus)

	mux.HandleFunc("POST /v1/pools", s.handleCreatePool)
	mux.HandleFunc("GET /v1/pools", s.handleListPools)
	mux.HandleFunc("GET /v1/pools/{id}", s.handleGetPool)
	mux.HandleFunc("GET /v1/pools/{id}/stats", s.handlePoolStats)
	mux.HandleFunc("GET /v1/pools/{id}/trades", s.handlePoolTrades)
	mux.HandleFunc("GET /v1/pools/{id}/positions", s.handlePoolPositions)

	mux.HandleFunc("POST /v1/quote", s.handleQuote)
	mux.HandleFunc("POST /v1/swap", s.handleSwap)
	mux.HandleFunc("POST /v1/liquidity/add", s.handleAddLiquidity)
	mux.HandleFunc("POST /v1/liquidity/remove", s.handleRemoveLiquidity)

	if s.hub != nil {
		mux.Handle("GET /ws/trades", s.hub)
	}

	return mux
}

// Restore rehydrates the registry, positions, and ledger sequences from the
// configured stores. Call before serving traffic.
func (s *Server) Restore(ctx context.Context) error {
	if s.stores.Pools == nil {
		return nil
	}

	snaps, err := s.stores.Pools.GetAll(ctx)
	if err != nil {
		return err
	}

	for _, snap := range snaps {
		if _, err := s.registry.Restore(snap); err != nil {
			return err
		}

		if s.stores.Positions != nil {
			positions, err := s.stores.Positions.GetByPool(ctx, snap.PoolID)
			if err != nil {
				return err
			}
			for _, pos := range positions {
				s.liquidity.RestorePosition(pos)
			}
		}

		next, err := s.nextSequence(ctx, snap.PoolID)
		if err != nil {
			return err
		}
		// A replayed journal may already be ahead of the stores; never
		// rewind an assigned sequence.
		if cur := s.ledger.NextSequence(snap.PoolID); cur > next {
			next = cur
		}
		s.ledger.RestoreSequence(snap.PoolID, next)

		observability.UpdatePoolState(snap.PoolID, snap.ReserveA, snap.ReserveB, snap.TotalShares)
	}

	s.logger.Info("restored pools from storage", zap.Int("pools", len(snaps)))
	return nil
}

// nextSequence computes the next unused ledger sequence for a pool as the
// max persisted sequence across trade and liquidity stores plus one.
func (s *Server) nextSequence(ctx context.Context, poolID string) (uint64, error) {
	var max uint64

	if s.stores.Trades != nil {
		seq, err := s.stores.Trades.MaxSequence(ctx, poolID)
		if err != nil {
			return 0, err
		}
		max = seq
	}

	if s.stores.Events != nil {
		seq, err := s.stores.Events.MaxSequence(ctx, poolID)
		if err != nil {
			return 0, err
		}
		if seq > max {
			max = seq
		}
	}

	return max + 1, nil
}
