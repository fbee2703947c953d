package server

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/NnamdiCode/Datadextoken-sub001/internal/domain"
	"github.com/NnamdiCode/Datadextoken-sub001/internal/observability"
)

// Persistence runs after the in-memory commit. A store failure is logged
// and surfaced through metrics but does not undo the committed operation;
// the ledger remains authoritative within the process lifetime.

func (s *Server) persistSnapshot(ctx context.Context, snap *domain.PoolSnapshot) {
	if s.stores.Pools == nil {
		return
	}

	start := time.Now()
	err := s.stores.Pools.Upsert(ctx, snap)
	observability.RecordDBQuery("postgres", "upsert_pool", time.Since(start).Seconds(), err)
	if err != nil {
		s.logger.Error("persist pool snapshot",
			zap.String("pool_id", snap.PoolID), zap.Error(err))
	}
}

func (s *Server) persistSwap(ctx context.Context, rec *domain.TradeRecord, snap *domain.PoolSnapshot) {
	if s.stores.Trades != nil {
		start := time.Now()
		err := s.stores.Trades.SaveSwap(ctx, rec, snap)
		observability.RecordDBQuery("postgres", "save_swap", time.Since(start).Seconds(), err)
		if err != nil {
			s.logger.Error("persist swap",
				zap.String("trade_id", rec.TradeID), zap.Error(err))
		}
	} else {
		s.persistSnapshot(ctx, snap)
	}

	if s.stores.Analytics != nil {
		start := time.Now()
		err := s.stores.Analytics.InsertTrades(ctx, []*domain.TradeRecord{rec})
		observability.RecordDBQuery("clickhouse", "insert_trades", time.Since(start).Seconds(), err)
		if err != nil {
			s.logger.Error("persist trade analytics",
				zap.String("trade_id", rec.TradeID), zap.Error(err))
		}
	}
}

func (s *Server) persistLiquidity(ctx context.Context, ev *domain.LiquidityEvent, snap *domain.PoolSnapshot, provider string) {
	if s.stores.Events != nil {
		start := time.Now()
		err := s.stores.Events.SaveEvent(ctx, ev, snap)
		observability.RecordDBQuery("postgres", "save_liquidity_event", time.Since(start).Seconds(), err)
		if err != nil {
			s.logger.Error("persist liquidity event",
				zap.String("event_id", ev.EventID), zap.Error(err))
		}
	} else {
		s.persistSnapshot(ctx, snap)
	}

	if s.stores.Positions == nil {
		return
	}

	// Refresh every touched position, including the locked one minted on
	// the first deposit.
	providers := []string{provider}
	if ev.EventType == domain.LiquidityEventAdd && provider != domain.LockedProvider {
		providers = append(providers, domain.LockedProvider)
	}

	for _, p := range providers {
		pos := &domain.LiquidityPosition{
			PoolID:   ev.PoolID,
			Provider: p,
			Shares:   s.liquidity.Position(ev.PoolID, p),
		}
		start := time.Now()
		err := s.stores.Positions.Upsert(ctx, pos)
		observability.RecordDBQuery("postgres", "upsert_position", time.Since(start).Seconds(), err)
		if err != nil {
			s.logger.Error("persist position",
				zap.String("pool_id", ev.PoolID), zap.String("provider", p), zap.Error(err))
		}
	}
}
