package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/NnamdiCode/Datadextoken-sub001/internal/domain"
	"github.com/NnamdiCode/Datadextoken-sub001/internal/engine"
	"github.com/NnamdiCode/Datadextoken-sub001/internal/fixedpoint"
	"github.com/NnamdiCode/Datadextoken-sub001/internal/idhash"
	"github.com/NnamdiCode/Datadextoken-sub001/internal/observability"
)

var (
	errInvalidFee = errors.New("fee must satisfy numerator <= denominator with nonzero denominator")
	errPartialFee = errors.New("fee_numerator and fee_denominator must be set together")
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// writeEngineError maps engine errors onto HTTP statuses.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	var iv *engine.InvariantViolationError

	switch {
	case errors.Is(err, engine.ErrPoolNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, engine.ErrSlippageExceeded):
		observability.RecordSwapRejected("slippage")
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, engine.ErrEmptyPool):
		observability.RecordSwapRejected("empty_pool")
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, engine.ErrInvalidAmount),
		errors.Is(err, engine.ErrImbalanced),
		errors.Is(err, engine.ErrInsufficientShares),
		errors.Is(err, engine.ErrSameToken),
		errors.Is(err, engine.ErrUnknownToken):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, fixedpoint.ErrOverflow):
		observability.RecordSwapRejected("overflow")
		writeError(w, http.StatusBadRequest, err)
	case errors.As(err, &iv):
		s.logger.Error("invariant violation", zap.String("pool_id", iv.PoolID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err)
	default:
		s.logger.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

type tokenPayload struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

func (p tokenPayload) validate() error {
	_, err := idhash.ValidateTokenAddress(p.Address)
	return err
}

func (p tokenPayload) token() domain.Token {
	return domain.Token{Address: p.Address, Symbol: p.Symbol, Decimals: p.Decimals}
}

type createPoolRequest struct {
	TokenA tokenPayload `json:"token_a"`
	TokenB tokenPayload `json:"token_b"`
	// Optional keep-ratio override; numerator == denominator makes a fee-free pool.
	FeeNumerator   *uint64 `json:"fee_numerator,omitempty"`
	FeeDenominator *uint64 `json:"fee_denominator,omitempty"`
}

func (s *Server) handleCreatePool(w http.ResponseWriter, r *http.Request) {
	var req createPoolRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := req.TokenA.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := req.TokenB.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if (req.FeeNumerator == nil) != (req.FeeDenominator == nil) {
		writeError(w, http.StatusBadRequest, errPartialFee)
		return
	}
	feeNum, feeDen := s.cfg.FeeNumerator, s.cfg.FeeDenominator
	if req.FeeNumerator != nil {
		feeNum, feeDen = *req.FeeNumerator, *req.FeeDenominator
		if feeDen == 0 || feeNum > feeDen {
			writeError(w, http.StatusBadRequest, errInvalidFee)
			return
		}
	}

	pool, err := s.registry.GetOrCreate(req.TokenA.token(), req.TokenB.token(), feeNum, feeDen)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	snap := pool.Snapshot()
	s.persistSnapshot(r.Context(), snap)
	observability.DefaultMetrics.PoolsCreated.Inc()
	observability.DefaultMetrics.ActivePools.Set(float64(len(s.registry.List())))

	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleListPools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.List())
}

func (s *Server) handleGetPool(w http.ResponseWriter, r *http.Request) {
	pool, err := s.registry.Get(r.PathValue("id"))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pool.Snapshot())
}

type poolStatsResponse struct {
	PoolID      string          `json:"pool_id"`
	LatestPrice decimal.Decimal `json:"latest_price"`
	PriceChange decimal.Decimal `json:"price_change"`
	Trades      int             `json:"trades"`
	VolumeIn    decimal.Decimal `json:"volume_in"`
	VolumeOut   decimal.Decimal `json:"volume_out"`
	Fees        decimal.Decimal `json:"fees"`
	WindowMs    int64           `json:"window_ms"`
}

func (s *Server) handlePoolStats(w http.ResponseWriter, r *http.Request) {
	poolID := r.PathValue("id")
	if _, err := s.registry.Get(poolID); err != nil {
		s.writeEngineError(w, err)
		return
	}

	windowMs := int64(24 * time.Hour / time.Millisecond)
	if raw := r.URL.Query().Get("window_ms"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, errors.New("window_ms must be a positive integer"))
			return
		}
		windowMs = parsed
	}

	nowMs := time.Now().UnixMilli()
	window := time.Duration(windowMs) * time.Millisecond
	stats := s.ledger.WindowVolume(poolID, window, nowMs)

	resp := poolStatsResponse{
		PoolID:    poolID,
		Trades:    stats.Trades,
		VolumeIn:  stats.VolumeIn,
		VolumeOut: stats.VolumeOut,
		Fees:      stats.Fees,
		WindowMs:  windowMs,
	}

	if price, err := s.ledger.LatestPrice(poolID); err == nil {
		resp.LatestPrice = price
	}
	if change, err := s.ledger.PriceChange(poolID, window, nowMs); err == nil {
		resp.PriceChange = change
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePoolTrades(w http.ResponseWriter, r *http.Request) {
	poolID := r.PathValue("id")
	if _, err := s.registry.Get(poolID); err != nil {
		s.writeEngineError(w, err)
		return
	}

	entries := s.ledger.Entries(poolID)
	trades := make([]*domain.TradeRecord, 0, len(entries))
	for _, entry := range entries {
		if entry.Trade != nil {
			trades = append(trades, entry.Trade)
		}
	}

	writeJSON(w, http.StatusOK, trades)
}

func (s *Server) handlePoolPositions(w http.ResponseWriter, r *http.Request) {
	poolID := r.PathValue("id")
	if _, err := s.registry.Get(poolID); err != nil {
		s.writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, s.liquidity.Positions(poolID))
}

type quoteRequest struct {
	PoolID   string `json:"pool_id"`
	TokenIn  string `json:"token_in"`
	AmountIn uint64 `json:"amount_in"`
}

type quoteResponse struct {
	PoolID      string          `json:"pool_id"`
	TokenIn     string          `json:"token_in"`
	TokenOut    string          `json:"token_out"`
	AmountIn    uint64          `json:"amount_in"`
	AmountOut   uint64          `json:"amount_out"`
	FeeAmount   uint64          `json:"fee_amount"`
	PriceImpact decimal.Decimal `json:"price_impact"`
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	start := time.Now()
	quote, err := s.swaps.Quote(req.PoolID, req.TokenIn, req.AmountIn)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	observability.RecordQuote(time.Since(start).Seconds())

	writeJSON(w, http.StatusOK, quoteResponse{
		PoolID:      quote.PoolID,
		TokenIn:     quote.TokenIn.Address,
		TokenOut:    quote.TokenOut.Address,
		AmountIn:    quote.AmountIn,
		AmountOut:   quote.AmountOut,
		FeeAmount:   quote.FeeAmount,
		PriceImpact: quote.PriceImpact,
	})
}

type swapRequest struct {
	PoolID       string `json:"pool_id"`
	Trader       string `json:"trader"`
	TokenIn      string `json:"token_in"`
	AmountIn     uint64 `json:"amount_in"`
	MinAmountOut uint64 `json:"min_amount_out"`
}

func (s *Server) handleSwap(w http.ResponseWriter, r *http.Request) {
	var req swapRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Trader == "" {
		writeError(w, http.StatusBadRequest, errors.New("trader is required"))
		return
	}

	start := time.Now()
	rec, snap, err := s.swaps.Execute(req.PoolID, req.TokenIn, req.AmountIn, req.MinAmountOut, req.Trader)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	observability.RecordSwapExecuted(rec.PoolID, rec.AmountIn, rec.FeeAmount, time.Since(start).Seconds())
	observability.UpdatePoolState(snap.PoolID, snap.ReserveA, snap.ReserveB, snap.TotalShares)
	observability.RecordLedgerAppend(domain.EntryKindSwap)

	s.persistSwap(r.Context(), rec, snap)
	if s.hub != nil {
		s.hub.PublishTrade(rec)
	}

	writeJSON(w, http.StatusOK, rec)
}

type addLiquidityRequest struct {
	PoolID   string `json:"pool_id"`
	Provider string `json:"provider"`
	AmountA  uint64 `json:"amount_a"`
	AmountB  uint64 `json:"amount_b"`
}

func (s *Server) handleAddLiquidity(w http.ResponseWriter, r *http.Request) {
	var req addLiquidityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Provider == "" {
		writeError(w, http.StatusBadRequest, errors.New("provider is required"))
		return
	}

	res, err := s.liquidity.AddLiquidity(req.PoolID, req.AmountA, req.AmountB,
		s.cfg.RatioToleranceBps, req.Provider)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	observability.DefaultMetrics.LiquidityAdds.Inc()
	observability.UpdatePoolState(res.Snapshot.PoolID, res.Snapshot.ReserveA, res.Snapshot.ReserveB, res.Snapshot.TotalShares)
	observability.RecordLedgerAppend(domain.EntryKindLiquidity)

	s.persistLiquidity(r.Context(), res.Event, res.Snapshot, req.Provider)
	if s.hub != nil {
		s.hub.PublishLiquidity(res.Event)
	}

	writeJSON(w, http.StatusOK, res)
}

type removeLiquidityRequest struct {
	PoolID   string `json:"pool_id"`
	Provider string `json:"provider"`
	Shares   uint64 `json:"shares"`
}

func (s *Server) handleRemoveLiquidity(w http.ResponseWriter, r *http.Request) {
	var req removeLiquidityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Provider == "" {
		writeError(w, http.StatusBadRequest, errors.New("provider is required"))
		return
	}

	res, err := s.liquidity.RemoveLiquidity(req.PoolID, req.Shares, req.Provider)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	observability.DefaultMetrics.LiquidityRems.Inc()
	observability.UpdatePoolState(res.Snapshot.PoolID, res.Snapshot.ReserveA, res.Snapshot.ReserveB, res.Snapshot.TotalShares)
	observability.RecordLedgerAppend(domain.EntryKindLiquidity)

	s.persistLiquidity(r.Context(), res.Event, res.Snapshot, req.Provider)
	if s.hub != nil {
		s.hub.PublishLiquidity(res.Event)
	}

	writeJSON(w, http.StatusOK, res)
}

type statusResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
	Pools  int    `json:"pools"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Status: "running",
		Uptime: time.Since(s.started).String(),
		Pools:  len(s.registry.List()),
	})
}
