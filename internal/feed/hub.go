// Package feed streams executed trades and liquidity events to WebSocket
// subscribers.
package feed

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/NnamdiCode/Datadextoken-sub001/internal/domain"
	"github.com/NnamdiCode/Datadextoken-sub001/internal/observability"
)

// HubConfig configures subscriber connection behavior.
type HubConfig struct {
	// SendBuffer is the per-subscriber outgoing queue; a subscriber that
	// falls this far behind starts losing messages.
	SendBuffer int
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultHubConfig returns default hub configuration.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		SendBuffer:   64,
		PingInterval: 30 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// Message is one feed frame. Exactly one of Trade or Liquidity is set,
// matching Kind.
type Message struct {
	Kind      string                 `json:"kind"`
	PoolID    string                 `json:"pool_id"`
	Sequence  uint64                 `json:"sequence"`
	Trade     *domain.TradeRecord    `json:"trade,omitempty"`
	Liquidity *domain.LiquidityEvent `json:"liquidity,omitempty"`
}

type subscriber struct {
	send   chan []byte
	quit   chan struct{} // closed by Hub.Close to end the serve loop
	poolID string        // empty subscribes to all pools
}

// Hub fans executed ledger entries out to WebSocket subscribers. Slow
// subscribers lose messages rather than backpressure the engine.
type Hub struct {
	config HubConfig
	logger *zap.Logger

	mu     sync.RWMutex
	subs   map[*subscriber]struct{}
	closed atomic.Bool
}

// NewHub creates a new Hub.
func NewHub(config HubConfig, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.SendBuffer <= 0 {
		config.SendBuffer = DefaultHubConfig().SendBuffer
	}
	return &Hub{
		config: config,
		logger: logger,
		subs:   make(map[*subscriber]struct{}),
	}
}

// PublishTrade broadcasts an executed swap.
func (h *Hub) PublishTrade(rec *domain.TradeRecord) {
	h.publish(&Message{
		Kind:     domain.EntryKindSwap,
		PoolID:   rec.PoolID,
		Sequence: rec.Sequence,
		Trade:    rec,
	})
}

// PublishLiquidity broadcasts a liquidity event.
func (h *Hub) PublishLiquidity(ev *domain.LiquidityEvent) {
	h.publish(&Message{
		Kind:      domain.EntryKindLiquidity,
		PoolID:    ev.PoolID,
		Sequence:  ev.Sequence,
		Liquidity: ev,
	})
}

func (h *Hub) publish(msg *Message) {
	if h.closed.Load() {
		return
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal feed message", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs {
		if sub.poolID != "" && sub.poolID != msg.PoolID {
			continue
		}
		select {
		case sub.send <- payload:
		default:
			observability.DefaultMetrics.FeedDropped.Inc()
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// ServeHTTP upgrades the request and streams feed messages until the peer
// disconnects. An optional ?pool=<id> query restricts the stream to one
// pool.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.closed.Load() {
		http.Error(w, "feed is shut down", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	sub := &subscriber{
		send:   make(chan []byte, h.config.SendBuffer),
		quit:   make(chan struct{}),
		poolID: r.URL.Query().Get("pool"),
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	count := len(h.subs)
	h.mu.Unlock()
	observability.DefaultMetrics.FeedSubscribers.Set(float64(count))

	defer func() {
		h.mu.Lock()
		delete(h.subs, sub)
		count := len(h.subs)
		h.mu.Unlock()
		observability.DefaultMetrics.FeedSubscribers.Set(float64(count))
		conn.Close()
	}()

	done := make(chan struct{})

	// Reader drains control frames and detects disconnect.
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case payload := <-sub.send:
			conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		case <-sub.quit:
			deadline := time.Now().Add(h.config.WriteTimeout)
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), deadline)
			return
		}
	}
}

// Close stops accepting subscribers and disconnects existing ones.
func (h *Hub) Close() {
	if !h.closed.CompareAndSwap(false, true) {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		close(sub.quit)
	}
	h.subs = make(map[*subscriber]struct{})
}
