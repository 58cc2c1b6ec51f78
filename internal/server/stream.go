package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bonkai/bonkai/internal/market"
)

const keepAliveInterval = 20 * time.Second

// streamHub periodically fetches the token snapshot and broadcasts it to all
// connected SSE subscribers. Slow subscribers are skipped, not waited on.
type streamHub struct {
	market   *market.Service
	interval time.Duration
	logger   *zap.Logger

	mu   sync.Mutex
	subs map[chan []byte]struct{}
}

func newStreamHub(marketSvc *market.Service, interval time.Duration, logger *zap.Logger) *streamHub {
	return &streamHub{
		market:   marketSvc,
		interval: interval,
		logger:   logger,
		subs:     make(map[chan []byte]struct{}),
	}
}

// Start runs the broadcast loop until ctx is cancelled.
func (h *streamHub) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(h.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h.tick(ctx)
			}
		}
	}()
}

func (h *streamHub) tick(ctx context.Context) {
	h.mu.Lock()
	n := len(h.subs)
	h.mu.Unlock()
	if n == 0 {
		return
	}

	stats, err := h.market.Current(ctx)
	if err != nil {
		h.logger.Warn("stream tick fetch failed", zap.Error(err))
		return
	}
	payload, err := json.Marshal(stats)
	if err != nil {
		h.logger.Error("stream tick marshal failed", zap.Error(err))
		return
	}
	h.broadcast(payload)
}

func (h *streamHub) broadcast(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- payload:
		default:
			// Subscriber is not draining; drop the update for it.
		}
	}
}

// subscribe registers a subscriber channel. The returned cancel function
// must be called exactly once.
func (h *streamHub) subscribe() (chan []byte, func()) {
	ch := make(chan []byte, 4)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	}
}

// handleStream serves the SSE price stream. Messages are one JSON snapshot
// per `data:` line; comment lines are emitted as keep-alives.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ch, cancel := s.hub.subscribe()
	defer cancel()

	// Send the current snapshot immediately so new subscribers don't wait a
	// full tick for their first update.
	if stats, err := s.market.Current(r.Context()); err == nil {
		if payload, err := json.Marshal(stats); err == nil {
			fmt.Fprintf(w, "data: %s\n\n", payload)
		}
	}
	flusher.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case payload := <-ch:
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		}
	}
}
