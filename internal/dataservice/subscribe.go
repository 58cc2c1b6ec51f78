package dataservice

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bonkai/bonkai/internal/models"
)

// StatsCallback receives token snapshots from a subscription.
type StatsCallback func(*models.TokenStats)

// Subscribe delivers live token snapshots to callback. The SSE stream is
// tried first unless streaming is disabled; on any transport failure the
// subscription falls back to polling and stays there. The returned function
// stops the subscription and may be called once.
func (s *Service) Subscribe(ctx context.Context, callback StatsCallback) (unsubscribe func()) {
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		if s.cfg.StreamingOrDefault() {
			err := s.streamLoop(ctx, callback)
			if ctx.Err() != nil {
				return
			}
			s.logger.Warn("stream unavailable, falling back to polling", zap.Error(err))
		}
		s.pollLoop(ctx, callback)
	}()
	return cancel
}

// streamLoop consumes the SSE stream until it breaks or ctx is cancelled.
// Returns a non-nil error when the transport failed and polling should take
// over.
func (s *Service) streamLoop(ctx context.Context, callback StatsCallback) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BaseURL+"/api/bonk/stream", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stream returned %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			// Keep-alive comments and blank separators.
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		var stats models.TokenStats
		if err := json.Unmarshal([]byte(payload), &stats); err != nil {
			// Malformed frames are dropped, the stream stays up.
			s.logger.Debug("dropping malformed stream frame", zap.Error(err))
			continue
		}
		callback(&stats)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return fmt.Errorf("stream closed by server")
}

// pollLoop fetches snapshots at the configured poll interval until ctx is
// cancelled. It never upgrades back to streaming.
func (s *Service) pollLoop(ctx context.Context, callback StatsCallback) {
	interval := time.Duration(s.cfg.PollIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}

	poll := func() {
		stats, err := s.GetTokenStats(ctx)
		if err != nil {
			s.logger.Debug("poll fetch failed", zap.Error(err))
			return
		}
		callback(stats)
	}

	poll()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			poll()
		}
	}
}
