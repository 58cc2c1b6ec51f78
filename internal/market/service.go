package market

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/bonkai/bonkai/internal/config"
	"github.com/bonkai/bonkai/internal/models"
)

// Service combines the upstream client with the snapshot cache:
// cache-aside reads with serve-stale-on-error.
type Service struct {
	client *Client
	cache  *Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewService creates a market service.
func NewService(cfg *config.MarketConfig, logger *zap.Logger) *Service {
	return &Service{
		client: NewClient(cfg),
		cache:  NewCache(),
		ttl:    time.Duration(cfg.CacheTTLSeconds) * time.Second,
		logger: logger,
	}
}

// Current returns the token snapshot. A fresh cache entry is returned
// without network access. On fetch failure a stale entry is returned when
// one exists; the error propagates only when the cache is empty.
func (s *Service) Current(ctx context.Context) (*models.TokenStats, error) {
	if stats, ok := s.cache.Get(CacheKey, s.ttl); ok {
		return stats, nil
	}

	start := time.Now()
	stats, err := s.client.Fetch(ctx)
	if err != nil {
		if stale, ok := s.cache.GetAny(CacheKey); ok {
			s.logger.Warn("price fetch failed, serving stale snapshot", zap.Error(err))
			return stale, nil
		}
		return nil, err
	}

	if !s.cache.Put(CacheKey, stats, start) {
		// A newer response landed while this one was in flight.
		if newer, ok := s.cache.GetAny(CacheKey); ok {
			return newer, nil
		}
	}
	return stats, nil
}
