package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bonkai/bonkai/internal/config"
	"github.com/bonkai/bonkai/internal/models"
)

func statsWithPrice(p float64) *models.TokenStats {
	return &models.TokenStats{Price: &p, UpdatedAt: time.Now()}
}

func TestCache_Freshness(t *testing.T) {
	cache := NewCache()
	cache.Put(CacheKey, statsWithPrice(1), time.Now())

	if _, ok := cache.Get(CacheKey, time.Minute); !ok {
		t.Error("fresh entry should be returned")
	}
	if _, ok := cache.Get(CacheKey, time.Nanosecond); ok {
		t.Error("expired entry should not be returned by Get")
	}
	if _, ok := cache.GetAny(CacheKey); !ok {
		t.Error("GetAny should return stale entries")
	}
	if _, ok := cache.Get("other", time.Minute); ok {
		t.Error("unknown key should miss")
	}
}

func TestCache_SequencingGuard(t *testing.T) {
	cache := NewCache()
	now := time.Now()

	if !cache.Put(CacheKey, statsWithPrice(2), now) {
		t.Fatal("first write should commit")
	}
	// A response from a request that started earlier must not clobber the entry.
	if cache.Put(CacheKey, statsWithPrice(1), now.Add(-time.Second)) {
		t.Error("older write should be rejected")
	}
	got, _ := cache.GetAny(CacheKey)
	if *got.Price != 2 {
		t.Errorf("price: %v", *got.Price)
	}

	if !cache.Put(CacheKey, statsWithPrice(3), now.Add(time.Second)) {
		t.Error("newer write should commit")
	}
}

func TestService_ServeStaleOnError(t *testing.T) {
	var fail atomic.Bool
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"bonk":{"usd":0.00002}}`))
	}))
	defer srv.Close()

	svc := NewService(&config.MarketConfig{
		PriceURL:            srv.URL,
		TokenID:             "bonk",
		Currency:            "usd",
		FetchTimeoutSeconds: 5,
		CacheTTLSeconds:     1,
	}, zap.NewNop())

	first, err := svc.Current(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if first.Price == nil || *first.Price != 0.00002 {
		t.Fatalf("price: %v", first.Price)
	}

	// Within TTL: served from cache, no second request.
	if _, err := svc.Current(context.Background()); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 upstream call, got %d", calls.Load())
	}

	// After TTL with a failing upstream: stale entry is served, not an error.
	fail.Store(true)
	time.Sleep(1100 * time.Millisecond)
	got, err := svc.Current(context.Background())
	if err != nil {
		t.Fatalf("expected stale snapshot, got error: %v", err)
	}
	if got.Price == nil || *got.Price != 0.00002 {
		t.Errorf("stale price: %v", got.Price)
	}
}

func TestService_ErrorWithEmptyCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc := NewService(&config.MarketConfig{
		PriceURL: srv.URL, TokenID: "bonk", Currency: "usd",
		FetchTimeoutSeconds: 5, CacheTTLSeconds: 300,
	}, zap.NewNop())

	if _, err := svc.Current(context.Background()); err == nil {
		t.Error("first-ever failure with empty cache must propagate")
	}
}
