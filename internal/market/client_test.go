package market

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bonkai/bonkai/internal/config"
)

func TestSafeFloat(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want *float64
	}{
		{"float", 1.5, ptr(1.5)},
		{"int", 42, ptr(42)},
		{"numeric string", "0.000021", ptr(0.000021)},
		{"non-numeric string", "n/a", nil},
		{"nil", nil, nil},
		{"NaN", math.NaN(), nil},
		{"positive infinity", math.Inf(1), nil},
		{"negative infinity", math.Inf(-1), nil},
		{"bool", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SafeFloat(tt.in)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("SafeFloat(%v) = %v, want %v", tt.in, got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("SafeFloat(%v) = %v, want %v", tt.in, *got, *tt.want)
			}
		})
	}
}

func ptr(f float64) *float64 { return &f }

func TestClient_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ids") != "bonk" {
			t.Errorf("ids = %s", r.URL.Query().Get("ids"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"bonk":{"usd":0.000021,"usd_market_cap":1500000000,"usd_24h_vol":95000000,"usd_24h_change":"bad"}}`))
	}))
	defer srv.Close()

	client := NewClient(&config.MarketConfig{
		PriceURL:            srv.URL,
		TokenID:             "bonk",
		Currency:            "usd",
		FetchTimeoutSeconds: 5,
	})

	stats, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Price == nil || *stats.Price != 0.000021 {
		t.Errorf("price: %v", stats.Price)
	}
	if stats.MarketCap == nil || *stats.MarketCap != 1500000000 {
		t.Errorf("market cap: %v", stats.MarketCap)
	}
	if stats.Change24h != nil {
		t.Errorf("non-numeric change should normalize to nil, got %v", *stats.Change24h)
	}
	if stats.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should be set")
	}
}

func TestClient_FetchErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(&config.MarketConfig{
		PriceURL: srv.URL, TokenID: "bonk", Currency: "usd", FetchTimeoutSeconds: 5,
	})
	if _, err := client.Fetch(context.Background()); err == nil {
		t.Error("expected error on upstream 502")
	}

	// Missing token in the payload is an error, not a zero snapshot.
	srv2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv2.Close()
	client2 := NewClient(&config.MarketConfig{
		PriceURL: srv2.URL, TokenID: "bonk", Currency: "usd", FetchTimeoutSeconds: 5,
	})
	if _, err := client2.Fetch(context.Background()); err == nil {
		t.Error("expected error for missing token")
	}
}
