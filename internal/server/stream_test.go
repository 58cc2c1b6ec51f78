package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bonkai/bonkai/internal/models"
)

func TestStreamHub_Broadcast(t *testing.T) {
	hub := newStreamHub(nil, time.Second, zap.NewNop())

	ch, cancel := hub.subscribe()
	hub.broadcast([]byte("snapshot"))
	select {
	case payload := <-ch:
		if string(payload) != "snapshot" {
			t.Errorf("payload = %s", payload)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber never received the broadcast")
	}

	cancel()
	// Broadcasting with no subscribers is a no-op.
	hub.broadcast([]byte("after"))
	select {
	case payload := <-ch:
		t.Errorf("cancelled subscriber received %s", payload)
	default:
	}
}

func TestStreamHub_SlowSubscriberSkipped(t *testing.T) {
	hub := newStreamHub(nil, time.Second, zap.NewNop())
	ch, cancel := hub.subscribe()
	defer cancel()

	// Fill the buffer and keep going; broadcast must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < cap(ch)+4; i++ {
			hub.broadcast([]byte("x"))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a slow subscriber")
	}
}

func TestHandleStream(t *testing.T) {
	upstream := newPriceUpstream(t, 0.0000245)
	srv := newTestServer(t, upstream.URL)

	api := httptest.NewServer(srv.Router())
	defer api.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, api.URL+"/api/bonk/stream", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %s", ct)
	}

	// The first frame is the immediate snapshot.
	scanner := bufio.NewScanner(resp.Body)
	var payload string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data:") {
			payload = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			break
		}
	}
	if payload == "" {
		t.Fatal("no data frame received")
	}
	var stats models.TokenStats
	if err := json.Unmarshal([]byte(payload), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.Price == nil || *stats.Price != 0.0000245 {
		t.Errorf("price = %v", stats.Price)
	}
}
