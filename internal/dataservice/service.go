// Package dataservice is the client-side façade over the BONKai API: cached
// market data, live subscriptions, alerts with an offline pending queue,
// search, wallet sessions, and data export.
package dataservice

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bonkai/bonkai/internal/config"
	"github.com/bonkai/bonkai/internal/localstore"
	"github.com/bonkai/bonkai/internal/market"
	"github.com/bonkai/bonkai/internal/models"
	"github.com/bonkai/bonkai/internal/wallet"
)

const (
	statsTTL     = 5 * time.Minute
	fetchTimeout = 15 * time.Second
)

// Service talks to the BONKai server and degrades gracefully when it is
// unreachable: stale cache for market data, a local mirror plus pending
// queue for alerts, a simulated session for wallets.
type Service struct {
	cfg    *config.ClientConfig
	store  *localstore.Store
	cache  *market.Cache
	http   *http.Client
	logger *zap.Logger
}

// New creates a client data service.
func New(cfg *config.ClientConfig, store *localstore.Store, logger *zap.Logger) *Service {
	return &Service{
		cfg:    cfg,
		store:  store,
		cache:  market.NewCache(),
		http:   &http.Client{},
		logger: logger,
	}
}

// GetTokenStats returns the token snapshot, served from cache while fresh.
// On fetch failure a stale snapshot is returned when one exists.
func (s *Service) GetTokenStats(ctx context.Context) (*models.TokenStats, error) {
	if stats, ok := s.cache.Get(market.CacheKey, statsTTL); ok {
		return stats, nil
	}

	start := time.Now()
	var stats models.TokenStats
	err := s.doJSON(ctx, http.MethodGet, "/api/bonk/price", nil, &stats)
	if err != nil {
		if stale, ok := s.cache.GetAny(market.CacheKey); ok {
			s.logger.Warn("stats fetch failed, serving stale snapshot", zap.Error(err))
			return stale, nil
		}
		return nil, err
	}

	if !s.cache.Put(market.CacheKey, &stats, start) {
		if newer, ok := s.cache.GetAny(market.CacheKey); ok {
			return newer, nil
		}
	}
	return &stats, nil
}

// Search queries the content index. Failures degrade to an empty result,
// never an error.
func (s *Service) Search(ctx context.Context, query string) []*models.SearchHit {
	var hits []*models.SearchHit
	path := "/api/search?q=" + url.QueryEscape(query)
	if err := s.doJSON(ctx, http.MethodGet, path, nil, &hits); err != nil {
		s.logger.Debug("search failed", zap.String("q", query), zap.Error(err))
		return []*models.SearchHit{}
	}
	if hits == nil {
		hits = []*models.SearchHit{}
	}
	return hits
}

// ListEvents fetches the event calendar.
func (s *Service) ListEvents(ctx context.Context, limit int) ([]*models.Event, error) {
	var events []*models.Event
	path := "/api/events?limit=" + strconv.Itoa(limit)
	if err := s.doJSON(ctx, http.MethodGet, path, nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// ListTracks fetches the audio library.
func (s *Service) ListTracks(ctx context.Context, limit int) ([]*models.AudioTrack, error) {
	var tracks []*models.AudioTrack
	path := "/api/audio?limit=" + strconv.Itoa(limit)
	if err := s.doJSON(ctx, http.MethodGet, path, nil, &tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

// Alert mutation ops held in the pending queue.
const (
	opCreate = "create"
	opUpdate = "update"
	opDelete = "delete"
)

type pendingMutation struct {
	Op    string        `json:"op"`
	Alert *models.Alert `json:"alert"`
}

// validateAlertInput mirrors the server's alert validation so a mutation the
// server would reject is refused up front instead of queued for a replay
// that can never succeed.
func validateAlertInput(input *models.AlertInput, create bool) error {
	if create || input.Condition != "" {
		if input.Condition != models.ConditionAbove && input.Condition != models.ConditionBelow {
			return fmt.Errorf("condition must be %s or %s", models.ConditionAbove, models.ConditionBelow)
		}
	}
	if create && input.Threshold <= 0 {
		return fmt.Errorf("threshold must be positive")
	}
	return nil
}

// ListAlerts returns the alert list from the server, falling back to the
// local mirror when the server is unreachable.
func (s *Service) ListAlerts(ctx context.Context) ([]*models.Alert, error) {
	s.replayPending(ctx)

	var alerts []*models.Alert
	if err := s.doJSON(ctx, http.MethodGet, "/api/alerts", nil, &alerts); err != nil {
		s.logger.Warn("alert list failed, serving local mirror", zap.Error(err))
		return s.loadMirror(), nil
	}
	if alerts == nil {
		alerts = []*models.Alert{}
	}
	s.saveMirror(alerts)
	return alerts, nil
}

// CreateAlert creates an alert on the server. When the server is
// unreachable the alert is created locally and the mutation queued for
// replay; the call still succeeds.
func (s *Service) CreateAlert(ctx context.Context, input *models.AlertInput) (*models.Alert, error) {
	if err := validateAlertInput(input, true); err != nil {
		return nil, err
	}
	s.replayPending(ctx)

	var alert models.Alert
	if err := s.doJSON(ctx, http.MethodPost, "/api/alerts", input, &alert); err != nil {
		s.logger.Warn("alert create failed, queuing locally", zap.Error(err))
		local := &models.Alert{
			ID:        uuid.NewString(),
			Condition: input.Condition,
			Threshold: input.Threshold,
			Note:      input.Note,
			IsActive:  true,
			CreatedAt: time.Now(),
		}
		if input.IsActive != nil {
			local.IsActive = *input.IsActive
		}
		s.enqueue(pendingMutation{Op: opCreate, Alert: local})
		s.saveMirror(append(s.loadMirror(), local))
		return local, nil
	}

	s.saveMirror(append(s.loadMirror(), &alert))
	return &alert, nil
}

// UpdateAlert updates an alert, queueing the mutation when offline.
func (s *Service) UpdateAlert(ctx context.Context, id string, input *models.AlertInput) (*models.Alert, error) {
	if err := validateAlertInput(input, false); err != nil {
		return nil, err
	}
	s.replayPending(ctx)

	var alert models.Alert
	if err := s.doJSON(ctx, http.MethodPut, "/api/alerts/"+id, input, &alert); err != nil {
		s.logger.Warn("alert update failed, queuing locally", zap.String("id", id), zap.Error(err))
		mirror := s.loadMirror()
		for _, a := range mirror {
			if a.ID != id {
				continue
			}
			if input.Condition != "" {
				a.Condition = input.Condition
			}
			if input.Threshold > 0 {
				a.Threshold = input.Threshold
			}
			if input.Note != "" {
				a.Note = input.Note
			}
			if input.IsActive != nil {
				a.IsActive = *input.IsActive
			}
			a.UpdatedAt = time.Now()
			s.enqueue(pendingMutation{Op: opUpdate, Alert: a})
			s.saveMirror(mirror)
			return a, nil
		}
		return nil, fmt.Errorf("alert %s not found", id)
	}

	mirror := s.loadMirror()
	for i, a := range mirror {
		if a.ID == id {
			mirror[i] = &alert
		}
	}
	s.saveMirror(mirror)
	return &alert, nil
}

// DeleteAlert deletes an alert, queueing the mutation when offline.
func (s *Service) DeleteAlert(ctx context.Context, id string) error {
	s.replayPending(ctx)

	if err := s.doJSON(ctx, http.MethodDelete, "/api/alerts/"+id, nil, nil); err != nil {
		s.logger.Warn("alert delete failed, queuing locally", zap.String("id", id), zap.Error(err))
		s.enqueue(pendingMutation{Op: opDelete, Alert: &models.Alert{ID: id}})
	}

	mirror := s.loadMirror()
	kept := mirror[:0]
	for _, a := range mirror {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	s.saveMirror(kept)
	return nil
}

// replayPending pushes queued mutations to the server in order. A transport
// or server failure stops the replay with the remainder still queued; a 4xx
// rejection is permanent, so that mutation is dropped and the replay
// continues rather than wedging the queue behind it.
func (s *Service) replayPending(ctx context.Context) {
	queue := s.loadQueue()
	if len(queue) == 0 {
		return
	}

	remaining := queue
	for len(remaining) > 0 {
		m := remaining[0]
		var err error
		switch m.Op {
		case opCreate:
			err = s.doJSON(ctx, http.MethodPost, "/api/alerts", alertInputOf(m.Alert), nil)
		case opUpdate:
			err = s.doJSON(ctx, http.MethodPut, "/api/alerts/"+m.Alert.ID, alertInputOf(m.Alert), nil)
		case opDelete:
			err = s.doJSON(ctx, http.MethodDelete, "/api/alerts/"+m.Alert.ID, nil, nil)
		default:
			s.logger.Warn("dropping unknown pending op", zap.String("op", m.Op))
		}
		if err != nil {
			var rejection *apiError
			if !errors.As(err, &rejection) || !rejection.permanent() {
				s.logger.Debug("pending replay stopped", zap.Error(err))
				break
			}
			s.logger.Warn("dropping rejected pending mutation",
				zap.String("op", m.Op), zap.String("id", m.Alert.ID), zap.Error(err))
		}
		remaining = remaining[1:]
	}

	if len(remaining) != len(queue) {
		s.saveQueue(remaining)
		s.logger.Info("replayed pending alert mutations",
			zap.Int("replayed", len(queue)-len(remaining)),
			zap.Int("remaining", len(remaining)))
	}
}

func alertInputOf(a *models.Alert) *models.AlertInput {
	active := a.IsActive
	return &models.AlertInput{
		Condition: a.Condition,
		Threshold: a.Threshold,
		Note:      a.Note,
		IsActive:  &active,
	}
}

// ConnectWallet establishes a wallet session. The provider is selected once:
// a configured keystore when it loads, otherwise the simulated wallet. Any
// provider failure falls back to the simulated session. Never fails.
func (s *Service) ConnectWallet(ctx context.Context) *models.WalletSession {
	provider := wallet.Detect(s.cfg.KeystorePath, s.logger)

	address, err := provider.Connect(ctx)
	if err != nil {
		s.logger.Warn("wallet connect failed, using simulated session", zap.Error(err))
		provider = wallet.SimulatedProvider{}
		address, _ = provider.Connect(ctx)
	}

	session := &models.WalletSession{
		Address:     address,
		Connected:   true,
		Provider:    provider.Name(),
		ConnectedAt: time.Now(),
	}
	if _, ok := provider.(wallet.SimulatedProvider); ok {
		session.Balance = wallet.MockBalance
		session.PortfolioValue = wallet.MockPortfolioValue
	}

	message := fmt.Sprintf("BONKai login: %s at %d", address, time.Now().UnixMilli())
	var signature string
	if signer, ok := provider.(wallet.MessageSigner); ok {
		if sig, err := signer.SignMessage([]byte(message)); err == nil {
			signature = base64.StdEncoding.EncodeToString(sig)
		} else {
			s.logger.Warn("message signing failed", zap.Error(err))
		}
	}

	// Server notification is best-effort; the session is locally owned.
	connectBody := map[string]string{"address": address, "provider": provider.Name()}
	if err := s.doJSON(ctx, http.MethodPost, "/api/auth/connect-wallet", connectBody, nil); err != nil {
		s.logger.Debug("connect-wallet notification failed", zap.Error(err))
	}
	if signature != "" {
		verifyBody := map[string]string{"address": address, "message": message, "signature": signature}
		if err := s.doJSON(ctx, http.MethodPost, "/api/auth/verify-signature", verifyBody, nil); err != nil {
			s.logger.Debug("verify-signature notification failed", zap.Error(err))
		}
	}

	if err := s.store.Put(localstore.KeyWallet, session); err != nil {
		s.logger.Warn("failed to persist wallet session", zap.Error(err))
	}
	return session
}

// WalletSession returns the persisted session, if any.
func (s *Service) WalletSession() (*models.WalletSession, bool) {
	var session models.WalletSession
	ok, err := s.store.Get(localstore.KeyWallet, &session)
	if err != nil || !ok {
		return nil, false
	}
	return &session, true
}

// DisconnectWallet notifies the server best-effort and removes the local
// session unconditionally.
func (s *Service) DisconnectWallet(ctx context.Context) {
	if err := s.doJSON(ctx, http.MethodDelete, "/api/auth/disconnect", nil, nil); err != nil {
		s.logger.Debug("disconnect notification failed", zap.Error(err))
	}
	if err := s.store.Delete(localstore.KeyWallet); err != nil {
		s.logger.Warn("failed to remove wallet session", zap.Error(err))
	}
}

func (s *Service) loadMirror() []*models.Alert {
	var alerts []*models.Alert
	if _, err := s.store.Get(localstore.KeyAlerts, &alerts); err != nil {
		s.logger.Warn("failed to read alert mirror", zap.Error(err))
	}
	if alerts == nil {
		alerts = []*models.Alert{}
	}
	return alerts
}

func (s *Service) saveMirror(alerts []*models.Alert) {
	if err := s.store.Put(localstore.KeyAlerts, alerts); err != nil {
		s.logger.Warn("failed to write alert mirror", zap.Error(err))
	}
}

func (s *Service) loadQueue() []pendingMutation {
	var queue []pendingMutation
	if _, err := s.store.Get(localstore.KeyPendingAlerts, &queue); err != nil {
		s.logger.Warn("failed to read pending queue", zap.Error(err))
	}
	return queue
}

func (s *Service) saveQueue(queue []pendingMutation) {
	if len(queue) == 0 {
		if err := s.store.Delete(localstore.KeyPendingAlerts); err != nil {
			s.logger.Warn("failed to clear pending queue", zap.Error(err))
		}
		return
	}
	if err := s.store.Put(localstore.KeyPendingAlerts, queue); err != nil {
		s.logger.Warn("failed to write pending queue", zap.Error(err))
	}
}

func (s *Service) enqueue(m pendingMutation) {
	s.saveQueue(append(s.loadQueue(), m))
}

// apiError is a response the server answered with an error status, as
// opposed to a transport failure.
type apiError struct {
	status  int
	message string
}

func (e *apiError) Error() string {
	if e.message != "" {
		return fmt.Sprintf("server returned %d: %s", e.status, e.message)
	}
	return fmt.Sprintf("server returned %d", e.status)
}

// permanent reports whether retrying the identical request cannot succeed.
func (e *apiError) permanent() bool {
	return e.status >= 400 && e.status < 500
}

// doJSON issues a request against the server, bounded by the fetch timeout.
// A non-nil out receives the decoded response body.
func (s *Service) doJSON(ctx context.Context, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.cfg.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return &apiError{status: resp.StatusCode, message: body.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
