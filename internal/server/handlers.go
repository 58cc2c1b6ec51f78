package server

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bonkai/bonkai/internal/models"
	"github.com/bonkai/bonkai/internal/relevance"
	"github.com/bonkai/bonkai/internal/storage"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// rejectionResponse is returned with HTTP 400 when a submission scores below
// the domain threshold.
type rejectionResponse struct {
	Error          string   `json:"error"`
	RelevanceScore int      `json:"relevanceScore"`
	RequiredScore  int      `json:"requiredScore"`
	Suggestions    []string `json:"suggestions"`
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	stats, err := s.market.Current(r.Context())
	if err != nil {
		s.logger.Error("price fetch failed with empty cache", zap.Error(err))
		s.respondError(w, http.StatusServiceUnavailable, "market data unavailable")
		return
	}
	s.respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var input models.EventInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if input.Title == "" {
		s.respondError(w, http.StatusBadRequest, "title is required")
		return
	}

	scorer := s.registry.Events()
	score := scorer.Score(input.Title, input.Description, input.Tags)
	s.logger.Debug("event submission scored",
		zap.String("title", input.Title), zap.Int("score", score))
	if !scorer.IsRelevant(score) {
		s.respondJSON(w, http.StatusBadRequest, rejectionResponse{
			Error:          "event is not relevant to the BONK ecosystem",
			RelevanceScore: score,
			RequiredScore:  scorer.Threshold(),
			Suggestions:    scorer.Suggestions(),
		})
		return
	}

	event := &models.Event{
		ID:             uuid.NewString(),
		Title:          input.Title,
		Description:    input.Description,
		Date:           input.Date,
		Location:       input.Location,
		URL:            input.URL,
		Tags:           relevance.MergeTags(input.Tags, scorer.ExtractTags(input.Title, input.Description)),
		RelevanceScore: score,
	}
	if err := s.storage.CreateEvent(r.Context(), event); err != nil {
		s.logger.Error("event create failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.index.IndexEvent(r.Context(), event); err != nil {
		// The record exists; search just won't find it until a reindex.
		s.logger.Warn("event index failed", zap.String("id", event.ID), zap.Error(err))
	}
	s.respondJSON(w, http.StatusCreated, event)
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	offset, limit := listParams(r)
	events, err := s.storage.ListEvents(r.Context(), offset, limit)
	if err != nil {
		s.logger.Error("event list failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if events == nil {
		events = []*models.Event{}
	}
	s.respondJSON(w, http.StatusOK, events)
}

func (s *Server) handleCreateTrack(w http.ResponseWriter, r *http.Request) {
	var input models.AudioInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if input.Title == "" {
		s.respondError(w, http.StatusBadRequest, "title is required")
		return
	}

	scorer := s.registry.Audio()
	score := scorer.Score(input.Title, input.Description, input.Tags)
	s.logger.Debug("audio submission scored",
		zap.String("title", input.Title), zap.Int("score", score))
	if !scorer.IsRelevant(score) {
		s.respondJSON(w, http.StatusBadRequest, rejectionResponse{
			Error:          "audio is not relevant to the BONK ecosystem",
			RelevanceScore: score,
			RequiredScore:  scorer.Threshold(),
			Suggestions:    scorer.Suggestions(),
		})
		return
	}

	track := &models.AudioTrack{
		ID:              uuid.NewString(),
		Title:           input.Title,
		Description:     input.Description,
		AudioURL:        input.AudioURL,
		DurationSeconds: input.DurationSeconds,
		Tags:            relevance.MergeTags(input.Tags, scorer.ExtractTags(input.Title, input.Description)),
		RelevanceScore:  score,
	}
	if err := s.storage.CreateTrack(r.Context(), track); err != nil {
		s.logger.Error("track create failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.index.IndexTrack(r.Context(), track); err != nil {
		s.logger.Warn("track index failed", zap.String("id", track.ID), zap.Error(err))
	}
	s.respondJSON(w, http.StatusCreated, track)
}

func (s *Server) handleListTracks(w http.ResponseWriter, r *http.Request) {
	offset, limit := listParams(r)
	tracks, err := s.storage.ListTracks(r.Context(), offset, limit)
	if err != nil {
		s.logger.Error("track list failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if tracks == nil {
		tracks = []*models.AudioTrack{}
	}
	s.respondJSON(w, http.StatusOK, tracks)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		s.respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= maxListLimit {
			limit = n
		}
	}
	hits, err := s.index.Search(r.Context(), query, limit)
	if err != nil {
		s.logger.Error("search failed", zap.String("q", query), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if hits == nil {
		hits = []*models.SearchHit{}
	}
	s.respondJSON(w, http.StatusOK, hits)
}

func (s *Server) handleCreateAlert(w http.ResponseWriter, r *http.Request) {
	var input models.AlertInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if input.Condition != models.ConditionAbove && input.Condition != models.ConditionBelow {
		s.respondError(w, http.StatusBadRequest, "condition must be above or below")
		return
	}
	if input.Threshold <= 0 {
		s.respondError(w, http.StatusBadRequest, "threshold must be positive")
		return
	}

	alert := &models.Alert{
		ID:        uuid.NewString(),
		Condition: input.Condition,
		Threshold: input.Threshold,
		Note:      input.Note,
		IsActive:  true,
	}
	if input.IsActive != nil {
		alert.IsActive = *input.IsActive
	}
	if err := s.storage.CreateAlert(r.Context(), alert); err != nil {
		s.logger.Error("alert create failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, alert)
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.storage.ListAlerts(r.Context())
	if err != nil {
		s.logger.Error("alert list failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if alerts == nil {
		alerts = []*models.Alert{}
	}
	s.respondJSON(w, http.StatusOK, alerts)
}

func (s *Server) handleGetAlert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	alert, err := s.storage.GetAlert(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "alert not found")
		return
	}
	s.respondJSON(w, http.StatusOK, alert)
}

func (s *Server) handleUpdateAlert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	alert, err := s.storage.GetAlert(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "alert not found")
		return
	}

	var input models.AlertInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if input.Condition != "" {
		if input.Condition != models.ConditionAbove && input.Condition != models.ConditionBelow {
			s.respondError(w, http.StatusBadRequest, "condition must be above or below")
			return
		}
		alert.Condition = input.Condition
	}
	if input.Threshold > 0 {
		alert.Threshold = input.Threshold
	}
	if input.Note != "" {
		alert.Note = input.Note
	}
	if input.IsActive != nil {
		alert.IsActive = *input.IsActive
	}

	if err := s.storage.UpdateAlert(r.Context(), alert); err != nil {
		s.logger.Error("alert update failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, alert)
}

func (s *Server) handleDeleteAlert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.storage.DeleteAlert(r.Context(), id); err != nil {
		s.logger.Error("alert delete failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type walletConnectRequest struct {
	Address  string `json:"address"`
	Provider string `json:"provider,omitempty"`
}

func (s *Server) handleWalletConnect(w http.ResponseWriter, r *http.Request) {
	var req walletConnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Address == "" {
		s.respondError(w, http.StatusBadRequest, "address is required")
		return
	}
	s.logger.Info("wallet connected",
		zap.String("address", req.Address), zap.String("provider", req.Provider))
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "acknowledged"})
}

type verifySignatureRequest struct {
	Address   string `json:"address"`
	Message   string `json:"message"`
	Signature string `json:"signature"`
}

// handleVerifySignature checks an ed25519 signature against the address,
// which is the base64url-encoded public key for keystore wallets. Simulated
// wallets never produce a signature, so an undecodable address simply
// verifies false.
func (s *Server) handleVerifySignature(w http.ResponseWriter, r *http.Request) {
	var req verifySignatureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	verified := false
	pub, err := base64.RawURLEncoding.DecodeString(req.Address)
	if err == nil && len(pub) == ed25519.PublicKeySize {
		if sig, err := base64.StdEncoding.DecodeString(req.Signature); err == nil {
			verified = ed25519.Verify(ed25519.PublicKey(pub), []byte(req.Message), sig)
		}
	}
	s.respondJSON(w, http.StatusOK, map[string]bool{"verified": verified})
}

func (s *Server) handleWalletDisconnect(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "disconnected"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventCount, err := s.storage.CountEvents(ctx)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	trackCount, err := s.storage.CountTracks(ctx)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	alertCount, err := s.storage.CountAlerts(ctx)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := map[string]any{
		"events": eventCount,
		"tracks": trackCount,
		"alerts": alertCount,
	}
	if n, err := s.index.DocCount(); err == nil {
		resp["indexed"] = n
	}
	if diskBytes, err := storage.DiskUsageBytes(
		s.config.Storage.DatabasePath,
		s.config.Storage.BleveIndexPath,
	); err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	resp["config"] = map[string]any{
		"token_id":                s.config.Market.TokenID,
		"currency":                s.config.Market.Currency,
		"cache_ttl_seconds":       s.config.Market.CacheTTLSeconds,
		"stream_interval_seconds": s.config.Market.StreamIntervalSeconds,
		"events_threshold":        s.registry.Events().Threshold(),
		"audio_threshold":         s.registry.Audio().Threshold(),
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func listParams(r *http.Request) (offset, limit int) {
	limit = defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= maxListLimit {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return offset, limit
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
