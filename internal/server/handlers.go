package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/bunrui/internal/classifier"
	"github.com/hyperjump/bunrui/internal/models"
)

func (s *Server) decodeScoreRequest(w http.ResponseWriter, r *http.Request) (*models.ScoreRequest, bool) {
	var req models.ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return &req, true
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeScoreRequest(w, r)
	if !ok {
		return
	}
	start := time.Now()
	s.mu.Lock()
	scores, err := s.model.Score(r.Context(), req.Text)
	s.mu.Unlock()
	elapsed := time.Since(start)
	s.metrics.ScoreLatency.Observe(elapsed.Seconds())
	if err != nil {
		s.respondScoreError(w, err)
		return
	}
	s.logger.Debug("score request", zap.Int("text_len", len(req.Text)), zap.Duration("elapsed", elapsed))

	ranked := classifier.SortScores(scores)
	if req.Top > 0 && req.Top < len(ranked) {
		ranked = ranked[:req.Top]
	}
	resp := models.ScoreResponse{
		Scores:      scores,
		Ranked:      make([]models.LabelScore, len(ranked)),
		QueryTimeMs: elapsed.Milliseconds(),
	}
	for i, ls := range ranked {
		resp.Ranked[i] = models.LabelScore{Label: ls.Label, Score: ls.Score}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeScoreRequest(w, r)
	if !ok {
		return
	}
	start := time.Now()
	s.mu.Lock()
	label, score, err := s.model.Classify(r.Context(), req.Text)
	s.mu.Unlock()
	s.metrics.ScoreLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		s.respondScoreError(w, err)
		return
	}
	s.metrics.PredictionsTotal.WithLabelValues(label).Inc()
	s.respondJSON(w, http.StatusOK, models.ClassifyResponse{Label: label, Score: score})
}

func (s *Server) respondScoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, classifier.ErrNotTrained) {
		s.respondError(w, http.StatusServiceUnavailable, "no model loaded")
		return
	}
	s.logger.Error("scoring failed", zap.Error(err))
	s.respondError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) handleLabels(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	tm, name := s.model, s.modelName
	s.mu.Unlock()
	if !tm.Trained() {
		s.respondError(w, http.StatusServiceUnavailable, "no model loaded")
		return
	}
	s.respondJSON(w, http.StatusOK, models.LabelsResponse{Labels: tm.Labels(), Model: name})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	if s.registry == nil {
		s.respondError(w, http.StatusNotImplemented, "model registry not enabled")
		return
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	recs, err := s.registry.List(r.Context(), offset, limit)
	if err != nil {
		s.logger.Error("list models failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total, err := s.registry.Count(r.Context())
	if err != nil {
		s.logger.Error("count models failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if recs == nil {
		recs = []*models.ModelRecord{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"models": recs, "total": total})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	loaded := s.model.Trained()
	s.mu.Unlock()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "model_loaded": loaded})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
