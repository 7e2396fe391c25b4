package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/danielpatrickdp/semdrift/internal/state"
	"go.uber.org/zap"
)

type updateRequest struct {
	Embedding []float32 `json:"embedding"`
	NowMs     *float64  `json:"now_ms"`
}

type vectorBody struct {
	Vector []float32 `json:"vector"`
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	nowMs := s.tracker.Now()
	if req.NowMs != nil {
		nowMs = *req.NowMs
	}
	res, err := s.tracker.Update(r.Context(), req.Embedding, nowMs)
	if err != nil {
		if isEngineError(err) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("update failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	nowMs := s.tracker.Now()
	if raw := r.URL.Query().Get("now_ms"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid now_ms")
			return
		}
		nowMs = v
	}
	s.respondJSON(w, http.StatusOK, s.tracker.Snapshot(r.Context(), nowMs))
}

func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	var body vectorBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.respondJSON(w, http.StatusOK, vectorBody{Vector: state.Normalize(body.Vector)})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.tracker.Info())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func isEngineError(err error) bool {
	var dimErr *state.DimensionMismatchError
	return errors.Is(err, state.ErrEmptyEmbedding) || errors.As(err, &dimErr)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
