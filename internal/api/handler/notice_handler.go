package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apimw "github.com/noticehub/notice-dispatch/internal/api/middleware"
	"github.com/noticehub/notice-dispatch/internal/domain"
	"github.com/noticehub/notice-dispatch/internal/store"
)

// NoticeHandler handles the notice CRUD, transition, and search endpoints.
type NoticeHandler struct {
	store  *store.NoticeStore
	logger *zap.Logger
}

func NewNoticeHandler(s *store.NoticeStore, logger *zap.Logger) *NoticeHandler {
	return &NoticeHandler{store: s, logger: logger}
}

// Create handles POST /api/v1/notices.
func (h *NoticeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateNoticeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	n, err := h.store.Create(req)
	if err != nil {
		h.logger.Warn("create notice failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, n)
}

// GetByID handles GET /api/v1/notices/{id}.
func (h *NoticeHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "id must be an integer")
		return
	}
	n, err := h.store.Get(id)
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, n)
}

// List handles GET /api/v1/notices.
func (h *NoticeHandler) List(w http.ResponseWriter, r *http.Request) {
	notices := h.store.List()
	respondJSON(w, http.StatusOK, map[string]any{
		"data":  notices,
		"total": len(notices),
	})
}

// Search handles GET /api/v1/notices/search?q=...
// The query terms are AND-intersected; an empty query matches nothing.
func (h *NoticeHandler) Search(w http.ResponseWriter, r *http.Request) {
	notices := h.store.Search(r.URL.Query().Get("q"))
	respondJSON(w, http.StatusOK, map[string]any{
		"data":  notices,
		"total": len(notices),
	})
}

// Transition handles POST /api/v1/notices/{id}/transitions.
func (h *NoticeHandler) Transition(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "id must be an integer")
		return
	}

	var req domain.TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	n, err := h.store.Transition(id, req.Event, req.Actor)
	if err != nil {
		h.logger.Warn("transition failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Int64("id", id),
			zap.String("event", string(req.Event)),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, n)
}
