package handler

import (
	"net/http"

	"github.com/noticehub/notice-dispatch/internal/broadcast"
	"github.com/noticehub/notice-dispatch/internal/store"
)

// MetricsHandler serves the JSON metrics snapshot (the raw Prometheus
// endpoint is registered separately in the router).
type MetricsHandler struct {
	store *store.NoticeStore
	bc    *broadcast.Broadcaster
}

func NewMetricsHandler(s *store.NoticeStore, bc *broadcast.Broadcaster) *MetricsHandler {
	return &MetricsHandler{store: s, bc: bc}
}

// GetMetrics handles GET /api/v1/metrics.
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]int{
		"notices":     h.store.Count(),
		"queue_depth": h.store.QueueDepth(),
		"subscribers": h.bc.Count(),
	})
}
