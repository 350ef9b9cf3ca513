package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/noticehub/notice-dispatch/internal/broadcast"
)

// StreamHandler serves the server-sent-events subscriber endpoint. Each
// connection registers a subscriber with the broadcaster for its lifetime
// and relays dispatch events as one `event:`/`data:` frame per notice,
// terminated by a blank line.
type StreamHandler struct {
	bc            *broadcast.Broadcaster
	writeDeadline time.Duration
	logger        *zap.Logger
}

func NewStreamHandler(bc *broadcast.Broadcaster, writeDeadline time.Duration, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{bc: bc, writeDeadline: writeDeadline, logger: logger}
}

// Subscribe handles GET /api/v1/events.
func (h *StreamHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sub := h.bc.Register()
	defer h.bc.Deregister(sub)

	rc := http.NewResponseController(w)

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-sub.C():
			if !ok {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			// Bound the write so one stalled connection cannot pin this
			// goroutine; a failed write ends only this subscription.
			_ = rc.SetWriteDeadline(time.Now().Add(h.writeDeadline))
			if _, err := fmt.Fprintf(w, "event: notice\ndata: %s\n\n", payload); err != nil {
				h.logger.Debug("subscriber write failed, closing stream",
					zap.String("subscriber_id", sub.ID()),
					zap.Error(err),
				)
				return
			}
			flusher.Flush()
		}
	}
}
