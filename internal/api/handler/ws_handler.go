package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/noticehub/notice-dispatch/internal/broadcast"
)

// WSHandler serves the WebSocket subscriber endpoint. It adapts the same
// broadcaster the SSE endpoint uses: one registered subscriber per
// connection, events written as JSON text messages, connection torn down on
// the first failed write.
type WSHandler struct {
	bc            *broadcast.Broadcaster
	writeDeadline time.Duration
	upgrader      websocket.Upgrader
	logger        *zap.Logger
}

func NewWSHandler(bc *broadcast.Broadcaster, writeDeadline time.Duration, logger *zap.Logger) *WSHandler {
	return &WSHandler{
		bc:            bc,
		writeDeadline: writeDeadline,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Subscribers are anonymous listeners; there is no origin
			// restriction to enforce.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Subscribe handles GET /api/v1/events/ws.
func (h *WSHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	sub := h.bc.Register()
	defer h.bc.Deregister(sub)

	// Reader goroutine: subscribers send nothing we care about, but reading
	// is required to process close frames and detect a dropped peer.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case ev, ok := <-sub.C():
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(h.writeDeadline))
			if err := conn.WriteJSON(ev); err != nil {
				h.logger.Debug("subscriber write failed, closing websocket",
					zap.String("subscriber_id", sub.ID()),
					zap.Error(err),
				)
				return
			}
		}
	}
}
