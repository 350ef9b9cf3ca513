// Package broadcast fans dispatch events out to live subscribers.
// Delivery is best-effort and live-only: subscribers who join late see
// nothing from before they joined, and nothing is buffered or retried for
// a subscriber that cannot keep up.
package broadcast

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/noticehub/notice-dispatch/internal/domain"
)

// Subscriber is one live connection. Events arrive on C; the transport
// handler (SSE or WebSocket) drains it and writes to the wire. The channel
// is buffered and written with a non-blocking send, so a stalled transport
// never stalls the dispatch tick.
type Subscriber struct {
	id      string
	c       chan domain.DispatchEvent
	limiter *rate.Limiter
}

// C is the subscriber's event stream. It is closed on Deregister.
func (s *Subscriber) C() <-chan domain.DispatchEvent { return s.c }

// ID identifies the subscriber in logs.
func (s *Subscriber) ID() string { return s.id }

// Broadcaster maintains the process-wide subscriber set and delivers each
// dispatch event to every current subscriber. Each delivery is independent:
// a full buffer or rate-limit drop on one subscriber never affects the
// others, is never retried, and never propagates to the dispatcher.
type Broadcaster struct {
	mu     sync.RWMutex
	subs   map[string]*Subscriber
	buffer int
	limit  rate.Limit
	logger *zap.Logger

	// onDropped is called once per event dropped for a subscriber.
	// Injected by main for metrics; nil-safe via the no-op default.
	onDropped func()
}

// New creates a Broadcaster. buffer is the per-subscriber channel depth;
// perSubscriberRate bounds events per second delivered to any single
// subscriber (0 or negative disables the limit). onDropped may be nil.
func New(buffer int, perSubscriberRate int, logger *zap.Logger, onDropped func()) *Broadcaster {
	if onDropped == nil {
		onDropped = func() {}
	}
	limit := rate.Inf
	if perSubscriberRate > 0 {
		limit = rate.Limit(perSubscriberRate)
	}
	return &Broadcaster{
		subs:      make(map[string]*Subscriber),
		buffer:    buffer,
		limit:     limit,
		logger:    logger,
		onDropped: onDropped,
	}
}

// Register adds a new subscriber and returns it. The caller owns the
// connection lifecycle and must call Deregister when it ends.
func (b *Broadcaster) Register() *Subscriber {
	sub := &Subscriber{
		id:      uuid.New().String(),
		c:       make(chan domain.DispatchEvent, b.buffer),
		limiter: rate.NewLimiter(b.limit, b.buffer),
	}

	b.mu.Lock()
	b.subs[sub.id] = sub
	b.mu.Unlock()

	b.logger.Info("subscriber registered", zap.String("subscriber_id", sub.id))
	return sub
}

// Deregister removes the subscriber and closes its channel. Safe to call
// while a broadcast is in flight and safe to call more than once.
func (b *Broadcaster) Deregister(sub *Subscriber) {
	b.mu.Lock()
	_, present := b.subs[sub.id]
	if present {
		delete(b.subs, sub.id)
		close(sub.c)
	}
	b.mu.Unlock()

	if present {
		b.logger.Info("subscriber deregistered", zap.String("subscriber_id", sub.id))
	}
}

// Count returns the current number of subscribers.
func (b *Broadcaster) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Broadcast delivers ev to every current subscriber. The read lock is held
// across the delivery loop: every send is non-blocking so the hold is brief,
// and it means Deregister (which takes the write lock before closing a
// subscriber channel) can never close a channel mid-send.
func (b *Broadcaster) Broadcast(ev domain.DispatchEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		// A subscriber consuming faster than its limiter refills is the
		// normal case; Allow() only fails for a firehose that would
		// degrade the tick for everyone else.
		if !sub.limiter.Allow() {
			b.onDropped()
			continue
		}
		select {
		case sub.c <- ev:
		default:
			// Buffer full: the transport is stalled or dead. Drop the
			// event for this subscriber only.
			b.onDropped()
			b.logger.Debug("subscriber buffer full, event dropped",
				zap.String("subscriber_id", sub.id),
				zap.Int64("notice_id", ev.ID),
			)
		}
	}
}
