// Package dispatcher drives the periodic promotion of due dispatch tasks
// into live broadcasts.
package dispatcher

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noticehub/notice-dispatch/internal/broadcast"
	"github.com/noticehub/notice-dispatch/internal/domain"
	"github.com/noticehub/notice-dispatch/internal/store"
)

// MetricHooks carries the metric callback functions injected by main.
// All are optional; nil hooks become no-ops.
type MetricHooks struct {
	OnDispatched func()
	OnExpired    func()
	OnStale      func()
}

func (h *MetricHooks) fill() {
	if h.OnDispatched == nil {
		h.OnDispatched = func() {}
	}
	if h.OnExpired == nil {
		h.OnExpired = func() {}
	}
	if h.OnStale == nil {
		h.OnStale = func() {}
	}
}

// Dispatcher polls the store on a fixed interval for notices whose publish
// time has arrived and hands them to the broadcaster.
//
// Each tick is two passes: the promotion pass (store.CollectDue, atomic
// under the store lock) pops due tasks, discards stale ones, and expires
// overdue notices; the broadcast pass then fans out the survivors in FIFO
// order and records a dispatched audit entry for each. Nothing in a tick
// blocks on subscriber I/O and no per-notice failure aborts the rest of
// the tick.
type Dispatcher struct {
	store    *store.NoticeStore
	bc       *broadcast.Broadcaster
	interval time.Duration
	logger   *zap.Logger
	hooks    MetricHooks
}

func New(
	s *store.NoticeStore,
	bc *broadcast.Broadcaster,
	interval time.Duration,
	logger *zap.Logger,
	hooks MetricHooks,
) *Dispatcher {
	hooks.fill()
	return &Dispatcher{store: s, bc: bc, interval: interval, logger: logger, hooks: hooks}
}

// Run ticks every interval until ctx is cancelled. An in-flight tick is
// allowed to finish; there is no further shutdown coordination.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.logger.Info("dispatcher started", zap.Duration("interval", d.interval))

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("dispatcher stopping")
			return
		case <-ticker.C:
			d.Tick(time.Now().UTC())
		}
	}
}

// Tick runs one promotion + broadcast cycle against the given clock
// reading. Exported so tests can drive the loop deterministically without
// wall-clock waits.
func (d *Dispatcher) Tick(now time.Time) {
	ready, stats := d.store.CollectDue(now)

	for i := 0; i < stats.Stale; i++ {
		d.hooks.OnStale()
	}
	for i := 0; i < stats.Expired; i++ {
		d.hooks.OnExpired()
	}

	for _, n := range ready {
		d.bc.Broadcast(domain.DispatchEvent{
			ID:       n.ID,
			Title:    n.Title,
			Body:     n.Body,
			Priority: n.Priority,
		})
		d.store.MarkDispatched(n.ID, now)
		d.hooks.OnDispatched()
	}

	if len(ready) > 0 || stats.Stale > 0 || stats.Expired > 0 {
		d.logger.Debug("tick complete",
			zap.Int("dispatched", len(ready)),
			zap.Int("stale", stats.Stale),
			zap.Int("expired", stats.Expired),
		)
	}
}
