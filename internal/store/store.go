// Package store owns notice records and their lifecycle. All business rules
// live here: status transitions, audit appends, search-index maintenance,
// and dispatch-task enqueueing. HTTP handlers and the dispatcher depend on
// this store, not on each other.
package store

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noticehub/notice-dispatch/internal/domain"
	"github.com/noticehub/notice-dispatch/internal/index"
	"github.com/noticehub/notice-dispatch/internal/queue"
)

// systemActor is recorded on audit entries written by the dispatcher rather
// than by a caller (automatic expiry, dispatch confirmation).
const systemActor = "dispatcher"

// NoticeStore is the exclusive owner of notice records, the search index,
// and the dispatch queue. One mutex serializes every mutation across all
// three — none of the underlying structures is designed for concurrent
// mutation, and a single-writer discipline keeps transitions all-or-nothing:
// a failed transition leaves status, audit, index, and queue untouched.
type NoticeStore struct {
	mu      sync.RWMutex
	notices map[int64]*domain.Notice
	nextID  int64

	idx    *index.Index
	q      *queue.DispatchQueue
	logger *zap.Logger
}

func New(logger *zap.Logger) *NoticeStore {
	return &NoticeStore{
		notices: make(map[int64]*domain.Notice),
		idx:     index.New(),
		q:       queue.New(),
		logger:  logger,
	}
}

// Create validates the request, assigns the next ID, indexes the content,
// and — when the notice is born published — enqueues its dispatch task.
// IDs are monotonically assigned and never reused, even after deletion.
func (s *NoticeStore) Create(req domain.CreateNoticeRequest) (*domain.Notice, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	author := req.Author
	if author == "" {
		author = "anonymous"
	}
	publishAt := now
	if req.PublishAt != nil {
		publishAt = req.PublishAt.UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	n := &domain.Notice{
		ID:               s.nextID,
		Title:            req.Title,
		Body:             req.Body,
		Tags:             append([]string(nil), req.Tags...),
		Category:         req.Category,
		Author:           author,
		Priority:         req.Priority,
		Status:           domain.InitialStatus(req.RequiresApproval),
		RequiresApproval: req.RequiresApproval,
		CreatedAt:        now,
		PublishAt:        publishAt,
		ExpireAt:         req.ExpireAt,
		Audit: []domain.AuditRecord{
			{Action: "create", Actor: author, At: now},
		},
	}

	s.notices[n.ID] = n
	s.idx.Add(n.ID, n.SearchText())

	if n.Status == domain.StatusPublished {
		s.enqueueLocked(n)
	}

	s.logger.Debug("notice created",
		zap.Int64("id", n.ID),
		zap.String("status", string(n.Status)),
	)
	return clone(n), nil
}

// Transition applies a lifecycle event to the notice. The status change,
// audit append, and side effects (index removal, task enqueue, record
// removal) happen together under the lock or not at all.
//
// delete appends its audit record before the record is removed; the entry
// is observable only on the returned copy.
func (s *NoticeStore) Transition(id int64, event domain.Event, actor string) (*domain.Notice, error) {
	if actor == "" {
		actor = "anonymous"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notices[id]
	if !ok {
		return nil, domain.ErrNotFound
	}

	next, err := domain.Next(n.Status, event)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	n.Status = next
	n.Audit = append(n.Audit, domain.AuditRecord{Action: string(event), Actor: actor, At: now})

	switch event {
	case domain.EventApprove:
		s.enqueueLocked(n)
	case domain.EventPublishNow:
		n.PublishAt = now
		s.enqueueLocked(n)
	case domain.EventExpire:
		s.idx.Remove(n.ID)
	case domain.EventDelete:
		s.idx.Remove(n.ID)
		delete(s.notices, n.ID)
		// Any queued task for this notice is now stale; it stays in the
		// queue and is discarded on pop (lazy deletion).
	}

	s.logger.Info("notice transition",
		zap.Int64("id", id),
		zap.String("event", string(event)),
		zap.String("actor", actor),
		zap.String("status", string(n.Status)),
	)
	return clone(n), nil
}

// Get returns a copy of the notice, or ErrNotFound.
func (s *NoticeStore) Get(id int64) (*domain.Notice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notices[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(n), nil
}

// List returns a snapshot of all non-deleted notices, unordered.
func (s *NoticeStore) List() []*domain.Notice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*domain.Notice, 0, len(s.notices))
	for _, n := range s.notices {
		result = append(result, clone(n))
	}
	return result
}

// Search tokenizes the query, AND-intersects the index postings, and
// returns the matching notices. Order is unspecified. An empty query
// returns no results.
func (s *NoticeStore) Search(query string) []*domain.Notice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.idx.Query(query)
	result := make([]*domain.Notice, 0, len(ids))
	for _, id := range ids {
		if n, ok := s.notices[id]; ok {
			result = append(result, clone(n))
		}
	}
	return result
}

// PromoteStats reports what the promotion pass did with the tasks it popped
// beyond the ones it promoted.
type PromoteStats struct {
	Stale   int // notice deleted or no longer published
	Expired int // notice expired at pop time, transitioned here
}

// CollectDue pops every task whose publish time has arrived and re-validates
// it against the current record: missing or non-published notices are
// discarded as stale, and a notice whose expireAt has passed is expired on
// the spot instead of dispatched. The survivors are returned in pop order
// (priority order among due tasks) for the broadcast pass.
//
// The pass stops at the first not-yet-due head. Because ordering is
// priority-first, a not-yet-due high-priority head can hide due
// lower-priority tasks until it comes due; that is the accepted cost of the
// chosen total order.
//
// The whole pass runs under the store lock, so a tick is atomic with
// respect to queue state.
func (s *NoticeStore) CollectDue(now time.Time) ([]*domain.Notice, PromoteStats) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ready []*domain.Notice
	var stats PromoteStats

	for {
		head, ok := s.q.Peek()
		if !ok || head.PublishAt.After(now) {
			break
		}
		s.q.Pop()

		n, ok := s.notices[head.NoticeID]
		if !ok || n.Status != domain.StatusPublished {
			stats.Stale++
			continue
		}
		if n.ExpireAt != nil && !n.ExpireAt.After(now) {
			n.Status = domain.StatusExpired
			n.Audit = append(n.Audit, domain.AuditRecord{
				Action: string(domain.EventExpire), Actor: systemActor, At: now,
			})
			s.idx.Remove(n.ID)
			stats.Expired++
			continue
		}
		ready = append(ready, clone(n))
	}
	return ready, stats
}

// MarkDispatched appends the dispatched audit record after a broadcast.
// A notice deleted mid-tick is simply skipped.
func (s *NoticeStore) MarkDispatched(id int64, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.notices[id]; ok {
		n.Audit = append(n.Audit, domain.AuditRecord{Action: "dispatched", Actor: systemActor, At: at})
	}
}

// QueueDepth returns the number of queued dispatch tasks, stale entries
// included. Used by the metrics snapshot.
func (s *NoticeStore) QueueDepth() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.Len()
}

// Count returns the number of live notices.
func (s *NoticeStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notices)
}

// enqueueLocked pushes a dispatch task for n. The task is a copy; the
// dispatcher re-fetches the notice when it comes due. Tasks with a future
// publish time simply wait in the heap until the promotion pass finds them
// due.
func (s *NoticeStore) enqueueLocked(n *domain.Notice) {
	s.q.Push(queue.Task{
		NoticeID:  n.ID,
		Priority:  n.Priority,
		PublishAt: n.PublishAt,
	})
}

func clone(n *domain.Notice) *domain.Notice {
	c := *n
	c.Tags = append([]string(nil), n.Tags...)
	c.Audit = append([]domain.AuditRecord(nil), n.Audit...)
	return &c
}
