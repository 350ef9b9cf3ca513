package store_test

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/noticehub/notice-dispatch/internal/domain"
	"github.com/noticehub/notice-dispatch/internal/store"
)

func newStore() *store.NoticeStore {
	return store.New(zap.NewNop())
}

var validReq = domain.CreateNoticeRequest{
	Title: "Fire drill",
	Body:  "Evacuate via the north stairwell",
	Tags:  []string{"safety", "drill"},
}

func TestNoticeStore_CreateDefaults(t *testing.T) {
	s := newStore()

	n, err := s.Create(validReq)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.ID != 1 {
		t.Fatalf("expected first id to be 1, got %d", n.ID)
	}
	if n.Status != domain.StatusPublished {
		t.Fatalf("approval-free notice should be published, got %s", n.Status)
	}
	if n.Author != "anonymous" {
		t.Fatalf("expected default author anonymous, got %q", n.Author)
	}
	if n.Priority != 0 {
		t.Fatalf("expected default priority 0, got %d", n.Priority)
	}
	if !n.PublishAt.Equal(n.CreatedAt) {
		t.Fatal("publishAt should default to creation time")
	}
	if len(n.Audit) != 1 || n.Audit[0].Action != "create" {
		t.Fatalf("expected a single create audit record, got %+v", n.Audit)
	}
	if s.QueueDepth() != 1 {
		t.Fatalf("published notice should be enqueued at creation, depth=%d", s.QueueDepth())
	}
}

func TestNoticeStore_CreateRequiresApprovalStartsDraft(t *testing.T) {
	s := newStore()

	req := validReq
	req.RequiresApproval = true
	n, err := s.Create(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Status != domain.StatusDraft {
		t.Fatalf("expected draft, got %s", n.Status)
	}
	if s.QueueDepth() != 0 {
		t.Fatal("a draft notice must not be enqueued")
	}
}

func TestNoticeStore_CreateInvalid(t *testing.T) {
	s := newStore()

	bad := validReq
	bad.Title = ""
	if _, err := s.Create(bad); !errors.Is(err, domain.ErrInvalidTitle) {
		t.Fatalf("expected ErrInvalidTitle, got %v", err)
	}
	if s.Count() != 0 {
		t.Fatal("invalid request must not create a notice")
	}
}

// TestNoticeStore_IDsNeverReused deletes a notice and verifies the next
// creation does not reclaim its ID.
func TestNoticeStore_IDsNeverReused(t *testing.T) {
	s := newStore()

	first, _ := s.Create(validReq)
	if _, err := s.Transition(first.ID, domain.EventDelete, "admin"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	second, _ := s.Create(validReq)
	if second.ID != first.ID+1 {
		t.Fatalf("expected id %d after deletion, got %d", first.ID+1, second.ID)
	}
}

func TestNoticeStore_ApprovalFlow(t *testing.T) {
	s := newStore()

	req := validReq
	req.RequiresApproval = true
	n, _ := s.Create(req)

	n, err := s.Transition(n.ID, domain.EventSubmit, "author")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if n.Status != domain.StatusPending {
		t.Fatalf("expected pending after submit, got %s", n.Status)
	}

	n, err = s.Transition(n.ID, domain.EventApprove, "moderator")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if n.Status != domain.StatusPublished {
		t.Fatalf("expected published after approve, got %s", n.Status)
	}
	if s.QueueDepth() != 1 {
		t.Fatal("approve must enqueue a dispatch task")
	}

	// create + submit + approve
	if len(n.Audit) != 3 {
		t.Fatalf("expected 3 audit records, got %d", len(n.Audit))
	}
	if n.Audit[2].Action != "approve" || n.Audit[2].Actor != "moderator" {
		t.Fatalf("unexpected final audit record: %+v", n.Audit[2])
	}
}

// TestNoticeStore_TransitionRejectionLeavesNoticeUnchanged approves a draft
// notice (invalid) and verifies status and audit length are untouched.
func TestNoticeStore_TransitionRejectionLeavesNoticeUnchanged(t *testing.T) {
	s := newStore()

	req := validReq
	req.RequiresApproval = true
	created, _ := s.Create(req)

	_, err := s.Transition(created.ID, domain.EventApprove, "moderator")
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	after, _ := s.Get(created.ID)
	if after.Status != domain.StatusDraft {
		t.Fatalf("status must be unchanged, got %s", after.Status)
	}
	if len(after.Audit) != len(created.Audit) {
		t.Fatalf("audit must be unchanged: had %d, now %d", len(created.Audit), len(after.Audit))
	}
}

func TestNoticeStore_TransitionNotFound(t *testing.T) {
	s := newStore()
	if _, err := s.Transition(42, domain.EventSubmit, "x"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNoticeStore_TransitionUnknownEvent(t *testing.T) {
	s := newStore()
	n, _ := s.Create(validReq)
	if _, err := s.Transition(n.ID, domain.Event("archive"), "x"); !errors.Is(err, domain.ErrUnknownEvent) {
		t.Fatalf("expected ErrUnknownEvent, got %v", err)
	}
}

func TestNoticeStore_PublishNowForcesPublishAt(t *testing.T) {
	s := newStore()

	future := time.Now().UTC().Add(time.Hour)
	req := validReq
	req.RequiresApproval = true
	req.PublishAt = &future
	created, _ := s.Create(req)

	n, err := s.Transition(created.ID, domain.EventPublishNow, "admin")
	if err != nil {
		t.Fatalf("publish_now: %v", err)
	}
	if n.Status != domain.StatusPublished {
		t.Fatalf("expected published, got %s", n.Status)
	}
	if n.PublishAt.After(time.Now().UTC()) {
		t.Fatal("publish_now must force publishAt to now")
	}
	if s.QueueDepth() != 1 {
		t.Fatal("publish_now must enqueue a dispatch task")
	}
}

// TestNoticeStore_AuditGrowsByOnePerTransition walks a full lifecycle and
// checks every successful transition appends exactly one record with the
// right action and actor.
func TestNoticeStore_AuditGrowsByOnePerTransition(t *testing.T) {
	s := newStore()

	req := validReq
	req.RequiresApproval = true
	n, _ := s.Create(req)

	steps := []struct {
		event domain.Event
		actor string
	}{
		{domain.EventSubmit, "author"},
		{domain.EventApprove, "moderator"},
		{domain.EventExpire, "admin"},
	}

	prev := len(n.Audit)
	for _, st := range steps {
		var err error
		n, err = s.Transition(n.ID, st.event, st.actor)
		if err != nil {
			t.Fatalf("%s: %v", st.event, err)
		}
		if len(n.Audit) != prev+1 {
			t.Fatalf("%s: expected audit to grow by 1 (from %d), got %d", st.event, prev, len(n.Audit))
		}
		last := n.Audit[len(n.Audit)-1]
		if last.Action != string(st.event) || last.Actor != st.actor {
			t.Fatalf("%s: unexpected audit record %+v", st.event, last)
		}
		prev = len(n.Audit)
	}
}

func TestNoticeStore_ExpireRemovesFromIndex(t *testing.T) {
	s := newStore()
	n, _ := s.Create(validReq)

	if got := s.Search("drill"); len(got) != 1 {
		t.Fatalf("expected notice to be searchable, got %d results", len(got))
	}

	if _, err := s.Transition(n.ID, domain.EventExpire, "admin"); err != nil {
		t.Fatalf("expire: %v", err)
	}
	if got := s.Search("drill"); len(got) != 0 {
		t.Fatalf("expired notice must leave the index, got %d results", len(got))
	}

	// Expired but not deleted: still listed and fetchable.
	if _, err := s.Get(n.ID); err != nil {
		t.Fatalf("expired notice should still exist: %v", err)
	}
}

func TestNoticeStore_DeleteRemovesEverywhere(t *testing.T) {
	s := newStore()
	n, _ := s.Create(validReq)

	deleted, err := s.Transition(n.ID, domain.EventDelete, "admin")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	// The delete audit record is only observable on the returned copy.
	last := deleted.Audit[len(deleted.Audit)-1]
	if last.Action != "delete" {
		t.Fatalf("expected delete audit record, got %+v", last)
	}

	if _, err := s.Get(n.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if got := s.Search("drill"); len(got) != 0 {
		t.Fatal("deleted notice must leave the index")
	}
	if got := s.List(); len(got) != 0 {
		t.Fatal("deleted notice must not be listed")
	}
}

func TestNoticeStore_SearchMatchesTags(t *testing.T) {
	s := newStore()
	s.Create(validReq) //nolint:errcheck

	if got := s.Search("safety"); len(got) != 1 {
		t.Fatalf("tags must be indexed, got %d results", len(got))
	}
	if got := s.Search(""); len(got) != 0 {
		t.Fatalf("empty query must return nothing, got %d results", len(got))
	}
}

// TestNoticeStore_CollectDue covers the promotion pass directly: due tasks
// pop in priority order, not-yet-due tasks stay queued.
func TestNoticeStore_CollectDue(t *testing.T) {
	s := newStore()

	low := validReq
	low.Priority = 1
	high := validReq
	high.Priority = 9

	nLow, _ := s.Create(low)
	nHigh, _ := s.Create(high)

	future := time.Now().UTC().Add(time.Hour)
	notDue := validReq
	notDue.PublishAt = &future
	s.Create(notDue) //nolint:errcheck

	ready, stats := s.CollectDue(time.Now().UTC())
	if stats.Stale != 0 || stats.Expired != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if len(ready) != 2 {
		t.Fatalf("expected 2 due notices, got %d", len(ready))
	}
	if ready[0].ID != nHigh.ID || ready[1].ID != nLow.ID {
		t.Fatalf("expected priority order [%d %d], got [%d %d]",
			nHigh.ID, nLow.ID, ready[0].ID, ready[1].ID)
	}
	if s.QueueDepth() != 1 {
		t.Fatalf("the future task must remain queued, depth=%d", s.QueueDepth())
	}
}

func TestNoticeStore_MarkDispatchedAppendsAudit(t *testing.T) {
	s := newStore()
	n, _ := s.Create(validReq)

	s.MarkDispatched(n.ID, time.Now().UTC())

	after, _ := s.Get(n.ID)
	last := after.Audit[len(after.Audit)-1]
	if last.Action != "dispatched" {
		t.Fatalf("expected dispatched audit record, got %+v", last)
	}
}
