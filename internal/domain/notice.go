package domain

import "time"

// Status tracks the lifecycle of a notice.
// Statuses only move forward along the transition graph; there are no
// backward transitions. Deletion is not a status — a deleted notice simply
// no longer exists in the store.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusPublished Status = "published"
	StatusExpired   Status = "expired"
)

// Event is a lifecycle transition request.
type Event string

const (
	EventSubmit     Event = "submit"
	EventApprove    Event = "approve"
	EventPublishNow Event = "publish_now"
	EventExpire     Event = "expire"
	EventDelete     Event = "delete"
)

func (e Event) IsValid() bool {
	switch e {
	case EventSubmit, EventApprove, EventPublishNow, EventExpire, EventDelete:
		return true
	}
	return false
}

// AuditRecord is one entry in a notice's append-only audit trail.
// Every successful transition appends exactly one record.
type AuditRecord struct {
	Action string    `json:"action"`
	Actor  string    `json:"actor"`
	At     time.Time `json:"at"`
}

// Notice is the core domain entity.
type Notice struct {
	ID               int64         `json:"id"`
	Title            string        `json:"title"`
	Body             string        `json:"body"`
	Tags             []string      `json:"tags,omitempty"`
	Category         string        `json:"category,omitempty"`
	Author           string        `json:"author"`
	Priority         int           `json:"priority"`
	Status           Status        `json:"status"`
	RequiresApproval bool          `json:"requires_approval"`
	CreatedAt        time.Time     `json:"created_at"`
	PublishAt        time.Time     `json:"publish_at"`
	ExpireAt         *time.Time    `json:"expire_at,omitempty"`
	Audit            []AuditRecord `json:"audit"`
}

// SearchText returns the text whose tokens represent this notice in the
// search index: title, body, and tags.
func (n *Notice) SearchText() string {
	s := n.Title + " " + n.Body
	for _, t := range n.Tags {
		s += " " + t
	}
	return s
}

// DispatchEvent is the payload pushed to subscribers when a notice is
// broadcast. It carries only the fields a listener needs to render the
// notice, frozen at dispatch time.
type DispatchEvent struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	Priority int    `json:"priority"`
}

// CreateNoticeRequest is the inbound payload for creating a notice.
type CreateNoticeRequest struct {
	Title            string     `json:"title"`
	Body             string     `json:"body"`
	Tags             []string   `json:"tags,omitempty"`
	Category         string     `json:"category,omitempty"`
	Author           string     `json:"author,omitempty"`
	Priority         int        `json:"priority,omitempty"`
	RequiresApproval bool       `json:"requires_approval,omitempty"`
	PublishAt        *time.Time `json:"publish_at,omitempty"`
	ExpireAt         *time.Time `json:"expire_at,omitempty"`
}

func (r *CreateNoticeRequest) Validate() error {
	if r.Title == "" {
		return ErrInvalidTitle
	}
	if len(r.Body) > 65536 {
		return ErrInvalidBody
	}
	return nil
}

// TransitionRequest is the inbound payload for a lifecycle transition.
type TransitionRequest struct {
	Event Event  `json:"event"`
	Actor string `json:"actor,omitempty"`
}
