package domain

// Next computes the status a notice moves to when event is applied while it
// is in current. It is pure: the store applies the result and the side
// effects (audit append, index removal, queue insertion).
//
// submit and approve are guarded: they only apply from draft and pending
// respectively. publish_now, expire, and delete apply from any status —
// an intentional administrative escape hatch.
//
// delete has no target status; the store removes the record entirely. Next
// still accepts it so callers have a single validity check for every event.
func Next(current Status, event Event) (Status, error) {
	switch event {
	case EventSubmit:
		if current != StatusDraft {
			return current, ErrInvalidTransition
		}
		return StatusPending, nil
	case EventApprove:
		if current != StatusPending {
			return current, ErrInvalidTransition
		}
		return StatusPublished, nil
	case EventPublishNow:
		return StatusPublished, nil
	case EventExpire:
		return StatusExpired, nil
	case EventDelete:
		return current, nil
	default:
		return current, ErrUnknownEvent
	}
}

// InitialStatus is the status assigned at creation: draft when the notice
// requires approval, published otherwise (bypassing pending entirely).
func InitialStatus(requiresApproval bool) Status {
	if requiresApproval {
		return StatusDraft
	}
	return StatusPublished
}
