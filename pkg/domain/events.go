package domain

import "time"

// EventType tags one kind of domain event emitted by aggregate mutations.
type EventType string

// Domain event types. SpaceWentLive is distinct from the generic status
// change because downstream consumers treat launch as notify-worthy.
const (
	EventSpaceCreated         EventType = "space.created"
	EventSpaceClaimed         EventType = "space.claimed"
	EventClaimRequested       EventType = "space.claim_requested"
	EventClaimVerified        EventType = "space.claim_verified"
	EventLifecycleChanged     EventType = "space.lifecycle_changed"
	EventStatusChanged        EventType = "space.status_changed"
	EventSpaceWentLive        EventType = "space.went_live"
	EventSpaceActivated       EventType = "space.activated"
	EventMemberAdded          EventType = "space.member_added"
	EventMemberRemoved        EventType = "space.member_removed"
	EventMemberRoleChanged    EventType = "space.member_role_changed"
	EventOwnershipTransferred EventType = "space.ownership_transferred"
	EventLeaderRequested      EventType = "space.leader_requested"
	EventLeaderApproved       EventType = "space.leader_request_approved"
	EventLeaderRejected       EventType = "space.leader_request_rejected"
	EventMilestoneMarked      EventType = "space.setup_milestone"
	EventTabCreated           EventType = "tab.created"
	EventTabUpdated           EventType = "tab.updated"
	EventTabRemoved           EventType = "tab.removed"
	EventTabsReordered        EventType = "tab.reordered"
	EventWidgetCreated        EventType = "widget.created"
	EventWidgetUpdated        EventType = "widget.updated"
	EventWidgetRemoved        EventType = "widget.removed"
	EventWidgetAttached       EventType = "widget.attached"
	EventWidgetDetached       EventType = "widget.detached"
	EventToolPlaced           EventType = "tool.placed"
	EventToolUpdated          EventType = "tool.updated"
	EventToolRemoved          EventType = "tool.removed"
	EventToolActivated        EventType = "tool.activated"
	EventToolDeactivated      EventType = "tool.deactivated"
	EventToolsReordered       EventType = "tool.reordered"
	EventToolStateUpdated     EventType = "tool.state_updated"
)

// Event is an immutable record of one state change. Events accumulate on the
// aggregate during a mutation and are drained by the persistence layer after
// a successful commit; none are observable if the transaction rolls back.
type Event struct {
	Type       EventType `json:"type"`
	SpaceID    string    `json:"space_id"`
	Fields     []string  `json:"fields,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventSink receives committed events for audit or notification fan-out.
// Implementations must not block the caller on delivery failures.
type EventSink interface {
	Publish(events []Event)
}
