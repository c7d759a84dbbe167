// Package domain defines the Space aggregate, its sub-entities, lifecycle
// and activation semantics, domain events, and the rule evaluation
// primitives used by spacecore.
package domain

import "time"

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntitySpace identifies a space aggregate document.
	EntitySpace EntityType = "space"
	// EntityAuditEntry identifies a persisted audit-log record.
	EntityAuditEntry EntityType = "audit_entry"
)

// LifecycleState represents the canonical space lifecycle states.
type LifecycleState string

// Canonical lifecycle states. Seeded spaces are pre-created and ownerless;
// claimed spaces have an owner configuring in stealth; pending spaces have
// been submitted for launch; live spaces are published; suspended and
// archived gate moderation and retirement.
const (
	StateSeeded    LifecycleState = "seeded"
	StateClaimed   LifecycleState = "claimed"
	StatePending   LifecycleState = "pending"
	StateLive      LifecycleState = "live"
	StateSuspended LifecycleState = "suspended"
	StateArchived  LifecycleState = "archived"
)

// ActivationStatus is the quorum-derived community unlock status.
type ActivationStatus string

// Activation statuses derived from member count against the threshold.
const (
	ActivationGhost     ActivationStatus = "ghost"
	ActivationGathering ActivationStatus = "gathering"
	ActivationOpen      ActivationStatus = "open"
)

// ClaimStatus is the coarse legacy claim flag still read by older code paths.
type ClaimStatus string

// Legacy claim statuses.
const (
	ClaimUnclaimed ClaimStatus = "unclaimed"
	ClaimClaimed   ClaimStatus = "claimed"
)

// PublishStatus is the legacy stealth/live publish flag.
type PublishStatus string

// Legacy publish statuses.
const (
	PublishStealth PublishStatus = "stealth"
	PublishLive    PublishStatus = "live"
)

// Visibility controls who can discover a space.
type Visibility string

// Space visibility scopes.
const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// CreationSource records how a space entered the system.
type CreationSource string

// Creation sources. Pre-seeded spaces are imported ahead of any user action.
const (
	SourceSeeded      CreationSource = "ublinked"
	SourceUserCreated CreationSource = "user-created"
)

// MemberRole enumerates membership roles within a space.
type MemberRole string

// Membership roles ordered by privilege.
const (
	RoleOwner     MemberRole = "owner"
	RoleAdmin     MemberRole = "admin"
	RoleModerator MemberRole = "moderator"
	RoleMember    MemberRole = "member"
	RoleGuest     MemberRole = "guest"
)

// LeaderRequestStatus tracks leader/claim request review outcomes.
type LeaderRequestStatus string

// Leader request statuses. Approved and rejected are terminal.
const (
	RequestPending  LeaderRequestStatus = "pending"
	RequestApproved LeaderRequestStatus = "approved"
	RequestRejected LeaderRequestStatus = "rejected"
)

// PlacementLocation identifies where a placed tool renders within a space.
type PlacementLocation string

// Tool placement locations.
const (
	PlacementSidebar PlacementLocation = "sidebar"
	PlacementInline  PlacementLocation = "inline"
	PlacementTab     PlacementLocation = "tab"
)

// DefaultActivationThreshold is the canonical member quorum. The product copy
// mentioning a ten-member unlock was never reflected in shipped behavior.
const DefaultActivationThreshold = 1

// DefaultMemberCapacity bounds membership per space unless overridden.
const DefaultMemberCapacity = 500

// Member is a profile's membership inside one space. Members are never
// persisted independently; they live inside the space document.
type Member struct {
	ProfileID        string     `json:"profile_id"`
	Role             MemberRole `json:"role"`
	JoinedAt         time.Time  `json:"joined_at"`
	IsFoundingMember bool       `json:"is_founding_member"`
}

// LeaderRequest records a profile asking to lead or claim a space.
type LeaderRequest struct {
	ProfileID                string              `json:"profile_id"`
	RequestedAt              time.Time           `json:"requested_at"`
	Status                   LeaderRequestStatus `json:"status"`
	Role                     string              `json:"role,omitempty"`
	ProofType                string              `json:"proof_type,omitempty"`
	ProofURL                 string              `json:"proof_url,omitempty"`
	ProvisionalAccessGranted bool                `json:"provisional_access_granted"`
	ReviewedBy               *string             `json:"reviewed_by,omitempty"`
	ReviewedAt               *time.Time          `json:"reviewed_at,omitempty"`
	RejectionReason          *string             `json:"rejection_reason,omitempty"`
}

// SetupProgress tracks onboarding milestones for claimed spaces.
type SetupProgress struct {
	WelcomeMessagePosted bool `json:"welcome_message_posted"`
	FirstToolDeployed    bool `json:"first_tool_deployed"`
	CoLeaderInvited      bool `json:"co_leader_invited"`
	MemberTargetReached  bool `json:"member_target_reached"`
}

// IsComplete reports whether every milestone has been reached.
func (p SetupProgress) IsComplete() bool {
	return p.WelcomeMessagePosted && p.FirstToolDeployed && p.CoLeaderInvited && p.MemberTargetReached
}

// Percentage returns onboarding completion as 0-100.
func (p SetupProgress) Percentage() int {
	done := 0
	for _, v := range []bool{p.WelcomeMessagePosted, p.FirstToolDeployed, p.CoLeaderInvited, p.MemberTargetReached} {
		if v {
			done++
		}
	}
	return done * 100 / 4
}

// Tab is an ordered navigation surface displaying a set of widgets.
type Tab struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Order     int      `json:"order"`
	IsDefault bool     `json:"is_default"`
	IsVisible bool     `json:"is_visible"`
	WidgetIDs []string `json:"widget_ids"`
}

// Widget is a reusable content block referenced by zero or more tabs.
type Widget struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Title    string         `json:"title"`
	Order    int            `json:"order"`
	IsActive bool           `json:"is_active"`
	Config   map[string]any `json:"config,omitempty"`
}

// PlacedTool is a deployment of an external catalog tool into a space.
type PlacedTool struct {
	ID             string            `json:"id"`
	ToolID         string            `json:"tool_id"`
	Location       PlacementLocation `json:"location"`
	TabID          *string           `json:"tab_id,omitempty"`
	Visibility     Visibility        `json:"visibility"`
	Order          int               `json:"order"`
	IsActive       bool              `json:"is_active"`
	Locked         bool              `json:"locked"`
	SystemManaged  bool              `json:"system_managed"`
	State          map[string]any    `json:"state,omitempty"`
	StateUpdatedAt *time.Time        `json:"state_updated_at,omitempty"`
}

// ImportMetadata carries opaque passthrough data for externally imported spaces.
type ImportMetadata struct {
	ContactEmail string            `json:"contact_email,omitempty"`
	ContactName  string            `json:"contact_name,omitempty"`
	SocialLinks  map[string]string `json:"social_links,omitempty"`
}

// SpaceDocument is the plain persisted record for one space aggregate.
// Repositories hydrate it into a Space via HydrateSpace; mutation goes
// through aggregate methods only.
type SpaceDocument struct {
	SpaceID     string         `json:"space_id"`
	Name        string         `json:"name"`
	Slug        string         `json:"slug"`
	Description string         `json:"description,omitempty"`
	Category    string         `json:"category,omitempty"`
	CampusID    string         `json:"campus_id"`
	Visibility  Visibility     `json:"visibility"`
	IconURL     string         `json:"icon_url,omitempty"`
	CoverURL    string         `json:"cover_url,omitempty"`
	Source      CreationSource `json:"source"`
	SpaceType   string         `json:"space_type,omitempty"`
	Import      ImportMetadata `json:"import_metadata,omitempty"`

	// LifecycleState is empty on legacy documents; readers derive it from
	// the legacy fields below in that case.
	LifecycleState      LifecycleState   `json:"lifecycle_state,omitempty"`
	ClaimStatus         ClaimStatus      `json:"claim_status"`
	PublishStatus       PublishStatus    `json:"publish_status"`
	IsActive            bool             `json:"is_active"`
	IsVerified          bool             `json:"is_verified"`
	ActivationStatus    ActivationStatus `json:"activation_status"`
	ActivationThreshold int              `json:"activation_threshold"`
	MemberCapacity      int              `json:"member_capacity"`

	Members        []Member        `json:"members"`
	LeaderRequests []LeaderRequest `json:"leader_requests,omitempty"`
	SetupProgress  *SetupProgress  `json:"setup_progress,omitempty"`
	Tabs           []Tab           `json:"tabs,omitempty"`
	Widgets        []Widget        `json:"widgets,omitempty"`
	PlacedTools    []PlacedTool    `json:"placed_tools,omitempty"`

	PostCount     int     `json:"post_count"`
	TrendingScore float64 `json:"trending_score"`

	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`
	ClaimedAt      *time.Time `json:"claimed_at,omitempty"`
	WentLiveAt     *time.Time `json:"went_live_at,omitempty"`
	ActivatedAt    *time.Time `json:"activated_at,omitempty"`

	// Version supports the store's optimistic concurrency; bumped per commit.
	Version int64 `json:"version"`

	// Derived projections filled by ToData for transport; ignored on hydrate.
	IsStealth               bool `json:"is_stealth"`
	IsClaimed               bool `json:"is_claimed"`
	SetupProgressPercentage int  `json:"setup_progress_percentage"`
}

// AuditEntry is a persisted record of one emitted domain event.
type AuditEntry struct {
	ID         string    `json:"id"`
	SpaceID    string    `json:"space_id"`
	EventType  string    `json:"event_type"`
	Fields     []string  `json:"fields,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
