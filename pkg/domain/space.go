package domain

import (
	"strings"
	"time"
)

// Space is the aggregate root: the single unit of consistency for a
// community, its membership, lifecycle, and attached sub-entities. All
// mutation goes through its methods; no method performs I/O.
type Space struct {
	doc           SpaceDocument
	events        []Event
	justActivated bool
	nowFn         func() time.Time
}

// CreateSpaceInput carries the caller-supplied attributes for a new space.
type CreateSpaceInput struct {
	SpaceID             string
	Name                string
	Slug                string
	Description         string
	Category            string
	CampusID            string
	Visibility          Visibility
	IconURL             string
	CoverURL            string
	Source              CreationSource
	SpaceType           string
	Import              ImportMetadata
	ActivationThreshold int
	MemberCapacity      int
}

// NewSpace creates a seeded space aggregate from validated input.
func NewSpace(input CreateSpaceInput) (*Space, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, NewRuleError("create", "space name is required")
	}
	if strings.TrimSpace(input.SpaceID) == "" {
		return nil, NewRuleError("create", "space id is required")
	}
	if input.Visibility == "" {
		input.Visibility = VisibilityPublic
	}
	if input.Source == "" {
		input.Source = SourceUserCreated
	}
	if input.ActivationThreshold <= 0 {
		input.ActivationThreshold = DefaultActivationThreshold
	}
	if input.MemberCapacity <= 0 {
		input.MemberCapacity = DefaultMemberCapacity
	}
	s := &Space{nowFn: func() time.Time { return time.Now().UTC() }}
	now := s.now()
	s.doc = SpaceDocument{
		SpaceID:             input.SpaceID,
		Name:                input.Name,
		Slug:                slugify(firstNonEmpty(input.Slug, input.Name)),
		Description:         input.Description,
		Category:            input.Category,
		CampusID:            input.CampusID,
		Visibility:          input.Visibility,
		IconURL:             input.IconURL,
		CoverURL:            input.CoverURL,
		Source:              input.Source,
		SpaceType:           input.SpaceType,
		Import:              input.Import,
		LifecycleState:      StateSeeded,
		ClaimStatus:         ClaimUnclaimed,
		PublishStatus:       PublishStealth,
		IsActive:            true,
		ActivationStatus:    ActivationGhost,
		ActivationThreshold: input.ActivationThreshold,
		MemberCapacity:      input.MemberCapacity,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	s.emit(EventSpaceCreated, "space_id")
	return s, nil
}

// HydrateSpace reconstructs an aggregate from a persisted document. It is
// the repository-only entry point: it performs no invariant checks so that
// legacy documents load as written. Derived projection fields on the input
// are ignored.
func HydrateSpace(doc SpaceDocument) *Space {
	return &Space{
		doc:   cloneSpaceDocument(doc),
		nowFn: func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the aggregate clock, for tests.
func (s *Space) WithNow(fn func() time.Time) *Space {
	if fn != nil {
		s.nowFn = fn
	}
	return s
}

// ID returns the immutable space identity.
func (s *Space) ID() string { return s.doc.SpaceID }

// IsStealth reports whether the space has not yet launched.
func (s *Space) IsStealth() bool { return s.doc.PublishStatus == PublishStealth }

// IsClaimed reports whether the space has an owner.
func (s *Space) IsClaimed() bool { return s.isClaimed() }

// ActivationStatus returns the current quorum status.
func (s *Space) ActivationStatus() ActivationStatus { return s.doc.ActivationStatus }

// SpaceType returns the space type used for system-tool selection.
func (s *Space) SpaceType() string { return s.doc.SpaceType }

// SetupProgress returns the onboarding milestones, nil until claimed.
func (s *Space) SetupProgress() *SetupProgress {
	if s.doc.SetupProgress == nil {
		return nil
	}
	cp := *s.doc.SetupProgress
	return &cp
}

// MemberCount returns the current membership size.
func (s *Space) MemberCount() int { return len(s.doc.Members) }

// ToData serializes the full aggregate, including derived projections, to a
// plain record for persistence or transport.
func (s *Space) ToData() SpaceDocument {
	doc := cloneSpaceDocument(s.doc)
	doc.IsStealth = s.IsStealth()
	doc.IsClaimed = s.isClaimed()
	if s.doc.SetupProgress != nil {
		doc.SetupProgressPercentage = s.doc.SetupProgress.Percentage()
	}
	return doc
}

// Events returns the events accumulated since hydration.
func (s *Space) Events() []Event {
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// DrainEvents returns accumulated events and clears the buffer. The
// persistence layer drains after a successful commit so that no event is
// observable from a rolled-back transaction.
func (s *Space) DrainEvents() []Event {
	out := s.events
	s.events = nil
	return out
}

// RecordActivity bumps the activity timestamp and post counter.
func (s *Space) RecordActivity(posted bool) {
	now := s.now()
	s.doc.LastActivityAt = &now
	if posted {
		s.doc.PostCount++
	}
	s.touch()
}

// SetTrendingScore replaces the ranking score computed by the feed system.
func (s *Space) SetTrendingScore(score float64) {
	s.doc.TrendingScore = score
	s.touch()
}

// MarkWelcomeMessagePosted records the welcome-message milestone.
func (s *Space) MarkWelcomeMessagePosted() error {
	return s.markMilestone("welcome_message_posted", func(p *SetupProgress) { p.WelcomeMessagePosted = true })
}

// MarkFirstToolDeployed records the first-tool milestone.
func (s *Space) MarkFirstToolDeployed() error {
	return s.markMilestone("first_tool_deployed", func(p *SetupProgress) { p.FirstToolDeployed = true })
}

// MarkCoLeaderInvited records the co-leader milestone.
func (s *Space) MarkCoLeaderInvited() error {
	return s.markMilestone("co_leader_invited", func(p *SetupProgress) { p.CoLeaderInvited = true })
}

// MarkMemberTargetReached records the minimum-members milestone.
func (s *Space) MarkMemberTargetReached() error {
	return s.markMilestone("member_target_reached", func(p *SetupProgress) { p.MemberTargetReached = true })
}

func (s *Space) markMilestone(field string, apply func(*SetupProgress)) error {
	if s.doc.SetupProgress == nil {
		return NewRuleError("setup", "space has not been claimed")
	}
	apply(s.doc.SetupProgress)
	s.touch()
	s.emit(EventMilestoneMarked, field)
	return nil
}

// internal helpers ----------------------------------------------------------

func (s *Space) now() time.Time {
	if s.nowFn == nil {
		return time.Now().UTC()
	}
	return s.nowFn()
}

func (s *Space) touch() {
	s.doc.UpdatedAt = s.now()
}

func (s *Space) emit(t EventType, fields ...string) {
	s.events = append(s.events, Event{
		Type:       t,
		SpaceID:    s.doc.SpaceID,
		Fields:     fields,
		OccurredAt: s.now(),
	})
}

func (s *Space) hasOwner() bool {
	for _, m := range s.doc.Members {
		if m.Role == RoleOwner {
			return true
		}
	}
	return false
}

func (s *Space) isClaimed() bool { return s.hasOwner() }

func (s *Space) owner() (Member, bool) {
	for _, m := range s.doc.Members {
		if m.Role == RoleOwner {
			return m, true
		}
	}
	return Member{}, false
}

func (s *Space) findMember(profileID string) (int, bool) {
	for i, m := range s.doc.Members {
		if m.ProfileID == profileID {
			return i, true
		}
	}
	return -1, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// cloneSpaceDocument deep-copies a document so aggregates never share slices
// or maps with store state.
func cloneSpaceDocument(doc SpaceDocument) SpaceDocument {
	cp := doc
	cp.Members = append([]Member(nil), doc.Members...)
	cp.LeaderRequests = make([]LeaderRequest, len(doc.LeaderRequests))
	for i, req := range doc.LeaderRequests {
		cp.LeaderRequests[i] = cloneLeaderRequest(req)
	}
	if doc.SetupProgress != nil {
		sp := *doc.SetupProgress
		cp.SetupProgress = &sp
	}
	cp.Tabs = make([]Tab, len(doc.Tabs))
	for i, tab := range doc.Tabs {
		cp.Tabs[i] = tab
		cp.Tabs[i].WidgetIDs = append([]string(nil), tab.WidgetIDs...)
	}
	cp.Widgets = make([]Widget, len(doc.Widgets))
	for i, w := range doc.Widgets {
		cp.Widgets[i] = w
		cp.Widgets[i].Config = cloneAnyMap(w.Config)
	}
	cp.PlacedTools = make([]PlacedTool, len(doc.PlacedTools))
	for i, pt := range doc.PlacedTools {
		cp.PlacedTools[i] = clonePlacedTool(pt)
	}
	if doc.Import.SocialLinks != nil {
		links := make(map[string]string, len(doc.Import.SocialLinks))
		for k, v := range doc.Import.SocialLinks {
			links[k] = v
		}
		cp.Import.SocialLinks = links
	}
	cp.ClaimedAt = cloneTime(doc.ClaimedAt)
	cp.WentLiveAt = cloneTime(doc.WentLiveAt)
	cp.ActivatedAt = cloneTime(doc.ActivatedAt)
	cp.LastActivityAt = cloneTime(doc.LastActivityAt)
	return cp
}

func cloneLeaderRequest(req LeaderRequest) LeaderRequest {
	cp := req
	cp.ReviewedBy = cloneString(req.ReviewedBy)
	cp.ReviewedAt = cloneTime(req.ReviewedAt)
	cp.RejectionReason = cloneString(req.RejectionReason)
	return cp
}

func clonePlacedTool(pt PlacedTool) PlacedTool {
	cp := pt
	cp.TabID = cloneString(pt.TabID)
	cp.State = cloneAnyMap(pt.State)
	cp.StateUpdatedAt = cloneTime(pt.StateUpdatedAt)
	return cp
}

func cloneAnyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cp := make(map[string]any, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}

// CloneSpaceDocument exposes the deep copy for stores and tests.
func CloneSpaceDocument(doc SpaceDocument) SpaceDocument { return cloneSpaceDocument(doc) }
