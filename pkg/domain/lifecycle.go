package domain

// lifecycleTransitions is the authoritative transition table. Archived is
// terminal. Pending may fall back to claimed when a launch is rejected.
var lifecycleTransitions = map[LifecycleState]map[LifecycleState]struct{}{
	StateSeeded:    toSet(StateClaimed),
	StateClaimed:   toSet(StatePending, StateLive),
	StatePending:   toSet(StateLive, StateClaimed),
	StateLive:      toSet(StateSuspended, StateArchived),
	StateSuspended: toSet(StateLive, StateArchived),
	StateArchived:  {},
}

func toSet(states ...LifecycleState) map[LifecycleState]struct{} {
	set := make(map[LifecycleState]struct{}, len(states))
	for _, s := range states {
		set[s] = struct{}{}
	}
	return set
}

// ValidLifecycleState reports whether s is a known lifecycle state.
func ValidLifecycleState(s LifecycleState) bool {
	_, ok := lifecycleTransitions[s]
	return ok
}

// CanTransition reports whether the lifecycle table allows from -> to.
func CanTransition(from, to LifecycleState) bool {
	targets, ok := lifecycleTransitions[from]
	if !ok {
		return false
	}
	_, ok = targets[to]
	return ok
}

// DeriveLifecycleState computes the lifecycle state from the legacy fields of
// documents written before the explicit state column existed. The precedence
// order is load-bearing: archived wins over everything, then live, then
// pending, then claimed. Legacy documents cannot represent suspension.
func DeriveLifecycleState(isActive bool, publish PublishStatus, activation ActivationStatus, hasOwner bool) LifecycleState {
	switch {
	case !isActive:
		return StateArchived
	case publish == PublishLive && activation == ActivationOpen:
		return StateLive
	case activation == ActivationGathering:
		return StatePending
	case hasOwner:
		return StateClaimed
	default:
		return StateSeeded
	}
}

// LifecycleState resolves the space's current state, deriving it from legacy
// fields when the document predates explicit storage. Evaluated on every
// read, never cached.
func (s *Space) LifecycleState() LifecycleState {
	if s.doc.LifecycleState != "" {
		return s.doc.LifecycleState
	}
	return DeriveLifecycleState(s.doc.IsActive, s.doc.PublishStatus, s.doc.ActivationStatus, s.hasOwner())
}

// CanTransitionTo reports whether the space may move to target.
func (s *Space) CanTransitionTo(target LifecycleState) bool {
	return CanTransition(s.LifecycleState(), target)
}

// TransitionTo moves the space to target, synchronizing the legacy claim,
// publish and activation fields to the new state's canonical meaning and
// emitting a LifecycleChanged event.
func (s *Space) TransitionTo(target LifecycleState) error {
	from := s.LifecycleState()
	if !ValidLifecycleState(target) {
		return NewRuleError("transition", "unknown lifecycle state %q", target)
	}
	if !CanTransition(from, target) {
		return NewRuleError("transition", "cannot transition space from %s to %s", from, target)
	}
	s.applyLifecycle(target)
	s.emit(EventLifecycleChanged, string(from), string(target))
	return nil
}

// applyLifecycle sets the state and synchronizes legacy fields.
func (s *Space) applyLifecycle(target LifecycleState) {
	s.doc.LifecycleState = target
	switch target {
	case StateSeeded:
		s.doc.IsActive = true
		s.doc.ClaimStatus = ClaimUnclaimed
		s.doc.PublishStatus = PublishStealth
		s.recomputeActivation()
	case StateClaimed:
		s.doc.IsActive = true
		s.doc.ClaimStatus = ClaimClaimed
		s.doc.PublishStatus = PublishStealth
		s.doc.ActivationStatus = ActivationOpen
	case StatePending:
		s.doc.IsActive = true
		s.doc.ClaimStatus = ClaimClaimed
		s.doc.PublishStatus = PublishStealth
		s.doc.ActivationStatus = ActivationGathering
	case StateLive:
		s.doc.IsActive = true
		s.doc.ClaimStatus = ClaimClaimed
		s.doc.PublishStatus = PublishLive
		s.doc.ActivationStatus = ActivationOpen
	case StateSuspended:
		s.doc.IsActive = false
	case StateArchived:
		s.doc.IsActive = false
	}
	s.touch()
}

// GoLive launches a stealth space: it flips the publish flag, stamps
// wentLiveAt, marks the space verified, and emits both the generic status
// change and the dedicated went-live event.
func (s *Space) GoLive() error {
	if s.doc.PublishStatus != PublishStealth {
		return NewRuleError("go_live", "space is already live")
	}
	from := s.LifecycleState()
	if !CanTransition(from, StateLive) {
		return NewRuleError("go_live", "cannot go live from %s", from)
	}
	s.applyLifecycle(StateLive)
	now := s.now()
	s.doc.WentLiveAt = &now
	s.doc.IsVerified = true
	s.emit(EventStatusChanged, string(from), string(StateLive))
	s.emit(EventSpaceWentLive, "went_live_at")
	return nil
}

// Reject sends a pending launch back to claimed stealth, stamping the
// reviewer and optional reason on the requester's pending claim request.
func (s *Space) Reject(reviewerID, reason string) error {
	from := s.LifecycleState()
	if from != StatePending {
		return NewRuleError("reject", "only pending spaces can be rejected, space is %s", from)
	}
	s.applyLifecycle(StateClaimed)
	now := s.now()
	for i := range s.doc.LeaderRequests {
		req := &s.doc.LeaderRequests[i]
		if req.Status != RequestPending {
			continue
		}
		req.Status = RequestRejected
		req.ReviewedBy = &reviewerID
		req.ReviewedAt = &now
		if reason != "" {
			req.RejectionReason = &reason
		}
	}
	s.emit(EventLifecycleChanged, string(from), string(StateClaimed))
	return nil
}

// ResetToStealth withdraws a pending launch without a rejection verdict.
func (s *Space) ResetToStealth() error {
	from := s.LifecycleState()
	if from != StatePending {
		return NewRuleError("reset_to_stealth", "only pending spaces can be reset, space is %s", from)
	}
	s.applyLifecycle(StateClaimed)
	s.emit(EventLifecycleChanged, string(from), string(StateClaimed))
	return nil
}
