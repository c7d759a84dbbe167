package domain

// DeriveActivationStatus is the pure quorum derivation: ghost with no
// members, gathering below the threshold, open at or above it. Claimed
// spaces are forced open regardless of headcount; claiming always unlocks
// full community features.
func DeriveActivationStatus(memberCount, threshold int, claimed bool) ActivationStatus {
	if claimed {
		return ActivationOpen
	}
	if threshold <= 0 {
		threshold = DefaultActivationThreshold
	}
	switch {
	case memberCount == 0:
		return ActivationGhost
	case memberCount < threshold:
		return ActivationGathering
	default:
		return ActivationOpen
	}
}

// UpdateActivationStatus recomputes the activation status after a membership
// change and reports whether it moved. Callers use the return value to
// decide whether to fire a just-activated celebration.
func (s *Space) UpdateActivationStatus() bool {
	prev := s.doc.ActivationStatus
	next := DeriveActivationStatus(len(s.doc.Members), s.doc.ActivationThreshold, s.isClaimed())
	if next == prev {
		s.justActivated = false
		return false
	}
	s.doc.ActivationStatus = next
	// Edge-triggered: only the membership change that crosses the quorum
	// counts, not the claim override and not any later re-check.
	s.justActivated = next == ActivationOpen && !s.isClaimed()
	if s.justActivated {
		now := s.now()
		s.doc.ActivatedAt = &now
		s.emit(EventSpaceActivated, "activation_status")
	}
	s.touch()
	return true
}

// JustActivated reports whether the most recent activation update crossed
// the quorum into open. It stays true only until the next recomputation.
func (s *Space) JustActivated() bool {
	return s.justActivated
}

// recomputeActivation refreshes the status without edge tracking, used when
// legacy fields are synchronized by lifecycle changes.
func (s *Space) recomputeActivation() {
	s.doc.ActivationStatus = DeriveActivationStatus(len(s.doc.Members), s.doc.ActivationThreshold, s.isClaimed())
}
