package domain

// AddMember admits a profile with the given role (member when empty). The
// founding flag is set when the space is still below quorum at join time.
func (s *Space) AddMember(profileID string, role MemberRole) error {
	if profileID == "" {
		return NewRuleError("add_member", "profile id is required")
	}
	if role == "" {
		role = RoleMember
	}
	if role == RoleOwner {
		return NewRuleError("add_member", "owners are assigned through claim or ownership transfer")
	}
	if _, ok := s.findMember(profileID); ok {
		return NewRuleError("add_member", "profile %s is already a member", profileID)
	}
	capacity := s.doc.MemberCapacity
	if capacity <= 0 {
		capacity = DefaultMemberCapacity
	}
	if len(s.doc.Members) >= capacity {
		return NewRuleError("add_member", "space is at member capacity (%d)", capacity)
	}
	founding := s.doc.ActivationStatus != ActivationOpen
	s.doc.Members = append(s.doc.Members, Member{
		ProfileID:        profileID,
		Role:             role,
		JoinedAt:         s.now(),
		IsFoundingMember: founding,
	})
	s.touch()
	s.emit(EventMemberAdded, "members")
	if s.UpdateActivationStatus() && s.doc.ActivationStatus == ActivationOpen {
		if s.doc.SetupProgress != nil && len(s.doc.Members) >= s.doc.ActivationThreshold {
			s.doc.SetupProgress.MemberTargetReached = true
		}
	}
	return nil
}

// RemoveMember drops a profile from the space. The owner cannot be removed,
// and the last remaining admin-level member cannot be removed either.
func (s *Space) RemoveMember(profileID string) error {
	idx, ok := s.findMember(profileID)
	if !ok {
		return NewRuleError("remove_member", "profile %s is not a member", profileID)
	}
	target := s.doc.Members[idx]
	if target.Role == RoleOwner {
		return NewRuleError("remove_member", "the space owner cannot be removed; transfer ownership first")
	}
	if target.Role == RoleAdmin && s.leadershipCount() == 1 {
		return NewRuleError("remove_member", "cannot remove the last admin")
	}
	s.doc.Members = append(s.doc.Members[:idx], s.doc.Members[idx+1:]...)
	s.touch()
	s.emit(EventMemberRemoved, "members")
	s.UpdateActivationStatus()
	return nil
}

// UpdateMemberRole changes a member's role. Ownership is out of reach here:
// the owner role can neither be assigned nor taken away except through
// TransferOwnership.
func (s *Space) UpdateMemberRole(profileID string, role MemberRole) error {
	if role == RoleOwner {
		return NewRuleError("update_role", "ownership changes only via transfer")
	}
	if !validAssignableRole(role) {
		return NewRuleError("update_role", "unknown role %q", role)
	}
	idx, ok := s.findMember(profileID)
	if !ok {
		return NewRuleError("update_role", "profile %s is not a member", profileID)
	}
	current := s.doc.Members[idx]
	if current.Role == RoleOwner {
		return NewRuleError("update_role", "the owner role cannot be changed here")
	}
	if current.Role == RoleAdmin && role != RoleAdmin && s.leadershipCount() == 1 {
		return NewRuleError("update_role", "cannot demote the last admin")
	}
	if current.Role == role {
		return nil
	}
	s.doc.Members[idx].Role = role
	s.touch()
	s.emit(EventMemberRoleChanged, "members")
	return nil
}

// TransferOwnership hands the space to an existing member, demoting the
// current owner to admin so the space is never left owner-less.
func (s *Space) TransferOwnership(newOwnerID string) error {
	idx, ok := s.findMember(newOwnerID)
	if !ok {
		return NewRuleError("transfer_ownership", "New owner must be a member of the space")
	}
	if s.doc.Members[idx].Role == RoleOwner {
		return NewRuleError("transfer_ownership", "profile %s already owns the space", newOwnerID)
	}
	for i := range s.doc.Members {
		if s.doc.Members[i].Role == RoleOwner {
			s.doc.Members[i].Role = RoleAdmin
		}
	}
	s.doc.Members[idx].Role = RoleOwner
	s.touch()
	s.emit(EventOwnershipTransferred, "members")
	return nil
}

// Claim makes a verified profile the owner of an unclaimed space, bypassing
// quorum: claimed spaces are always open.
func (s *Space) Claim(profileID string) error {
	if profileID == "" {
		return NewRuleError("claim", "profile id is required")
	}
	if s.isClaimed() {
		return NewRuleError("claim", "space is already claimed")
	}
	if err := s.grantOwnership(profileID); err != nil {
		return err
	}
	s.doc.IsVerified = true
	s.emit(EventSpaceClaimed, "members", "lifecycle_state")
	return nil
}

// SubmitClaimRequest files a claim on an unclaimed space and immediately
// grants provisional owner access so the claimant can configure before
// verification completes. Verification later only upgrades trust; it never
// gates this initial access.
func (s *Space) SubmitClaimRequest(profileID, role, proofType, proofURL string) error {
	if profileID == "" {
		return NewRuleError("submit_claim", "profile id is required")
	}
	if s.isClaimed() {
		return NewRuleError("submit_claim", "space is already claimed")
	}
	if s.pendingRequest(profileID) != nil {
		return NewRuleError("submit_claim", "profile %s already has a pending request", profileID)
	}
	s.doc.LeaderRequests = append(s.doc.LeaderRequests, LeaderRequest{
		ProfileID:                profileID,
		RequestedAt:              s.now(),
		Status:                   RequestPending,
		Role:                     role,
		ProofType:                proofType,
		ProofURL:                 proofURL,
		ProvisionalAccessGranted: true,
	})
	if err := s.grantOwnership(profileID); err != nil {
		return err
	}
	s.emit(EventClaimRequested, "leader_requests", "members", "lifecycle_state")
	return nil
}

// VerifyClaimRequest approves the pending claim of profileID, stamping the
// reviewer and marking the space verified. Access is unchanged: provisional
// owners were already owners.
func (s *Space) VerifyClaimRequest(profileID, reviewerID string) error {
	req := s.pendingRequest(profileID)
	if req == nil {
		return NewRuleError("verify_claim", "no pending claim request for profile %s", profileID)
	}
	now := s.now()
	req.Status = RequestApproved
	req.ReviewedBy = &reviewerID
	req.ReviewedAt = &now
	s.doc.IsVerified = true
	s.touch()
	s.emit(EventClaimVerified, "leader_requests", "is_verified")
	return nil
}

// RequestToLead files a leadership request on a claimed space.
func (s *Space) RequestToLead(profileID, role, proofType, proofURL string) error {
	if idx, ok := s.findMember(profileID); ok {
		switch s.doc.Members[idx].Role {
		case RoleOwner, RoleAdmin:
			return NewRuleError("request_to_lead", "profile %s already leads this space", profileID)
		}
	}
	if s.pendingRequest(profileID) != nil {
		return NewRuleError("request_to_lead", "profile %s already has a pending request", profileID)
	}
	s.doc.LeaderRequests = append(s.doc.LeaderRequests, LeaderRequest{
		ProfileID:   profileID,
		RequestedAt: s.now(),
		Status:      RequestPending,
		Role:        role,
		ProofType:   proofType,
		ProofURL:    proofURL,
	})
	s.touch()
	s.emit(EventLeaderRequested, "leader_requests")
	return nil
}

// ApproveLeaderRequest promotes the requester to admin. The approver must be
// the owner or an admin.
func (s *Space) ApproveLeaderRequest(profileID, approverID string) error {
	if !s.canReview(approverID) {
		return NewRuleError("approve_leader", "profile %s may not review leader requests", approverID)
	}
	req := s.pendingRequest(profileID)
	if req == nil {
		return NewRuleError("approve_leader", "no pending leader request for profile %s", profileID)
	}
	now := s.now()
	req.Status = RequestApproved
	req.ReviewedBy = &approverID
	req.ReviewedAt = &now
	if idx, ok := s.findMember(profileID); ok {
		if s.doc.Members[idx].Role != RoleOwner {
			s.doc.Members[idx].Role = RoleAdmin
		}
	} else {
		s.doc.Members = append(s.doc.Members, Member{
			ProfileID:        profileID,
			Role:             RoleAdmin,
			JoinedAt:         now,
			IsFoundingMember: s.doc.ActivationStatus != ActivationOpen,
		})
		s.UpdateActivationStatus()
	}
	if s.doc.SetupProgress != nil {
		s.doc.SetupProgress.CoLeaderInvited = true
	}
	s.touch()
	s.emit(EventLeaderApproved, "leader_requests", "members")
	return nil
}

// RejectLeaderRequest declines a pending request with an optional reason.
func (s *Space) RejectLeaderRequest(profileID, reviewerID, reason string) error {
	if !s.canReview(reviewerID) {
		return NewRuleError("reject_leader", "profile %s may not review leader requests", reviewerID)
	}
	req := s.pendingRequest(profileID)
	if req == nil {
		return NewRuleError("reject_leader", "no pending leader request for profile %s", profileID)
	}
	now := s.now()
	req.Status = RequestRejected
	req.ReviewedBy = &reviewerID
	req.ReviewedAt = &now
	if reason != "" {
		req.RejectionReason = &reason
	}
	s.touch()
	s.emit(EventLeaderRejected, "leader_requests")
	return nil
}

// LeaderRequests returns a copy of all requests for inspection.
func (s *Space) LeaderRequests() []LeaderRequest {
	out := make([]LeaderRequest, len(s.doc.LeaderRequests))
	for i, req := range s.doc.LeaderRequests {
		out[i] = cloneLeaderRequest(req)
	}
	return out
}

// Members returns a copy of the membership list.
func (s *Space) Members() []Member {
	return append([]Member(nil), s.doc.Members...)
}

// grantOwnership installs profileID as owner, moves the lifecycle to
// claimed stealth, and initializes setup progress.
func (s *Space) grantOwnership(profileID string) error {
	if idx, ok := s.findMember(profileID); ok {
		s.doc.Members[idx].Role = RoleOwner
	} else {
		s.doc.Members = append(s.doc.Members, Member{
			ProfileID:        profileID,
			Role:             RoleOwner,
			JoinedAt:         s.now(),
			IsFoundingMember: true,
		})
	}
	now := s.now()
	s.doc.ClaimedAt = &now
	if s.doc.SetupProgress == nil {
		s.doc.SetupProgress = &SetupProgress{}
	}
	s.applyLifecycle(StateClaimed)
	return nil
}

func (s *Space) leadershipCount() int {
	count := 0
	for _, m := range s.doc.Members {
		if m.Role == RoleOwner || m.Role == RoleAdmin {
			count++
		}
	}
	return count
}

func (s *Space) canReview(profileID string) bool {
	idx, ok := s.findMember(profileID)
	if !ok {
		return false
	}
	role := s.doc.Members[idx].Role
	return role == RoleOwner || role == RoleAdmin
}

func (s *Space) pendingRequest(profileID string) *LeaderRequest {
	for i := range s.doc.LeaderRequests {
		if s.doc.LeaderRequests[i].ProfileID == profileID && s.doc.LeaderRequests[i].Status == RequestPending {
			return &s.doc.LeaderRequests[i]
		}
	}
	return nil
}

func validAssignableRole(role MemberRole) bool {
	switch role {
	case RoleAdmin, RoleModerator, RoleMember, RoleGuest:
		return true
	default:
		return false
	}
}
