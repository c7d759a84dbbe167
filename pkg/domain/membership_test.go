package domain

import (
	"strings"
	"testing"
)

func TestAddMemberValidation(t *testing.T) {
	s := newTestSpace(t)
	if err := s.AddMember("", ""); err == nil {
		t.Fatalf("expected empty profile rejection")
	}
	if err := s.AddMember("p1", RoleOwner); err == nil {
		t.Fatalf("expected owner role rejection")
	}
	if err := s.AddMember("p1", ""); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if err := s.AddMember("p1", ""); err == nil {
		t.Fatalf("expected duplicate member rejection")
	}
}

func TestMemberCapacity(t *testing.T) {
	s, err := NewSpace(CreateSpaceInput{SpaceID: "sp-cap", Name: "Tiny", MemberCapacity: 2})
	if err != nil {
		t.Fatalf("new space: %v", err)
	}
	if err := s.AddMember("p1", ""); err != nil {
		t.Fatalf("add p1: %v", err)
	}
	if err := s.AddMember("p2", ""); err != nil {
		t.Fatalf("add p2: %v", err)
	}
	if err := s.AddMember("p3", ""); err == nil {
		t.Fatalf("expected capacity rejection")
	}
}

func TestRemoveMemberGuards(t *testing.T) {
	s := newClaimedSpace(t)
	if err := s.AddMember("p1", ""); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if err := s.RemoveMember("owner-1"); err == nil {
		t.Fatalf("expected owner removal rejection")
	}
	if err := s.RemoveMember("ghost"); err == nil {
		t.Fatalf("expected unknown member rejection")
	}
	if err := s.RemoveMember("p1"); err != nil {
		t.Fatalf("remove member: %v", err)
	}
	if len(s.Members()) != 1 {
		t.Fatalf("expected 1 member left, got %d", len(s.Members()))
	}
}

func TestUpdateMemberRole(t *testing.T) {
	s := newClaimedSpace(t)
	if err := s.AddMember("p1", ""); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if err := s.UpdateMemberRole("p1", RoleOwner); err == nil {
		t.Fatalf("expected owner assignment rejection")
	}
	if err := s.UpdateMemberRole("p1", "captain"); err == nil {
		t.Fatalf("expected unknown role rejection")
	}
	if err := s.UpdateMemberRole("owner-1", RoleMember); err == nil {
		t.Fatalf("expected owner demotion rejection")
	}
	if err := s.UpdateMemberRole("p1", RoleModerator); err != nil {
		t.Fatalf("update role: %v", err)
	}
	for _, m := range s.Members() {
		if m.ProfileID == "p1" && m.Role != RoleModerator {
			t.Fatalf("role not applied: %s", m.Role)
		}
	}
}

func TestTransferOwnership(t *testing.T) {
	s := newClaimedSpace(t)
	err := s.TransferOwnership("outsider")
	if err == nil {
		t.Fatalf("expected non-member transfer rejection")
	}
	if !strings.Contains(err.Error(), "New owner must be a member of the space") {
		t.Fatalf("unexpected transfer message: %v", err)
	}
	if err := s.AddMember("p1", ""); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if err := s.TransferOwnership("p1"); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	roles := map[string]MemberRole{}
	for _, m := range s.Members() {
		roles[m.ProfileID] = m.Role
	}
	if roles["p1"] != RoleOwner {
		t.Fatalf("new owner role: %s", roles["p1"])
	}
	if roles["owner-1"] != RoleAdmin {
		t.Fatalf("previous owner must be demoted to admin, got %s", roles["owner-1"])
	}
	if err := s.TransferOwnership("p1"); err == nil {
		t.Fatalf("expected transfer to current owner rejection")
	}
}

func TestClaim(t *testing.T) {
	s := newTestSpace(t)
	if err := s.Claim("owner-1"); err != nil {
		t.Fatalf("claim: %v", err)
	}
	doc := s.ToData()
	if doc.ClaimStatus != ClaimClaimed || !doc.IsVerified || doc.ClaimedAt == nil {
		t.Fatalf("claim state incomplete: %+v", doc)
	}
	if doc.SetupProgress == nil {
		t.Fatalf("setup progress not initialized")
	}
	if s.LifecycleState() != StateClaimed {
		t.Fatalf("lifecycle after claim: %s", s.LifecycleState())
	}
	if err := s.Claim("someone-else"); err == nil {
		t.Fatalf("expected double claim rejection")
	}
}

func TestClaimRequestFlow(t *testing.T) {
	s := newTestSpace(t)
	if err := s.SubmitClaimRequest("claimant", "president", "email", "https://proof"); err != nil {
		t.Fatalf("submit claim: %v", err)
	}
	// Provisional access is granted immediately.
	if !s.IsClaimed() {
		t.Fatalf("claimant must hold provisional ownership")
	}
	if s.ToData().IsVerified {
		t.Fatalf("space must not be verified before review")
	}
	reqs := s.LeaderRequests()
	if len(reqs) != 1 || !reqs[0].ProvisionalAccessGranted {
		t.Fatalf("provisional flag missing: %+v", reqs)
	}
	if err := s.SubmitClaimRequest("other", "", "", ""); err == nil {
		t.Fatalf("expected claim on claimed space rejection")
	}
	if err := s.VerifyClaimRequest("claimant", "reviewer-1"); err != nil {
		t.Fatalf("verify: %v", err)
	}
	doc := s.ToData()
	if !doc.IsVerified {
		t.Fatalf("expected verified after review")
	}
	reqs = s.LeaderRequests()
	if reqs[0].Status != RequestApproved || reqs[0].ReviewedBy == nil {
		t.Fatalf("request not approved: %+v", reqs[0])
	}
	if err := s.VerifyClaimRequest("claimant", "reviewer-1"); err == nil {
		t.Fatalf("expected no pending request error")
	}
}

func TestLeaderRequestFlow(t *testing.T) {
	s := newClaimedSpace(t)
	if err := s.AddMember("member-1", ""); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if err := s.RequestToLead("owner-1", "", "", ""); err == nil {
		t.Fatalf("expected leader request by owner rejection")
	}
	if err := s.RequestToLead("member-1", "events lead", "email", ""); err != nil {
		t.Fatalf("request to lead: %v", err)
	}
	if err := s.RequestToLead("member-1", "", "", ""); err == nil {
		t.Fatalf("expected duplicate pending request rejection")
	}
	if err := s.ApproveLeaderRequest("member-1", "member-1"); err == nil {
		t.Fatalf("expected non-leader approver rejection")
	}
	if err := s.ApproveLeaderRequest("member-1", "owner-1"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	for _, m := range s.Members() {
		if m.ProfileID == "member-1" && m.Role != RoleAdmin {
			t.Fatalf("approved leader must be admin, got %s", m.Role)
		}
	}
	if sp := s.SetupProgress(); sp == nil || !sp.CoLeaderInvited {
		t.Fatalf("co-leader milestone not set")
	}
}

func TestRejectLeaderRequest(t *testing.T) {
	s := newClaimedSpace(t)
	if err := s.AddMember("member-1", ""); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if err := s.RequestToLead("member-1", "", "", ""); err != nil {
		t.Fatalf("request: %v", err)
	}
	if err := s.RejectLeaderRequest("member-1", "owner-1", "not yet"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	reqs := s.LeaderRequests()
	if reqs[0].Status != RequestRejected || reqs[0].RejectionReason == nil {
		t.Fatalf("rejection not recorded: %+v", reqs[0])
	}
	// A rejected requester may ask again.
	if err := s.RequestToLead("member-1", "", "", ""); err != nil {
		t.Fatalf("second request: %v", err)
	}
}
