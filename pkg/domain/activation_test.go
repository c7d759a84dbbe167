package domain

import (
	"fmt"
	"testing"
)

func TestDeriveActivationStatus(t *testing.T) {
	cases := []struct {
		members, threshold int
		claimed            bool
		want               ActivationStatus
	}{
		{0, 5, false, ActivationGhost},
		{1, 5, false, ActivationGathering},
		{4, 5, false, ActivationGathering},
		{5, 5, false, ActivationOpen},
		{10, 5, false, ActivationOpen},
		{0, 5, true, ActivationOpen},
		{0, 0, false, ActivationGhost},
		{1, 0, false, ActivationOpen}, // zero threshold falls back to the default of 1
	}
	for _, tc := range cases {
		got := DeriveActivationStatus(tc.members, tc.threshold, tc.claimed)
		if got != tc.want {
			t.Fatalf("derive(%d, %d, %v): got %s want %s", tc.members, tc.threshold, tc.claimed, got, tc.want)
		}
	}
}

func TestQuorumProgressionFiresOnce(t *testing.T) {
	s, err := NewSpace(CreateSpaceInput{SpaceID: "sp-q", Name: "Quorum", ActivationThreshold: 3})
	if err != nil {
		t.Fatalf("new space: %v", err)
	}
	if s.ActivationStatus() != ActivationGhost {
		t.Fatalf("expected ghost at creation, got %s", s.ActivationStatus())
	}
	for i := 1; i <= 2; i++ {
		if err := s.AddMember(fmt.Sprintf("p%d", i), ""); err != nil {
			t.Fatalf("add member %d: %v", i, err)
		}
		if s.JustActivated() {
			t.Fatalf("activated below quorum at %d members", i)
		}
	}
	if s.ActivationStatus() != ActivationGathering {
		t.Fatalf("expected gathering below quorum, got %s", s.ActivationStatus())
	}
	if err := s.AddMember("p3", ""); err != nil {
		t.Fatalf("add member 3: %v", err)
	}
	if !s.JustActivated() {
		t.Fatalf("expected just-activated at quorum")
	}
	if s.ToData().ActivatedAt == nil {
		t.Fatalf("activated_at not stamped")
	}
	// The next membership change must not re-fire the edge.
	if err := s.AddMember("p4", ""); err != nil {
		t.Fatalf("add member 4: %v", err)
	}
	if s.JustActivated() {
		t.Fatalf("activation edge re-fired")
	}
	var activatedEvents int
	for _, ev := range s.Events() {
		if ev.Type == EventSpaceActivated {
			activatedEvents++
		}
	}
	if activatedEvents != 1 {
		t.Fatalf("got %d activation events, want 1", activatedEvents)
	}
}

func TestClaimBypassesQuorum(t *testing.T) {
	s, err := NewSpace(CreateSpaceInput{SpaceID: "sp-c", Name: "Claimed", ActivationThreshold: 10})
	if err != nil {
		t.Fatalf("new space: %v", err)
	}
	if err := s.Claim("owner-1"); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if s.ActivationStatus() != ActivationOpen {
		t.Fatalf("claimed space must be open, got %s", s.ActivationStatus())
	}
	// The claim override is not a quorum crossing.
	if s.JustActivated() {
		t.Fatalf("claim must not fire the activation edge")
	}
}

func TestFoundingMemberFlag(t *testing.T) {
	s, err := NewSpace(CreateSpaceInput{SpaceID: "sp-f", Name: "Founders", ActivationThreshold: 2})
	if err != nil {
		t.Fatalf("new space: %v", err)
	}
	if err := s.AddMember("early", ""); err != nil {
		t.Fatalf("add early: %v", err)
	}
	if err := s.AddMember("quorum", ""); err != nil {
		t.Fatalf("add quorum: %v", err)
	}
	if err := s.AddMember("late", ""); err != nil {
		t.Fatalf("add late: %v", err)
	}
	byID := map[string]Member{}
	for _, m := range s.Members() {
		byID[m.ProfileID] = m
	}
	if !byID["early"].IsFoundingMember || !byID["quorum"].IsFoundingMember {
		t.Fatalf("pre-quorum joiners must be founding members")
	}
	if byID["late"].IsFoundingMember {
		t.Fatalf("post-quorum joiner must not be a founding member")
	}
}
