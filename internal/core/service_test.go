package core

import (
	"context"
	"fmt"
	"testing"

	"spacecore/internal/infra/persistence/memory"
	"spacecore/pkg/domain"
)

type captureSink struct {
	events []domain.Event
}

func (c *captureSink) Publish(events []domain.Event) {
	c.events = append(c.events, events...)
}

func newTestService(t *testing.T, opts ...ServiceOption) (*SpaceService, *memory.Store) {
	t.Helper()
	store := memory.NewStore(NewDefaultRulesEngine())
	coord := NewCoordinator(store, WithSleep(noSleep))
	seq := 0
	base := []ServiceOption{WithIDGenerator(func() string {
		seq++
		return fmt.Sprintf("id-%04d", seq)
	})}
	return NewSpaceService(store, coord, append(base, opts...)...), store
}

func TestServiceCreateSpaceDeploysSystemTools(t *testing.T) {
	svc, store := newTestService(t)
	doc, err := svc.CreateSpace(context.Background(), domain.CreateSpaceInput{Name: "Robotics", SpaceType: "course"})
	if err != nil {
		t.Fatalf("create space: %v", err)
	}
	if doc.SpaceID == "" {
		t.Fatalf("expected generated id")
	}
	if len(doc.PlacedTools) != 2 {
		t.Fatalf("expected 2 system tools for a course space, got %d", len(doc.PlacedTools))
	}
	for _, pt := range doc.PlacedTools {
		if !pt.SystemManaged || !pt.Locked {
			t.Fatalf("system placement flags: %+v", pt)
		}
	}
	entries := store.ListAuditEntries(doc.SpaceID)
	if len(entries) == 0 {
		t.Fatalf("expected audit trail from creation")
	}
	var sawCreated bool
	for _, e := range entries {
		if e.EventType == string(domain.EventSpaceCreated) {
			sawCreated = true
		}
	}
	if !sawCreated {
		t.Fatalf("creation event missing from audit trail")
	}
}

func TestServiceAutoDeploySystemToolsSkipsExisting(t *testing.T) {
	svc, _ := newTestService(t)
	doc, err := svc.CreateSpace(context.Background(), domain.CreateSpaceInput{Name: "Robotics", SpaceType: "course"})
	if err != nil {
		t.Fatalf("create space: %v", err)
	}
	if len(doc.PlacedTools) != 2 {
		t.Fatalf("expected 2 system tools, got %d", len(doc.PlacedTools))
	}

	// Re-running the deploy must be a no-op for already-placed tools.
	after, err := svc.AutoDeploySystemTools(context.Background(), doc.SpaceID)
	if err != nil {
		t.Fatalf("auto deploy: %v", err)
	}
	if len(after.PlacedTools) != 2 {
		t.Fatalf("redeploy duplicated tools: %d", len(after.PlacedTools))
	}

	// A typeless space only carries the universal set.
	bare, err := svc.CreateSpace(context.Background(), domain.CreateSpaceInput{Name: "Empty"})
	if err != nil {
		t.Fatalf("create bare space: %v", err)
	}
	filled, err := svc.AutoDeploySystemTools(context.Background(), bare.SpaceID)
	if err != nil {
		t.Fatalf("auto deploy bare: %v", err)
	}
	if len(filled.PlacedTools) != 1 {
		t.Fatalf("expected events board only, got %d", len(filled.PlacedTools))
	}
}

func TestServiceMutateRecordsAuditAndPublishes(t *testing.T) {
	sink := &captureSink{}
	svc, store := newTestService(t, WithEventSink(sink))
	doc, err := svc.CreateSpace(context.Background(), domain.CreateSpaceInput{Name: "Jazz Band"})
	if err != nil {
		t.Fatalf("create space: %v", err)
	}
	updated, err := svc.Claim(context.Background(), doc.SpaceID, "owner-1")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if !updated.IsClaimed {
		t.Fatalf("claim not applied")
	}
	var sawClaim bool
	for _, ev := range sink.events {
		if ev.Type == domain.EventSpaceClaimed {
			sawClaim = true
		}
	}
	if !sawClaim {
		t.Fatalf("claim event not published")
	}
	var audited bool
	for _, e := range store.ListAuditEntries(doc.SpaceID) {
		if e.EventType == string(domain.EventSpaceClaimed) {
			audited = true
		}
	}
	if !audited {
		t.Fatalf("claim event not audited")
	}
}

func TestServiceMutateRollsBackOnRuleError(t *testing.T) {
	sink := &captureSink{}
	svc, store := newTestService(t, WithEventSink(sink))
	doc, err := svc.CreateSpace(context.Background(), domain.CreateSpaceInput{Name: "Debate"})
	if err != nil {
		t.Fatalf("create space: %v", err)
	}
	published := len(sink.events)
	audited := len(store.ListAuditEntries(doc.SpaceID))
	if _, err := svc.GoLive(context.Background(), doc.SpaceID); err == nil {
		t.Fatalf("expected go-live on seeded space to fail")
	}
	if len(sink.events) != published {
		t.Fatalf("events published from failed mutation")
	}
	if len(store.ListAuditEntries(doc.SpaceID)) != audited {
		t.Fatalf("audit entries written from failed mutation")
	}
}

func TestServiceGetAndList(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	doc, err := svc.CreateSpace(ctx, domain.CreateSpaceInput{Name: "Archery"})
	if err != nil {
		t.Fatalf("create space: %v", err)
	}
	got, err := svc.GetSpace(ctx, doc.SpaceID)
	if err != nil || got.Name != "Archery" {
		t.Fatalf("get space: %v %+v", err, got)
	}
	if _, err := svc.GetSpace(ctx, "missing"); err == nil {
		t.Fatalf("expected not-found error")
	}
	if len(svc.ListSpaces(ctx)) != 1 {
		t.Fatalf("list spaces mismatch")
	}
}

func TestServiceDeleteSpaceCascadesAudit(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	doc, err := svc.CreateSpace(ctx, domain.CreateSpaceInput{Name: "Chemistry"})
	if err != nil {
		t.Fatalf("create space: %v", err)
	}
	if _, err := svc.Claim(ctx, doc.SpaceID, "owner-1"); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if _, err := svc.AddMember(ctx, doc.SpaceID, "member-1", ""); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if len(store.ListAuditEntries(doc.SpaceID)) == 0 {
		t.Fatalf("expected audit entries before delete")
	}
	if err := svc.DeleteSpace(ctx, doc.SpaceID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := store.GetSpace(doc.SpaceID); ok {
		t.Fatalf("space still present")
	}
	if left := store.ListAuditEntries(doc.SpaceID); len(left) != 0 {
		t.Fatalf("audit entries not purged: %d left", len(left))
	}
	if err := svc.DeleteSpace(ctx, doc.SpaceID); err == nil {
		t.Fatalf("expected delete of missing space to fail")
	}
}

func TestServiceOwnershipFlow(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	doc, err := svc.CreateSpace(ctx, domain.CreateSpaceInput{Name: "Film Society"})
	if err != nil {
		t.Fatalf("create space: %v", err)
	}
	if _, err := svc.SubmitClaimRequest(ctx, doc.SpaceID, "claimant", "president", "email", "https://proof"); err != nil {
		t.Fatalf("submit claim: %v", err)
	}
	updated, err := svc.VerifyClaimRequest(ctx, doc.SpaceID, "claimant", "reviewer-1")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !updated.IsVerified {
		t.Fatalf("space not verified after review")
	}
	if _, err := svc.AddMember(ctx, doc.SpaceID, "member-1", ""); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if _, err := svc.TransferOwnership(ctx, doc.SpaceID, "member-1"); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	final, err := svc.GetSpace(ctx, doc.SpaceID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	roles := map[string]domain.MemberRole{}
	for _, m := range final.Members {
		roles[m.ProfileID] = m.Role
	}
	if roles["member-1"] != domain.RoleOwner || roles["claimant"] != domain.RoleAdmin {
		t.Fatalf("roles after transfer: %v", roles)
	}
}

func TestServicePlaceToolGeneratesID(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	doc, err := svc.CreateSpace(ctx, domain.CreateSpaceInput{Name: "Esports"})
	if err != nil {
		t.Fatalf("create space: %v", err)
	}
	updated, err := svc.PlaceTool(ctx, doc.SpaceID, domain.PlacementInput{
		ToolID:   "tournament-bracket",
		Location: domain.PlacementSidebar,
		Order:    -1,
	})
	if err != nil {
		t.Fatalf("place tool: %v", err)
	}
	var found bool
	for _, pt := range updated.PlacedTools {
		if pt.ToolID == "tournament-bracket" && pt.ID != "" {
			found = true
		}
	}
	if !found {
		t.Fatalf("placement not recorded: %+v", updated.PlacedTools)
	}
}

func TestSystemToolRegistry(t *testing.T) {
	reg := DefaultSystemToolRegistry()
	club := reg.ToolsFor("club")
	if len(club) != 1 || club[0].ToolID != "system.events-board" {
		t.Fatalf("club tools: %+v", club)
	}
	course := reg.ToolsFor("course")
	if len(course) != 2 {
		t.Fatalf("course tools: %+v", course)
	}
	reg.Register("dorm", SystemTool{ToolID: "system.roommate-board", Location: domain.PlacementInline, Order: 1})
	if got := reg.ToolsFor("dorm"); len(got) != 2 {
		t.Fatalf("dorm tools: %+v", got)
	}
}
