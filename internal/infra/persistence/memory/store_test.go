package memory

import (
	"context"
	"errors"
	"testing"

	"spacecore/pkg/domain"
)

func seedDoc(t *testing.T, id string) domain.SpaceDocument {
	t.Helper()
	space, err := domain.NewSpace(domain.CreateSpaceInput{SpaceID: id, Name: "Test Space"})
	if err != nil {
		t.Fatalf("new space: %v", err)
	}
	return space.ToData()
}

func TestStoreRunInTransactionAndSnapshots(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, ok := tx.FindSpace("missing"); ok {
			t.Fatalf("expected missing space lookup")
		}
		created, err := tx.CreateSpace(seedDoc(t, "sp-1"))
		if err != nil {
			return err
		}
		if created.Version != 1 {
			t.Fatalf("expected version 1, got %d", created.Version)
		}
		view := tx.Snapshot()
		if len(view.ListSpaces()) != 1 {
			t.Fatalf("snapshot mismatch")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("run transaction: %v", err)
	}
	if len(store.ListSpaces()) != 1 {
		t.Fatalf("expected persisted space")
	}
	snapshot := store.ExportState()
	store.ImportState(Snapshot{})
	if len(store.ListSpaces()) != 0 {
		t.Fatalf("expected cleared state")
	}
	store.ImportState(snapshot)
	if len(store.ListSpaces()) != 1 {
		t.Fatalf("expected restored state")
	}
	if store.RulesEngine() == nil {
		t.Fatalf("expected rules engine")
	}
	if store.NowFunc() == nil {
		t.Fatalf("expected now func")
	}
}

func TestTransactionRollbackDiscardsMutations(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateSpace(seedDoc(t, "sp-1"))
		return err
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	boom := errors.New("boom")
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, err := tx.UpdateSpace("sp-1", func(s *domain.Space) error { return s.Claim("owner-1") }); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
	doc, _ := store.GetSpace("sp-1")
	if doc.IsClaimed {
		t.Fatalf("rolled-back mutation visible")
	}
}

func TestUpdateSpaceBumpsVersionAndCollectsEvents(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateSpace(seedDoc(t, "sp-1"))
		return err
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	res, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		doc, err := tx.UpdateSpace("sp-1", func(s *domain.Space) error { return s.Claim("owner-1") })
		if err != nil {
			return err
		}
		if doc.Version != 2 {
			t.Fatalf("expected version 2, got %d", doc.Version)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	var sawClaim bool
	for _, ev := range res.Events {
		if ev.Type == domain.EventSpaceClaimed {
			sawClaim = true
		}
	}
	if !sawClaim {
		t.Fatalf("commit result missing claim event: %+v", res.Events)
	}
}

func TestStoreRuleViolationBlocksCommit(t *testing.T) {
	store := NewStore(domain.NewRulesEngine())
	store.RulesEngine().Register(blockingRule{})
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, e := tx.CreateSpace(seedDoc(t, "sp-1"))
		return e
	})
	var rve domain.RuleViolationError
	if !errors.As(err, &rve) {
		t.Fatalf("expected rule violation error, got %v", err)
	}
	if len(store.ListSpaces()) != 0 {
		t.Fatalf("blocked transaction committed")
	}
}

type blockingRule struct{}

func (blockingRule) Name() string { return "block" }

func (blockingRule) Evaluate(context.Context, domain.RuleView, []domain.Change) (domain.Result, error) {
	return domain.Result{Violations: []domain.Violation{{Rule: "block", Severity: domain.SeverityBlock}}}, nil
}

func TestStoreErrors(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, err := tx.UpdateSpace("missing", func(*domain.Space) error { return nil }); domain.StoreCode(err) != domain.CodeNotFound {
			t.Fatalf("update missing: %v", err)
		}
		if err := tx.DeleteSpace("missing"); domain.StoreCode(err) != domain.CodeNotFound {
			t.Fatalf("delete missing: %v", err)
		}
		if _, err := tx.CreateSpace(domain.SpaceDocument{}); domain.StoreCode(err) != domain.CodeInvalidArgument {
			t.Fatalf("create without id: %v", err)
		}
		if _, err := tx.CreateSpace(seedDoc(t, "sp-1")); err != nil {
			return err
		}
		if _, err := tx.CreateSpace(seedDoc(t, "sp-1")); domain.StoreCode(err) != domain.CodeAlreadyExists {
			t.Fatalf("duplicate create: %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("run transaction: %v", err)
	}
}

func TestAuditEntryLifecycle(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, err := tx.AppendAuditEntry(domain.AuditEntry{}); domain.StoreCode(err) != domain.CodeInvalidArgument {
			t.Fatalf("append without id: %v", err)
		}
		entry, err := tx.AppendAuditEntry(domain.AuditEntry{ID: "a1", SpaceID: "sp-1", EventType: "space.created"})
		if err != nil {
			return err
		}
		if entry.OccurredAt.IsZero() {
			t.Fatalf("occurred_at not defaulted")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if got := store.ListAuditEntries("sp-1"); len(got) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got))
	}
	if got := store.ListAuditEntries("other"); len(got) != 0 {
		t.Fatalf("filter leaked entries")
	}
	_, err = store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if err := tx.DeleteAuditEntry("a1"); err != nil {
			return err
		}
		return tx.DeleteAuditEntry("a1")
	})
	if domain.StoreCode(err) != domain.CodeNotFound {
		t.Fatalf("double delete: %v", err)
	}
	// The failed transaction rolled back, so the entry survives.
	if got := store.ListAuditEntries("sp-1"); len(got) != 1 {
		t.Fatalf("rollback lost the entry")
	}
}

func TestViewIsReadOnlySnapshot(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateSpace(seedDoc(t, "sp-1"))
		return err
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	err := store.View(ctx, func(v domain.TransactionView) error {
		docs := v.ListSpaces()
		if len(docs) != 1 {
			t.Fatalf("view mismatch")
		}
		docs[0].Name = "mutated"
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	doc, _ := store.GetSpace("sp-1")
	if doc.Name == "mutated" {
		t.Fatalf("view mutation leaked")
	}
}
