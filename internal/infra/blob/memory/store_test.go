package memory

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"spacecore/internal/infra/blob/core"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := New()
	if store.Driver() != core.DriverMemory {
		t.Fatalf("driver = %q", store.Driver())
	}

	info, err := store.Put(ctx, "events/a.jsonl", strings.NewReader("payload"), core.PutOptions{
		ContentType: "application/x-ndjson",
		Metadata:    map[string]string{"event_count": "3"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != int64(len("payload")) || info.ContentType != "application/x-ndjson" {
		t.Fatalf("unexpected info %+v", info)
	}

	got, rc, err := store.Get(ctx, "events/a.jsonl")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	_ = rc.Close()
	if string(body) != "payload" {
		t.Fatalf("body = %q", body)
	}
	if got.Metadata["event_count"] != "3" {
		t.Fatalf("metadata lost: %+v", got.Metadata)
	}

	head, err := store.Head(ctx, "events/a.jsonl")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if head.Size != info.Size {
		t.Fatalf("head size = %d, want %d", head.Size, info.Size)
	}
}

func TestPutIsCreateOnly(t *testing.T) {
	ctx := context.Background()
	store := New()
	if _, err := store.Put(ctx, "k", strings.NewReader("one"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Put(ctx, "k", strings.NewReader("two"), core.PutOptions{}); err == nil {
		t.Fatalf("expected overwrite rejection")
	}
}

func TestDeleteAndMissingKeys(t *testing.T) {
	ctx := context.Background()
	store := New()
	if _, _, err := store.Get(ctx, "missing"); err == nil {
		t.Fatalf("expected get error")
	}
	if _, err := store.Head(ctx, "missing"); err == nil {
		t.Fatalf("expected head error")
	}
	if err := store.Delete(ctx, "missing"); err == nil {
		t.Fatalf("expected delete error")
	}
	if _, err := store.Put(ctx, "k", strings.NewReader("v"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Head(ctx, "k"); err == nil {
		t.Fatalf("deleted key still visible")
	}
}

func TestListByPrefixSorted(t *testing.T) {
	ctx := context.Background()
	store := New()
	for _, key := range []string{"events/2026-08-29/b.jsonl", "events/2026-08-29/a.jsonl", "other/c"} {
		if _, err := store.Put(ctx, key, strings.NewReader("v"), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	infos, err := store.List(ctx, "events/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(infos))
	}
	if infos[0].Key != "events/2026-08-29/a.jsonl" || infos[1].Key != "events/2026-08-29/b.jsonl" {
		t.Fatalf("unsorted listing: %q, %q", infos[0].Key, infos[1].Key)
	}
}

func TestPresignUnsupported(t *testing.T) {
	store := New()
	if _, err := store.PresignURL(context.Background(), "k", core.SignedURLOptions{}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}
