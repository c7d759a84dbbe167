package fs

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"spacecore/internal/infra/blob/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	if store.Driver() != core.DriverFilesystem {
		t.Fatalf("driver = %q", store.Driver())
	}

	info, err := store.Put(ctx, "events/2026-08-29/a.jsonl", strings.NewReader("payload"), core.PutOptions{
		ContentType: "application/x-ndjson",
		Metadata:    map[string]string{"event_count": "2"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != int64(len("payload")) {
		t.Fatalf("size = %d", info.Size)
	}
	if info.ETag == "" {
		t.Fatalf("expected content hash etag")
	}

	got, rc, err := store.Get(ctx, "events/2026-08-29/a.jsonl")
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
	if got.ContentType != "application/x-ndjson" || got.Metadata["event_count"] != "2" {
		t.Fatalf("sidecar metadata lost: %+v", got)
	}

	head, err := store.Head(ctx, "events/2026-08-29/a.jsonl")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if head.ETag != info.ETag {
		t.Fatalf("etag drift: %q vs %q", head.ETag, info.ETag)
	}
}

func TestPutIsCreateOnly(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	if _, err := store.Put(ctx, "k", strings.NewReader("one"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Put(ctx, "k", strings.NewReader("two"), core.PutOptions{}); err == nil {
		t.Fatalf("expected overwrite rejection")
	}
}

func TestKeySanitization(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	for _, key := range []string{"", "  ", "/abs/path", "../escape", "a/../../b"} {
		if _, err := store.Put(ctx, key, strings.NewReader("v"), core.PutOptions{}); err == nil {
			t.Fatalf("key %q accepted", key)
		}
	}
}

func TestDeleteRemovesSidecar(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := New(root)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := store.Put(ctx, "dir/k", strings.NewReader("v"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Delete(ctx, "dir/k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "dir", "k.meta")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("sidecar survived delete: %v", err)
	}
	if err := store.Delete(ctx, "dir/k"); err == nil {
		t.Fatalf("expected delete error for missing key")
	}
}

func TestListSkipsSidecarsAndFiltersPrefix(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	for _, key := range []string{"events/b", "events/a", "other/c"} {
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
	if infos[0].Key != "events/a" || infos[1].Key != "events/b" {
		t.Fatalf("unexpected listing: %q, %q", infos[0].Key, infos[1].Key)
	}
}

func TestPresignUnsupported(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.PresignURL(context.Background(), "k", core.SignedURLOptions{}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}
