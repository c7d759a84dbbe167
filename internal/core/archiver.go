package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	blobcore "spacecore/internal/infra/blob/core"
	"spacecore/pkg/domain"
)

// EventArchiver writes committed event batches to a blob store as JSON
// lines, one object per batch, keyed by day for prefix listing.
type EventArchiver struct {
	store blobcore.Store
	nowFn func() time.Time
	newID func() string
}

// NewEventArchiver builds an archiver over the given blob store.
func NewEventArchiver(store blobcore.Store) *EventArchiver {
	return &EventArchiver{
		store: store,
		nowFn: func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.NewString() },
	}
}

// WithClock overrides the archiver clock and id source, for tests.
func (a *EventArchiver) WithClock(now func() time.Time, newID func() string) *EventArchiver {
	if now != nil {
		a.nowFn = now
	}
	if newID != nil {
		a.newID = newID
	}
	return a
}

// Archive writes one batch object containing every event as a JSON line.
// Empty batches are a no-op.
func (a *EventArchiver) Archive(ctx context.Context, events []domain.Event) error {
	if len(events) == 0 {
		return nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, ev := range events {
		if err := enc.Encode(ev); err != nil {
			return fmt.Errorf("encode event %s: %w", ev.Type, err)
		}
	}
	now := a.nowFn()
	key := fmt.Sprintf("events/%s/%s.jsonl", now.Format("2006-01-02"), a.newID())
	_, err := a.store.Put(ctx, key, &buf, blobcore.PutOptions{
		ContentType: "application/x-ndjson",
		Metadata:    map[string]string{"event_count": fmt.Sprintf("%d", len(events))},
	})
	if err != nil {
		return fmt.Errorf("archive batch %s: %w", key, err)
	}
	return nil
}

// ReadBatch decodes one archived batch object back into events.
func (a *EventArchiver) ReadBatch(ctx context.Context, key string) ([]domain.Event, error) {
	_, rc, err := a.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	var events []domain.Event
	dec := json.NewDecoder(rc)
	for dec.More() {
		var ev domain.Event
		if err := dec.Decode(&ev); err != nil {
			return nil, fmt.Errorf("decode batch %s: %w", key, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// ListDay returns the batch keys archived on the given UTC day.
func (a *EventArchiver) ListDay(ctx context.Context, day time.Time) ([]string, error) {
	infos, err := a.store.List(ctx, fmt.Sprintf("events/%s/", day.UTC().Format("2006-01-02")))
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(infos))
	for i, info := range infos {
		keys[i] = info.Key
	}
	return keys, nil
}
