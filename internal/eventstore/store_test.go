package eventstore

import (
	"path/filepath"
	"testing"
	"time"
)

const testOperationID = "op-123"

func TestEventStoreAppendAndRetrieve(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	ev := &BaseEvent{
		EventOperationID: testOperationID,
		EventSubject:     "reviews",
		EventType:        "TestEvent",
		EventTimestamp:   time.Now(),
		EventPayload:     []byte(`{"test": "data"}`),
		EventMetadata:    map[string]string{"key": "value"},
	}

	id, err := store.Append(ctx, ev)
	if err != nil {
		t.Fatalf("failed to append event: %v", err)
	}
	if id != 1 {
		t.Errorf("expected id 1, got %d", id)
	}

	events, err := store.GetByOperation(ctx, testOperationID)
	if err != nil {
		t.Fatalf("failed to get events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	got := events[0]
	if got.Subject() != "reviews" {
		t.Errorf("expected subject reviews, got %s", got.Subject())
	}
	if got.Type() != "TestEvent" {
		t.Errorf("expected event_type TestEvent, got %s", got.Type())
	}
	if string(got.Payload()) != `{"test": "data"}` {
		t.Errorf("unexpected payload %s", got.Payload())
	}
	if got.Metadata()["key"] != "value" {
		t.Errorf("expected metadata key=value, got %v", got.Metadata())
	}
	if !got.Timestamp().Equal(ev.EventTimestamp.Round(0)) {
		t.Errorf("timestamp not preserved: %v vs %v", got.Timestamp(), ev.EventTimestamp)
	}
}

func TestEventStoreRecentAndRange(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	base := time.Now().Add(-time.Minute)
	for i := range 5 {
		_, err := store.Append(ctx, &BaseEvent{
			EventOperationID: "op",
			EventSubject:     "faqs",
			EventType:        "Event",
			EventTimestamp:   base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("failed to append event: %v", err)
		}
	}

	recent, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 || recent[0].ID() != 5 || recent[1].ID() != 4 {
		t.Fatalf("expected ids 5,4 newest first, got %v", recent)
	}

	inRange, err := store.GetRange(ctx, base.Add(time.Second), base.Add(3*time.Second))
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(inRange) != 3 {
		t.Errorf("expected 3 events in range, got %d", len(inRange))
	}
	if string(inRange[0].Payload()) != "{}" {
		t.Errorf("expected empty object payload, got %s", inRange[0].Payload())
	}
}

func TestEventStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	ev, err := NewRecordChanged("op", TypeRecordAdded, "gallery", 7)
	if err != nil {
		t.Fatalf("event: %v", err)
	}
	if _, err := store.Append(t.Context(), ev); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	events, err := reopened.Recent(t.Context(), 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(events) != 1 || events[0].Subject() != "gallery" {
		t.Fatalf("expected one gallery event, got %v", events)
	}
}
