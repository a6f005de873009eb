package eventstore

import (
	"context"
)

// Log appends events to a Store and keeps an ActivityProjection current.
type Log struct {
	store      Store
	projection *ActivityProjection
}

// Open opens the SQLite history at path and rebuilds its projection.
func Open(ctx context.Context, path string) (*Log, error) {
	store, err := NewSQLiteStore(path)
	if err != nil {
		return nil, err
	}
	l := NewLog(store)
	if err := l.projection.Rebuild(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return l, nil
}

// NewLog wraps an existing store. The projection starts empty.
func NewLog(store Store) *Log {
	return &Log{store: store, projection: NewActivityProjection(store)}
}

// Record appends e and applies it to the projection.
func (l *Log) Record(ctx context.Context, e Event) error {
	id, err := l.store.Append(ctx, e)
	if err != nil {
		return err
	}
	if s, ok := e.(interface{ setID(int64) }); ok {
		s.setID(id)
	}
	l.projection.Apply(e)
	return nil
}

// Recent returns up to limit entries, newest first.
func (l *Log) Recent(ctx context.Context, limit int) ([]Entry, error) {
	events, err := l.store.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(events))
	for _, e := range events {
		out = append(out, ToEntry(e))
	}
	return out, nil
}

// Operation returns the entries recorded for one operation.
func (l *Log) Operation(ctx context.Context, operationID string) ([]Entry, error) {
	events, err := l.store.GetByOperation(ctx, operationID)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(events))
	for _, e := range events {
		out = append(out, ToEntry(e))
	}
	return out, nil
}

// Activity returns the projection snapshot.
func (l *Log) Activity() Activity { return l.projection.Snapshot() }

// Close closes the underlying store.
func (l *Log) Close() error { return l.store.Close() }
