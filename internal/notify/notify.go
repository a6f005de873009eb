// Package notify announces content changes and publishes to other processes.
package notify

import (
	"context"
	"time"
)

// Event types.
const (
	TypeRecordAdded   = "record.added"
	TypeRecordUpdated = "record.updated"
	TypeRecordDeleted = "record.deleted"
	TypeSynced        = "document.synced"
	TypePublished     = "site.published"
)

// Event is the message body of a notification.
type Event struct {
	Type        string    `json:"type"`
	OperationID string    `json:"operation_id,omitempty"`
	Kind        string    `json:"kind,omitempty"`
	RecordID    int       `json:"record_id,omitempty"`
	Partial     bool      `json:"partial,omitempty"`
	Outcome     string    `json:"outcome,omitempty"`
	Branch      string    `json:"branch,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Notifier delivers events. Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
	Close() error
}

// Noop discards every event.
type Noop struct{}

func (Noop) Notify(context.Context, Event) error { return nil }
func (Noop) Close() error                        { return nil }
