package eventstore

import (
	"encoding/json"
	"time"
)

// Event is one entry of the site's activity log.
type Event interface {
	// ID returns the store-assigned identifier, zero before the event is appended.
	ID() int64
	// OperationID groups the events produced by one request.
	OperationID() string
	// Subject is the collection kind the event concerns, or "site".
	Subject() string
	// Type returns the event type name.
	Type() string
	// Timestamp returns when the event occurred.
	Timestamp() time.Time
	// Payload returns the event data as JSON.
	Payload() []byte
	// Metadata returns optional event metadata.
	Metadata() map[string]string
}

// BaseEvent provides a default implementation of Event.
type BaseEvent struct {
	EventID          int64
	EventOperationID string
	EventSubject     string
	EventType        string
	EventTimestamp   time.Time
	EventPayload     []byte
	EventMetadata    map[string]string
}

func (e *BaseEvent) ID() int64                   { return e.EventID }
func (e *BaseEvent) OperationID() string         { return e.EventOperationID }
func (e *BaseEvent) Subject() string             { return e.EventSubject }
func (e *BaseEvent) Type() string                { return e.EventType }
func (e *BaseEvent) Timestamp() time.Time        { return e.EventTimestamp }
func (e *BaseEvent) Payload() []byte             { return e.EventPayload }
func (e *BaseEvent) Metadata() map[string]string { return e.EventMetadata }

// Entry is the JSON view of an event.
type Entry struct {
	ID          int64             `json:"id"`
	OperationID string            `json:"operation_id"`
	Subject     string            `json:"subject"`
	Type        string            `json:"type"`
	Timestamp   time.Time         `json:"timestamp"`
	Payload     json.RawMessage   `json:"payload,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// ToEntry converts an event for display.
func ToEntry(e Event) Entry {
	entry := Entry{
		ID:          e.ID(),
		OperationID: e.OperationID(),
		Subject:     e.Subject(),
		Type:        e.Type(),
		Timestamp:   e.Timestamp(),
		Metadata:    e.Metadata(),
	}
	if json.Valid(e.Payload()) {
		entry.Payload = json.RawMessage(e.Payload())
	}
	return entry
}

func (e *BaseEvent) setID(id int64) { e.EventID = id }
