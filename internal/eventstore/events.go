package eventstore

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
)

// Event type names.
const (
	TypeRecordAdded      = "RecordAdded"
	TypeRecordUpdated    = "RecordUpdated"
	TypeRecordDeleted    = "RecordDeleted"
	TypeDocumentSynced   = "DocumentSynced"
	TypePublishCompleted = "PublishCompleted"
)

// SubjectSite is the subject of events that are not tied to a collection.
const SubjectSite = "site"

// RecordChanged is emitted when a record is added, updated or deleted.
type RecordChanged struct {
	BaseEvent
	Kind     string `json:"kind"`
	RecordID int    `json:"record_id"`
}

// NewRecordChanged creates a record event. eventType must be one of the
// TypeRecord* constants.
func NewRecordChanged(operationID, eventType, kind string, recordID int) (*RecordChanged, error) {
	payload, err := json.Marshal(map[string]any{
		"kind":      kind,
		"record_id": recordID,
	})
	if err != nil {
		return nil, errors.HistoryError("failed to marshal RecordChanged payload").
			WithCause(err).
			WithContext("operation_id", operationID).
			Build()
	}

	return &RecordChanged{
		BaseEvent: BaseEvent{
			EventOperationID: operationID,
			EventSubject:     kind,
			EventType:        eventType,
			EventTimestamp:   time.Now(),
			EventPayload:     payload,
		},
		Kind:     kind,
		RecordID: recordID,
	}, nil
}

// DocumentSynced is emitted after a collection was projected into the document.
type DocumentSynced struct {
	BaseEvent
	Kind    string   `json:"kind"`
	Changed bool     `json:"changed"`
	Skipped []string `json:"skipped,omitempty"`
}

// NewDocumentSynced creates a DocumentSynced event. skipped lists anchors
// that could not be synchronized.
func NewDocumentSynced(operationID, kind string, changed bool, skipped []string) (*DocumentSynced, error) {
	payload, err := json.Marshal(map[string]any{
		"kind":    kind,
		"changed": changed,
		"skipped": skipped,
	})
	if err != nil {
		return nil, errors.HistoryError("failed to marshal DocumentSynced payload").
			WithCause(err).
			WithContext("operation_id", operationID).
			Build()
	}

	return &DocumentSynced{
		BaseEvent: BaseEvent{
			EventOperationID: operationID,
			EventSubject:     kind,
			EventType:        TypeDocumentSynced,
			EventTimestamp:   time.Now(),
			EventPayload:     payload,
		},
		Kind:    kind,
		Changed: changed,
		Skipped: skipped,
	}, nil
}

// PublishMeta describes a finished publish.
type PublishMeta struct {
	Outcome string `json:"outcome"`
	Branch  string `json:"branch"`
	Remote  string `json:"remote,omitempty"`
	Message string `json:"message,omitempty"`
	Failure string `json:"failure,omitempty"`
}

// PublishCompleted is emitted after every publish attempt, successful or not.
type PublishCompleted struct {
	BaseEvent
	Meta PublishMeta `json:"meta"`
}

// NewPublishCompleted creates a PublishCompleted event.
func NewPublishCompleted(operationID string, meta PublishMeta) (*PublishCompleted, error) {
	payload, err := json.Marshal(meta)
	if err != nil {
		return nil, errors.HistoryError("failed to marshal PublishCompleted payload").
			WithCause(err).
			WithContext("operation_id", operationID).
			Build()
	}

	return &PublishCompleted{
		BaseEvent: BaseEvent{
			EventOperationID: operationID,
			EventSubject:     SubjectSite,
			EventType:        TypePublishCompleted,
			EventTimestamp:   time.Now(),
			EventPayload:     payload,
		},
		Meta: meta,
	}, nil
}
