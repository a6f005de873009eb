// Package eventstore keeps an append-only log of content mutations,
// document syncs and publishes, and a read model summarizing it.
package eventstore

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"sync"
	"time"
)

// KindActivity summarizes the activity of one collection.
type KindActivity struct {
	Kind        string     `json:"kind"`
	Added       int        `json:"added"`
	Updated     int        `json:"updated"`
	Deleted     int        `json:"deleted"`
	LastChange  *time.Time `json:"last_change,omitempty"`
	LastSync    *time.Time `json:"last_sync,omitempty"`
	SyncPartial bool       `json:"sync_partial"`
}

// PublishSummary is the most recent publish.
type PublishSummary struct {
	PublishMeta
	At time.Time `json:"at"`
}

// Activity is a snapshot of the projection.
type Activity struct {
	Kinds       []KindActivity  `json:"kinds"`
	LastPublish *PublishSummary `json:"last_publish,omitempty"`
	LastSuccess *PublishSummary `json:"last_success,omitempty"`
	Events      int             `json:"events"`
}

// ActivityProjection maintains an in-memory view of site activity,
// reconstructed from the events in a Store.
type ActivityProjection struct {
	mu          sync.RWMutex
	store       Store
	kinds       map[string]*KindActivity
	lastPublish *PublishSummary
	lastSuccess *PublishSummary
	events      int
}

// NewActivityProjection creates a projection backed by store.
func NewActivityProjection(store Store) *ActivityProjection {
	return &ActivityProjection{store: store, kinds: make(map[string]*KindActivity)}
}

// Rebuild reconstructs the projection from all events in the store.
func (p *ActivityProjection) Rebuild(ctx context.Context) error {
	events, err := p.store.GetRange(ctx, time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.kinds = make(map[string]*KindActivity)
	p.lastPublish = nil
	p.lastSuccess = nil
	p.events = 0
	for _, e := range events {
		p.applyLocked(e)
	}
	return nil
}

// Apply processes a single event.
func (p *ActivityProjection) Apply(e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyLocked(e)
}

func (p *ActivityProjection) kind(name string) *KindActivity {
	k, ok := p.kinds[name]
	if !ok {
		k = &KindActivity{Kind: name}
		p.kinds[name] = k
	}
	return k
}

func (p *ActivityProjection) applyLocked(e Event) {
	p.events++
	ts := e.Timestamp()

	switch e.Type() {
	case TypeRecordAdded, TypeRecordUpdated, TypeRecordDeleted:
		k := p.kind(e.Subject())
		switch e.Type() {
		case TypeRecordAdded:
			k.Added++
		case TypeRecordUpdated:
			k.Updated++
		default:
			k.Deleted++
		}
		k.LastChange = &ts

	case TypeDocumentSynced:
		k := p.kind(e.Subject())
		var payload struct {
			Skipped []string `json:"skipped"`
		}
		if err := json.Unmarshal(e.Payload(), &payload); err == nil {
			k.SyncPartial = len(payload.Skipped) > 0
		}
		k.LastSync = &ts

	case TypePublishCompleted:
		var meta PublishMeta
		if err := json.Unmarshal(e.Payload(), &meta); err != nil {
			return
		}
		summary := &PublishSummary{PublishMeta: meta, At: ts}
		p.lastPublish = summary
		if meta.Outcome != "failed" {
			p.lastSuccess = summary
		}
	}
}

// Snapshot returns a copy of the current view with kinds sorted by name.
func (p *ActivityProjection) Snapshot() Activity {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := Activity{Events: p.events}
	for _, k := range p.kinds {
		out.Kinds = append(out.Kinds, *k)
	}
	slices.SortFunc(out.Kinds, func(a, b KindActivity) int { return strings.Compare(a.Kind, b.Kind) })
	if p.lastPublish != nil {
		lp := *p.lastPublish
		out.LastPublish = &lp
	}
	if p.lastSuccess != nil {
		ls := *p.lastSuccess
		out.LastSuccess = &ls
	}
	return out
}
