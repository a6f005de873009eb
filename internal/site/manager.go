// Package site runs content mutations end to end: it writes a collection,
// projects it into the document and then, best effort, records history,
// sends notifications, updates metrics and optionally publishes.
package site

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitekeeper/internal/content"
	"git.home.luguber.info/inful/sitekeeper/internal/eventstore"
	"git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekeeper/internal/htmlsync"
	"git.home.luguber.info/inful/sitekeeper/internal/logfields"
	"git.home.luguber.info/inful/sitekeeper/internal/metrics"
	"git.home.luguber.info/inful/sitekeeper/internal/notify"
	"git.home.luguber.info/inful/sitekeeper/internal/publish"
	"git.home.luguber.info/inful/sitekeeper/internal/storage"
)

// History is the activity log the manager writes to.
type History interface {
	Record(ctx context.Context, e eventstore.Event) error
	Recent(ctx context.Context, limit int) ([]eventstore.Entry, error)
	Activity() eventstore.Activity
}

// MutationResult describes a completed mutation.
type MutationResult struct {
	OperationID string          `json:"operation_id"`
	Record      content.Record  `json:"record"`
	Sync        htmlsync.Report `json:"sync"`
	// Partial is true when some anchor of the collection was skipped, so the
	// document does not fully reflect the collection.
	Partial  bool            `json:"partial"`
	Warnings []string        `json:"warnings,omitempty"`
	Publish  *publish.Result `json:"publish,omitempty"`
}

// Manager coordinates the collection store, the synchronizer and the publisher.
type Manager struct {
	store       *content.Store
	sync        *htmlsync.Synchronizer
	document    string
	publisher   *publish.Publisher
	history     History
	notifier    notify.Notifier
	recorder    metrics.Recorder
	autoPublish bool
	logger      *slog.Logger
	newOpID     func() string
	locks       storage.Locks
}

// Option configures a Manager.
type Option func(*Manager)

// WithPublisher enables Publish and Status.
func WithPublisher(p *publish.Publisher) Option { return func(m *Manager) { m.publisher = p } }

// WithHistory records every mutation, sync and publish in h.
func WithHistory(h History) Option { return func(m *Manager) { m.history = h } }

// WithNotifier sends change events through n.
func WithNotifier(n notify.Notifier) Option {
	return func(m *Manager) {
		if n != nil {
			m.notifier = n
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(m *Manager) {
		if r != nil {
			m.recorder = r
		}
	}
}

// WithAutoPublish publishes after every successful mutation.
func WithAutoPublish(enabled bool) Option { return func(m *Manager) { m.autoPublish = enabled } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithOperationIDs replaces the operation id generator.
func WithOperationIDs(fn func() string) Option { return func(m *Manager) { m.newOpID = fn } }

// New returns a manager that keeps document in sync with store.
func New(store *content.Store, sync *htmlsync.Synchronizer, document string, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		sync:     sync,
		document: document,
		notifier: notify.Noop{},
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
		newOpID:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Document returns the path of the managed document.
func (m *Manager) Document() string { return m.document }

// Store returns the collection store.
func (m *Manager) Store() *content.Store { return m.store }

// Add creates a record from fields and synchronizes the document.
func (m *Manager) Add(ctx context.Context, kind content.Kind, fields map[string]any) (MutationResult, error) {
	return m.mutate(ctx, kind, "add", func() (content.Record, []content.Record, error) {
		return m.store.Add(kind, fields)
	})
}

// Update merges patch into the record with id and synchronizes the document.
func (m *Manager) Update(ctx context.Context, kind content.Kind, id int, patch map[string]any) (MutationResult, error) {
	return m.mutate(ctx, kind, "update", func() (content.Record, []content.Record, error) {
		return m.store.Update(kind, id, patch)
	})
}

// Delete removes the record with id and synchronizes the document.
func (m *Manager) Delete(ctx context.Context, kind content.Kind, id int) (MutationResult, error) {
	return m.mutate(ctx, kind, "delete", func() (content.Record, []content.Record, error) {
		return m.store.Delete(kind, id)
	})
}

// List returns the collection in display order.
func (m *Manager) List(ctx context.Context, kind content.Kind) ([]content.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	seq, err := m.store.Load(kind)
	if err != nil {
		return nil, err
	}
	if seq == nil {
		seq = []content.Record{}
	}
	return seq, nil
}

// Get returns one record.
func (m *Manager) Get(ctx context.Context, kind content.Kind, id int) (content.Record, error) {
	seq, err := m.List(ctx, kind)
	if err != nil {
		return content.Record{}, err
	}
	rec, ok := content.Find(seq, id)
	if !ok {
		return content.Record{}, errors.NotFoundError("record not found").
			WithContext("kind", string(kind)).
			WithContext("id", id).
			Build()
	}
	return rec, nil
}

var recordEventTypes = map[string]string{
	"add":    eventstore.TypeRecordAdded,
	"update": eventstore.TypeRecordUpdated,
	"delete": eventstore.TypeRecordDeleted,
}

var recordNotifyTypes = map[string]string{
	"add":    notify.TypeRecordAdded,
	"update": notify.TypeRecordUpdated,
	"delete": notify.TypeRecordDeleted,
}

// mutate runs write and the document sync under the collection's lock, then
// performs the best-effort follow-ups outside of it.
func (m *Manager) mutate(ctx context.Context, kind content.Kind, op string, write func() (content.Record, []content.Record, error)) (MutationResult, error) {
	res := MutationResult{OperationID: m.newOpID()}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	var seq []content.Record
	var syncErr error
	var syncTime time.Duration
	err := m.locks.With(string(kind), func() error {
		rec, s, err := write()
		if err != nil {
			return err
		}
		res.Record, seq = rec, s
		start := time.Now()
		res.Sync, syncErr = m.sync.SyncFile(m.document, kind, seq)
		syncTime = time.Since(start)
		return nil
	})
	if err != nil {
		m.recorder.IncMutation(string(kind), op, metrics.ResultFailed)
		return res, err
	}

	m.recorder.SetRecordCount(string(kind), len(seq))
	m.observeSync(kind, res.Sync, syncTime, syncErr)
	if syncErr != nil {
		m.recorder.IncMutation(string(kind), op, metrics.ResultFailed)
		m.logger.Error("Collection saved but document sync failed",
			logfields.Kind(string(kind)),
			logfields.RecordID(res.Record.ID),
			logfields.Path(m.document),
			logfields.Error(syncErr))
		return res, syncErr
	}

	res.Partial = res.Sync.Partial()
	res.Warnings = warningMessages(res.Sync)
	m.recorder.IncMutation(string(kind), op, metrics.ResultFor(nil, res.Partial))
	m.logger.Info("Record "+op+" complete",
		logfields.Kind(string(kind)),
		logfields.RecordID(res.Record.ID),
		logfields.Count(len(seq)),
		slog.Bool("partial", res.Partial))

	if ev, err := eventstore.NewRecordChanged(res.OperationID, recordEventTypes[op], string(kind), res.Record.ID); err == nil {
		m.recordHistory(ctx, ev)
	}
	m.recordSync(ctx, res.OperationID, kind, res.Sync)
	m.notify(ctx, notify.Event{
		Type:        recordNotifyTypes[op],
		OperationID: res.OperationID,
		Kind:        string(kind),
		RecordID:    res.Record.ID,
		Partial:     res.Partial,
	})

	if m.autoPublish && m.publisher != nil {
		pr, _ := m.publish(ctx, res.OperationID, "", "")
		res.Publish = &pr
	}
	return res, nil
}

// Resync projects the persisted collections into the document. With no
// kinds, every collection is synchronized. Re-running converges the document
// to the store.
func (m *Manager) Resync(ctx context.Context, kinds ...content.Kind) ([]htmlsync.Report, error) {
	if len(kinds) == 0 {
		kinds = content.Kinds()
	}
	opID := m.newOpID()
	reports := make([]htmlsync.Report, 0, len(kinds))
	for _, kind := range kinds {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		var report htmlsync.Report
		var syncTime time.Duration
		err := m.locks.With(string(kind), func() error {
			seq, err := m.store.Load(kind)
			if err != nil {
				return err
			}
			start := time.Now()
			report, err = m.sync.SyncFile(m.document, kind, seq)
			syncTime = time.Since(start)
			m.recorder.SetRecordCount(string(kind), len(seq))
			return err
		})
		m.observeSync(kind, report, syncTime, err)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
		m.recordSync(ctx, opID, kind, report)
		m.notify(ctx, notify.Event{Type: notify.TypeSynced, OperationID: opID, Kind: string(kind), Partial: report.Partial()})
	}
	return reports, nil
}

// Publish runs the publish pipeline.
func (m *Manager) Publish(ctx context.Context, message, branch string) (publish.Result, error) {
	if m.publisher == nil {
		return publish.Result{}, errors.ConfigError("publishing is not configured").Build()
	}
	return m.publish(ctx, m.newOpID(), message, branch)
}

func (m *Manager) publish(ctx context.Context, opID, message, branch string) (publish.Result, error) {
	start := time.Now()
	res, err := m.publisher.Publish(ctx, message, branch)
	m.recorder.ObservePublishDuration(time.Since(start))
	m.recorder.IncPublishOutcome(string(res.Outcome), string(res.Failure))

	if ev, evErr := eventstore.NewPublishCompleted(opID, eventstore.PublishMeta{
		Outcome: string(res.Outcome),
		Branch:  res.Branch,
		Remote:  res.Remote,
		Message: res.Message,
		Failure: string(res.Failure),
	}); evErr == nil {
		m.recordHistory(ctx, ev)
	}
	m.notify(ctx, notify.Event{Type: notify.TypePublished, OperationID: opID, Outcome: string(res.Outcome), Branch: res.Branch})
	return res, err
}

func (m *Manager) observeSync(kind content.Kind, report htmlsync.Report, d time.Duration, err error) {
	m.recorder.ObserveSyncDuration(string(kind), d)
	m.recorder.IncSyncResult(string(kind), metrics.ResultFor(err, report.Partial()))
	for _, a := range report.Skipped() {
		m.recorder.IncAnchorSkipped(string(a.Anchor), string(a.Skipped))
	}
}

func (m *Manager) recordSync(ctx context.Context, opID string, kind content.Kind, report htmlsync.Report) {
	var skipped []string
	for _, a := range report.Skipped() {
		skipped = append(skipped, string(a.Anchor))
	}
	if ev, err := eventstore.NewDocumentSynced(opID, string(kind), report.Changed, skipped); err == nil {
		m.recordHistory(ctx, ev)
	}
}

func (m *Manager) recordHistory(ctx context.Context, e eventstore.Event) {
	if m.history == nil {
		return
	}
	if err := m.history.Record(ctx, e); err != nil {
		m.logger.Warn("Failed to record history", slog.String("type", e.Type()), logfields.Error(err))
	}
}

func (m *Manager) notify(ctx context.Context, e notify.Event) {
	if err := m.notifier.Notify(ctx, e); err != nil {
		m.logger.Warn("Failed to send notification", slog.String("type", e.Type), logfields.Error(err))
	}
}

func warningMessages(r htmlsync.Report) []string {
	var out []string
	for _, w := range r.Warnings() {
		if ce, ok := errors.AsClassified(w); ok {
			out = append(out, ce.Message())
			continue
		}
		out = append(out, w.Error())
	}
	return out
}
