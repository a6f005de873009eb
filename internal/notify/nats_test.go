package notify

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
)

type published struct {
	subject string
	data    []byte
}

type fakeConn struct {
	mu       sync.Mutex
	msgs     []published
	pubErr   error
	flushErr error
	closed   bool
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pubErr != nil {
		return f.pubErr
	}
	f.msgs = append(f.msgs, published{subject, data})
	return nil
}

func (f *fakeConn) FlushWithContext(context.Context) error { return f.flushErr }
func (f *fakeConn) Close()                                 { f.closed = true }

func TestNATSNotifier_PublishesJSON(t *testing.T) {
	fc := &fakeConn{}
	n := newNATSNotifier(fc, "sitekeeper.content", nil)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	n.now = func() time.Time { return fixed }

	require.NoError(t, n.Notify(t.Context(), Event{Type: TypeRecordAdded, Kind: "reviews", RecordID: 4, OperationID: "op"}))
	require.NoError(t, n.Notify(t.Context(), Event{Type: TypePublished, Outcome: "published", Branch: "main"}))

	require.Len(t, fc.msgs, 2)
	assert.Equal(t, "sitekeeper.content.reviews.record.added", fc.msgs[0].subject)
	assert.Equal(t, "sitekeeper.content.site.site.published", fc.msgs[1].subject)

	var got Event
	require.NoError(t, json.Unmarshal(fc.msgs[0].data, &got))
	assert.Equal(t, Event{Type: TypeRecordAdded, Kind: "reviews", RecordID: 4, OperationID: "op", Timestamp: fixed}, got)

	require.NoError(t, n.Close())
	assert.True(t, fc.closed)
}

func TestNATSNotifier_ErrorsAreNetworkErrors(t *testing.T) {
	n := newNATSNotifier(&fakeConn{pubErr: stderrors.New("nats: connection closed")}, "s", nil)
	err := n.Notify(t.Context(), Event{Type: TypeSynced, Kind: "faqs"})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNetwork))

	n = newNATSNotifier(&fakeConn{flushErr: context.DeadlineExceeded}, "s", nil)
	err = n.Notify(t.Context(), Event{Type: TypeSynced, Kind: "faqs"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewNATS_UnreachableServer(t *testing.T) {
	_, err := NewNATS("nats://127.0.0.1:1", "s", nil)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNetwork))
}

func TestNoop(t *testing.T) {
	var n Notifier = Noop{}
	assert.NoError(t, n.Notify(t.Context(), Event{}))
	assert.NoError(t, n.Close())
}
