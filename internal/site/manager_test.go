package site

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"git.home.luguber.info/inful/sitekeeper/internal/content"
	"git.home.luguber.info/inful/sitekeeper/internal/eventstore"
	"git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekeeper/internal/htmlsync"
	"git.home.luguber.info/inful/sitekeeper/internal/notify"
	"git.home.luguber.info/inful/sitekeeper/internal/publish"
	"git.home.luguber.info/inful/sitekeeper/internal/render"
)

const skeleton = `<!DOCTYPE html>
<html><body>
<section><div data-sync-anchor="reviews-primary"></div><div data-sync-anchor="reviews-secondary"></div></section>
<section><div data-sync-anchor="faqs-list"></div></section>
<div data-sync-anchor="gallery-grid"></div>
<section data-sync-anchor="reels-list"></section>
</body></html>
`

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *recordingNotifier) Notify(_ context.Context, e notify.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
	return nil
}

func (n *recordingNotifier) Close() error { return nil }

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Type)
	}
	return out
}

type stubRepo struct {
	dirty  bool
	pushes int
}

func (r *stubRepo) IsRepository(context.Context) (bool, error)       { return true, nil }
func (r *stubRepo) HasRemote(context.Context, string) (bool, error)  { return true, nil }
func (r *stubRepo) HasChanges(context.Context) (bool, error)         { return r.dirty, nil }
func (r *stubRepo) StageAll(context.Context) error                   { return nil }
func (r *stubRepo) Commit(context.Context, string) error             { return nil }
func (r *stubRepo) Status(context.Context) (string, error)           { return "## main\n M index.html\n", nil }
func (r *stubRepo) Push(context.Context, string, string) error {
	r.pushes++
	r.dirty = false
	return nil
}

type fixture struct {
	m        *Manager
	doc      string
	notifier *recordingNotifier
	history  *eventstore.Log
	repo     *stubRepo
}

func newFixture(t *testing.T, document string, opts ...Option) *fixture {
	t.Helper()
	dir := t.TempDir()
	doc := filepath.Join(dir, "index.html")
	require.NoError(t, os.WriteFile(doc, []byte(document), 0o644))

	r, err := render.New(render.Options{})
	require.NoError(t, err)
	store, err := eventstore.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	hist := eventstore.NewLog(store)
	t.Cleanup(func() { _ = hist.Close() })

	f := &fixture{doc: doc, notifier: &recordingNotifier{}, history: hist, repo: &stubRepo{dirty: true}}
	ids := 0
	base := []Option{
		WithHistory(hist),
		WithNotifier(f.notifier),
		WithPublisher(publish.NewPublisher(f.repo)),
		WithOperationIDs(func() string { ids++; return fmt.Sprintf("op-%d", ids) }),
	}
	f.m = New(content.NewStore(filepath.Join(dir, "data")), htmlsync.New(r), doc, append(base, opts...)...)
	return f
}

func (f *fixture) read(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(f.doc)
	require.NoError(t, err)
	return string(data)
}

func TestAdd_FirstReviewEndToEnd(t *testing.T) {
	f := newFixture(t, skeleton)

	res, err := f.m.Add(t.Context(), content.KindReviews, map[string]any{
		"name": "Ana", "rating": 5, "title": "Great", "content": "Loved it",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Record.ID)
	assert.False(t, res.Partial)
	assert.Empty(t, res.Warnings)
	assert.Nil(t, res.Publish)

	doc, err := html.Parse(strings.NewReader(f.read(t)))
	require.NoError(t, err)
	primary := findAnchor(doc, "reviews-primary")
	require.NotNil(t, primary)
	cards := childElements(primary)
	require.Len(t, cards, 1)
	text := textOf(cards[0])
	assert.Contains(t, text, "Ana")
	assert.Contains(t, text, `"Great"`)
	assert.Contains(t, text, "Loved it")
	assert.Equal(t, 5, strings.Count(text, "★"))
	assert.Empty(t, childElements(findAnchor(doc, "reviews-secondary")))

	assert.Equal(t, []string{notify.TypeRecordAdded}, f.notifier.types())
	entries, err := f.m.History(t.Context(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, eventstore.TypeDocumentSynced, entries[0].Type)
	assert.Equal(t, eventstore.TypeRecordAdded, entries[1].Type)
	assert.Equal(t, "op-1", entries[1].OperationID)
}

func TestUpdateAndDelete(t *testing.T) {
	f := newFixture(t, skeleton)
	ctx := t.Context()
	for _, q := range []string{"Q1", "Q2", "Q3"} {
		_, err := f.m.Add(ctx, content.KindFAQs, map[string]any{"question": q, "answer": "A"})
		require.NoError(t, err)
	}

	res, err := f.m.Update(ctx, content.KindFAQs, 2, map[string]any{"answer": "Changed <b>answer</b>"})
	require.NoError(t, err)
	assert.Equal(t, "Q2", res.Record.String("question"))
	require.NotNil(t, res.Record.UpdatedAt)
	assert.Contains(t, f.read(t), "Changed &lt;b&gt;answer&lt;/b&gt;")

	_, err = f.m.Delete(ctx, content.KindFAQs, 1)
	require.NoError(t, err)
	seq, err := f.m.List(ctx, content.KindFAQs)
	require.NoError(t, err)
	require.Len(t, seq, 2)
	assert.Equal(t, []int{2, 3}, []int{seq[0].ID, seq[1].ID})
	assert.NotContains(t, f.read(t), "Q1")

	_, err = f.m.Delete(ctx, content.KindFAQs, 1)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))

	_, err = f.m.Get(ctx, content.KindFAQs, 42)
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))
	rec, err := f.m.Get(ctx, content.KindFAQs, 3)
	require.NoError(t, err)
	assert.Equal(t, "Q3", rec.String("question"))
}

func TestAdd_MissingAnchorIsPartial(t *testing.T) {
	f := newFixture(t, `<html><body><div data-sync-anchor="reviews-primary"></div></body></html>`)

	res, err := f.m.Add(t.Context(), content.KindReviews, map[string]any{"name": "Bo"})
	require.NoError(t, err)
	assert.True(t, res.Partial)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "reviews-secondary")
	assert.Contains(t, f.read(t), "Bo")

	a := f.history.Activity()
	require.Len(t, a.Kinds, 1)
	assert.True(t, a.Kinds[0].SyncPartial)
}

func TestAdd_AutoPublish(t *testing.T) {
	f := newFixture(t, skeleton, WithAutoPublish(true))

	res, err := f.m.Add(t.Context(), content.KindGallery, map[string]any{"url": "/img/1.jpg"})
	require.NoError(t, err)
	require.NotNil(t, res.Publish)
	assert.Equal(t, publish.OutcomePublished, res.Publish.Outcome)
	assert.Equal(t, 1, f.repo.pushes)
	assert.Equal(t, []string{notify.TypeRecordAdded, notify.TypePublished}, f.notifier.types())

	a := f.history.Activity()
	require.NotNil(t, a.LastPublish)
	assert.Equal(t, "published", a.LastPublish.Outcome)
}

func TestAdd_UnreadableDocumentFails(t *testing.T) {
	f := newFixture(t, skeleton)
	require.NoError(t, os.Remove(f.doc))

	res, err := f.m.Add(t.Context(), content.KindReels, map[string]any{"embed_url": "https://example.com/r/1"})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryFileSystem))
	// The collection write is not rolled back; Resync converges later.
	assert.Equal(t, 1, res.Record.ID)
	seq, err := f.m.List(t.Context(), content.KindReels)
	require.NoError(t, err)
	assert.Len(t, seq, 1)
}

func TestResync_ConvergesToStore(t *testing.T) {
	f := newFixture(t, skeleton)
	ctx := t.Context()
	_, err := f.m.Add(ctx, content.KindGallery, map[string]any{"url": "/a.jpg", "alt": "A"})
	require.NoError(t, err)
	_, err = f.m.Resync(ctx)
	require.NoError(t, err)
	synced := f.read(t)
	assert.Contains(t, synced, "/a.jpg")

	require.NoError(t, os.WriteFile(f.doc, []byte(skeleton), 0o644))
	reports, err := f.m.Resync(ctx)
	require.NoError(t, err)
	require.Len(t, reports, len(content.Kinds()))
	assert.Equal(t, synced, f.read(t))

	reports, err = f.m.Resync(ctx, content.KindGallery)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.False(t, reports[0].Changed)
}

func TestConcurrentAddsKeepUniqueIDs(t *testing.T) {
	f := newFixture(t, skeleton)
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.m.Add(context.Background(), content.KindReviews, map[string]any{"name": fmt.Sprintf("N%d", i)})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	seq, err := f.m.List(t.Context(), content.KindReviews)
	require.NoError(t, err)
	require.Len(t, seq, 8)
	seen := map[int]bool{}
	for _, r := range seq {
		assert.False(t, seen[r.ID], "duplicate id %d", r.ID)
		seen[r.ID] = true
	}
	doc := f.read(t)
	for i := range 8 {
		assert.Contains(t, doc, fmt.Sprintf("N%d", i))
	}
}

func TestStatus(t *testing.T) {
	f := newFixture(t, skeleton)
	_, err := f.m.Add(t.Context(), content.KindFAQs, map[string]any{"question": "Q"})
	require.NoError(t, err)

	st, err := f.m.Status(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, st.Collections[content.KindFAQs])
	assert.Equal(t, 0, st.Collections[content.KindReels])
	assert.Equal(t, 1, st.Anchors[htmlsync.FAQsList])
	assert.Contains(t, st.Git, "index.html")
	require.NotNil(t, st.Activity)
	assert.Equal(t, 2, st.Activity.Events)
}

func TestPublishWithoutPublisher(t *testing.T) {
	r, err := render.New(render.Options{})
	require.NoError(t, err)
	m := New(content.NewStore(t.TempDir()), htmlsync.New(r), "index.html")

	_, err = m.Publish(t.Context(), "", "")
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
	_, err = m.History(t.Context(), 5)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestCancelledContext(t *testing.T) {
	f := newFixture(t, skeleton)
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()
	_, err := f.m.Add(ctx, content.KindFAQs, map[string]any{"question": "Q"})
	require.Error(t, err)
	seq, err := f.m.List(t.Context(), content.KindFAQs)
	require.NoError(t, err)
	assert.Empty(t, seq)
}

func findAnchor(n *html.Node, name string) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key == htmlsync.MarkerAttr && a.Val == name {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findAnchor(c, name); found != nil {
			return found
		}
	}
	return nil
}

func childElements(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
