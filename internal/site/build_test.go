package site

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitekeeper/internal/config"
	"git.home.luguber.info/inful/sitekeeper/internal/content"
	"git.home.luguber.info/inful/sitekeeper/internal/htmlsync"
	"git.home.luguber.info/inful/sitekeeper/internal/metrics"
)

func TestSelectorsFromConfig(t *testing.T) {
	got := SelectorsFromConfig(map[string]config.AnchorConfig{
		"faqs-list": {Tag: "ul", Class: "faq", Within: &config.AnchorConfig{ID: "help"}},
	})
	want := htmlsync.Selector{Tag: "ul", Class: "faq", Within: &htmlsync.Selector{ID: "help"}}
	assert.Equal(t, map[htmlsync.Anchor]htmlsync.Selector{htmlsync.FAQsList: want}, got)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Site.Document = filepath.Join(dir, "index.html")
	cfg.Site.DataDir = filepath.Join(dir, "data")
	cfg.History.Path = filepath.Join(dir, ".sitekeeper", "history.db")
	cfg.Publish.RepoDir = dir
	cfg.Anchors = map[string]config.AnchorConfig{"gallery-grid": {ID: "gallery"}}
	require.NoError(t, os.WriteFile(cfg.Site.Document, []byte(`<div id="gallery"></div>`), 0o644))

	rt, err := Open(t.Context(), cfg, metrics.NoopRecorder{}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, rt.Close()) })

	res, err := rt.Add(t.Context(), content.KindGallery, map[string]any{"url": "/x.jpg"})
	require.NoError(t, err)
	assert.False(t, res.Partial)
	assert.Equal(t, "gallery", rt.Sync.Selector(htmlsync.GalleryGrid).ID)

	entries, err := rt.History(t.Context(), 10)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
