package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitekeeper/internal/eventstore"
	"git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
)

const skeleton = `<html><body>
<section class="py-20 bg-gradient-to-b from-gray-50 to-white">
<div class="grid grid-cols-1 md:grid-cols-3 gap-8"></div>
</section>
<div id="gallery-grid"></div>
</body></html>
`

type env struct {
	dir  string
	doc  string
	root *CLI
	out  *bytes.Buffer
	g    *Global
}

func newEnv(t *testing.T, extra string) *env {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	doc := filepath.Join(dir, "index.html")
	require.NoError(t, os.WriteFile(doc, []byte(skeleton), 0o600))

	cfg := fmt.Sprintf(`site:
  document: %s
  data_dir: %s
publish:
  repo_dir: %s
history:
  path: %s
%s`, doc, filepath.Join(dir, "data"), dir, filepath.Join(dir, ".sitekeeper", "history.db"), extra)
	cfgPath := filepath.Join(dir, "sitekeeper.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	var out bytes.Buffer
	return &env{
		dir:  dir,
		doc:  doc,
		root: &CLI{Config: cfgPath},
		out:  &out,
		g:    &Global{Logger: slog.New(slog.NewTextHandler(io.Discard, nil)), Out: &out},
	}
}

func TestLogLevel(t *testing.T) {
	lvl, err := LogLevel(true, "error")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)

	lvl, err = LogLevel(false, "")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, lvl)

	lvl, err = LogLevel(false, "warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lvl)

	_, err = LogLevel(false, "loud")
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestFieldFlags(t *testing.T) {
	f := FieldFlags{Set: map[string]string{"name": "Ana", "rating": "4"}, JSON: `{"title":"Great","rating":5}`}
	fields, err := f.fields()
	require.NoError(t, err)
	assert.Equal(t, "Ana", fields["name"])
	assert.Equal(t, 4, fields["rating"], "--set wins over --json")
	assert.Equal(t, "Great", fields["title"])

	_, err = FieldFlags{}.fields()
	assert.Error(t, err)
	_, err = FieldFlags{JSON: `[1]`}.fields()
	assert.Error(t, err)
}

func TestKongParsesRecordAdd(t *testing.T) {
	var cli CLI
	parser, err := kong.New(&cli, kong.Vars{"version": "test"}, kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	require.NoError(t, err)

	ctx, err := parser.Parse([]string{"record", "add", "reviews", "-s", "name=Ana", "--set", "rating=5"})
	require.NoError(t, err)
	assert.Equal(t, "record add <kind>", ctx.Command())
	assert.Equal(t, "reviews", cli.Record.Add.Kind)
	assert.Equal(t, map[string]string{"name": "Ana", "rating": "5"}, cli.Record.Add.Fields.Set)
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	g := &Global{Out: &out}
	cmd := &InitCmd{Output: dir}
	require.NoError(t, cmd.Run(g, &CLI{}))
	assert.FileExists(t, filepath.Join(dir, "sitekeeper.yaml"))

	err := cmd.Run(g, &CLI{})
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))

	cmd.Force = true
	require.NoError(t, cmd.Run(g, &CLI{}))
}

func TestRecordLifecycleAndSync(t *testing.T) {
	e := newEnv(t, "")

	add := &RecordAddCmd{Kind: "reviews", Fields: FieldFlags{Set: map[string]string{
		"name": "Ana", "rating": "5", "title": "Great", "content": "Loved it",
	}}}
	// Legacy document: anchors are missing until adopted.
	require.NoError(t, add.Run(e.g, e.root))
	var res struct {
		Record  map[string]any `json:"record"`
		Partial bool           `json:"partial"`
	}
	require.NoError(t, json.Unmarshal(e.out.Bytes(), &res))
	assert.InDelta(t, 1, res.Record["id"], 0)
	assert.True(t, res.Partial)

	e.out.Reset()
	require.NoError(t, (&AdoptCmd{}).Run(e.g, e.root))
	assert.Contains(t, e.out.String(), "reviews-primary")

	page, err := os.ReadFile(e.doc)
	require.NoError(t, err)
	assert.Contains(t, string(page), `data-sync-anchor="reviews-primary"`)
	assert.Contains(t, string(page), "Loved it")

	e.out.Reset()
	require.NoError(t, (&RecordUpdateCmd{Kind: "reviews", ID: 1, Fields: FieldFlags{Set: map[string]string{"rating": "3"}}}).Run(e.g, e.root))

	e.out.Reset()
	require.NoError(t, (&RecordListCmd{Kind: "reviews"}).Run(e.g, e.root))
	var list []map[string]any
	require.NoError(t, json.Unmarshal(e.out.Bytes(), &list))
	require.Len(t, list, 1)
	assert.InDelta(t, 3, list[0]["rating"], 0)
	assert.Equal(t, "Great", list[0]["title"])

	e.out.Reset()
	require.NoError(t, (&SyncCmd{}).Run(e.g, e.root))
	assert.Contains(t, e.out.String(), "faqs")
	assert.Contains(t, e.out.String(), "skipped faqs-list")

	err = (&SyncCmd{Kinds: []string{"faqs"}, Strict: true}).Run(e.g, e.root)
	assert.True(t, errors.HasCategory(err, errors.CategoryDocument))

	err = (&SyncCmd{Kinds: []string{"videos"}}).Run(e.g, e.root)
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))

	require.NoError(t, (&RecordDeleteCmd{Kind: "reviews", ID: 1}).Run(e.g, e.root))
	err = (&RecordDeleteCmd{Kind: "reviews", ID: 1}).Run(e.g, e.root)
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))

	e.out.Reset()
	require.NoError(t, (&HistoryCmd{Limit: 50, JSON: true}).Run(e.g, e.root))
	var events []map[string]any
	require.NoError(t, json.Unmarshal(e.out.Bytes(), &events))
	var types []any
	for _, ev := range events {
		types = append(types, ev["type"])
	}
	assert.Contains(t, types, eventstore.TypeRecordDeleted)
	assert.Contains(t, types, eventstore.TypeRecordAdded)
}

func TestStatus(t *testing.T) {
	e := newEnv(t, "")
	require.NoError(t, (&StatusCmd{}).Run(e.g, e.root))
	out := e.out.String()
	assert.Contains(t, out, "Document: "+e.doc)
	assert.Contains(t, out, "reviews-primary")
	assert.Contains(t, out, "missing")

	e.out.Reset()
	require.NoError(t, (&StatusCmd{JSON: true}).Run(e.g, e.root))
	var st map[string]any
	require.NoError(t, json.Unmarshal(e.out.Bytes(), &st))
	assert.Equal(t, e.doc, st["document"])
}

func TestPublish_NotARepository(t *testing.T) {
	e := newEnv(t, "")
	err := (&PublishCmd{Message: "x"}).Run(e.g, e.root)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestMissingConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	err := (&StatusCmd{}).Run(&Global{Out: io.Discard}, &CLI{Config: "nope.yaml"})
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestServe_StopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	e := newEnv(t, "metrics:\n  enabled: true\nwatch:\n  enabled: true\n  debounce: 20ms\n")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- (&ServeCmd{Addr: addr}).serve(ctx, e.g, e.root) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/metrics") //nolint:noctx // test helper
		if err != nil {
			return false
		}
		defer func() { _ = resp.Body.Close() }()
		return resp.StatusCode == http.StatusOK
	}, 3*time.Second, 25*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
}
