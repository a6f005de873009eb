package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
)

func TestParse_AppliesDefaults(t *testing.T) {
	t.Setenv(EnvGitBranch, "")
	t.Setenv(EnvAutoPush, "")

	cfg, err := Parse([]byte("site:\n  document: ./public/index.html\n"))
	require.NoError(t, err)

	require.Equal(t, "./public/index.html", cfg.Site.Document)
	require.Equal(t, DefaultDataDir, cfg.Site.DataDir)
	require.Equal(t, DefaultPrimaryReviews, cfg.Render.PrimaryReviews)
	require.Equal(t, BackendExec, cfg.Publish.Backend)
	require.Equal(t, "origin", cfg.Publish.Remote)
	require.Equal(t, "main", cfg.Publish.Branch)
	require.Equal(t, "Update website content", cfg.Publish.Message)
	require.Equal(t, 2*time.Minute, cfg.Publish.Timeout)
	require.False(t, cfg.Publish.Auto)
	require.Equal(t, DefaultDebounce, cfg.Watch.Debounce)
}

func TestParse_DurationsAndAnchors(t *testing.T) {
	t.Setenv(EnvGitBranch, "")
	t.Setenv(EnvAutoPush, "")

	data := []byte(`
publish:
  backend: go-git
  timeout: 30s
  interval: 1h
anchors:
  gallery-grid:
    tag: div
    id: gallery-grid
  faqs-list:
    class: space-y-4
    within:
      tag: section
      class: bg-white
`)
	cfg, err := Parse(data)
	require.NoError(t, err)
	require.Equal(t, 30*time.Second, cfg.Publish.Timeout)
	require.Equal(t, time.Hour, cfg.Publish.Interval)
	require.Equal(t, "gallery-grid", cfg.Anchors["gallery-grid"].ID)
	require.NotNil(t, cfg.Anchors["faqs-list"].Within)
	require.Equal(t, "bg-white", cfg.Anchors["faqs-list"].Within.Class)
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv(EnvGitBranch, "staging")
	t.Setenv(EnvAutoPush, "True")

	cfg, err := Parse([]byte("publish:\n  branch: main\n"))
	require.NoError(t, err)
	require.Equal(t, "staging", cfg.Publish.Branch)
	require.True(t, cfg.Publish.Auto)
}

func TestParse_InvalidAutoPush(t *testing.T) {
	t.Setenv(EnvGitBranch, "")
	t.Setenv(EnvAutoPush, "sometimes")

	_, err := Parse([]byte("{}"))
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestParse_ExpandsEnvironment(t *testing.T) {
	t.Setenv(EnvGitBranch, "")
	t.Setenv(EnvAutoPush, "")
	t.Setenv("SITEKEEPER_TEST_TOKEN", "s3cret")

	cfg, err := Parse([]byte("publish:\n  backend: go-git\n  auth:\n    type: token\n    token: ${SITEKEEPER_TEST_TOKEN}\n"))
	require.NoError(t, err)
	require.Equal(t, "s3cret", cfg.Publish.Auth.Token)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Publish.Backend = "svn" }},
		{"negative interval", func(c *Config) { c.Publish.Interval = -time.Second }},
		{"token without token", func(c *Config) { c.Publish.Auth = &AuthConfig{Type: "token"} }},
		{"basic without password", func(c *Config) { c.Publish.Auth = &AuthConfig{Type: "basic", Username: "u"} }},
		{"unknown auth", func(c *Config) { c.Publish.Auth = &AuthConfig{Type: "kerberos"} }},
		{"unknown anchor", func(c *Config) { c.Anchors = map[string]AnchorConfig{"hero": {Tag: "div"}} }},
		{"empty anchor", func(c *Config) { c.Anchors = map[string]AnchorConfig{"reels-list": {}} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mut(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			require.True(t, errors.HasCategory(err, errors.CategoryValidation))
		})
	}

	require.NoError(t, Validate(Default()))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestLoad_DotEnvDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(EnvGitBranch, "")
	t.Setenv(EnvAutoPush, "")
	t.Setenv("SITEKEEPER_TEST_DOC", "from-process.html")
	t.Cleanup(func() { _ = os.Unsetenv("SITEKEEPER_TEST_DATA") })

	require.NoError(t, os.WriteFile(".env", []byte("SITEKEEPER_TEST_DOC=from-dotenv.html\nSITEKEEPER_TEST_DATA=content\n"), 0o600))
	require.NoError(t, os.WriteFile("sitekeeper.yaml", []byte("site:\n  document: ${SITEKEEPER_TEST_DOC}\n  data_dir: ${SITEKEEPER_TEST_DATA}\n"), 0o600))

	cfg, err := Load("sitekeeper.yaml")
	require.NoError(t, err)
	require.Equal(t, "from-process.html", cfg.Site.Document)
	require.Equal(t, "content", cfg.Site.DataDir)
}

func TestInit_RoundTrip(t *testing.T) {
	t.Setenv(EnvGitBranch, "")
	t.Setenv(EnvAutoPush, "")
	path := filepath.Join(t.TempDir(), "sitekeeper.yaml")

	require.NoError(t, Init(path, false))
	err := Init(path, false)
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))
	require.NoError(t, Init(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, DefaultTimeout, cfg.Publish.Timeout)
	require.Equal(t, ".sitekeeper/history.db", cfg.History.Path)
	require.True(t, cfg.Metrics.Enabled)
}
