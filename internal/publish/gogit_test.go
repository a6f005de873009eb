package publish

import (
	"os"
	"path/filepath"
	"testing"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newSite sets up a working tree with one commit and a bare origin.
func newSite(t *testing.T) (work, bare string) {
	t.Helper()
	tmp := t.TempDir()
	bare = filepath.Join(tmp, "remote.git")
	_, err := git.PlainInit(bare, true)
	require.NoError(t, err)

	work = filepath.Join(tmp, "site")
	_, err = Setup(SetupOptions{Dir: work, RemoteURL: bare, Branch: "main"})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(work, "index.html"), []byte("<html></html>\n"), 0o600))
	return work, bare
}

func TestGoGit_PublishRoundTrip(t *testing.T) {
	work, bare := newSite(t)
	repo := NewGoGitRepository(work, nil)
	p := NewPublisher(repo)

	res, err := p.Publish(t.Context(), "first", "main")
	require.NoError(t, err)
	assert.Equal(t, OutcomePublished, res.Outcome)

	remote, err := git.PlainOpen(bare)
	require.NoError(t, err)
	ref, err := remote.Reference(plumbing.NewBranchReferenceName("main"), true)
	require.NoError(t, err)
	commit, err := remote.CommitObject(ref.Hash())
	require.NoError(t, err)
	assert.Equal(t, "first", commit.Message)
	assert.Equal(t, defaultAuthorName, commit.Author.Name)

	res, err = p.Publish(t.Context(), "second", "main")
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoChanges, res.Outcome)
}

func TestGoGit_PublishesDeletions(t *testing.T) {
	work, bare := newSite(t)
	repo := NewGoGitRepository(work, nil)
	p := NewPublisher(repo)
	_, err := p.Publish(t.Context(), "add", "main")
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(work, "index.html")))
	dirty, err := repo.HasChanges(t.Context())
	require.NoError(t, err)
	require.True(t, dirty)

	res, err := p.Publish(t.Context(), "remove", "main")
	require.NoError(t, err)
	assert.Equal(t, OutcomePublished, res.Outcome)

	remote, err := git.PlainOpen(bare)
	require.NoError(t, err)
	ref, err := remote.Reference(plumbing.NewBranchReferenceName("main"), true)
	require.NoError(t, err)
	commit, err := remote.CommitObject(ref.Hash())
	require.NoError(t, err)
	tree, err := commit.Tree()
	require.NoError(t, err)
	_, err = tree.File("index.html")
	assert.Error(t, err)
}

func TestGoGit_NotARepository(t *testing.T) {
	repo := NewGoGitRepository(t.TempDir(), nil)
	res, err := NewPublisher(repo).Publish(t.Context(), "", "")
	require.Error(t, err)
	assert.Equal(t, FailureNotARepository, res.Failure)
}

func TestGoGit_NoRemote(t *testing.T) {
	dir := t.TempDir()
	_, err := Setup(SetupOptions{Dir: dir})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o600))

	res, err := NewPublisher(NewGoGitRepository(dir, nil)).Publish(t.Context(), "", "")
	require.Error(t, err)
	assert.Equal(t, FailureNoRemote, res.Failure)
}

func TestGoGit_Status(t *testing.T) {
	work, _ := newSite(t)
	out, err := NewGoGitRepository(work, nil).Status(t.Context())
	require.NoError(t, err)
	assert.Contains(t, out, "index.html")
}
