package publish

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

const (
	defaultAuthorName  = "sitekeeper"
	defaultAuthorEmail = "sitekeeper@localhost"
)

// GoGitRepository implements Repository with go-git.
type GoGitRepository struct {
	Dir         string
	Auth        transport.AuthMethod
	AuthorName  string
	AuthorEmail string
	now         func() time.Time
}

// NewGoGitRepository returns a go-git backend rooted at dir.
func NewGoGitRepository(dir string, auth transport.AuthMethod) *GoGitRepository {
	return &GoGitRepository{Dir: dir, Auth: auth, now: time.Now}
}

func (r *GoGitRepository) open() (*git.Repository, error) {
	return git.PlainOpenWithOptions(r.Dir, &git.PlainOpenOptions{DetectDotGit: true})
}

func (r *GoGitRepository) IsRepository(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	repo, err := r.open()
	if err != nil {
		if stderrors.Is(err, git.ErrRepositoryNotExists) {
			return false, nil
		}
		return false, err
	}
	if _, err := repo.Worktree(); err != nil {
		if stderrors.Is(err, git.ErrIsBareRepository) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *GoGitRepository) HasRemote(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	repo, err := r.open()
	if err != nil {
		return false, err
	}
	if _, err := repo.Remote(name); err != nil {
		if stderrors.Is(err, git.ErrRemoteNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *GoGitRepository) worktree(ctx context.Context) (*git.Worktree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	repo, err := r.open()
	if err != nil {
		return nil, err
	}
	return repo.Worktree()
}

func (r *GoGitRepository) HasChanges(ctx context.Context) (bool, error) {
	wt, err := r.worktree(ctx)
	if err != nil {
		return false, err
	}
	st, err := wt.Status()
	if err != nil {
		return false, err
	}
	return !st.IsClean(), nil
}

func (r *GoGitRepository) StageAll(ctx context.Context) error {
	wt, err := r.worktree(ctx)
	if err != nil {
		return err
	}
	return wt.AddWithOptions(&git.AddOptions{All: true})
}

func (r *GoGitRepository) Commit(ctx context.Context, message string) error {
	wt, err := r.worktree(ctx)
	if err != nil {
		return err
	}
	name, email := r.AuthorName, r.AuthorEmail
	if name == "" {
		name = defaultAuthorName
	}
	if email == "" {
		email = defaultAuthorEmail
	}
	sig := &object.Signature{Name: name, Email: email, When: r.now()}
	_, err = wt.Commit(message, &git.CommitOptions{Author: sig, Committer: sig})
	if stderrors.Is(err, git.ErrEmptyCommit) {
		return ErrNothingToCommit
	}
	return err
}

func (r *GoGitRepository) Push(ctx context.Context, remote, branch string) error {
	repo, err := r.open()
	if err != nil {
		return err
	}
	head, err := repo.Head()
	if err != nil {
		return fmt.Errorf("resolve HEAD: %w", err)
	}
	src := head.Name()
	if !src.IsBranch() {
		return fmt.Errorf("HEAD is detached at %s", head.Hash())
	}
	spec := gitconfig.RefSpec(fmt.Sprintf("%s:%s", src, plumbing.NewBranchReferenceName(branch)))
	err = repo.PushContext(ctx, &git.PushOptions{
		RemoteName: remote,
		RefSpecs:   []gitconfig.RefSpec{spec},
		Auth:       r.Auth,
	})
	if stderrors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil
	}
	return err
}

func (r *GoGitRepository) Status(ctx context.Context) (string, error) {
	repo, err := r.open()
	if err != nil {
		return "", err
	}
	wt, err := r.worktree(ctx)
	if err != nil {
		return "", err
	}
	st, err := wt.Status()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if head, err := repo.Head(); err == nil {
		fmt.Fprintf(&b, "## %s\n", head.Name().Short())
	} else {
		b.WriteString("## (no commits)\n")
	}
	b.WriteString(st.String())
	return b.String(), nil
}

var _ Repository = (*GoGitRepository)(nil)
