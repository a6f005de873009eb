package publish

import (
	"context"
	"errors"
)

// ErrNothingToCommit is returned by Repository.Commit when the index has no changes.
var ErrNothingToCommit = errors.New("nothing to commit")

// Repository is the version-control surface the pipeline needs.
type Repository interface {
	// IsRepository reports whether the directory is a git working tree.
	IsRepository(ctx context.Context) (bool, error)
	// HasRemote reports whether a remote with the given name is configured.
	HasRemote(ctx context.Context, name string) (bool, error)
	// HasChanges reports whether the working tree has pending changes.
	HasChanges(ctx context.Context) (bool, error)
	// StageAll stages every pending change, including deletions.
	StageAll(ctx context.Context) error
	// Commit records the staged changes. It returns ErrNothingToCommit when there are none.
	Commit(ctx context.Context, message string) error
	// Push sends the current HEAD to refs/heads/<branch> on the remote.
	Push(ctx context.Context, remote, branch string) error
	// Status returns a human-readable working tree summary.
	Status(ctx context.Context) (string, error)
}
