package publish

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekeeper/internal/storage"
)

// DefaultGitignore is written by Setup when the working tree has no .gitignore.
const DefaultGitignore = `# Python
__pycache__/
*.py[cod]
*$py.class
*.so
.Python
env/
venv/
ENV/
*.egg-info/

# IDEs
.vscode/
.idea/
*.swp

# OS
.DS_Store
Thumbs.db

# Environment
.env
.env.local

# Logs
*.log

# sitekeeper
.sitekeeper/
*.tmp
`

// SetupOptions configures Setup.
type SetupOptions struct {
	Dir        string
	RemoteName string
	RemoteURL  string
	Branch     string
}

// SetupResult reports what Setup changed.
type SetupResult struct {
	Initialized      bool `json:"initialized"`
	RemoteConfigured bool `json:"remote_configured"`
	GitignoreWritten bool `json:"gitignore_written"`
}

// Setup prepares dir for publishing: it initializes a repository when none
// exists, points the remote at RemoteURL (replacing an existing one) and
// writes a default .gitignore if the tree has none. Running it twice is safe.
func Setup(opts SetupOptions) (SetupResult, error) {
	var res SetupResult
	if opts.RemoteName == "" {
		opts.RemoteName = DefaultRemote
	}
	if opts.Branch == "" {
		opts.Branch = DefaultBranch
	}
	if err := ValidateBranch(opts.Branch); err != nil {
		return res, err
	}
	if err := ValidateRemote(opts.RemoteName); err != nil {
		return res, err
	}
	if err := os.MkdirAll(opts.Dir, 0o750); err != nil {
		return res, errors.WrapError(err, errors.CategoryFileSystem, "failed to create repository directory").
			WithContext("path", opts.Dir).
			Build()
	}

	repo, err := git.PlainInitWithOptions(opts.Dir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.NewBranchReferenceName(opts.Branch)},
	})
	switch {
	case err == nil:
		res.Initialized = true
	case stderrors.Is(err, git.ErrRepositoryAlreadyExists):
		repo, err = git.PlainOpen(opts.Dir)
		if err != nil {
			return res, errors.WrapError(err, errors.CategoryGit, "failed to open repository").Build()
		}
	default:
		return res, errors.WrapError(err, errors.CategoryGit, "failed to initialize repository").Build()
	}

	if opts.RemoteURL != "" {
		if err := setRemote(repo, opts.RemoteName, opts.RemoteURL); err != nil {
			return res, err
		}
		res.RemoteConfigured = true
	}

	ignorePath := filepath.Join(opts.Dir, ".gitignore")
	if _, err := os.Stat(ignorePath); os.IsNotExist(err) {
		if err := storage.WriteFileAtomic(ignorePath, []byte(DefaultGitignore), 0o644); err != nil {
			return res, errors.WrapError(err, errors.CategoryFileSystem, "failed to write .gitignore").
				WithContext("path", ignorePath).
				Build()
		}
		res.GitignoreWritten = true
	}
	return res, nil
}

func setRemote(repo *git.Repository, name, url string) error {
	if existing, err := repo.Remote(name); err == nil {
		urls := existing.Config().URLs
		if len(urls) == 1 && urls[0] == url {
			return nil
		}
		if err := repo.DeleteRemote(name); err != nil {
			return errors.WrapError(err, errors.CategoryGit, fmt.Sprintf("failed to replace remote %q", name)).Build()
		}
	}
	_, err := repo.CreateRemote(&gitconfig.RemoteConfig{Name: name, URLs: []string{url}})
	if err != nil {
		return errors.WrapError(err, errors.CategoryGit, fmt.Sprintf("failed to add remote %q", name)).
			WithContext("remote", name).
			Build()
	}
	return nil
}
