package publish

import (
	"fmt"

	"git.home.luguber.info/inful/sitekeeper/internal/auth"
	"git.home.luguber.info/inful/sitekeeper/internal/config"
	"git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
)

// NewRepository builds the backend selected by cfg.Backend.
func NewRepository(cfg config.PublishConfig) (Repository, error) {
	switch cfg.Backend {
	case "", config.BackendExec:
		r := NewExecRepository(cfg.RepoDir)
		r.AuthorName = cfg.Author.Name
		r.AuthorEmail = cfg.Author.Email
		return r, nil
	case config.BackendGoGit:
		method, err := auth.CreateAuth(cfg.Auth)
		if err != nil {
			return nil, err
		}
		r := NewGoGitRepository(cfg.RepoDir, method)
		r.AuthorName = cfg.Author.Name
		r.AuthorEmail = cfg.Author.Email
		return r, nil
	default:
		return nil, errors.ConfigError(fmt.Sprintf("unknown publish backend %q", cfg.Backend)).
			WithContext("backend", cfg.Backend).
			Build()
	}
}

// FromConfig returns a Publisher for the configured repository.
func FromConfig(cfg config.PublishConfig, opts ...Option) (*Publisher, error) {
	repo, err := NewRepository(cfg)
	if err != nil {
		return nil, err
	}
	base := []Option{
		WithRemote(cfg.Remote),
		WithDefaults(cfg.Message, cfg.Branch),
		WithTimeout(cfg.Timeout),
	}
	return NewPublisher(repo, append(base, opts...)...), nil
}
