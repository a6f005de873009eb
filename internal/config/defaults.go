package config

import "time"

// Default values applied when the configuration leaves a field empty.
const (
	DefaultDocument       = "./index.html"
	DefaultDataDir        = "./data"
	DefaultAddr           = ":5000"
	DefaultPrimaryReviews = 3
	DefaultBackend        = BackendExec
	DefaultRemote         = "origin"
	DefaultBranch         = "main"
	DefaultMessage        = "Update website content"
	DefaultTimeout        = 2 * time.Minute
	DefaultSubject        = "sitekeeper.content"
	DefaultDebounce       = 500 * time.Millisecond
)

// Publish backends.
const (
	BackendExec  = "exec"
	BackendGoGit = "go-git"
)

func applyDefaults(cfg *Config) {
	if cfg.Site.Document == "" {
		cfg.Site.Document = DefaultDocument
	}
	if cfg.Site.DataDir == "" {
		cfg.Site.DataDir = DefaultDataDir
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultAddr
	}
	if cfg.Render.PrimaryReviews <= 0 {
		cfg.Render.PrimaryReviews = DefaultPrimaryReviews
	}

	p := &cfg.Publish
	if p.Backend == "" {
		p.Backend = DefaultBackend
	}
	if p.RepoDir == "" {
		p.RepoDir = "."
	}
	if p.Remote == "" {
		p.Remote = DefaultRemote
	}
	if p.Branch == "" {
		p.Branch = DefaultBranch
	}
	if p.Message == "" {
		p.Message = DefaultMessage
	}
	if p.Timeout <= 0 {
		p.Timeout = DefaultTimeout
	}

	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = DefaultSubject
	}
	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = DefaultDebounce
	}
}
