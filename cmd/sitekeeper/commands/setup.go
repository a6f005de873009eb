package commands

import (
	"os"

	"git.home.luguber.info/inful/sitekeeper/internal/config"
	"git.home.luguber.info/inful/sitekeeper/internal/publish"
)

// SetupCmd implements the 'setup' command. Flags override the publish
// section of the configuration file, which is optional here.
type SetupCmd struct {
	Dir        string `help:"Working tree to prepare (default: publish.repo_dir)"`
	RemoteURL  string `name:"remote-url" help:"URL the remote should point at"`
	RemoteName string `name:"remote" help:"Remote name (default: publish.remote)"`
	Branch     string `help:"Initial branch (default: publish.branch)"`
}

func (s *SetupCmd) Run(g *Global, root *CLI) error {
	cfg := config.Default()
	if _, err := os.Stat(root.Config); err == nil {
		loaded, err := config.Load(root.Config)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	opts := publish.SetupOptions{
		Dir:        firstNonEmpty(s.Dir, cfg.Publish.RepoDir),
		RemoteName: firstNonEmpty(s.RemoteName, cfg.Publish.Remote),
		RemoteURL:  s.RemoteURL,
		Branch:     firstNonEmpty(s.Branch, cfg.Publish.Branch),
	}
	res, err := publish.Setup(opts)
	if err != nil {
		return err
	}

	g.printf("Repository: %s\n", opts.Dir)
	if res.Initialized {
		g.printf("  initialized on branch %s\n", opts.Branch)
	} else {
		g.printf("  already initialized\n")
	}
	if res.RemoteConfigured {
		g.printf("  remote %s -> %s\n", opts.RemoteName, opts.RemoteURL)
	}
	if res.GitignoreWritten {
		g.printf("  wrote .gitignore\n")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
