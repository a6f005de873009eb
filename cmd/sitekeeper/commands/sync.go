package commands

import (
	"context"

	"git.home.luguber.info/inful/sitekeeper/internal/config"
	"git.home.luguber.info/inful/sitekeeper/internal/content"
	"git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekeeper/internal/site"
)

// SyncCmd implements the 'sync' command.
type SyncCmd struct {
	Kinds  []string `arg:"" optional:"" help:"Collections to synchronize (default: all)"`
	Strict bool     `help:"Fail when an anchor is skipped"`
}

func (s *SyncCmd) Run(g *Global, root *CLI) error {
	kinds, err := parseKinds(s.Kinds)
	if err != nil {
		return err
	}
	ctx := context.Background()
	return withRuntime(ctx, g, root, func(cfg *config.Config, rt *site.Runtime) error {
		reports, err := rt.Resync(ctx, kinds...)
		if err != nil {
			return err
		}
		var skipped int
		for _, r := range reports {
			state := "unchanged"
			if r.Changed {
				state = "updated"
			}
			g.printf("%-8s %s\n", r.Kind, state)
			for _, a := range r.Skipped() {
				skipped++
				g.printf("  skipped %s: %s\n", a.Anchor, a.Skipped)
			}
		}
		if s.Strict && skipped > 0 {
			return errors.DocumentError("some anchors were not synchronized").
				WithContext("document", cfg.Site.Document).
				WithContext("skipped", skipped).
				Build()
		}
		return nil
	})
}

func parseKinds(names []string) ([]content.Kind, error) {
	kinds := make([]content.Kind, 0, len(names))
	for _, n := range names {
		k, err := content.ParseKind(n)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}
