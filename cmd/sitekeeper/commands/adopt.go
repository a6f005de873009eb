package commands

import (
	"context"

	"git.home.luguber.info/inful/sitekeeper/internal/config"
	"git.home.luguber.info/inful/sitekeeper/internal/site"
)

// AdoptCmd implements the 'adopt' command.
type AdoptCmd struct {
	NoSync bool `name:"no-sync" help:"Only add markers, do not resynchronize afterwards"`
}

func (a *AdoptCmd) Run(g *Global, root *CLI) error {
	ctx := context.Background()
	return withRuntime(ctx, g, root, func(cfg *config.Config, rt *site.Runtime) error {
		results, err := rt.Sync.AdoptFile(cfg.Site.Document)
		if err != nil {
			return err
		}
		for _, r := range results {
			switch {
			case r.AlreadyMarked:
				g.printf("%-18s already marked\n", r.Anchor)
			case r.Adopted:
				g.printf("%-18s marked (%s)\n", r.Anchor, r.Selector)
			default:
				g.printf("%-18s not found (%s)\n", r.Anchor, r.Selector)
			}
		}
		if a.NoSync {
			return nil
		}
		_, err = rt.Resync(ctx)
		return err
	})
}
