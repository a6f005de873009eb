package commands

import (
	"context"

	"git.home.luguber.info/inful/sitekeeper/internal/config"
	"git.home.luguber.info/inful/sitekeeper/internal/site"
)

// PublishCmd implements the 'publish' command.
type PublishCmd struct {
	Message string `short:"m" help:"Commit message (default: publish.message)"`
	Branch  string `short:"b" help:"Branch to push (default: publish.branch)"`
}

func (p *PublishCmd) Run(g *Global, root *CLI) error {
	ctx := context.Background()
	return withRuntime(ctx, g, root, func(_ *config.Config, rt *site.Runtime) error {
		res, err := rt.Publish(ctx, p.Message, p.Branch)
		if err != nil {
			if res.Detail != "" {
				g.logger().Debug("Publish output", "detail", res.Detail)
			}
			return err
		}
		g.printf("%s\n", res.Summary())
		return nil
	})
}
