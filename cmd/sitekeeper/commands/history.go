package commands

import (
	"context"
	"time"

	"git.home.luguber.info/inful/sitekeeper/internal/config"
	"git.home.luguber.info/inful/sitekeeper/internal/site"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int  `short:"n" help:"Number of events to show" default:"20"`
	JSON  bool `help:"Print events as JSON"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	ctx := context.Background()
	return withRuntime(ctx, g, root, func(_ *config.Config, rt *site.Runtime) error {
		events, err := rt.History(ctx, h.Limit)
		if err != nil {
			return err
		}
		if h.JSON {
			return g.printJSON(events)
		}
		for _, e := range events {
			g.printf("%s  %-18s %-8s %s\n", e.Timestamp.Local().Format(time.DateTime), e.Type, e.Subject, e.OperationID)
		}
		return nil
	})
}
