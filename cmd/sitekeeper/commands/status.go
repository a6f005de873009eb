package commands

import (
	"context"
	"strings"

	"git.home.luguber.info/inful/sitekeeper/internal/config"
	"git.home.luguber.info/inful/sitekeeper/internal/content"
	"git.home.luguber.info/inful/sitekeeper/internal/htmlsync"
	"git.home.luguber.info/inful/sitekeeper/internal/site"
)

// StatusCmd implements the 'status' command.
type StatusCmd struct {
	JSON bool `help:"Print the status as JSON"`
}

func (s *StatusCmd) Run(g *Global, root *CLI) error {
	ctx := context.Background()
	return withRuntime(ctx, g, root, func(_ *config.Config, rt *site.Runtime) error {
		st, err := rt.Status(ctx)
		if err != nil {
			return err
		}
		if s.JSON {
			return g.printJSON(st)
		}
		printStatus(g, st)
		return nil
	})
}

func printStatus(g *Global, st site.Status) {
	g.printf("Document: %s\n", st.Document)

	g.printf("Collections:\n")
	for _, k := range content.Kinds() {
		g.printf("  %-8s %d\n", k, st.Collections[k])
	}

	g.printf("Anchors:\n")
	if st.AnchorError != "" {
		g.printf("  unavailable: %s\n", st.AnchorError)
	}
	for _, a := range htmlsync.Anchors() {
		n, ok := st.Anchors[a]
		if !ok {
			continue
		}
		state := "ok"
		switch {
		case n == 0:
			state = "missing"
		case n > 1:
			state = "ambiguous"
		}
		g.printf("  %-18s %s\n", a, state)
	}

	switch {
	case st.GitError != "":
		g.printf("Git: %s\n", st.GitError)
	case st.Git != "":
		lines := strings.Split(strings.TrimRight(st.Git, "\n"), "\n")
		g.printf("Git:\n")
		for _, l := range lines {
			g.printf("  %s\n", l)
		}
	}

	if st.Activity != nil && st.Activity.LastPublish != nil {
		lp := st.Activity.LastPublish
		g.printf("Last publish: %s", lp.Outcome)
		if lp.Failure != "" {
			g.printf(" (%s)", lp.Failure)
		}
		g.printf("\n")
	}
	if st.Activity != nil {
		for _, k := range st.Activity.Kinds {
			if k.SyncPartial {
				g.printf("Partial sync: %s\n", k.Kind)
			}
		}
	}
}
