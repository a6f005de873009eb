package site

import (
	"context"
	stderrors "errors"
	"log/slog"

	"git.home.luguber.info/inful/sitekeeper/internal/config"
	"git.home.luguber.info/inful/sitekeeper/internal/content"
	"git.home.luguber.info/inful/sitekeeper/internal/eventstore"
	"git.home.luguber.info/inful/sitekeeper/internal/htmlsync"
	"git.home.luguber.info/inful/sitekeeper/internal/logfields"
	"git.home.luguber.info/inful/sitekeeper/internal/metrics"
	"git.home.luguber.info/inful/sitekeeper/internal/notify"
	"git.home.luguber.info/inful/sitekeeper/internal/publish"
	"git.home.luguber.info/inful/sitekeeper/internal/render"
)

// Runtime is a Manager wired from configuration together with the
// resources it owns.
type Runtime struct {
	*Manager
	Sync     *htmlsync.Synchronizer
	Log      *eventstore.Log
	Notifier notify.Notifier
}

// Open builds a Runtime from cfg. History and notifications are only set up
// when configured; a NATS server that cannot be reached is logged and
// notifications are disabled.
func Open(ctx context.Context, cfg *config.Config, recorder metrics.Recorder, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}
	renderer, err := render.New(render.Options{FAQMarkdown: cfg.Render.FAQMarkdown})
	if err != nil {
		return nil, err
	}
	syncer := htmlsync.New(renderer,
		htmlsync.WithSelectors(SelectorsFromConfig(cfg.Anchors)),
		htmlsync.WithPrimaryReviews(cfg.Render.PrimaryReviews),
		htmlsync.WithLogger(logger))

	publisher, err := publish.FromConfig(cfg.Publish, publish.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	rt := &Runtime{Sync: syncer, Notifier: notify.Noop{}}
	opts := []Option{
		WithPublisher(publisher),
		WithAutoPublish(cfg.Publish.Auto),
		WithRecorder(recorder),
		WithLogger(logger),
	}

	if cfg.History.Path != "" {
		hist, err := eventstore.Open(ctx, cfg.History.Path)
		if err != nil {
			return nil, err
		}
		rt.Log = hist
		opts = append(opts, WithHistory(hist))
	}

	if cfg.Notify.NATSURL != "" {
		n, err := notify.NewNATS(cfg.Notify.NATSURL, cfg.Notify.Subject, logger)
		if err != nil {
			logger.Warn("Notifications disabled", logfields.Error(err))
		} else {
			rt.Notifier = n
			opts = append(opts, WithNotifier(n))
		}
	}

	store := content.NewStore(cfg.Site.DataDir)
	rt.Manager = New(store, syncer, cfg.Site.Document, opts...)
	return rt, nil
}

// Close releases the history database and the notification connection.
func (rt *Runtime) Close() error {
	var errs []error
	if rt.Log != nil {
		errs = append(errs, rt.Log.Close())
	}
	if rt.Notifier != nil {
		errs = append(errs, rt.Notifier.Close())
	}
	return stderrors.Join(errs...)
}

// SelectorsFromConfig converts configured anchor selectors.
func SelectorsFromConfig(anchors map[string]config.AnchorConfig) map[htmlsync.Anchor]htmlsync.Selector {
	out := make(map[htmlsync.Anchor]htmlsync.Selector, len(anchors))
	for name, ac := range anchors {
		out[htmlsync.Anchor(name)] = selectorFromConfig(ac)
	}
	return out
}

func selectorFromConfig(ac config.AnchorConfig) htmlsync.Selector {
	sel := htmlsync.Selector{Tag: ac.Tag, ID: ac.ID, Class: ac.Class, Attrs: ac.Attrs}
	if ac.Within != nil {
		within := selectorFromConfig(*ac.Within)
		sel.Within = &within
	}
	return sel
}
