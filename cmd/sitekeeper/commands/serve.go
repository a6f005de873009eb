package commands

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	prom "github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/sitekeeper/internal/config"
	"git.home.luguber.info/inful/sitekeeper/internal/content"
	"git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekeeper/internal/logfields"
	"git.home.luguber.info/inful/sitekeeper/internal/metrics"
	"git.home.luguber.info/inful/sitekeeper/internal/scheduler"
	"git.home.luguber.info/inful/sitekeeper/internal/server/httpserver"
	"git.home.luguber.info/inful/sitekeeper/internal/site"
	"git.home.luguber.info/inful/sitekeeper/internal/watch"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Addr string `help:"Listen address (default: server.addr)"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.serve(ctx, g, root)
}

func (s *ServeCmd) serve(ctx context.Context, g *Global, root *CLI) error {
	logger := g.logger()

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var metricsHandler http.Handler
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if cfg.Metrics.Enabled {
		reg := prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
		metricsHandler = metrics.HTTPHandler(reg)
	}

	rt, err := site.Open(ctx, cfg, recorder, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rt.Close(); cerr != nil {
			logger.Warn("Failed to close runtime", logfields.Error(cerr))
		}
	}()

	// Repair a document left stale by an earlier crash.
	if _, err := rt.Resync(ctx); err != nil {
		logger.Warn("Initial sync failed", logfields.Error(err))
	}

	srv := httpserver.New(rt.Manager, httpserver.Options{
		Addr:           firstNonEmpty(s.Addr, cfg.Server.Addr),
		Logger:         logger,
		Recorder:       recorder,
		MetricsHandler: metricsHandler,
	})

	var w *watch.Watcher
	if cfg.Watch.Enabled {
		if err := os.MkdirAll(cfg.Site.DataDir, 0o750); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to create data directory").
				WithContext("path", cfg.Site.DataDir).
				Build()
		}
		w = watch.New(cfg.Site.DataDir, cfg.Watch.Debounce, func(ctx context.Context, kind content.Kind) error {
			_, err := rt.Resync(ctx, kind)
			return err
		}, logger, watch.WithSkip(rt.Manager.Store().OwnWrite))
	}

	grp, gctx := errgroup.WithContext(ctx)

	var sched *scheduler.Scheduler
	if cfg.Publish.Interval > 0 {
		sched, err = scheduler.New(logger)
		if err != nil {
			return err
		}
		_, err = sched.ScheduleEvery("publish", cfg.Publish.Interval, func() {
			res, err := rt.Publish(gctx, "", "")
			if err != nil {
				logger.Warn("Scheduled publish failed", logfields.Failure(string(res.Failure)), logfields.Error(err))
			}
		})
		if err != nil {
			return err
		}
	}

	grp.Go(func() error { return srv.Run(gctx) })
	if w != nil {
		grp.Go(func() error { return w.Run(gctx) })
	}
	if sched != nil {
		grp.Go(func() error { return sched.Run(gctx) })
	}

	logger.Info("sitekeeper serving",
		logfields.Path(cfg.Site.Document),
		logfields.Branch(cfg.Publish.Branch))
	return grp.Wait()
}
