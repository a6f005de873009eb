// Package httpserver wires the sitekeeper HTTP API onto a chi router and runs it.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	derrors "git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekeeper/internal/metrics"
	"git.home.luguber.info/inful/sitekeeper/internal/server/handlers"
	smw "git.home.luguber.info/inful/sitekeeper/internal/server/middleware"
)

const (
	DefaultAddr     = "127.0.0.1:5000"
	shutdownTimeout = 10 * time.Second
)

// Options configures a Server.
type Options struct {
	Addr   string
	Logger *slog.Logger
	// Recorder observes every request. Nil disables request metrics.
	Recorder metrics.Recorder
	// MetricsHandler is mounted at /metrics when set.
	MetricsHandler http.Handler
}

// Server serves the admin API.
type Server struct {
	addr    string
	logger  *slog.Logger
	handler http.Handler
}

// New constructs the router for s.
func New(s handlers.Site, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	adapter := derrors.NewHTTPErrorAdapter(opts.Logger)

	contentHandlers := handlers.NewContentHandlers(s, adapter)
	gitHandlers := handlers.NewGitHandlers(s, adapter)
	monitoringHandlers := handlers.NewMonitoringHandlers(s, adapter)

	r := chi.NewRouter()
	r.Use(smw.Chain(opts.Logger, adapter, opts.Recorder))
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		adapter.WriteErrorResponse(w, req, derrors.NotFoundError("route not found").
			WithContext("path", req.URL.Path).
			Build())
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		adapter.WriteErrorResponse(w, req, derrors.ValidationError("invalid HTTP method").
			WithContext("method", req.Method).
			WithContext("path", req.URL.Path).
			Build())
	})

	r.Get("/healthz", monitoringHandlers.HandleHealthCheck)
	if opts.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", monitoringHandlers.HandleStatus)
		r.Get("/history", monitoringHandlers.HandleHistory)
		r.Post("/sync", contentHandlers.HandleSyncAll)

		r.Route("/{kind}", func(r chi.Router) {
			r.Get("/", contentHandlers.HandleList)
			r.Post("/", contentHandlers.HandleAdd)
			r.Post("/sync", contentHandlers.HandleSyncKind)
			r.Get("/{id}", contentHandlers.HandleGet)
			r.Put("/{id}", contentHandlers.HandleUpdate)
			r.Delete("/{id}", contentHandlers.HandleDelete)
		})
	})

	r.Route("/git", func(r chi.Router) {
		r.Post("/push", gitHandlers.HandlePush)
		r.Get("/status", gitHandlers.HandleStatus)
	})

	return &Server{addr: opts.Addr, logger: opts.Logger, handler: r}
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Run binds the address and serves until ctx is cancelled, then shuts down
// gracefully. Binding errors are returned before any request is served.
func (s *Server) Run(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryNetwork, "failed to bind HTTP address").
			WithContext("addr", s.addr).
			Fatal().
			Build()
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("HTTP server started", slog.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	<-errCh
	s.logger.Info("HTTP server stopped")
	return nil
}
