// Package server implements the gallery preview server started by
// "waterfall serve".
//
// The server owns one [gallery.View]. Layout requests resize that view and
// return the packed rows; display references minted by the thumbnail
// resolver are served back under /blob/. The items file is watched and
// reloaded on change.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/waterfall/pkg/gallery"
	"github.com/matzehuels/waterfall/pkg/photo"
	"github.com/matzehuels/waterfall/pkg/thumbs"
)

const shutdownTimeout = 10 * time.Second

// Options configures a Server.
type Options struct {
	View     *gallery.View
	Resolver *thumbs.Resolver

	// Load reads the current items. It is called by Reload.
	Load func() ([]*photo.Item, error)

	// Gatherer backs /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer

	Logger *log.Logger
}

// Server serves layouts, blobs and photo tiers over HTTP.
type Server struct {
	// mu serializes cycles and the reads of items they annotate.
	mu       sync.Mutex
	view     *gallery.View
	resolver *thumbs.Resolver
	load     func() ([]*photo.Item, error)
	gatherer prometheus.Gatherer
	logger   *log.Logger
}

// New creates a Server. View and Resolver are required.
func New(opts Options) (*Server, error) {
	if opts.View == nil || opts.Resolver == nil {
		return nil, errors.New("server: view and resolver are required")
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Server{
		view:     opts.View,
		resolver: opts.Resolver,
		load:     opts.Load,
		gatherer: opts.Gatherer,
		logger:   opts.Logger,
	}, nil
}

// Handler returns the routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.logRequests)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/layout", s.handleLayout)
		r.Get("/photos/{id}/{tier}", s.handlePhoto)
	})
	r.Get("/blob/{ref}", s.handleBlob)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Reload reads the items again and runs a full cycle over them.
func (s *Server) Reload(ctx context.Context) error {
	if s.load == nil {
		return errors.New("server: no item loader configured")
	}
	items, err := s.load()
	if err != nil && len(items) == 0 {
		return err
	}
	if err != nil {
		s.logger.Warn("some records were skipped", "err", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.view.Load(ctx, items)
	if err != nil {
		return err
	}
	s.logger.Info("gallery loaded", "items", res.Stats.Items, "rows", res.Stats.Rows)
	return nil
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Microsecond),
			"id", chimiddleware.GetReqID(r.Context()))
	})
}
