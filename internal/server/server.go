// Package server wires the HTTP API: router, middleware chain and handlers.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/and161185/trust-backend/internal/config"
	"github.com/and161185/trust-backend/internal/server/middleware"
	"github.com/and161185/trust-backend/internal/trust"
	"github.com/and161185/trust-backend/storage"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// statusListLimit caps GET /api/status.
const statusListLimit = 1000

// Storage is the record store the handlers read from and write to.
type Storage = storage.Storage

type Server struct {
	Storage  Storage
	Config   *config.ServerConfig
	Trust    *trust.Provider
	Registry *prom.Registry

	httpMetrics *middleware.HTTPMetrics
}

func NewServer(st Storage, cfg *config.ServerConfig) *Server {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}

	reg := prom.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Server{
		Storage:     st,
		Config:      cfg,
		Trust:       trust.NewProvider(st),
		Registry:    reg,
		httpMetrics: middleware.NewHTTPMetrics(reg),
	}
}

// Router builds the HTTP handler with the full middleware chain.
func (srv *Server) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Recoverer)
	router.Use(chimw.StripSlashes)
	router.Use(srv.httpMetrics.Handler)
	router.Use(middleware.LogMiddleware(srv.Config.Logger))
	router.Use(cors.Handler(corsOptions(srv.Config.CORSOrigins)))

	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.DecompressMiddleware)
		r.Use(middleware.CompressMiddleware)

		r.Get("/", srv.RootHandler)
		r.Post("/status", srv.CreateStatusCheckHandler)
		r.Get("/status", srv.ListStatusChecksHandler)
		r.Get("/metrics", srv.TrustMetricsHandler)
		r.Get("/ping", srv.PingHandler)
	})

	router.Handle("/metrics/prometheus", promhttp.HandlerFor(srv.Registry, promhttp.HandlerOpts{EnableOpenMetrics: true}))

	return router
}

// corsOptions allows every method and header with credentials. A "*" origin
// echoes the caller's origin, since browsers reject a literal "*" together
// with credentials.
func corsOptions(origins []string) cors.Options {
	opts := cors.Options{
		AllowedMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}
	for _, o := range origins {
		if o == "*" {
			opts.AllowOriginFunc = func(_ *http.Request, _ string) bool { return true }
			return opts
		}
	}
	opts.AllowedOrigins = origins
	return opts
}

// Run serves until ctx is cancelled, then drains in-flight requests for up to
// Config.ShutdownTimeout. It returns nil after a clean shutdown.
func (srv *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              srv.Config.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		srv.Config.Logger.Infow("server started", "addr", srv.Config.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := srv.Config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	srv.Config.Logger.Info("shutting down server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
