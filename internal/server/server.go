package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"github.com/hejijunhao/sawmill/internal/config"
	"github.com/hejijunhao/sawmill/internal/engine"
	"github.com/hejijunhao/sawmill/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// Server exposes upload, analyze and export over HTTP.
type Server struct {
	engine   *gin.Engine
	analyzer *engine.Engine
	store    storage.Store
	cfg      config.ServerConfig
	reports  *cache.Cache
	metrics  *metrics
}

// New creates a Server. Uploads go to store and are analyzed with eng.
func New(eng *engine.Engine, store storage.Store, cfg config.ServerConfig) *Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false

	s := &Server{
		engine:   r,
		analyzer: eng,
		store:    store,
		cfg:      cfg,
		reports:  cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		metrics:  newMetrics(),
	}

	r.Use(gin.Recovery(), requestID(), cors(), s.metrics.instrument())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "storage": s.store.Type()})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})))

	s.engine.POST("/upload/", s.handleUpload)
	s.engine.GET("/analyze/:filename", s.handleAnalyze)
	s.engine.GET("/export/:filename", s.handleExport)
}

// Handler returns the underlying http.Handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Registry exposes the server's metrics registry.
func (s *Server) Registry() *prometheus.Registry {
	return s.metrics.registry
}

// Run serves on cfg.Addr until ctx is cancelled, then shuts down gracefully.
// The retention sweep runs alongside when cfg.Retention is positive.
func (s *Server) Run(ctx context.Context) error {
	if s.cfg.Retention > 0 {
		c, err := s.startRetention(ctx)
		if err != nil {
			return err
		}
		defer c.Stop()
	}

	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", s.cfg.Addr, "storage", s.store.Type())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	slog.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

func (s *Server) startRetention(ctx context.Context) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(s.cfg.RetentionSchedule, func() { s.sweep(ctx) }); err != nil {
		return nil, fmt.Errorf("server: retention schedule %q: %w", s.cfg.RetentionSchedule, err)
	}
	c.Start()
	slog.Info("retention sweep scheduled", "schedule", s.cfg.RetentionSchedule, "retention", s.cfg.Retention)
	return c, nil
}

// sweep removes uploads older than the retention window.
func (s *Server) sweep(ctx context.Context) {
	removed, err := storage.Sweep(ctx, s.store, time.Now().Add(-s.cfg.Retention))
	for _, name := range removed {
		s.reports.Delete(name)
	}
	s.metrics.swept.Add(float64(len(removed)))
	if err != nil {
		slog.Error("retention sweep failed", "removed", len(removed), "error", err)
		return
	}
	if len(removed) > 0 {
		slog.Info("retention sweep", "removed", len(removed))
	}
}
