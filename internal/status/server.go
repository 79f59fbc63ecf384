// Package status serves a small HTTP surface describing the running client:
// liveness, readiness (an open server session), the connection snapshot and
// Prometheus metrics.
package status

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danmuck/vostok/internal/auth"
	"github.com/danmuck/vostok/internal/connection"
	"github.com/danmuck/vostok/internal/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	serverName = "vostokctl"
	version    = "0.1.0"
)

// SnapshotSource reports the current session. *connection.Manager
// implements it.
type SnapshotSource interface {
	Snapshot() connection.Snapshot
}

type Option func(*Server)

// WithToken requires "Authorization: Bearer <token>" on /status and
// /metrics. Liveness and readiness stay open.
func WithToken(token string) Option {
	return func(s *Server) {
		if token != "" {
			s.guard = auth.Middleware(auth.StaticToken{Token: token})
		}
	}
}

type Server struct {
	addr    string
	source  SnapshotSource
	router  *gin.Engine
	guard   gin.HandlerFunc
	started time.Time
}

func New(addr string, source SnapshotSource, corsOrigins []string, opts ...Option) *Server {
	observability.RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(observability.Logger("status")))
	r.Use(observability.RequestMetricsMiddleware(serverName))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(corsOrigins),
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		addr:    addr,
		source:  source,
		router:  r,
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.started).String(),
			"service": serverName,
			"version": version,
		})
	})

	s.router.GET("/ready", func(c *gin.Context) {
		snap := s.source.Snapshot()
		ready := snap.State == connection.StateConnected.String()
		code := http.StatusOK
		if !ready {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"ready":   ready,
			"state":   snap.State,
			"service": serverName,
			"version": version,
		})
	})

	guarded := s.router.Group("/")
	if s.guard != nil {
		guarded.Use(s.guard)
	}
	guarded.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.source.Snapshot())
	})
	guarded.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Run serves until ctx ends, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.addr).Msg("status.Server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
