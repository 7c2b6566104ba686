// Package server exposes insight generation over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/blackwell-systems/insightwatch/internal/cache"
	"github.com/blackwell-systems/insightwatch/internal/runner"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Store is the record store behind the stored-data routes.
type Store interface {
	runner.Source
	Ping(ctx context.Context) error
	Dismiss(ctx context.Context, domain, insightID string) error
	Undismiss(ctx context.Context, domain, insightID string) error
}

// Server routes HTTP requests to the runner.
type Server struct {
	runner  *runner.Runner
	store   Store
	cache   *cache.Cache
	logger  *zap.Logger
	origins []string
	engine  *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithStore enables the stored-data and dismissal routes.
func WithStore(s Store) Option {
	return func(srv *Server) { srv.store = s }
}

// WithCache caches generated insights. A nil cache disables caching.
func WithCache(c *cache.Cache) Option {
	return func(srv *Server) { srv.cache = c }
}

// WithLogger sets the request and error logger.
func WithLogger(l *zap.Logger) Option {
	return func(srv *Server) { srv.logger = l }
}

// WithAllowOrigins sets the CORS origins. The default allows any origin.
func WithAllowOrigins(origins ...string) Option {
	return func(srv *Server) { srv.origins = origins }
}

// New builds a server and its routes.
func New(r *runner.Runner, opts ...Option) *Server {
	srv := &Server{
		runner:  r,
		logger:  zap.NewNop(),
		origins: []string{"*"},
	}
	for _, opt := range opts {
		opt(srv)
	}
	if len(srv.origins) == 0 {
		srv.origins = []string{"*"}
	}
	srv.engine = srv.routes()
	return srv
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(s.logger), recovery(s.logger))

	allowAll := len(s.origins) == 1 && s.origins[0] == "*"
	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.origins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: !allowAll,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", s.healthCheck)

	api := r.Group("/api/insights")
	api.GET("", s.getDashboard)
	api.GET("/:domain", s.getStoredInsights)
	api.POST("/:domain", s.generateInsights)
	api.POST("/:domain/dismiss/:id", s.dismissInsight)
	api.DELETE("/:domain/dismiss/:id", s.undismissInsight)

	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", addr))
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info("server shutting down")
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// requestLogger logs one line per request.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// recovery turns handler panics into a JSON 500.
func recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("handler panicked",
			zap.String("path", c.Request.URL.Path),
			zap.Any("value", recovered),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	})
}
