// Package api exposes the risk service over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/supptracker-server/internal/cache"
	"github.com/supptracker-server/internal/config"
	"github.com/supptracker-server/internal/domain"
	"github.com/supptracker-server/internal/middleware"
	"github.com/supptracker-server/internal/service"
)

// RiskService is the slice of the core the HTTP layer depends on.
type RiskService interface {
	domain.StackEvaluator
	Search(query string, limit int) []domain.CompoundMatch
	Compound(id string) (*domain.Compound, []*domain.InteractionRecord, error)
	CheckPair(refA, refB string, ctx *domain.UserContext) (*service.PairAssessment, error)
	Health() domain.HealthReport
	Ready() bool
	Reload() error
}

// Server is the HTTP front of the risk service.
type Server struct {
	cfg       *config.Config
	service   RiskService
	respCache *cache.ResponseCache
	logger    *logrus.Logger
	router    *gin.Engine
	server    *http.Server
}

// NewServer wires routes and middleware. respCache may be nil to run
// without a response cache.
func NewServer(cfg *config.Config, svc RiskService, respCache *cache.ResponseCache, logger *logrus.Logger) *Server {
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS())
	if cfg.Server.RateLimit > 0 {
		router.Use(middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst).Middleware())
	}

	s := &Server{
		cfg:       cfg,
		service:   svc,
		respCache: respCache,
		logger:    logger,
		router:    router,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/ready", s.handleReady)

	api := s.router.Group("/api")
	{
		api.GET("/health", s.handleHealth)
		api.GET("/search", s.handleSearch)
		api.GET("/compound/:id", s.handleCompound)
		api.GET("/interaction", s.handleInteraction)
		api.POST("/stack/check", s.handleStackCheck)
		api.POST("/admin/reload", s.handleReload)
	}
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the server until the context is cancelled, then shuts
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.listenAddr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	s.logger.WithFields(logrus.Fields{"addr": s.server.Addr}).Info("HTTP server listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

func (s *Server) listenAddr() string {
	return fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
}
