package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vigilance-engine/internal/config"
	"vigilance-engine/internal/handler"
	"vigilance-engine/internal/middleware"
	"vigilance-engine/internal/models"
	"vigilance-engine/internal/service"
)

type Server struct {
	router *gin.Engine
	cfg    *config.Config
	logger *zap.Logger
}

func NewServer(svc service.PipelineService, cfg *config.Config, logger *zap.Logger) *Server {
	if cfg.IsProduction() || cfg.Environment == config.EnvTest {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Recovery(logger, cfg.IsDevelopment()))
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORS())
	if cfg.Server.RateLimitRPS > 0 {
		router.Use(middleware.RateLimit(middleware.NewClientRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)))
	}
	router.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	s := &Server{
		router: router,
		cfg:    cfg,
		logger: logger,
	}

	s.setupRoutes(handler.NewPipelineHandler(svc, cfg.Environment, cfg.IsDevelopment(), logger))

	return s
}

func (s *Server) setupRoutes(h handler.PipelineHandler) {
	s.router.GET("/health", h.Health)

	s.router.POST("/ingest", h.Ingest)
	s.router.POST("/score", h.Score)

	s.router.POST("/freeze", h.Freeze)
	s.router.GET("/freeze/:childId", h.FreezeStatus)
	s.router.POST("/freeze/unfreeze", h.Unfreeze)
	s.router.POST("/unfreeze", h.Unfreeze)

	s.router.GET("/audit", h.RecentAudit)
	s.router.GET("/scores", h.RecentScores)

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Status: "error",
			Error:  "Not Found",
			Path:   c.Request.URL.Path,
		})
	})
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", s.cfg.Server.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server starting", zap.String("address", srv.Addr), zap.String("environment", s.cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(s.cfg.Server.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	<-errCh
	s.logger.Info("Server exited")
	return nil
}
