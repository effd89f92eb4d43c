// Package api exposes the HTTP surface: assessment submission and history,
// explanations, diet plans, the chatbot and its websocket stream.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/samanyuahuja/NephroCare-sub000/internal/domain"
	"github.com/samanyuahuja/NephroCare-sub000/internal/middleware"
	"github.com/samanyuahuja/NephroCare-sub000/internal/service"
)

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	assessments   *service.AssessmentService
	insights      *service.InsightsService
	dietPlans     *service.DietPlanService
	chatbot       *service.ChatbotService
	router        *gin.Engine
	server        *http.Server
	log           *logrus.Logger
}

// NewServer creates a new HTTP server instance
func NewServer(
	configManager domain.ConfigManager,
	assessments *service.AssessmentService,
	insights *service.InsightsService,
	dietPlans *service.DietPlanService,
	chatbot *service.ChatbotService,
	logger *logrus.Logger,
) *Server {
	cfg := configManager.GetConfig()

	// Set Gin mode based on environment
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Add middleware
	router.Use(middleware.AuditLogger())
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS())
	router.Use(middleware.CorrelationID())
	if cfg.Server.RateLimitEnabled {
		router.Use(middleware.RateLimit(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst))
	}

	server := &Server{
		configManager: configManager,
		assessments:   assessments,
		insights:      insights,
		dietPlans:     dietPlans,
		chatbot:       chatbot,
		router:        router,
		log:           logger,
	}

	// Setup routes
	server.setupRoutes()

	return server
}

// Router exposes the underlying handler, for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.log.Info("Shutting down HTTP server")
	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.GET("/health", s.handleHealth)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/assessments", s.handleSubmitAssessment)
		v1.GET("/assessments", s.handleListAssessments)
		v1.GET("/assessments/:id", s.handleGetAssessment)
		v1.GET("/assessments/:id/explanation", s.handleExplanation)
		v1.GET("/assessments/:id/pdp", s.handlePDP)
		v1.GET("/assessments/:id/report", s.handleReport)

		v1.POST("/diet-plans", s.handleCreateDietPlan)
		v1.GET("/diet-plans", s.handleListDietPlans)
		v1.GET("/diet-plans/:assessmentId", s.handleGetDietPlan)

		v1.POST("/chat", s.handleChat)
		v1.GET("/chat", s.handleChatHistory)
	}

	// Websocket chat stream
	s.router.GET("/ws/chat", s.handleChatSocket)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   "1.0.0",
	})
}
