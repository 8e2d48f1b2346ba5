package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"leafscan/internal/config"
	"leafscan/internal/handler"
	"leafscan/internal/repository"
	"leafscan/internal/vision_client"
)

type Server struct {
	router       *gin.Engine
	db           *sqlx.DB
	cfg          *config.Config
	visionClient *vision_client.Client
	logger       *zap.Logger
}

func NewServer(db *sqlx.DB, cfg *config.Config, logger *zap.Logger, visionClient *vision_client.Client) *Server {
	router := gin.Default()

	s := &Server{
		router:       router,
		db:           db,
		cfg:          cfg,
		visionClient: visionClient,
		logger:       logger,
	}

	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	analysisRepo := repository.NewAnalysisRepository(s.db, s.logger)
	analysisHandler := handler.NewAnalysisHandler(analysisRepo, s.visionClient,
		s.cfg.Uploads.Dir, s.cfg.Uploads.MaxBytes, s.logger)
	analyticsHandler := handler.NewAnalyticsHandler(analysisRepo, s.logger)

	// Ping route for health check
	s.router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	api := s.router.Group("/api")
	{
		api.POST("/analyses", analysisHandler.CreateAnalysis)
		api.GET("/analyses", analysisHandler.GetAllAnalyses)
		api.GET("/analyses/:id", analysisHandler.GetAnalysisByID)
		api.PATCH("/analyses/:id/status", analysisHandler.UpdateAnalysisStatus)
		api.GET("/analytics/dashboard", analyticsHandler.GetDashboard)
		api.GET("/classifier/preview", handler.PreviewClassification)
	}
}

func (s *Server) Run(addr string) {
	s.logger.Info("Server starting", zap.String("addr", addr))
	if err := s.router.Run(addr); err != nil {
		s.logger.Fatal("Server failed to start", zap.Error(err))
	}
}
