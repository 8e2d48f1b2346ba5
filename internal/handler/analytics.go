package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"leafscan/internal/models"
	"leafscan/internal/repository"
)

type AnalyticsHandler interface {
	GetDashboard(c *gin.Context)
}

type analyticsHandler struct {
	repo   repository.AnalysisRepository
	logger *zap.Logger
}

func NewAnalyticsHandler(repo repository.AnalysisRepository, logger *zap.Logger) AnalyticsHandler {
	return &analyticsHandler{
		repo:   repo,
		logger: logger,
	}
}

// DashboardStats represents the statistics for the dashboard
type DashboardStats struct {
	TotalAnalyses     int                `json:"total_analyses"`
	NewAnalyses       int                `json:"new_analyses"`
	ReviewedAnalyses  int                `json:"reviewed_analyses"`
	DismissedAnalyses int                `json:"dismissed_analyses"`
	HealthyCount      int                `json:"healthy_count"`
	DiseaseCount      int                `json:"disease_count"`
	HealthyRate       float64            `json:"healthy_rate"`
	AverageConfidence float64            `json:"average_confidence"`
	ByDiagnosis       map[string]int     `json:"by_diagnosis"`
	BySeverity        map[string]int     `json:"by_severity"`
	PendingVision     int                `json:"pending_vision"`
	Analyses24h       int                `json:"analyses_24h"`
	RecentAnalyses    []*models.Analysis `json:"recent_analyses"`
}

const recentAnalysesLimit = 5

// GetDashboard handles GET /api/analytics/dashboard
func (h *analyticsHandler) GetDashboard(c *gin.Context) {
	analyses, err := h.repo.GetAll()
	if err != nil {
		h.logger.Error("Failed to get analyses for dashboard", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve dashboard data"})
		return
	}

	stats := DashboardStats{
		TotalAnalyses: len(analyses),
		ByDiagnosis:   make(map[string]int),
		BySeverity:    make(map[string]int),
	}

	var confidenceSum float64
	for _, a := range analyses {
		switch a.Status {
		case models.StatusNew:
			stats.NewAnalyses++
		case models.StatusReviewed:
			stats.ReviewedAnalyses++
		case models.StatusDismissed:
			stats.DismissedAnalyses++
		}
		if a.IsHealthy {
			stats.HealthyCount++
		} else {
			stats.DiseaseCount++
		}
		if a.VisionPending {
			stats.PendingVision++
		}
		stats.ByDiagnosis[a.Diagnosis]++
		if a.Severity != nil {
			stats.BySeverity[*a.Severity]++
		}
		confidenceSum += a.Confidence
	}
	if len(analyses) > 0 {
		stats.HealthyRate = float64(stats.HealthyCount) / float64(len(analyses))
		stats.AverageConfidence = confidenceSum / float64(len(analyses))
	}

	count24h, err := h.repo.CountSince(time.Now().Add(-24 * time.Hour))
	if err != nil {
		h.logger.Error("Failed to count recent analyses", zap.Error(err))
	} else {
		stats.Analyses24h = count24h
	}

	if len(analyses) > recentAnalysesLimit {
		stats.RecentAnalyses = analyses[:recentAnalysesLimit]
	} else {
		stats.RecentAnalyses = analyses
	}

	c.JSON(http.StatusOK, gin.H{"dashboard": stats})
}
