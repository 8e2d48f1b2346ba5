package handler

import (
	"database/sql"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"leafscan/internal/classifier"
	"leafscan/internal/models"
	"leafscan/internal/repository"
	"leafscan/internal/vision_client"
)

type AnalysisHandler interface {
	CreateAnalysis(c *gin.Context)
	GetAllAnalyses(c *gin.Context)
	GetAnalysisByID(c *gin.Context)
	UpdateAnalysisStatus(c *gin.Context)
}

type analysisHandler struct {
	repo         repository.AnalysisRepository
	visionClient *vision_client.Client // nil when the vision service is disabled
	uploadsDir   string
	maxBytes     int64
	logger       *zap.Logger
}

func NewAnalysisHandler(repo repository.AnalysisRepository, visionClient *vision_client.Client, uploadsDir string, maxBytes int64, logger *zap.Logger) AnalysisHandler {
	return &analysisHandler{
		repo:         repo,
		visionClient: visionClient,
		uploadsDir:   uploadsDir,
		maxBytes:     maxBytes,
		logger:       logger,
	}
}

// CreateAnalysis handles POST /api/analyses. It accepts a multipart upload
// with an "image" field, classifies it by its filename (or via the vision
// service when available) and persists the resulting record. The upload's
// filename may be empty or malformed; classification degrades to the Healthy
// fallback instead of failing.
func (h *analysisHandler) CreateAnalysis(c *gin.Context) {
	rawName, data, ok := h.readUpload(c)
	if !ok {
		return
	}
	analysis := &models.Analysis{
		ID:           uuid.NewString(),
		FileName:     classifier.Normalize(rawName).Base,
		OriginalName: rawName,
		Status:       models.StatusNew,
	}
	analysis.StoredPath = h.storeImage(analysis.ID, analysis.FileName, data)

	if !h.classifyWithVision(c, analysis, rawName, data) {
		pred := classifier.Classify(rawName)
		analysis.ApplyPrediction(pred, models.ModelSourceKeyword)
		// Retry through the vision service later, once it is reachable.
		analysis.VisionPending = h.visionClient != nil && analysis.StoredPath != ""
	}

	if err := h.repo.Save(analysis); err != nil {
		h.logger.Error("Failed to save analysis", zap.String("id", analysis.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save analysis"})
		return
	}

	h.logger.Info("Analysis created",
		zap.String("id", analysis.ID),
		zap.String("file_name", analysis.FileName),
		zap.String("diagnosis", analysis.Diagnosis),
		zap.Float64("confidence", analysis.Confidence),
		zap.String("model_source", analysis.ModelSource))
	c.JSON(http.StatusCreated, gin.H{"analysis": analysis})
}

// readUpload extracts the "image" part of the multipart body. A part whose
// Content-Disposition carries an empty filename is parsed by net/http as a
// form value rather than a file, so both shapes are accepted; only a body
// with no "image" field at all is rejected. Replies with the error response
// itself and reports success via ok.
func (h *analysisHandler) readUpload(c *gin.Context) (rawName string, data []byte, ok bool) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		form, formErr := c.MultipartForm()
		if formErr != nil || len(form.Value["image"]) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'image' is required"})
			return "", nil, false
		}
		value := form.Value["image"][0]
		if int64(len(value)) > h.maxBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image exceeds the upload size limit"})
			return "", nil, false
		}
		return "", []byte(value), true
	}
	if fileHeader.Size > h.maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image exceeds the upload size limit"})
		return "", nil, false
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("Failed to open uploaded file", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded file"})
		return "", nil, false
	}
	defer file.Close()

	data, err = io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		h.logger.Error("Failed to read uploaded file", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded file"})
		return "", nil, false
	}
	if int64(len(data)) > h.maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image exceeds the upload size limit"})
		return "", nil, false
	}
	return fileHeader.Filename, data, true
}

// classifyWithVision tries the vision service path and reports whether it
// produced the stored result. Every failure is absorbed: the caller falls
// back to the filename classifier.
func (h *analysisHandler) classifyWithVision(c *gin.Context, analysis *models.Analysis, rawName string, data []byte) bool {
	if h.visionClient == nil {
		return false
	}

	resp, err := h.visionClient.ClassifyImage(c.Request.Context(), rawName, data)
	if err != nil {
		h.logger.Warn("Vision service unavailable, falling back to filename classifier", zap.Error(err))
		return false
	}
	cat, ok := classifier.CategoryFromString(resp.Diagnosis)
	if !ok {
		h.logger.Warn("Vision service returned unknown diagnosis, falling back to filename classifier",
			zap.String("diagnosis", resp.Diagnosis))
		return false
	}

	meta := classifier.MetadataFor(cat)
	analysis.ApplyPrediction(classifier.Prediction{
		Diagnosis:   cat,
		Confidence:  resp.Confidence,
		Severity:    meta.Severity,
		IsHealthy:   cat == classifier.Healthy,
		Description: meta.Description,
		Treatment:   meta.Treatment,
	}, models.ModelSourceVision)
	return true
}

// storeImage writes the upload to disk for later vision reconciliation.
// Storage failure is absorbed: the analysis proceeds without a stored image.
func (h *analysisHandler) storeImage(id, baseName string, data []byte) string {
	if err := os.MkdirAll(h.uploadsDir, 0o755); err != nil {
		h.logger.Warn("Failed to create uploads directory", zap.String("dir", h.uploadsDir), zap.Error(err))
		return ""
	}
	path := filepath.Join(h.uploadsDir, id+filepath.Ext(baseName))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		h.logger.Warn("Failed to store uploaded image", zap.String("path", path), zap.Error(err))
		return ""
	}
	return path
}

// GetAllAnalyses handles GET /api/analyses
// Query parameters:
// - status: filter by review status (optional)
// - diagnosis: filter by diagnosis (optional)
func (h *analysisHandler) GetAllAnalyses(c *gin.Context) {
	status := c.Query("status")
	diagnosis := c.Query("diagnosis")

	var analyses []*models.Analysis
	var err error

	if status != "" {
		analyses, err = h.repo.GetByStatus(status)
	} else if diagnosis != "" {
		analyses, err = h.repo.GetByDiagnosis(diagnosis)
	} else {
		analyses, err = h.repo.GetAll()
	}

	if err != nil {
		h.logger.Error("Failed to get analyses", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve analyses"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"analyses": analyses})
}

// GetAnalysisByID handles GET /api/analyses/:id
func (h *analysisHandler) GetAnalysisByID(c *gin.Context) {
	id := c.Param("id")

	analysis, err := h.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Analysis not found"})
			return
		}
		h.logger.Error("Failed to get analysis", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve analysis"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"analysis": analysis})
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateAnalysisStatus handles PATCH /api/analyses/:id/status
func (h *analysisHandler) UpdateAnalysisStatus(c *gin.Context) {
	id := c.Param("id")

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "field 'status' is required"})
		return
	}
	if !models.ValidStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be one of: new, reviewed, dismissed"})
		return
	}

	if err := h.repo.UpdateStatus(id, req.Status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Analysis not found"})
			return
		}
		h.logger.Error("Failed to update analysis status", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update analysis"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "status": req.Status})
}
