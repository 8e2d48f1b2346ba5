package reconciler

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"leafscan/internal/classifier"
	"leafscan/internal/models"
	"leafscan/internal/repository"
	"leafscan/internal/vision_client"
)

// Reconciler upgrades analyses that were classified by filename while the
// vision service was unreachable. It periodically health-checks the service
// and, once it responds, re-submits the stored images in batches.
type Reconciler struct {
	visionClient *vision_client.Client
	repo         repository.AnalysisRepository
	logger       *zap.Logger
	pollInterval int64
	batchSize    int
}

// NewReconciler creates a new vision reconciler.
func NewReconciler(
	visionClient *vision_client.Client,
	repo repository.AnalysisRepository,
	logger *zap.Logger,
	pollInterval int64,
	batchSize int,
) *Reconciler {
	return &Reconciler{
		visionClient: visionClient,
		repo:         repo,
		logger:       logger,
		pollInterval: pollInterval,
		batchSize:    batchSize,
	}
}

// Run starts the periodic reconciliation loop.
func (r *Reconciler) Run(ctx context.Context) {
	r.logger.Info("Vision reconciler started.")

	ticker := time.NewTicker(time.Duration(r.pollInterval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Vision reconciler stopped.")
			return
		case <-ticker.C:
			if err := r.ReconcileOnce(ctx); err != nil {
				r.logger.Error("Reconciliation pass failed", zap.Error(err))
			}
		}
	}
}

// ReconcileOnce runs a single reconciliation pass. A vision service that is
// down or has no model loaded is not an error; the pass is simply skipped.
func (r *Reconciler) ReconcileOnce(ctx context.Context) error {
	healthCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	health, err := r.visionClient.HealthCheck(healthCtx)
	cancel()
	if err != nil {
		r.logger.Debug("Vision service not reachable, skipping pass", zap.Error(err))
		return nil
	}
	if !health.ModelLoaded {
		r.logger.Debug("Vision service model not loaded, skipping pass")
		return nil
	}

	pending, err := r.repo.GetVisionPending(r.batchSize)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}
	r.logger.Info("Reconciling pending analyses with the vision service", zap.Int("count", len(pending)))

	byID := make(map[string]*models.Analysis, len(pending))
	images := make([]vision_client.BatchImage, 0, len(pending))
	for _, a := range pending {
		data, err := os.ReadFile(a.StoredPath)
		if err != nil {
			// Image is gone; nothing left to reconcile for this record.
			r.logger.Warn("Stored image unreadable, clearing pending flag",
				zap.String("id", a.ID), zap.String("path", a.StoredPath), zap.Error(err))
			if err := r.repo.ClearVisionPending(a.ID); err != nil {
				r.logger.Error("Failed to clear pending flag", zap.String("id", a.ID), zap.Error(err))
			}
			continue
		}
		byID[a.ID] = a
		images = append(images, vision_client.NewBatchImage(a.ID, a.FileName, data))
	}
	if len(images) == 0 {
		return nil
	}

	batchCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	resp, err := r.visionClient.ClassifyBatch(batchCtx, images)
	cancel()
	if err != nil {
		return err
	}

	for _, result := range resp.Results {
		analysis, ok := byID[result.ID]
		if !ok {
			r.logger.Warn("Vision service returned result for unknown analysis", zap.String("id", result.ID))
			continue
		}
		cat, ok := classifier.CategoryFromString(result.Diagnosis)
		if !ok {
			r.logger.Warn("Vision service returned unknown diagnosis, keeping keyword result",
				zap.String("id", result.ID), zap.String("diagnosis", result.Diagnosis))
			if err := r.repo.ClearVisionPending(result.ID); err != nil {
				r.logger.Error("Failed to clear pending flag", zap.String("id", result.ID), zap.Error(err))
			}
			continue
		}

		meta := classifier.MetadataFor(cat)
		analysis.ApplyPrediction(classifier.Prediction{
			Diagnosis:   cat,
			Confidence:  result.Confidence,
			Severity:    meta.Severity,
			IsHealthy:   cat == classifier.Healthy,
			Description: meta.Description,
			Treatment:   meta.Treatment,
		}, models.ModelSourceVision)

		if err := r.repo.UpdateVisionResult(analysis); err != nil {
			r.logger.Error("Failed to store vision result", zap.String("id", analysis.ID), zap.Error(err))
			continue
		}
		r.logger.Info("Analysis upgraded with vision result",
			zap.String("id", analysis.ID),
			zap.String("diagnosis", analysis.Diagnosis),
			zap.Float64("confidence", analysis.Confidence))
	}

	return nil
}
