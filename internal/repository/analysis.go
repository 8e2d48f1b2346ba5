package repository

import (
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"leafscan/internal/models"
)

type AnalysisRepository interface {
	Save(a *models.Analysis) error
	GetByID(id string) (*models.Analysis, error)
	GetAll() ([]*models.Analysis, error)
	GetByStatus(status string) ([]*models.Analysis, error)
	GetByDiagnosis(diagnosis string) ([]*models.Analysis, error)
	UpdateStatus(id string, status string) error
	UpdateVisionResult(a *models.Analysis) error
	ClearVisionPending(id string) error
	GetVisionPending(limit int) ([]*models.Analysis, error)
	CountSince(since time.Time) (int, error)
}

type analysisRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewAnalysisRepository(db *sqlx.DB, logger *zap.Logger) AnalysisRepository {
	return &analysisRepository{db: db, logger: logger}
}

const analysisColumns = `id, file_name, original_name, stored_path, diagnosis, confidence, severity,
	is_healthy, description, treatment, model_source, vision_pending, status, created_at, updated_at`

func (r *analysisRepository) Save(a *models.Analysis) error {
	query := `INSERT INTO analyses (id, file_name, original_name, stored_path, diagnosis, confidence, severity,
	          is_healthy, description, treatment, model_source, vision_pending, status)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	          RETURNING created_at, updated_at`
	return r.db.QueryRowx(query, a.ID, a.FileName, a.OriginalName, a.StoredPath, a.Diagnosis, a.Confidence,
		a.Severity, a.IsHealthy, a.Description, a.Treatment, a.ModelSource, a.VisionPending, a.Status).
		StructScan(a)
}

func (r *analysisRepository) GetByID(id string) (*models.Analysis, error) {
	var a models.Analysis
	query := `SELECT ` + analysisColumns + ` FROM analyses WHERE id = $1`
	if err := r.db.Get(&a, query, id); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *analysisRepository) GetAll() ([]*models.Analysis, error) {
	var analyses []*models.Analysis
	query := `SELECT ` + analysisColumns + ` FROM analyses ORDER BY created_at DESC`
	if err := r.db.Select(&analyses, query); err != nil {
		return nil, err
	}
	return analyses, nil
}

func (r *analysisRepository) GetByStatus(status string) ([]*models.Analysis, error) {
	var analyses []*models.Analysis
	query := `SELECT ` + analysisColumns + ` FROM analyses WHERE status = $1 ORDER BY created_at DESC`
	if err := r.db.Select(&analyses, query, status); err != nil {
		return nil, err
	}
	return analyses, nil
}

func (r *analysisRepository) GetByDiagnosis(diagnosis string) ([]*models.Analysis, error) {
	var analyses []*models.Analysis
	query := `SELECT ` + analysisColumns + ` FROM analyses WHERE diagnosis = $1 ORDER BY created_at DESC`
	if err := r.db.Select(&analyses, query, diagnosis); err != nil {
		return nil, err
	}
	return analyses, nil
}

func (r *analysisRepository) UpdateStatus(id string, status string) error {
	query := `UPDATE analyses SET status = $1, updated_at = NOW() WHERE id = $2`
	result, err := r.db.Exec(query, status, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateVisionResult replaces the stored diagnosis with the vision service's
// verdict and clears the pending flag.
func (r *analysisRepository) UpdateVisionResult(a *models.Analysis) error {
	query := `UPDATE analyses SET diagnosis = $1, confidence = $2, severity = $3, is_healthy = $4,
	          description = $5, treatment = $6, model_source = $7, vision_pending = FALSE, updated_at = NOW()
	          WHERE id = $8
	          RETURNING vision_pending, updated_at`
	return r.db.QueryRowx(query, a.Diagnosis, a.Confidence, a.Severity, a.IsHealthy,
		a.Description, a.Treatment, a.ModelSource, a.ID).StructScan(a)
}

func (r *analysisRepository) ClearVisionPending(id string) error {
	query := `UPDATE analyses SET vision_pending = FALSE, updated_at = NOW() WHERE id = $1`
	_, err := r.db.Exec(query, id)
	return err
}

func (r *analysisRepository) GetVisionPending(limit int) ([]*models.Analysis, error) {
	var analyses []*models.Analysis
	query := `SELECT ` + analysisColumns + ` FROM analyses
	          WHERE vision_pending = TRUE AND stored_path <> '' ORDER BY created_at ASC LIMIT $1`
	if err := r.db.Select(&analyses, query, limit); err != nil {
		return nil, err
	}
	return analyses, nil
}

func (r *analysisRepository) CountSince(since time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM analyses WHERE created_at >= $1`
	if err := r.db.Get(&count, query, since); err != nil {
		return 0, err
	}
	return count, nil
}
