package models

import (
	"time"

	"leafscan/internal/classifier"
)

// Model sources for an analysis record.
const (
	ModelSourceKeyword = "keyword"
	ModelSourceVision  = "vision"
)

// Review statuses for an analysis record.
const (
	StatusNew       = "new"
	StatusReviewed  = "reviewed"
	StatusDismissed = "dismissed"
)

// ValidStatus reports whether s is one of the allowed review statuses.
func ValidStatus(s string) bool {
	return s == StatusNew || s == StatusReviewed || s == StatusDismissed
}

// Analysis represents one analyzed upload stored in the 'analyses' table.
// FileName is the base name after normalization, OriginalName the raw name
// from the upload. StoredPath is empty when the image could not be stored;
// Severity is NULL for Healthy records.
type Analysis struct {
	ID            string    `db:"id" json:"id"`
	FileName      string    `db:"file_name" json:"file_name"`
	OriginalName  string    `db:"original_name" json:"original_name"`
	StoredPath    string    `db:"stored_path" json:"-"`
	Diagnosis     string    `db:"diagnosis" json:"diagnosis"`
	Confidence    float64   `db:"confidence" json:"confidence"`
	Severity      *string   `db:"severity" json:"severity,omitempty"`
	IsHealthy     bool      `db:"is_healthy" json:"is_healthy"`
	Description   string    `db:"description" json:"description"`
	Treatment     string    `db:"treatment" json:"treatment"`
	ModelSource   string    `db:"model_source" json:"model_source"`
	VisionPending bool      `db:"vision_pending" json:"vision_pending"`
	Status        string    `db:"status" json:"status"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// ApplyPrediction copies a classifier prediction into the record. Severity is
// stored as NULL when the prediction carries none (Healthy).
func (a *Analysis) ApplyPrediction(pred classifier.Prediction, source string) {
	a.Diagnosis = string(pred.Diagnosis)
	a.Confidence = pred.Confidence
	a.IsHealthy = pred.IsHealthy
	a.Description = pred.Description
	a.Treatment = pred.Treatment
	a.ModelSource = source
	if pred.Severity == "" {
		a.Severity = nil
	} else {
		s := string(pred.Severity)
		a.Severity = &s
	}
}
