package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"leafscan/internal/classifier"
)

type scoreRecordView struct {
	StrongMatches []string `json:"strong_matches"`
	WeakMatches   []string `json:"weak_matches"`
	Score         float64  `json:"score"`
}

type previewResponse struct {
	Filename   string                     `json:"filename"`
	Candidates map[string]scoreRecordView `json:"candidates"`
	Chosen     string                     `json:"chosen"`
	TopScore   float64                    `json:"top_score"`
	Prediction classifier.Prediction      `json:"prediction"`
}

// PreviewClassification handles GET /api/classifier/preview?filename=...
// It exposes the per-category score records behind a classification, which is
// the main tool for tuning keyword sets without uploading anything.
func PreviewClassification(c *gin.Context) {
	pred, dbg := classifier.ClassifyDebug(c.Query("filename"))

	candidates := make(map[string]scoreRecordView, len(dbg.Candidates))
	for cat, rec := range dbg.Candidates {
		candidates[string(cat)] = scoreRecordView{
			StrongMatches: rec.StrongMatches,
			WeakMatches:   rec.WeakMatches,
			Score:         rec.Score,
		}
	}

	c.JSON(http.StatusOK, previewResponse{
		Filename:   dbg.Filename,
		Candidates: candidates,
		Chosen:     string(dbg.Chosen),
		TopScore:   dbg.TopScore,
		Prediction: pred,
	})
}
