package handler

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"leafscan/internal/models"
	"leafscan/internal/repository"
	"leafscan/internal/vision_client"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubRepo is an in-memory AnalysisRepository for handler tests.
type stubRepo struct {
	analyses      []*models.Analysis
	saveErr       error
	updatedStatus map[string]string
	cleared       []string
	visionUpdated []*models.Analysis
	countSince    int
}

func newStubRepo(analyses ...*models.Analysis) *stubRepo {
	return &stubRepo{analyses: analyses, updatedStatus: make(map[string]string)}
}

func (s *stubRepo) Save(a *models.Analysis) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	s.analyses = append(s.analyses, a)
	return nil
}

func (s *stubRepo) GetByID(id string) (*models.Analysis, error) {
	for _, a := range s.analyses {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *stubRepo) GetAll() ([]*models.Analysis, error) { return s.analyses, nil }

func (s *stubRepo) GetByStatus(status string) ([]*models.Analysis, error) {
	var out []*models.Analysis
	for _, a := range s.analyses {
		if a.Status == status {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *stubRepo) GetByDiagnosis(diagnosis string) ([]*models.Analysis, error) {
	var out []*models.Analysis
	for _, a := range s.analyses {
		if a.Diagnosis == diagnosis {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *stubRepo) UpdateStatus(id string, status string) error {
	if _, err := s.GetByID(id); err != nil {
		return repository.ErrNotFound
	}
	s.updatedStatus[id] = status
	return nil
}

func (s *stubRepo) UpdateVisionResult(a *models.Analysis) error {
	s.visionUpdated = append(s.visionUpdated, a)
	return nil
}

func (s *stubRepo) ClearVisionPending(id string) error {
	s.cleared = append(s.cleared, id)
	return nil
}

func (s *stubRepo) GetVisionPending(limit int) ([]*models.Analysis, error) {
	var out []*models.Analysis
	for _, a := range s.analyses {
		if a.VisionPending && a.StoredPath != "" && len(out) < limit {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *stubRepo) CountSince(since time.Time) (int, error) { return s.countSince, nil }

func newTestRouter(t *testing.T, repo repository.AnalysisRepository, vision *vision_client.Client) *gin.Engine {
	t.Helper()
	h := NewAnalysisHandler(repo, vision, t.TempDir(), 1<<20, zap.NewNop())
	router := gin.New()
	router.POST("/api/analyses", h.CreateAnalysis)
	router.GET("/api/analyses", h.GetAllAnalyses)
	router.GET("/api/analyses/:id", h.GetAnalysisByID)
	router.PATCH("/api/analyses/:id/status", h.UpdateAnalysisStatus)
	router.GET("/api/classifier/preview", PreviewClassification)
	return router
}

func uploadRequest(t *testing.T, filename string, contents []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", filename)
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	if _, err := part.Write(contents); err != nil {
		t.Fatalf("writing form file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/analyses", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decodeAnalysis(t *testing.T, body *bytes.Buffer) *models.Analysis {
	t.Helper()
	var resp struct {
		Analysis *models.Analysis `json:"analysis"`
	}
	if err := json.Unmarshal(body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Analysis == nil {
		t.Fatalf("response carried no analysis: %s", body.String())
	}
	return resp.Analysis
}

func TestCreateAnalysisKeywordPath(t *testing.T) {
	repo := newStubRepo()
	router := newTestRouter(t, repo, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "leaf_spot_01.png", []byte("fake-image")))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	a := decodeAnalysis(t, rec.Body)
	if a.Diagnosis != "Leaf Spot" {
		t.Errorf("diagnosis = %q, want Leaf Spot", a.Diagnosis)
	}
	if a.ModelSource != models.ModelSourceKeyword {
		t.Errorf("model source = %q, want keyword", a.ModelSource)
	}
	if a.Severity == nil || *a.Severity != "moderate" {
		t.Errorf("severity = %v, want moderate", a.Severity)
	}
	if a.FileName != "leaf_spot_01.png" {
		t.Errorf("file name = %q", a.FileName)
	}
	if a.Status != models.StatusNew {
		t.Errorf("status = %q, want new", a.Status)
	}
	// Vision is disabled: nothing to reconcile later.
	if a.VisionPending {
		t.Error("vision_pending = true with vision disabled")
	}
	if len(repo.analyses) != 1 {
		t.Errorf("saved %d analyses, want 1", len(repo.analyses))
	}
}

func TestCreateAnalysisEmptyFilename(t *testing.T) {
	repo := newStubRepo()
	router := newTestRouter(t, repo, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "", []byte("fake-image")))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	a := decodeAnalysis(t, rec.Body)
	if a.Diagnosis != "Healthy" || !a.IsHealthy {
		t.Errorf("diagnosis = %q (is_healthy=%v), want Healthy fallback", a.Diagnosis, a.IsHealthy)
	}
	if a.Confidence != 0.55 {
		t.Errorf("confidence = %f, want 0.55", a.Confidence)
	}
	if a.Severity != nil {
		t.Errorf("severity = %v, want nil for Healthy", a.Severity)
	}
	// The part arrives as a form value rather than a file; its bytes must
	// still reach the uploads directory.
	if len(repo.analyses) != 1 {
		t.Fatalf("saved %d analyses, want 1", len(repo.analyses))
	}
	saved := repo.analyses[0]
	if saved.FileName != "" {
		t.Errorf("file name = %q, want empty", saved.FileName)
	}
	if saved.StoredPath == "" {
		t.Error("stored path is empty, want the upload written to disk")
	} else if data, err := os.ReadFile(saved.StoredPath); err != nil || string(data) != "fake-image" {
		t.Errorf("stored image = %q (err %v), want original bytes", data, err)
	}
}

func TestCreateAnalysisMissingFile(t *testing.T) {
	router := newTestRouter(t, newStubRepo(), nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/analyses", strings.NewReader("not multipart"))
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCreateAnalysisVisionPath(t *testing.T) {
	visionSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(vision_client.ClassifyResponse{Diagnosis: "Aloe Rust", Confidence: 0.91})
	}))
	defer visionSrv.Close()

	repo := newStubRepo()
	router := newTestRouter(t, repo, vision_client.NewClient(visionSrv.URL))

	rec := httptest.NewRecorder()
	// The filename says leaf spot; the vision verdict must win.
	router.ServeHTTP(rec, uploadRequest(t, "leaf_spot_01.png", []byte("fake-image")))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	a := decodeAnalysis(t, rec.Body)
	if a.Diagnosis != "Aloe Rust" {
		t.Errorf("diagnosis = %q, want the vision verdict Aloe Rust", a.Diagnosis)
	}
	if a.Confidence != 0.91 {
		t.Errorf("confidence = %f, want 0.91", a.Confidence)
	}
	if a.ModelSource != models.ModelSourceVision {
		t.Errorf("model source = %q, want vision", a.ModelSource)
	}
	if a.VisionPending {
		t.Error("vision_pending = true after a successful vision classification")
	}
}

func TestCreateAnalysisVisionUnknownDiagnosisFallsBack(t *testing.T) {
	visionSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(vision_client.ClassifyResponse{Diagnosis: "Root Rot", Confidence: 0.99})
	}))
	defer visionSrv.Close()

	repo := newStubRepo()
	router := newTestRouter(t, repo, vision_client.NewClient(visionSrv.URL))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "img_rust_01.jpg", []byte("fake-image")))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	a := decodeAnalysis(t, rec.Body)
	if a.Diagnosis != "Aloe Rust" || a.ModelSource != models.ModelSourceKeyword {
		t.Errorf("got (%q, %q), want keyword fallback to Aloe Rust", a.Diagnosis, a.ModelSource)
	}
	if !a.VisionPending {
		t.Error("vision_pending = false, want true for later reconciliation")
	}
}

func TestCreateAnalysisVisionDownFallsBack(t *testing.T) {
	visionSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer visionSrv.Close()

	repo := newStubRepo()
	router := newTestRouter(t, repo, vision_client.NewClient(visionSrv.URL))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "sunburn.jpg", []byte("fake-image")))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	a := decodeAnalysis(t, rec.Body)
	if a.Diagnosis != "Sunburn" || a.ModelSource != models.ModelSourceKeyword {
		t.Errorf("got (%q, %q), want keyword Sunburn", a.Diagnosis, a.ModelSource)
	}
	if !a.VisionPending {
		t.Error("vision_pending = false, want true while the service is down")
	}
}

func TestGetAllAnalysesFilters(t *testing.T) {
	repo := newStubRepo(
		&models.Analysis{ID: "a1", Diagnosis: "Healthy", Status: models.StatusNew},
		&models.Analysis{ID: "a2", Diagnosis: "Sunburn", Status: models.StatusReviewed},
	)
	router := newTestRouter(t, repo, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analyses?status=reviewed", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Analyses []*models.Analysis `json:"analyses"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Analyses) != 1 || resp.Analyses[0].ID != "a2" {
		t.Errorf("got %+v, want only a2", resp.Analyses)
	}
}

func TestGetAnalysisByIDNotFound(t *testing.T) {
	router := newTestRouter(t, newStubRepo(), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analyses/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestUpdateAnalysisStatus(t *testing.T) {
	repo := newStubRepo(&models.Analysis{ID: "a1", Status: models.StatusNew})
	router := newTestRouter(t, repo, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/analyses/a1/status",
		strings.NewReader(`{"status":"reviewed"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if repo.updatedStatus["a1"] != models.StatusReviewed {
		t.Errorf("stored status = %q, want reviewed", repo.updatedStatus["a1"])
	}
}

func TestUpdateAnalysisStatusRejectsUnknownStatus(t *testing.T) {
	repo := newStubRepo(&models.Analysis{ID: "a1", Status: models.StatusNew})
	router := newTestRouter(t, repo, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/analyses/a1/status",
		strings.NewReader(`{"status":"archived"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestPreviewClassification(t *testing.T) {
	router := newTestRouter(t, newStubRepo(), nil)

	rec := httptest.NewRecorder()
	target := "/api/classifier/preview?filename=" + url.QueryEscape("a/b/leaf_spot.png?x=1#y")
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp previewResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Filename != "leaf_spot.png" {
		t.Errorf("filename = %q, want leaf_spot.png", resp.Filename)
	}
	if resp.Chosen != "Leaf Spot" {
		t.Errorf("chosen = %q, want Leaf Spot", resp.Chosen)
	}
	if resp.TopScore <= 0 {
		t.Errorf("top score = %f, want > 0", resp.TopScore)
	}
	if len(resp.Candidates) == 0 {
		t.Error("no candidates in preview response")
	}
}
