package vision_client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is a client for the vision model service API. The service runs the
// image-tensor model; when it is unavailable the caller falls back to the
// local filename classifier.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClassifyRequest represents a single image classification request.
type ClassifyRequest struct {
	Filename string `json:"filename"`
	ImageB64 string `json:"image_b64"`
}

// ClassifyResponse represents the classification result for one image.
type ClassifyResponse struct {
	Diagnosis        string  `json:"diagnosis"`
	Confidence       float64 `json:"confidence"`
	ProcessingTimeMs float64 `json:"processing_time_ms,omitempty"`
}

// BatchImage represents an image in a batch request.
type BatchImage struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	ImageB64 string `json:"image_b64"`
}

// BatchClassifyRequest represents a batch classification request.
type BatchClassifyRequest struct {
	Images []BatchImage `json:"images"`
}

// BatchResult represents a single result in a batch response.
type BatchResult struct {
	ID         string  `json:"id"`
	Diagnosis  string  `json:"diagnosis"`
	Confidence float64 `json:"confidence"`
}

// BatchClassifyResponse represents batch classification results.
type BatchClassifyResponse struct {
	Results          []BatchResult `json:"results"`
	Total            int           `json:"total"`
	ProcessingTimeMs float64       `json:"processing_time_ms"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Device      string `json:"device"`
	Message     string `json:"message"`
}

// NewClient creates a new vision service client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewBatchImage wraps raw image bytes for a batch request.
func NewBatchImage(id, filename string, data []byte) BatchImage {
	return BatchImage{
		ID:       id,
		Filename: filename,
		ImageB64: base64.StdEncoding.EncodeToString(data),
	}
}

// ClassifyImage classifies a single image.
func (c *Client) ClassifyImage(ctx context.Context, filename string, data []byte) (*ClassifyResponse, error) {
	reqBody := ClassifyRequest{
		Filename: filename,
		ImageB64: base64.StdEncoding.EncodeToString(data),
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/v1/classify/single", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("vision service returned status %d: %s", resp.StatusCode, string(body))
	}

	var result ClassifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &result, nil
}

// ClassifyBatch classifies multiple images in one request.
func (c *Client) ClassifyBatch(ctx context.Context, images []BatchImage) (*BatchClassifyResponse, error) {
	reqBody := BatchClassifyRequest{
		Images: images,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/v1/classify/batch", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("vision service returned status %d: %s", resp.StatusCode, string(body))
	}

	var result BatchClassifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &result, nil
}

// HealthCheck checks if the vision service is healthy and its model loaded.
func (c *Client) HealthCheck(ctx context.Context) (*HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/v1/health", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("vision service returned status %d: %s", resp.StatusCode, string(body))
	}

	var result HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &result, nil
}
