package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cmuturi/resume-ranker/internal/models"
)

// Config is the immutable transport configuration for the ranking service.
// It is passed in at construction; the client keeps no global state.
type Config struct {
	// BaseURL is the service root, e.g. "http://localhost:5000".
	BaseURL string
	// Timeout bounds a single request end to end. Zero means 120 seconds.
	Timeout time.Duration
	// HTTPClient overrides the underlying client, mainly for tests.
	HTTPClient *http.Client
}

// Client talks to the remote resume-ranking service.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// New creates a ranking service client from the given configuration.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	httpc := cfg.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpc:   httpc,
	}
}

// APIError is a structured error response from the service. Message carries
// the service's "error" field verbatim when one was present.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ranking service error (HTTP %d): %s", e.StatusCode, e.Message)
}

// rankResponse mirrors the /rank payload. The service may wrap results in an
// object or return the array directly; both shapes are accepted.
type rankResponse struct {
	Results []models.RankedResult `json:"results"`
}

// Rank submits a job description and a batch of resume files for ranking.
// Files are streamed from disk while the multipart body is built; their
// handles are released before the call returns.
func (c *Client) Rank(ctx context.Context, jobDescription string, files []models.ResumeFile) (*models.ResultSet, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("job_description", jobDescription); err != nil {
		return nil, fmt.Errorf("failed to write job description field: %w", err)
	}

	for _, rf := range files {
		if err := appendFilePart(writer, rf); err != nil {
			return nil, err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize request body: %w", err)
	}

	url := c.baseURL + "/rank"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build rank request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	log.Printf("POST %s (%d resumes, %d bytes)", url, len(files), body.Len())

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rank request failed: %w", err)
	}
	defer resp.Body.Close()

	log.Printf("POST %s -> %d", url, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read rank response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeAPIError(resp.StatusCode, data)
	}

	results, err := decodeResults(data)
	if err != nil {
		return nil, err
	}

	// Stable identity for selection state; names may repeat and positions
	// change with every resort.
	for i := range results {
		results[i].ID = uuid.NewString()
	}

	return &models.ResultSet{
		Results:    results,
		ReceivedAt: time.Now(),
	}, nil
}

// appendFilePart streams one resume file into the multipart body.
func appendFilePart(writer *multipart.Writer, rf models.ResumeFile) error {
	f, err := os.Open(rf.Path)
	if err != nil {
		return fmt.Errorf("failed to open resume %s: %w", rf.Name, err)
	}
	defer f.Close()

	part, err := writer.CreateFormFile("resumes", rf.Name)
	if err != nil {
		return fmt.Errorf("failed to create file part for %s: %w", rf.Name, err)
	}

	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("failed to copy resume %s into request: %w", rf.Name, err)
	}

	return nil
}

// decodeResults accepts either {"results": [...]} or a bare result array.
func decodeResults(data []byte) ([]models.RankedResult, error) {
	var wrapped rankResponse
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Results != nil {
		return wrapped.Results, nil
	}

	var bare []models.RankedResult
	if err := json.Unmarshal(data, &bare); err == nil {
		return bare, nil
	}

	return nil, fmt.Errorf("unrecognized rank response: %s", truncate(string(data), 200))
}

// decodeAPIError surfaces the service's structured error field verbatim when
// present, else a generic message carrying the status.
func decodeAPIError(status int, data []byte) error {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Error != "" {
		return &APIError{StatusCode: status, Message: payload.Error}
	}
	return &APIError{StatusCode: status, Message: fmt.Sprintf("request failed with status %d", status)}
}

// Health probes the service's liveness endpoint.
func (c *Client) Health(ctx context.Context) (*models.HealthStatus, error) {
	var status models.HealthStatus
	if err := c.getJSON(ctx, "/health", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Stats fetches the service's operational counters. Callers treat failures as
// non-fatal: log and carry on without the numbers.
func (c *Client) Stats(ctx context.Context) (*models.ServiceStats, error) {
	var stats models.ServiceStats
	if err := c.getJSON(ctx, "/stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ClearCache asks the service to drop its embedding cache and returns the
// number of cleared entries. Failures propagate.
func (c *Client) ClearCache(ctx context.Context) (int, error) {
	url := c.baseURL + "/clear-cache"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build clear-cache request: %w", err)
	}

	log.Printf("POST %s", url)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, fmt.Errorf("clear-cache request failed: %w", err)
	}
	defer resp.Body.Close()

	log.Printf("POST %s -> %d", url, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read clear-cache response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return 0, decodeAPIError(resp.StatusCode, data)
	}

	var payload struct {
		Message        string `json:"message"`
		ClearedEntries int    `json:"cleared_entries"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return 0, fmt.Errorf("failed to parse clear-cache response: %w", err)
	}

	return payload.ClearedEntries, nil
}

// getJSON performs a GET against path and decodes the JSON response into out.
func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", path, err)
	}

	log.Printf("GET %s", url)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	log.Printf("GET %s -> %d", url, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", path, err)
	}

	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp.StatusCode, data)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response from %s: %w", path, err)
	}

	return nil
}

// truncate shortens s for log/error messages.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
