package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cmuturi/resume-ranker/internal/models"
)

// writeTestResume creates a small PDF-shaped file on disk and returns its
// ResumeFile descriptor.
func writeTestResume(t *testing.T, dir, name string) models.ResumeFile {
	t.Helper()

	path := filepath.Join(dir, name)
	content := []byte("%PDF-1.4 test resume body")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("Failed to write test resume: %v", err)
	}
	return models.ResumeFile{Name: name, Size: int64(len(content)), Path: path}
}

func TestRank_BuildsMultipartRequest(t *testing.T) {
	dir := t.TempDir()
	files := []models.ResumeFile{
		writeTestResume(t, dir, "alice.pdf"),
		writeTestResume(t, dir, "bob.pdf"),
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/rank" {
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Fatalf("Failed to parse multipart form: %v", err)
		}
		if got := r.FormValue("job_description"); got != "Senior Go engineer" {
			t.Errorf("job_description = %q, want %q", got, "Senior Go engineer")
		}

		parts := r.MultipartForm.File["resumes"]
		if len(parts) != 2 {
			t.Fatalf("Expected 2 resume parts, got %d", len(parts))
		}
		if parts[0].Filename != "alice.pdf" || parts[1].Filename != "bob.pdf" {
			t.Errorf("Unexpected filenames: %s, %s", parts[0].Filename, parts[1].Filename)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results": [{"name": "alice.pdf", "score": 88}]}`))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	rs, err := c.Rank(context.Background(), "Senior Go engineer", files)
	if err != nil {
		t.Fatalf("Rank() failed: %v", err)
	}
	if len(rs.Results) != 1 || rs.Results[0].Score != 88 {
		t.Errorf("Unexpected results: %+v", rs.Results)
	}
	if rs.ReceivedAt.IsZero() {
		t.Error("ReceivedAt must be stamped")
	}
}

// TestRank_DecodesFractionalScores pins the real service payload shape: the
// backend emits scores rounded to two decimals, not whole numbers.
func TestRank_DecodesFractionalScores(t *testing.T) {
	dir := t.TempDir()
	files := []models.ResumeFile{writeTestResume(t, dir, "cv.pdf")}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results": [{"name": "a.pdf", "score": 87.53, "rank": 1}, {"name": "b.pdf", "score": 59.21, "rank": 2}]}`))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	rs, err := c.Rank(context.Background(), "Any role description", files)
	if err != nil {
		t.Fatalf("Rank() failed: %v", err)
	}
	if len(rs.Results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(rs.Results))
	}
	if rs.Results[0].Score != 88 {
		t.Errorf("Score = %d, want 88 (rounded from 87.53)", rs.Results[0].Score)
	}
	if rs.Results[1].Score != 59 {
		t.Errorf("Score = %d, want 59 (rounded from 59.21)", rs.Results[1].Score)
	}
}

func TestRank_AcceptsBareArrayResponse(t *testing.T) {
	dir := t.TempDir()
	files := []models.ResumeFile{writeTestResume(t, dir, "cv.pdf")}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"name": "cv.pdf", "score": 72, "rank": 1, "assessment": "Good"}]`))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	rs, err := c.Rank(context.Background(), "Any role description", files)
	if err != nil {
		t.Fatalf("Rank() failed: %v", err)
	}
	if len(rs.Results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(rs.Results))
	}
	if rs.Results[0].Assessment != "Good" || rs.Results[0].Rank != 1 {
		t.Errorf("Unexpected result: %+v", rs.Results[0])
	}
}

func TestRank_AssignsUniqueIDs(t *testing.T) {
	dir := t.TempDir()
	files := []models.ResumeFile{writeTestResume(t, dir, "cv.pdf")}

	// Duplicate names on the wire must still get distinct identities.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results": [{"name": "cv.pdf", "score": 60}, {"name": "cv.pdf", "score": 60}]}`))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	rs, err := c.Rank(context.Background(), "Any role description", files)
	if err != nil {
		t.Fatalf("Rank() failed: %v", err)
	}

	seen := make(map[string]bool)
	for _, result := range rs.Results {
		if result.ID == "" {
			t.Error("Result is missing an ID")
		}
		if seen[result.ID] {
			t.Errorf("Duplicate ID %q", result.ID)
		}
		seen[result.ID] = true
	}
}

func TestRank_SurfacesServiceErrorVerbatim(t *testing.T) {
	dir := t.TempDir()
	files := []models.ResumeFile{writeTestResume(t, dir, "cv.pdf")}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": "Rate limit exceeded. Max 10 requests per hour."}`))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	_, err := c.Rank(context.Background(), "Any role description", files)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, http.StatusTooManyRequests)
	}
	if apiErr.Message != "Rate limit exceeded. Max 10 requests per hour." {
		t.Errorf("Service message must pass through verbatim, got %q", apiErr.Message)
	}
}

func TestRank_GenericMessageWithoutErrorField(t *testing.T) {
	dir := t.TempDir()
	files := []models.ResumeFile{writeTestResume(t, dir, "cv.pdf")}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	_, err := c.Rank(context.Background(), "Any role description", files)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %v", err)
	}
	if apiErr.Message != "request failed with status 502" {
		t.Errorf("Unexpected fallback message: %q", apiErr.Message)
	}
}

func TestRank_MissingFileFailsBeforeRequest(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	files := []models.ResumeFile{{Name: "ghost.pdf", Size: 10, Path: "/nonexistent/ghost.pdf"}}
	if _, err := c.Rank(context.Background(), "Any role description", files); err == nil {
		t.Fatal("Expected error for unreadable file")
	}
	if requests != 0 {
		t.Errorf("No request should be sent when a file cannot be read, got %d", requests)
	}
}

func TestHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "healthy", "timestamp": "2026-08-30T10:00:00", "cache_size": 12}`))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	status, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health() failed: %v", err)
	}
	if status.Status != "healthy" || status.CacheSize != 12 {
		t.Errorf("Unexpected health status: %+v", status)
	}
}

func TestStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"cached_embeddings": 34, "active_clients": 2, "rate_limit_window": 3600, "rate_limit_requests": 10, "cache_ttl": 86400}`))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	stats, err := c.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	if stats.CachedEmbeddings != 34 || stats.ActiveClients != 2 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestClearCache(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/clear-cache" {
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message": "Cache cleared", "cleared_entries": 7}`))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	cleared, err := c.ClearCache(context.Background())
	if err != nil {
		t.Fatalf("ClearCache() failed: %v", err)
	}
	if cleared != 7 {
		t.Errorf("cleared = %d, want 7", cleared)
	}
}

func TestClearCache_FailurePropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "cache backend offline"}`))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	if _, err := c.ClearCache(context.Background()); err == nil {
		t.Fatal("Expected error from failed clear-cache")
	}
}

func TestNew_TrimsTrailingSlashAndDefaultsTimeout(t *testing.T) {
	c := New(Config{BaseURL: "http://localhost:5000/"})
	if c.baseURL != "http://localhost:5000" {
		t.Errorf("baseURL = %q, want trailing slash removed", c.baseURL)
	}
	if c.httpc.Timeout != 120*time.Second {
		t.Errorf("Timeout = %v, want 120s default", c.httpc.Timeout)
	}
}
