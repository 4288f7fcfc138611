package ingestion

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func writePDF(t *testing.T, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("%PDF-1.4 resume body"), 0o644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	return path
}

func TestNewFileHandler(t *testing.T) {
	fh := NewFileHandler("test_uploads")
	if fh == nil {
		t.Fatal("Expected non-nil FileHandler")
	}
	if fh.uploadsDir != "test_uploads" {
		t.Errorf("Expected uploadsDir 'test_uploads', got '%s'", fh.uploadsDir)
	}
}

func TestStage(t *testing.T) {
	dir := t.TempDir()
	path := writePDF(t, dir, "alice_cv.pdf")

	fh := NewFileHandler(dir)
	file, err := fh.Stage(path)
	if err != nil {
		t.Fatalf("Stage() failed: %v", err)
	}

	if file.Name != "alice_cv.pdf" {
		t.Errorf("Name = %q, want 'alice_cv.pdf'", file.Name)
	}
	if file.Size == 0 {
		t.Error("Expected non-zero Size")
	}
	if file.Path != path {
		t.Errorf("Path = %q, want %q", file.Path, path)
	}

	selected := fh.Selected()
	if len(selected) != 1 || selected[0].Name != "alice_cv.pdf" {
		t.Errorf("Unexpected selection: %+v", selected)
	}
}

func TestStageRejections(t *testing.T) {
	dir := t.TempDir()

	txtPath := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(txtPath, []byte("plain text"), 0o644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	fakePDF := filepath.Join(dir, "fake.pdf")
	if err := os.WriteFile(fakePDF, []byte("not a pdf at all"), 0o644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"Missing file", filepath.Join(dir, "ghost.pdf")},
		{"Directory", dir},
		{"Wrong extension", txtPath},
		{"PDF extension without PDF content", fakePDF},
	}

	fh := NewFileHandler(dir)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := fh.Stage(tt.path); err == nil {
				t.Errorf("Expected error staging %s", tt.path)
			}
		})
	}

	if len(fh.Selected()) != 0 {
		t.Error("Rejected files must not enter the selection")
	}
}

func TestStageReader(t *testing.T) {
	dir := t.TempDir()
	uploads := filepath.Join(dir, "uploads")

	fh := NewFileHandler(uploads)
	file, err := fh.StageReader("mailed_cv.pdf", strings.NewReader("%PDF-1.4 mailed body"))
	if err != nil {
		t.Fatalf("StageReader() failed: %v", err)
	}

	if file.Name != "mailed_cv.pdf" {
		t.Errorf("Name = %q, want 'mailed_cv.pdf'", file.Name)
	}
	if _, err := os.Stat(filepath.Join(uploads, "mailed_cv.pdf")); err != nil {
		t.Errorf("Expected saved file in uploads dir: %v", err)
	}
	if len(fh.Selected()) != 1 {
		t.Errorf("Expected 1 staged file, got %d", len(fh.Selected()))
	}
}

func TestStageReader_StripsPathComponents(t *testing.T) {
	dir := t.TempDir()
	uploads := filepath.Join(dir, "uploads")

	fh := NewFileHandler(uploads)
	if _, err := fh.StageReader("../../escape.pdf", strings.NewReader("%PDF-1.4 body")); err != nil {
		t.Fatalf("StageReader() failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(uploads, "escape.pdf")); err != nil {
		t.Errorf("Expected file inside uploads dir: %v", err)
	}
}

func TestRemoveAndClear(t *testing.T) {
	dir := t.TempDir()
	first := writePDF(t, dir, "first.pdf")
	second := writePDF(t, dir, "second.pdf")
	third := writePDF(t, dir, "third.pdf")

	fh := NewFileHandler(dir)
	for _, p := range []string{first, second, third} {
		if _, err := fh.Stage(p); err != nil {
			t.Fatalf("Stage(%s) failed: %v", p, err)
		}
	}

	fh.Remove(1)
	selected := fh.Selected()
	if len(selected) != 2 || selected[0].Name != "first.pdf" || selected[1].Name != "third.pdf" {
		t.Errorf("Unexpected selection after Remove: %+v", selected)
	}

	// Out-of-range indices are ignored.
	fh.Remove(-1)
	fh.Remove(5)
	if len(fh.Selected()) != 2 {
		t.Error("Out-of-range Remove must not alter the selection")
	}

	fh.Clear()
	if len(fh.Selected()) != 0 {
		t.Error("Clear must empty the selection")
	}
	if _, err := os.Stat(first); err != nil {
		t.Error("Clear must leave files on disk")
	}
}

// TestConcurrentStagingAndEditing mirrors the Gmail fetch: a background
// goroutine stages files while the UI reads and edits the selection. Run
// with the race detector.
func TestConcurrentStagingAndEditing(t *testing.T) {
	dir := t.TempDir()
	path := writePDF(t, dir, "cv.pdf")

	fh := NewFileHandler(dir)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if _, err := fh.Stage(path); err != nil {
				t.Errorf("Stage() failed: %v", err)
				return
			}
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			fh.Selected()
			fh.Remove(0)
			if i%50 == 0 {
				fh.Clear()
			}
		}
	}()

	wg.Wait()
}

func TestClearUploads(t *testing.T) {
	dir := t.TempDir()
	uploads := filepath.Join(dir, "uploads")

	fh := NewFileHandler(uploads)
	if _, err := fh.StageReader("cv.pdf", strings.NewReader("%PDF-1.4 body")); err != nil {
		t.Fatalf("StageReader() failed: %v", err)
	}

	if err := fh.ClearUploads(); err != nil {
		t.Fatalf("ClearUploads() failed: %v", err)
	}
	if len(fh.Selected()) != 0 {
		t.Error("ClearUploads must empty the selection")
	}

	entries, err := os.ReadDir(uploads)
	if err != nil {
		t.Fatalf("Uploads dir must be recreated: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected empty uploads dir, found %d entries", len(entries))
	}
}
