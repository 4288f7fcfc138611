package ingestion

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cmuturi/resume-ranker/internal/models"
)

// FileHandler manages the resume selection for the next submission: an
// ordered list of PDF files referenced by path. File contents stay on disk
// and are only read when the request body is built. Safe for concurrent use:
// Gmail fetches stage files from a background goroutine while the UI reads
// and edits the selection.
type FileHandler struct {
	uploadsDir string

	mu       sync.Mutex
	selected []models.ResumeFile
}

// NewFileHandler creates a new file handler
func NewFileHandler(uploadsDir string) *FileHandler {
	return &FileHandler{
		uploadsDir: uploadsDir,
	}
}

// Stage adds a file on disk to the selection after checking that it exists
// and looks like a PDF.
func (fh *FileHandler) Stage(path string) (models.ResumeFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return models.ResumeFile{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return models.ResumeFile{}, fmt.Errorf("%s is a directory, not a file", path)
	}

	if ext := strings.ToLower(filepath.Ext(path)); ext != ".pdf" {
		return models.ResumeFile{}, fmt.Errorf("unsupported file type %s, only PDF resumes are accepted", ext)
	}

	if err := SniffPDF(path); err != nil {
		return models.ResumeFile{}, err
	}

	file := models.ResumeFile{
		Name: filepath.Base(path),
		Size: info.Size(),
		Path: path,
	}

	fh.mu.Lock()
	fh.selected = append(fh.selected, file)
	fh.mu.Unlock()

	return file, nil
}

// StageReader saves content into the uploads directory under filename and
// stages the resulting file. Used when resumes arrive from Gmail rather than
// the local filesystem.
func (fh *FileHandler) StageReader(filename string, content io.Reader) (models.ResumeFile, error) {
	if err := os.MkdirAll(fh.uploadsDir, 0755); err != nil {
		return models.ResumeFile{}, fmt.Errorf("failed to create uploads directory: %w", err)
	}

	filePath := filepath.Join(fh.uploadsDir, filepath.Base(filename))
	f, err := os.Create(filePath)
	if err != nil {
		return models.ResumeFile{}, fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		return models.ResumeFile{}, fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		return models.ResumeFile{}, fmt.Errorf("failed to close file: %w", err)
	}

	return fh.Stage(filePath)
}

// Selected returns a copy of the current selection in staging order.
func (fh *FileHandler) Selected() []models.ResumeFile {
	fh.mu.Lock()
	defer fh.mu.Unlock()
	return append([]models.ResumeFile(nil), fh.selected...)
}

// Remove drops the file at index i from the selection. The file on disk is
// left alone.
func (fh *FileHandler) Remove(i int) {
	fh.mu.Lock()
	defer fh.mu.Unlock()
	if i < 0 || i >= len(fh.selected) {
		return
	}
	fh.selected = append(fh.selected[:i], fh.selected[i+1:]...)
}

// Clear empties the selection without touching the files on disk.
func (fh *FileHandler) Clear() {
	fh.mu.Lock()
	defer fh.mu.Unlock()
	fh.selected = nil
}

// ClearUploads removes all files from the uploads directory and empties the
// selection.
func (fh *FileHandler) ClearUploads() error {
	fh.mu.Lock()
	defer fh.mu.Unlock()
	fh.selected = nil
	if err := os.RemoveAll(fh.uploadsDir); err != nil {
		return fmt.Errorf("failed to clear uploads directory: %w", err)
	}
	return os.MkdirAll(fh.uploadsDir, 0755)
}
