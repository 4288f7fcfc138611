package submission

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/cmuturi/resume-ranker/internal/client"
	"github.com/cmuturi/resume-ranker/internal/models"
)

// State is the controller's coarse lifecycle position. Every submission ends
// back in StateIdle, whether it succeeded or failed.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateSubmitting
)

// String returns a display name for the state.
func (s State) String() string {
	switch s {
	case StateValidating:
		return "validating"
	case StateSubmitting:
		return "submitting"
	default:
		return "idle"
	}
}

// Progress checkpoints published during a submission. The indicator is
// advisory and not tied to bytes transferred.
const (
	progressValidated  = 10
	progressDispatched = 30
	progressDone       = 100
)

// Ranker is the remote ranking operation the controller orchestrates.
type Ranker interface {
	Rank(ctx context.Context, jobDescription string, files []models.ResumeFile) (*models.ResultSet, error)
}

// ProgressCallback is called to report progress during processing
type ProgressCallback func(current, total int, message string)

// Controller validates draft inputs, runs the remote ranking call, and tracks
// a coarse progress indicator. Concurrent submissions are refused: at most one
// request is in flight.
type Controller struct {
	ranker Ranker

	mu             sync.RWMutex
	state          State
	jobDescription string
	files          []models.ResumeFile
	results        *models.ResultSet
	progress       int
	progressCb     ProgressCallback
}

// NewController creates a submission controller bound to the given ranker.
func NewController(ranker Ranker) *Controller {
	return &Controller{ranker: ranker}
}

// SetProgressCallback sets the progress callback function
func (c *Controller) SetProgressCallback(cb ProgressCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.progressCb = cb
}

// reportProgress publishes a checkpoint. Within one submission the value never
// decreases; a reset to zero happens only through resetProgress.
func (c *Controller) reportProgress(current int, message string) {
	c.mu.Lock()
	if current < c.progress {
		current = c.progress
	}
	c.progress = current
	cb := c.progressCb
	c.mu.Unlock()

	if cb != nil {
		cb(current, 100, message)
	}
}

// resetProgress drops the indicator back to zero after a failure.
func (c *Controller) resetProgress(message string) {
	c.mu.Lock()
	c.progress = 0
	cb := c.progressCb
	c.mu.Unlock()

	if cb != nil {
		cb(0, 100, message)
	}
}

// SetJobDescription replaces the draft job description.
func (c *Controller) SetJobDescription(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jobDescription = text
}

// JobDescription returns the current draft job description.
func (c *Controller) JobDescription() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.jobDescription
}

// SetFiles replaces the draft file selection, preserving order.
func (c *Controller) SetFiles(files []models.ResumeFile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files = append([]models.ResumeFile(nil), files...)
}

// AddFile appends one file to the draft selection.
func (c *Controller) AddFile(file models.ResumeFile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files = append(c.files, file)
}

// RemoveFile drops the file at index i from the draft selection.
func (c *Controller) RemoveFile(i int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.files) {
		return
	}
	c.files = append(c.files[:i], c.files[i+1:]...)
}

// Files returns a copy of the draft file selection.
func (c *Controller) Files() []models.ResumeFile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.ResumeFile(nil), c.files...)
}

// State returns the controller's current state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Results returns the ResultSet from the last successful submission, or nil.
func (c *Controller) Results() *models.ResultSet {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.results
}

// Submit validates the draft inputs and, if they pass, runs the remote
// ranking call. On success the draft inputs are cleared and the new ResultSet
// stored; on any failure the inputs are preserved so the user can correct and
// resubmit. While a submission is running, further calls are refused
// synchronously with ErrSubmissionInFlight.
func (c *Controller) Submit(ctx context.Context) (*models.ResultSet, error) {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	c.state = StateValidating
	c.progress = 0
	jobDescription := c.jobDescription
	files := append([]models.ResumeFile(nil), c.files...)
	c.mu.Unlock()

	if err := validate(jobDescription, files); err != nil {
		c.finish(StateIdle)
		c.resetProgress("Validation failed")
		return nil, err
	}

	c.reportProgress(progressValidated, "Validation passed")

	c.mu.Lock()
	c.state = StateSubmitting
	c.mu.Unlock()

	c.reportProgress(progressDispatched, fmt.Sprintf("Ranking %d resumes...", len(files)))

	resultSet, err := c.ranker.Rank(ctx, jobDescription, files)
	if err != nil {
		log.Printf("Ranking request failed: %v", err)
		c.finish(StateIdle)
		c.resetProgress("Submission failed")
		return nil, asServiceUnavailable(err)
	}

	c.reportProgress(progressDone, fmt.Sprintf("Received %d results", len(resultSet.Results)))

	c.mu.Lock()
	c.results = resultSet
	c.jobDescription = ""
	c.files = nil
	c.state = StateIdle
	c.mu.Unlock()

	return resultSet, nil
}

// finish transitions back to the given state, keeping inputs untouched.
func (c *Controller) finish(state State) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}

// validate applies the submission preconditions strictly in order and returns
// the first failure.
func validate(jobDescription string, files []models.ResumeFile) error {
	trimmed := strings.TrimSpace(jobDescription)
	if trimmed == "" {
		return ErrEmptyJobDescription
	}
	if len(trimmed) < models.MinJobDescriptionLen {
		return ErrJobDescriptionTooShort
	}
	if len(files) == 0 {
		return ErrNoFilesProvided
	}
	if len(files) > models.MaxResumeFiles {
		return ErrTooManyFiles
	}
	for _, f := range files {
		if f.Size > models.MaxResumeFileSize {
			return &FileTooLargeError{FileName: f.Name}
		}
	}
	return nil
}

// asServiceUnavailable maps a remote failure onto the controller's error
// taxonomy. Structured service errors keep their message verbatim; everything
// else gets a generic transport message.
func asServiceUnavailable(err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return &ServiceUnavailableError{Message: apiErr.Message, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ServiceUnavailableError{Message: "the ranking service did not respond in time", Err: err}
	}
	return &ServiceUnavailableError{Message: "could not reach the ranking service", Err: err}
}
