package submission

import (
	"errors"
	"fmt"
)

// Validation failures are detected locally, before any network traffic.
var (
	ErrEmptyJobDescription    = errors.New("job description is required")
	ErrJobDescriptionTooShort = errors.New("job description must be at least 50 characters")
	ErrNoFilesProvided        = errors.New("at least one resume file is required")
	ErrTooManyFiles           = errors.New("maximum 10 resume files allowed")

	// ErrSubmissionInFlight is returned when Submit is called while a
	// previous submission is still running.
	ErrSubmissionInFlight = errors.New("a submission is already in progress")
)

// FileTooLargeError reports the first file in submission order that exceeds
// the per-file size limit.
type FileTooLargeError struct {
	FileName string
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file %q exceeds the 5 MiB limit", e.FileName)
}

// ServiceUnavailableError wraps a remote or transport failure. Message is the
// service's structured error field when one was returned, else a generic
// transport message. Err retains the underlying cause for wrapping.
type ServiceUnavailableError struct {
	Message string
	Err     error
}

func (e *ServiceUnavailableError) Error() string {
	return fmt.Sprintf("ranking service unavailable: %s", e.Message)
}

func (e *ServiceUnavailableError) Unwrap() error {
	return e.Err
}
