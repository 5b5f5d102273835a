package task

import (
	"errors"
	"fmt"

	"batchspoof/ffmpeg"
)

var (
	// ErrFilesystem matches copy, mkdir and delete failures.
	ErrFilesystem = errors.New("filesystem operation failed")
	// ErrExhaustedRetries wraps the last error of a unit that used every attempt.
	ErrExhaustedRetries = errors.New("retries exhausted")

	ErrJobRunning      = errors.New("a job is already running")
	ErrNoJob           = errors.New("no active job")
	ErrNoFiles         = errors.New("no processable files")
	ErrInvalidSettings = errors.New("invalid settings")
)

// FSError reports a failed file-system operation on Path.
type FSError struct {
	Op   string
	Path string
	Err  error
}

func (e *FSError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FSError) Is(target error) bool {
	return target == ErrFilesystem
}

func (e *FSError) Unwrap() error {
	return e.Err
}

// User-facing failure categories. Tool diagnostics never reach the user.
const (
	MsgProcessingFailed = "processing failed"
	MsgFileFailed       = "file operation failed"
	MsgInterrupted      = "interrupted"
)

// UserMessage maps a unit error to its user-facing category.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ffmpeg.ErrInterrupted):
		return MsgInterrupted
	case errors.Is(err, ErrFilesystem):
		return MsgFileFailed
	default:
		return MsgProcessingFailed
	}
}

// retryable reports whether another attempt of the unit may succeed.
func retryable(err error) bool {
	return !errors.Is(err, ffmpeg.ErrInterrupted)
}
