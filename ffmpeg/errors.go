package ffmpeg

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTranscodeFailed matches a run that exited with a non-zero status
	// or could not be started.
	ErrTranscodeFailed = errors.New("transcode failed")
	// ErrInterrupted matches a run that ended without a normal exit: the
	// process was killed or its context was cancelled.
	ErrInterrupted = errors.New("transcode interrupted")
	// ErrProbeFailed matches a duration probe that produced no usable value.
	ErrProbeFailed = errors.New("duration probe failed")
	// ErrInsufficientResources matches a launch refused by the resource gate.
	ErrInsufficientResources = errors.New("insufficient system resources")
)

// Result is the outcome of one tool invocation.
type Result struct {
	// ExitCode is -1 when the process did not exit on its own.
	ExitCode int
	Stdout   string
	Stderr   string
}

// Exited reports whether the process terminated with an exit status.
func (r Result) Exited() bool {
	return r.ExitCode >= 0
}

// ExitError describes a failed invocation. It matches ErrInterrupted or
// ErrTranscodeFailed under errors.Is, never both.
type ExitError struct {
	Args        []string
	Result      Result
	Interrupted bool
	Err         error
}

func (e *ExitError) Error() string {
	if e.Interrupted {
		return fmt.Sprintf("%s: %v", ErrInterrupted, e.Err)
	}
	return fmt.Sprintf("%s (exit %d): %v", ErrTranscodeFailed, e.Result.ExitCode, e.Err)
}

func (e *ExitError) Is(target error) bool {
	if e.Interrupted {
		return target == ErrInterrupted
	}
	return target == ErrTranscodeFailed
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// StderrTail returns the last n non-empty lines of the captured stderr.
func (e *ExitError) StderrTail(n int) string {
	lines := strings.Split(strings.TrimSpace(e.Result.Stderr), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
