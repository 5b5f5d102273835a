package task

import (
	"fmt"
	"path/filepath"

	"batchspoof/media"
)

// Status is the per-file state shown to the user.
type Status string

const (
	StatusReady      Status = "ready"
	StatusWaiting    Status = "waiting"
	StatusProcessing Status = "processing"
	StatusPaused     Status = "paused"
	StatusComplete   Status = "complete"
	StatusFailed     Status = "failed"
)

// BatchComplete is the status of a file whose unit in batch n succeeded.
func BatchComplete(n int) Status {
	return Status(fmt.Sprintf("batch-%d-complete", n))
}

// FileTask is one input file of a job. Kind never changes once the job has
// started; only Status and Progress move.
type FileTask struct {
	Path     string     `json:"path"`
	Kind     media.Kind `json:"kind"`
	Name     string     `json:"name"`
	Size     int64      `json:"size"`
	Progress float64    `json:"progress"`
	Status   Status     `json:"status"`
}

// NewFileTask describes the file at path. Size is filled in by the caller.
func NewFileTask(path string) FileTask {
	return FileTask{
		Path:   path,
		Kind:   media.KindOf(path),
		Name:   filepath.Base(path),
		Status: StatusReady,
	}
}
