package task

// JobEventType names a job lifecycle transition.
type JobEventType string

const (
	JobStarted   JobEventType = "started"
	JobPaused    JobEventType = "paused"
	JobResumed   JobEventType = "resumed"
	JobStopping  JobEventType = "stopping"
	JobCompleted JobEventType = "completed"
	JobStopped   JobEventType = "stopped"
)

// JobEvent is delivered on every lifecycle transition. Summary is set only
// for the terminal events.
type JobEvent struct {
	Type    JobEventType `json:"type"`
	JobID   string       `json:"jobId"`
	Summary *Summary     `json:"summary,omitempty"`
}

// BatchEvent marks the boundaries of a batch.
type BatchEvent string

const (
	BatchStarted   BatchEvent = "started"
	BatchCompleted BatchEvent = "completed"
)

// Hooks are the presentation callbacks. Any of them may be nil. They are
// called from the run goroutine, except pause and stop events which come
// from the caller's goroutine, and must not block.
type Hooks struct {
	OnProgress func(fileIndex int, percent float64, status Status)
	OnBatch    func(batch int, ev BatchEvent)
	OnJob      func(ev JobEvent)
}

func (h Hooks) progress(i int, percent float64, status Status) {
	if h.OnProgress != nil {
		h.OnProgress(i, percent, status)
	}
}

func (h Hooks) batch(b int, ev BatchEvent) {
	if h.OnBatch != nil {
		h.OnBatch(b, ev)
	}
}

func (h Hooks) job(ev JobEvent) {
	if h.OnJob != nil {
		h.OnJob(ev)
	}
}
