package task

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// State is the lifecycle of one job.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StatePaused    State = "paused"
	StateCompleted State = "completed"
	StateStopped   State = "stopped"
)

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateStopped
}

// isValidTransition enforces the job state machine edges.
func isValidTransition(from, to State) bool {
	switch from {
	case StateIdle:
		return to == StateRunning
	case StateRunning:
		return to == StatePaused || to == StateCompleted || to == StateStopped
	case StatePaused:
		return to == StateRunning || to == StateCompleted || to == StateStopped
	default:
		return false
	}
}

// Failure is one unit that used every attempt.
type Failure struct {
	File    string `json:"file"`
	Batch   int    `json:"batch"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Summary is reported once a job reaches a terminal state.
type Summary struct {
	JobID          string        `json:"jobId"`
	State          State         `json:"state"`
	OutputRoot     string        `json:"outputRoot"`
	OutputCount    int           `json:"outputCount"`
	ProcessedCount int           `json:"processedCount"`
	FailedCount    int           `json:"failedCount"`
	Failures       []Failure     `json:"failures"`
	Elapsed        time.Duration `json:"elapsed"`
}

// Snapshot is a consistent copy of a job's observable state.
type Snapshot struct {
	ID             string     `json:"id"`
	State          State      `json:"state"`
	Settings       Settings   `json:"settings"`
	OutputRoot     string     `json:"outputRoot"`
	StartedAt      time.Time  `json:"startedAt"`
	Batches        int        `json:"batches"`
	CurrentBatch   int        `json:"currentBatch"`
	OutputCount    int        `json:"outputCount"`
	ProcessedCount int        `json:"processedCount"`
	Files          []FileTask `json:"files"`
	Failures       []Failure  `json:"failures"`
}

// Job is the unit of work for one start action. Only the manager's run
// goroutine mutates files and counters; the lock exists for readers.
type Job struct {
	ID         string
	Settings   Settings
	OutputRoot string
	StartedAt  time.Time

	mu             sync.RWMutex
	state          State
	files          []FileTask
	currentBatch   int
	outputCount    int
	processedCount int
	failures       []Failure
	summary        Summary

	gate   *pauseGate
	cancel context.CancelFunc
	done   chan struct{}
}

func newJob(id string, files []FileTask, s Settings, outputRoot string, now time.Time) *Job {
	for i := range files {
		files[i].Status = StatusWaiting
		files[i].Progress = 0
	}
	return &Job{
		ID:         id,
		Settings:   s,
		OutputRoot: outputRoot,
		StartedAt:  now,
		state:      StateIdle,
		files:      files,
		gate:       newPauseGate(),
		done:       make(chan struct{}),
	}
}

func (j *Job) transition(to State) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.transitionLocked(to)
}

func (j *Job) transitionLocked(to State) error {
	if !isValidTransition(j.state, to) {
		return fmt.Errorf("invalid transition: %s -> %s", j.state, to)
	}
	j.state = to
	return nil
}

// State returns the current lifecycle state.
func (j *Job) State() State {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.state
}

// PauseToggle pauses a running job or resumes a paused one and reports
// whether the job is now paused. Work already in flight is not interrupted.
func (j *Job) PauseToggle() (bool, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	switch j.state {
	case StateRunning:
		if err := j.transitionLocked(StatePaused); err != nil {
			return false, err
		}
	case StatePaused:
		if err := j.transitionLocked(StateRunning); err != nil {
			return true, err
		}
	default:
		return false, fmt.Errorf("%w: job is %s", ErrNoJob, j.state)
	}
	return j.gate.toggle(), nil
}

// Stop asks the job to end. It takes effect at the next checkpoint; a
// running transcode is killed on a best-effort basis.
func (j *Job) Stop() error {
	j.mu.RLock()
	state := j.state
	j.mu.RUnlock()

	if state.Terminal() || state == StateIdle {
		return fmt.Errorf("%w: job is %s", ErrNoJob, state)
	}
	j.cancel()
	return nil
}

// Done is closed when the job reaches a terminal state.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job ends or ctx is done.
func (j *Job) Wait(ctx context.Context) (Summary, error) {
	select {
	case <-j.done:
		return j.Summary(), nil
	case <-ctx.Done():
		return Summary{}, ctx.Err()
	}
}

// Summary returns the final report; it is zero until the job ends.
func (j *Job) Summary() Summary {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.summary
}

func (j *Job) Snapshot() Snapshot {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return Snapshot{
		ID:             j.ID,
		State:          j.state,
		Settings:       j.Settings,
		OutputRoot:     j.OutputRoot,
		StartedAt:      j.StartedAt,
		Batches:        j.Settings.Batches(),
		CurrentBatch:   j.currentBatch,
		OutputCount:    j.outputCount,
		ProcessedCount: j.processedCount,
		Files:          append([]FileTask(nil), j.files...),
		Failures:       append([]Failure(nil), j.failures...),
	}
}

func (j *Job) file(i int) FileTask {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.files[i]
}

func (j *Job) fileCount() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.files)
}

// setFile updates status and progress. Progress never moves backwards.
func (j *Job) setFile(i int, status Status, progress float64) (Status, float64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	f := &j.files[i]
	f.Status = status
	if progress > f.Progress {
		f.Progress = progress
	}
	return f.Status, f.Progress
}

func (j *Job) beginBatch(b int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.currentBatch = b
}

func (j *Job) unitSucceeded() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.outputCount++
}

func (j *Job) unitFailed(f Failure) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.failures = append(j.failures, f)
}

// endBatch recomputes processedCount as the files not currently failed.
func (j *Job) endBatch() {
	j.mu.Lock()
	defer j.mu.Unlock()
	n := 0
	for _, f := range j.files {
		if f.Status != StatusFailed {
			n++
		}
	}
	j.processedCount = n
}

func (j *Job) finish(state State, now time.Time) Summary {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.transitionLocked(state); err != nil {
		j.state = state
	}
	j.summary = Summary{
		JobID:          j.ID,
		State:          j.state,
		OutputRoot:     j.OutputRoot,
		OutputCount:    j.outputCount,
		ProcessedCount: j.processedCount,
		FailedCount:    len(j.failures),
		Failures:       append([]Failure(nil), j.failures...),
		Elapsed:        now.Sub(j.StartedAt),
	}
	return j.summary
}

// progress is the job-wide percentage reached after `done` files of batch b.
func progress(b, batches, done, files int) float64 {
	if files == 0 || batches == 0 {
		return 0
	}
	batchStart := float64(b-1) / float64(batches) * 100
	return batchStart + float64(done)/float64(files)*(1/float64(batches))*100
}

// pauseGate blocks the run loop between units while paused. Resuming closes
// the current channel, which wakes the waiter immediately.
type pauseGate struct {
	mu     sync.Mutex
	paused bool
	resume chan struct{}
}

func newPauseGate() *pauseGate {
	return &pauseGate{}
}

func (g *pauseGate) toggle() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.paused {
		close(g.resume)
		g.paused = false
	} else {
		g.paused = true
		g.resume = make(chan struct{})
	}
	return g.paused
}

func (g *pauseGate) isPaused() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paused
}

// wait returns once the gate is open, or ctx.Err() if ctx ends first. poll
// bounds how long a missed wake-up can go unnoticed.
func (g *pauseGate) wait(ctx context.Context, poll time.Duration) error {
	if poll <= 0 {
		poll = time.Second
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		g.mu.Lock()
		paused, ch := g.paused, g.resume
		g.mu.Unlock()
		if !paused {
			return ctx.Err()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		case <-ticker.C:
		}
	}
}
