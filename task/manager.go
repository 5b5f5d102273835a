package task

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"batchspoof/config"
	"batchspoof/ffmpeg"
	"batchspoof/media"
	"batchspoof/naming"

	"github.com/lithammer/shortuuid/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// UnitExecutor runs one (file, batch) unit.
type UnitExecutor interface {
	Execute(ctx context.Context, u Unit) ([]string, error)
}

// StartRequest describes a new job.
type StartRequest struct {
	Files    []string
	Settings Settings
	// OutputRoot overrides the timestamped directory under OUTPUT_DIR.
	OutputRoot string
}

// Manager owns at most one active job and runs its units one at a time.
type Manager struct {
	cfg   *config.Config
	exec  UnitExecutor
	fs    afero.Fs
	hooks Hooks
	log   zerolog.Logger
	now   func() time.Time

	mu      sync.Mutex
	current *Job
}

func NewManager(cfg *config.Config, exec UnitExecutor, fs afero.Fs, hooks Hooks, log zerolog.Logger) *Manager {
	return &Manager{
		cfg:   cfg,
		exec:  exec,
		fs:    fs,
		hooks: hooks,
		log:   log,
		now:   time.Now,
	}
}

// Start validates req, creates the output root and runs the job in the
// background. ctx bounds the whole job, so it must outlive the caller's
// request.
func (m *Manager) Start(ctx context.Context, req StartRequest) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil && !m.current.State().Terminal() {
		return nil, ErrJobRunning
	}

	settings, err := req.Settings.Normalize()
	if err != nil {
		return nil, err
	}

	files := m.collect(req.Files)
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	now := m.now()
	root := req.OutputRoot
	if root == "" {
		root = filepath.Join(m.cfg.OutputDir, "spoofed_"+now.Format("2006-01-02_15-04-05"))
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	if err := m.fs.MkdirAll(root, 0o755); err != nil {
		return nil, &FSError{Op: "mkdir", Path: root, Err: err}
	}

	job := newJob(shortuuid.New(), files, settings, root, now)
	jobCtx, cancel := context.WithCancel(ctx)
	job.cancel = cancel
	if err := job.transition(StateRunning); err != nil {
		cancel()
		return nil, err
	}
	m.current = job

	m.log.Info().
		Str("job_id", job.ID).
		Str("mode", string(settings.Mode)).
		Int("files", len(files)).
		Int("batches", settings.Batches()).
		Str("output_root", root).
		Msg("Job started")
	m.hooks.job(JobEvent{Type: JobStarted, JobID: job.ID})

	go m.run(jobCtx, job)
	return job, nil
}

// collect turns paths into file tasks, skipping unsupported or unreadable
// entries.
func (m *Manager) collect(paths []string) []FileTask {
	files := make([]FileTask, 0, len(paths))
	for _, p := range paths {
		t := NewFileTask(p)
		if t.Kind == media.KindUnknown {
			m.log.Warn().Str("path", p).Msg("Skipping unsupported file")
			continue
		}
		info, err := m.fs.Stat(p)
		if err != nil {
			m.log.Warn().Err(err).Str("path", p).Msg("Skipping unreadable file")
			continue
		}
		t.Size = info.Size()
		files = append(files, t)
	}
	return files
}

// Current returns the most recent job, or nil if none has been started.
func (m *Manager) Current() *Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// PauseToggle pauses or resumes the current job and reports whether it is
// now paused.
func (m *Manager) PauseToggle() (bool, error) {
	job := m.Current()
	if job == nil {
		return false, ErrNoJob
	}
	paused, err := job.PauseToggle()
	if err != nil {
		return paused, err
	}

	ev := JobResumed
	if paused {
		ev = JobPaused
	}
	m.log.Info().Str("job_id", job.ID).Bool("paused", paused).Msg("Job pause toggled")
	m.hooks.job(JobEvent{Type: ev, JobID: job.ID})
	return paused, nil
}

// Stop ends the current job at its next checkpoint.
func (m *Manager) Stop() error {
	job := m.Current()
	if job == nil {
		return ErrNoJob
	}
	if s := job.State(); s.Terminal() {
		return fmt.Errorf("%w: job is %s", ErrNoJob, s)
	}
	m.log.Info().Str("job_id", job.ID).Msg("Job stop requested")
	m.hooks.job(JobEvent{Type: JobStopping, JobID: job.ID})
	return job.Stop()
}

func (m *Manager) run(ctx context.Context, job *Job) {
	defer close(job.done)
	defer job.cancel()

	batches := job.Settings.Batches()
	n := job.fileCount()
	final := StateCompleted

batchLoop:
	for b := 1; b <= batches; b++ {
		job.beginBatch(b)
		m.hooks.batch(b, BatchStarted)
		seq := &naming.Sequence{}

		for i := 0; i < n; i++ {
			// Read before checkpoint, which may mark the file paused.
			prev := job.file(i).Status
			if err := m.checkpoint(ctx, job, i); err != nil {
				final = StateStopped
				break batchLoop
			}
			m.runUnit(ctx, job, i, prev, b, batches, n, seq)
		}

		job.endBatch()
		m.hooks.batch(b, BatchCompleted)
	}
	if ctx.Err() != nil {
		final = StateStopped
	}

	summary := job.finish(final, m.now())
	m.log.Info().
		Str("job_id", job.ID).
		Str("state", string(summary.State)).
		Int("outputs", summary.OutputCount).
		Int("processed", summary.ProcessedCount).
		Int("failed", summary.FailedCount).
		Dur("elapsed", summary.Elapsed).
		Msg("Job finished")

	ev := JobCompleted
	if final == StateStopped {
		ev = JobStopped
	}
	m.hooks.job(JobEvent{Type: ev, JobID: job.ID, Summary: &summary})
}

// checkpoint runs before every unit. It holds while the job is paused and
// returns an error once the job has been stopped.
func (m *Manager) checkpoint(ctx context.Context, job *Job, i int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if job.gate.isPaused() {
		st, pct := job.setFile(i, StatusPaused, 0)
		m.hooks.progress(i, pct, st)
		if err := job.gate.wait(ctx, m.cfg.PausePoll); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// runUnit processes file i for batch b. An interrupted unit puts the file
// back to prev, its status before this batch reached it.
func (m *Manager) runUnit(ctx context.Context, job *Job, i int, prev Status, b, batches, n int, seq *naming.Sequence) {
	f := job.file(i)
	st, pct := job.setFile(i, StatusProcessing, progress(b, batches, i, n))
	m.hooks.progress(i, pct, st)

	log := m.log.With().Str("job_id", job.ID).Str("file", f.Name).Int("batch", b).Logger()
	u := Unit{
		File:      f,
		Settings:  job.Settings,
		OutputDir: job.OutputRoot,
		Batch:     b,
		Batches:   batches,
		Seq:       seq,
	}

	outputs, err := m.attempt(ctx, u, log)
	done := progress(b, batches, i+1, n)
	switch {
	case err == nil:
		job.unitSucceeded()
		status := BatchComplete(b)
		if b == batches {
			status = StatusComplete
		}
		st, pct = job.setFile(i, status, done)
		log.Debug().Strs("outputs", outputs).Msg("Unit complete")
	case errors.Is(err, ffmpeg.ErrInterrupted):
		// Dropped for this batch and not reported as a failure.
		st, pct = job.setFile(i, prev, 0)
		log.Info().Msg("Unit interrupted")
	default:
		job.unitFailed(Failure{File: f.Path, Batch: b, Message: UserMessage(err), Err: err})
		st, pct = job.setFile(i, StatusFailed, done)
		log.Error().Err(err).Msg("Unit failed")
	}
	m.hooks.progress(i, pct, st)
}

// attempt executes u up to MaxAttempts times. Interrupted runs are never
// retried.
func (m *Manager) attempt(ctx context.Context, u Unit, log zerolog.Logger) ([]string, error) {
	limit := m.cfg.MaxAttempts
	if limit < 1 {
		limit = 1
	}

	var err error
	for n := 1; n <= limit; n++ {
		var outputs []string
		outputs, err = m.exec.Execute(ctx, u)
		if err == nil {
			return outputs, nil
		}
		if !retryable(err) {
			return nil, err
		}
		log.Warn().Err(err).Int("attempt", n).Int("max_attempts", limit).Msg("Unit attempt failed")
		if n == limit {
			break
		}

		timer := time.NewTimer(m.cfg.RetryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, errors.Join(ffmpeg.ErrInterrupted, err)
		case <-timer.C:
		}
	}
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrExhaustedRetries, limit, err)
}
