package task

import (
	"context"
	"errors"

	"batchspoof/clips"
	"batchspoof/effects"
	"batchspoof/ffmpeg"
	"batchspoof/media"
	"batchspoof/naming"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// FallbackDuration is assumed for a video whose duration cannot be probed,
// so segmentation still engages.
const FallbackDuration = 90.0

// Transcoder is the external tool boundary.
type Transcoder interface {
	Run(ctx context.Context, args []string) (ffmpeg.Result, error)
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

// Unit is one (file, batch) pair.
type Unit struct {
	File      FileTask
	Settings  Settings
	OutputDir string
	Batch     int
	Batches   int
	// Seq is shared by every unit of a batch.
	Seq *naming.Sequence
}

// Executor runs the strategy selected by a unit's mode.
type Executor struct {
	tc       Transcoder
	fs       afero.Fs
	builder  *ffmpeg.Builder
	resolver *naming.Resolver
	log      zerolog.Logger
}

func NewExecutor(tc Transcoder, fs afero.Fs, builder *ffmpeg.Builder, resolver *naming.Resolver, log zerolog.Logger) *Executor {
	return &Executor{
		tc:       tc,
		fs:       fs,
		builder:  builder,
		resolver: resolver,
		log:      log,
	}
}

// Execute runs one unit and returns the outputs it wrote. On failure every
// output of this attempt is removed before the error is returned.
func (e *Executor) Execute(ctx context.Context, u Unit) ([]string, error) {
	run, ok := strategies[u.Settings.Mode]
	if !ok {
		return nil, ErrInvalidSettings
	}
	if u.Seq == nil {
		u.Seq = &naming.Sequence{}
	}

	if err := e.fs.MkdirAll(u.OutputDir, 0o755); err != nil {
		return nil, &FSError{Op: "mkdir", Path: u.OutputDir, Err: err}
	}

	r := &unitRun{Executor: e, Unit: u, log: e.log.With().Str("file", u.File.Name).Int("batch", u.Batch).Logger()}
	if err := run(ctx, r); err != nil {
		r.cleanup()
		return nil, err
	}
	return r.outputs, nil
}

// strategy produces every output of one unit.
type strategy func(ctx context.Context, r *unitRun) error

var strategies = map[Mode]strategy{
	ModeSpoofOnly:   spoofOnly,
	ModeSpoofSplit:  spoofSplit,
	ModeSplitOnly:   splitOnly,
	ModeConvertOnly: convertOnly,
}

func spoofOnly(ctx context.Context, r *unitRun) error {
	out := r.nextPath(r.Settings.FormatFor(r.File.Kind))
	p := effects.Generate(r.Settings.Intensity)
	return r.transcode(ctx, r.builder.Spoof(r.File.Path, out, r.File.Kind, p, r.Settings.RemoveAudio))
}

func spoofSplit(ctx context.Context, r *unitRun) error {
	if r.File.Kind != media.KindVideo {
		return spoofOnly(ctx, r)
	}
	plan := clips.Plan(r.duration(ctx), r.Settings.ClipLength)
	if len(plan) == 0 {
		return spoofOnly(ctx, r)
	}
	for _, c := range plan {
		out := r.nextPath(r.Settings.VideoFormat)
		p := effects.Generate(r.Settings.Intensity)
		if err := r.transcode(ctx, r.builder.SpoofClip(r.File.Path, out, c, p, r.Settings.RemoveAudio)); err != nil {
			return err
		}
	}
	return nil
}

func splitOnly(ctx context.Context, r *unitRun) error {
	var plan []clips.Clip
	if r.File.Kind == media.KindVideo {
		plan = clips.Plan(r.duration(ctx), r.Settings.ClipLength)
	}
	if len(plan) == 0 {
		return r.copyVerbatim()
	}
	for _, c := range plan {
		out := r.nextPath(r.Settings.VideoFormat)
		if err := r.transcode(ctx, r.builder.CopyClip(r.File.Path, out, c)); err != nil {
			return err
		}
	}
	return nil
}

func convertOnly(ctx context.Context, r *unitRun) error {
	out := r.nextPath(r.Settings.FormatFor(r.File.Kind))
	return r.transcode(ctx, r.builder.Convert(r.File.Path, out, r.File.Kind, r.Settings.RemoveAudio))
}

// unitRun is the state of one attempt.
type unitRun struct {
	*Executor
	Unit
	log     zerolog.Logger
	outputs []string
}

// nextPath resolves the next output path and records it for cleanup.
func (r *unitRun) nextPath(format string) string {
	path := r.resolver.Resolve(naming.Request{
		Source:    r.File.Path,
		Kind:      r.File.Kind,
		OutputDir: r.OutputDir,
		Pattern:   r.Settings.NamingPattern,
		Sequence:  r.Seq.Next(),
		Batch:     r.Batch,
		Batches:   r.Batches,
		Format:    format,
	})
	r.outputs = append(r.outputs, path)
	return path
}

func (r *unitRun) transcode(ctx context.Context, args []string) error {
	r.log.Debug().Strs("args", args).Msg("Invoking transcoder")
	_, err := r.tc.Run(ctx, args)
	if err != nil {
		var exitErr *ffmpeg.ExitError
		if errors.As(err, &exitErr) && !exitErr.Interrupted {
			r.log.Warn().Int("exit_code", exitErr.Result.ExitCode).Str("stderr", exitErr.StderrTail(5)).Msg("Transcoder failed")
		}
		return err
	}
	return nil
}

func (r *unitRun) duration(ctx context.Context) float64 {
	d, err := r.tc.ProbeDuration(ctx, r.File.Path)
	if err != nil {
		r.log.Warn().Err(err).Float64("fallback", FallbackDuration).Msg("Duration probe failed")
		return FallbackDuration
	}
	return d
}

// copyVerbatim copies the source unchanged. The source extension is kept
// since no re-encode happens.
func (r *unitRun) copyVerbatim() error {
	out := r.nextPath("")
	src, err := r.fs.Open(r.File.Path)
	if err != nil {
		return &FSError{Op: "open", Path: r.File.Path, Err: err}
	}
	defer src.Close()

	if err := afero.WriteReader(r.fs, out, src); err != nil {
		return &FSError{Op: "copy", Path: out, Err: err}
	}
	return nil
}

// cleanup removes partial outputs. Failures are logged and swallowed.
func (r *unitRun) cleanup() {
	for _, path := range r.outputs {
		exists, err := afero.Exists(r.fs, path)
		if err != nil {
			r.log.Warn().Err(err).Str("path", path).Msg("Could not stat partial output")
			continue
		}
		if !exists {
			continue
		}
		if err := r.fs.Remove(path); err != nil {
			r.log.Warn().Err(err).Str("path", path).Msg("Could not remove partial output")
		}
	}
	r.outputs = nil
}
