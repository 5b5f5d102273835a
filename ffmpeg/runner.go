package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"batchspoof/config"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

const cpuSampleWindow = 200 * time.Millisecond

// Throttle holds the minimum free resources required before a launch.
// Zero values disable the corresponding check.
type Throttle struct {
	MinIdleCPU  float64
	MinFreeMem  int64
	MinFreeDisk int64
	DiskPath    string
}

// Runner launches the transcoder and the duration probe as subprocesses.
type Runner struct {
	ffBin    string
	probeBin string
	throttle Throttle
	log      zerolog.Logger
}

func NewRunner(cfg *config.Config, log zerolog.Logger) (*Runner, error) {
	if _, err := exec.LookPath(cfg.FFBin); err != nil {
		return nil, fmt.Errorf("ffmpeg binary not found or not in PATH: %s", cfg.FFBin)
	}
	// Without a probe every video is treated as long, so this only warns.
	if _, err := exec.LookPath(cfg.FFProbeBin); err != nil {
		log.Warn().Str("bin", cfg.FFProbeBin).Msg("ffprobe binary not found, durations will use the fallback")
	}

	return &Runner{
		ffBin:    cfg.FFBin,
		probeBin: cfg.FFProbeBin,
		throttle: Throttle{
			MinIdleCPU:  cfg.ThrottleCPU,
			MinFreeMem:  cfg.ThrottleFreeMem,
			MinFreeDisk: cfg.ThrottleFreeDisk,
			DiskPath:    cfg.OutputDir,
		},
		log: log,
	}, nil
}

// Run executes the transcoder with args and waits for it to terminate.
// There is no timeout; cancelling ctx kills the process and the returned
// error then matches ErrInterrupted.
func (r *Runner) Run(ctx context.Context, args []string) (Result, error) {
	if err := r.checkResources(); err != nil {
		return Result{ExitCode: -1}, err
	}

	r.log.Debug().Str("bin", r.ffBin).Strs("args", args).Msg("executing transcoder")
	return r.exec(ctx, r.ffBin, args)
}

// ProbeDuration returns the container duration of path in seconds.
func (r *Runner) ProbeDuration(ctx context.Context, path string) (float64, error) {
	res, err := r.exec(ctx, r.probeBin, ProbeArgs(path))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrProbeFailed, err)
	}

	line := strings.TrimSpace(res.Stdout)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	d, err := strconv.ParseFloat(line, 64)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: unexpected output %q", ErrProbeFailed, line)
	}
	return d, nil
}

func (r *Runner) exec(ctx context.Context, bin string, args []string) (Result, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err == nil {
		return res, nil
	}

	res.ExitCode = -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
	}

	// A killed process reports -1; a cancelled one may still exit with a
	// status if it handled the signal.
	interrupted := ctx.Err() != nil || (exitErr != nil && res.ExitCode == -1)
	return res, &ExitError{Args: args, Result: res, Interrupted: interrupted, Err: err}
}

// checkResources refuses a launch when the host is below the throttle.
// Failures to read a metric are logged and do not block.
func (r *Runner) checkResources() error {
	t := r.throttle

	if t.MinIdleCPU > 0 {
		p, err := cpu.Percent(cpuSampleWindow, false)
		if err != nil {
			r.log.Warn().Err(err).Msg("could not read CPU usage")
		} else if len(p) > 0 && 100.0-p[0] < t.MinIdleCPU {
			return fmt.Errorf("%w: idle CPU %.2f%% below %.2f%%", ErrInsufficientResources, 100.0-p[0], t.MinIdleCPU)
		}
	}

	if t.MinFreeMem > 0 {
		vm, err := mem.VirtualMemory()
		if err != nil {
			r.log.Warn().Err(err).Msg("could not read memory usage")
		} else if vm.Available < uint64(t.MinFreeMem) {
			return fmt.Errorf("%w: available memory %d below %d", ErrInsufficientResources, vm.Available, t.MinFreeMem)
		}
	}

	if t.MinFreeDisk > 0 && t.DiskPath != "" {
		d, err := disk.Usage(t.DiskPath)
		if err != nil {
			r.log.Warn().Err(err).Str("path", t.DiskPath).Msg("could not read disk usage")
		} else if d.Free < uint64(t.MinFreeDisk) {
			return fmt.Errorf("%w: free disk %d below %d", ErrInsufficientResources, d.Free, t.MinFreeDisk)
		}
	}
	return nil
}
