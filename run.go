package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"batchspoof/clips"
	"batchspoof/effects"
	"batchspoof/media"
	"batchspoof/task"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var runFlags struct {
	settingsFile string
	mode         string
	intensity    string
	duplicates   int
	clipLength   string
	pattern      string
	removeAudio  bool
	output       string
}

var runCmd = &cobra.Command{
	Use:   "run [files or directories...]",
	Short: "Process files in the foreground; Ctrl+C stops the job",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fs := afero.NewOsFs()

		settings, err := runSettings(cmd, fs)
		if err != nil {
			return err
		}
		files, err := expandPaths(fs, args)
		if err != nil {
			return err
		}

		log := logger
		manager, err := newManager(fs, task.Hooks{
			OnBatch: func(b int, ev task.BatchEvent) {
				log.Info().Int("batch", b).Str("event", string(ev)).Msg("Batch")
			},
			OnProgress: func(i int, percent float64, status task.Status) {
				log.Debug().Int("file", i).Float64("percent", percent).Str("status", string(status)).Msg("Progress")
			},
		})
		if err != nil {
			return err
		}

		job, err := manager.Start(context.Background(), task.StartRequest{
			Files:      files,
			Settings:   settings,
			OutputRoot: runFlags.output,
		})
		if err != nil {
			return err
		}

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sig)

		select {
		case <-job.Done():
		case <-sig:
			log.Warn().Msg("Stopping; the current file is abandoned")
			if err := manager.Stop(); err != nil {
				log.Debug().Err(err).Msg("Stop")
			}
			<-job.Done()
		}

		summary := job.Summary()
		for _, f := range summary.Failures {
			log.Error().Str("file", f.File).Int("batch", f.Batch).Msg(f.Message)
		}
		log.Info().
			Str("state", string(summary.State)).
			Str("output_root", summary.OutputRoot).
			Int("outputs", summary.OutputCount).
			Int("processed", summary.ProcessedCount).
			Int("failed", summary.FailedCount).
			Dur("elapsed", summary.Elapsed).
			Msg("Done")

		if summary.FailedCount > 0 {
			return fmt.Errorf("%d unit(s) failed", summary.FailedCount)
		}
		return nil
	},
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.settingsFile, "settings", "", "YAML settings file; flags override its values")
	f.StringVar(&runFlags.mode, "mode", string(task.ModeSpoofSplit), "spoof-split, spoof-only, split-only or convert-only")
	f.StringVar(&runFlags.intensity, "intensity", string(effects.Medium), "light, medium or heavy")
	f.IntVar(&runFlags.duplicates, "duplicates", 1, "number of batches")
	f.StringVar(&runFlags.clipLength, "clip-length", string(clips.Policy6to8), "6-8, 8, 10 or 15")
	f.StringVar(&runFlags.pattern, "pattern", "", "output naming pattern")
	f.BoolVar(&runFlags.removeAudio, "remove-audio", false, "drop the audio stream")
	f.StringVarP(&runFlags.output, "output", "o", "", "output root (default: a timestamped directory under OUTPUT_DIR)")
}

// runSettings merges the settings file with any flags set explicitly.
func runSettings(cmd *cobra.Command, fs afero.Fs) (task.Settings, error) {
	var s task.Settings
	if runFlags.settingsFile != "" {
		var err error
		if s, err = task.LoadSettings(fs, runFlags.settingsFile); err != nil {
			return s, err
		}
	}

	flags := cmd.Flags()
	if runFlags.settingsFile == "" || flags.Changed("mode") {
		s.Mode = task.Mode(runFlags.mode)
	}
	if runFlags.settingsFile == "" || flags.Changed("intensity") {
		s.Intensity = effects.Intensity(runFlags.intensity)
	}
	if runFlags.settingsFile == "" || flags.Changed("duplicates") {
		s.Duplicates = runFlags.duplicates
	}
	if runFlags.settingsFile == "" || flags.Changed("clip-length") {
		s.ClipLength = clips.Policy(runFlags.clipLength)
	}
	if flags.Changed("pattern") {
		s.NamingPattern = runFlags.pattern
	}
	if flags.Changed("remove-audio") {
		s.RemoveAudio = runFlags.removeAudio
	}
	return s.Normalize()
}

// expandPaths replaces every directory with the media files beneath it.
func expandPaths(fs afero.Fs, paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		isDir, err := afero.IsDir(fs, p)
		if err != nil {
			return nil, err
		}
		if !isDir {
			files = append(files, p)
			continue
		}
		found, err := media.Discover(fs, p)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}
