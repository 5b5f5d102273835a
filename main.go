// batchspoof/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"batchspoof/api"
	"batchspoof/config"
	"batchspoof/events"
	"batchspoof/ffmpeg"
	"batchspoof/logging"
	"batchspoof/naming"
	"batchspoof/task"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	cfg      *config.Config
	logger   zerolog.Logger
	logLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "batchspoof",
	Short:         "Batch media spoofing with ffmpeg",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		logger = logging.New(cfg.LogLevel, cfg.LogFormat)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)
}

// newManager wires the transcoder, executor and manager for the host file
// system.
func newManager(fs afero.Fs, hooks task.Hooks) (*task.Manager, error) {
	runner, err := ffmpeg.NewRunner(cfg, logging.WithComponent(logger, "ffmpeg"))
	if err != nil {
		return nil, err
	}
	builder, err := ffmpeg.NewBuilder(cfg)
	if err != nil {
		return nil, err
	}
	exec := task.NewExecutor(runner, fs, builder, naming.NewResolver(), logging.WithComponent(logger, "executor"))
	return task.NewManager(cfg, exec, fs, hooks, logging.WithComponent(logger, "manager")), nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP control surface",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		fs := afero.NewOsFs()
		bus := events.NewBus(cfg.EventHistory)
		manager, err := newManager(fs, bus.Hooks())
		if err != nil {
			return err
		}

		h := api.NewHandler(ctx, manager, bus, fs, logging.WithComponent(logger, "api"))
		srv := &http.Server{
			Addr:    ":" + cfg.Port,
			Handler: api.SetupRouter(h, cfg),
		}

		go func() {
			logger.Info().Str("port", cfg.Port).Msg("Server starting")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal().Err(err).Msg("listen")
			}
		}()

		<-ctx.Done()
		stop()
		logger.Info().Msg("Shutting down gracefully, press Ctrl+C again to force")

		// The job context is already cancelled; give it a moment to record
		// its final summary.
		if job := manager.Current(); job != nil {
			waitCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			_, _ = job.Wait(waitCtx)
			cancel()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}

		logger.Info().Msg("Server exiting")
		return nil
	},
}
