package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"batchspoof/events"
	"batchspoof/media"
	"batchspoof/task"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

type Handler struct {
	// ctx outlives requests; jobs are bound to it rather than to the
	// request that started them.
	ctx     context.Context
	manager *task.Manager
	bus     *events.Bus
	fs      afero.Fs
	log     zerolog.Logger
}

func NewHandler(ctx context.Context, tm *task.Manager, bus *events.Bus, fs afero.Fs, log zerolog.Logger) *Handler {
	return &Handler{
		ctx:     ctx,
		manager: tm,
		bus:     bus,
		fs:      fs,
		log:     log,
	}
}

type JobRequest struct {
	Files     []string      `json:"files"`
	Dirs      []string      `json:"dirs"`
	Settings  task.Settings `json:"settings"`
	OutputDir string        `json:"outputDir"`
}

// handleStartJob expands directories, then starts a job in the background.
func (h *Handler) handleStartJob(c *gin.Context) {
	var req JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	files := append([]string(nil), req.Files...)
	for _, dir := range req.Dirs {
		found, err := media.Discover(h.fs, dir)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot read directory", "details": err.Error()})
			return
		}
		files = append(files, found...)
	}

	job, err := h.manager.Start(h.ctx, task.StartRequest{
		Files:      files,
		Settings:   req.Settings,
		OutputRoot: req.OutputDir,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"jobId": job.ID, "outputRoot": job.OutputRoot})
}

// handleGetCurrentJob returns a snapshot of the most recent job.
func (h *Handler) handleGetCurrentJob(c *gin.Context) {
	job := h.manager.Current()
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No job has been started"})
		return
	}

	resp := gin.H{"job": job.Snapshot()}
	if job.State().Terminal() {
		resp["summary"] = job.Summary()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) handlePauseToggle(c *gin.Context) {
	paused, err := h.manager.PauseToggle()
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"paused": paused})
}

func (h *Handler) handleStop(c *gin.Context) {
	if err := h.manager.Stop(); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Job stop requested"})
}

// handleEvents returns events newer than the since query parameter.
func (h *Handler) handleEvents(c *gin.Context) {
	since, err := strconv.ParseInt(c.DefaultQuery("since", "0"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "since must be an integer"})
		return
	}
	c.JSON(http.StatusOK, h.bus.Since(since))
}

func (h *Handler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, task.ErrInvalidSettings), errors.Is(err, task.ErrNoFiles):
		status = http.StatusBadRequest
	case errors.Is(err, task.ErrJobRunning), errors.Is(err, task.ErrNoJob):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("Request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
