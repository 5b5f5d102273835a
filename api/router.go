package api

import (
	"batchspoof/config"

	"github.com/gin-gonic/gin"
)

func SetupRouter(h *Handler, cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(h.log))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	v1.Use(AuthMiddleware(cfg))
	{
		v1.POST("/jobs", h.handleStartJob)
		v1.GET("/jobs/current", h.handleGetCurrentJob)
		v1.PATCH("/jobs/current/pause", h.handlePauseToggle)
		v1.PATCH("/jobs/current/stop", h.handleStop)

		v1.GET("/events", h.handleEvents)
	}
	return r
}
