package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// BuildInfo identifies the running binary
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

// HealthHandler reports liveness and database reachability
type HealthHandler struct {
	build BuildInfo
	ping  func(ctx context.Context) error
}

// NewHealthHandler creates a new HealthHandler; ping may be nil
func NewHealthHandler(build BuildInfo, ping func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{build: build, ping: ping}
}

// Health check endpoint
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	status, code := "ok", http.StatusOK
	database := "ok"
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			status, code = "degraded", http.StatusServiceUnavailable
			database = err.Error()
		}
	}

	c.JSON(code, gin.H{
		"status":     status,
		"database":   database,
		"version":    h.build.Version,
		"commit":     h.build.Commit,
		"build_time": h.build.BuildTime,
		"time":       time.Now().Unix(),
	})
}
