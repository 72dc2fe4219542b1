package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"retroriff/config"
	"retroriff/services"
	"retroriff/websocket"
)

// ServiceName identifies the service in health responses
const ServiceName = "retroriff"

// Version is the service version reported by health checks
const Version = "1.0.0"

// HealthHandler handles health check endpoints
type HealthHandler struct {
	cfg      *config.Config
	sessions services.SessionManager
	hub      websocket.Hub
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(cfg *config.Config, sessions services.SessionManager, hub websocket.Hub) *HealthHandler {
	return &HealthHandler{cfg: cfg, sessions: sessions, hub: hub}
}

// HealthCheck returns the health status of the service
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   ServiceName,
		"version":   Version,
		"timestamp": time.Now().Unix(),
	})
}

// APIStatus returns the status of the API
func (h *HealthHandler) APIStatus(c *gin.Context) {
	status := gin.H{
		"message":   "RetroRiff API is running",
		"provider":  h.cfg.LLM.Provider,
		"converter": h.cfg.Converter.Mode,
	}
	if h.sessions != nil {
		status["sessions"] = len(h.sessions.List())
	}
	if h.hub != nil {
		status["subscribers"] = h.hub.ClientCount()
	}
	c.JSON(http.StatusOK, status)
}
