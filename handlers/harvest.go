package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"go.uber.org/zap"

	"retroriff/services"
	"retroriff/types"
	"retroriff/websocket"
)

// HarvestHandler handles harvest endpoints
type HarvestHandler struct {
	processor services.Processor
	sessions  services.SessionManager
	hub       websocket.Hub
	upgrader  gorilla.Upgrader
	logger    *zap.Logger
}

// NewHarvestHandler creates a new harvest handler
func NewHarvestHandler(processor services.Processor, sessions services.SessionManager, hub websocket.Hub, upgrader gorilla.Upgrader, logger *zap.Logger) *HarvestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HarvestHandler{
		processor: processor,
		sessions:  sessions,
		hub:       hub,
		upgrader:  upgrader,
		logger:    logger,
	}
}

// bindCriteria decodes the request body; an empty body is treated as empty criteria
func bindCriteria(c *gin.Context) (types.SearchCriteria, bool) {
	var criteria types.SearchCriteria
	if c.Request.ContentLength == 0 {
		return criteria, true
	}
	if err := c.ShouldBindJSON(&criteria); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"details": err.Error(),
		})
		return criteria, false
	}
	return criteria, true
}

// Process runs a harvest synchronously and returns the result
func (h *HarvestHandler) Process(c *gin.Context) {
	criteria, ok := bindCriteria(c)
	if !ok {
		return
	}

	// conversions run to completion even if the client goes away
	result, err := h.processor.ProcessQuery(context.WithoutCancel(c.Request.Context()), criteria)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrEmptyCriteria):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid search criteria",
				"details": err.Error(),
			})
		case errors.Is(err, services.ErrValidation):
			c.JSON(http.StatusBadGateway, gin.H{
				"error":   "search strategy was malformed",
				"details": err.Error(),
			})
		default:
			h.logger.Error("Harvest failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   services.HarvestFailedMessage,
				"details": err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// CreateHarvest starts an asynchronous harvest session
func (h *HarvestHandler) CreateHarvest(c *gin.Context) {
	criteria, ok := bindCriteria(c)
	if !ok {
		return
	}

	session, err := h.sessions.Submit(criteria)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, types.ErrEmptyCriteria):
			status = http.StatusBadRequest
		case errors.Is(err, services.ErrQueueFull):
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"error":   "harvest could not be started",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Harvest started",
		"session": session,
	})
}

// ListHarvests returns every known session, newest first
func (h *HarvestHandler) ListHarvests(c *gin.Context) {
	sessions := h.sessions.List()
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"total":    len(sessions),
	})
}

// GetHarvest returns a session by ID
func (h *HarvestHandler) GetHarvest(c *gin.Context) {
	session, exists := h.sessions.Get(c.Param("id"))
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "harvest not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// ResetHarvest returns a finished session to idle and discards it
func (h *HarvestHandler) ResetHarvest(c *gin.Context) {
	err := h.sessions.Reset(c.Param("id"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "harvest reset"})
	case errors.Is(err, services.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "harvest not found"})
	case errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "harvest is still running",
			"details": err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to reset harvest",
			"details": err.Error(),
		})
	}
}

// DownloadArchive streams the harvest as a zip attachment
func (h *HarvestHandler) DownloadArchive(c *gin.Context) {
	session, ok := h.finishedSession(c)
	if !ok {
		return
	}
	if session.Packaging != types.PackagingArchive && c.Query("force") != "true" {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "harvest is offered as a list",
			"details": "use force=true to download it as an archive anyway",
		})
		return
	}

	var buf bytes.Buffer
	entries, err := services.WriteArchive(&buf, session.Result.Songs)
	if err != nil {
		h.logger.Error("Archive build failed", zap.String("session", session.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to build archive",
			"details": err.Error(),
		})
		return
	}

	name := services.ArchiveFileName(time.Now())
	h.logger.Info("Serving archive",
		zap.String("session", session.ID),
		zap.String("file", name),
		zap.Int("entries", entries))
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "application/zip", buf.Bytes())
}

// finishedSession loads a session that completed successfully, writing the
// error response otherwise.
func (h *HarvestHandler) finishedSession(c *gin.Context) (*types.HarvestSession, bool) {
	session, exists := h.sessions.Get(c.Param("id"))
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "harvest not found"})
		return nil, false
	}
	if session.Status != types.HarvestStatusSuccess || session.Result == nil {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "harvest has not finished",
			"details": "status is " + string(session.Status),
		})
		return nil, false
	}
	return session, true
}

// HandleWebSocketConnection streams progress for one session
func (h *HarvestHandler) HandleWebSocketConnection(c *gin.Context) {
	sessionID := c.Param("id")
	if _, exists := h.sessions.Get(sessionID); !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "harvest not found"})
		return
	}
	h.serveWebSocket(c, sessionID)
}

// HandleWebSocketAllConnection streams progress for every session
func (h *HarvestHandler) HandleWebSocketAllConnection(c *gin.Context) {
	h.serveWebSocket(c, websocket.AllSessions)
}

func (h *HarvestHandler) serveWebSocket(c *gin.Context, sessionID string) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := websocket.NewClient(h.hub, conn, sessionID, h.logger)
	h.hub.RegisterClient(client)
	client.StartPumps()
}
