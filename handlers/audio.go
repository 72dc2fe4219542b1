package handlers

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"retroriff/services"
	"retroriff/types"
)

// AudioHandler serves individual harvested songs
type AudioHandler struct {
	sessions services.SessionManager
	audio    services.AudioService
	logger   *zap.Logger
}

// NewAudioHandler creates a new audio handler
func NewAudioHandler(sessions services.SessionManager, audio services.AudioService, logger *zap.Logger) *AudioHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AudioHandler{
		sessions: sessions,
		audio:    audio,
		logger:   logger,
	}
}

// songAudio resolves the decoded payload of a song, writing the error response
// when it is unavailable.
func (h *AudioHandler) songAudio(c *gin.Context) (types.Song, []byte, bool) {
	session, exists := h.sessions.Get(c.Param("id"))
	if !exists || session.Result == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "harvest not found"})
		return types.Song{}, nil, false
	}

	songID, err := strconv.Atoi(c.Param("songId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid song ID",
			"details": err.Error(),
		})
		return types.Song{}, nil, false
	}

	for _, song := range session.Result.Songs {
		if song.ID != songID {
			continue
		}
		if song.FileContent == "" {
			c.JSON(http.StatusNotFound, gin.H{"error": "song has no audio"})
			return song, nil, false
		}
		data, err := base64.StdEncoding.DecodeString(song.FileContent)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "corrupt song content",
				"details": err.Error(),
			})
			return song, nil, false
		}
		return song, data, true
	}

	c.JSON(http.StatusNotFound, gin.H{"error": "song not found"})
	return types.Song{}, nil, false
}

// StreamSong serves a song with support for range requests
func (h *AudioHandler) StreamSong(c *gin.Context) {
	song, data, ok := h.songAudio(c)
	if !ok {
		return
	}

	name := services.ArchiveEntryName(song)
	size := int64(len(data))

	c.Header("Content-Type", h.audio.GetContentType(name))
	c.Header("Accept-Ranges", "bytes")
	c.Header("Cache-Control", "private, max-age=3600")
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", name))

	if rangeHeader := c.GetHeader("Range"); rangeHeader != "" {
		h.handleRangeRequest(c, data, rangeHeader)
		return
	}

	c.Header("Content-Length", strconv.FormatInt(size, 10))
	c.Status(http.StatusOK)
	if _, err := c.Writer.Write(data); err != nil {
		h.logger.Warn("Error streaming song", zap.String("name", name), zap.Error(err))
	}
}

// handleRangeRequest serves a single "bytes=start-end" range
func (h *AudioHandler) handleRangeRequest(c *gin.Context, data []byte, rangeHeader string) {
	size := int64(len(data))
	start, end, ok := parseRange(rangeHeader, size)
	if !ok {
		c.Header("Content-Range", fmt.Sprintf("bytes */%d", size))
		c.Status(http.StatusRequestedRangeNotSatisfiable)
		return
	}

	contentLength := end - start + 1
	c.Header("Content-Length", strconv.FormatInt(contentLength, 10))
	c.Header("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
	c.Status(http.StatusPartialContent)

	if _, err := c.Writer.Write(data[start : end+1]); err != nil {
		h.logger.Warn("Error streaming range",
			zap.Int64("start", start),
			zap.Int64("end", end),
			zap.Error(err))
	}
}

// parseRange parses "bytes=0-1023", "bytes=1024-" or "bytes=-500" against size
func parseRange(header string, size int64) (int64, int64, bool) {
	if !strings.HasPrefix(header, "bytes=") || size == 0 {
		return 0, 0, false
	}
	first, last, found := strings.Cut(strings.TrimPrefix(header, "bytes="), "-")
	if !found || strings.Contains(last, ",") {
		return 0, 0, false
	}

	// suffix range: the final N bytes
	if first == "" {
		n, err := strconv.ParseInt(last, 10, 64)
		if err != nil || n <= 0 {
			return 0, 0, false
		}
		if n > size {
			n = size
		}
		return size - n, size - 1, true
	}

	start, err := strconv.ParseInt(first, 10, 64)
	if err != nil || start < 0 || start >= size {
		return 0, 0, false
	}
	end := size - 1
	if last != "" {
		end, err = strconv.ParseInt(last, 10, 64)
		if err != nil || end < start {
			return 0, 0, false
		}
		if end >= size {
			end = size - 1
		}
	}
	return start, end, true
}

// GetMetadata returns tag metadata for a song
func (h *AudioHandler) GetMetadata(c *gin.Context) {
	song, data, ok := h.songAudio(c)
	if !ok {
		return
	}

	name := services.ArchiveEntryName(song)
	c.JSON(http.StatusOK, gin.H{
		"id":          song.ID,
		"name":        name,
		"size":        len(data),
		"contentType": h.audio.GetContentType(name),
		"metadata":    h.audio.ExtractAudioMetadata(name, data),
	})
}
