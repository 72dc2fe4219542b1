package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"retroriff/web"
)

// UIHandler serves the embedded harvester page
type UIHandler struct {
	title string
}

// NewUIHandler creates a new UI handler
func NewUIHandler(title string) *UIHandler {
	return &UIHandler{title: title}
}

// Index renders the harvester page. The router must have the web templates loaded.
func (h *UIHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, web.IndexTemplate, gin.H{
		"Title": h.title,
	})
}
