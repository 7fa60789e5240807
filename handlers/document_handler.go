package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pwnbisht/llm-chatbot/models"
	"github.com/pwnbisht/llm-chatbot/store"
)

// DocumentHandler handles HTTP requests for document submission
type DocumentHandler struct {
	store *store.Store
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(st *store.Store) *DocumentHandler {
	return &DocumentHandler{store: st}
}

// SubmitDocumentRequest represents the request body for queueing a document
type SubmitDocumentRequest struct {
	Text string                 `json:"text" binding:"required"`
	Meta map[string]interface{} `json:"meta"`
}

// SubmitDocument handles POST /api/documents. The document is queued for the
// next ingestion run, not indexed inline.
func (h *DocumentHandler) SubmitDocument(c *gin.Context) {
	var req SubmitDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	name, err := h.store.EnqueueDocument(models.Document{Text: req.Text, Meta: req.Meta})
	if errors.Is(err, models.ErrEmptyDocument) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "EMPTY_DOCUMENT",
				"message": "Document has no text",
			},
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ENQUEUE_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"data":    gin.H{"queued": name},
	})
}
