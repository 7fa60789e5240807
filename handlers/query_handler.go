package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pwnbisht/llm-chatbot/repository"
	"github.com/pwnbisht/llm-chatbot/service"
)

const maxQueryWords = 100

// unsafeQueryChars matches everything stripped from incoming questions before
// they reach the pipeline.
var unsafeQueryChars = regexp.MustCompile(`[^\w\s?.,]`)

// QueryHandler handles HTTP requests for questions and answer feedback
type QueryHandler struct {
	queryService *service.QueryService
	answerRepo   *repository.AnswerRepository
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(queryService *service.QueryService, answerRepo *repository.AnswerRepository) *QueryHandler {
	return &QueryHandler{
		queryService: queryService,
		answerRepo:   answerRepo,
	}
}

// QueryRequest represents the request body for asking a question
type QueryRequest struct {
	Question string `json:"question" binding:"required"`
	Username string `json:"username"`
}

// sanitizeQuestion strips unsafe characters and caps the question length.
func sanitizeQuestion(q string) string {
	q = unsafeQueryChars.ReplaceAllString(q, "")
	q = strings.Trim(q, "?")
	words := strings.Fields(q)
	if len(words) > maxQueryWords {
		words = words[:maxQueryWords]
	}
	return strings.Join(words, " ")
}

// Query handles POST /api/query
func (h *QueryHandler) Query(c *gin.Context) {
	var req QueryRequest
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

	question := sanitizeQuestion(req.Question)
	if question == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "EMPTY_QUESTION",
				"message": "Question is empty after sanitization",
			},
		})
		return
	}

	result, err := h.queryService.Ask(c.Request.Context(), service.AskRequest{
		Question: question,
		Username: req.Username,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "QUERY_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// GetAnswer handles GET /api/answers/:id
func (h *QueryHandler) GetAnswer(c *gin.Context) {
	if h.answerRepo == nil {
		c.JSON(http.StatusNotImplemented, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NO_DATABASE",
				"message": "Answer persistence is not configured",
			},
		})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ANSWER_ID",
				"message": "Invalid answer id format",
			},
		})
		return
	}

	answer, err := h.answerRepo.GetByID(c.Request.Context(), id)
	if errors.Is(err, repository.ErrAnswerNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ANSWER_NOT_FOUND",
				"message": "Answer not found",
			},
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "LOOKUP_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    answer,
	})
}

// FeedbackRequest represents the request body for rating an answer
type FeedbackRequest struct {
	ID       string `json:"id" binding:"required"`
	Feedback int    `json:"feedback" binding:"required"`
}

// Feedback handles POST /api/feedback
func (h *QueryHandler) Feedback(c *gin.Context) {
	if h.answerRepo == nil {
		c.JSON(http.StatusNotImplemented, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NO_DATABASE",
				"message": "Answer persistence is not configured",
			},
		})
		return
	}

	var req FeedbackRequest
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

	if req.Feedback != 1 && req.Feedback != -1 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_FEEDBACK",
				"message": "Feedback must be 1 or -1",
			},
		})
		return
	}

	id, err := uuid.Parse(req.ID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ANSWER_ID",
				"message": "Invalid answer id format",
			},
		})
		return
	}

	err = h.answerRepo.UpdateFeedback(c.Request.Context(), id, req.Feedback)
	if errors.Is(err, repository.ErrAnswerNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ANSWER_NOT_FOUND",
				"message": "Answer not found",
			},
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FEEDBACK_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"id": req.ID, "feedback": req.Feedback},
	})
}

// ListAnswers handles GET /api/admin/answers
func (h *QueryHandler) ListAnswers(c *gin.Context) {
	if h.answerRepo == nil {
		c.JSON(http.StatusNotImplemented, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NO_DATABASE",
				"message": "Answer persistence is not configured",
			},
		})
		return
	}

	answers, err := h.answerRepo.ListRecent(c.Request.Context(), 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "LIST_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    answers,
	})
}
