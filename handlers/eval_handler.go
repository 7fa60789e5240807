package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pwnbisht/llm-chatbot/models"
	"github.com/pwnbisht/llm-chatbot/service"
	"github.com/pwnbisht/llm-chatbot/store"
)

// EvalHandler handles HTTP requests for evaluation questions and runs
type EvalHandler struct {
	store       *store.Store
	evalService *service.EvalService
}

// NewEvalHandler creates a new eval handler
func NewEvalHandler(st *store.Store, evalService *service.EvalService) *EvalHandler {
	return &EvalHandler{store: st, evalService: evalService}
}

// CreateQuestionRequest represents the request body for adding an eval question
type CreateQuestionRequest struct {
	Set            string `json:"set" binding:"required"`
	Question       string `json:"question" binding:"required"`
	ExpectedAnswer string `json:"answer" binding:"required"`
}

// CreateQuestion handles POST /api/eval/questions
func (h *EvalHandler) CreateQuestion(c *gin.Context) {
	var req CreateQuestionRequest
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

	q := models.EvalQuestion{Question: req.Question, ExpectedAnswer: req.ExpectedAnswer}
	if err := h.store.AddEvalQuestion(req.Set, q); err != nil {
		if errors.Is(err, store.ErrInvalidSetName) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_SET_NAME",
					"message": err.Error(),
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CREATE_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    gin.H{"set": req.Set, "question": req.Question},
	})
}

// RunRequest represents the request body for starting an evaluation run
type RunRequest struct {
	Set string `json:"set"`
}

// Run handles POST /api/eval/runs. An empty set name runs every stored set.
// The run executes synchronously; large sets take a while.
func (h *EvalHandler) Run(c *gin.Context) {
	var req RunRequest
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

	report, err := h.evalService.Run(c.Request.Context(), req.Set)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "RUN_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    report,
	})
}

// LatestRun handles GET /api/eval/runs/latest
func (h *EvalHandler) LatestRun(c *gin.Context) {
	report, err := h.store.LatestEvalReport()
	if errors.Is(err, store.ErrNoEvalRuns) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NO_RUNS",
				"message": "No evaluation runs recorded",
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
		"data":    report,
	})
}
