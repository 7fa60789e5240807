package models

import (
	"time"

	"github.com/google/uuid"
)

// Answer statuses.
const (
	AnswerStatusActive = "active"
	AnswerStatusHidden = "hidden"
)

// Answer is a served response persisted for later review and feedback.
// Response maps to the "prompt" column for compatibility with the original
// answers table.
type Answer struct {
	ID       uuid.UUID `json:"id"`
	Question string    `json:"question"`
	Response string    `json:"prompt"`
	PromptID string    `json:"prompt_id"`
	Username string    `json:"username"`
	Status   string    `json:"status"`
	Feedback *int      `json:"feedback,omitempty"`
	Date     time.Time `json:"date"`
}
