package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pwnbisht/llm-chatbot/models"
)

// ErrAnswerNotFound is returned when no answer matches the given id.
var ErrAnswerNotFound = errors.New("answer not found")

// AnswerRepository handles database operations for served answers
type AnswerRepository struct {
	db *pgxpool.Pool
}

// NewAnswerRepository creates a new answer repository
func NewAnswerRepository(db *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{db: db}
}

// Create stores a served answer
func (r *AnswerRepository) Create(ctx context.Context, answer models.Answer) error {
	query := `
		INSERT INTO answers (
			id, question, prompt, prompt_id, username, status, date
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)`

	_, err := r.db.Exec(
		ctx, query,
		answer.ID,
		answer.Question,
		answer.Response,
		answer.PromptID,
		answer.Username,
		answer.Status,
		answer.Date,
	)
	if err != nil {
		return fmt.Errorf("failed to insert answer: %w", err)
	}
	return nil
}

// GetByID retrieves an answer by ID
func (r *AnswerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Answer, error) {
	answer := &models.Answer{}
	query := `
		SELECT id, question, prompt, prompt_id, username, status, feedback, date
		FROM answers
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&answer.ID,
		&answer.Question,
		&answer.Response,
		&answer.PromptID,
		&answer.Username,
		&answer.Status,
		&answer.Feedback,
		&answer.Date,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAnswerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get answer: %w", err)
	}
	return answer, nil
}

// UpdateFeedback records a thumbs up (+1) or down (-1) on an answer
func (r *AnswerRepository) UpdateFeedback(ctx context.Context, id uuid.UUID, feedback int) error {
	query := `UPDATE answers SET feedback = $1 WHERE id = $2`

	tag, err := r.db.Exec(ctx, query, feedback, id)
	if err != nil {
		return fmt.Errorf("failed to update feedback: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAnswerNotFound
	}
	return nil
}

// ListRecent returns the most recently served answers, newest first
func (r *AnswerRepository) ListRecent(ctx context.Context, limit int) ([]models.Answer, error) {
	query := `
		SELECT id, question, prompt, prompt_id, username, status, feedback, date
		FROM answers
		ORDER BY date DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	defer rows.Close()

	var answers []models.Answer
	for rows.Next() {
		var answer models.Answer
		err := rows.Scan(
			&answer.ID,
			&answer.Question,
			&answer.Response,
			&answer.PromptID,
			&answer.Username,
			&answer.Status,
			&answer.Feedback,
			&answer.Date,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		answers = append(answers, answer)
	}
	return answers, rows.Err()
}
