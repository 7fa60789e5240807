// Package gemini wraps the Gemini API: a raw HTTP client for embeddings and
// an SDK-backed client for chat generation.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

const (
	// DefaultEmbeddingModel is the embedding model served by the API.
	DefaultEmbeddingModel = "gemini-embedding-001"

	// EmbeddingDimensions is the requested output dimensionality. Embeddings
	// truncated below the model's native size must be re-normalized.
	EmbeddingDimensions = 768

	defaultEmbedBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	taskTypeDocument = "RETRIEVAL_DOCUMENT"
	taskTypeQuery    = "RETRIEVAL_QUERY"

	maxEmbedAttempts = 5
)

// ErrRateLimited is returned after the embedding API keeps refusing with
// status 429 for every attempt.
var ErrRateLimited = errors.New("embedding API rate limit exhausted")

type EmbeddingRequest struct {
	Model                string       `json:"model"`
	Content              ContentInput `json:"content"`
	TaskType             string       `json:"task_type,omitempty"`
	OutputDimensionality int          `json:"output_dimensionality,omitempty"`
}

type ContentInput struct {
	Parts []PartInput `json:"parts"`
}

type PartInput struct {
	Text string `json:"text"`
}

type EmbeddingResponse struct {
	Embedding EmbeddingData `json:"embedding"`
}

type EmbeddingData struct {
	Values []float64 `json:"values"`
}

// EmbedderConfig configures the embedding client. Zero values fall back to
// production defaults.
type EmbedderConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration

	// sleep is swapped out in tests
	sleep func(time.Duration)
}

// Embedder issues embedContent calls over HTTP.
type Embedder struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	sleep   func(time.Duration)
}

// NewEmbedder returns an embedding client for the configured model.
func NewEmbedder(cfg EmbedderConfig) *Embedder {
	if cfg.Model == "" {
		cfg.Model = DefaultEmbeddingModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultEmbedBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.sleep == nil {
		cfg.sleep = time.Sleep
	}
	return &Embedder{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		sleep:   cfg.sleep,
	}
}

// Dimension returns the output dimensionality of produced embeddings.
func (e *Embedder) Dimension() int { return EmbeddingDimensions }

// EmbedDocument embeds text for storage in the index.
func (e *Embedder) EmbedDocument(ctx context.Context, text string) ([]float64, error) {
	return e.embed(ctx, text, taskTypeDocument)
}

// EmbedQuery embeds a search query.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	return e.embed(ctx, text, taskTypeQuery)
}

// embed retries only on 429, waiting one more second per attempt. Any other
// API failure is terminal on the first response.
func (e *Embedder) embed(ctx context.Context, text, taskType string) ([]float64, error) {
	for attempt := 1; attempt <= maxEmbedAttempts; attempt++ {
		values, retryable, err := e.embedOnce(ctx, text, taskType)
		if err == nil {
			normalizeEmbedding(values)
			return values, nil
		}
		if !retryable {
			return nil, err
		}
		if attempt == maxEmbedAttempts {
			return nil, fmt.Errorf("%w: %d attempts", ErrRateLimited, maxEmbedAttempts)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		e.sleep(time.Duration(attempt) * time.Second)
	}
	return nil, fmt.Errorf("%w: %d attempts", ErrRateLimited, maxEmbedAttempts)
}

func (e *Embedder) embedOnce(ctx context.Context, text, taskType string) ([]float64, bool, error) {
	reqBody := EmbeddingRequest{
		Model: "models/" + e.model,
		Content: ContentInput{
			Parts: []PartInput{{Text: text}},
		},
		TaskType:             taskType,
		OutputDimensionality: EmbeddingDimensions,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, false, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:embedContent", e.baseURL, e.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, resp.Body)
		return nil, true, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, false, fmt.Errorf("API error: %d - %s", resp.StatusCode, string(body))
	}

	var apiResp EmbeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, false, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(apiResp.Embedding.Values) == 0 {
		return nil, false, fmt.Errorf("API returned empty embedding")
	}
	return apiResp.Embedding.Values, false, nil
}

func normalizeEmbedding(embedding []float64) {
	var sumSq float64
	for _, v := range embedding {
		sumSq += v * v
	}
	norm := math.Sqrt(sumSq)
	if norm == 0 {
		return
	}
	for i := range embedding {
		embedding[i] /= norm
	}
}
