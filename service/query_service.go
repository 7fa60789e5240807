package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pwnbisht/llm-chatbot/models"
	"github.com/pwnbisht/llm-chatbot/repository"
	"github.com/pwnbisht/llm-chatbot/store"
)

var (
	ErrRetrievalFailed  = errors.New("failed to retrieve sources")
	ErrGenerationFailed = errors.New("failed to generate answer")
	ErrEmbeddingFailed  = errors.New("failed to embed query")
)

const (
	// DefaultRetrievalK is the number of neighbors fetched per query.
	DefaultRetrievalK = 5

	// DefaultAnswerTemperature is used for user-facing generation.
	DefaultAnswerTemperature = 0.7

	// staleSourceAge marks sources old enough to warrant a caveat.
	staleSourceAge = 365 * 24 * time.Hour

	staleNote = "Note: this source is more than a year old and may be out of date."

	apologyResponse = "I'm sorry, I wasn't able to find an answer to that question."
)

var citationPattern = regexp.MustCompile(`<a href="(.*?)">(.*?)</a>`)

// Generator produces a chat completion from conversation fragments.
type Generator interface {
	Generate(ctx context.Context, fragments []models.Fragment, temperature float64) (string, error)
}

// QueryService answers questions against the current index generation.
type QueryService struct {
	store       *store.Store
	embedder    Embedder
	generator   Generator
	answerRepo  *repository.AnswerRepository
	k           int
	temperature float64
	facts       string
	now         func() time.Time

	// The open generation is cached and swapped only when the current
	// pointer moves to a different generation.
	mu  sync.Mutex
	gen *store.Generation
}

// QueryServiceOption is a functional option for QueryService
type QueryServiceOption func(*QueryService)

// QueryWithAnswerRepository sets the answer repository. Without one, answers
// are served but not persisted.
func QueryWithAnswerRepository(repo *repository.AnswerRepository) QueryServiceOption {
	return func(s *QueryService) {
		s.answerRepo = repo
	}
}

// QueryWithRetrievalK sets the number of neighbors per query
func QueryWithRetrievalK(k int) QueryServiceOption {
	return func(s *QueryService) {
		s.k = k
	}
}

// QueryWithTemperature sets the generation temperature
func QueryWithTemperature(t float64) QueryServiceOption {
	return func(s *QueryService) {
		s.temperature = t
	}
}

// QueryWithFacts sets the site facts substituted into templates
func QueryWithFacts(facts string) QueryServiceOption {
	return func(s *QueryService) {
		s.facts = facts
	}
}

// QueryWithClock sets the time source
func QueryWithClock(now func() time.Time) QueryServiceOption {
	return func(s *QueryService) {
		s.now = now
	}
}

// NewQueryService creates a new query service
func NewQueryService(st *store.Store, embedder Embedder, generator Generator, opts ...QueryServiceOption) *QueryService {
	s := &QueryService{
		store:       st,
		embedder:    embedder,
		generator:   generator,
		k:           DefaultRetrievalK,
		temperature: DefaultAnswerTemperature,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RetrieveResult holds the formatted source lines and the positions and
// references behind them.
type RetrieveResult struct {
	SourcesText string
	KNN         []int
	References  []models.Reference
}

// Retrieve embeds the question, fetches its nearest chunks from the current
// generation, deduplicates them by source URL keeping the highest-ranked
// chunk, and formats one source line per survivor. KNN keeps every hit
// position, before deduplication. An empty index yields an empty sources
// block.
func (s *QueryService) Retrieve(ctx context.Context, question string) (RetrieveResult, error) {
	query, err := s.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return RetrieveResult{}, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}

	gen, err := s.currentGeneration(len(query))
	if err != nil {
		return RetrieveResult{}, fmt.Errorf("%w: %v", ErrRetrievalFailed, err)
	}

	hits, err := gen.Search(query, s.k)
	if err != nil {
		return RetrieveResult{}, fmt.Errorf("%w: %v", ErrRetrievalFailed, err)
	}

	var result RetrieveResult
	var lines []string
	seen := make(map[string]bool)
	for _, hit := range hits {
		chunk, err := gen.Chunk(hit.Position)
		if err != nil {
			return RetrieveResult{}, fmt.Errorf("%w: %v", ErrRetrievalFailed, err)
		}
		result.KNN = append(result.KNN, hit.Position)

		url := chunk.SourceURL()
		if url != "" && seen[url] {
			continue
		}
		seen[url] = true

		result.References = append(result.References, models.Reference{
			URL:   url,
			Title: chunk.Title(),
		})
		lines = append(lines, s.formatSourceLine(chunk))
	}
	result.SourcesText = strings.Join(lines, "\n")
	return result, nil
}

func (s *QueryService) currentGeneration(dim int) (*store.Generation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, err := s.store.CurrentGeneration()
	if err != nil {
		return nil, err
	}
	if s.gen == nil || s.gen.Number() != current {
		gen, err := s.store.OpenGeneration(current, dim)
		if err != nil {
			return nil, err
		}
		s.gen = gen
	}
	return s.gen, nil
}

func (s *QueryService) formatSourceLine(chunk models.Chunk) string {
	line := fmt.Sprintf("%s (Source: <a href=\"%s\">%s</a>, %s)",
		chunk.Text, chunk.SourceURL(), chunk.Title(), chunk.PublishedDateString())
	if published, ok := chunk.PublishedDate(); ok && s.now().Sub(published) > staleSourceAge {
		line += " " + staleNote
	}
	return line
}

// GenerateAnswer renders the latest template against the question and
// retrieved sources and runs generation at the service temperature.
func (s *QueryService) GenerateAnswer(ctx context.Context, question, sourcesText string) (string, models.Template, error) {
	tmpl, err := s.store.LatestTemplate()
	if err != nil {
		return "", models.Template{}, err
	}
	fragments, err := tmpl.Render(map[string]string{
		"QUERY":        question,
		"SOURCES":      sourcesText,
		"FACTS":        s.facts,
		"CURRENT_DATE": s.now().Format("2006-01-02"),
	})
	if err != nil {
		return "", models.Template{}, err
	}
	response, err := s.generator.Generate(ctx, fragments, s.temperature)
	if err != nil {
		return "", models.Template{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return response, tmpl, nil
}

// AskRequest is a user question with its attribution.
type AskRequest struct {
	Question string
	Username string
}

// AskResult is a served answer.
type AskResult struct {
	ID         string             `json:"id"`
	Response   string             `json:"response"`
	KNN        []int              `json:"knn"`
	References []models.Reference `json:"references"`
}

// Ask runs the full pipeline: retrieve, render, generate, and persist. An
// empty generation result falls back to a fixed apology with no citations.
// Persistence failures are logged, not surfaced; the user still gets the
// answer.
func (s *QueryService) Ask(ctx context.Context, req AskRequest) (AskResult, error) {
	retrieved, err := s.Retrieve(ctx, req.Question)
	if err != nil {
		return AskResult{}, err
	}

	response, tmpl, err := s.GenerateAnswer(ctx, req.Question, retrieved.SourcesText)
	if err != nil {
		return AskResult{}, err
	}

	result := AskResult{
		Response:   response,
		KNN:        retrieved.KNN,
		References: ExtractCitations(response),
	}
	if strings.TrimSpace(response) == "" {
		result.Response = apologyResponse
		result.References = nil
	}

	if s.answerRepo != nil {
		answer := models.Answer{
			ID:       uuid.New(),
			Question: req.Question,
			Response: result.Response,
			PromptID: tmpl.ID,
			Username: req.Username,
			Status:   models.AnswerStatusActive,
			Date:     s.now(),
		}
		if err := s.answerRepo.Create(ctx, answer); err != nil {
			log.Printf("failed to persist answer: %v", err)
		} else {
			result.ID = answer.ID.String()
		}
	}
	return result, nil
}

// ExtractCitations pulls the inline source links out of a generated answer,
// first occurrence per URL.
func ExtractCitations(response string) []models.Reference {
	var refs []models.Reference
	seen := make(map[string]bool)
	for _, m := range citationPattern.FindAllStringSubmatch(response, -1) {
		if seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		refs = append(refs, models.Reference{URL: m[1], Title: m[2]})
	}
	return refs
}
