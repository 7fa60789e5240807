package service

import (
	"context"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pwnbisht/llm-chatbot/models"
	"github.com/pwnbisht/llm-chatbot/store"
)

// judgePrompt asks the model to verify a claim against retrieved sources. It
// runs at temperature zero so verdicts stay reproducible.
const judgePrompt = `You are a bot tasked with verifying whether an answer is substantiated by a Source listed below.

If a Source proves the answer is correct, respond with the word "CORRECT";
if it proves the answer is incorrect, respond with the word "INCORRECT";
if you are unsure, respond with "UNSURE".

Claim:
[[[QUERY]]]

Sources:
[[[SOURCES]]]`

const judgeTemperature = 0.0

// Pipeline stages recorded for errored questions.
const (
	stageRetrieval  = "retrieval"
	stageGeneration = "generation"
	stageJudge      = "judge"
)

// EvalService runs a question set through the answering pipeline and judges
// each answer against its expected one.
type EvalService struct {
	store     *store.Store
	queries   *QueryService
	generator Generator
	now       func() time.Time
}

// EvalServiceOption is a functional option for EvalService
type EvalServiceOption func(*EvalService)

// EvalWithClock sets the time source
func EvalWithClock(now func() time.Time) EvalServiceOption {
	return func(s *EvalService) {
		s.now = now
	}
}

// NewEvalService creates a new eval service
func NewEvalService(st *store.Store, queries *QueryService, generator Generator, opts ...EvalServiceOption) *EvalService {
	s := &EvalService{
		store:     st,
		queries:   queries,
		generator: generator,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run evaluates the named question set (every set when empty) and appends the
// report to the run log. Failures of individual questions are recorded as
// errored entries and do not stop the run.
func (s *EvalService) Run(ctx context.Context, set string) (models.EvalReport, error) {
	questions, err := s.store.LoadEvalSet(set)
	if err != nil {
		return models.EvalReport{}, err
	}
	tmpl, err := s.store.LatestTemplate()
	if err != nil {
		return models.EvalReport{}, err
	}
	current, err := s.store.CurrentGeneration()
	if err != nil {
		return models.EvalReport{}, err
	}

	runID := uuid.New().String()
	stats := models.EvalStats{
		UUID:        runID,
		StartedTime: s.now().Format("2006-01-02 15:04:05"),
	}

	for i, q := range questions {
		log.Printf("running eval %q (%d/%d)", q.Question, i+1, len(questions))
		record, errEntry := s.evalQuestion(ctx, q)
		if errEntry != nil {
			stats.Errored = append(stats.Errored, *errEntry)
			continue
		}
		switch classifyVerdict(record.Response) {
		case models.VerdictCorrect:
			stats.Successful = append(stats.Successful, record)
		case models.VerdictIncorrect:
			stats.Failed = append(stats.Failed, record)
		case models.VerdictUnsure:
			stats.Unsure = append(stats.Unsure, record)
		default:
			stats.Unclassified = append(stats.Unclassified, record)
		}
	}

	stats.EndedTime = s.now().Format("2006-01-02 15:04:05")
	stats.SuccessfulCount = len(stats.Successful)
	stats.FailedCount = len(stats.Failed)
	stats.UnsureCount = len(stats.Unsure)
	stats.Precision, stats.Recall, stats.F1Score = computeMetrics(
		len(stats.Successful), len(stats.Failed), len(stats.Unsure))

	report := models.EvalReport{
		EvalUUID:    runID,
		PromptID:    tmpl.ID,
		IndexID:     current,
		IndexName:   s.store.StageName(),
		GeneratedOn: s.now().Format("2006-01-02 15:04:05"),
		Stats:       stats,
	}
	if err := s.store.AppendEvalReport(report); err != nil {
		return models.EvalReport{}, err
	}
	return report, nil
}

func (s *EvalService) evalQuestion(ctx context.Context, q models.EvalQuestion) (models.EvalRecord, *models.EvalError) {
	fail := func(stage string, err error) (models.EvalRecord, *models.EvalError) {
		return models.EvalRecord{}, &models.EvalError{
			Question: q.Question,
			Stage:    stage,
			Error:    err.Error(),
		}
	}

	retrieved, err := s.queries.Retrieve(ctx, q.Question)
	if err != nil {
		return fail(stageRetrieval, err)
	}

	response, _, err := s.queries.GenerateAnswer(ctx, q.Question, retrieved.SourcesText)
	if err != nil {
		return fail(stageGeneration, err)
	}

	judgeTmpl := models.Template{
		Fragments: []models.Fragment{{Role: models.RoleUser, Content: judgePrompt}},
	}
	fragments, err := judgeTmpl.Render(map[string]string{
		"QUERY":   response,
		"SOURCES": retrieved.SourcesText,
	})
	if err != nil {
		return fail(stageJudge, err)
	}
	verdict, err := s.generator.Generate(ctx, fragments, judgeTemperature)
	if err != nil {
		return fail(stageJudge, err)
	}

	return models.EvalRecord{
		Question:   q.Question,
		Response:   verdict,
		KNN:        retrieved.KNN,
		References: retrieved.References,
	}, nil
}

// correctToken matches CORRECT as a standalone word so the token inside
// INCORRECT does not count.
var correctToken = regexp.MustCompile(`\bCORRECT\b`)

// classifyVerdict buckets a judge reply by token match in priority order:
// CORRECT, then INCORRECT, then UNSURE. No match means no classification.
func classifyVerdict(verdict string) string {
	switch {
	case correctToken.MatchString(verdict):
		return models.VerdictCorrect
	case strings.Contains(verdict, "INCORRECT"):
		return models.VerdictIncorrect
	case strings.Contains(verdict, "UNSURE"):
		return models.VerdictUnsure
	default:
		return ""
	}
}

// computeMetrics treats correct as true positives, incorrect as false
// positives, and unsure as false negatives. No correct answers means all
// three metrics are zero.
func computeMetrics(successes, failures, unsure int) (precision, recall, f1 float64) {
	if successes == 0 {
		return 0, 0, 0
	}
	precision = float64(successes) / float64(successes+failures)
	recall = float64(successes) / float64(successes+unsure)
	f1 = 2 * (precision * recall) / (precision + recall)
	return precision, recall, f1
}
