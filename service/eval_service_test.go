package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwnbisht/llm-chatbot/models"
	"github.com/pwnbisht/llm-chatbot/store"
)

func TestClassifyVerdict(t *testing.T) {
	cases := []struct {
		verdict string
		want    string
	}{
		{"CORRECT", models.VerdictCorrect},
		{"CORRECT, this matches the source", models.VerdictCorrect},
		{"INCORRECT", models.VerdictIncorrect},
		{"INCORRECT because the source says otherwise", models.VerdictIncorrect},
		{"CORRECT but also INCORRECT", models.VerdictCorrect},
		{"UNSURE", models.VerdictUnsure},
		{"I cannot tell", ""},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, classifyVerdict(tc.verdict), "verdict %q", tc.verdict)
	}
}

func TestComputeMetrics(t *testing.T) {
	p, r, f1 := computeMetrics(3, 1, 1)
	assert.InDelta(t, 0.75, p, 1e-12)
	assert.InDelta(t, 0.75, r, 1e-12)
	assert.InDelta(t, 0.75, f1, 1e-12)

	p, r, f1 = computeMetrics(0, 5, 5)
	assert.Zero(t, p)
	assert.Zero(t, r)
	assert.Zero(t, f1)

	p, r, f1 = computeMetrics(4, 0, 0)
	assert.Equal(t, 1.0, p)
	assert.Equal(t, 1.0, r)
	assert.Equal(t, 1.0, f1)
}

func newEvalFixture(t *testing.T, gen *fakeGenerator) (*EvalService, *store.Store) {
	t.Helper()
	st, err := store.New(t.TempDir())
	require.NoError(t, err)

	embedder := &fakeEmbedder{dim: 2}
	queries := NewQueryService(st, embedder, gen,
		QueryWithClock(func() time.Time { return testNow }))

	_, err = st.AddTemplate([]models.Fragment{
		{Role: models.RoleUser, Content: "[[[SOURCES]]] [[[QUERY]]] [[[FACTS]]] [[[CURRENT_DATE]]]"},
	})
	require.NoError(t, err)

	seedChunks(t, st, []models.Chunk{
		{Text: "fact", Meta: map[string]interface{}{"url": "https://a.example", "title": "A", "date": "2026-05-01"}},
	}, [][]float64{{1, 0}})

	svc := NewEvalService(st, queries, gen,
		EvalWithClock(func() time.Time { return testNow }))
	return svc, st
}

func TestRunBucketsVerdictsAndAppendsReport(t *testing.T) {
	// Each question costs two generator calls: the answer, then the verdict.
	gen := &fakeGenerator{responses: []string{
		`answer one (Source: <a href="https://a.example">A</a>)`, "CORRECT",
		"answer two", "INCORRECT",
		"answer three", "UNSURE",
		"answer four", "no verdict given",
	}}
	svc, st := newEvalFixture(t, gen)

	questions := []models.EvalQuestion{
		{Question: "q1", ExpectedAnswer: "a1"},
		{Question: "q2", ExpectedAnswer: "a2"},
		{Question: "q3", ExpectedAnswer: "a3"},
		{Question: "q4", ExpectedAnswer: "a4"},
	}
	for _, q := range questions {
		require.NoError(t, st.AddEvalQuestion("main", q))
	}

	report, err := svc.Run(context.Background(), "main")
	require.NoError(t, err)

	assert.Equal(t, 1, report.Stats.SuccessfulCount)
	assert.Equal(t, 1, report.Stats.FailedCount)
	assert.Equal(t, 1, report.Stats.UnsureCount)
	require.Len(t, report.Stats.Unclassified, 1)
	assert.Equal(t, "q4", report.Stats.Unclassified[0].Question)

	assert.Equal(t, "q1", report.Stats.Successful[0].Question)
	assert.Equal(t, []int{0}, report.Stats.Successful[0].KNN)
	assert.Equal(t, []models.Reference{{URL: "https://a.example", Title: "A"}},
		report.Stats.Successful[0].References)

	// Records hold the judge's verdict text and the retrieved references, so
	// an answer with no inline citation still carries its sources.
	assert.Equal(t, "CORRECT", report.Stats.Successful[0].Response)
	assert.Equal(t, "INCORRECT", report.Stats.Failed[0].Response)
	assert.Equal(t, []models.Reference{{URL: "https://a.example", Title: "A"}},
		report.Stats.Failed[0].References)

	// Judges run deterministic.
	assert.Equal(t, judgeTemperature, gen.temps[1])

	latest, err := st.LatestEvalReport()
	require.NoError(t, err)
	assert.Equal(t, report.EvalUUID, latest.EvalUUID)
	assert.NotEmpty(t, latest.EvalUUID)
	assert.Equal(t, report.PromptID, latest.PromptID)
	assert.Equal(t, 1, latest.IndexID)
	assert.Equal(t, st.StageName(), latest.IndexName)
}

func TestRunRecordsErroredQuestions(t *testing.T) {
	gen := &fakeGenerator{responses: []string{
		"answer one", "CORRECT",
		// q2's answer generation has no scripted response and fails.
	}}
	svc, st := newEvalFixture(t, gen)

	require.NoError(t, st.AddEvalQuestion("main", models.EvalQuestion{Question: "q1", ExpectedAnswer: "a1"}))
	require.NoError(t, st.AddEvalQuestion("main", models.EvalQuestion{Question: "q2", ExpectedAnswer: "a2"}))

	report, err := svc.Run(context.Background(), "main")
	require.NoError(t, err)

	assert.Equal(t, 1, report.Stats.SuccessfulCount)
	require.Len(t, report.Stats.Errored, 1)
	assert.Equal(t, "q2", report.Stats.Errored[0].Question)
	assert.Equal(t, stageGeneration, report.Stats.Errored[0].Stage)
}

func TestRunJudgeChecksResponseAgainstRetrievedSources(t *testing.T) {
	gen := &fakeGenerator{responses: []string{"the generated answer", "CORRECT"}}
	svc, st := newEvalFixture(t, gen)
	require.NoError(t, st.AddEvalQuestion("main", models.EvalQuestion{Question: "q1", ExpectedAnswer: "the expected answer"}))

	_, err := svc.Run(context.Background(), "main")
	require.NoError(t, err)

	require.Len(t, gen.calls, 2)
	judgeFragments := gen.calls[1]
	require.Len(t, judgeFragments, 1)
	assert.Contains(t, judgeFragments[0].Content, "Claim:\nthe generated answer")
	assert.Contains(t, judgeFragments[0].Content,
		`Sources:`+"\n"+`fact (Source: <a href="https://a.example">A</a>, 2026-05-01)`)
	assert.NotContains(t, judgeFragments[0].Content, "the expected answer")
	assert.NotContains(t, judgeFragments[0].Content, "[[[")
}
