package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwnbisht/llm-chatbot/models"
	"github.com/pwnbisht/llm-chatbot/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestCurrentGenerationInitializesToOne(t *testing.T) {
	s := newTestStore(t)
	n, err := s.CurrentGeneration()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// The pointer survives a second read.
	n, err = s.CurrentGeneration()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNewGenerationAdvancesPointer(t *testing.T) {
	s := newTestStore(t)
	next, err := s.NewGeneration()
	require.NoError(t, err)
	assert.Equal(t, 2, next)

	current, err := s.CurrentGeneration()
	require.NoError(t, err)
	assert.Equal(t, 2, current)
}

func TestNewGenerationLeavesPredecessorIntact(t *testing.T) {
	s := newTestStore(t)
	gen, err := s.OpenGeneration(1, 2)
	require.NoError(t, err)
	chunk := models.Chunk{Text: "hello", Meta: map[string]interface{}{"url": "https://a.example"}}
	require.NoError(t, gen.AppendChunk(chunk, []float64{1, 0}))

	_, err = s.NewGeneration()
	require.NoError(t, err)

	old, err := s.OpenGeneration(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, old.Len())

	fresh, err := s.OpenGeneration(2, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, fresh.Len())
}

func TestAppendChunkKeepsFilesAligned(t *testing.T) {
	s := newTestStore(t)
	gen, err := s.OpenGeneration(1, 2)
	require.NoError(t, err)

	for i, text := range []string{"first", "second", "third"} {
		chunk := models.Chunk{Text: text, Meta: map[string]interface{}{"url": "https://a.example"}}
		require.NoError(t, gen.AppendChunk(chunk, []float64{float64(i), 0}))
	}

	reopened, err := s.OpenGeneration(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, reopened.Len())

	c, err := reopened.Chunk(1)
	require.NoError(t, err)
	assert.Equal(t, "second", c.Text)

	results, err := reopened.Search([]float64{2, 0}, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, results[0].Position)
}

func TestOpenGenerationRejectsMisalignedFiles(t *testing.T) {
	s := newTestStore(t)
	gen, err := s.OpenGeneration(1, 2)
	require.NoError(t, err)
	chunk := models.Chunk{Text: "only", Meta: nil}
	require.NoError(t, gen.AppendChunk(chunk, []float64{1, 0}))

	// Drop the metadata file so the counts diverge.
	schemaPath := filepath.Join(s.Root(), indicesDir, "1", schemaFileName)
	require.NoError(t, os.WriteFile(schemaPath, []byte("[]"), 0o644))

	_, err = s.OpenGeneration(1, 2)
	assert.ErrorIs(t, err, ErrIndexMisaligned)
}

func TestQueueLifecycle(t *testing.T) {
	s := newTestStore(t)
	doc := models.Document{
		Text: "some article body",
		Meta: map[string]interface{}{"url": "https://a.example", "title": "A"},
	}
	name, err := s.EnqueueDocument(doc)
	require.NoError(t, err)

	pending, err := s.PendingDocuments()
	require.NoError(t, err)
	require.Equal(t, []string{name}, pending)

	got, err := s.ReadPending(name)
	require.NoError(t, err)
	assert.Equal(t, doc.Text, got.Text)
	assert.Equal(t, "A", got.Meta["title"])

	require.NoError(t, s.ArchiveDocument(name))

	pending, err = s.PendingDocuments()
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = os.Stat(filepath.Join(s.Root(), archivedDir, name))
	assert.NoError(t, err)
}

func TestEnqueueRejectsEmptyDocument(t *testing.T) {
	s := newTestStore(t)
	_, err := s.EnqueueDocument(models.Document{Text: "   "})
	assert.ErrorIs(t, err, models.ErrEmptyDocument)
}

func TestTemplateStorage(t *testing.T) {
	s := newTestStore(t)

	_, err := s.LatestTemplate()
	assert.ErrorIs(t, err, ErrNoTemplate)

	fragments := []models.Fragment{
		{Role: models.RoleSystem, Content: "Facts: [[[FACTS]]]"},
		{Role: models.RoleUser, Content: "[[[QUERY]]]"},
	}
	first, err := s.AddTemplate(fragments)
	require.NoError(t, err)
	assert.Equal(t, []string{"FACTS", "QUERY"}, first.Substitutions)
	assert.Equal(t, 1, first.IndexID)
	assert.Equal(t, stageName, first.IndexName)

	second, err := s.AddTemplate(fragments)
	require.NoError(t, err)

	latest, err := s.LatestTemplate()
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)

	byID, err := s.Template(first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, byID.ID)
}

func TestEvalQuestionSets(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddEvalQuestion("alpha", models.EvalQuestion{Question: "q1", ExpectedAnswer: "a1"}))
	require.NoError(t, s.AddEvalQuestion("alpha", models.EvalQuestion{Question: "q2", ExpectedAnswer: "a2"}))
	require.NoError(t, s.AddEvalQuestion("beta", models.EvalQuestion{Question: "q3", ExpectedAnswer: "a3"}))

	alpha, err := s.LoadEvalSet("alpha")
	require.NoError(t, err)
	assert.Len(t, alpha, 2)
	assert.Equal(t, "q1", alpha[0].Question)

	all, err := s.LoadEvalSet("")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = s.LoadEvalSet("missing")
	assert.Error(t, err)
}

func TestEvalSetNamesStayInsideEvalDir(t *testing.T) {
	s := newTestStore(t)
	q := models.EvalQuestion{Question: "q1", ExpectedAnswer: "a1"}

	for _, name := range []string{"", "../escape", "a/b", `a\b`, "..", "nested/.."} {
		assert.ErrorIs(t, s.AddEvalQuestion(name, q), ErrInvalidSetName, "set %q", name)
	}
	_, err := s.LoadEvalSet("../escape")
	assert.ErrorIs(t, err, ErrInvalidSetName)

	// A rejected name leaves nothing behind outside the eval directory.
	_, err = os.Stat(filepath.Join(s.root, "escape.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunLogAppendsAndReturnsLatest(t *testing.T) {
	s := newTestStore(t)

	_, err := s.LatestEvalReport()
	assert.ErrorIs(t, err, ErrNoEvalRuns)

	require.NoError(t, s.AppendEvalReport(models.EvalReport{EvalUUID: "first"}))
	require.NoError(t, s.AppendEvalReport(models.EvalReport{EvalUUID: "second"}))

	latest, err := s.LatestEvalReport()
	require.NoError(t, err)
	assert.Equal(t, "second", latest.EvalUUID)
}

func TestSnapshotBackupRestore(t *testing.T) {
	s := newTestStore(t)
	gen, err := s.OpenGeneration(1, 2)
	require.NoError(t, err)
	chunk := models.Chunk{Text: "snap", Meta: map[string]interface{}{"url": "https://a.example"}}
	require.NoError(t, gen.AppendChunk(chunk, []float64{0.5, 0.5}))

	backend, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.BackupGeneration(ctx, backend, 1))

	// Restore into a second store rooted elsewhere.
	other, err := New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, other.RestoreGeneration(ctx, backend, 1))

	restored, err := other.OpenGeneration(1, 2)
	require.NoError(t, err)
	require.Equal(t, 1, restored.Len())
	c, err := restored.Chunk(0)
	require.NoError(t, err)
	assert.Equal(t, "snap", c.Text)
}
