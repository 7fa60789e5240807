package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pwnbisht/llm-chatbot/models"
	"github.com/pwnbisht/llm-chatbot/vectorindex"
)

// ErrIndexMisaligned is returned when a generation's vector index and its
// metadata store disagree on entry count. A misaligned generation must not
// serve retrieval.
var ErrIndexMisaligned = errors.New("vector index and metadata store are misaligned")

type currentPointer struct {
	Index int `json:"index"`
}

// CurrentGeneration returns the active generation number, initializing the
// pointer to 1 on first use.
func (s *Store) CurrentGeneration() (int, error) {
	path := filepath.Join(s.root, indicesDir, currentFile)
	var ptr currentPointer
	err := readJSON(path, &ptr)
	if os.IsNotExist(err) {
		ptr.Index = 1
		if err := writeJSONAtomic(path, ptr); err != nil {
			return 0, err
		}
		return ptr.Index, nil
	}
	if err != nil {
		return 0, err
	}
	return ptr.Index, nil
}

// NewGeneration advances the pointer to a fresh empty generation and returns
// its number. Earlier generations are left untouched.
func (s *Store) NewGeneration() (int, error) {
	current, err := s.CurrentGeneration()
	if err != nil {
		return 0, err
	}
	next := current + 1
	if err := os.MkdirAll(s.generationDir(next), 0o755); err != nil {
		return 0, fmt.Errorf("create generation %d: %w", next, err)
	}
	path := filepath.Join(s.root, indicesDir, currentFile)
	if err := writeJSONAtomic(path, currentPointer{Index: next}); err != nil {
		return 0, err
	}
	return next, nil
}

// SetCurrentGeneration points retrieval at an existing generation.
func (s *Store) SetCurrentGeneration(n int) error {
	if _, err := os.Stat(s.generationDir(n)); err != nil {
		return fmt.Errorf("generation %d: %w", n, err)
	}
	path := filepath.Join(s.root, indicesDir, currentFile)
	return writeJSONAtomic(path, currentPointer{Index: n})
}

func (s *Store) generationDir(n int) string {
	return filepath.Join(s.root, indicesDir, fmt.Sprintf("%d", n))
}

// Generation is one immutable-once-superseded index build: a vector index and
// the chunk metadata store kept in lockstep with it. Position i of the index
// always describes chunk i of the metadata.
type Generation struct {
	store  *Store
	number int
	index  *vectorindex.FlatIndex
	chunks []models.Chunk
}

// OpenGeneration loads generation n for the given vector dimension, creating
// it empty when its files do not exist yet. Loading fails when the index and
// metadata store have diverged.
func (s *Store) OpenGeneration(n, dim int) (*Generation, error) {
	dir := s.generationDir(n)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create generation %d: %w", n, err)
	}
	g := &Generation{store: s, number: n}

	indexPath := filepath.Join(dir, indexFileName)
	if _, err := os.Stat(indexPath); os.IsNotExist(err) {
		g.index = vectorindex.New(dim)
	} else {
		ix, err := vectorindex.Load(indexPath, dim)
		if err != nil {
			return nil, fmt.Errorf("load generation %d index: %w", n, err)
		}
		g.index = ix
	}

	schemaPath := filepath.Join(dir, schemaFileName)
	if err := readJSON(schemaPath, &g.chunks); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load generation %d metadata: %w", n, err)
	}

	if g.index.Len() != len(g.chunks) {
		return nil, fmt.Errorf("%w: generation %d has %d vectors and %d chunks",
			ErrIndexMisaligned, n, g.index.Len(), len(g.chunks))
	}
	return g, nil
}

// Number returns the generation number.
func (g *Generation) Number() int { return g.number }

// Len returns the number of indexed chunks.
func (g *Generation) Len() int { return g.index.Len() }

// Chunk returns the chunk stored at position pos.
func (g *Generation) Chunk(pos int) (models.Chunk, error) {
	if pos < 0 || pos >= len(g.chunks) {
		return models.Chunk{}, fmt.Errorf("chunk position %d out of range [0,%d)", pos, len(g.chunks))
	}
	return g.chunks[pos], nil
}

// Search proxies nearest-neighbor search to the generation's vector index.
func (g *Generation) Search(query []float64, k int) ([]vectorindex.Result, error) {
	return g.index.Search(query, k)
}

// AppendChunk adds a chunk and its embedding at the same position and persists
// both files before returning, so a crash mid-ingest loses at most the chunk
// in flight.
func (g *Generation) AppendChunk(chunk models.Chunk, embedding []float64) error {
	pos, err := g.index.Add(embedding)
	if err != nil {
		return err
	}
	g.chunks = append(g.chunks, chunk)

	dir := g.store.generationDir(g.number)
	if err := g.index.Save(filepath.Join(dir, indexFileName)); err != nil {
		return fmt.Errorf("persist index at position %d: %w", pos, err)
	}
	if err := writeJSONAtomic(filepath.Join(dir, schemaFileName), g.chunks); err != nil {
		return fmt.Errorf("persist metadata at position %d: %w", pos, err)
	}
	return nil
}
