// Package service implements the ingestion, retrieval, answering, and
// evaluation pipelines on top of the store and the Gemini clients.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/pwnbisht/llm-chatbot/models"
	"github.com/pwnbisht/llm-chatbot/store"
)

// Chunking policies.
const (
	ChunkPolicyWords      = "words"
	ChunkPolicyParagraphs = "paragraphs"
)

// DefaultChunkWordCount is the number of words per chunk under the words policy.
const DefaultChunkWordCount = 750

// ErrUnknownChunkPolicy is returned when a chunking policy name is not
// recognized.
var ErrUnknownChunkPolicy = errors.New("unknown chunking policy")

// Embedder turns text into index vectors.
type Embedder interface {
	EmbedDocument(ctx context.Context, text string) ([]float64, error)
	EmbedQuery(ctx context.Context, text string) ([]float64, error)
}

// ChunkDocument splits a document into retrieval chunks. Under the words
// policy every chunk holds wordCount whitespace-separated words except the
// last, which holds the remainder. Under the paragraphs policy chunks are the
// non-blank blocks between blank lines and wordCount is ignored.
func ChunkDocument(doc models.Document, policy string, wordCount int) ([]models.Chunk, error) {
	if strings.TrimSpace(doc.Text) == "" {
		return nil, models.ErrEmptyDocument
	}

	var texts []string
	switch policy {
	case ChunkPolicyWords:
		if wordCount <= 0 {
			wordCount = DefaultChunkWordCount
		}
		words := strings.Fields(doc.Text)
		for start := 0; start < len(words); start += wordCount {
			end := start + wordCount
			if end > len(words) {
				end = len(words)
			}
			texts = append(texts, strings.Join(words[start:end], " "))
		}
	case ChunkPolicyParagraphs:
		for _, block := range strings.Split(doc.Text, "\n\n") {
			if strings.TrimSpace(block) == "" {
				continue
			}
			texts = append(texts, block)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownChunkPolicy, policy)
	}

	chunks := make([]models.Chunk, 0, len(texts))
	for _, text := range texts {
		meta := make(map[string]interface{}, len(doc.Meta))
		for k, v := range doc.Meta {
			meta[k] = v
		}
		chunks = append(chunks, models.Chunk{Text: text, Meta: meta})
	}
	return chunks, nil
}

// IngestService drains the pending-document queue into the current index
// generation.
type IngestService struct {
	store       *store.Store
	embedder    Embedder
	chunkPolicy string
	wordCount   int
	chunkPause  time.Duration
}

// IngestServiceOption is a functional option for IngestService
type IngestServiceOption func(*IngestService)

// IngestWithChunkPolicy sets the chunking policy
func IngestWithChunkPolicy(policy string) IngestServiceOption {
	return func(s *IngestService) {
		s.chunkPolicy = policy
	}
}

// IngestWithChunkWordCount sets the number of words per chunk
func IngestWithChunkWordCount(n int) IngestServiceOption {
	return func(s *IngestService) {
		s.wordCount = n
	}
}

// IngestWithChunkPause sets the pause between chunk embeddings
func IngestWithChunkPause(d time.Duration) IngestServiceOption {
	return func(s *IngestService) {
		s.chunkPause = d
	}
}

// NewIngestService creates a new ingest service
func NewIngestService(st *store.Store, embedder Embedder, opts ...IngestServiceOption) *IngestService {
	s := &IngestService{
		store:       st,
		embedder:    embedder,
		chunkPolicy: ChunkPolicyWords,
		wordCount:   DefaultChunkWordCount,
		chunkPause:  time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProcessPending chunks, embeds, and indexes every queued document in name
// order and returns the number of documents indexed. A rate-limited embedding
// aborts the whole run; the document in flight stays queued and is
// re-processed by the next run.
func (s *IngestService) ProcessPending(ctx context.Context) (int, error) {
	current, err := s.store.CurrentGeneration()
	if err != nil {
		return 0, err
	}
	gen, err := s.store.OpenGeneration(current, dimensionOf(s.embedder))
	if err != nil {
		return 0, err
	}

	pending, err := s.store.PendingDocuments()
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, name := range pending {
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		doc, err := s.store.ReadPending(name)
		if err != nil {
			return processed, err
		}
		chunks, err := ChunkDocument(doc, s.chunkPolicy, s.wordCount)
		if err != nil {
			return processed, fmt.Errorf("chunk document %s: %w", name, err)
		}
		log.Printf("indexing %s: %d chunks", name, len(chunks))

		for i, chunk := range chunks {
			embedding, err := s.embedder.EmbedDocument(ctx, chunk.Text)
			if err != nil {
				return processed, fmt.Errorf("embed chunk %d of %s: %w", i, name, err)
			}
			if err := gen.AppendChunk(chunk, embedding); err != nil {
				return processed, fmt.Errorf("index chunk %d of %s: %w", i, name, err)
			}
			if s.chunkPause > 0 && i < len(chunks)-1 {
				time.Sleep(s.chunkPause)
			}
		}

		if err := s.store.ArchiveDocument(name); err != nil {
			return processed, err
		}
		processed++
	}
	return processed, nil
}

// dimensioner is implemented by embedders with a fixed output size.
type dimensioner interface {
	Dimension() int
}

func dimensionOf(e Embedder) int {
	if d, ok := e.(dimensioner); ok {
		return d.Dimension()
	}
	return defaultEmbeddingDimensions
}

const defaultEmbeddingDimensions = 768
