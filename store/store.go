// Package store manages the on-disk data layout: index generations and their
// metadata, the pending-document queue, prompt templates, evaluation question
// sets, and the evaluation run log. All files live under a single data root.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	indicesDir     = "indices"
	pendingDir     = "pending_indexing"
	archivedDir    = "indexed_docs"
	evalSetsDir    = "evals"
	currentFile    = "current.json"
	runLogFile     = "evals.json"
	templatesFile  = "prompts.json"
	indexFileName  = "main_vector_index.bin"
	schemaFileName = "main_schema.json"

	// stageName labels the single retrieval stage served from each
	// generation. It appears in templates and eval reports as index_name.
	stageName = "main"
)

// Store provides access to everything persisted under the data root.
type Store struct {
	root string
}

// New returns a Store rooted at dir, creating the fixed directory layout when
// absent.
func New(dir string) (*Store, error) {
	s := &Store{root: dir}
	for _, sub := range []string{indicesDir, pendingDir, archivedDir, evalSetsDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create data directory %s: %w", sub, err)
		}
	}
	return s, nil
}

// Root returns the data root directory.
func (s *Store) Root() string { return s.root }

// StageName returns the label of the retrieval stage.
func (s *Store) StageName() string { return stageName }

// writeJSONAtomic marshals v and replaces path in a single rename so readers
// never observe a partial file.
func writeJSONAtomic(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".json-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}
