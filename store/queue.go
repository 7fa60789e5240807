package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/pwnbisht/llm-chatbot/models"
)

// EnqueueDocument writes a submitted document into the pending queue and
// returns the queued filename.
func (s *Store) EnqueueDocument(doc models.Document) (string, error) {
	if strings.TrimSpace(doc.Text) == "" {
		return "", models.ErrEmptyDocument
	}
	name := strings.ReplaceAll(uuid.New().String(), "-", "") + ".json"
	path := filepath.Join(s.root, pendingDir, name)
	if err := writeJSONAtomic(path, doc); err != nil {
		return "", fmt.Errorf("enqueue document: %w", err)
	}
	return name, nil
}

// PendingDocuments lists queued document filenames in name order.
func (s *Store) PendingDocuments() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, pendingDir))
	if err != nil {
		return nil, fmt.Errorf("list pending documents: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// ReadPending loads a queued document by filename.
func (s *Store) ReadPending(name string) (models.Document, error) {
	var doc models.Document
	if err := readJSON(filepath.Join(s.root, pendingDir, name), &doc); err != nil {
		return models.Document{}, fmt.Errorf("read pending document %s: %w", name, err)
	}
	return doc, nil
}

// ArchiveDocument moves a fully indexed document out of the queue. It runs
// only after every chunk of the document is persisted, so an interrupted run
// re-processes the document instead of dropping it.
func (s *Store) ArchiveDocument(name string) error {
	src := filepath.Join(s.root, pendingDir, name)
	dst := filepath.Join(s.root, archivedDir, name)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("archive document %s: %w", name, err)
	}
	return nil
}
