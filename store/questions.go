package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pwnbisht/llm-chatbot/models"
)

// ErrInvalidSetName rejects set names that would escape the eval directory.
var ErrInvalidSetName = errors.New("invalid eval set name")

func validSetName(set string) bool {
	return set != "" && !strings.ContainsAny(set, `/\`) && !strings.Contains(set, "..")
}

func (s *Store) evalSetPath(set string) string {
	return filepath.Join(s.root, evalSetsDir, set+".json")
}

// AddEvalQuestion appends a question to the named set, creating the set file
// on first use.
func (s *Store) AddEvalQuestion(set string, q models.EvalQuestion) error {
	if !validSetName(set) {
		return fmt.Errorf("%w: %q", ErrInvalidSetName, set)
	}
	path := s.evalSetPath(set)
	var questions []models.EvalQuestion
	if err := readJSON(path, &questions); err != nil && !os.IsNotExist(err) {
		return err
	}
	questions = append(questions, q)
	if err := writeJSONAtomic(path, questions); err != nil {
		return fmt.Errorf("store eval question: %w", err)
	}
	return nil
}

// LoadEvalSet returns the questions of the named set. An empty name loads
// every set, in set-name order.
func (s *Store) LoadEvalSet(set string) ([]models.EvalQuestion, error) {
	if set != "" {
		if !validSetName(set) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSetName, set)
		}
		var questions []models.EvalQuestion
		if err := readJSON(s.evalSetPath(set), &questions); err != nil {
			return nil, fmt.Errorf("load eval set %s: %w", set, err)
		}
		return questions, nil
	}

	entries, err := os.ReadDir(filepath.Join(s.root, evalSetsDir))
	if err != nil {
		return nil, fmt.Errorf("list eval sets: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)

	var all []models.EvalQuestion
	for _, name := range names {
		questions, err := s.LoadEvalSet(name)
		if err != nil {
			return nil, err
		}
		all = append(all, questions...)
	}
	return all, nil
}
