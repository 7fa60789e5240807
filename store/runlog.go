package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pwnbisht/llm-chatbot/models"
)

// ErrNoEvalRuns is returned when the run log is empty.
var ErrNoEvalRuns = errors.New("no evaluation runs recorded")

// AppendEvalReport adds a run report to the append-only run log.
func (s *Store) AppendEvalReport(report models.EvalReport) error {
	path := filepath.Join(s.root, runLogFile)
	var reports []models.EvalReport
	if err := readJSON(path, &reports); err != nil && !os.IsNotExist(err) {
		return err
	}
	reports = append(reports, report)
	if err := writeJSONAtomic(path, reports); err != nil {
		return fmt.Errorf("append eval report: %w", err)
	}
	return nil
}

// LatestEvalReport returns the most recently appended run report.
func (s *Store) LatestEvalReport() (models.EvalReport, error) {
	var reports []models.EvalReport
	err := readJSON(filepath.Join(s.root, runLogFile), &reports)
	if os.IsNotExist(err) {
		return models.EvalReport{}, ErrNoEvalRuns
	}
	if err != nil {
		return models.EvalReport{}, err
	}
	if len(reports) == 0 {
		return models.EvalReport{}, ErrNoEvalRuns
	}
	return reports[len(reports)-1], nil
}
