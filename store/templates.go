package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/pwnbisht/llm-chatbot/models"
)

// ErrNoTemplate is returned when no prompt template has been stored yet.
var ErrNoTemplate = errors.New("no prompt template stored")

type templateFile struct {
	Prompts  map[string]models.Template `json:"prompts"`
	LatestID string                     `json:"latest_id"`
}

// AddTemplate stores a new prompt template built from the fragments, scans its
// placeholders, marks it latest, and returns it.
func (s *Store) AddTemplate(fragments []models.Fragment) (models.Template, error) {
	current, err := s.CurrentGeneration()
	if err != nil {
		return models.Template{}, err
	}
	tmpl := models.Template{
		ID:            uuid.New().String(),
		Date:          time.Now().Format("2006-01-02"),
		IndexID:       current,
		IndexName:     stageName,
		Fragments:     fragments,
		Substitutions: models.ScanPlaceholders(fragments),
	}

	path := filepath.Join(s.root, templatesFile)
	var file templateFile
	if err := readJSON(path, &file); err != nil && !os.IsNotExist(err) {
		return models.Template{}, err
	}
	if file.Prompts == nil {
		file.Prompts = make(map[string]models.Template)
	}
	file.Prompts[tmpl.ID] = tmpl
	file.LatestID = tmpl.ID
	if err := writeJSONAtomic(path, file); err != nil {
		return models.Template{}, fmt.Errorf("store template: %w", err)
	}
	return tmpl, nil
}

// LatestTemplate returns the most recently added prompt template.
func (s *Store) LatestTemplate() (models.Template, error) {
	var file templateFile
	err := readJSON(filepath.Join(s.root, templatesFile), &file)
	if os.IsNotExist(err) {
		return models.Template{}, ErrNoTemplate
	}
	if err != nil {
		return models.Template{}, err
	}
	tmpl, ok := file.Prompts[file.LatestID]
	if !ok {
		return models.Template{}, ErrNoTemplate
	}
	return tmpl, nil
}

// Template returns a stored prompt template by id.
func (s *Store) Template(id string) (models.Template, error) {
	var file templateFile
	err := readJSON(filepath.Join(s.root, templatesFile), &file)
	if os.IsNotExist(err) {
		return models.Template{}, ErrNoTemplate
	}
	if err != nil {
		return models.Template{}, err
	}
	tmpl, ok := file.Prompts[id]
	if !ok {
		return models.Template{}, fmt.Errorf("template %s not found", id)
	}
	return tmpl, nil
}
