package models

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Conversation roles understood by the generation backend.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrMissingSubstitution is returned by Render when a template placeholder has
// no value in the substitution map.
var ErrMissingSubstitution = errors.New("missing template substitution")

var placeholderPattern = regexp.MustCompile(`\[\[\[(.*?)\]\]\]`)

// Fragment is a single turn of a prompt template.
type Fragment struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Template is a versioned multi-turn prompt. Substitutions lists the
// placeholder names ([[[NAME]]]) found across the fragments at creation time.
type Template struct {
	ID            string     `json:"id"`
	Date          string     `json:"date"`
	IndexID       int        `json:"index_id"`
	IndexName     string     `json:"index_name"`
	Fragments     []Fragment `json:"prompt"`
	Substitutions []string   `json:"substitutions"`
}

// ScanPlaceholders returns the distinct placeholder names appearing in the
// fragments, sorted for stable storage.
func ScanPlaceholders(fragments []Fragment) []string {
	seen := make(map[string]bool)
	for _, f := range fragments {
		for _, m := range placeholderPattern.FindAllStringSubmatch(f.Content, -1) {
			seen[m[1]] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render substitutes placeholder values into every fragment and returns the
// resolved turns. Any placeholder left without a value fails the render; a
// prompt with a dangling [[[NAME]]] must never reach the model.
func (t Template) Render(values map[string]string) ([]Fragment, error) {
	out := make([]Fragment, len(t.Fragments))
	var missing []string
	for i, f := range t.Fragments {
		content := placeholderPattern.ReplaceAllStringFunc(f.Content, func(match string) string {
			name := match[3 : len(match)-3]
			v, ok := values[name]
			if !ok {
				missing = append(missing, name)
				return match
			}
			return v
		})
		out[i] = Fragment{Role: f.Role, Content: content}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		dedup := missing[:1]
		for _, name := range missing[1:] {
			if name != dedup[len(dedup)-1] {
				dedup = append(dedup, name)
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrMissingSubstitution, strings.Join(dedup, ", "))
	}
	return out, nil
}
