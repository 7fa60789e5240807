package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanPlaceholders(t *testing.T) {
	fragments := []Fragment{
		{Role: RoleSystem, Content: "Today is [[[CURRENT_DATE]]]. Facts: [[[FACTS]]]"},
		{Role: RoleUser, Content: "Sources: [[[SOURCES]]] Question: [[[QUERY]]]"},
		{Role: RoleUser, Content: "Repeat: [[[QUERY]]]"},
	}
	names := ScanPlaceholders(fragments)
	assert.Equal(t, []string{"CURRENT_DATE", "FACTS", "QUERY", "SOURCES"}, names)
}

func TestRenderSubstitutesAllFragments(t *testing.T) {
	tmpl := Template{
		Fragments: []Fragment{
			{Role: RoleSystem, Content: "Date: [[[CURRENT_DATE]]]"},
			{Role: RoleUser, Content: "Q: [[[QUERY]]]"},
		},
	}
	got, err := tmpl.Render(map[string]string{
		"CURRENT_DATE": "2026-09-01",
		"QUERY":        "what is this site?",
	})
	require.NoError(t, err)
	assert.Equal(t, "Date: 2026-09-01", got[0].Content)
	assert.Equal(t, "Q: what is this site?", got[1].Content)
	assert.Equal(t, RoleUser, got[1].Role)
}

func TestRenderFailsOnMissingSubstitution(t *testing.T) {
	tmpl := Template{
		Fragments: []Fragment{
			{Role: RoleUser, Content: "[[[SOURCES]]] [[[QUERY]]] [[[QUERY]]]"},
		},
	}
	_, err := tmpl.Render(map[string]string{"SOURCES": "s"})
	require.ErrorIs(t, err, ErrMissingSubstitution)
	assert.Contains(t, err.Error(), "QUERY")
}

func TestRenderIgnoresExtraValues(t *testing.T) {
	tmpl := Template{Fragments: []Fragment{{Role: RoleUser, Content: "hello"}}}
	got, err := tmpl.Render(map[string]string{"UNUSED": "x"})
	require.NoError(t, err)
	assert.Equal(t, "hello", got[0].Content)
}

func TestChunkJSONRoundTrip(t *testing.T) {
	c := Chunk{
		Text: "body text",
		Meta: map[string]interface{}{"url": "https://example.com/a", "title": "A", "date": "2022-03-04"},
	}
	data, err := json.Marshal(c)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "body text", raw["text"])
	assert.Equal(t, "A", raw["title"])

	var back Chunk
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, c.Text, back.Text)
	assert.Equal(t, "https://example.com/a", back.SourceURL())

	published, ok := back.PublishedDate()
	require.True(t, ok)
	assert.Equal(t, 2022, published.Year())
}
