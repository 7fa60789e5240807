package models

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrEmptyDocument is returned when a submitted document has no text body.
var ErrEmptyDocument = errors.New("document has no text")

// Document is a raw input unit awaiting indexing. Text holds the body to be
// chunked; Meta carries every other field of the submitted JSON object (url,
// title, date, ...) untouched. The chunker never interprets Meta.
type Document struct {
	Text string
	Meta map[string]interface{}
}

// Chunk is the atomic retrieval unit: a bounded excerpt of a document plus the
// metadata inherited verbatim from its parent. Chunks from one document differ
// only in Text.
type Chunk struct {
	Text string
	Meta map[string]interface{}
}

// The on-disk form of both types is a single flat JSON object
// {"text": ..., "url": ..., "title": ..., ...} so the metadata store file
// stays compatible with schema files written by earlier deployments.

func flattenJSON(text string, meta map[string]interface{}) ([]byte, error) {
	out := make(map[string]interface{}, len(meta)+1)
	for k, v := range meta {
		out[k] = v
	}
	out["text"] = text
	return json.Marshal(out)
}

func unflattenJSON(data []byte) (string, map[string]interface{}, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", nil, err
	}
	text, _ := raw["text"].(string)
	delete(raw, "text")
	return text, raw, nil
}

// MarshalJSON implements json.Marshaler.
func (d Document) MarshalJSON() ([]byte, error) {
	return flattenJSON(d.Text, d.Meta)
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Document) UnmarshalJSON(data []byte) error {
	text, meta, err := unflattenJSON(data)
	if err != nil {
		return err
	}
	d.Text = text
	d.Meta = meta
	return nil
}

// MarshalJSON implements json.Marshaler.
func (c Chunk) MarshalJSON() ([]byte, error) {
	return flattenJSON(c.Text, c.Meta)
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Chunk) UnmarshalJSON(data []byte) error {
	text, meta, err := unflattenJSON(data)
	if err != nil {
		return err
	}
	c.Text = text
	c.Meta = meta
	return nil
}

func (c Chunk) metaString(key string) string {
	if c.Meta == nil {
		return ""
	}
	s, _ := c.Meta[key].(string)
	return s
}

// SourceURL returns the chunk's source URL, or "" when absent.
func (c Chunk) SourceURL() string { return c.metaString("url") }

// Title returns the chunk's source title, or "" when absent.
func (c Chunk) Title() string { return c.metaString("title") }

// PublishedDate parses the chunk's publication date (YYYY-MM-DD). The second
// return value is false when the field is absent or malformed.
func (c Chunk) PublishedDate() (time.Time, bool) {
	raw := c.metaString("date")
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// PublishedDateString returns the raw publication date field.
func (c Chunk) PublishedDateString() string { return c.metaString("date") }
