// Package corpus provides the document source for ingestion: a JSON file
// holding an array of articles. Each article object carries a "content"
// field; every other field travels along as metadata and ends up verbatim in
// the vector index payload.
package corpus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrEmptyCorpus indicates the source contained no documents.
var ErrEmptyCorpus = errors.New("corpus contains no documents")

// Document is one ingestion input unit. Documents are immutable once
// embedded; re-ingestion creates a new indexed point rather than updating
// an existing one in place.
type Document struct {
	Content  string
	Metadata map[string]any
}

// MarshalJSON flattens metadata and content back into a single object,
// the same shape the source file uses.
func (d Document) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, len(d.Metadata)+1)
	for k, v := range d.Metadata {
		obj[k] = v
	}
	obj["content"] = d.Content
	data, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return data, nil
}

// UnmarshalJSON splits an article object into content and metadata.
func (d *Document) UnmarshalJSON(data []byte) error {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("unmarshal document: %w", err)
	}
	content, _ := obj["content"].(string)
	delete(obj, "content")
	d.Content = content
	d.Metadata = obj
	if len(d.Metadata) == 0 {
		d.Metadata = nil
	}
	return nil
}

// Loader reads the article corpus from a JSON file.
type Loader struct {
	path string
}

// NewLoader creates a Loader for the given file path.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load reads and decodes the corpus. The file is read once per call; the
// ingestion pipeline invokes it once per run.
func (l *Loader) Load(_ context.Context) ([]Document, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("reading corpus file %q: %w", l.path, err)
	}

	var docs []Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("parsing corpus file %q: %w", l.path, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrEmptyCorpus, l.path)
	}
	return docs, nil
}
