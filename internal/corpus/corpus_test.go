package corpus_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsrag/newsrag/internal/corpus"
)

func writeCorpus(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "articles.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoaderLoad(t *testing.T) {
	t.Parallel()

	t.Run("splits content from metadata", func(t *testing.T) {
		t.Parallel()
		path := writeCorpus(t, `[
			{"title": "Markets", "category": "finance", "content": "Stocks rallied."},
			{"title": "Comet", "content": "A comet is visible tonight."}
		]`)

		docs, err := corpus.NewLoader(path).Load(context.Background())
		require.NoError(t, err)
		require.Len(t, docs, 2)

		assert.Equal(t, "Stocks rallied.", docs[0].Content)
		assert.Equal(t, map[string]any{"title": "Markets", "category": "finance"}, docs[0].Metadata)
		assert.Equal(t, "A comet is visible tonight.", docs[1].Content)
		assert.Equal(t, map[string]any{"title": "Comet"}, docs[1].Metadata)
	})

	t.Run("document with only content has nil metadata", func(t *testing.T) {
		t.Parallel()
		path := writeCorpus(t, `[{"content": "bare"}]`)

		docs, err := corpus.NewLoader(path).Load(context.Background())
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Nil(t, docs[0].Metadata)
	})

	t.Run("empty array is an error", func(t *testing.T) {
		t.Parallel()
		path := writeCorpus(t, `[]`)

		_, err := corpus.NewLoader(path).Load(context.Background())
		assert.ErrorIs(t, err, corpus.ErrEmptyCorpus)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "nope.json")

		_, err := corpus.NewLoader(path).Load(context.Background())
		require.Error(t, err)
		assert.NotErrorIs(t, err, corpus.ErrEmptyCorpus)
	})

	t.Run("malformed JSON is an error", func(t *testing.T) {
		t.Parallel()
		path := writeCorpus(t, `{"not": "an array"}`)

		_, err := corpus.NewLoader(path).Load(context.Background())
		require.Error(t, err)
	})
}

func TestDocumentJSON(t *testing.T) {
	t.Parallel()

	t.Run("marshal flattens metadata beside content", func(t *testing.T) {
		t.Parallel()
		doc := corpus.Document{
			Content:  "Stocks rallied.",
			Metadata: map[string]any{"title": "Markets"},
		}

		data, err := json.Marshal(doc)
		require.NoError(t, err)

		var obj map[string]any
		require.NoError(t, json.Unmarshal(data, &obj))
		assert.Equal(t, map[string]any{
			"content": "Stocks rallied.",
			"title":   "Markets",
		}, obj)
	})

	t.Run("round-trip preserves the document", func(t *testing.T) {
		t.Parallel()
		doc := corpus.Document{
			Content:  "Stocks rallied.",
			Metadata: map[string]any{"title": "Markets", "category": "finance"},
		}

		data, err := json.Marshal(doc)
		require.NoError(t, err)

		var got corpus.Document
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, doc, got)
	})
}
