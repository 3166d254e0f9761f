package index_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsrag/newsrag/internal/corpus"
	"github.com/newsrag/newsrag/internal/index"
)

func TestUpsert(t *testing.T) {
	t.Parallel()

	t.Run("sends the batch and decodes the result", func(t *testing.T) {
		t.Parallel()

		var gotMethod, gotPath, gotQuery string
		var gotBody map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotPath = r.URL.Path
			gotQuery = r.URL.RawQuery
			data, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(data, &gotBody))
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"result":{"operation_id":7,"status":"completed"},"status":"ok"}`)
		}))
		defer srv.Close()

		client := index.New(srv.URL, "news_articles", 0, nil)
		points := []index.Point{
			{ID: 1, Vector: []float32{0.1, 0.2}, Payload: corpus.Document{Content: "first"}},
			{ID: 2, Vector: []float32{0.3, 0.4}, Payload: corpus.Document{Content: "second"}},
		}

		result, err := client.Upsert(context.Background(), points)
		require.NoError(t, err)
		assert.Equal(t, uint64(7), result.OperationID)
		assert.Equal(t, "completed", result.Status)

		assert.Equal(t, http.MethodPut, gotMethod)
		assert.Equal(t, "/collections/news_articles/points", gotPath)
		assert.Equal(t, "wait=true", gotQuery)
		require.Contains(t, gotBody, "points")
		assert.Len(t, gotBody["points"], 2)
	})

	t.Run("rejects an empty batch locally", func(t *testing.T) {
		t.Parallel()

		client := index.New("http://localhost:0", "news_articles", 0, nil)
		_, err := client.Upsert(context.Background(), nil)
		assert.ErrorIs(t, err, index.ErrWrite)
	})

	t.Run("wraps service errors as ErrWrite", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"status":{"error":"wrong vector size"}}`)
		}))
		defer srv.Close()

		client := index.New(srv.URL, "news_articles", 0, nil)
		_, err := client.Upsert(context.Background(), []index.Point{{ID: 1, Vector: []float32{1}}})
		assert.ErrorIs(t, err, index.ErrWrite)
		assert.ErrorContains(t, err, "wrong vector size")
	})

	t.Run("wraps connection failures as ErrWrite", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		srv.Close() // nothing listening anymore

		client := index.New(srv.URL, "news_articles", 0, nil)
		_, err := client.Upsert(context.Background(), []index.Point{{ID: 1, Vector: []float32{1}}})
		assert.ErrorIs(t, err, index.ErrWrite)
	})
}

func TestSearch(t *testing.T) {
	t.Parallel()

	t.Run("requests payloads and decodes hits in order", func(t *testing.T) {
		t.Parallel()

		var gotPath string
		var gotBody map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			data, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(data, &gotBody))
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"result":[
				{"id":2,"score":0.92,"payload":{"content":"closest","title":"A"}},
				{"id":5,"score":0.71,"payload":{"content":"second","title":"B"}}
			],"status":"ok"}`)
		}))
		defer srv.Close()

		client := index.New(srv.URL, "news_articles", 0, nil)
		hits, err := client.Search(context.Background(), []float32{0.5, 0.5}, 5)
		require.NoError(t, err)

		assert.Equal(t, "/collections/news_articles/points/search", gotPath)
		assert.Equal(t, true, gotBody["with_payload"])
		assert.Equal(t, float64(5), gotBody["limit"])

		require.Len(t, hits, 2)
		assert.Equal(t, uint64(2), hits[0].ID)
		assert.InDelta(t, 0.92, hits[0].Score, 0.0001)
		assert.Equal(t, "closest", hits[0].Payload.Content)
		assert.Equal(t, "A", hits[0].Payload.Metadata["title"])
		assert.Equal(t, "second", hits[1].Payload.Content)
	})

	t.Run("rejects a non-positive limit locally", func(t *testing.T) {
		t.Parallel()

		client := index.New("http://localhost:0", "news_articles", 0, nil)
		_, err := client.Search(context.Background(), []float32{1}, 0)
		assert.ErrorIs(t, err, index.ErrQuery)
	})

	t.Run("wraps service errors as ErrQuery", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		client := index.New(srv.URL, "news_articles", 0, nil)
		_, err := client.Search(context.Background(), []float32{1}, 5)
		assert.ErrorIs(t, err, index.ErrQuery)
	})
}

func TestEnsureCollection(t *testing.T) {
	t.Parallel()

	t.Run("creates a missing collection", func(t *testing.T) {
		t.Parallel()

		var createBody map[string]any
		created := false
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				w.WriteHeader(http.StatusNotFound)
			case http.MethodPut:
				created = true
				assert.Equal(t, "/collections/news_articles", r.URL.Path)
				data, _ := io.ReadAll(r.Body)
				require.NoError(t, json.Unmarshal(data, &createBody))
				io.WriteString(w, `{"result":true,"status":"ok"}`)
			}
		}))
		defer srv.Close()

		client := index.New(srv.URL, "news_articles", 0, nil)
		require.NoError(t, client.EnsureCollection(context.Background(), 512))

		require.True(t, created)
		vectors, ok := createBody["vectors"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, float64(512), vectors["size"])
		assert.Equal(t, "Cosine", vectors["distance"])
	})

	t.Run("leaves an existing collection untouched", func(t *testing.T) {
		t.Parallel()

		var puts int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPut {
				puts++
			}
			io.WriteString(w, `{"result":{"status":"green"},"status":"ok"}`)
		}))
		defer srv.Close()

		client := index.New(srv.URL, "news_articles", 0, nil)
		require.NoError(t, client.EnsureCollection(context.Background(), 512))
		assert.Zero(t, puts)
	})

	t.Run("wraps check failures as ErrWrite", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		client := index.New(srv.URL, "news_articles", 0, nil)
		err := client.EnsureCollection(context.Background(), 512)
		assert.ErrorIs(t, err, index.ErrWrite)
	})
}
