package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTEIServer(t *testing.T, vectors [][]float32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/embed", r.URL.Path)

		var req teiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(vectors))
	}))
}

func TestService_GenerateEmbedding(t *testing.T) {
	want := []float32{0.1, 0.2, 0.3}
	server := newTEIServer(t, [][]float32{want})
	defer server.Close()

	svc, err := NewService(Config{BaseURL: server.URL}, nil)
	require.NoError(t, err)

	vector, err := svc.GenerateEmbedding(context.Background(), "kubectl get pods failed")
	require.NoError(t, err)
	assert.Equal(t, want, vector)
}

func TestService_GenerateEmbedding_EmptyInput(t *testing.T) {
	svc, err := NewService(Config{BaseURL: "http://localhost:8080"}, nil)
	require.NoError(t, err)

	_, err = svc.GenerateEmbedding(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestService_GenerateEmbedding_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	svc, err := NewService(Config{BaseURL: server.URL}, nil)
	require.NoError(t, err)

	_, err = svc.GenerateEmbedding(context.Background(), "some text")
	assert.ErrorIs(t, err, ErrEmbeddingFailed)
}

func TestService_GenerateEmbedding_EmptyResponse(t *testing.T) {
	server := newTEIServer(t, [][]float32{})
	defer server.Close()

	svc, err := NewService(Config{BaseURL: server.URL}, nil)
	require.NoError(t, err)

	_, err = svc.GenerateEmbedding(context.Background(), "some text")
	assert.ErrorIs(t, err, ErrEmbeddingFailed)
}

func TestConfig_ApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, "BAAI/bge-small-en-v1.5", cfg.Model)
	assert.Equal(t, uint64(384), cfg.VectorSize)
	assert.NotZero(t, cfg.Timeout)
}
