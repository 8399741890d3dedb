package server

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"musiclip/core/vectordb"
)

func runShell(t *testing.T, handler *QueryHandler, input string) string {
	t.Helper()
	var out bytes.Buffer
	handler.InteractiveShell(context.Background(), strings.NewReader(input), &out)
	return out.String()
}

func TestQueryShellQuit(t *testing.T) {
	handler, embedder := newTestHandler(&fakeIndex{count: 3}, nil)

	out := runShell(t, handler, "q\n")

	assert.Contains(t, out, "Music Query Interactive Shell")
	assert.Contains(t, out, "Collection size: 3 embeddings")
	assert.Contains(t, out, "Goodbye!")
	assert.Equal(t, 0, embedder.calls)
}

func TestQueryShellTextQuery(t *testing.T) {
	index := &fakeIndex{matches: []vectordb.Match{match("a", 0.2)}}
	handler, embedder := newTestHandler(index, nil)

	out := runShell(t, handler, "upbeat summer rock\nq\n")

	assert.Equal(t, 1, embedder.calls)
	assert.Equal(t, defaultTopK, index.lastK)
	assert.Contains(t, out, "=== Top Results ===")
	assert.Contains(t, out, "1. Song a - Unknown")
	assert.Contains(t, out, "Genres: Rock, Pop")
	assert.Contains(t, out, "Cosine Similarity: 0.8000")
	assert.Contains(t, out, "Audio URL: http://localhost:9000/music-clips/a.wav")
}

func TestQueryShellSimilarByID(t *testing.T) {
	index := &fakeIndex{
		vectors: map[string][]float32{"self": {0.1, 0.2}},
		matches: []vectordb.Match{match("self", 0.0), match("near", 0.3)},
	}
	handler, embedder := newTestHandler(index, nil)

	out := runShell(t, handler, "[self]\nq\n")

	assert.Equal(t, 0, embedder.calls)
	assert.Equal(t, defaultTopK+1, index.lastK)
	assert.Contains(t, out, "Searching for songs similar to ID: self")
	assert.Contains(t, out, "1. Song near")
	assert.NotContains(t, out, "1. Song self")
}

func TestQueryShellUnknownSongID(t *testing.T) {
	handler, _ := newTestHandler(&fakeIndex{vectors: map[string][]float32{}}, nil)

	out := runShell(t, handler, "[ghost]\nq\n")

	assert.Contains(t, out, "Error:")
	assert.Contains(t, out, "ghost")
}

func TestQueryShellEmptyQuery(t *testing.T) {
	index := &fakeIndex{}
	handler, embedder := newTestHandler(index, nil)

	out := runShell(t, handler, "\nq\n")

	assert.Contains(t, out, "Please enter a valid query.")
	assert.Equal(t, 0, embedder.calls)
	assert.Equal(t, 0, index.searchCalls)
}

func TestQueryShellNoResults(t *testing.T) {
	handler, _ := newTestHandler(&fakeIndex{}, nil)

	out := runShell(t, handler, "obscure genre\nq\n")

	assert.Contains(t, out, "No results found.")
}
