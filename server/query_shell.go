package server

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// InteractiveShell runs the terminal query loop: a free-text line
// searches by text, a line wrapped in brackets ([song_id]) searches by
// similarity to that song. Reads from in until quit or EOF.
func (h *QueryHandler) InteractiveShell(ctx context.Context, in io.Reader, out io.Writer) {
	count, err := h.index.Count(ctx)
	if err != nil {
		fmt.Fprintf(out, "Error connecting to vector index: %v\n", err)
		return
	}

	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintln(out, "Music Query Interactive Shell")
	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintln(out, "Enter a text query to search for similar music.")
	fmt.Fprintln(out, "Or use [song_id] to find songs similar to a specific song.")
	fmt.Fprintln(out, "Type 'quit' or 'exit' to exit.")
	fmt.Fprintf(out, "Collection size: %d embeddings\n", count)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\nQuery: ")
		if !scanner.Scan() {
			return
		}
		query := strings.TrimSpace(scanner.Text())

		switch strings.ToLower(query) {
		case "quit", "exit", "q":
			fmt.Fprintln(out, "Goodbye!")
			return
		case "":
			fmt.Fprintln(out, "Please enter a valid query.")
			continue
		}

		var results []QueryResult
		if strings.HasPrefix(query, "[") && strings.HasSuffix(query, "]") {
			songID := strings.TrimSpace(query[1 : len(query)-1])
			fmt.Fprintf(out, "Searching for songs similar to ID: %s\n", songID)
			results, err = h.similarByID(ctx, songID, defaultTopK)
		} else {
			results, err = h.searchByText(ctx, query, defaultTopK)
		}
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}

		printResults(out, results)
	}
}

// searchByText resolves a text query and searches the index.
func (h *QueryHandler) searchByText(ctx context.Context, query string, topK int) ([]QueryResult, error) {
	embedding, err := h.textEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}
	matches, err := h.index.Search(ctx, embedding, topK)
	if err != nil {
		return nil, err
	}
	return h.shapeResults(matches), nil
}

// similarByID looks up a song's vector and searches for its neighbors,
// removing the song itself from the results.
func (h *QueryHandler) similarByID(ctx context.Context, songID string, topK int) ([]QueryResult, error) {
	vector, err := h.index.GetVector(ctx, songID)
	if err != nil {
		return nil, err
	}
	matches, err := h.index.Search(ctx, vector, topK+1)
	if err != nil {
		return nil, err
	}

	filtered := matches[:0]
	for _, m := range matches {
		if m.ID != songID {
			filtered = append(filtered, m)
		}
	}
	if len(filtered) > topK {
		filtered = filtered[:topK]
	}
	return h.shapeResults(filtered), nil
}

func printResults(out io.Writer, results []QueryResult) {
	if len(results) == 0 {
		fmt.Fprintln(out, "No results found.")
		return
	}

	fmt.Fprintln(out, "\n=== Top Results ===")
	for i, r := range results {
		fmt.Fprintf(out, "%d. %s - %s\n", i+1, orUnknown(r.Metadata.SongName), orUnknown(r.Metadata.ArtistName))
		fmt.Fprintf(out, "   Album: %s\n", orUnknown(r.Metadata.AlbumName))
		fmt.Fprintf(out, "   Genres: %s\n", orUnknown(r.Metadata.Genres))
		fmt.Fprintf(out, "   Cosine Similarity: %.4f\n", r.CosineSimilarity)
		fmt.Fprintf(out, "   Audio URL: %s\n", r.AudioURL)
		fmt.Fprintln(out)
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
