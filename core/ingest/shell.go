package ingest

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// InteractiveShell runs the prompt loop for indexing playlists and
// songs. Reads commands from in (stdin in practice) until quit or EOF.
func (o *Orchestrator) InteractiveShell(ctx context.Context, in io.Reader, out io.Writer) {
	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintln(out, "Musiclip Catalogue Indexer - Interactive Shell")
	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintln(out, "Index playlists or individual songs from Apple Music.")
	fmt.Fprintln(out, "Type 'quit' or 'exit' to exit.")

	if o.cfg.AppleKeyID == "" || o.cfg.AppleTeamID == "" {
		fmt.Fprintln(out, "ERROR: Apple Music credentials not configured.")
		fmt.Fprintln(out, "Set APPLE_KEY_ID and APPLE_TEAM_ID environment variables.")
		return
	}
	if _, err := os.Stat(o.cfg.AppleKeyPath); err != nil {
		fmt.Fprintf(out, "ERROR: Apple Music key file not found at %s\n", o.cfg.AppleKeyPath)
		return
	}

	fmt.Fprintln(out, "Configuration validated")
	fmt.Fprintf(out, "  Apple Key ID: %s\n", o.cfg.AppleKeyID)
	fmt.Fprintf(out, "  Milvus: %s\n", o.cfg.MilvusURI)
	fmt.Fprintf(out, "  MinIO: %s\n", o.cfg.MinioEndpoint)
	fmt.Fprintf(out, "  Embedding Server: %s\n", o.cfg.EmbeddingServerURL)

	scanner := bufio.NewScanner(in)
	prompt := func(msg string) (string, bool) {
		fmt.Fprint(out, msg)
		if !scanner.Scan() {
			return "", false
		}
		return strings.TrimSpace(scanner.Text()), true
	}

	for {
		fmt.Fprintln(out, "\nWhat would you like to add?")
		fmt.Fprintln(out, "  1. Playlist")
		fmt.Fprintln(out, "  2. Song")
		fmt.Fprintln(out, "  q. Quit")

		choice, ok := prompt("\nChoice (1/2/q): ")
		if !ok {
			return
		}

		switch strings.ToLower(choice) {
		case "quit", "exit", "q":
			fmt.Fprintln(out, "Goodbye!")
			return

		case "1":
			playlistID, ok := prompt("\nPlaylist ID: ")
			if !ok {
				return
			}
			if playlistID == "" {
				fmt.Fprintln(out, "Please enter a valid playlist ID.")
				continue
			}
			summary, err := o.ProcessPlaylist(ctx, playlistID, true)
			if err != nil {
				fmt.Fprintf(out, "\nError: %v\n", err)
				continue
			}
			PrintSummary(out, summary)

		case "2":
			songID, ok := prompt("\nSong ID: ")
			if !ok {
				return
			}
			if songID == "" {
				fmt.Fprintln(out, "Please enter a valid song ID.")
				continue
			}
			summary, err := o.ProcessSingle(ctx, songID, true)
			if err != nil {
				fmt.Fprintf(out, "\nError: %v\n", err)
				continue
			}
			if summary.Failed > 0 {
				fmt.Fprintf(out, "\nError: failed to process song %s\n", songID)
			}

		default:
			fmt.Fprintln(out, "Invalid choice. Please enter 1, 2, or q.")
		}
	}
}

// PrintSummary renders the run summary table.
func PrintSummary(out io.Writer, summary *Summary) {
	fmt.Fprintln(out, "\n"+strings.Repeat("=", 60))
	fmt.Fprintln(out, "PROCESSING SUMMARY")
	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintf(out, "Total tracks: %d\n", summary.Total)
	fmt.Fprintf(out, "Successfully processed: %d\n", summary.Processed)
	fmt.Fprintf(out, "Skipped (already in DB): %d\n", summary.Skipped)
	fmt.Fprintf(out, "Failed: %d\n", summary.Failed)
	fmt.Fprintln(out, strings.Repeat("=", 60))
}
