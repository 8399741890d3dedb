package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"musiclip/config"
	"musiclip/core/audio"
	"musiclip/core/catalog"
	"musiclip/core/embed"
	"musiclip/core/ingest"
	"musiclip/core/vectordb"
	"musiclip/db"
	"musiclip/logger"
	"musiclip/repository"
	"musiclip/storage"
)

var (
	catalogueInteractive    bool
	cataloguePlaylistID     string
	catalogueSongID         string
	catalogueNoSkipExisting bool
)

var catalogueCmd = &cobra.Command{
	Use:   "catalogue",
	Short: "Build the music catalogue from Apple Music",
	Long: `Fetch playlists or songs from Apple Music, transcode their previews,
upload the clips, and index their embeddings.

Examples:
  # Interactive shell mode
  musiclip catalogue --interactive

  # Index a specific playlist
  musiclip catalogue --playlist-id pl.606afcbb70264d2eb2b51d8dbcfa6a12

  # Index a specific song
  musiclip catalogue --song-id 1234567890

  # Index a playlist and reprocess existing songs
  musiclip catalogue --playlist-id pl.606afcbb70264d2eb2b51d8dbcfa6a12 --no-skip-existing`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		ctx := context.Background()

		orchestrator, cleanup, err := buildOrchestrator(ctx, cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		skipExisting := !catalogueNoSkipExisting

		switch {
		case catalogueInteractive:
			orchestrator.InteractiveShell(ctx, os.Stdin, os.Stdout)
			return nil

		case cataloguePlaylistID != "":
			summary, err := orchestrator.ProcessPlaylist(ctx, cataloguePlaylistID, skipExisting)
			if err != nil {
				return fmt.Errorf("processing playlist: %w", err)
			}
			ingest.PrintSummary(os.Stdout, summary)
			return nil

		case catalogueSongID != "":
			summary, err := orchestrator.ProcessSingle(ctx, catalogueSongID, skipExisting)
			if err != nil {
				return fmt.Errorf("processing song: %w", err)
			}
			return singleRunError(catalogueSongID, summary)

		default:
			return cmd.Help()
		}
	},
}

// singleRunError maps a one-track run onto the command's exit status: a
// failed track must fail the command even though the run itself completed.
func singleRunError(songID string, summary *ingest.Summary) error {
	if summary.Failed > 0 {
		return fmt.Errorf("failed to process song %s", songID)
	}
	return nil
}

// buildOrchestrator wires the ingest pipeline from configuration. The
// returned cleanup closes whatever connected.
func buildOrchestrator(ctx context.Context, cfg *config.Config) (*ingest.Orchestrator, func(), error) {
	store, err := storage.NewClipStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	index, err := vectordb.NewClient(ctx, vectordb.Config{
		URI:        cfg.MilvusURI,
		Collection: cfg.MilvusCollection,
		Dim:        cfg.EmbeddingDim,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to Milvus: %w", err)
	}

	cleanup := func() {
		index.Close()
	}

	var ledger repository.IngestRepository
	if cfg.DBHost != "" {
		gormDB, err := db.ConnectGormDB(cfg)
		if err != nil {
			logger.Warn("MySQL unavailable, running without ingest ledger", logger.ErrorField(err))
		} else {
			ledger, err = repository.NewMySQLIngestRepository(gormDB)
			if err != nil {
				logger.Warn("Ledger migration failed, running without ingest ledger", logger.ErrorField(err))
				db.CloseGormDB(gormDB)
				ledger = nil
			} else {
				prev := cleanup
				cleanup = func() {
					db.CloseGormDB(gormDB)
					prev()
				}
			}
		}
	}

	orchestrator := ingest.New(
		cfg,
		catalog.NewClient(cfg.Storefront),
		audio.NewFFmpegProcessor(cfg.FFmpegPath, cfg.SampleRate),
		store,
		embed.NewClient(cfg.EmbeddingServerURL),
		index,
		ledger,
	)
	return orchestrator, cleanup, nil
}

func init() {
	catalogueCmd.Flags().BoolVar(&catalogueInteractive, "interactive", false, "Launch interactive shell")
	catalogueCmd.Flags().StringVar(&cataloguePlaylistID, "playlist-id", "", "Apple Music playlist ID")
	catalogueCmd.Flags().StringVar(&catalogueSongID, "song-id", "", "Apple Music song ID")
	catalogueCmd.Flags().BoolVar(&catalogueNoSkipExisting, "no-skip-existing", false, "Reprocess songs already in the index")
	rootCmd.AddCommand(catalogueCmd)
}
