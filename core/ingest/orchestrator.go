// Package ingest drives the catalogue-building pipeline: catalog fetch,
// preview transcode, clip upload, embedding, and index upsert.
package ingest

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"

	"musiclip/config"
	"musiclip/core/audio"
	"musiclip/core/auth"
	"musiclip/core/catalog"
	"musiclip/core/errs"
	"musiclip/core/vectordb"
	"musiclip/logger"
	"musiclip/model"
	"musiclip/repository"
)

// Status is the terminal state of one track's pipeline run.
type Status string

const (
	StatusProcessed Status = "processed"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Outcome is the per-track result. Reason is human readable and only
// meaningful for skipped and failed outcomes.
type Outcome struct {
	Status Status
	Reason string
}

// Summary accumulates per-track outcomes over one run.
type Summary struct {
	Total     int
	Processed int
	Skipped   int
	Failed    int
}

func (s *Summary) record(o Outcome) {
	switch o.Status {
	case StatusProcessed:
		s.Processed++
	case StatusSkipped:
		s.Skipped++
	default:
		s.Failed++
	}
}

// Catalog is the slice of the catalog client the orchestrator uses.
type Catalog interface {
	GetSong(ctx context.Context, token, songID string) (*catalog.SongResult, error)
	GetPlaylist(ctx context.Context, token, playlistID string) (*catalog.PlaylistResult, error)
}

// Store is the slice of the clip store the orchestrator uses.
type Store interface {
	EnsureBucket(ctx context.Context) error
	PutClip(ctx context.Context, songID, wavPath string) (string, error)
}

// Embedder turns a clip WAV into an embedding vector.
type Embedder interface {
	EmbedAudio(ctx context.Context, wavPath string) ([]float32, error)
}

// Index is the slice of the vector index the orchestrator uses.
type Index interface {
	EnsureCollection(ctx context.Context) error
	Exists(ctx context.Context, id string) (bool, error)
	Upsert(ctx context.Context, rec vectordb.Record) error
}

// Orchestrator sequences the pipeline. Tracks are processed strictly
// one at a time; a per-track failure is recorded and the run continues.
type Orchestrator struct {
	cfg       *config.Config
	catalog   Catalog
	processor audio.Processor
	store     Store
	embedder  Embedder
	index     Index
	ledger    repository.IngestRepository // nil disables the ledger
}

// New wires an orchestrator from its collaborators. ledger may be nil.
func New(
	cfg *config.Config,
	cat Catalog,
	processor audio.Processor,
	store Store,
	embedder Embedder,
	index Index,
	ledger repository.IngestRepository,
) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		catalog:   cat,
		processor: processor,
		store:     store,
		embedder:  embedder,
		index:     index,
		ledger:    ledger,
	}
}

// prepare validates credentials, issues the developer token, and makes
// sure the bucket and collection exist. Any failure here aborts the run
// before per-track work starts.
func (o *Orchestrator) prepare(ctx context.Context) (string, error) {
	if o.cfg.AppleKeyID == "" || o.cfg.AppleTeamID == "" {
		return "", &errs.ConfigurationError{
			Msg: "Apple Music credentials not configured, set APPLE_KEY_ID and APPLE_TEAM_ID",
		}
	}
	if _, err := os.Stat(o.cfg.AppleKeyPath); err != nil {
		return "", &errs.ConfigurationError{
			Msg:   fmt.Sprintf("Apple Music key file not found at %s", o.cfg.AppleKeyPath),
			Cause: err,
		}
	}

	token, err := auth.IssueToken(o.cfg.AppleKeyPath, o.cfg.AppleKeyID, o.cfg.AppleTeamID, auth.MaxValidity)
	if err != nil {
		return "", err
	}

	if err := o.store.EnsureBucket(ctx); err != nil {
		return "", err
	}
	if err := o.index.EnsureCollection(ctx); err != nil {
		return "", err
	}
	return token, nil
}

// ProcessSong runs the per-track state machine: skip check, metadata
// fetch, download/transcode, upload, embed, index. Every failure is
// terminal for the track and reported in the outcome, never returned as
// an error.
func (o *Orchestrator) ProcessSong(ctx context.Context, token, songID, runID string, skipExisting bool) Outcome {
	if skipExisting {
		exists, err := o.index.Exists(ctx, songID)
		if err != nil {
			logger.Warn("Existence check failed, processing anyway",
				logger.String("songId", songID),
				logger.ErrorField(err),
			)
		} else if exists {
			return Outcome{Status: StatusSkipped, Reason: "already in database"}
		}
	}

	result, err := o.catalog.GetSong(ctx, token, songID)
	if err != nil {
		return Outcome{Status: StatusFailed, Reason: fmt.Sprintf("failed to fetch song details: %v", err)}
	}
	if !result.OK {
		return Outcome{Status: StatusFailed, Reason: fmt.Sprintf("failed to fetch song details: status %d", result.Status)}
	}
	if result.Song == nil {
		return Outcome{Status: StatusFailed, Reason: "no song data available"}
	}

	song := result.Song
	if song.PreviewURL == "" {
		return Outcome{Status: StatusFailed, Reason: "no preview URL available"}
	}

	wavPath, err := o.processor.FetchAndTranscode(ctx, song.PreviewURL)
	if err != nil {
		return Outcome{Status: StatusFailed, Reason: fmt.Sprintf("conversion failed: %v", err)}
	}
	// The transcoded clip is scoped to this track; remove it no matter
	// how the remaining steps end.
	defer os.Remove(wavPath)

	objectKey, err := o.store.PutClip(ctx, songID, wavPath)
	if err != nil {
		return Outcome{Status: StatusFailed, Reason: fmt.Sprintf("upload failed: %v", err)}
	}

	embedding, err := o.embedder.EmbedAudio(ctx, wavPath)
	if err != nil {
		return Outcome{Status: StatusFailed, Reason: fmt.Sprintf("embedding failed: %v", err)}
	}

	meta := model.TrackMetadata{
		SongID:      songID,
		SongName:    song.Name,
		AlbumName:   song.AlbumName,
		ArtistName:  song.ArtistName,
		ReleaseDate: song.ReleaseDate,
		Genres:      model.JoinGenres(song.GenreNames),
	}

	if err := o.index.Upsert(ctx, vectordb.Record{ID: songID, Embedding: embedding, Meta: meta}); err != nil {
		return Outcome{Status: StatusFailed, Reason: fmt.Sprintf("indexing failed: %v", err)}
	}

	if o.ledger != nil {
		err := o.ledger.RecordTrack(&repository.IngestedTrack{
			SongID:      songID,
			SongName:    meta.SongName,
			ArtistName:  meta.ArtistName,
			AlbumName:   meta.AlbumName,
			ReleaseDate: meta.ReleaseDate,
			Genres:      meta.Genres,
			ObjectKey:   objectKey,
			RunID:       runID,
		})
		if err != nil {
			// Ledger trouble must not fail an already indexed track.
			logger.Warn("Failed to record ledger row",
				logger.String("songId", songID),
				logger.ErrorField(err),
			)
		}
	}

	return Outcome{Status: StatusProcessed, Reason: "successfully indexed"}
}

// ProcessPlaylist ingests every track of a playlist sequentially. The
// returned error is non-nil only when setup (credentials, token, bucket,
// collection, playlist fetch) fails; per-track failures end up in the
// summary.
func (o *Orchestrator) ProcessPlaylist(ctx context.Context, playlistID string, skipExisting bool) (*Summary, error) {
	token, err := o.prepare(ctx)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger.Info("Fetching playlist",
		logger.String("playlistId", playlistID),
		logger.String("runId", runID),
	)

	result, err := o.catalog.GetPlaylist(ctx, token, playlistID)
	if err != nil {
		return nil, err
	}
	if !result.OK {
		return nil, &errs.UpstreamError{Op: "fetch playlist", Status: result.Status}
	}
	if result.Playlist == nil {
		return nil, &errs.NotFoundError{Kind: "playlist", ID: playlistID}
	}
	if len(result.Playlist.Tracks) == 0 {
		return nil, fmt.Errorf("no tracks found in playlist %s", playlistID)
	}

	playlist := result.Playlist
	fmt.Printf("\nPlaylist: %s\n", playlist.Name)
	fmt.Printf("Curator: %s\n", playlist.CuratorName)
	fmt.Printf("Number of tracks: %d\n\n", len(playlist.Tracks))

	summary := &Summary{Total: len(playlist.Tracks)}
	for i, track := range playlist.Tracks {
		fmt.Printf("[%d/%d] %s - %s\n", i+1, len(playlist.Tracks), track.Name, track.ArtistName)

		outcome := o.ProcessSong(ctx, token, track.ID, runID, skipExisting)
		summary.record(outcome)

		switch outcome.Status {
		case StatusProcessed:
			fmt.Printf("  + %s\n", outcome.Reason)
		case StatusSkipped:
			fmt.Printf("  o %s\n", outcome.Reason)
		default:
			fmt.Printf("  x %s\n", outcome.Reason)
			logger.Warn("Track failed",
				logger.String("songId", track.ID),
				logger.String("reason", outcome.Reason),
			)
		}
	}

	o.recordRun(runID, "playlist", playlistID, summary)
	return summary, nil
}

// ProcessSingle ingests one song by id. Setup failures come back as an
// error; the track's own outcome comes back in the summary.
func (o *Orchestrator) ProcessSingle(ctx context.Context, songID string, skipExisting bool) (*Summary, error) {
	token, err := o.prepare(ctx)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger.Info("Processing song",
		logger.String("songId", songID),
		logger.String("runId", runID),
	)

	summary := &Summary{Total: 1}
	outcome := o.ProcessSong(ctx, token, songID, runID, skipExisting)
	summary.record(outcome)

	switch outcome.Status {
	case StatusProcessed:
		fmt.Printf("+ %s\n", outcome.Reason)
	case StatusSkipped:
		fmt.Printf("o %s\n", outcome.Reason)
	default:
		fmt.Printf("x %s\n", outcome.Reason)
	}

	o.recordRun(runID, "song", songID, summary)
	return summary, nil
}

func (o *Orchestrator) recordRun(runID, kind, targetID string, summary *Summary) {
	if o.ledger == nil {
		return
	}
	err := o.ledger.RecordRun(&repository.IngestRun{
		RunID:     runID,
		Kind:      kind,
		TargetID:  targetID,
		Total:     summary.Total,
		Processed: summary.Processed,
		Skipped:   summary.Skipped,
		Failed:    summary.Failed,
	})
	if err != nil {
		logger.Warn("Failed to record run summary", logger.ErrorField(err))
	}
}
