package ingest

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"musiclip/config"
	"musiclip/core/catalog"
	"musiclip/core/errs"
	"musiclip/core/vectordb"
	"musiclip/repository"
)

type fakeCatalog struct {
	songs     map[string]*catalog.SongResult
	playlist  *catalog.PlaylistResult
	songCalls int
}

func (f *fakeCatalog) GetSong(ctx context.Context, token, songID string) (*catalog.SongResult, error) {
	f.songCalls++
	if result, ok := f.songs[songID]; ok {
		return result, nil
	}
	return &catalog.SongResult{OK: false, Status: http.StatusNotFound}, nil
}

func (f *fakeCatalog) GetPlaylist(ctx context.Context, token, playlistID string) (*catalog.PlaylistResult, error) {
	return f.playlist, nil
}

type fakeProcessor struct {
	fail    bool
	calls   int
	lastWav string
}

func (f *fakeProcessor) FetchAndTranscode(ctx context.Context, previewURL string) (string, error) {
	f.calls++
	if f.fail {
		return "", &errs.TranscodeError{Stderr: "Invalid data found when processing input"}
	}
	wav, err := os.CreateTemp("", "ingest-test-*.wav")
	if err != nil {
		return "", err
	}
	wav.WriteString("fake wav")
	wav.Close()
	f.lastWav = wav.Name()
	return wav.Name(), nil
}

type fakeStore struct {
	fail bool
	puts []string
}

func (f *fakeStore) EnsureBucket(ctx context.Context) error { return nil }

func (f *fakeStore) PutClip(ctx context.Context, songID, wavPath string) (string, error) {
	if f.fail {
		return "", &errs.TransportError{Op: "upload", Cause: errors.New("connection reset")}
	}
	f.puts = append(f.puts, songID)
	return songID + ".wav", nil
}

type fakeEmbedder struct {
	fail  bool
	calls int
}

func (f *fakeEmbedder) EmbedAudio(ctx context.Context, wavPath string) ([]float32, error) {
	f.calls++
	if f.fail {
		return nil, &errs.UpstreamError{Op: "embed audio", Status: 503}
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeIndex struct {
	existing   map[string]bool
	upserts    []vectordb.Record
	failUpsert bool
}

func (f *fakeIndex) EnsureCollection(ctx context.Context) error { return nil }

func (f *fakeIndex) Exists(ctx context.Context, id string) (bool, error) {
	return f.existing[id], nil
}

func (f *fakeIndex) Upsert(ctx context.Context, rec vectordb.Record) error {
	if f.failUpsert {
		return errors.New("insert failed")
	}
	f.upserts = append(f.upserts, rec)
	return nil
}

type fakeLedger struct {
	tracks []*repository.IngestedTrack
	runs   []*repository.IngestRun
}

func (f *fakeLedger) RecordTrack(track *repository.IngestedTrack) error {
	f.tracks = append(f.tracks, track)
	return nil
}

func (f *fakeLedger) RecordRun(run *repository.IngestRun) error {
	f.runs = append(f.runs, run)
	return nil
}

func song(id, name, preview string) *catalog.SongResult {
	return &catalog.SongResult{
		OK:     true,
		Status: http.StatusOK,
		Song: &catalog.Song{
			ID:          id,
			Name:        name,
			ArtistName:  "Test Artist",
			AlbumName:   "Test Album",
			ReleaseDate: "2020-01-01",
			GenreNames:  []string{"Rock", "Pop"},
			PreviewURL:  preview,
		},
	}
}

type fixture struct {
	orchestrator *Orchestrator
	catalog      *fakeCatalog
	processor    *fakeProcessor
	store        *fakeStore
	embedder     *fakeEmbedder
	index        *fakeIndex
	ledger       *fakeLedger
}

func newFixture(cfg *config.Config) *fixture {
	f := &fixture{
		catalog:   &fakeCatalog{songs: map[string]*catalog.SongResult{}},
		processor: &fakeProcessor{},
		store:     &fakeStore{},
		embedder:  &fakeEmbedder{},
		index:     &fakeIndex{existing: map[string]bool{}},
		ledger:    &fakeLedger{},
	}
	if cfg == nil {
		cfg = &config.Config{}
	}
	f.orchestrator = New(cfg, f.catalog, f.processor, f.store, f.embedder, f.index, f.ledger)
	return f
}

func TestProcessSongSkipExisting(t *testing.T) {
	f := newFixture(nil)
	f.index.existing["123"] = true

	outcome := f.orchestrator.ProcessSong(context.Background(), "tok", "123", "run1", true)

	assert.Equal(t, StatusSkipped, outcome.Status)
	assert.Equal(t, 0, f.catalog.songCalls)
	assert.Equal(t, 0, f.processor.calls)
}

func TestProcessSongReingestWhenSkipDisabled(t *testing.T) {
	f := newFixture(nil)
	f.index.existing["123"] = true
	f.catalog.songs["123"] = song("123", "Dreams", "http://preview/123.m4a")

	outcome := f.orchestrator.ProcessSong(context.Background(), "tok", "123", "run1", false)

	assert.Equal(t, StatusProcessed, outcome.Status)
	require.Len(t, f.index.upserts, 1)
}

func TestProcessSongNoPreview(t *testing.T) {
	f := newFixture(nil)
	f.catalog.songs["456"] = song("456", "Obscure B-Side", "")

	outcome := f.orchestrator.ProcessSong(context.Background(), "tok", "456", "run1", true)

	assert.Equal(t, StatusFailed, outcome.Status)
	assert.Contains(t, outcome.Reason, "preview")
	// No downstream calls may happen for a previewless track.
	assert.Equal(t, 0, f.processor.calls)
	assert.Empty(t, f.store.puts)
	assert.Equal(t, 0, f.embedder.calls)
}

func TestProcessSongTranscodeFailure(t *testing.T) {
	f := newFixture(nil)
	f.catalog.songs["123"] = song("123", "Dreams", "http://preview/123.m4a")
	f.processor.fail = true

	outcome := f.orchestrator.ProcessSong(context.Background(), "tok", "123", "run1", true)

	assert.Equal(t, StatusFailed, outcome.Status)
	assert.Contains(t, outcome.Reason, "conversion failed")
	assert.Empty(t, f.store.puts)
}

func TestProcessSongUploadFailure(t *testing.T) {
	f := newFixture(nil)
	f.catalog.songs["123"] = song("123", "Dreams", "http://preview/123.m4a")
	f.store.fail = true

	outcome := f.orchestrator.ProcessSong(context.Background(), "tok", "123", "run1", true)

	assert.Equal(t, StatusFailed, outcome.Status)
	assert.Contains(t, outcome.Reason, "upload failed")
	assert.Equal(t, 0, f.embedder.calls)

	// The transcoded clip must not linger after a failed upload.
	_, err := os.Stat(f.processor.lastWav)
	assert.True(t, os.IsNotExist(err))
}

func TestProcessSongIndexFailure(t *testing.T) {
	f := newFixture(nil)
	f.catalog.songs["123"] = song("123", "Dreams", "http://preview/123.m4a")
	f.index.failUpsert = true

	outcome := f.orchestrator.ProcessSong(context.Background(), "tok", "123", "run1", true)

	assert.Equal(t, StatusFailed, outcome.Status)
	assert.Contains(t, outcome.Reason, "indexing failed")

	_, err := os.Stat(f.processor.lastWav)
	assert.True(t, os.IsNotExist(err))
}

func TestProcessSongSuccess(t *testing.T) {
	f := newFixture(nil)
	f.catalog.songs["123"] = song("123", "Dreams", "http://preview/123.m4a")

	outcome := f.orchestrator.ProcessSong(context.Background(), "tok", "123", "run1", true)

	assert.Equal(t, StatusProcessed, outcome.Status)
	assert.Equal(t, []string{"123"}, f.store.puts)

	require.Len(t, f.index.upserts, 1)
	rec := f.index.upserts[0]
	assert.Equal(t, "123", rec.ID)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, rec.Embedding)
	assert.Equal(t, "Dreams", rec.Meta.SongName)
	assert.Equal(t, "Test Artist", rec.Meta.ArtistName)
	assert.Equal(t, "Rock, Pop", rec.Meta.Genres)

	require.Len(t, f.ledger.tracks, 1)
	assert.Equal(t, "123", f.ledger.tracks[0].SongID)
	assert.Equal(t, "123.wav", f.ledger.tracks[0].ObjectKey)
	assert.Equal(t, "run1", f.ledger.tracks[0].RunID)

	// Cleanup happens even on the happy path.
	_, err := os.Stat(f.processor.lastWav)
	assert.True(t, os.IsNotExist(err))
}

// testConfig returns a config with working Apple credentials backed by
// a freshly generated key file.
func testConfig(t *testing.T) *config.Config {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	keyPath := filepath.Join(t.TempDir(), "apple_key.p8")
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})
	require.NoError(t, os.WriteFile(keyPath, pemBytes, 0600))

	return &config.Config{
		AppleKeyID:   "TESTKEY123",
		AppleTeamID:  "TESTTEAM12",
		AppleKeyPath: keyPath,
	}
}

func TestProcessPlaylist(t *testing.T) {
	f := newFixture(testConfig(t))
	f.catalog.playlist = &catalog.PlaylistResult{
		OK:     true,
		Status: http.StatusOK,
		Playlist: &catalog.Playlist{
			ID:   "pl.1",
			Name: "Mixed Bag",
			Tracks: []catalog.TrackRef{
				{ID: "ok1", Name: "Good Song", ArtistName: "A"},
				{ID: "skip1", Name: "Old Song", ArtistName: "B"},
				{ID: "nopreview1", Name: "Quiet Song", ArtistName: "C"},
			},
		},
	}
	f.catalog.songs["ok1"] = song("ok1", "Good Song", "http://preview/ok1.m4a")
	f.catalog.songs["nopreview1"] = song("nopreview1", "Quiet Song", "")
	f.index.existing["skip1"] = true

	summary, err := f.orchestrator.ProcessPlaylist(context.Background(), "pl.1", true)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Failed)

	require.Len(t, f.ledger.runs, 1)
	run := f.ledger.runs[0]
	assert.Equal(t, "playlist", run.Kind)
	assert.Equal(t, "pl.1", run.TargetID)
	assert.Equal(t, 1, run.Processed)
	assert.Equal(t, 1, run.Skipped)
	assert.Equal(t, 1, run.Failed)
}

func TestProcessPlaylistMissingCredentials(t *testing.T) {
	f := newFixture(&config.Config{})

	_, err := f.orchestrator.ProcessPlaylist(context.Background(), "pl.1", true)
	require.Error(t, err)

	var confErr *errs.ConfigurationError
	assert.ErrorAs(t, err, &confErr)
	assert.Equal(t, 0, f.catalog.songCalls)
}

func TestProcessPlaylistMissingKeyFile(t *testing.T) {
	f := newFixture(&config.Config{
		AppleKeyID:   "KEY",
		AppleTeamID:  "TEAM",
		AppleKeyPath: "/nonexistent/key.p8",
	})

	_, err := f.orchestrator.ProcessPlaylist(context.Background(), "pl.1", true)
	require.Error(t, err)

	var confErr *errs.ConfigurationError
	assert.ErrorAs(t, err, &confErr)
}

func TestProcessSingleFailed(t *testing.T) {
	f := newFixture(testConfig(t))
	f.catalog.songs["456"] = song("456", "Quiet Song", "")

	// The run itself completes; the failure lives in the summary and the
	// CLI turns it into a nonzero exit.
	summary, err := f.orchestrator.ProcessSingle(context.Background(), "456", true)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 0, summary.Processed)
}

func TestProcessSingleSkipped(t *testing.T) {
	f := newFixture(testConfig(t))
	f.index.existing["123"] = true

	summary, err := f.orchestrator.ProcessSingle(context.Background(), "123", true)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 0, summary.Processed)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, summary.Failed)
}
