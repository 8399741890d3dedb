package audio

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"musiclip/core/errs"
)

// tempArtifacts counts leftover pipeline temp files.
func tempArtifacts(t *testing.T) int {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(os.TempDir(), "musiclip-*"))
	require.NoError(t, err)
	return len(matches)
}

// fakeFFmpeg writes an executable script that emits a file at its last
// argument, mimicking a successful transcode.
func fakeFFmpeg(t *testing.T) string {
	t.Helper()
	script := filepath.Join(t.TempDir(), "fake-ffmpeg")
	content := "#!/bin/sh\nfor last; do :; done\necho fake-wav-data > \"$last\"\n"
	require.NoError(t, os.WriteFile(script, []byte(content), 0755))
	return script
}

func previewServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("fake m4a bytes"))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFetchAndTranscode(t *testing.T) {
	server := previewServer(t)
	before := tempArtifacts(t)

	p := NewFFmpegProcessor(fakeFFmpeg(t), 24000)
	wavPath, err := p.FetchAndTranscode(context.Background(), server.URL+"/preview.m4a")
	require.NoError(t, err)
	defer os.Remove(wavPath)

	data, err := os.ReadFile(wavPath)
	require.NoError(t, err)
	assert.Equal(t, "fake-wav-data\n", string(data))

	// Only the WAV may survive the call.
	assert.Equal(t, before+1, tempArtifacts(t))
}

func TestFetchAndTranscodeFfmpegFailure(t *testing.T) {
	server := previewServer(t)
	before := tempArtifacts(t)

	// `false` exits nonzero without producing output.
	p := NewFFmpegProcessor("false", 24000)
	_, err := p.FetchAndTranscode(context.Background(), server.URL+"/preview.m4a")
	require.Error(t, err)

	var transcodeErr *errs.TranscodeError
	assert.ErrorAs(t, err, &transcodeErr)

	// Both the download and the partial WAV must be gone.
	assert.Equal(t, before, tempArtifacts(t))
}

func TestFetchAndTranscodeDownloadFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()
	before := tempArtifacts(t)

	p := NewFFmpegProcessor(fakeFFmpeg(t), 24000)
	_, err := p.FetchAndTranscode(context.Background(), server.URL+"/gone.m4a")
	require.Error(t, err)

	var upstreamErr *errs.UpstreamError
	assert.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, http.StatusNotFound, upstreamErr.Status)

	assert.Equal(t, before, tempArtifacts(t))
}

func TestFetchAndTranscodeUnreachableHost(t *testing.T) {
	before := tempArtifacts(t)

	p := NewFFmpegProcessor(fakeFFmpeg(t), 24000)
	_, err := p.FetchAndTranscode(context.Background(), "http://127.0.0.1:1/preview.m4a")
	require.Error(t, err)

	var transportErr *errs.TransportError
	assert.ErrorAs(t, err, &transportErr)

	assert.Equal(t, before, tempArtifacts(t))
}
