package audio

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"time"

	"musiclip/core/errs"
	"musiclip/logger"
)

// FFmpegProcessor implements Processor using ffmpeg. The intermediate
// download never survives past FetchAndTranscode; only the transcoded
// WAV does, and only on success.
type FFmpegProcessor struct {
	ffmpegPath string
	sampleRate int
	httpClient *http.Client
}

// NewFFmpegProcessor creates a processor targeting mono WAV at sampleRate Hz.
func NewFFmpegProcessor(ffmpegPath string, sampleRate int) *FFmpegProcessor {
	return &FFmpegProcessor{
		ffmpegPath: ffmpegPath,
		sampleRate: sampleRate,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// FetchAndTranscode downloads previewURL to a temp file and converts it
// to single-channel WAV at the configured sample rate. The download is
// removed on every exit path; the partial WAV is removed on failure.
func (p *FFmpegProcessor) FetchAndTranscode(ctx context.Context, previewURL string) (string, error) {
	download, err := os.CreateTemp("", "musiclip-preview-*.m4a")
	if err != nil {
		return "", &errs.TransportError{Op: "create temp download", Cause: err}
	}
	downloadPath := download.Name()
	defer os.Remove(downloadPath)

	if err := p.fetchTo(ctx, previewURL, download); err != nil {
		download.Close()
		return "", err
	}
	if err := download.Close(); err != nil {
		return "", &errs.TransportError{Op: "write preview download", Cause: err}
	}

	wav, err := os.CreateTemp("", "musiclip-clip-*.wav")
	if err != nil {
		return "", &errs.TransportError{Op: "create temp wav", Cause: err}
	}
	wavPath := wav.Name()
	wav.Close()

	args := []string{
		"-i", downloadPath,
		"-ar", strconv.Itoa(p.sampleRate),
		"-ac", "1", // mono
		"-y",
		wavPath,
	}

	cmd := exec.CommandContext(ctx, p.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	logger.Debug("Transcoding preview",
		logger.String("url", previewURL),
		logger.Int("sampleRate", p.sampleRate),
	)

	if err := cmd.Run(); err != nil {
		os.Remove(wavPath)
		return "", &errs.TranscodeError{Stderr: stderr.String(), Cause: err}
	}

	return wavPath, nil
}

// fetchTo streams previewURL into dst.
func (p *FFmpegProcessor) fetchTo(ctx context.Context, previewURL string, dst *os.File) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, previewURL, nil)
	if err != nil {
		return &errs.TransportError{Op: "download preview", Cause: err}
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return &errs.TransportError{Op: "download preview", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &errs.UpstreamError{Op: "download preview", Status: resp.StatusCode}
	}

	if _, err := io.Copy(dst, resp.Body); err != nil {
		return &errs.TransportError{Op: "download preview", Cause: err}
	}
	return nil
}
