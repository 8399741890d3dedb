// Package embed is the HTTP client for the embedding inference server.
package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"musiclip/core/errs"
)

const (
	textTimeout  = 30 * time.Second
	audioTimeout = 60 * time.Second
)

// Client talks to the embedding server. Audio embedding uploads a WAV
// and runs the slow model path, so it gets its own longer timeout.
type Client struct {
	baseURL     string
	textClient  *http.Client
	audioClient *http.Client
}

// NewClient creates an embedding client for the given server URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:     baseURL,
		textClient:  &http.Client{Timeout: textTimeout},
		audioClient: &http.Client{Timeout: audioTimeout},
	}
}

// SetTimeout overrides both request timeouts.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.textClient.Timeout = timeout
	c.audioClient.Timeout = timeout
}

type embeddingResponse struct {
	Embedding []float32 `json:"embedding"`
	Dimension int       `json:"dimension"`
}

type batchEmbeddingResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Dimension  int         `json:"dimension"`
	Count      int         `json:"count"`
}

// EmbedText returns the embedding vector for a text query.
func (c *Client) EmbedText(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, &errs.TransportError{Op: "embed text", Cause: err}
	}

	var result embeddingResponse
	if err := c.postJSON(ctx, "/embed/text", body, &result); err != nil {
		return nil, err
	}
	return result.Embedding, nil
}

// EmbedTextBatch returns one embedding per input text, in input order.
// A failure on the server side fails the whole batch; there is no
// partial success.
func (c *Client) EmbedTextBatch(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(map[string][]string{"texts": texts})
	if err != nil {
		return nil, &errs.TransportError{Op: "embed text batch", Cause: err}
	}

	var result batchEmbeddingResponse
	if err := c.postJSON(ctx, "/embed/text/batch", body, &result); err != nil {
		return nil, err
	}
	if len(result.Embeddings) != len(texts) {
		return nil, &errs.UpstreamError{
			Op:     "embed text batch",
			Status: http.StatusOK,
			Body:   fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(result.Embeddings)),
		}
	}
	return result.Embeddings, nil
}

// EmbedAudio uploads the WAV at wavPath and returns its embedding vector.
func (c *Client) EmbedAudio(ctx context.Context, wavPath string) ([]float32, error) {
	file, err := os.Open(wavPath)
	if err != nil {
		return nil, &errs.TransportError{Op: "open clip for embedding", Cause: err}
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(wavPath))
	if err != nil {
		return nil, &errs.TransportError{Op: "embed audio", Cause: err}
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, &errs.TransportError{Op: "embed audio", Cause: err}
	}
	if err := writer.Close(); err != nil {
		return nil, &errs.TransportError{Op: "embed audio", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embed/audio", &buf)
	if err != nil {
		return nil, &errs.TransportError{Op: "embed audio", Cause: err}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.audioClient.Do(req)
	if err != nil {
		return nil, &errs.TransportError{Op: "embed audio", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, upstreamError("embed audio", resp)
	}

	var result embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &errs.TransportError{Op: "decode embedding response", Cause: err}
	}
	return result.Embedding, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body []byte, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return &errs.TransportError{Op: "post " + path, Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.textClient.Do(req)
	if err != nil {
		return &errs.TransportError{Op: "post " + path, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return upstreamError("post "+path, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &errs.TransportError{Op: "decode " + path + " response", Cause: err}
	}
	return nil
}

func upstreamError(op string, resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &errs.UpstreamError{Op: op, Status: resp.StatusCode, Body: string(snippet)}
}
