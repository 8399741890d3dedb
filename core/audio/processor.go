package audio

import "context"

// Processor fetches a preview asset and converts it to the canonical
// clip format. The returned path is a temporary WAV the caller must
// remove after use.
type Processor interface {
	FetchAndTranscode(ctx context.Context, previewURL string) (string, error)
}
