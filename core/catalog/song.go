package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"musiclip/core/errs"
)

// Song is one catalog song with its attributes flattened out.
// PreviewURL is empty when the catalog has no preview for the song,
// which is a valid terminal state for the ingest pipeline.
type Song struct {
	ID          string
	Name        string
	ArtistName  string
	AlbumName   string
	ReleaseDate string
	GenreNames  []string
	PreviewURL  string
}

// SongResult tags a catalog song response. Status is 0 when the request
// never reached the API (network failure). Song is nil when the API
// returned an empty data array.
type SongResult struct {
	OK     bool
	Status int
	Song   *Song
}

// songEnvelope mirrors the catalog API response shape. Parsed once at
// the boundary; nothing downstream touches raw JSON.
type songEnvelope struct {
	Data []struct {
		ID         string         `json:"id"`
		Attributes songAttributes `json:"attributes"`
	} `json:"data"`
}

type songAttributes struct {
	Name        string   `json:"name"`
	ArtistName  string   `json:"artistName"`
	AlbumName   string   `json:"albumName"`
	ReleaseDate string   `json:"releaseDate"`
	GenreNames  []string `json:"genreNames"`
	Previews    []struct {
		URL string `json:"url"`
	} `json:"previews"`
}

func (a *songAttributes) toSong(id string) *Song {
	s := &Song{
		ID:          id,
		Name:        a.Name,
		ArtistName:  a.ArtistName,
		AlbumName:   a.AlbumName,
		ReleaseDate: a.ReleaseDate,
		GenreNames:  a.GenreNames,
	}
	if len(a.Previews) > 0 {
		s.PreviewURL = a.Previews[0].URL
	}
	return s
}

// GetSong fetches one catalog song. No retries; the caller decides what
// to do with a non-OK result.
func (c *Client) GetSong(ctx context.Context, token, songID string) (*SongResult, error) {
	url := fmt.Sprintf("%s/v1/catalog/%s/songs/%s", c.baseURL, c.storefront, songID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &errs.TransportError{Op: "get song", Cause: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &errs.TransportError{Op: "get song", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &SongResult{OK: false, Status: resp.StatusCode}, nil
	}

	var envelope songEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, &errs.TransportError{Op: "decode song response", Cause: err}
	}

	result := &SongResult{OK: true, Status: resp.StatusCode}
	if len(envelope.Data) > 0 {
		result.Song = envelope.Data[0].Attributes.toSong(envelope.Data[0].ID)
	}
	return result, nil
}
