package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"musiclip/core/errs"
)

// TrackRef is a playlist entry: just enough to drive per-song ingestion.
type TrackRef struct {
	ID         string
	Name       string
	ArtistName string
}

// Playlist is one catalog playlist with its track list.
type Playlist struct {
	ID          string
	Name        string
	CuratorName string
	Tracks      []TrackRef
}

// PlaylistResult tags a catalog playlist response the same way SongResult does.
type PlaylistResult struct {
	OK       bool
	Status   int
	Playlist *Playlist
}

type playlistEnvelope struct {
	Data []struct {
		ID         string `json:"id"`
		Attributes struct {
			Name        string `json:"name"`
			CuratorName string `json:"curatorName"`
		} `json:"attributes"`
		Relationships struct {
			Tracks struct {
				Data []struct {
					ID         string `json:"id"`
					Attributes struct {
						Name       string `json:"name"`
						ArtistName string `json:"artistName"`
					} `json:"attributes"`
				} `json:"data"`
			} `json:"tracks"`
		} `json:"relationships"`
	} `json:"data"`
}

// GetPlaylist fetches one catalog playlist including its tracks.
func (c *Client) GetPlaylist(ctx context.Context, token, playlistID string) (*PlaylistResult, error) {
	url := fmt.Sprintf("%s/v1/catalog/%s/playlists/%s?include=tracks", c.baseURL, c.storefront, playlistID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &errs.TransportError{Op: "get playlist", Cause: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &errs.TransportError{Op: "get playlist", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &PlaylistResult{OK: false, Status: resp.StatusCode}, nil
	}

	var envelope playlistEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, &errs.TransportError{Op: "decode playlist response", Cause: err}
	}

	result := &PlaylistResult{OK: true, Status: resp.StatusCode}
	if len(envelope.Data) == 0 {
		return result, nil
	}

	raw := envelope.Data[0]
	playlist := &Playlist{
		ID:          raw.ID,
		Name:        raw.Attributes.Name,
		CuratorName: raw.Attributes.CuratorName,
	}
	for _, t := range raw.Relationships.Tracks.Data {
		playlist.Tracks = append(playlist.Tracks, TrackRef{
			ID:         t.ID,
			Name:       t.Attributes.Name,
			ArtistName: t.Attributes.ArtistName,
		})
	}
	result.Playlist = playlist
	return result, nil
}
