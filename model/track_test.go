package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinGenres(t *testing.T) {
	assert.Equal(t, "Rock, Pop", JoinGenres([]string{"Rock", "Pop"}))
	assert.Equal(t, "Jazz", JoinGenres([]string{"Jazz"}))
	assert.Equal(t, "", JoinGenres(nil))
}

func TestTrackMetadataJSON(t *testing.T) {
	meta := TrackMetadata{
		SongID:      "123",
		SongName:    "Dreams",
		AlbumName:   "Rumours",
		ArtistName:  "Fleetwood Mac",
		ReleaseDate: "1977-02-04",
		Genres:      "Rock",
	}

	raw, err := json.Marshal(meta)
	require.NoError(t, err)

	var fields map[string]string
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Equal(t, "123", fields["song_id"])
	assert.Equal(t, "Dreams", fields["song_name"])
	assert.Equal(t, "Fleetwood Mac", fields["artist_name"])
}
