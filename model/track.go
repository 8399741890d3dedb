package model

import "strings"

// TrackMetadata is the flat metadata stored alongside each embedding in
// the vector index and echoed back in query results. Genres is a
// comma-joined string so the whole struct stays string-valued.
type TrackMetadata struct {
	SongID      string `json:"song_id"`
	SongName    string `json:"song_name"`
	AlbumName   string `json:"album_name"`
	ArtistName  string `json:"artist_name"`
	ReleaseDate string `json:"release_date"`
	Genres      string `json:"genres"`
}

// JoinGenres renders a genre list the way the index stores it.
func JoinGenres(genres []string) string {
	return strings.Join(genres, ", ")
}
