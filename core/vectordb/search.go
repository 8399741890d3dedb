package vectordb

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"musiclip/logger"
	"musiclip/model"
)

// Match is a single search hit. Distance is cosine distance; results
// come back in ascending distance order. Tie order between equal
// distances is whatever Milvus returns.
type Match struct {
	ID       string
	Distance float64
	Meta     model.TrackMetadata
}

var metadataFields = []string{"id", "song_name", "album_name", "artist_name", "release_date", "genres"}

// Search performs ANN similarity search and returns up to k matches.
func (c *Client) Search(ctx context.Context, vector []float32, k int) ([]Match, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("empty search vector")
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	if err := c.loadCollection(ctx); err != nil {
		return nil, err
	}

	// ef should be >= k for good HNSW recall
	ef := k * 2
	if ef < 64 {
		ef = 64
	}
	sp, err := entity.NewIndexHNSWSearchParam(ef)
	if err != nil {
		return nil, fmt.Errorf("create search params: %w", err)
	}

	vectors := []entity.Vector{entity.FloatVector(vector)}

	logger.Debug("Searching collection",
		logger.String("collection", c.config.Collection),
		logger.Int("topK", k),
		logger.Int("vectorDim", len(vector)),
	)

	results, err := c.milvusClient.Search(
		ctx,
		c.config.Collection,
		nil, // partitions
		"",  // no filter
		metadataFields,
		vectors,
		"embedding",
		entity.COSINE,
		k,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", c.config.Collection, err)
	}

	var hits []Match
	for _, result := range results {
		fields := make(map[string]*entity.ColumnVarChar)
		for _, field := range result.Fields {
			if col, ok := field.(*entity.ColumnVarChar); ok {
				fields[field.Name()] = col
			}
		}

		value := func(name string, i int) string {
			col, ok := fields[name]
			if !ok {
				return ""
			}
			v, _ := col.ValueByIdx(i)
			return v
		}

		for i := 0; i < result.ResultCount; i++ {
			id := value("id", i)
			hits = append(hits, Match{
				ID: id,
				// Milvus reports COSINE scores as similarity; the rest of
				// the system speaks cosine distance.
				Distance: 1 - float64(result.Scores[i]),
				Meta: model.TrackMetadata{
					SongID:      id,
					SongName:    value("song_name", i),
					AlbumName:   value("album_name", i),
					ArtistName:  value("artist_name", i),
					ReleaseDate: value("release_date", i),
					Genres:      value("genres", i),
				},
			})
		}
	}

	logger.Debug("Search complete",
		logger.String("collection", c.config.Collection),
		logger.Int("hits", len(hits)),
	)
	return hits, nil
}
