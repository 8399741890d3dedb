package vectordb

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"musiclip/core/errs"
	"musiclip/logger"
	"musiclip/model"
)

// Record is one indexed song: primary key, embedding, flat metadata.
type Record struct {
	ID        string
	Embedding []float32
	Meta      model.TrackMetadata
}

// Exists reports whether a record with the given song id is present.
func (c *Client) Exists(ctx context.Context, id string) (bool, error) {
	if err := c.loadCollection(ctx); err != nil {
		return false, err
	}

	results, err := c.milvusClient.Query(ctx, c.config.Collection, nil, idFilter(id), []string{"id"})
	if err != nil {
		return false, fmt.Errorf("query %s: %w", c.config.Collection, err)
	}

	for _, col := range results {
		if col.Name() == "id" {
			return col.Len() > 0, nil
		}
	}
	return false, nil
}

// Upsert removes any existing record with the same id, then inserts the
// new one. This keeps the at-most-one-record-per-id invariant without
// relying on engine-specific upsert behavior.
func (c *Client) Upsert(ctx context.Context, rec Record) error {
	if len(rec.Embedding) != c.config.Dim {
		return fmt.Errorf("embedding dimension mismatch for %s: got %d, expected %d",
			rec.ID, len(rec.Embedding), c.config.Dim)
	}

	if err := c.loadCollection(ctx); err != nil {
		return err
	}

	if err := c.milvusClient.Delete(ctx, c.config.Collection, "", idFilter(rec.ID)); err != nil {
		return fmt.Errorf("delete prior record %s: %w", rec.ID, err)
	}

	columns := []entity.Column{
		entity.NewColumnVarChar("id", []string{rec.ID}),
		entity.NewColumnFloatVector("embedding", c.config.Dim, [][]float32{rec.Embedding}),
		entity.NewColumnVarChar("song_name", []string{rec.Meta.SongName}),
		entity.NewColumnVarChar("album_name", []string{rec.Meta.AlbumName}),
		entity.NewColumnVarChar("artist_name", []string{rec.Meta.ArtistName}),
		entity.NewColumnVarChar("release_date", []string{rec.Meta.ReleaseDate}),
		entity.NewColumnVarChar("genres", []string{rec.Meta.Genres}),
	}

	logger.Debug("Upserting record",
		logger.String("collection", c.config.Collection),
		logger.String("id", rec.ID),
	)

	if _, err := c.milvusClient.Insert(ctx, c.config.Collection, "", columns...); err != nil {
		return fmt.Errorf("insert %s: %w", rec.ID, err)
	}

	return c.flush(ctx)
}

// GetVector returns the stored embedding for a song id, or NotFoundError.
func (c *Client) GetVector(ctx context.Context, id string) ([]float32, error) {
	if err := c.loadCollection(ctx); err != nil {
		return nil, err
	}

	results, err := c.milvusClient.Query(ctx, c.config.Collection, nil, idFilter(id), []string{"id", "embedding"})
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", c.config.Collection, err)
	}

	for _, col := range results {
		if col.Name() != "embedding" {
			continue
		}
		embCol, ok := col.(*entity.ColumnFloatVector)
		if !ok || embCol.Len() == 0 {
			break
		}
		return embCol.Data()[0], nil
	}

	return nil, &errs.NotFoundError{Kind: "record", ID: id}
}

// Count returns the number of records in the collection.
func (c *Client) Count(ctx context.Context) (int64, error) {
	stats, err := c.milvusClient.GetCollectionStatistics(ctx, c.config.Collection)
	if err != nil {
		return 0, fmt.Errorf("get collection stats: %w", err)
	}

	rowCount, ok := stats["row_count"]
	if !ok {
		return 0, nil
	}
	count, err := strconv.ParseInt(rowCount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse row count %q: %w", rowCount, err)
	}
	return count, nil
}

// idFilter builds the boolean expression matching one song id.
func idFilter(id string) string {
	escaped := strings.ReplaceAll(id, "'", "\\'")
	return fmt.Sprintf("id == '%s'", escaped)
}
