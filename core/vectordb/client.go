// Package vectordb provides the Milvus-backed music embedding index.
package vectordb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"musiclip/logger"
)

// Config holds Milvus connection settings.
type Config struct {
	URI        string // server URI, e.g. http://localhost:19530
	Collection string
	Dim        int // embedding dimension
	Timeout    time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		URI:        "http://localhost:19530",
		Collection: "music_embeddings",
		Dim:        512,
		Timeout:    30 * time.Second,
	}
}

// Client wraps the Milvus SDK client for the music embedding collection.
// The collection is always created in COSINE metric space, so distances
// reported by this package are cosine distances (1 - cosine similarity).
type Client struct {
	config       Config
	milvusClient client.Client
	mu           sync.RWMutex
	loaded       bool
}

// NewClient connects to Milvus.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.URI == "" {
		cfg = DefaultConfig()
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultConfig().Collection
	}

	logger.Info("Connecting to Milvus", logger.String("uri", cfg.URI))

	c, err := client.NewClient(ctx, client.Config{
		Address: cfg.URI,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to milvus at %s: %w", cfg.URI, err)
	}

	return &Client{
		config:       cfg,
		milvusClient: c,
	}, nil
}

// Close releases the Milvus connection.
func (c *Client) Close() error {
	if c.milvusClient != nil {
		return c.milvusClient.Close()
	}
	return nil
}

// Collection returns the collection name this client operates on.
func (c *Client) Collection() string {
	return c.config.Collection
}

// Dim returns the configured embedding dimension.
func (c *Client) Dim() int {
	return c.config.Dim
}

// EnsureCollection creates the embedding collection if it does not
// exist, with an HNSW index in COSINE metric space.
func (c *Client) EnsureCollection(ctx context.Context) error {
	name := c.config.Collection

	exists, err := c.milvusClient.HasCollection(ctx, name)
	if err != nil {
		return fmt.Errorf("check collection %s: %w", name, err)
	}
	if exists {
		logger.Debug("Collection already exists", logger.String("collection", name))
		return nil
	}

	logger.Info("Creating collection",
		logger.String("collection", name),
		logger.Int("dimension", c.config.Dim),
	)

	schema := c.buildSchema(name, c.config.Dim)
	if err := c.milvusClient.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		return fmt.Errorf("create collection %s: %w", name, err)
	}

	if err := c.createIndex(ctx, name); err != nil {
		return fmt.Errorf("create index for %s: %w", name, err)
	}

	return nil
}

// buildSchema constructs the collection schema: song id primary key,
// embedding vector, and the flat string metadata fields.
func (c *Client) buildSchema(name string, dim int) *entity.Schema {
	varchar := func(fieldName string, maxLength int) *entity.Field {
		return &entity.Field{
			Name:     fieldName,
			DataType: entity.FieldTypeVarChar,
			TypeParams: map[string]string{
				"max_length": fmt.Sprintf("%d", maxLength),
			},
		}
	}

	idField := varchar("id", 64)
	idField.PrimaryKey = true

	return &entity.Schema{
		CollectionName: name,
		AutoID:         false,
		Fields: []*entity.Field{
			idField,
			{
				Name:     "embedding",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": fmt.Sprintf("%d", dim),
				},
			},
			varchar("song_name", 512),
			varchar("album_name", 512),
			varchar("artist_name", 512),
			varchar("release_date", 64),
			varchar("genres", 1024),
		},
	}
}

// createIndex creates an HNSW index on the embedding field. COSINE is
// deliberate: the query service reports 1 - distance as similarity,
// which is only meaningful in cosine space.
func (c *Client) createIndex(ctx context.Context, name string) error {
	idx, err := entity.NewIndexHNSW(entity.COSINE, 50, 250)
	if err != nil {
		return fmt.Errorf("create HNSW index params: %w", err)
	}

	if err := c.milvusClient.CreateIndex(ctx, name, "embedding", idx, false); err != nil {
		return fmt.Errorf("create index on %s.embedding: %w", name, err)
	}
	return nil
}

// loadCollection loads the collection into memory if not already loaded.
func (c *Client) loadCollection(ctx context.Context) error {
	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()

	if loaded {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded {
		return nil
	}

	if err := c.milvusClient.LoadCollection(ctx, c.config.Collection, false); err != nil {
		return fmt.Errorf("load collection %s: %w", c.config.Collection, err)
	}

	c.loaded = true
	return nil
}

// flush persists pending writes.
func (c *Client) flush(ctx context.Context) error {
	if err := c.milvusClient.Flush(ctx, c.config.Collection, false); err != nil {
		return fmt.Errorf("flush collection %s: %w", c.config.Collection, err)
	}
	return nil
}
