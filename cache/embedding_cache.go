// Package cache holds the optional Redis-backed text embedding cache
// used by the query service. Identical text queries hit the embedding
// server once per TTL window.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"musiclip/config"
)

const embeddingTTL = 24 * time.Hour

// EmbeddingCache caches text-query embeddings keyed by content hash.
type EmbeddingCache struct {
	client *redis.Client
}

// NewEmbeddingCache connects to Redis and verifies the connection.
func NewEmbeddingCache(cfg *config.Config) (*EmbeddingCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &EmbeddingCache{client: client}, nil
}

// Close releases the Redis connection.
func (c *EmbeddingCache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// TextKey builds the cache key for a text query.
func TextKey(text string) string {
	sum := sha1.Sum([]byte(text))
	return "musiclip:embed:text:" + hex.EncodeToString(sum[:])
}

// GetText returns the cached embedding for a text query, or (nil, false)
// on a miss. Cache failures degrade to misses.
func (c *EmbeddingCache) GetText(ctx context.Context, text string) ([]float32, bool) {
	raw, err := c.client.Get(ctx, TextKey(text)).Result()
	if err != nil {
		return nil, false
	}

	var embedding []float32
	if err := json.Unmarshal([]byte(raw), &embedding); err != nil {
		return nil, false
	}
	return embedding, true
}

// PutText stores the embedding for a text query. Best effort; errors are
// returned so the caller can log them but a failed put is harmless.
func (c *EmbeddingCache) PutText(ctx context.Context, text string, embedding []float32) error {
	raw, err := json.Marshal(embedding)
	if err != nil {
		return fmt.Errorf("marshal embedding: %w", err)
	}
	return c.client.Set(ctx, TextKey(text), raw, embeddingTTL).Err()
}
