package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "us", cfg.Storefront)
	assert.Equal(t, "ffmpeg", cfg.FFmpegPath)
	assert.Equal(t, 24000, cfg.SampleRate)
	assert.Equal(t, "localhost:9000", cfg.MinioEndpoint)
	assert.Equal(t, "music-clips", cfg.MinioBucket)
	assert.False(t, cfg.MinioUseSSL)
	assert.Equal(t, "http://localhost:19530", cfg.MilvusURI)
	assert.Equal(t, "music_embeddings", cfg.MilvusCollection)
	assert.Equal(t, 512, cfg.EmbeddingDim)
	assert.Equal(t, "8081", cfg.ServerPort)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STOREFRONT", "gb")
	t.Setenv("SAMPLE_RATE", "48000")
	t.Setenv("MINIO_SECURE", "true")
	t.Setenv("MILVUS_COLLECTION", "test_embeddings")
	t.Setenv("EMBEDDING_DIM", "1024")

	cfg := Load()

	assert.Equal(t, "gb", cfg.Storefront)
	assert.Equal(t, 48000, cfg.SampleRate)
	assert.True(t, cfg.MinioUseSSL)
	assert.Equal(t, "test_embeddings", cfg.MilvusCollection)
	assert.Equal(t, 1024, cfg.EmbeddingDim)
}

func TestLoadIgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("SAMPLE_RATE", "not-a-number")

	cfg := Load()

	assert.Equal(t, 24000, cfg.SampleRate)
}
