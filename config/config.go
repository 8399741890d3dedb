package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config stores the application configuration. Everything credential-like
// comes from the environment; nothing is hardcoded here.
type Config struct {
	// Apple Music API
	AppleKeyID   string
	AppleTeamID  string
	AppleKeyPath string
	Storefront   string

	// Audio processing
	FFmpegPath string
	SampleRate int // target sample rate for clip WAVs, Hz

	// MinIO object store
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool

	// Milvus vector index
	MilvusURI        string
	MilvusCollection string
	EmbeddingDim     int

	// Embedding server
	EmbeddingServerURL string

	// Query service
	ServerPort   string
	AudioBaseURL string // public base URL for clip audio, e.g. https://bucket.s3.amazonaws.com

	// Redis (optional, query-side embedding cache)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// MySQL ingest ledger (optional)
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Logging
	LogLevel string
	LogPath  string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}

	return &Config{
		AppleKeyID:   os.Getenv("APPLE_KEY_ID"),
		AppleTeamID:  os.Getenv("APPLE_TEAM_ID"),
		AppleKeyPath: getEnv("APPLE_KEY_PATH", "/secrets/apple_music_key.p8"),
		Storefront:   getEnv("STOREFRONT", "us"),

		FFmpegPath: getEnv("FFMPEG_PATH", "ffmpeg"),
		SampleRate: getEnvInt("SAMPLE_RATE", 24000),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
		MinioBucket:    getEnv("MINIO_BUCKET", "music-clips"),
		MinioRegion:    getEnv("MINIO_REGION", ""),
		MinioUseSSL:    getEnvBool("MINIO_SECURE", false),

		MilvusURI:        getEnv("MILVUS_URI", "http://localhost:19530"),
		MilvusCollection: getEnv("MILVUS_COLLECTION", "music_embeddings"),
		EmbeddingDim:     getEnvInt("EMBEDDING_DIM", 512),

		EmbeddingServerURL: getEnv("EMBEDDING_SERVER_URL", "http://localhost:8080"),

		ServerPort:   getEnv("SERVER_PORT", "8081"),
		AudioBaseURL: getEnv("AUDIO_BASE_URL", "http://localhost:9000/music-clips"),

		RedisAddr:     os.Getenv("REDIS_ADDR"), // empty disables the embedding cache
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		DBHost:     os.Getenv("DB_HOST"), // empty disables the ingest ledger
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "musiclip"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogPath:  getEnv("LOG_PATH", ""),
	}
}
