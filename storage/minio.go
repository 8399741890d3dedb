// Package storage holds the MinIO-backed clip store.
package storage

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"musiclip/config"
	"musiclip/core/errs"
	"musiclip/logger"
)

const clipContentType = "audio/wav"

// ClipStore uploads canonical clip WAVs keyed by song ID.
type ClipStore struct {
	client *minio.Client
	bucket string
}

// NewClipStore connects to MinIO using the configured endpoint and credentials.
func NewClipStore(cfg *config.Config) (*ClipStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, &errs.ConfigurationError{Msg: "creating MinIO client", Cause: err}
	}

	return &ClipStore{
		client: client,
		bucket: cfg.MinioBucket,
	}, nil
}

// Bucket returns the configured bucket name.
func (s *ClipStore) Bucket() string {
	return s.bucket
}

// ObjectName is the storage key for a song's clip.
func (s *ClipStore) ObjectName(songID string) string {
	return songID + ".wav"
}

// EnsureBucket creates the clip bucket if it does not exist yet.
func (s *ClipStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return &errs.TransportError{Op: "check bucket", Cause: err}
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return &errs.TransportError{Op: "create bucket", Cause: err}
	}
	logger.Info("Created clip bucket", logger.String("bucket", s.bucket))
	return nil
}

// PutClip uploads the WAV at wavPath under <songID>.wav, overwriting any
// existing object at that key. Returns the object name.
func (s *ClipStore) PutClip(ctx context.Context, songID, wavPath string) (string, error) {
	objectName := s.ObjectName(songID)

	_, err := s.client.FPutObject(ctx, s.bucket, objectName, wavPath, minio.PutObjectOptions{
		ContentType: clipContentType,
	})
	if err != nil {
		return "", &errs.TransportError{Op: fmt.Sprintf("upload %s", objectName), Cause: err}
	}

	return objectName, nil
}

// ClipInfo describes one stored clip object.
type ClipInfo struct {
	Name string
	Size int64
}

// ListClips lists objects under the given prefix.
func (s *ClipStore) ListClips(ctx context.Context, prefix string) ([]ClipInfo, error) {
	var clips []ClipInfo
	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if object.Err != nil {
			return nil, &errs.TransportError{Op: "list clips", Cause: object.Err}
		}
		clips = append(clips, ClipInfo{Name: object.Key, Size: object.Size})
	}
	return clips, nil
}

// Stats returns the object count and total size under the given prefix.
func (s *ClipStore) Stats(ctx context.Context, prefix string) (count int, totalSize int64, err error) {
	clips, err := s.ListClips(ctx, prefix)
	if err != nil {
		return 0, 0, err
	}
	for _, c := range clips {
		totalSize += c.Size
	}
	return len(clips), totalSize, nil
}
