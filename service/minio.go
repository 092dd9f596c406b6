package service

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/AnTengye/jurieasy/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ArtifactStore keeps rendered files and hands out download links.
type ArtifactStore interface {
	SaveArtifact(ctx context.Context, objectName string, data []byte, contentType string) (string, error)
}

// MinioStore saves artifacts into a MinIO bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
	config *config.MinioConfig
}

func NewMinioStore(cfg *config.MinioConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}
	return &MinioStore{client: client, bucket: cfg.Bucket, config: cfg}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("checking bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("creating bucket %s: %w", s.bucket, err)
	}
	return nil
}

// SaveArtifact uploads data under objectName and returns a presigned
// download URL.
func (s *MinioStore) SaveArtifact(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:        contentType,
		ContentDisposition: fmt.Sprintf("attachment; filename=%q", path.Base(objectName)),
	})
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", objectName, err)
	}
	return s.PresignedURL(ctx, objectName)
}

func (s *MinioStore) PresignedURL(ctx context.Context, objectName string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, s.expiry(), nil)
	if err != nil {
		return "", fmt.Errorf("presigning %s: %w", objectName, err)
	}
	return u.String(), nil
}

func (s *MinioStore) DeleteArtifact(ctx context.Context, objectName string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("deleting %s: %w", objectName, err)
	}
	return nil
}

// PublicURL is the direct object URL, usable when the bucket is public.
func (s *MinioStore) PublicURL(objectName string) string {
	scheme := "http"
	if s.config.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.config.Endpoint, s.bucket, objectName)
}

func (s *MinioStore) expiry() time.Duration {
	days := s.config.ExpireDays
	if days <= 0 {
		days = 7
	}
	return time.Duration(days) * 24 * time.Hour
}

// ArtifactObjectName lays artifacts out as tenant/document/filename.
func ArtifactObjectName(tenant, documentID, filename string) string {
	if tenant == "" {
		tenant = "default"
	}
	return fmt.Sprintf("%s/%s/%s", tenant, documentID, filename)
}
