package s3

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Storage keeps listing media in a single MinIO/S3 bucket and hands out
// path-style URLs: <endpoint>/<bucket>/<key>.
type S3Storage struct {
	client  *minio.Client
	bucket  string
	baseURL string
	logger  *logger.Logger
}

func NewS3Storage(ctx context.Context, endpoint, accessKey, secretKey, bucketName string, useSSL bool, log *logger.Logger) (*S3Storage, error) {
	log.Info("Initializing S3 MinIO Storage", "endpoint", endpoint, "bucket", bucketName, "use_ssl", useSSL)

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		log.Error("S3Storage: failed to create MinIO client", "endpoint", endpoint, "error", err)
		return nil, fmt.Errorf("failed to create minio client for endpoint %s: %w", endpoint, err)
	}

	exists, err := client.BucketExists(ctx, bucketName)
	if err != nil {
		log.Error("S3Storage: failed to check bucket", "bucket", bucketName, "error", err)
		return nil, fmt.Errorf("failed to check bucket %s: %w", bucketName, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			log.Error("S3Storage: failed to make bucket", "bucket", bucketName, "error", err)
			return nil, fmt.Errorf("failed to make bucket %s: %w", bucketName, err)
		}
		log.Info("S3Storage: bucket created", "bucket", bucketName)
	} else {
		log.Info("S3Storage: bucket already exists", "bucket", bucketName)
	}

	return newS3Storage(client, bucketName, log), nil
}

func newS3Storage(client *minio.Client, bucket string, log *logger.Logger) *S3Storage {
	return &S3Storage{
		client:  client,
		bucket:  bucket,
		baseURL: fmt.Sprintf("%s/%s/", client.EndpointURL().String(), bucket),
		logger:  log.Named("S3Storage"),
	}
}

// Put writes the object under key, replacing any existing object, and
// returns its public URL.
func (s *S3Storage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	s.logger.Debug("S3Storage.Put: uploading object", "bucket", s.bucket, "key", key, "size_bytes", size, "content_type", contentType)

	info, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		s.logger.Error("S3Storage.Put: PutObject failed", "bucket", s.bucket, "key", key, "error", err)
		return "", fmt.Errorf("failed to upload object %s to bucket %s: %w", key, s.bucket, err)
	}

	url := s.baseURL + key
	s.logger.Info("S3Storage.Put: object uploaded", "key", info.Key, "etag", info.ETag, "size_uploaded", info.Size, "url", url)
	return url, nil
}

// Delete removes the object under key. S3 deletes are idempotent, so the
// object is stat'ed first to report a missing key as domain.ErrNotFound.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("object %s: %w", key, domain.ErrNotFound)
		}
		s.logger.Error("S3Storage.Delete: StatObject failed", "bucket", s.bucket, "key", key, "error", err)
		return fmt.Errorf("failed to stat object %s: %w", key, err)
	}

	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		s.logger.Error("S3Storage.Delete: RemoveObject failed", "bucket", s.bucket, "key", key, "error", err)
		return fmt.Errorf("failed to remove object %s from bucket %s: %w", key, s.bucket, err)
	}
	s.logger.Info("S3Storage.Delete: object removed", "key", key)
	return nil
}

// KeyFromURL reverses Put's URL scheme. URLs pointing elsewhere report false.
func (s *S3Storage) KeyFromURL(url string) (string, bool) {
	return keyFromURL(s.baseURL, url)
}

func keyFromURL(baseURL, url string) (string, bool) {
	if !strings.HasPrefix(url, baseURL) {
		return "", false
	}
	key := strings.TrimPrefix(url, baseURL)
	if key == "" {
		return "", false
	}
	return key, true
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
}
