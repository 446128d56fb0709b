package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/tablevox/agent/errors"
	"github.com/tablevox/agent/pkg/config"
)

// MinIOClient is the object storage collaborator: it accepts raw audio
// payloads and hands back durable, publicly resolvable URLs.
type MinIOClient struct {
	client    *minio.Client
	bucket    string
	publicURL string // external base URL when MinIO sits behind a proxy
}

// NewMinIOClient creates a new MinIO client and ensures the bucket exists.
// Bucket initialization is retried briefly so a storage backend that comes up
// a moment after the agent does not fail the whole process.
func NewMinIOClient(cfg *config.StorageConfig) (*MinIOClient, error) {
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	client := &MinIOClient{
		client:    minioClient,
		bucket:    cfg.BucketName,
		publicURL: cfg.PublicURL,
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxElapsedTime = 30 * time.Second

	ctx := context.Background()
	ensure := func() error { return client.ensureBucketWithPolicy(ctx) }
	if err := backoff.Retry(ensure, backoff.WithContext(bo, ctx)); err != nil {
		return nil, fmt.Errorf("failed to initialize bucket: %w", err)
	}

	return client, nil
}

// ensureBucketWithPolicy ensures bucket exists and has public read policy
func (m *MinIOClient) ensureBucketWithPolicy(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		err = m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	// Public read lets the analysis service fetch uploaded audio by URL.
	policy := fmt.Sprintf(`{
		"Version": "2012-10-17",
		"Statement": [
			{
				"Effect": "Allow",
				"Principal": {"AWS": ["*"]},
				"Action": ["s3:GetObject"],
				"Resource": ["arn:aws:s3:::%s/*"]
			}
		]
	}`, m.bucket)

	if err := m.client.SetBucketPolicy(ctx, m.bucket, policy); err != nil {
		return fmt.Errorf("failed to set bucket policy: %w", err)
	}

	return nil
}

// UploadAudio uploads one recording payload under the owning restaurant's
// prefix and returns its durable URL.
func (m *MinIOClient) UploadAudio(ctx context.Context, restaurantID, recordingID string, data []byte, contentType string) (string, error) {
	objectName := fmt.Sprintf("%s/%s.wav", restaurantID, recordingID)

	_, err := m.client.PutObject(ctx, m.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", errors.ErrStorageFailed("upload", err)
	}

	return m.objectURL(objectName), nil
}

// objectURL builds the publicly resolvable URL for an object. When a public
// base URL is configured (MinIO behind a reverse proxy) it takes precedence
// over the raw endpoint.
func (m *MinIOClient) objectURL(objectName string) string {
	if m.publicURL != "" {
		return fmt.Sprintf("%s/%s/%s", m.publicURL, m.bucket, objectName)
	}
	return fmt.Sprintf("%s/%s/%s", m.client.EndpointURL().String(), m.bucket, objectName)
}
