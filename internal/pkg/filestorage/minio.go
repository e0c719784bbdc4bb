package filestorage

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/yigit/schoolyard/internal/pkg/logger"
)

// MinioConfig holds the connection settings for MinioStorage
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL, when set, replaces the endpoint in returned URLs.
	PublicURL string
}

// MinioStorage stores files in a MinIO / S3 compatible bucket
type MinioStorage struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewMinioStorage connects to the endpoint and makes sure the bucket exists
func NewMinioStorage(ctx context.Context, cfg MinioConfig) (*MinioStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
		logger.Info().Str("bucket", cfg.Bucket).Msg("Created storage bucket")
	}

	baseURL := cfg.PublicURL
	if baseURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}

	return &MinioStorage{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// SaveFile implements FileStorage
func (ms *MinioStorage) SaveFile(ctx context.Context, fileHeader *multipart.FileHeader, dir string) (string, error) {
	ext, err := ImageExtension(fileHeader)
	if err != nil {
		return "", err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	name := objectName(dir, ext)
	_, err = ms.client.PutObject(ctx, ms.bucket, name, file, fileHeader.Size, minio.PutObjectOptions{
		ContentType: fileHeader.Header.Get("Content-Type"),
	})
	if err != nil {
		logger.Error().Err(err).Str("bucket", ms.bucket).Str("object", name).Msg("Failed to upload object")
		return "", fmt.Errorf("failed to upload object: %w", err)
	}

	url := ms.baseURL + "/" + name
	logger.Info().Str("filename", fileHeader.Filename).Str("url", url).Msg("File uploaded successfully")
	return url, nil
}

// DeleteFile implements FileStorage
func (ms *MinioStorage) DeleteFile(ctx context.Context, fileURL string) error {
	name := strings.TrimPrefix(fileURL, ms.baseURL+"/")
	if name == fileURL || name == "" {
		return fmt.Errorf("invalid file path: %s", fileURL)
	}
	if err := ms.client.RemoveObject(ctx, ms.bucket, name, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}
