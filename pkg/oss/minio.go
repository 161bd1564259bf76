package oss

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioUploader MinIO 或其他 S3 兼容存储
type MinioUploader struct {
	client *minio.Client
	cfg    Config
}

func NewMinioUploader(cfg Config) (*MinioUploader, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.AccessKeySecret, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return &MinioUploader{client: client, cfg: cfg}, nil
}

func (u *MinioUploader) Upload(ctx context.Context, objectKey, contentType string, reader io.Reader, size int64) (string, error) {
	opts := minio.PutObjectOptions{ContentType: contentType}
	if _, err := u.client.PutObject(ctx, u.cfg.Bucket, u.cfg.key(objectKey), reader, size, opts); err != nil {
		return "", fmt.Errorf("minio put %s: %w", objectKey, err)
	}
	return u.GetURL(objectKey), nil
}

func (u *MinioUploader) Delete(ctx context.Context, objectKey string) error {
	return u.client.RemoveObject(ctx, u.cfg.Bucket, u.cfg.key(objectKey), minio.RemoveObjectOptions{})
}

// GetURL 未配置 PublicBase 时使用路径风格地址
func (u *MinioUploader) GetURL(objectKey string) string {
	scheme := "http://"
	if u.cfg.UseSSL {
		scheme = "https://"
	}
	return u.cfg.publicURL(scheme+u.cfg.Endpoint+"/"+u.cfg.Bucket, objectKey)
}
