package oss

import (
	"context"
	"fmt"
	"io"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

// AliyunUploader 阿里云 OSS
type AliyunUploader struct {
	bucket *oss.Bucket
	cfg    Config
}

func NewAliyunUploader(cfg Config) (*AliyunUploader, error) {
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("aliyun oss client: %w", err)
	}
	bucket, err := client.Bucket(cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("aliyun oss bucket %q: %w", cfg.Bucket, err)
	}
	return &AliyunUploader{bucket: bucket, cfg: cfg}, nil
}

func (u *AliyunUploader) Upload(ctx context.Context, objectKey, contentType string, reader io.Reader, _ int64) (string, error) {
	opts := []oss.Option{oss.WithContext(ctx)}
	if contentType != "" {
		opts = append(opts, oss.ContentType(contentType))
	}
	if err := u.bucket.PutObject(u.cfg.key(objectKey), reader, opts...); err != nil {
		return "", fmt.Errorf("aliyun put %s: %w", objectKey, err)
	}
	return u.GetURL(objectKey), nil
}

func (u *AliyunUploader) Delete(ctx context.Context, objectKey string) error {
	return u.bucket.DeleteObject(u.cfg.key(objectKey), oss.WithContext(ctx))
}

// GetURL 未配置 PublicBase 时使用 bucket 子域名
func (u *AliyunUploader) GetURL(objectKey string) string {
	return u.cfg.publicURL("https://"+u.cfg.Bucket+"."+u.cfg.Endpoint, objectKey)
}
