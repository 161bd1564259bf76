// Package oss 提供对象存储上传（阿里云 OSS / MinIO）与 data URL 解析
package oss

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// 预定义错误
var (
	ErrInvalidDataURL   = errors.New("invalid data url")
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrTooLarge         = errors.New("file too large")
)

// Config 远端存储连接参数
type Config struct {
	Endpoint        string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	UseSSL          bool
	// PublicBase 自定义访问域名，如 CDN
	PublicBase string
	// Prefix 所有对象键的公共前缀
	Prefix string
}

func (c Config) key(objectKey string) string {
	if c.Prefix == "" {
		return objectKey
	}
	return path.Join(c.Prefix, objectKey)
}

func (c Config) publicURL(fallbackBase, objectKey string) string {
	base := c.PublicBase
	if base == "" {
		base = fallbackBase
	}
	return strings.TrimSuffix(base, "/") + "/" + c.key(objectKey)
}

// Uploader 上传器接口
type Uploader interface {
	Upload(ctx context.Context, objectKey, contentType string, reader io.Reader, size int64) (string, error)
	Delete(ctx context.Context, objectKey string) error
	GetURL(objectKey string) string
}

// imageExtensions 允许的图片类型及扩展名
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Image 解码后的图片
type Image struct {
	ContentType string
	Data        []byte
}

// Ext 返回扩展名
func (i *Image) Ext() string {
	return imageExtensions[i.ContentType]
}

// IsDataURL 判断是否为 data URL
func IsDataURL(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// DecodeImageDataURL 解析 base64 图片 data URL 并校验真实类型与大小
func DecodeImageDataURL(dataURL string, maxSize int64) (*Image, error) {
	if !IsDataURL(dataURL) {
		return nil, ErrInvalidDataURL
	}
	header, payload, ok := strings.Cut(strings.TrimPrefix(dataURL, "data:"), ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return nil, ErrInvalidDataURL
	}

	declared := strings.ToLower(strings.TrimSuffix(header, ";base64"))
	if _, ok := imageExtensions[declared]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, declared)
	}

	if maxSize > 0 && int64(base64.StdEncoding.DecodedLen(len(payload))) > maxSize+2 {
		return nil, ErrTooLarge
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return nil, ErrTooLarge
	}

	return DetectImage(data)
}

// DetectImage 按文件头识别图片类型
func DetectImage(data []byte) (*Image, error) {
	detected := http.DetectContentType(data)
	if _, ok := imageExtensions[detected]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, detected)
	}
	return &Image{ContentType: detected, Data: data}, nil
}

// GenerateObjectKey 生成对象键：{prefix}/{yyyy/mm/dd}/{uuid}{ext}
func GenerateObjectKey(prefix, ext string, now time.Time) string {
	return path.Join(prefix, now.Format("2006/01/02"), uuid.NewString()+ext)
}

// UploadImage 上传解码后的图片，返回公开 URL
func UploadImage(ctx context.Context, u Uploader, prefix string, img *Image) (string, error) {
	key := GenerateObjectKey(prefix, img.Ext(), time.Now())
	return u.Upload(ctx, key, img.ContentType, bytes.NewReader(img.Data), int64(len(img.Data)))
}

// MemoryUploader 内存上传器（用于开发/测试）
type MemoryUploader struct {
	mu      sync.Mutex
	Files   map[string][]byte
	BaseURL string
	Err     error
}

// NewMemoryUploader 创建内存上传器
func NewMemoryUploader() *MemoryUploader {
	return &MemoryUploader{
		Files:   make(map[string][]byte),
		BaseURL: "https://files.example.com",
	}
}

// Upload 保存到内存
func (u *MemoryUploader) Upload(_ context.Context, objectKey, _ string, reader io.Reader, _ int64) (string, error) {
	if u.Err != nil {
		return "", u.Err
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	u.mu.Lock()
	u.Files[objectKey] = data
	u.mu.Unlock()
	return u.GetURL(objectKey), nil
}

// Delete 删除
func (u *MemoryUploader) Delete(_ context.Context, objectKey string) error {
	u.mu.Lock()
	delete(u.Files, objectKey)
	u.mu.Unlock()
	return nil
}

// GetURL 获取 URL
func (u *MemoryUploader) GetURL(objectKey string) string {
	return strings.TrimSuffix(u.BaseURL, "/") + "/" + objectKey
}

// Count 已保存文件数
func (u *MemoryUploader) Count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.Files)
}
