// Package upload 处理客户提交的图片与后台附件上传
package upload

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"go.uber.org/zap"

	"github.com/dumeirei/helpcenter-backend/internal/common/config"
	"github.com/dumeirei/helpcenter-backend/internal/common/errors"
	"github.com/dumeirei/helpcenter-backend/pkg/oss"
)

const (
	// DefaultMaxPhotos 单次提交的图片数量上限
	DefaultMaxPhotos = 5
	// DefaultMaxPhotoSize 单张图片大小上限（5MB）
	DefaultMaxPhotoSize = 5 * 1024 * 1024
)

// NewUploader 按配置创建对象存储，inline 模式返回 nil
func NewUploader(cfg *config.OSSConfig) (oss.Uploader, error) {
	remote := oss.Config{
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKeyID,
		AccessKeySecret: cfg.AccessKeySecret,
		Bucket:          cfg.Bucket,
		UseSSL:          cfg.UseSSL,
		PublicBase:      cfg.CustomDomain,
	}
	switch strings.ToLower(cfg.Provider) {
	case "", "inline":
		return nil, nil
	case "aliyun":
		return asUploader(oss.NewAliyunUploader(remote))
	case "minio":
		return asUploader(oss.NewMinioUploader(remote))
	default:
		return nil, fmt.Errorf("unknown oss provider %q", cfg.Provider)
	}
}

// asUploader 出错时返回无类型的 nil，避免接口持有 nil 指针
func asUploader[U oss.Uploader](u U, err error) (oss.Uploader, error) {
	if err != nil {
		return nil, err
	}
	return u, nil
}

// PhotoStore 图片存储服务
//
// 未配置对象存储时图片以 data URL 原样入库；配置后上传并替换为公开 URL。
type PhotoStore struct {
	uploader  oss.Uploader
	prefix    string
	maxPhotos int
	maxSize   int64
	logger    *zap.Logger
}

// NewPhotoStore 创建图片存储服务
func NewPhotoStore(uploader oss.Uploader, cfg *config.OSSConfig, logger *zap.Logger) *PhotoStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &PhotoStore{
		uploader:  uploader,
		prefix:    "returns",
		maxPhotos: DefaultMaxPhotos,
		maxSize:   DefaultMaxPhotoSize,
		logger:    logger,
	}
	if cfg != nil {
		if cfg.UploadDir != "" {
			s.prefix = strings.Trim(cfg.UploadDir, "/")
		}
		if cfg.MaxPhotos > 0 {
			s.maxPhotos = cfg.MaxPhotos
		}
		if cfg.MaxPhotoSize > 0 {
			s.maxSize = cfg.MaxPhotoSize
		}
	}
	return s
}

// Inline 是否以内联方式保存图片
func (s *PhotoStore) Inline() bool {
	return s.uploader == nil
}

// MaxPhotos 单次提交的图片数量上限
func (s *PhotoStore) MaxPhotos() int {
	return s.maxPhotos
}

// Store 校验并保存客户提交的图片，返回可入库的引用列表
//
// 已是 http(s) 地址的条目原样保留。
func (s *PhotoStore) Store(ctx context.Context, photos []string) ([]string, error) {
	if len(photos) == 0 {
		return []string{}, nil
	}
	if len(photos) > s.maxPhotos {
		return nil, errors.ErrUploadRejected.WithMessagef("A maximum of %d photos can be attached", s.maxPhotos)
	}

	out := make([]string, 0, len(photos))
	for i, photo := range photos {
		photo = strings.TrimSpace(photo)
		if photo == "" {
			continue
		}
		if isRemoteURL(photo) {
			out = append(out, photo)
			continue
		}

		img, err := oss.DecodeImageDataURL(photo, s.maxSize)
		if err != nil {
			return nil, rejectPhoto(i, err, s.maxSize)
		}
		if s.Inline() {
			out = append(out, photo)
			continue
		}

		// 上传失败时保留原始 data URL
		url, err := oss.UploadImage(ctx, s.uploader, s.prefix, img)
		if err != nil {
			s.logger.Warn("upload photo failed, keeping inline copy", zap.Int("index", i), zap.Error(err))
			url = photo
		}
		out = append(out, url)
	}
	return out, nil
}

// UploadResult 附件上传结果
type UploadResult struct {
	URL         string `json:"url"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// UploadAttachment 上传后台回复附件（仅图片）
func (s *PhotoStore) UploadAttachment(ctx context.Context, file *multipart.FileHeader) (*UploadResult, error) {
	if file == nil {
		return nil, errors.ErrUploadRejected.WithMessage("No file provided")
	}
	if file.Size > s.maxSize {
		return nil, errors.ErrUploadRejected.WithMessagef("File exceeds %dMB", s.maxSize>>20)
	}
	if s.Inline() {
		return nil, errors.ErrUploadRejected.WithMessage("File storage is not configured")
	}

	f, err := file.Open()
	if err != nil {
		return nil, errors.ErrUploadRejected.WithMessage("Unable to read file").WithError(err)
	}
	defer f.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, io.LimitReader(f, s.maxSize+1)); err != nil {
		return nil, errors.ErrUploadRejected.WithMessage("Unable to read file").WithError(err)
	}
	if int64(buf.Len()) > s.maxSize {
		return nil, rejectPhoto(0, oss.ErrTooLarge, s.maxSize)
	}
	img, err := oss.DetectImage(buf.Bytes())
	if err != nil {
		return nil, rejectPhoto(0, err, s.maxSize)
	}

	url, err := oss.UploadImage(ctx, s.uploader, s.prefix+"/attachments", img)
	if err != nil {
		s.logger.Error("upload attachment failed", zap.String("file", file.Filename), zap.Error(err))
		return nil, errors.ErrExternalService.WithMessage("Failed to store file").WithError(err)
	}
	return &UploadResult{
		URL:         url,
		FileName:    file.Filename,
		ContentType: img.ContentType,
		Size:        int64(len(img.Data)),
	}, nil
}

func rejectPhoto(index int, err error, maxSize int64) error {
	switch {
	case stderrors.Is(err, oss.ErrTooLarge):
		return errors.ErrUploadRejected.WithMessagef("Photo %d exceeds %dMB", index+1, maxSize>>20).WithError(err)
	case stderrors.Is(err, oss.ErrUnsupportedImage):
		return errors.ErrUploadRejected.WithMessagef("Photo %d must be a JPEG, PNG, GIF or WebP image", index+1).WithError(err)
	default:
		return errors.ErrUploadRejected.WithMessagef("Photo %d is not a valid image", index+1).WithError(err)
	}
}

func isRemoteURL(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
}
