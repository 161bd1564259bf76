// Package oss 对象存储单元测试
package oss

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngHeader 最小 PNG 文件头，足以通过类型探测
var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}

func pngDataURL() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngHeader)
}

func TestDecodeImageDataURL(t *testing.T) {
	img, err := DecodeImageDataURL(pngDataURL(), 1024)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, ".png", img.Ext())
	assert.Equal(t, pngHeader, img.Data)
}

func TestDecodeImageDataURL_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int64
		want  error
	}{
		{"plain url", "https://cdn.example.com/a.png", 0, ErrInvalidDataURL},
		{"not base64", "data:image/png,abc", 0, ErrInvalidDataURL},
		{"pdf", "data:application/pdf;base64,JVBERi0=", 0, ErrUnsupportedImage},
		{"lying mime", "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("hello world")), 0, ErrUnsupportedImage},
		{"too large", pngDataURL(), 4, ErrTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeImageDataURL(tt.input, tt.max)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGenerateObjectKey(t *testing.T) {
	now := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	key := GenerateObjectKey("returns", ".png", now)

	assert.True(t, strings.HasPrefix(key, "returns/2026/03/09/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.NotEqual(t, key, GenerateObjectKey("returns", ".png", now))
}

func TestUploadImage_MemoryUploader(t *testing.T) {
	uploader := NewMemoryUploader()
	img, err := DecodeImageDataURL(pngDataURL(), 0)
	require.NoError(t, err)

	url, err := UploadImage(context.Background(), uploader, "returns", img)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://files.example.com/returns/"))
	assert.Equal(t, 1, uploader.Count())
}

func TestObjectURLs(t *testing.T) {
	aliyun := &AliyunUploader{cfg: Config{Bucket: "subcold", Endpoint: "oss-eu-west-1.aliyuncs.com", Prefix: "help"}}
	assert.Equal(t, "https://subcold.oss-eu-west-1.aliyuncs.com/help/a.png", aliyun.GetURL("a.png"))

	minio := &MinioUploader{cfg: Config{Endpoint: "localhost:9000", Bucket: "photos"}}
	assert.Equal(t, "http://localhost:9000/photos/a.png", minio.GetURL("a.png"))

	minio.cfg.UseSSL = true
	assert.Equal(t, "https://localhost:9000/photos/a.png", minio.GetURL("a.png"))

	minio.cfg.PublicBase = "https://cdn.subcold.com/"
	assert.Equal(t, "https://cdn.subcold.com/a.png", minio.GetURL("a.png"))
}
