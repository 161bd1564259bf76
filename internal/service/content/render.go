package content

import (
	"bytes"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// 文章内容格式
const (
	FormatHTML     = "html"
	FormatMarkdown = "markdown"
)

var (
	markdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)
	articlePolicy = newArticlePolicy()
)

func newArticlePolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").OnElements("div", "span", "p", "code", "pre", "table")
	p.AllowAttrs("target").Matching(bluemonday.SpaceSeparatedTokens).OnElements("a")
	return p
}

// RenderContent 按格式渲染文章正文并过滤不安全标签
func RenderContent(content, format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatHTML:
		return articlePolicy.Sanitize(content), nil
	case FormatMarkdown, "md":
		var buf bytes.Buffer
		if err := markdown.Convert([]byte(content), &buf); err != nil {
			return "", err
		}
		return articlePolicy.Sanitize(buf.String()), nil
	default:
		return "", errUnknownFormat(format)
	}
}

type errUnknownFormat string

func (e errUnknownFormat) Error() string {
	return "unknown content format: " + string(e)
}
