package content

import (
	"strings"

	"golang.org/x/text/language"
)

// DefaultLocales 默认支持的语言
var DefaultLocales = []string{"en", "de", "fr", "es", "it", "nl"}

// Locales 语言解析器
type Locales struct {
	base      string
	supported []string
	tags      []language.Tag
	matcher   language.Matcher
}

// NewLocales 创建语言解析器，supported 为空时使用默认语言列表
func NewLocales(base string, supported []string) *Locales {
	if base == "" {
		base = "en"
	}
	if len(supported) == 0 {
		supported = DefaultLocales
	}
	// 基础语言放在首位作为匹配失败时的回退
	ordered := []string{base}
	for _, code := range supported {
		if code != base {
			ordered = append(ordered, code)
		}
	}
	tags := make([]language.Tag, 0, len(ordered))
	for _, code := range ordered {
		tags = append(tags, language.Make(code))
	}
	return &Locales{
		base:      base,
		supported: ordered,
		tags:      tags,
		matcher:   language.NewMatcher(tags),
	}
}

// Base 基础语言
func (l *Locales) Base() string {
	return l.base
}

// Supported 支持的语言列表（基础语言在前）
func (l *Locales) Supported() []string {
	out := make([]string, len(l.supported))
	copy(out, l.supported)
	return out
}

// IsSupported 是否为支持的语言代码（精确匹配）
func (l *Locales) IsSupported(code string) bool {
	for _, c := range l.supported {
		if c == code {
			return true
		}
	}
	return false
}

// IsBase 是否为基础语言
func (l *Locales) IsBase(code string) bool {
	return code == l.base
}

// Resolve 将任意语言标签（fr-FR、DE、Accept-Language 值）归一为支持的语言代码，无法识别时返回基础语言
func (l *Locales) Resolve(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return l.base
	}
	if l.IsSupported(strings.ToLower(raw)) {
		return strings.ToLower(raw)
	}
	tags, _, err := language.ParseAcceptLanguage(raw)
	if err != nil || len(tags) == 0 {
		return l.base
	}
	_, index, confidence := l.matcher.Match(tags...)
	if confidence == language.No {
		return l.base
	}
	return l.supported[index]
}
