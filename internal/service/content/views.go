package content

import (
	"time"

	"github.com/dumeirei/helpcenter-backend/internal/models"
	"github.com/dumeirei/helpcenter-backend/internal/repository"
)

// CategoryRef 文章所属分类摘要
type CategoryRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ArticleView 按语言解析后的文章
type ArticleView struct {
	ID            string       `json:"id"`
	CategoryID    string       `json:"categoryId"`
	Slug          string       `json:"slug"`
	Title         string       `json:"title"`
	Content       string       `json:"content,omitempty"`
	Excerpt       *string      `json:"excerpt,omitempty"`
	IsPopular     bool         `json:"isPopular"`
	ViewCount     int64        `json:"viewCount"`
	Locale        string       `json:"locale"`
	IsTranslated  bool         `json:"isTranslated"`
	OriginalTitle string       `json:"originalTitle,omitempty"`
	Category      *CategoryRef `json:"category,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// CategoryView 按语言解析后的分类
type CategoryView struct {
	ID           string  `json:"id"`
	Slug         string  `json:"slug"`
	Name         string  `json:"name"`
	Description  *string `json:"description,omitempty"`
	Icon         *string `json:"icon,omitempty"`
	Order        int     `json:"order"`
	ArticleCount int64   `json:"articleCount"`
	IsTranslated bool    `json:"isTranslated"`
}

// CategoryPage 分类页：分类与其已发布文章
type CategoryPage struct {
	Category CategoryView  `json:"category"`
	Articles []ArticleView `json:"articles"`
}

// ArticlePage 文章页：文章与同分类相关文章
type ArticlePage struct {
	Article ArticleView   `json:"article"`
	Related []ArticleView `json:"related"`
}

// resolveArticle 合并译文：非基础语言且存在译文时使用译文标题与正文，摘要为空时回退原文
func resolveArticle(a *models.Article, tr *models.ArticleTranslation, locale string, translate bool) ArticleView {
	view := ArticleView{
		ID:         a.ID,
		CategoryID: a.CategoryID,
		Slug:       a.Slug,
		Title:      a.Title,
		Content:    a.Content,
		Excerpt:    a.Excerpt,
		IsPopular:  a.IsPopular,
		ViewCount:  a.ViewCount,
		Locale:     a.Locale,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
	if a.Category != nil {
		view.Category = &CategoryRef{ID: a.Category.ID, Name: a.Category.Name, Slug: a.Category.Slug}
	}
	if tr != nil && translate {
		view.Title = tr.Title
		view.Content = tr.Content
		if tr.Excerpt != nil && *tr.Excerpt != "" {
			view.Excerpt = tr.Excerpt
		}
		view.Locale = locale
		view.IsTranslated = true
		view.OriginalTitle = a.Title
	}
	return view
}

// resolveCategory 合并分类译文，译文字段为空时保留原值
func resolveCategory(c *models.Category, count int64, tr *models.CategoryTranslation) CategoryView {
	view := CategoryView{
		ID:           c.ID,
		Slug:         c.Slug,
		Name:         c.Name,
		Description:  c.Description,
		Icon:         c.Icon,
		Order:        c.Order,
		ArticleCount: count,
	}
	if tr != nil {
		if tr.Name != "" {
			view.Name = tr.Name
		}
		if tr.Description != nil && *tr.Description != "" {
			view.Description = tr.Description
		}
		view.IsTranslated = true
	}
	return view
}

func categoryIDs(list []*repository.CategoryWithCount) []string {
	ids := make([]string, len(list))
	for i, c := range list {
		ids[i] = c.ID
	}
	return ids
}

func articleIDs(list []*models.Article) []string {
	ids := make([]string, len(list))
	for i, a := range list {
		ids[i] = a.ID
	}
	return ids
}

// withoutContent 列表视图不返回正文
func withoutContent(views []ArticleView) []ArticleView {
	for i := range views {
		views[i].Content = ""
	}
	return views
}
