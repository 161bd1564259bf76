package models

import (
	"time"

	"gorm.io/gorm"
)

// Category 知识库分类
type Category struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name        string    `gorm:"type:varchar(200);not null" json:"name"`
	Slug        string    `gorm:"type:varchar(200);uniqueIndex;not null" json:"slug"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	Icon        *string   `gorm:"type:varchar(50)" json:"icon,omitempty"`
	Order       int       `gorm:"column:sort_order;not null;default:0;index" json:"order"`
	IsActive    bool      `gorm:"not null" json:"isActive"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	// 关联
	Articles     []Article             `gorm:"foreignKey:CategoryID" json:"articles,omitempty"`
	Translations []CategoryTranslation `gorm:"foreignKey:CategoryID" json:"translations,omitempty"`
}

// TableName 表名
func (Category) TableName() string {
	return "categories"
}

// BeforeCreate 生成主键
func (c *Category) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = newID()
	}
	return nil
}

// Article 知识库文章
type Article struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CategoryID  string    `gorm:"type:varchar(36);not null;index" json:"categoryId"`
	Title       string    `gorm:"type:varchar(500);not null" json:"title"`
	Slug        string    `gorm:"type:varchar(300);uniqueIndex;not null" json:"slug"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	Excerpt     *string   `gorm:"type:text" json:"excerpt,omitempty"`
	IsPopular   bool      `gorm:"not null;default:false;index" json:"isPopular"`
	IsPublished bool      `gorm:"not null;index" json:"isPublished"`
	ViewCount   int64     `gorm:"not null;default:0" json:"viewCount"`
	Locale      string    `gorm:"type:varchar(10);not null;default:'en'" json:"locale"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime;index" json:"updatedAt"`

	// 关联
	Category     *Category            `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Translations []ArticleTranslation `gorm:"foreignKey:ArticleID" json:"translations,omitempty"`
}

// TableName 表名
func (Article) TableName() string {
	return "articles"
}

// BeforeCreate 生成主键
func (a *Article) BeforeCreate(*gorm.DB) error {
	if a.ID == "" {
		a.ID = newID()
	}
	return nil
}

// ArticleTranslation 文章译文，(article_id, locale) 唯一
type ArticleTranslation struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ArticleID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_article_translation_locale" json:"articleId"`
	Locale    string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_article_translation_locale" json:"locale"`
	Title     string    `gorm:"type:varchar(500);not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Excerpt   *string   `gorm:"type:text" json:"excerpt,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 表名
func (ArticleTranslation) TableName() string {
	return "article_translations"
}

// BeforeCreate 生成主键
func (t *ArticleTranslation) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = newID()
	}
	return nil
}

// CategoryTranslation 分类译文，(category_id, locale) 唯一
type CategoryTranslation struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CategoryID  string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_category_translation_locale" json:"categoryId"`
	Locale      string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_category_translation_locale" json:"locale"`
	Name        string    `gorm:"type:varchar(200);not null" json:"name"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 表名
func (CategoryTranslation) TableName() string {
	return "category_translations"
}

// BeforeCreate 生成主键
func (t *CategoryTranslation) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = newID()
	}
	return nil
}

// TranslationType 译文归属类型
const (
	TranslationTypeArticle  = "article"
	TranslationTypeCategory = "category"
)
