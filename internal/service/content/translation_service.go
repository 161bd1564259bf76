package content

import (
	"context"
	stderrors "errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/helpcenter-backend/internal/common/errors"
	"github.com/dumeirei/helpcenter-backend/internal/common/utils"
	"github.com/dumeirei/helpcenter-backend/internal/models"
)

// TranslationRequest 新增或覆盖译文
//
// 文章译文使用 Title/Content/Excerpt，分类译文使用 Name/Description
type TranslationRequest struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	Format      string `json:"format" binding:"omitempty,oneof=html markdown md"`
	Excerpt     string `json:"excerpt"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// checkTranslationLocale 译文语言必须受支持且不能是基础语言
func (s *Service) checkTranslationLocale(locale string) error {
	if !s.locales.IsSupported(locale) {
		return errors.ErrUnsupportedLocale.WithMessagef("Unsupported locale: %s", locale)
	}
	if s.locales.IsBase(locale) {
		return errors.ErrUnsupportedLocale.WithMessagef("%s is the base locale and cannot be translated", locale)
	}
	return nil
}

func checkTranslationType(kind string) error {
	switch kind {
	case models.TranslationTypeArticle, models.TranslationTypeCategory:
		return nil
	}
	return errors.ErrValidation.WithMessagef("Invalid translation type: %s", kind)
}

// ListTranslations 列出文章或分类的全部译文
func (s *Service) ListTranslations(ctx context.Context, kind, id string) (interface{}, error) {
	if err := checkTranslationType(kind); err != nil {
		return nil, err
	}
	if kind == models.TranslationTypeArticle {
		if _, err := s.GetArticle(ctx, id); err != nil {
			return nil, err
		}
		list, err := s.translations.ListArticleTranslations(ctx, id)
		if err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		return list, nil
	}

	if _, err := s.GetCategory(ctx, id); err != nil {
		return nil, err
	}
	list, err := s.translations.ListCategoryTranslations(ctx, id)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return list, nil
}

// UpsertTranslation 按 (类型, ID, 语言) 新增或覆盖译文
func (s *Service) UpsertTranslation(ctx context.Context, kind, id, locale string, req *TranslationRequest) (interface{}, error) {
	if err := checkTranslationType(kind); err != nil {
		return nil, err
	}
	locale = strings.ToLower(strings.TrimSpace(locale))
	if err := s.checkTranslationLocale(locale); err != nil {
		return nil, err
	}

	var (
		out interface{}
		err error
	)
	if kind == models.TranslationTypeArticle {
		out, err = s.upsertArticleTranslation(ctx, id, locale, req)
	} else {
		out, err = s.upsertCategoryTranslation(ctx, id, locale, req)
	}
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	s.logger.Info("translation saved",
		zap.String("type", kind),
		zap.String("target_id", id),
		zap.String("locale", locale),
	)
	return out, nil
}

func (s *Service) upsertArticleTranslation(ctx context.Context, id, locale string, req *TranslationRequest) (*models.ArticleTranslation, error) {
	if _, err := s.GetArticle(ctx, id); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" || strings.TrimSpace(req.Content) == "" {
		return nil, errors.ErrValidation.WithMessage("Title and content are required")
	}
	body, err := render(req.Content, req.Format)
	if err != nil {
		return nil, err
	}
	saved, err := s.translations.UpsertArticleTranslation(ctx, &models.ArticleTranslation{
		ArticleID: id,
		Locale:    locale,
		Title:     title,
		Content:   body,
		Excerpt:   utils.NilIfEmpty(req.Excerpt),
	})
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return saved, nil
}

func (s *Service) upsertCategoryTranslation(ctx context.Context, id, locale string, req *TranslationRequest) (*models.CategoryTranslation, error) {
	if _, err := s.GetCategory(ctx, id); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errors.ErrValidation.WithMessage("Name is required")
	}
	saved, err := s.translations.UpsertCategoryTranslation(ctx, &models.CategoryTranslation{
		CategoryID:  id,
		Locale:      locale,
		Name:        name,
		Description: utils.NilIfEmpty(req.Description),
	})
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return saved, nil
}

// DeleteTranslation 删除译文
func (s *Service) DeleteTranslation(ctx context.Context, kind, id, locale string) error {
	if err := checkTranslationType(kind); err != nil {
		return err
	}
	locale = strings.ToLower(strings.TrimSpace(locale))

	var (
		deleted bool
		err     error
	)
	if kind == models.TranslationTypeArticle {
		deleted, err = s.translations.DeleteArticleTranslation(ctx, id, locale)
	} else {
		deleted, err = s.translations.DeleteCategoryTranslation(ctx, id, locale)
	}
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	if !deleted {
		return errors.ErrTranslationNotFound
	}
	s.invalidate(ctx)
	return nil
}

// GetTranslation 获取单条译文
func (s *Service) GetTranslation(ctx context.Context, kind, id, locale string) (interface{}, error) {
	if err := checkTranslationType(kind); err != nil {
		return nil, err
	}
	var (
		out interface{}
		err error
	)
	if kind == models.TranslationTypeArticle {
		out, err = s.translations.GetArticleTranslation(ctx, id, locale)
	} else {
		out, err = s.translations.GetCategoryTranslation(ctx, id, locale)
	}
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrTranslationNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return out, nil
}
