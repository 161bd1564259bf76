// Package repository 知识库仓储单元测试
package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dumeirei/helpcenter-backend/internal/models"
	"github.com/dumeirei/helpcenter-backend/internal/testutil"
)

func TestCategoryRepository_ListWithCounts(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewCategoryRepository(db)
	ctx := context.Background()

	technical := testutil.CreateCategory(t, db, "technical", 4)
	orders := testutil.CreateCategory(t, db, "orders-delivery", 1)
	hidden := testutil.CreateCategory(t, db, "hidden", 0)
	require.NoError(t, db.Model(hidden).Update("is_active", false).Error)

	testutil.CreateArticle(t, db, technical.ID, "reset-thermostat", true)
	testutil.CreateArticle(t, db, technical.ID, "draft-article", false)
	testutil.CreateArticle(t, db, orders.ID, "track-order", true)

	public, err := repo.ListWithCounts(ctx, true)
	require.NoError(t, err)
	require.Len(t, public, 2)
	assert.Equal(t, "orders-delivery", public[0].Slug)
	assert.Equal(t, int64(1), public[0].ArticleCount)
	assert.Equal(t, "technical", public[1].Slug)
	assert.Equal(t, int64(1), public[1].ArticleCount)

	all, err := repo.ListWithCounts(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(2), all[2].ArticleCount)
}

func TestCategoryRepository_DeleteCascades(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewCategoryRepository(db)
	translations := NewTranslationRepository(db)
	ctx := context.Background()

	victim := testutil.CreateCategory(t, db, "returns-refunds", 2)
	survivor := testutil.CreateCategory(t, db, "product", 5)
	a1 := testutil.CreateArticle(t, db, victim.ID, "how-to-return", true)
	testutil.CreateArticle(t, db, victim.ID, "refund-times", true)
	testutil.CreateArticle(t, db, victim.ID, "draft", false)
	testutil.CreateArticle(t, db, survivor.ID, "sizes", true)

	_, err := translations.UpsertArticleTranslation(ctx, &models.ArticleTranslation{ArticleID: a1.ID, Locale: "fr", Title: "Retour", Content: "..."})
	require.NoError(t, err)
	_, err = translations.UpsertCategoryTranslation(ctx, &models.CategoryTranslation{CategoryID: victim.ID, Locale: "de", Name: "Rückgabe"})
	require.NoError(t, err)

	var before int64
	db.Model(&models.Article{}).Where("category_id = ?", victim.ID).Count(&before)
	require.Equal(t, int64(3), before)

	removed, err := repo.Delete(ctx, victim.ID)
	require.NoError(t, err)
	assert.Equal(t, before, removed)

	var count int64
	db.Model(&models.Article{}).Where("category_id = ?", victim.ID).Count(&count)
	assert.Zero(t, count)
	db.Model(&models.Article{}).Count(&count)
	assert.Equal(t, int64(1), count)
	db.Model(&models.ArticleTranslation{}).Count(&count)
	assert.Zero(t, count)
	db.Model(&models.CategoryTranslation{}).Count(&count)
	assert.Zero(t, count)

	_, err = repo.Delete(ctx, victim.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCategoryRepository_SlugTaken(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewCategoryRepository(db)
	ctx := context.Background()

	c := testutil.CreateCategory(t, db, "technical", 1)

	taken, err := repo.SlugTaken(ctx, "technical", "")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.SlugTaken(ctx, "technical", c.ID)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestArticleRepository_OrderingAndViews(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewArticleRepository(db)
	ctx := context.Background()

	c := testutil.CreateCategory(t, db, "technical", 1)
	plain := testutil.CreateArticle(t, db, c.ID, "plain", true)
	popular := testutil.CreateArticle(t, db, c.ID, "popular", true)
	require.NoError(t, db.Model(popular).Updates(map[string]interface{}{"is_popular": true, "view_count": 3}).Error)
	require.NoError(t, db.Model(plain).Update("view_count", 50).Error)
	testutil.CreateArticle(t, db, c.ID, "draft", false)

	list, err := repo.ListPublishedByCategory(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "popular", list[0].Slug)

	top, err := repo.ListPopular(ctx, 6)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "popular", top[0].Slug)

	require.NoError(t, repo.IncrementViewCount(ctx, plain.ID))
	views, err := repo.SumViews(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(54), views)

	published, err := repo.CountPublished(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), published)

	_, err = repo.GetPublishedBySlug(ctx, "draft")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	related, err := repo.ListRelated(ctx, c.ID, popular.ID, 5)
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, "plain", related[0].Slug)
}

func TestArticleRepository_Search(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewArticleRepository(db)
	translations := NewTranslationRepository(db)
	ctx := context.Background()

	c := testutil.CreateCategory(t, db, "technical", 1)
	thermostat := testutil.CreateArticle(t, db, c.ID, "thermostat", true)
	require.NoError(t, db.Model(thermostat).Update("title", "Resetting the Thermostat").Error)
	delivery := testutil.CreateArticle(t, db, c.ID, "delivery", true)
	hidden := testutil.CreateArticle(t, db, c.ID, "hidden", false)
	require.NoError(t, db.Model(hidden).Update("title", "Thermostat draft").Error)

	_, err := translations.UpsertArticleTranslation(ctx, &models.ArticleTranslation{
		ArticleID: delivery.ID, Locale: "fr", Title: "Livraison", Content: "Délais de livraison",
	})
	require.NoError(t, err)

	found, err := repo.Search(ctx, "THERMOSTAT", "en", 20)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, thermostat.ID, found[0].ID)

	found, err = repo.Search(ctx, "livraison", "fr", 20)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, delivery.ID, found[0].ID)

	found, err = repo.Search(ctx, "livraison", "de", 20)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestTranslationRepository_UpsertAndDelete(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewTranslationRepository(db)
	ctx := context.Background()

	c := testutil.CreateCategory(t, db, "technical", 1)
	a := testutil.CreateArticle(t, db, c.ID, "reset", true)

	first, err := repo.UpsertArticleTranslation(ctx, &models.ArticleTranslation{ArticleID: a.ID, Locale: "fr", Title: "Réinitialiser", Content: "v1"})
	require.NoError(t, err)

	second, err := repo.UpsertArticleTranslation(ctx, &models.ArticleTranslation{ArticleID: a.ID, Locale: "fr", Title: "Réinitialisation", Content: "v2"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "v2", second.Content)

	_, err = repo.UpsertArticleTranslation(ctx, &models.ArticleTranslation{ArticleID: a.ID, Locale: "de", Title: "Zurücksetzen", Content: "v1"})
	require.NoError(t, err)

	list, err := repo.ListArticleTranslations(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "de", list[0].Locale)
	assert.Equal(t, "fr", list[1].Locale)

	byID, err := repo.ArticleTranslationsFor(ctx, []string{a.ID}, "fr")
	require.NoError(t, err)
	assert.Equal(t, "Réinitialisation", byID[a.ID].Title)

	deleted, err := repo.DeleteArticleTranslation(ctx, a.ID, "fr")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.DeleteArticleTranslation(ctx, a.ID, "fr")
	require.NoError(t, err)
	assert.False(t, deleted)
}
