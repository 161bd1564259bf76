//go:build integration

package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dumeirei/helpcenter-backend/internal/common/cache"
	"github.com/dumeirei/helpcenter-backend/internal/common/database"
	"github.com/dumeirei/helpcenter-backend/internal/models"
	"github.com/dumeirei/helpcenter-backend/internal/testutil"
)

func TestPostgres_RepositoryFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	db := testutil.NewPostgresDB(t)
	require.NoError(t, database.Migrate(db))
	ctx := context.Background()

	t.Run("ticket sequence is unique under concurrency", func(t *testing.T) {
		repo := NewTicketRepository(db)

		const n = 50
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			seen = make(map[int64]bool)
		)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v, err := repo.NextSequence(ctx, models.TicketSequenceName)
				assert.NoError(t, err)
				mu.Lock()
				seen[v] = true
				mu.Unlock()
			}()
		}
		wg.Wait()
		assert.Len(t, seen, n)
	})

	t.Run("concurrent user deletes keep one account", func(t *testing.T) {
		users := NewUserRepository(db)
		first := testutil.CreateUser(t, db, "lock-a@subcold.com")
		second := testutil.CreateUser(t, db, "lock-b@subcold.com")
		require.NoError(t, db.Where("id NOT IN ?", []string{first.ID, second.ID}).Delete(&models.User{}).Error)

		errs := make([]error, 2)
		var wg sync.WaitGroup
		for i, id := range []string{first.ID, second.ID} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs[i] = users.DeleteUnlessLast(ctx, id)
			}()
		}
		wg.Wait()

		failed := 0
		for _, err := range errs {
			if err != nil {
				assert.ErrorIs(t, err, ErrLastUser)
				failed++
			}
		}
		assert.Equal(t, 1, failed)
		count, err := users.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("search matches base and translated text", func(t *testing.T) {
		articles := NewArticleRepository(db)
		translations := NewTranslationRepository(db)

		c := testutil.CreateCategory(t, db, "technical", 1)
		a := testutil.CreateArticle(t, db, c.ID, "ice-maker", true)
		require.NoError(t, db.Model(a).Update("title", "Ice Maker Not Working").Error)
		_, err := translations.UpsertArticleTranslation(ctx, &models.ArticleTranslation{
			ArticleID: a.ID, Locale: "de", Title: "Eiswürfelbereiter", Content: "Fehlerbehebung",
		})
		require.NoError(t, err)

		found, err := articles.Search(ctx, "ice maker", "en", 10)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, a.ID, found[0].ID)

		found, err = articles.Search(ctx, "FEHLERBEHEBUNG", "de", 10)
		require.NoError(t, err)
		require.Len(t, found, 1)
	})

	t.Run("category delete cascades", func(t *testing.T) {
		categories := NewCategoryRepository(db)
		c := testutil.CreateCategory(t, db, "delivery", 2)
		testutil.CreateArticle(t, db, c.ID, "lead-times", true)

		removed, err := categories.Delete(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)
	})
}

func TestRedis_StoreRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	store := cache.NewStore(testutil.NewRedisClient(t))
	ctx := context.Background()

	type payload struct {
		Slug string `json:"slug"`
	}
	require.NoError(t, store.Set(ctx, "hc:test", payload{Slug: "warranty"}, time.Minute))

	var got payload
	require.NoError(t, store.Get(ctx, "hc:test", &got))
	assert.Equal(t, "warranty", got.Slug)

	before := store.Version(ctx, "articles")
	require.NoError(t, store.BumpVersion(ctx, "articles"))
	assert.Equal(t, before+1, store.Version(ctx, "articles"))
}
