// Package repository 管理员账号与配置仓储单元测试
package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dumeirei/helpcenter-backend/internal/models"
	"github.com/dumeirei/helpcenter-backend/internal/testutil"
)

func TestUserRepository_DeleteUnlessLast(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	first := testutil.CreateUser(t, db, "admin@subcold.com")
	second := testutil.CreateUser(t, db, "ops@subcold.com")

	require.NoError(t, repo.DeleteUnlessLast(ctx, second.ID))

	err := repo.DeleteUnlessLast(ctx, first.ID)
	assert.ErrorIs(t, err, ErrLastUser)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = repo.GetByID(ctx, first.ID)
	assert.NoError(t, err)
}

func TestUserRepository_DeleteUnlessLast_Concurrent(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	first := testutil.CreateUser(t, db, "admin@subcold.com")
	second := testutil.CreateUser(t, db, "ops@subcold.com")

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, id := range []string{first.ID, second.ID} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = repo.DeleteUnlessLast(ctx, id)
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

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestUserRepository_DeleteMissing(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	testutil.CreateUser(t, db, "a@subcold.com")
	testutil.CreateUser(t, db, "b@subcold.com")

	assert.ErrorIs(t, repo.DeleteUnlessLast(ctx, "missing"), gorm.ErrRecordNotFound)
}

func TestUserRepository_EmailTakenAndLogin(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := testutil.CreateUser(t, db, "admin@subcold.com")

	taken, err := repo.EmailTaken(ctx, "admin@subcold.com", "")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.EmailTaken(ctx, "admin@subcold.com", u.ID)
	require.NoError(t, err)
	assert.False(t, taken)

	require.NoError(t, repo.UpdateLoginInfo(ctx, u.ID, "10.0.0.1"))
	loaded, err := repo.GetByEmail(ctx, "admin@subcold.com")
	require.NoError(t, err)
	require.NotNil(t, loaded.LastLoginAt)
	assert.Equal(t, "10.0.0.1", *loaded.LastLoginIP)
}

func TestSettingsRepository_Singletons(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSettingsRepository(db)
	ctx := context.Background()

	_, err := repo.GetSiteSettings(ctx)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, repo.CreateSiteSettingsIfAbsent(ctx, &models.SiteSettings{SiteName: "Subcold Support", HeroTitle: "HOW CAN WE HELP?"}))
	require.NoError(t, repo.CreateSiteSettingsIfAbsent(ctx, &models.SiteSettings{SiteName: "ignored", HeroTitle: "ignored"}))

	s, err := repo.GetSiteSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Subcold Support", s.SiteName)

	s.SiteName = "Subcold Help"
	require.NoError(t, repo.SaveSiteSettings(ctx, s))
	s, err = repo.GetSiteSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Subcold Help", s.SiteName)

	var count int64
	db.Model(&models.SiteSettings{}).Count(&count)
	assert.Equal(t, int64(1), count)

	cfg := &models.ReturnFormConfig{FormTitle: "Form", SuccessTitle: "Done", PurchaseChannels: []string{"Amazon"}}
	require.NoError(t, repo.SaveReturnFormConfig(ctx, cfg))
	cfg.PurchaseChannels = []string{"Amazon", "eBay"}
	require.NoError(t, repo.SaveReturnFormConfig(ctx, cfg))

	loaded, err := repo.GetReturnFormConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ReturnFormConfigID, loaded.ID)
	assert.Equal(t, []string{"Amazon", "eBay"}, []string(loaded.PurchaseChannels))
}

func TestOperationLogRepository_List(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewOperationLogRepository(db)
	ctx := context.Background()

	for _, module := range []string{"ticket", "ticket", "article"} {
		require.NoError(t, repo.Create(ctx, &models.OperationLog{AdminID: "admin-1", Module: module, Action: "update", IP: "127.0.0.1"}))
	}

	logs, total, err := repo.List(ctx, 0, 10, &OperationLogFilters{Module: "ticket"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, logs, 2)
	assert.Greater(t, logs[0].ID, logs[1].ID)
}

func TestReturnRequestRepository_List(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewReturnRequestRepository(db)
	ctx := context.Background()

	for _, reason := range []string{"Faulty", "Damage"} {
		require.NoError(t, repo.Create(ctx, &models.ReturnRequest{
			ReturnReason: reason, FullName: "Jane Doe", Email: "jane@example.com",
			OrderNumber: "SC-1001", PurchaseChannel: "Amazon", Status: models.ReturnStatusPending,
		}))
	}

	list, total, err := repo.List(ctx, 0, 10, &ReturnRequestListFilters{ReturnReason: "Damage"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	require.NoError(t, repo.UpdateFields(ctx, list[0].ID, map[string]interface{}{"status": models.ReturnStatusApproved}))
	loaded, err := repo.GetByID(ctx, list[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReturnStatusApproved, loaded.Status)

	deleted, err := repo.Delete(ctx, loaded.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
}
