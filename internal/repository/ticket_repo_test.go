// Package repository 工单仓储单元测试
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

func TestTicketRepository_NextSequence_StrictlyIncreasing(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewTicketRepository(db)
	ctx := context.Background()

	var last int64
	for i := 0; i < 5; i++ {
		v, err := repo.NextSequence(ctx, models.TicketSequenceName)
		require.NoError(t, err)
		assert.Greater(t, v, last)
		last = v
	}
	assert.Equal(t, int64(5), last)

	// 不同序列互不影响
	other, err := repo.NextSequence(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, int64(1), other)
}

func TestTicketRepository_NextSequence_Concurrent(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewTicketRepository(db)
	ctx := context.Background()

	const n = 20
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
}

func TestTicketRepository_GetByRef(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewTicketRepository(db)
	ctx := context.Background()

	ticket := testutil.CreateTicket(t, db, 42, models.TicketTypeEnquiry)

	byID, err := repo.GetByRef(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "TKT-000042", byID.TicketNumber)

	byNumber, err := repo.GetByRef(ctx, "TKT-000042")
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, byNumber.ID)

	_, err = repo.GetByRef(ctx, "TKT-999999")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestTicketRepository_ListAndCounts(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewTicketRepository(db)
	ctx := context.Background()

	testutil.CreateTicket(t, db, 1, models.TicketTypeReturn)
	testutil.CreateTicket(t, db, 2, models.TicketTypeReturn)
	testutil.CreateTicket(t, db, 3, models.TicketTypeEnquiry)
	closed := testutil.CreateTicket(t, db, 4, models.TicketTypeComplaint)
	require.NoError(t, repo.UpdateFields(ctx, closed.ID, map[string]interface{}{"status": models.TicketStatusClosed}))

	list, total, err := repo.List(ctx, 0, 10, &TicketListFilters{Type: models.TicketTypeReturn})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 2)

	_, total, err = repo.List(ctx, 0, 10, &TicketListFilters{Status: models.TicketStatusOpen})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	list, total, err = repo.List(ctx, 0, 10, &TicketListFilters{Keyword: "tkt-000003"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "TKT-000003", list[0].TicketNumber)

	counts, err := repo.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), counts.Total)
	assert.Equal(t, int64(3), counts.Open)
	assert.Equal(t, int64(2), counts.Returns)
	assert.Equal(t, int64(1), counts.Enquiries)
}

func TestTicketRepository_RepliesAndDelete(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewTicketRepository(db)
	ctx := context.Background()

	ticket := testutil.CreateTicket(t, db, 7, models.TicketTypeSupport)
	other := testutil.CreateTicket(t, db, 8, models.TicketTypeSupport)

	for _, msg := range []string{"first", "second"} {
		require.NoError(t, repo.CreateReply(ctx, &models.TicketReply{
			TicketID: ticket.ID, Sender: models.ReplySenderAdmin, Type: models.ReplyTypeReply,
			SenderName: "Admin", SenderEmail: "admin@subcold.com", Message: msg,
		}))
	}
	require.NoError(t, repo.CreateReply(ctx, &models.TicketReply{
		TicketID: other.ID, Sender: models.ReplySenderAdmin, Type: models.ReplyTypeNote,
		SenderName: "Admin", SenderEmail: "admin@subcold.com", Message: "keep me",
	}))

	replies, err := repo.ListReplies(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, replies, 2)
	assert.Equal(t, "first", replies[0].Message)

	errMsg := "smtp: 550 mailbox unavailable"
	require.NoError(t, repo.UpdateReplyEmailStatus(ctx, replies[0].ID, false, &errMsg))

	loaded, err := repo.GetWithReplies(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Replies, 2)
	assert.Equal(t, errMsg, *loaded.Replies[0].EmailError)

	require.NoError(t, repo.Delete(ctx, ticket.ID))

	var count int64
	db.Model(&models.TicketReply{}).Where("ticket_id = ?", ticket.ID).Count(&count)
	assert.Zero(t, count)
	db.Model(&models.TicketReply{}).Where("ticket_id = ?", other.ID).Count(&count)
	assert.Equal(t, int64(1), count)

	_, err = repo.GetByID(ctx, ticket.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
