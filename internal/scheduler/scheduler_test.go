package scheduler

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dumeirei/helpcenter-backend/internal/models"
	"github.com/dumeirei/helpcenter-backend/internal/repository"
	"github.com/dumeirei/helpcenter-backend/internal/testutil"
)

func TestScheduler_RunsImmediatelyAndStops(t *testing.T) {
	s := NewScheduler(time.Second, nil)

	var runs, failures atomic.Int32
	s.AddTask("count", time.Hour, func(context.Context) error {
		runs.Add(1)
		return nil
	})
	s.AddTask("fail", time.Hour, func(context.Context) error {
		failures.Add(1)
		return stderrors.New("boom")
	})

	s.Start()
	assert.Eventually(t, func() bool {
		return runs.Load() == 1 && failures.Load() == 1
	}, time.Second, 10*time.Millisecond)
	s.Stop()

	assert.Equal(t, int32(1), runs.Load())
}

func TestScheduler_TickerRepeats(t *testing.T) {
	s := NewScheduler(time.Second, nil)

	var runs atomic.Int32
	s.AddTask("tick", 10*time.Millisecond, func(context.Context) error {
		runs.Add(1)
		return nil
	})

	s.Start()
	defer s.Stop()
	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestScheduler_PanicDoesNotKillLoop(t *testing.T) {
	s := NewScheduler(time.Second, nil)

	var runs atomic.Int32
	s.AddTask("panics", 10*time.Millisecond, func(context.Context) error {
		runs.Add(1)
		panic("bad task")
	})

	s.Start()
	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, 5*time.Millisecond)
	s.Stop()
	s.Stop()
}

func TestScheduler_TimeoutCancelsContext(t *testing.T) {
	s := NewScheduler(20*time.Millisecond, nil)

	errs := make(chan error, 1)
	s.AddTask("slow", time.Hour, func(ctx context.Context) error {
		<-ctx.Done()
		errs <- ctx.Err()
		return ctx.Err()
	})

	s.Start()
	defer s.Stop()
	select {
	case err := <-errs:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(time.Second):
		t.Fatal("task was not cancelled")
	}
}

type fakeReplyMailer struct {
	since time.Time
	limit int
	calls int
}

func (f *fakeReplyMailer) RetryReplyEmails(_ context.Context, since time.Time, limit int) (int, error) {
	f.since, f.limit = since, limit
	f.calls++
	return 0, nil
}

func TestSetupTasks(t *testing.T) {
	db := testutil.NewTestDB(t)
	logs := repository.NewOperationLogRepository(db)

	s := NewScheduler(0, nil)
	SetupTasks(s, NewTaskHandler(&fakeReplyMailer{}, logs, Config{
		RetryInterval: time.Minute,
		LogRetention:  24 * time.Hour,
	}, nil))
	require.Len(t, s.Tasks(), 2)
	assert.Equal(t, "RetryReplyEmails", s.Tasks()[0].Name)
	assert.Equal(t, "PruneOperationLogs", s.Tasks()[1].Name)

	disabled := NewScheduler(0, nil)
	SetupTasks(disabled, NewTaskHandler(&fakeReplyMailer{}, logs, Config{}, nil))
	assert.Empty(t, disabled.Tasks())
}

func TestTaskHandler_RetryReplyEmails(t *testing.T) {
	fake := &fakeReplyMailer{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h := NewTaskHandler(fake, nil, Config{RetryWindow: 2 * time.Hour}, nil)
	h.now = func() time.Time { return now }

	require.NoError(t, h.RetryReplyEmails(context.Background()))
	assert.Equal(t, 1, fake.calls)
	assert.Equal(t, now.Add(-2*time.Hour), fake.since)
	assert.Equal(t, 50, fake.limit)
}

func TestTaskHandler_PruneOperationLogs(t *testing.T) {
	db := testutil.NewTestDB(t)
	logs := repository.NewOperationLogRepository(db)
	ctx := context.Background()

	now := time.Now()
	old := &models.OperationLog{Module: "ticket", Action: "reply"}
	recent := &models.OperationLog{Module: "ticket", Action: "update"}
	require.NoError(t, logs.Create(ctx, old))
	require.NoError(t, logs.Create(ctx, recent))
	require.NoError(t, db.Model(old).Update("created_at", now.AddDate(0, 0, -40)).Error)

	h := NewTaskHandler(nil, logs, Config{LogRetention: 30 * 24 * time.Hour}, nil)
	require.NoError(t, h.PruneOperationLogs(ctx))

	remaining, total, err := logs.List(ctx, 0, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, recent.ID, remaining[0].ID)
}
