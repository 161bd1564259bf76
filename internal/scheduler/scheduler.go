// Package scheduler 周期执行后台维护任务
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultTimeout = 5 * time.Minute

// Task 周期任务，启动后立即执行一次
type Task struct {
	Name     string
	Interval time.Duration
	Handler  func(ctx context.Context) error
}

// Scheduler 每个任务一个 goroutine；单次执行受 timeout 约束
type Scheduler struct {
	tasks   []*Task
	timeout time.Duration
	log     *zap.Logger

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

func NewScheduler(timeout time.Duration, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{timeout: timeout, log: log.Named("scheduler"), ctx: ctx, cancel: cancel}
}

// AddTask 注册任务，须在 Start 之前调用
func (s *Scheduler) AddTask(name string, interval time.Duration, handler func(ctx context.Context) error) {
	s.tasks = append(s.tasks, &Task{Name: name, Interval: interval, Handler: handler})
}

func (s *Scheduler) Tasks() []*Task {
	return s.tasks
}

func (s *Scheduler) Start() {
	for _, t := range s.tasks {
		s.wg.Add(1)
		go s.loop(t)
	}
	s.log.Info("scheduler started", zap.Int("tasks", len(s.tasks)))
}

// Stop 取消运行中的任务并等待退出，可重复调用
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.cancel()
		s.wg.Wait()
		s.log.Info("scheduler stopped")
	})
}

func (s *Scheduler) loop(t *Task) {
	defer s.wg.Done()

	s.run(t)
	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.run(t)
		}
	}
}

func (s *Scheduler) run(t *Task) {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := safeCall(ctx, t.Handler)
	fields := []zap.Field{zap.String("task", t.Name), zap.Duration("elapsed", time.Since(start))}
	if err != nil {
		s.log.Warn("task failed", append(fields, zap.Error(err))...)
		return
	}
	s.log.Debug("task done", fields...)
}

func safeCall(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}
