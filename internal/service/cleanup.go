package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"deepchat-go/pkg/log"

	"github.com/robfig/cron/v3"
)

// CleanupScheduler 定期清理过期会话。
type CleanupScheduler struct {
	svc      ConversationService
	interval time.Duration
	maxAge   time.Duration

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// NewCleanupScheduler 创建调度器。interval 不大于零时 Start 不做任何事。
func NewCleanupScheduler(svc ConversationService, interval, maxAge time.Duration) *CleanupScheduler {
	return &CleanupScheduler{
		svc:      svc,
		interval: interval,
		maxAge:   maxAge,
	}
}

// Start 启动周期任务，重复调用无副作用。
func (s *CleanupScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running || s.interval <= 0 {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", s.interval), func() { s.RunOnce() }); err != nil {
		return fmt.Errorf("failed to schedule cleanup: %w", err)
	}
	c.Start()

	s.cron = c
	s.running = true
	log.Infof("会话清理任务已启动，间隔 %s，最大保留 %s", s.interval, s.maxAge)
	return nil
}

// Stop 停止调度并等待正在执行的清理结束。
func (s *CleanupScheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.running = false
	s.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}

// IsRunning 返回调度器是否在运行。
func (s *CleanupScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RunOnce 立即执行一次清理，返回删除数量。
func (s *CleanupScheduler) RunOnce() int {
	removed, err := s.svc.Cleanup(context.Background(), s.maxAge)
	if err != nil {
		log.Error("会话清理失败", err)
		return 0
	}
	return removed
}
