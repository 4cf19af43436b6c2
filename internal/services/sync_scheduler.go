package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"gitcloner/internal/models"
	"gitcloner/pkg/logger"

	"github.com/robfig/cron/v3"
)

// SyncScheduler 后台同步调度器：按配置的cron表达式
// （默认每天凌晨2点）把全部仓库各跑一遍同步。
// 批次内并发受worker数限制，单仓库失败不影响其它仓库
type SyncScheduler struct {
	repoService *RepositoryService
	cronSpec    string
	workers     int

	cron    *cron.Cron
	entryID cron.EntryID
	running bool

	// tick合并标志：上一批还在跑时新tick直接跳过，不排队
	ticking atomic.Bool

	jobsLock sync.Mutex
}

// NewSyncScheduler 创建调度器
func NewSyncScheduler(repoService *RepositoryService, cronSpec string, workers int) *SyncScheduler {
	if workers < 1 {
		workers = 1
	}
	return &SyncScheduler{
		repoService: repoService,
		cronSpec:    cronSpec,
		workers:     workers,
		cron:        cron.New(),
	}
}

// Start 启动调度器
func (s *SyncScheduler) Start() error {
	s.jobsLock.Lock()
	defer s.jobsLock.Unlock()

	if s.running {
		return fmt.Errorf("调度器已经在运行")
	}

	entryID, err := s.cron.AddFunc(s.cronSpec, s.runBatch)
	if err != nil {
		return fmt.Errorf("无效的cron表达式 %q: %v", s.cronSpec, err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.running = true

	logger.GetLogger().Infof("同步调度器启动成功，cron: %s, workers: %d", s.cronSpec, s.workers)
	return nil
}

// Stop 停止调度器
func (s *SyncScheduler) Stop() {
	s.jobsLock.Lock()
	defer s.jobsLock.Unlock()

	if !s.running {
		return
	}
	s.cron.Stop()
	s.running = false
	logger.GetLogger().Info("同步调度器已停止")
}

// runBatch 单次tick：枚举全部仓库并逐个同步
func (s *SyncScheduler) runBatch() {
	if !s.ticking.CompareAndSwap(false, true) {
		logger.GetLogger().Warn("上一批同步尚未完成，本次tick跳过")
		return
	}
	defer s.ticking.Store(false)

	s.SyncAll(context.Background())
}

// SyncAll 同步全部仓库。错误（包括同步冲突）只记录日志，
// 绝不中断批次内其它仓库
func (s *SyncScheduler) SyncAll(ctx context.Context) {
	log := logger.GetLogger()

	repos, total, err := s.repoService.List(0, 0)
	if err != nil {
		log.Errorf("加载仓库列表失败: %v", err)
		return
	}
	if total == 0 {
		return
	}

	log.Infof("开始定时同步，共 %d 个仓库", total)
	start := time.Now()

	jobs := make(chan models.Repository)
	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for repo := range jobs {
				s.syncOne(ctx, repo)
			}
		}()
	}

	for _, repo := range repos {
		jobs <- repo
	}
	close(jobs)
	wg.Wait()

	log.Infof("定时同步完成，耗时 %s", time.Since(start).Round(time.Millisecond))
}

// syncOne 单仓库同步，吞掉panic以保证批次隔离
func (s *SyncScheduler) syncOne(ctx context.Context, repo models.Repository) {
	log := logger.GetLogger()
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("仓库 %s 同步panic: %v", repo.URL, r)
		}
	}()

	_, outcome, err := s.repoService.TriggerSync(ctx, repo.ID, models.SyncTriggerScheduled)
	switch {
	case errors.Is(err, ErrSyncInProgress):
		// 手动同步与定时tick重叠属正常情况
		log.Infof("仓库 %s 正在同步中，本轮跳过", repo.URL)
	case err != nil:
		log.Errorf("仓库 %s 同步失败: %v", repo.URL, err)
	default:
		log.Infof("仓库 %s 同步结果: %s", repo.URL, outcome.Kind)
	}
}

// Status 调度器状态（供状态接口使用）
func (s *SyncScheduler) Status() map[string]interface{} {
	s.jobsLock.Lock()
	defer s.jobsLock.Unlock()

	status := map[string]interface{}{
		"running":      s.running,
		"batch_active": s.ticking.Load(),
		"cron":         s.cronSpec,
		"workers":      s.workers,
		"current_time": time.Now(),
	}
	if s.running {
		entry := s.cron.Entry(s.entryID)
		status["next_run"] = entry.Next
		if !entry.Prev.IsZero() {
			status["prev_run"] = entry.Prev
		}
	}
	return status
}
