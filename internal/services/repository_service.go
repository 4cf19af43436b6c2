package services

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"path/filepath"
	"time"

	"gitcloner/internal/gitops"
	"gitcloner/internal/models"
	"gitcloner/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RepositoryStore 仓库记录存储的窄接口。
// 查不到时返回(nil, nil)而不是错误
type RepositoryStore interface {
	Get(id uint) (*models.Repository, error)
	FindByURL(url string) (*models.Repository, error)
	List(offset, limit int) ([]models.Repository, int64, error)
	Upsert(repo *models.Repository) error
	Delete(id uint) error
}

// SyncLogStore 同步日志存储
type SyncLogStore interface {
	AppendLog(log *models.SyncLog) error
	ListLogs(repositoryID uint, offset, limit int) ([]models.SyncLog, int64, error)
}

// RepositoryService 仓库状态管理器。持有状态机：
// pending -> cloning -> {synced, error}
// {synced, conflict, error} -> syncing -> {synced, conflict, error}
// 状态只由同步结果或显式增删操作驱动，其它组件不得修改
type RepositoryService struct {
	store    RepositoryStore
	logs     SyncLogStore
	engine   *SyncEngine
	adapter  gitops.Adapter
	locks    *LockRegistry
	reposDir string
}

// NewRepositoryService 创建仓库服务
func NewRepositoryService(store RepositoryStore, logs SyncLogStore, adapter gitops.Adapter, reposDir string) *RepositoryService {
	return &RepositoryService{
		store:    store,
		logs:     logs,
		engine:   NewSyncEngine(adapter),
		adapter:  adapter,
		locks:    NewLockRegistry(),
		reposDir: reposDir,
	}
}

// Create 登记仓库并立即执行初始克隆。
// 克隆失败时记录保留在error状态，等待下次调度重试
func (s *RepositoryService) Create(ctx context.Context, url string) (*models.Repository, error) {
	relPath, err := gitops.RepoPath(url)
	if err != nil {
		return nil, ErrInvalidURL
	}

	existing, err := s.store.FindByURL(url)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyExists
	}

	repo := &models.Repository{
		URL:       url,
		Name:      path.Base(relPath),
		LocalPath: filepath.Join(s.reposDir, filepath.FromSlash(relPath)),
		Status:    models.RepoStatusPending,
	}
	if err := s.store.Upsert(repo); err != nil {
		return nil, err
	}

	logger.GetLogger().Infof("已登记仓库 %s，开始初始克隆", url)

	// 初始克隆走统一的同步路径，同样受仓库锁保护
	updated, _, err := s.TriggerSync(ctx, repo.ID, models.SyncTriggerInitial)
	if err != nil {
		return repo, err
	}
	return updated, nil
}

// Delete 删除仓库记录并清理锁项。工作副本留在磁盘上，
// 本地克隆的历史不随记录删除而销毁
func (s *RepositoryService) Delete(id uint) error {
	repo, err := s.store.Get(id)
	if err != nil {
		return err
	}
	if repo == nil {
		return ErrNotFound
	}

	if err := s.store.Delete(id); err != nil {
		return err
	}
	s.locks.Evict(id)

	logger.GetLogger().Infof("已删除仓库记录 %s，工作副本保留于 %s", repo.URL, repo.LocalPath)
	return nil
}

// GetByID 按ID查询
func (s *RepositoryService) GetByID(id uint) (*models.Repository, error) {
	repo, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if repo == nil {
		return nil, ErrNotFound
	}
	return repo, nil
}

// GetByURL 按远程地址查询
func (s *RepositoryService) GetByURL(url string) (*models.Repository, error) {
	repo, err := s.store.FindByURL(url)
	if err != nil {
		return nil, err
	}
	if repo == nil {
		return nil, ErrNotFound
	}
	return repo, nil
}

// List 分页查询
func (s *RepositoryService) List(offset, limit int) ([]models.Repository, int64, error) {
	return s.store.List(offset, limit)
}

// ListLogs 分页查询同步日志
func (s *RepositoryService) ListLogs(repositoryID uint, offset, limit int) ([]models.SyncLog, int64, error) {
	return s.logs.ListLogs(repositoryID, offset, limit)
}

// TriggerSync 对单个仓库执行一次同步。
// 同一仓库已有同步在进行时立即返回ErrSyncInProgress，不排队不等待；
// 锁在所有退出路径（包括panic）上释放
func (s *RepositoryService) TriggerSync(ctx context.Context, id uint, trigger string) (*models.Repository, *SyncOutcome, error) {
	repo, err := s.store.Get(id)
	if err != nil {
		return nil, nil, err
	}
	if repo == nil {
		return nil, nil, ErrNotFound
	}

	release, ok := s.locks.TryAcquire(id)
	if !ok {
		return nil, nil, ErrSyncInProgress
	}
	defer release()

	// 同步过程panic时不把过渡态留在库里，落error后重新抛出
	defer func() {
		if r := recover(); r != nil {
			repo.Status = models.RepoStatusError
			repo.LastError = fmt.Sprintf("同步异常中断: %v", r)
			if err := s.store.Upsert(repo); err != nil {
				logger.GetLogger().Errorf("仓库 %s panic后状态落库失败: %v", repo.URL, err)
			}
			panic(r)
		}
	}()

	// 过渡态：首次克隆为cloning，其余为syncing。
	// 操作结束后必然被终态覆盖，绝不作为完成后的落库状态
	transient := models.RepoStatusSyncing
	if repo.Status == models.RepoStatusPending || !s.adapter.IsCloned(repo.LocalPath) {
		transient = models.RepoStatusCloning
	}
	repo.Status = transient
	if err := s.store.Upsert(repo); err != nil {
		return nil, nil, err
	}

	startedAt := time.Now()
	outcome := s.engine.Sync(ctx, repo)

	s.applyOutcome(repo, &outcome)
	if err := s.store.Upsert(repo); err != nil {
		return nil, nil, err
	}
	s.appendLog(repo, trigger, &outcome, startedAt)

	return repo, &outcome, nil
}

// applyOutcome 结果到状态的映射：
// FastForwarded/NoRemoteChanges -> synced；LocalChangesPreserved -> conflict；
// Failed -> error。last_synced_at在除Failed外的所有结果上更新
// （fetch成功即视为同步时间点），last_error只在Failed时写入
func (s *RepositoryService) applyOutcome(repo *models.Repository, outcome *SyncOutcome) {
	switch outcome.Kind {
	case OutcomeFastForwarded, OutcomeNoRemoteChanges:
		repo.Status = models.RepoStatusSynced
		repo.LastError = ""
		observedAt := outcome.ObservedAt
		repo.LastSyncedAt = &observedAt
	case OutcomeLocalChangesPreserved:
		repo.Status = models.RepoStatusConflict
		repo.LastError = ""
		observedAt := outcome.ObservedAt
		repo.LastSyncedAt = &observedAt
	case OutcomeFailed:
		repo.Status = models.RepoStatusError
		repo.LastError = outcome.Detail
	}
}

// appendLog 落一条同步日志，失败只记日志不影响主流程
func (s *RepositoryService) appendLog(repo *models.Repository, trigger string, outcome *SyncOutcome, startedAt time.Time) {
	finishedAt := outcome.ObservedAt

	detail, _ := json.Marshal(outcome)
	syncLog := &models.SyncLog{
		RepositoryID: repo.ID,
		TaskID:       uuid.NewString(),
		Trigger:      trigger,
		Outcome:      string(outcome.Kind),
		StartedAt:    startedAt,
		FinishedAt:   &finishedAt,
		DurationMs:   finishedAt.Sub(startedAt).Milliseconds(),
		Detail:       datatypes.JSON(detail),
	}
	if outcome.Kind == OutcomeFailed {
		syncLog.ErrorMessage = outcome.Detail
	}

	if err := s.logs.AppendLog(syncLog); err != nil {
		logger.GetLogger().Errorf("写入同步日志失败: %v", err)
	}
}
