package services

import (
	"context"
	"fmt"
	"time"

	"gitcloner/internal/gitops"
	"gitcloner/internal/models"
	"gitcloner/pkg/logger"
)

// OutcomeKind 单次同步的结果分类
type OutcomeKind string

const (
	OutcomeNoRemoteChanges       OutcomeKind = "no_remote_changes"
	OutcomeFastForwarded         OutcomeKind = "fast_forwarded"
	OutcomeLocalChangesPreserved OutcomeKind = "local_changes_preserved"
	OutcomeFailed                OutcomeKind = "failed"
)

// SyncOutcome 一次同步尝试的结果，由状态管理器消费一次后丢弃
type SyncOutcome struct {
	RepositoryID uint        `json:"repository_id"`
	Kind         OutcomeKind `json:"kind"`
	Detail       string      `json:"detail,omitempty"`
	ObservedAt   time.Time   `json:"observed_at"`
}

// SyncEngine 单仓库安全同步算法。只做fast-forward，
// 任何本地与远程分歧的疑点都解释为"保持本地历史不动"
type SyncEngine struct {
	adapter gitops.Adapter
}

// NewSyncEngine 创建同步引擎
func NewSyncEngine(adapter gitops.Adapter) *SyncEngine {
	return &SyncEngine{adapter: adapter}
}

// Sync 对单个仓库执行一次同步，返回结果分类。
// 除初始克隆外不修改远端，失败时不留下半完成状态
func (e *SyncEngine) Sync(ctx context.Context, repo *models.Repository) SyncOutcome {
	log := logger.GetLogger()

	outcome := func(kind OutcomeKind, detail string) SyncOutcome {
		return SyncOutcome{
			RepositoryID: repo.ID,
			Kind:         kind,
			Detail:       detail,
			ObservedAt:   time.Now(),
		}
	}

	// 1. 工作副本不存在：初始克隆本身就是一次更新
	if !e.adapter.IsCloned(repo.LocalPath) {
		if err := e.adapter.EnsureCloned(ctx, repo.URL, repo.LocalPath); err != nil {
			log.Errorf("仓库 %s 克隆失败: %v", repo.URL, err)
			return outcome(OutcomeFailed, fmt.Sprintf("克隆失败: %v", err))
		}
		return outcome(OutcomeFastForwarded, "初始克隆完成")
	}

	// 2. 拉取远程分支指针，失败时不改变任何本地状态
	snapshot, err := e.adapter.FetchRefs(ctx, repo.LocalPath)
	if err != nil {
		log.Errorf("仓库 %s fetch失败: %v", repo.URL, err)
		return outcome(OutcomeFailed, fmt.Sprintf("fetch失败: %v", err))
	}

	// 3. 本地有未提交修改或本地独有提交：不碰工作树。
	// fetch已成功，远程指针在本地是新的，所以这不算失败
	modified, err := e.adapter.HasLocalModifications(repo.LocalPath, snapshot)
	if err != nil {
		return outcome(OutcomeFailed, fmt.Sprintf("检查本地修改失败: %v", err))
	}
	if modified {
		log.Warnf("仓库 %s 存在本地修改，跳过合并以保留本地历史", repo.URL)
		return outcome(OutcomeLocalChangesPreserved, "存在本地修改，工作树未变动")
	}

	branch, head, err := e.adapter.CurrentHead(repo.LocalPath)
	if err != nil {
		return outcome(OutcomeFailed, fmt.Sprintf("读取HEAD失败: %v", err))
	}

	// 远程已不存在当前分支：无可比较对象，按原样保持
	tip, ok := snapshot.Tip(branch)
	if !ok {
		return outcome(OutcomeNoRemoteChanges, fmt.Sprintf("远程无分支 %s", branch))
	}

	// 4. 无法fast-forward说明双方已分叉（例如远程改写了历史），
	// 同样不做任何破坏性动作
	canFF, err := e.adapter.CanFastForward(repo.LocalPath, snapshot)
	if err != nil {
		return outcome(OutcomeFailed, fmt.Sprintf("检查fast-forward失败: %v", err))
	}
	if !canFF {
		log.Warnf("仓库 %s 与远程分叉，跳过合并以保留本地历史", repo.URL)
		return outcome(OutcomeLocalChangesPreserved, "本地与远程分叉，工作树未变动")
	}

	// 5. 已在远程tip上
	if head == tip {
		return outcome(OutcomeNoRemoteChanges, "已是最新")
	}

	// 6. 纯指针前移
	if err := e.adapter.FastForwardMerge(repo.LocalPath, snapshot); err != nil {
		log.Errorf("仓库 %s fast-forward失败: %v", repo.URL, err)
		return outcome(OutcomeFailed, fmt.Sprintf("fast-forward失败: %v", err))
	}

	log.Infof("仓库 %s fast-forward: %s -> %s", repo.URL, head, tip)
	return outcome(OutcomeFastForwarded, fmt.Sprintf("%s -> %s", shortHash(head), shortHash(tip)))
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
