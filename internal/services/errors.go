package services

import (
	"errors"

	"gitcloner/internal/gitops"
)

// 服务层错误。同步冲突（ErrSyncInProgress）不是仓库故障，
// 只上报给调用方，不写入last_error
var (
	ErrSyncInProgress = errors.New("仓库同步正在进行中")
	ErrNotFound       = errors.New("仓库不存在")
	ErrAlreadyExists  = errors.New("仓库已存在")
	ErrInvalidURL     = gitops.ErrInvalidURL
)
