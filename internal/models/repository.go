package models

import (
	"time"
)

// Repository 受管镜像仓库
type Repository struct {
	BaseModel

	// 远程地址，创建后不可变（修改相当于删除重加）
	URL  string `gorm:"size:500;not null;uniqueIndex" json:"url"`
	Name string `gorm:"size:200;not null" json:"name"`

	// 工作副本位置，由本记录独占
	LocalPath string `gorm:"size:500;not null" json:"local_path"`

	// 状态信息
	Status       string     `gorm:"size:20;not null;default:'pending';index" json:"status"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
	LastError    string     `gorm:"size:2000" json:"last_error,omitempty"`
}

// TableName 指定表名
func (Repository) TableName() string {
	return "repositories"
}

// 仓库状态常量。syncing/cloning为过渡态，操作结束后必须落到终态
const (
	RepoStatusPending  = "pending"
	RepoStatusCloning  = "cloning"
	RepoStatusSyncing  = "syncing"
	RepoStatusSynced   = "synced"
	RepoStatusConflict = "conflict"
	RepoStatusError    = "error"
)
