package models

import (
	"time"

	"gorm.io/datatypes"
)

// SyncLog 单次同步尝试的记录
type SyncLog struct {
	ID           uint `gorm:"primarykey" json:"id"`
	RepositoryID uint `gorm:"not null;index" json:"repository_id"`

	// 任务信息
	TaskID  string `gorm:"size:36;index" json:"task_id,omitempty"`
	Trigger string `gorm:"size:20;not null" json:"trigger"` // initial/manual/scheduled
	Outcome string `gorm:"size:30;not null" json:"outcome"`

	// 执行信息
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   *time.Time     `json:"finished_at,omitempty"`
	DurationMs   int64          `json:"duration_ms"`
	ErrorMessage string         `gorm:"size:2000" json:"error_message,omitempty"`
	Detail       datatypes.JSON `json:"detail,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName 指定表名
func (SyncLog) TableName() string {
	return "sync_logs"
}

// 触发来源常量
const (
	SyncTriggerInitial   = "initial"
	SyncTriggerManual    = "manual"
	SyncTriggerScheduled = "scheduled"
)
