package handlers

import (
	"gitcloner/internal/services"
	"gitcloner/pkg/response"

	"github.com/gin-gonic/gin"
)

// SchedulerHandler 调度器状态处理器
type SchedulerHandler struct {
	scheduler *services.SyncScheduler
}

// NewSchedulerHandler 创建调度器状态处理器
func NewSchedulerHandler(scheduler *services.SyncScheduler) *SchedulerHandler {
	return &SchedulerHandler{scheduler: scheduler}
}

// Status 调度器运行状态
func (h *SchedulerHandler) Status(c *gin.Context) {
	response.Success(c, h.scheduler.Status())
}
