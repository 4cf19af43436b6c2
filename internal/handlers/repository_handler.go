package handlers

import (
	"errors"
	"net/url"

	"gitcloner/internal/models"
	"gitcloner/internal/services"
	"gitcloner/pkg/pagination"
	"gitcloner/pkg/response"

	"github.com/gin-gonic/gin"
)

// RepositoryHandler 仓库处理器
type RepositoryHandler struct {
	repoService *services.RepositoryService
}

// NewRepositoryHandler 创建仓库处理器
func NewRepositoryHandler(repoService *services.RepositoryService) *RepositoryHandler {
	return &RepositoryHandler{repoService: repoService}
}

type CreateRepositoryRequest struct {
	URL string `json:"url" binding:"required,giturl"`
}

// repoURLParam 从路径参数解析URL编码的远程地址
func repoURLParam(c *gin.Context) string {
	raw := c.Param("url")
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

// List 分页查询仓库列表
func (h *RepositoryHandler) List(c *gin.Context) {
	params := pagination.ParsePageParams(c)

	repos, total, err := h.repoService.List(params.GetOffset(), params.GetLimit())
	if err != nil {
		response.ServerError(c, "查询仓库列表失败")
		return
	}

	response.SuccessWithPage(c, repos, pagination.NewPageInfo(params.Page, params.PageSize, total))
}

// Create 登记仓库并执行初始克隆
func (h *RepositoryHandler) Create(c *gin.Context) {
	var req CreateRepositoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "无效的仓库URL")
		return
	}

	repo, err := h.repoService.Create(c.Request.Context(), req.URL)
	switch {
	case errors.Is(err, services.ErrInvalidURL):
		response.BadRequest(c, "无效的仓库URL")
		return
	case errors.Is(err, services.ErrAlreadyExists):
		response.Conflict(c, "仓库已存在")
		return
	case err != nil:
		response.ServerError(c, "创建仓库失败")
		return
	}

	if repo.Status == models.RepoStatusError {
		response.SuccessWithMessage(c, "仓库已登记，初始克隆失败，将在下次调度重试", repo)
		return
	}
	response.SuccessWithMessage(c, "仓库克隆成功", repo)
}

// Get 查询单个仓库
func (h *RepositoryHandler) Get(c *gin.Context) {
	repo, err := h.repoService.GetByURL(repoURLParam(c))
	switch {
	case errors.Is(err, services.ErrNotFound):
		response.NotFound(c, "仓库不存在")
		return
	case err != nil:
		response.ServerError(c, "查询仓库失败")
		return
	}
	response.Success(c, repo)
}

// Delete 删除仓库记录。工作副本保留在磁盘上
func (h *RepositoryHandler) Delete(c *gin.Context) {
	repo, err := h.repoService.GetByURL(repoURLParam(c))
	switch {
	case errors.Is(err, services.ErrNotFound):
		response.NotFound(c, "仓库不存在")
		return
	case err != nil:
		response.ServerError(c, "查询仓库失败")
		return
	}

	if err := h.repoService.Delete(repo.ID); err != nil {
		response.ServerError(c, "删除仓库失败")
		return
	}
	response.SuccessWithMessage(c, "仓库记录已删除，本地克隆保留", nil)
}

// Sync 手动触发单仓库同步
func (h *RepositoryHandler) Sync(c *gin.Context) {
	repo, err := h.repoService.GetByURL(repoURLParam(c))
	switch {
	case errors.Is(err, services.ErrNotFound):
		response.NotFound(c, "仓库不存在")
		return
	case err != nil:
		response.ServerError(c, "查询仓库失败")
		return
	}

	updated, outcome, err := h.repoService.TriggerSync(c.Request.Context(), repo.ID, models.SyncTriggerManual)
	switch {
	case errors.Is(err, services.ErrSyncInProgress):
		response.Conflict(c, "仓库同步正在进行中")
		return
	case errors.Is(err, services.ErrNotFound):
		response.NotFound(c, "仓库不存在")
		return
	case err != nil:
		response.ServerError(c, "同步失败")
		return
	}

	response.Success(c, gin.H{
		"repository": updated,
		"outcome":    outcome,
	})
}

// Logs 分页查询仓库同步日志
func (h *RepositoryHandler) Logs(c *gin.Context) {
	repo, err := h.repoService.GetByURL(repoURLParam(c))
	switch {
	case errors.Is(err, services.ErrNotFound):
		response.NotFound(c, "仓库不存在")
		return
	case err != nil:
		response.ServerError(c, "查询仓库失败")
		return
	}

	params := pagination.ParsePageParams(c)
	logs, total, err := h.repoService.ListLogs(repo.ID, params.GetOffset(), params.GetLimit())
	if err != nil {
		response.ServerError(c, "查询同步日志失败")
		return
	}

	response.SuccessWithPage(c, logs, pagination.NewPageInfo(params.Page, params.PageSize, total))
}
