package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// 仓库列表和同步日志接口共用的分页参数
const (
	DefaultPage     = 1
	DefaultPageSize = 10
	// MaxPageSize 上限，防止一次拉取全部同步日志
	MaxPageSize = 100
)

// PageParams 请求分页参数
type PageParams struct {
	Page     int `json:"page" form:"page"`
	PageSize int `json:"page_size" form:"page_size"`
}

// PageInfo 响应分页信息
type PageInfo struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// ParsePageParams 解析page/page_size查询参数，
// 非法值回退默认，page_size截断到上限
func ParsePageParams(c *gin.Context) *PageParams {
	params := &PageParams{Page: DefaultPage, PageSize: DefaultPageSize}

	if v, err := strconv.Atoi(c.Query("page")); err == nil && v >= 1 {
		params.Page = v
	}
	if v, err := strconv.Atoi(c.Query("page_size")); err == nil && v >= 1 {
		params.PageSize = v
		if params.PageSize > MaxPageSize {
			params.PageSize = MaxPageSize
		}
	}
	return params
}

// NewPageInfo 根据总数计算分页信息
func NewPageInfo(page, pageSize int, total int64) *PageInfo {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))

	return &PageInfo{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// GetOffset 查询偏移
func (p *PageParams) GetOffset() int {
	return (p.Page - 1) * p.PageSize
}

// GetLimit 查询条数
func (p *PageParams) GetLimit() int {
	return p.PageSize
}
