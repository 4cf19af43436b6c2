package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func paramsFor(query string) *PageParams {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+query, nil)
	return ParsePageParams(c)
}

func TestParsePageParams(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		wantPage     int
		wantPageSize int
	}{
		{"默认值", "", 1, 10},
		{"正常参数", "page=3&page_size=20", 3, 20},
		{"非法页码回退", "page=abc&page_size=xyz", 1, 10},
		{"负数回退", "page=-1&page_size=-5", 1, 10},
		{"超出上限截断", "page=1&page_size=5000", 1, MaxPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := paramsFor(tt.query)
			assert.Equal(t, tt.wantPage, params.Page)
			assert.Equal(t, tt.wantPageSize, params.PageSize)
		})
	}
}

func TestGetOffsetLimit(t *testing.T) {
	params := &PageParams{Page: 3, PageSize: 20}
	assert.Equal(t, 40, params.GetOffset())
	assert.Equal(t, 20, params.GetLimit())
}

func TestNewPageInfo(t *testing.T) {
	info := NewPageInfo(2, 10, 35)
	assert.Equal(t, 4, info.TotalPages)
	assert.True(t, info.HasNext)
	assert.True(t, info.HasPrev)

	info = NewPageInfo(1, 10, 5)
	assert.Equal(t, 1, info.TotalPages)
	assert.False(t, info.HasNext)
	assert.False(t, info.HasPrev)
}
