package app

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func testCtx(t *testing.T, query string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/api/notes?"+query, nil)
	return c
}

func TestGetPage(t *testing.T) {
	assert.Equal(t, 1, GetPage(testCtx(t, "")))
	assert.Equal(t, 1, GetPage(testCtx(t, "page=0")))
	assert.Equal(t, 1, GetPage(testCtx(t, "page=-3")))
	assert.Equal(t, 7, GetPage(testCtx(t, "page=7")))
}

func TestGetPageSizeWithConfig(t *testing.T) {
	cfg := PaginationConfig{DefaultPageSize: 10, MaxPageSize: 100}

	// 缺省与非法值落在默认页大小
	assert.Equal(t, 10, GetPageSizeWithConfig(testCtx(t, ""), cfg))
	assert.Equal(t, 10, GetPageSizeWithConfig(testCtx(t, "pageSize=0"), cfg))
	// 超限截断到上限
	assert.Equal(t, 100, GetPageSizeWithConfig(testCtx(t, "pageSize=500"), cfg))
	assert.Equal(t, 20, GetPageSizeWithConfig(testCtx(t, "pageSize=20"), cfg))
}

func TestGetPageOffset(t *testing.T) {
	assert.Equal(t, 0, GetPageOffset(1, 10))
	assert.Equal(t, 10, GetPageOffset(2, 10))
	assert.Equal(t, 0, GetPageOffset(0, 10))
}
