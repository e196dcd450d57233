package api_router

import (
	"time"

	"github.com/notewave/collab-note-service/internal/app"
	pkgapp "github.com/notewave/collab-note-service/pkg/app"
	"github.com/notewave/collab-note-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	*Handler
}

// NewHealthHandler 创建健康检查处理器实例
func NewHealthHandler(a *app.App) *HealthHandler {
	return &HealthHandler{Handler: NewHandler(a)}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status   string  `json:"status"`   // "healthy" 或 "unhealthy"
	Version  string  `json:"version"`  // 服务版本号
	Uptime   float64 `json:"uptime"`   // 运行时间（秒）
	Database string  `json:"database"` // "connected" 或 "error"
}

// Check 健康检查接口，数据库探活失败时状态降级
func (h *HealthHandler) Check(c *gin.Context) {
	health := HealthResponse{
		Status:   "healthy",
		Version:  h.App.Version().Version,
		Uptime:   time.Since(h.App.StartTime).Seconds(),
		Database: "connected",
	}

	if err := h.App.DB.Raw("SELECT 1").Error; err != nil {
		health.Status = "unhealthy"
		health.Database = "error"
		pkgapp.NewResponse(c).ToResponse(code.ErrorServerInternal.Clone().WithData(health))
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.Clone().WithData(health))
}
