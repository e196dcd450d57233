// Package api_router 提供 HTTP API 路由处理器
package api_router

import (
	"github.com/notewave/collab-note-service/internal/app"
	"github.com/notewave/collab-note-service/internal/middleware"
	"github.com/notewave/collab-note-service/internal/service"
	pkgapp "github.com/notewave/collab-note-service/pkg/app"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 基础 Handler 结构体，封装 App Container
// 所有 API Handler 都应该嵌入此结构体以获得依赖注入能力
type Handler struct {
	App *app.App
}

// NewHandler 创建基础 Handler 实例
func NewHandler(a *app.App) *Handler {
	return &Handler{App: a}
}

// identity 从请求上下文提取调用者身份（由认证中间件写入）
// 未认证请求返回零值 Identity，由 Service 层决定拒绝方式
func (h *Handler) identity(c *gin.Context) service.Identity {
	return service.Identity{
		UID:   pkgapp.GetUID(c),
		Email: pkgapp.GetUserEmail(c),
	}
}

// identityWithProfile 在 identity 基础上补全展示名与头像
// 用于需要写入所有者快照的操作（如创建笔记）
func (h *Handler) identityWithProfile(c *gin.Context) service.Identity {
	viewer := h.identity(c)
	if viewer.UID == "" {
		return viewer
	}
	if u, err := h.App.UserService.Get(c.Request.Context(), viewer.UID); err == nil {
		viewer.DisplayName = u.DisplayName
		viewer.AvatarURL = u.AvatarURL
	}
	return viewer
}

// logError 记录错误日志，包含 Trace ID
func (h *Handler) logError(c *gin.Context, method string, err error) {
	h.App.Logger().Error(method,
		zap.Error(err),
		zap.String("traceId", middleware.GetTraceIDFromGin(c)),
	)
}
