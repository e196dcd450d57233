package api_router

import (
	"github.com/notewave/collab-note-service/internal/app"
	"github.com/notewave/collab-note-service/internal/dto"
	pkgapp "github.com/notewave/collab-note-service/pkg/app"
	"github.com/notewave/collab-note-service/pkg/code"
	apperrors "github.com/notewave/collab-note-service/pkg/errors"

	"github.com/gin-gonic/gin"
)

// ShareHandler 共享链接路由处理器
type ShareHandler struct {
	*Handler
}

// NewShareHandler 创建 ShareHandler 实例
func NewShareHandler(a *app.App) *ShareHandler {
	return &ShareHandler{Handler: NewHandler(a)}
}

// Create 为笔记创建共享链接，仅所有者可操作
func (h *ShareHandler) Create(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.ShareCreateRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		response.ToResponse(code.ErrorInvalidParams.Clone().WithDetails(errs.Errors()...))
		return
	}

	shareDTO, err := h.App.ShareService.Create(c.Request.Context(), h.identity(c), params)
	if err != nil {
		h.logError(c, "ShareHandler.Create", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.Clone().WithData(shareDTO))
}

// Visit 通过令牌访问共享笔记，允许匿名访问，
// 有效权限按链接模式与名册权限取低
func (h *ShareHandler) Visit(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.ShareVisitRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		response.ToResponse(code.ErrorInvalidParams.Clone().WithDetails(errs.Errors()...))
		return
	}

	visitDTO, err := h.App.ShareService.Visit(c.Request.Context(), h.identity(c), params)
	if err != nil {
		h.logError(c, "ShareHandler.Visit", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.Clone().WithData(visitDTO))
}
