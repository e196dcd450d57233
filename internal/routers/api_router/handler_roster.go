package api_router

import (
	"github.com/notewave/collab-note-service/internal/app"
	"github.com/notewave/collab-note-service/internal/dto"
	pkgapp "github.com/notewave/collab-note-service/pkg/app"
	"github.com/notewave/collab-note-service/pkg/code"
	apperrors "github.com/notewave/collab-note-service/pkg/errors"

	"github.com/gin-gonic/gin"
)

// RosterHandler 协作者名册路由处理器
type RosterHandler struct {
	*Handler
}

// NewRosterHandler 创建 RosterHandler 实例
func NewRosterHandler(a *app.App) *RosterHandler {
	return &RosterHandler{Handler: NewHandler(a)}
}

// Upsert 按邮箱新增或更新协作者，仅所有者可操作
func (h *RosterHandler) Upsert(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.RosterUpsertRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		response.ToResponse(code.ErrorInvalidParams.Clone().WithDetails(errs.Errors()...))
		return
	}

	noteDTO, err := h.App.RosterService.Upsert(c.Request.Context(), h.identity(c), params)
	if err != nil {
		h.logError(c, "RosterHandler.Upsert", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.Clone().WithData(noteDTO))
}

// Remove 按邮箱移除协作者，缺席即幂等空操作
func (h *RosterHandler) Remove(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.RosterRemoveRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		response.ToResponse(code.ErrorInvalidParams.Clone().WithDetails(errs.Errors()...))
		return
	}

	noteDTO, err := h.App.RosterService.Remove(c.Request.Context(), h.identity(c), params)
	if err != nil {
		h.logError(c, "RosterHandler.Remove", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.Clone().WithData(noteDTO))
}
