package api_router

import (
	"github.com/notewave/collab-note-service/internal/app"
	"github.com/notewave/collab-note-service/internal/dto"
	pkgapp "github.com/notewave/collab-note-service/pkg/app"
	"github.com/notewave/collab-note-service/pkg/code"
	apperrors "github.com/notewave/collab-note-service/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NoteHandler 笔记 API 路由处理器
type NoteHandler struct {
	*Handler
}

// NewNoteHandler 创建 NoteHandler 实例
func NewNoteHandler(a *app.App) *NoteHandler {
	return &NoteHandler{Handler: NewHandler(a)}
}

// Create 创建笔记，调用者成为所有者
func (h *NoteHandler) Create(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.NoteCreateRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("NoteHandler.Create.BindAndValid errs", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.Clone().WithDetails(errs.Errors()...))
		return
	}

	noteDTO, err := h.App.NoteService.Create(c.Request.Context(), h.identityWithProfile(c), params)
	if err != nil {
		h.logError(c, "NoteHandler.Create", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.Clone().WithData(noteDTO))
}

// Get 获取单条笔记（含调用者的有效权限）
func (h *NoteHandler) Get(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.NoteGetRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		response.ToResponse(code.ErrorInvalidParams.Clone().WithDetails(errs.Errors()...))
		return
	}

	noteDTO, err := h.App.NoteService.Get(c.Request.Context(), h.identity(c), params)
	if err != nil {
		h.logError(c, "NoteHandler.Get", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.Clone().WithData(noteDTO))
}

// Update 整文档替换 title+content，updatedAt 由服务端打戳
func (h *NoteHandler) Update(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.NoteUpdateRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		response.ToResponse(code.ErrorInvalidParams.Clone().WithDetails(errs.Errors()...))
		return
	}

	noteDTO, err := h.App.NoteService.Update(c.Request.Context(), h.identity(c), params)
	if err != nil {
		h.logError(c, "NoteHandler.Update", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.Clone().WithData(noteDTO))
}

// Pin 置顶开关
func (h *NoteHandler) Pin(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.NotePinRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		response.ToResponse(code.ErrorInvalidParams.Clone().WithDetails(errs.Errors()...))
		return
	}

	if err := h.App.NoteService.TogglePin(c.Request.Context(), h.identity(c), params); err != nil {
		h.logError(c, "NoteHandler.Pin", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.Clone())
}

// Delete 删除笔记，仅所有者，连带清理共享链接
func (h *NoteHandler) Delete(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.NoteDeleteRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		response.ToResponse(code.ErrorInvalidParams.Clone().WithDetails(errs.Errors()...))
		return
	}

	if err := h.App.NoteService.Delete(c.Request.Context(), h.identity(c), params); err != nil {
		h.logError(c, "NoteHandler.Delete", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.Clone())
}

// List 一次性获取调用者可见的全部笔记（自有+共享，去重，按 updatedAt 降序）
func (h *NoteHandler) List(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	notes, err := h.App.NoteService.List(c.Request.Context(), h.identity(c))
	if err != nil {
		h.logError(c, "NoteHandler.List", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	// 列表已按 updatedAt 倒序，这里按请求页码切片
	total := len(notes)
	offset := pkgapp.GetPageOffset(pkgapp.GetPage(c), pkgapp.GetPageSize(c))
	if offset > total {
		offset = total
	}
	end := offset + pkgapp.GetPageSize(c)
	if end > total {
		end = total
	}

	response.ToResponseList(code.Success.Clone(), notes[offset:end], total)
}
