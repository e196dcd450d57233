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

// UserHandler 用户 API 路由处理器
// 使用 App Container 注入依赖，支持统一错误处理
type UserHandler struct {
	*Handler
}

// NewUserHandler 创建 UserHandler 实例
func NewUserHandler(a *app.App) *UserHandler {
	return &UserHandler{Handler: NewHandler(a)}
}

// Register 用户注册
// 注册功能可能在服务器设置中被禁用
func (h *UserHandler) Register(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.UserRegisterRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("UserHandler.Register.BindAndValid errs", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.Clone().WithDetails(errs.Errors()...))
		return
	}

	userDTO, err := h.App.UserService.Register(c.Request.Context(), params, pkgapp.GetRequestIP(c))
	if err != nil {
		h.logError(c, "UserHandler.Register", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.Clone().WithData(userDTO))
}

// Login 用户登录，返回认证 Token
func (h *UserHandler) Login(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.UserLoginRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("UserHandler.Login.BindAndValid errs", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.Clone().WithDetails(errs.Errors()...))
		return
	}

	userDTO, err := h.App.UserService.Login(c.Request.Context(), params, pkgapp.GetRequestIP(c))
	if err != nil {
		h.logError(c, "UserHandler.Login", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.Clone().WithData(userDTO))
}

// Info 返回当前登录用户的档案
func (h *UserHandler) Info(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	userDTO, err := h.App.UserService.Get(c.Request.Context(), pkgapp.GetUID(c))
	if err != nil {
		h.logError(c, "UserHandler.Info", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.Clone().WithData(userDTO))
}
