package websocket_router

import (
	"errors"

	"github.com/notewave/collab-note-service/internal/app"
	"github.com/notewave/collab-note-service/internal/dto"
	"github.com/notewave/collab-note-service/internal/service"
	"github.com/notewave/collab-note-service/internal/sync"
	pkgapp "github.com/notewave/collab-note-service/pkg/app"
	"github.com/notewave/collab-note-service/pkg/code"

	"go.uber.org/zap"
)

// sessionVaultPrefix 存入 WebsocketClient.Vault 的同步会话键前缀
const sessionVaultPrefix = "session:"

// NoteWSHandler WebSocket 笔记同步处理器
// 使用 App Container 注入依赖
type NoteWSHandler struct {
	*WSHandler
}

// NewNoteWSHandler 创建 NoteWSHandler 实例
func NewNoteWSHandler(a *app.App) *NoteWSHandler {
	return &NoteWSHandler{WSHandler: NewWSHandler(a)}
}

// UserInfo 授权阶段的用户有效性验证，返回连接绑定的用户数据
// 同连接并发的重复授权经 singleflight 合并为一次查询
func (h *NoteWSHandler) UserInfo(c *pkgapp.WebsocketClient, uid string) (*pkgapp.UserSelectEntity, error) {
	v, err, _ := c.SF.Do("userinfo:"+uid, func() (any, error) {
		return h.App.UserService.Get(c.Ctx.Request.Context(), uid)
	})
	if err != nil {
		return nil, err
	}
	user := v.(*service.UserDTO)
	return &pkgapp.UserSelectEntity{
		UID:         user.UID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Avatar:      user.AvatarURL,
	}, nil
}

// NoteSubscribe 为指定笔记建立同步会话
// 会话状态变化通过 NoteUpdate 动作主动推送给客户端
func (h *NoteWSHandler) NoteSubscribe(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	params := &dto.WSNoteSubscribeRequest{}

	valid, errs := c.BindAndValid(msg.Data, params)
	if !valid {
		c.ToResponse(code.ErrorInvalidParams.Clone().WithDetails(errs.Errors()...), msg.Type)
		return
	}

	viewer := sync.Viewer{UID: c.User.UID, Email: c.User.Email}
	cfg := sync.Config{DebounceInterval: h.App.Config().GetDebounceInterval()}

	session := sync.NewSession(h.App.Store, params.NoteID, viewer, cfg, h.App.Logger(), func(snap sync.Snapshot) {
		c.Push("NoteUpdate", snap)
	})

	if err := session.Subscribe(c.Ctx.Request.Context()); err != nil {
		h.respondError(c, code.ErrorSubscribeFailed, err, "websocket_router.note.NoteSubscribe")
		return
	}

	c.Vault.Store(sessionVaultPrefix+session.ID(), session)
	h.logInfo(c, "websocket_router.note.NoteSubscribe",
		zap.String("uid", c.User.UID),
		zap.String("noteId", params.NoteID),
		zap.String("sessionId", session.ID()))

	c.ToResponse(code.Success.Clone().WithData(session.Snapshot()), msg.Type)
}

// NoteEdit 接收一次本地编辑，交给会话防抖提交
func (h *NoteWSHandler) NoteEdit(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	params := &dto.WSNoteEditRequest{}

	valid, errs := c.BindAndValid(msg.Data, params)
	if !valid {
		c.ToResponse(code.ErrorInvalidParams.Clone().WithDetails(errs.Errors()...), msg.Type)
		return
	}

	session := h.session(c, params.SessionID)
	if session == nil {
		c.ToResponse(code.ErrorSessionNotFound.Clone(), msg.Type)
		return
	}

	if err := session.Edit(params.Title, params.Content); err != nil {
		switch {
		case errors.Is(err, sync.ErrEditDenied):
			c.ToResponse(code.ErrorNoteEditDenied.Clone(), msg.Type)
		case errors.Is(err, sync.ErrNotSubscribed):
			c.ToResponse(code.ErrorSessionNotFound.Clone(), msg.Type)
		default:
			h.respondError(c, code.ErrorCommitFailed, err, "websocket_router.note.NoteEdit")
		}
		return
	}
}

// NoteUnsubscribe 注销同步会话并丢弃未提交的防抖内容
func (h *NoteWSHandler) NoteUnsubscribe(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	params := &dto.WSNoteUnsubscribeRequest{}

	valid, errs := c.BindAndValid(msg.Data, params)
	if !valid {
		c.ToResponse(code.ErrorInvalidParams.Clone().WithDetails(errs.Errors()...), msg.Type)
		return
	}

	session := h.session(c, params.SessionID)
	if session == nil {
		c.ToResponse(code.ErrorSessionNotFound.Clone(), msg.Type)
		return
	}

	session.Unsubscribe()
	c.Vault.Delete(sessionVaultPrefix + params.SessionID)
	h.logInfo(c, "websocket_router.note.NoteUnsubscribe",
		zap.String("uid", c.User.UID),
		zap.String("sessionId", params.SessionID))

	c.ToResponse(code.Success.Clone(), msg.Type)
}

// ConnectionClose 连接关闭时清理该连接持有的全部会话与聚合订阅
func (h *NoteWSHandler) ConnectionClose(c *pkgapp.WebsocketClient) {
	c.Vault.Range(func(key, value any) bool {
		switch v := value.(type) {
		case *sync.Session:
			v.Unsubscribe()
		case *sync.Collection:
			v.Unsubscribe()
		}
		c.Vault.Delete(key)
		return true
	})
}

func (h *NoteWSHandler) session(c *pkgapp.WebsocketClient, sessionID string) *sync.Session {
	value, ok := c.Vault.Load(sessionVaultPrefix + sessionID)
	if !ok {
		return nil
	}
	session, ok := value.(*sync.Session)
	if !ok {
		return nil
	}
	return session
}
