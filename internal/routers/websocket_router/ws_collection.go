package websocket_router

import (
	"github.com/notewave/collab-note-service/internal/app"
	"github.com/notewave/collab-note-service/internal/dto"
	"github.com/notewave/collab-note-service/internal/sync"
	pkgapp "github.com/notewave/collab-note-service/pkg/app"
	"github.com/notewave/collab-note-service/pkg/code"

	"go.uber.org/zap"
)

// collectionVaultKey 存入 WebsocketClient.Vault 的聚合订阅键，每连接最多一个
const collectionVaultKey = "collection"

// CollectionWSHandler WebSocket 聚合列表处理器
type CollectionWSHandler struct {
	*WSHandler
}

// NewCollectionWSHandler 创建 CollectionWSHandler 实例
func NewCollectionWSHandler(a *app.App) *CollectionWSHandler {
	return &CollectionWSHandler{WSHandler: NewWSHandler(a)}
}

// CollectionSubscribe 订阅调用者可见的全部笔记聚合列表
// 两路（自有/共享）加载完成前 loading 为真，变更通过 CollectionUpdate 推送
func (h *CollectionWSHandler) CollectionSubscribe(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	params := &dto.WSCollectionSubscribeRequest{}

	if len(msg.Data) > 0 {
		if valid, errs := c.BindAndValid(msg.Data, params); !valid {
			c.ToResponse(code.ErrorInvalidParams.Clone().WithDetails(errs.Errors()...), msg.Type)
			return
		}
	}

	// 同连接重复订阅先注销旧订阅
	if old := h.collection(c); old != nil {
		old.Unsubscribe()
		c.Vault.Delete(collectionVaultKey)
	}

	viewer := sync.Viewer{UID: c.User.UID, Email: c.User.Email}
	collection := sync.NewCollection(h.App.Store, viewer, h.App.Logger(), func(snap sync.CollectionSnapshot) {
		c.Push("CollectionUpdate", snap)
	})

	if err := collection.Subscribe(c.Ctx.Request.Context()); err != nil {
		h.respondError(c, code.ErrorSubscribeFailed, err, "websocket_router.collection.CollectionSubscribe")
		return
	}

	c.Vault.Store(collectionVaultKey, collection)
	h.logInfo(c, "websocket_router.collection.CollectionSubscribe", zap.String("uid", c.User.UID))

	c.ToResponse(code.Success.Clone().WithData(collection.Snapshot()), msg.Type)
}

// CollectionUnsubscribe 注销聚合列表订阅
func (h *CollectionWSHandler) CollectionUnsubscribe(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	collection := h.collection(c)
	if collection == nil {
		c.ToResponse(code.ErrorSessionNotFound.Clone(), msg.Type)
		return
	}

	collection.Unsubscribe()
	c.Vault.Delete(collectionVaultKey)
	h.logInfo(c, "websocket_router.collection.CollectionUnsubscribe", zap.String("uid", c.User.UID))

	c.ToResponse(code.Success.Clone(), msg.Type)
}

func (h *CollectionWSHandler) collection(c *pkgapp.WebsocketClient) *sync.Collection {
	value, ok := c.Vault.Load(collectionVaultKey)
	if !ok {
		return nil
	}
	collection, ok := value.(*sync.Collection)
	if !ok {
		return nil
	}
	return collection
}
