// Package store 提供笔记权威存储与变更订阅的统一抽象
// 写入经 writequeue 串行化落库，变更经 bus 推送给所有订阅方
package store

import (
	"context"

	"github.com/notewave/collab-note-service/internal/domain"

	"github.com/pkg/errors"
)

// ErrNotFound 文档不存在
var ErrNotFound = errors.New("store: document not found")

// Query 订阅查询条件，三个字段互斥，只允许设置一个
// Query 支持的谓词：笔记 ID 等值、所有者等值、协作邮箱集合成员
type Query struct {
	// NoteID 订阅单个笔记
	NoteID string
	// OwnerUID 订阅某用户拥有的全部笔记
	OwnerUID string
	// CollaboratorEmail 订阅协作邮箱投影中包含该邮箱的全部笔记
	CollaboratorEmail string
}

// Valid 查询条件是否恰好设置了一个谓词
func (q Query) Valid() bool {
	n := 0
	if q.NoteID != "" {
		n++
	}
	if q.OwnerUID != "" {
		n++
	}
	if q.CollaboratorEmail != "" {
		n++
	}
	return n == 1
}

// Event 一次变更推送，快照或错误二选一
// 快照始终为查询条件此刻的完整结果集，按 updatedAt 降序
type Event struct {
	Notes []*domain.Note
	Err   error
}

// Subscription 变更订阅句柄
type Subscription interface {
	// C 事件通道，订阅取消后关闭
	C() <-chan Event
	// Unsubscribe 同步取消订阅，返回后不再有事件投递
	Unsubscribe()
}

// Store 笔记存储契约
type Store interface {
	// Subscribe 建立变更订阅，首个事件为当前快照
	Subscribe(ctx context.Context, q Query) (Subscription, error)
	// GetOnce 单次读取，文档不存在返回 ErrNotFound
	GetOnce(ctx context.Context, id string) (*domain.Note, error)
	// Create 创建文档并返回分配的 ID
	Create(ctx context.Context, note *domain.Note) (string, error)
	// UpdateFields 合并更新指定字段，其余字段不动
	// updatedAt 由存储层统一盖章，文档不存在返回 ErrNotFound
	UpdateFields(ctx context.Context, id string, fields map[string]any) error
	// Delete 删除文档
	Delete(ctx context.Context, id string) error
}
