package domain

import "context"

// NoteRepository 笔记仓储接口
type NoteRepository interface {
	// GetByID 根据 ID 获取笔记
	GetByID(ctx context.Context, id string) (*Note, error)

	// Create 创建笔记，返回持久化后的笔记（含存储分配的 ID）
	Create(ctx context.Context, note *Note) (*Note, error)

	// UpdateFields 按字段名部分更新，笔记不存在时返回错误
	UpdateFields(ctx context.Context, id string, fields map[string]any) error

	// Delete 物理删除笔记
	Delete(ctx context.Context, id string) error

	// ListByOwner 获取用户拥有的笔记，按 updatedAt 倒序
	ListByOwner(ctx context.Context, ownerUID string) ([]*Note, error)

	// ListByCollaboratorEmail 获取邮箱出现在协作者投影中的笔记，按 updatedAt 倒序
	ListByCollaboratorEmail(ctx context.Context, email string) ([]*Note, error)
}

// UserRepository 用户仓储接口
type UserRepository interface {
	// GetByUID 根据 UID 获取用户
	GetByUID(ctx context.Context, uid string) (*User, error)

	// GetByEmail 根据邮箱获取用户
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Create 创建用户
	Create(ctx context.Context, user *User) (*User, error)
}

// ShareRepository 分享链接仓储接口
type ShareRepository interface {
	// GetByToken 根据令牌获取分享记录
	GetByToken(ctx context.Context, token string) (*ShareLink, error)

	// Create 创建分享记录
	Create(ctx context.Context, link *ShareLink) (*ShareLink, error)

	// DeleteByNoteID 删除笔记的全部分享记录
	DeleteByNoteID(ctx context.Context, noteID string) error

	// DeleteExpired 删除过期的分享记录，返回删除数量
	DeleteExpired(ctx context.Context, now int64) (int64, error)
}
