package dao

import (
	"context"

	"github.com/notewave/collab-note-service/internal/domain"
	"github.com/notewave/collab-note-service/internal/model"
)

// shareRepository 实现 domain.ShareRepository 接口
type shareRepository struct {
	dao *Dao
}

// NewShareRepository 创建 ShareRepository 实例
func NewShareRepository(dao *Dao) domain.ShareRepository {
	return &shareRepository{dao: dao}
}

func (r *shareRepository) toDomain(m *model.ShareLink) *domain.ShareLink {
	if m == nil {
		return nil
	}
	return &domain.ShareLink{
		ID:        m.ID,
		Token:     m.Token,
		NoteID:    m.NoteID,
		Mode:      domain.ShareMode(m.Mode),
		CreatedBy: m.CreatedBy,
		CreatedAt: m.CreatedAt,
		ExpiresAt: m.ExpiresAt,
	}
}

// GetByToken 根据令牌获取分享记录
func (r *shareRepository) GetByToken(ctx context.Context, token string) (*domain.ShareLink, error) {
	var m model.ShareLink
	if err := r.dao.db.WithContext(ctx).Where("token = ?", token).First(&m).Error; err != nil {
		return nil, err
	}
	return r.toDomain(&m), nil
}

// Create 创建分享记录
func (r *shareRepository) Create(ctx context.Context, link *domain.ShareLink) (*domain.ShareLink, error) {
	m := &model.ShareLink{
		Token:     link.Token,
		NoteID:    link.NoteID,
		Mode:      string(link.Mode),
		CreatedBy: link.CreatedBy,
		CreatedAt: link.CreatedAt,
		ExpiresAt: link.ExpiresAt,
	}
	if err := r.dao.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return r.toDomain(m), nil
}

// DeleteByNoteID 删除笔记的全部分享记录
func (r *shareRepository) DeleteByNoteID(ctx context.Context, noteID string) error {
	return r.dao.db.WithContext(ctx).Where("note_id = ?", noteID).Delete(&model.ShareLink{}).Error
}

// DeleteExpired 删除过期的分享记录
func (r *shareRepository) DeleteExpired(ctx context.Context, now int64) (int64, error) {
	result := r.dao.db.WithContext(ctx).
		Where("expires_at > 0 AND expires_at <= ?", now).
		Delete(&model.ShareLink{})
	return result.RowsAffected, result.Error
}

var _ domain.ShareRepository = (*shareRepository)(nil)
