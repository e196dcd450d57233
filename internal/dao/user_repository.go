package dao

import (
	"context"
	"time"

	"github.com/notewave/collab-note-service/internal/domain"
	"github.com/notewave/collab-note-service/internal/model"
	"github.com/notewave/collab-note-service/pkg/timex"
)

// userRepository 实现 domain.UserRepository 接口
type userRepository struct {
	dao *Dao
}

// NewUserRepository 创建 UserRepository 实例
func NewUserRepository(dao *Dao) domain.UserRepository {
	return &userRepository{dao: dao}
}

func (r *userRepository) toDomain(m *model.User) *domain.User {
	if m == nil {
		return nil
	}
	return &domain.User{
		UID:         m.UID,
		Email:       m.Email,
		DisplayName: m.DisplayName,
		AvatarURL:   m.AvatarURL,
		Password:    m.Password,
		CreatedAt:   time.Time(m.CreatedAt),
	}
}

// GetByUID 根据 UID 获取用户
func (r *userRepository) GetByUID(ctx context.Context, uid string) (*domain.User, error) {
	var m model.User
	if err := r.dao.db.WithContext(ctx).Where("uid = ?", uid).First(&m).Error; err != nil {
		return nil, err
	}
	return r.toDomain(&m), nil
}

// GetByEmail 根据邮箱获取用户
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var m model.User
	if err := r.dao.db.WithContext(ctx).Where("email = ?", email).First(&m).Error; err != nil {
		return nil, err
	}
	return r.toDomain(&m), nil
}

// Create 创建用户
func (r *userRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	m := &model.User{
		UID:         user.UID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		AvatarURL:   user.AvatarURL,
		Password:    user.Password,
		CreatedAt:   timex.Time(user.CreatedAt),
	}
	if err := r.dao.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return r.toDomain(m), nil
}

var _ domain.UserRepository = (*userRepository)(nil)
