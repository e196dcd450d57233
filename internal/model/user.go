package model

import (
	"github.com/notewave/collab-note-service/pkg/timex"
)

// User 用户数据库模型
type User struct {
	UID         string     `gorm:"column:uid;primaryKey;size:36"`
	Email       string     `gorm:"column:email;size:255;uniqueIndex"`
	DisplayName string     `gorm:"column:display_name;size:255"`
	AvatarURL   string     `gorm:"column:avatar_url;size:512"`
	Password    string     `gorm:"column:password;size:128"`
	CreatedAt   timex.Time `gorm:"column:created_at"`
}
