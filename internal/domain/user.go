package domain

import "time"

// User 用户领域模型，即规格中的身份提供方档案
type User struct {
	// UID 不透明的稳定用户标识，所有权比较的唯一依据
	UID string
	// Email 协作者匹配的唯一依据
	Email string
	// DisplayName 展示名称
	DisplayName string
	// AvatarURL 头像地址
	AvatarURL string
	// Password bcrypt 哈希
	Password  string
	CreatedAt time.Time
}
