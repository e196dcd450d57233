// Package service 实现业务逻辑层
package service

import (
	"time"
)

// Identity 已认证用户的会话上下文
// 登录时建立，登出时销毁，显式传入每个需要它的操作（不使用全局可变状态）
type Identity struct {
	UID         string
	Email       string
	DisplayName string
	AvatarURL   string
}

// Authenticated 是否携带有效身份
func (id Identity) Authenticated() bool {
	return id.UID != ""
}

// ServiceConfig 服务层配置
type ServiceConfig struct {
	// RegisterIsOpen 是否开放注册
	RegisterIsOpen bool
	// DebounceInterval 同步会话防抖提交延迟
	DebounceInterval time.Duration
	// ShareTokenLength 共享链接 token 长度
	ShareTokenLength int
	// DefaultNoteTitle 新建笔记的默认标题
	DefaultNoteTitle string
}

// Normalize 填充默认值
func (c *ServiceConfig) Normalize() {
	if c.DebounceInterval <= 0 {
		c.DebounceInterval = time.Second
	}
	if c.ShareTokenLength <= 0 {
		c.ShareTokenLength = 32
	}
	if c.DefaultNoteTitle == "" {
		c.DefaultNoteTitle = "Untitled Note"
	}
}
