package dto

// ShareCreateRequest 创建共享链接
type ShareCreateRequest struct {
	NoteID string `json:"noteId" form:"noteId" binding:"required"`
	Mode   string `json:"mode" form:"mode" binding:"required,oneof=view edit"`
	// ExpiresIn 有效期，如 "7d" "24h"，空表示不过期
	ExpiresIn string `json:"expiresIn" form:"expiresIn"`
}

// ShareVisitRequest 访问共享链接
type ShareVisitRequest struct {
	Token string `json:"token" form:"token" uri:"token" binding:"required"`
}
