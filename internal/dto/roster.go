package dto

// RosterUpsertRequest 添加或更新协作者（按邮箱 upsert）
type RosterUpsertRequest struct {
	NoteID     string `json:"noteId" form:"noteId" binding:"required"`
	Email      string `json:"email" form:"email" binding:"required,email"`
	Permission string `json:"permission" form:"permission" binding:"required,oneof=viewer editor"`
}

// RosterRemoveRequest 移除协作者，移除不存在的邮箱为幂等成功
type RosterRemoveRequest struct {
	NoteID string `json:"noteId" form:"noteId" binding:"required"`
	Email  string `json:"email" form:"email" binding:"required,email"`
}
