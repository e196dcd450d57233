// Package dto 定义请求参数结构体与验证规则
package dto

// NoteCreateRequest 创建笔记
type NoteCreateRequest struct {
	Title   string `json:"title" form:"title"`
	Content string `json:"content" form:"content"`
}

// NoteGetRequest 获取单条笔记
type NoteGetRequest struct {
	ID string `json:"id" form:"id" uri:"id" binding:"required"`
}

// NoteUpdateRequest 更新笔记内容（整文档替换）
type NoteUpdateRequest struct {
	ID      string `json:"id" form:"id" binding:"required"`
	Title   string `json:"title" form:"title"`
	Content string `json:"content" form:"content"`
}

// NotePinRequest 置顶开关
type NotePinRequest struct {
	ID     string `json:"id" form:"id" binding:"required"`
	Pinned bool   `json:"pinned" form:"pinned"`
}

// NoteDeleteRequest 删除笔记
type NoteDeleteRequest struct {
	ID string `json:"id" form:"id" binding:"required"`
}
