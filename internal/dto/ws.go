package dto

// WSNoteSubscribeRequest 订阅单个笔记的同步会话
type WSNoteSubscribeRequest struct {
	NoteID string `json:"noteId" binding:"required"`
}

// WSNoteEditRequest 一次本地编辑（整份 title+content）
type WSNoteEditRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
	Title     string `json:"title"`
	Content   string `json:"content"`
}

// WSNoteUnsubscribeRequest 注销同步会话
type WSNoteUnsubscribeRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
}

// WSCollectionSubscribeRequest 订阅聚合列表，无参数但保留结构便于扩展
type WSCollectionSubscribeRequest struct {
}

// WSCollectionUnsubscribeRequest 注销聚合列表订阅
type WSCollectionUnsubscribeRequest struct {
}
