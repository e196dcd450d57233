package model

// ShareLink 分享链接数据库模型
type ShareLink struct {
	ID        int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Token     string `gorm:"column:token;size:64;uniqueIndex"`
	NoteID    string `gorm:"column:note_id;size:36;index"`
	Mode      string `gorm:"column:mode;size:8"`
	CreatedBy string `gorm:"column:created_by;size:36"`
	CreatedAt int64  `gorm:"column:created_at"`
	ExpiresAt int64  `gorm:"column:expires_at;index"`
}
