package model

import (
	"database/sql/driver"
	"fmt"

	"github.com/bytedance/sonic"
)

// Collaborator 协作者的持久化形态，以 JSON 列整体存储
type Collaborator struct {
	Email      string `json:"email"`
	UID        string `json:"uid,omitempty"`
	Permission string `json:"permission"`
	AddedAt    int64  `json:"addedAt"`
}

// CollaboratorList JSON 序列化的协作者列表列
type CollaboratorList []Collaborator

// Value 实现 driver.Valuer
func (l CollaboratorList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := sonic.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 实现 sql.Scanner
func (l *CollaboratorList) Scan(v any) error {
	return scanJSON(v, l)
}

// StringList JSON 序列化的字符串集合列
// 存储为 JSON 数组，元素带引号，按邮箱查询时用 LIKE '%"email"%' 精确命中
type StringList []string

// Value 实现 driver.Valuer
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := sonic.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 实现 sql.Scanner
func (l *StringList) Scan(v any) error {
	return scanJSON(v, l)
}

func scanJSON(v any, dst any) error {
	switch value := v.(type) {
	case []byte:
		if len(value) == 0 {
			return nil
		}
		return sonic.Unmarshal(value, dst)
	case string:
		if value == "" {
			return nil
		}
		return sonic.Unmarshal([]byte(value), dst)
	case nil:
		return nil
	default:
		return fmt.Errorf("can not scan %T into JSON column", v)
	}
}

// Note 笔记数据库模型
type Note struct {
	ID                 string           `gorm:"column:id;primaryKey;size:36"`
	Title              string           `gorm:"column:title"`
	Content            string           `gorm:"column:content"`
	Owner              string           `gorm:"column:owner;size:36;index"`
	OwnerEmail         string           `gorm:"column:owner_email;size:255"`
	OwnerName          string           `gorm:"column:owner_name;size:255"`
	Collaborators      CollaboratorList `gorm:"column:collaborators;type:text"`
	CollaboratorEmails StringList       `gorm:"column:collaborator_emails;type:text"`
	Pinned             bool             `gorm:"column:pinned"`
	CreatedAt          int64            `gorm:"column:created_at"`
	UpdatedAt          int64            `gorm:"column:updated_at;index"`
}
