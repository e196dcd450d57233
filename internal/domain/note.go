// Package domain 定义领域模型和接口
package domain

// Collaborator 笔记协作者，内嵌于笔记，以邮箱为键
type Collaborator struct {
	// Email 协作者邮箱，笔记内唯一
	Email string `json:"email"`
	// UID 身份系统用户 ID，被邀请时可能尚未注册，注册后补全
	UID string `json:"uid,omitempty"`
	// Permission 协作权限，viewer 或 editor
	Permission Permission `json:"permission"`
	// AddedAt 加入时间，毫秒时间戳
	AddedAt int64 `json:"addedAt"`
}

// Note 笔记领域模型
type Note struct {
	ID         string
	Title      string
	Content    string
	Owner      string
	OwnerEmail string
	OwnerName  string
	// Collaborators 协作者列表，插入序即展示序
	Collaborators []Collaborator
	// CollaboratorEmails collaborators 邮箱的冗余投影，用于按邮箱查询
	// 不变式: 与 Collaborators 中的邮箱集合严格一致
	CollaboratorEmails []string
	Pinned             bool
	// CreatedAt 创建时间，毫秒时间戳，创建后不变
	CreatedAt int64
	// UpdatedAt 最近一次成功写入时间，毫秒时间戳，单调不减
	UpdatedAt int64
}

// FindCollaborator 根据邮箱查找协作者，未找到返回 nil
func (n *Note) FindCollaborator(email string) *Collaborator {
	for i := range n.Collaborators {
		if n.Collaborators[i].Email == email {
			return &n.Collaborators[i]
		}
	}
	return nil
}

// HasCollaboratorEmail 判断邮箱是否在冗余投影中
func (n *Note) HasCollaboratorEmail(email string) bool {
	for _, e := range n.CollaboratorEmails {
		if e == email {
			return true
		}
	}
	return false
}

// Clone 返回笔记的深拷贝，用于事件分发时避免共享可变状态
func (n *Note) Clone() *Note {
	if n == nil {
		return nil
	}
	c := *n
	c.Collaborators = make([]Collaborator, len(n.Collaborators))
	copy(c.Collaborators, n.Collaborators)
	c.CollaboratorEmails = make([]string, len(n.CollaboratorEmails))
	copy(c.CollaboratorEmails, n.CollaboratorEmails)
	return &c
}
