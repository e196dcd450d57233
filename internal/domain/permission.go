package domain

// Permission 笔记访问权限级别
type Permission string

const (
	// PermissionOwner 所有者，最高权限，不出现在协作者列表中
	PermissionOwner Permission = "owner"
	// PermissionEditor 可编辑 title/content/pinned，不可管理协作者
	PermissionEditor Permission = "editor"
	// PermissionViewer 只读
	PermissionViewer Permission = "viewer"
	// PermissionNone 无权限
	PermissionNone Permission = "none"
)

// CanEdit 判断是否允许修改笔记内容
func (p Permission) CanEdit() bool {
	return p == PermissionOwner || p == PermissionEditor
}

// CanView 判断是否允许查看笔记
func (p Permission) CanView() bool {
	return p != PermissionNone
}

// ResolvePermission derives the viewer's effective access level from note data
// ResolvePermission 从笔记数据推导访问者的有效权限
// 纯函数: 无副作用，对任意输入都返回四个级别之一
// 所有者按 uid 判定；协作者按邮箱或 uid 匹配（邀请早于注册时只有邮箱可用）
// 未认证访问者（uid 与 email 均为空）恒为 none
func ResolvePermission(note *Note, viewerUID string, viewerEmail string) Permission {
	if note == nil {
		return PermissionNone
	}
	if viewerUID != "" && note.Owner == viewerUID {
		return PermissionOwner
	}
	if viewerUID == "" && viewerEmail == "" {
		return PermissionNone
	}
	for i := range note.Collaborators {
		c := &note.Collaborators[i]
		if (viewerEmail != "" && c.Email == viewerEmail) || (viewerUID != "" && c.UID != "" && c.UID == viewerUID) {
			return c.Permission
		}
	}
	return PermissionNone
}
