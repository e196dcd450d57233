package domain

// ShareMode 分享链接请求的访问模式
type ShareMode string

const (
	ShareModeView ShareMode = "view"
	ShareModeEdit ShareMode = "edit"
)

// ParseShareMode 解析访问模式，非法输入回退为 view
func ParseShareMode(s string) ShareMode {
	if s == string(ShareModeEdit) {
		return ShareModeEdit
	}
	return ShareModeView
}

// ShareLink 笔记分享链接记录
type ShareLink struct {
	ID     int64
	Token  string
	NoteID string
	// Mode 链接请求的模式，实际权限以访问者解析结果为准，只降不升
	Mode      ShareMode
	CreatedBy string
	CreatedAt int64
	// ExpiresAt 过期时间毫秒时间戳，0 表示永不过期
	ExpiresAt int64
}

// Expired 判断链接在 now（毫秒）时刻是否已过期
func (l *ShareLink) Expired(now int64) bool {
	return l.ExpiresAt > 0 && now >= l.ExpiresAt
}

// EffectivePermission resolves the capability a share-link visitor ends up with
// EffectivePermission 计算分享链接访问者的最终能力
// 规则: 请求 edit 且解析权限可编辑才获得编辑能力；viewer 请求 edit 静默降级为只读；
// none 始终是拒绝访问，绝不降级为 viewer
func (l *ShareLink) EffectivePermission(resolved Permission) Permission {
	if !resolved.CanView() {
		return PermissionNone
	}
	if l.Mode == ShareModeEdit && resolved.CanEdit() {
		return resolved
	}
	if resolved == PermissionOwner || resolved == PermissionEditor {
		// 链接只请求了 view，能力收敛为只读
		return PermissionViewer
	}
	return resolved
}
