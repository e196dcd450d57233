// Package logger 定义统一的日志字段命名常量
package logger

// 统一的日志字段命名常量
// 用于确保整个项目中日志字段命名的一致性，便于日志查询和分析
const (
	// FieldTraceID 追踪 ID 字段
	FieldTraceID = "traceId"

	// FieldUID 用户 ID 字段
	FieldUID = "uid"

	// FieldEmail 邮箱字段
	FieldEmail = "email"

	// FieldNoteID 笔记 ID 字段
	FieldNoteID = "noteId"

	// FieldSessionID 会话 ID 字段
	FieldSessionID = "sessionId"

	// FieldPermission 权限字段
	FieldPermission = "permission"

	// FieldAction 操作类型字段
	FieldAction = "action"

	// FieldMethod 方法名称字段
	FieldMethod = "method"

	// FieldDuration 耗时字段
	FieldDuration = "duration"

	// FieldState 会话状态字段
	FieldState = "state"
)
