package code

// 成功码
var (
	Success = NewSuss(200, lang{en: "Success", zh_cn: "成功"})
)

// 通用错误码
var (
	ErrorServerInternal  = NewError(500, lang{en: "Server internal error", zh_cn: "服务内部错误"})
	ErrorInvalidParams   = NewError(400, lang{en: "Invalid request parameters", zh_cn: "入参错误"})
	ErrorNotFound        = NewError(404, lang{en: "Resource not found", zh_cn: "资源不存在"})
	ErrorTooManyRequests = NewError(429, lang{en: "Too many requests", zh_cn: "请求过多"})
	ErrorDBQuery         = NewError(503, lang{en: "Database query error", zh_cn: "数据库查询错误"})
	ErrorTransientIO     = NewError(504, lang{en: "Storage operation failed, please retry", zh_cn: "存储操作失败，请重试"})
)

// 用户与认证错误码 10000 段
var (
	ErrorNotUserAuthToken       = NewError(10001, lang{en: "Authorization token required", zh_cn: "需要认证令牌"})
	ErrorInvalidUserAuthToken   = NewError(10002, lang{en: "Invalid authorization token", zh_cn: "认证令牌无效"})
	ErrorUserRegisterFailed     = NewError(10003, lang{en: "User registration failed", zh_cn: "用户注册失败"})
	ErrorUserRegisterDisabled   = NewError(10004, lang{en: "User registration is disabled", zh_cn: "用户注册已关闭"})
	ErrorUserEmailAlreadyExists = NewError(10005, lang{en: "Email already registered", zh_cn: "邮箱已被注册"})
	ErrorUserLoginFailed        = NewError(10006, lang{en: "Incorrect email or password", zh_cn: "邮箱或密码错误"})
	ErrorUserNotFound           = NewError(10007, lang{en: "User not found", zh_cn: "用户不存在"})
)

// 笔记错误码 20000 段
var (
	ErrorNoteNotFound     = NewError(20001, lang{en: "Note not found", zh_cn: "笔记不存在"})
	ErrorNoteAccessDenied = NewError(20002, lang{en: "You don't have permission to access this note", zh_cn: "没有访问该笔记的权限"})
	ErrorNoteEditDenied   = NewError(20003, lang{en: "You don't have permission to edit this note", zh_cn: "没有编辑该笔记的权限"})
	ErrorNoteCreateFailed = NewError(20004, lang{en: "Note creation failed", zh_cn: "笔记创建失败"})
	ErrorNoteModifyFailed = NewError(20005, lang{en: "Note modification failed", zh_cn: "笔记修改失败"})
	ErrorNoteDeleteFailed = NewError(20006, lang{en: "Note deletion failed", zh_cn: "笔记删除失败"})
)

// 协作者错误码 21000 段
var (
	ErrorRosterUpdateFailed = NewError(21001, lang{en: "Collaborator update failed", zh_cn: "协作者更新失败"})
	ErrorRosterOwneronly    = NewError(21002, lang{en: "Only the owner can manage collaborators", zh_cn: "仅所有者可以管理协作者"})
	ErrorRosterSelfInvite   = NewError(21003, lang{en: "The owner is not a collaborator", zh_cn: "所有者无需添加为协作者"})
)

// 分享错误码 22000 段
var (
	ErrorShareLinkInvalid  = NewError(22001, lang{en: "Share link is invalid or expired", zh_cn: "分享链接无效或已过期"})
	ErrorShareCreateFailed = NewError(22002, lang{en: "Share link creation failed", zh_cn: "分享链接创建失败"})
)

// 订阅错误码 23000 段
var (
	ErrorSubscribeFailed = NewError(23001, lang{en: "Subscription failed", zh_cn: "订阅失败"})
	ErrorSessionNotFound = NewError(23002, lang{en: "Sync session not found", zh_cn: "同步会话不存在"})
	ErrorCommitFailed    = NewError(23003, lang{en: "Note commit failed, your edits are kept locally", zh_cn: "笔记提交失败，本地修改已保留"})
)
