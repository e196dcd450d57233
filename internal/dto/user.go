package dto

// UserRegisterRequest 注册
type UserRegisterRequest struct {
	Email       string `json:"email" form:"email" binding:"required,email"`
	Password    string `json:"password" form:"password" binding:"required,min=6,max=64"`
	DisplayName string `json:"displayName" form:"displayName" binding:"max=64"`
}

// UserLoginRequest 登录
type UserLoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
}
