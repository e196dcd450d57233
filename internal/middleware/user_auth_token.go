package middleware

import (
	"github.com/notewave/collab-note-service/pkg/app"
	"github.com/notewave/collab-note-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// UserAuthToken 用户 Token 认证中间件，解析结果写入 user_token 供 app.GetUID 等读取
func UserAuthToken(tm app.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		response := app.NewResponse(c)

		if s, exist := c.GetQuery("authorization"); exist {
			token = s
		} else if s, exist := c.GetQuery("Authorization"); exist {
			token = s
		} else if s := c.GetHeader("authorization"); len(s) != 0 {
			token = s
		} else if s := c.GetHeader("Authorization"); len(s) != 0 {
			token = s
		} else if s, exist := c.GetQuery("token"); exist {
			token = s
		} else if s = c.GetHeader("token"); len(s) != 0 {
			token = s
		}

		if token == "" {
			response.ToResponse(code.ErrorNotUserAuthToken)
			c.Abort()
			return
		}

		user, err := tm.Parse(token)
		if err != nil {
			response.ToResponse(code.ErrorInvalidUserAuthToken)
			c.Abort()
			return
		}
		c.Set("user_token", user)

		c.Next()
	}
}

// OptionalUserAuthToken 可选认证：携带合法 Token 时注入身份，未携带时继续匿名访问
// 供共享链接访问路径使用，未认证访问者由业务层决定拒绝方式
func OptionalUserAuthToken(tm app.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string

		if s := c.GetHeader("Authorization"); len(s) != 0 {
			token = s
		} else if s, exist := c.GetQuery("token"); exist {
			token = s
		}

		if token != "" {
			if user, err := tm.Parse(token); err == nil {
				c.Set("user_token", user)
			}
		}

		c.Next()
	}
}
