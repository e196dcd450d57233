package middleware

import (
	"github.com/notewave/collab-note-service/pkg/app"
	"github.com/notewave/collab-note-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// NoFound 未匹配路由统一走 code 注册表的 404
func NoFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		response := app.NewResponse(c)
		response.ToResponse(code.ErrorNotFound)
		c.Abort()
	}
}
