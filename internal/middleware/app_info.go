package middleware

import (
	"github.com/notewave/collab-note-service/global"
	"github.com/notewave/collab-note-service/pkg/app"

	"github.com/gin-gonic/gin"
)

// AppInfo 把应用名、版本与访问 host 挂到请求上下文，访问日志会带上
func AppInfo() gin.HandlerFunc {

	return func(c *gin.Context) {
		c.Set("app_name", global.Name)
		c.Set("app_version", global.Version)
		c.Set("access_host", app.GetAccessHost(c))

		c.Next()
	}
}
