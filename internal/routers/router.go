// Package routers 组装 HTTP 与 WebSocket 路由
package routers

import (
	"time"

	"github.com/notewave/collab-note-service/internal/app"
	"github.com/notewave/collab-note-service/internal/middleware"
	"github.com/notewave/collab-note-service/internal/routers/api_router"
	"github.com/notewave/collab-note-service/internal/routers/websocket_router"
	pkgapp "github.com/notewave/collab-note-service/pkg/app"
	"github.com/notewave/collab-note-service/pkg/limiter"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
	"github.com/lxzan/gws"
)

var methodLimiters = limiter.NewMethodLimiter().AddBuckets(
	limiter.BucketRule{
		Key:          "/auth",
		FillInterval: time.Second,
		Capacity:     10,
		Quantum:      10,
	},
)

// NewRouter 创建主路由，注入 App Container 与翻译器
func NewRouter(appContainer *app.App, uni *ut.UniversalTranslator) *gin.Engine {

	cfg := appContainer.Config()

	var wss = pkgapp.NewWebsocketServer(pkgapp.WebsocketServerConfig{
		GWSOption: gws.ServerOption{
			CheckUtf8Enabled:    true,
			ParallelEnabled:     true, // 开启并行消息处理
			Recovery:            gws.Recovery,
			PermessageDeflate:   gws.PermessageDeflate{Enabled: true},
			ParallelGolimit:     8,
			ReadMaxPayloadSize:  1024 * 1024 * 16,
			WriteMaxPayloadSize: 1024 * 1024 * 16,
		},
	}, appContainer.TokenManager)

	// 创建 WebSocket Handlers（注入 App Container）
	noteWSHandler := websocket_router.NewNoteWSHandler(appContainer)
	collectionWSHandler := websocket_router.NewCollectionWSHandler(appContainer)

	// 单笔记同步会话
	wss.Use("NoteSubscribe", noteWSHandler.NoteSubscribe)
	wss.Use("NoteEdit", noteWSHandler.NoteEdit)
	wss.Use("NoteUnsubscribe", noteWSHandler.NoteUnsubscribe)

	// 聚合列表订阅
	wss.Use("CollectionSubscribe", collectionWSHandler.CollectionSubscribe)
	wss.Use("CollectionUnsubscribe", collectionWSHandler.CollectionUnsubscribe)

	// 授权阶段用户有效性验证
	wss.UserDataSelectUse(noteWSHandler.UserInfo)
	// 连接关闭时回收该连接持有的订阅
	wss.CloseUse(noteWSHandler.ConnectionClose)

	r := gin.New()

	api := r.Group("/api")
	{
		api.Use(middleware.AppInfo())
		// 关掉追踪时 GetTraceIDFromGin 退化为空串，日志里不带 traceId
		if cfg.Tracer.Enabled {
			api.Use(middleware.TraceMiddleware())
		}
		api.Use(middleware.RateLimiter(methodLimiters))
		api.Use(middleware.ContextTimeout(time.Duration(cfg.App.DefaultContextTimeout) * time.Second))
		api.Use(middleware.Cors())
		api.Use(middleware.LangWithTranslator(uni))
		api.Use(middleware.AccessLog())
		api.Use(middleware.RecoveryWithLogger(appContainer.Logger()))

		// 创建 Handlers（注入 App Container）
		userHandler := api_router.NewUserHandler(appContainer)
		noteHandler := api_router.NewNoteHandler(appContainer)
		rosterHandler := api_router.NewRosterHandler(appContainer)
		shareHandler := api_router.NewShareHandler(appContainer)
		healthHandler := api_router.NewHealthHandler(appContainer)
		versionHandler := api_router.NewVersionHandler(appContainer)

		tm := appContainer.TokenManager

		api.POST("/user/register", userHandler.Register)
		api.POST("/user/login", userHandler.Login)
		api.GET("/user/sync", wss.Run())

		// 无需认证的系统接口
		api.GET("/health", healthHandler.Check)
		api.GET("/version", versionHandler.ServerVersion)

		// 共享链接访问允许匿名，带令牌则按名册取有效权限
		api.GET("/share/visit", middleware.OptionalUserAuthToken(tm), shareHandler.Visit)

		auth := api.Group("", middleware.UserAuthToken(tm))
		{
			auth.GET("/user/info", userHandler.Info)

			auth.POST("/note", noteHandler.Create)
			auth.GET("/note", noteHandler.Get)
			auth.PUT("/note", noteHandler.Update)
			auth.PUT("/note/pin", noteHandler.Pin)
			auth.DELETE("/note", noteHandler.Delete)
			auth.GET("/notes", noteHandler.List)

			auth.POST("/note/collaborator", rosterHandler.Upsert)
			auth.DELETE("/note/collaborator", rosterHandler.Remove)

			auth.POST("/share", shareHandler.Create)
		}
	}

	r.Use(middleware.Cors())
	r.NoRoute(middleware.NoFound())

	return r
}
