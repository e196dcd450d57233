package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestTraceMiddlewarePropagatesHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(TraceMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		if GetTraceIDFromGin(c) == "" {
			t.Error("trace id missing from gin context")
		}
		if GetTraceID(c.Request.Context()) == "" {
			t.Error("trace id missing from request context")
		}
		c.Status(200)
	})

	// 请求自带的 trace id 原样透传
	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set(TraceIDHeader, "trace-abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get(TraceIDHeader); got != "trace-abc" {
		t.Errorf("response trace id = %q, want trace-abc", got)
	}

	// 没带则由服务端生成
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/ping", nil))
	if w.Header().Get(TraceIDHeader) == "" {
		t.Error("server did not assign a trace id")
	}
}

// 追踪关闭时中间件不挂载，取值退化为空串而不是 panic
func TestTraceLookupWithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/ping", func(c *gin.Context) {
		if got := GetTraceIDFromGin(c); got != "" {
			t.Errorf("trace id = %q, want empty", got)
		}
		if got := GetTraceID(c.Request.Context()); got != "" {
			t.Errorf("context trace id = %q, want empty", got)
		}
		c.Status(200)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/ping", nil))
	if w.Header().Get(TraceIDHeader) != "" {
		t.Error("no trace header expected when tracing is off")
	}
}
