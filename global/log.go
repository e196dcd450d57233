package global

import (
	"fmt"
	"runtime"

	dumpx "github.com/gookit/goutil/dump"
	"go.uber.org/zap"
)

// Logger 进程级日志器，server 启动时赋值
// websocket 包装层等无法注入 logger 的位置从这里取
var Logger *zap.Logger

func Log() *zap.Logger {
	return Logger
}

// Dump 调试输出，带调用点文件行号
func Dump(a ...any) {
	_, file, line, ok := runtime.Caller(1)
	if ok {
		fmt.Printf("\033[32m%s:%d:\033[0m\n", file, line)
	}
	dumpx.P(a...)
}
