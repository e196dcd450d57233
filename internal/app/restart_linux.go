//go:build linux

package app

import (
	"syscall"
)

// RestartProcess 原地 exec 替换当前进程，配置热重载时由 run 命令调用
// exec 不 fork，监听端口释放后由新进程重新绑定
func RestartProcess(argv0 string, args []string, env []string) error {
	return syscall.Exec(argv0, args, env)
}
