package util

import (
	"sync"

	"github.com/denisbrodbeck/machineid"
)

var (
	machineID      string
	machineIDMutex sync.Mutex
)

// GetMachineID 获取当前机器的唯一标识符
// 获取失败时返回空字符串，调用方自行决定降级策略
func GetMachineID() string {
	machineIDMutex.Lock()
	defer machineIDMutex.Unlock()

	if machineID != "" {
		return machineID
	}

	id, err := machineid.ID()
	if err == nil && id != "" {
		machineID = id
	}
	return machineID
}
