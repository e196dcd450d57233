package task

import (
	"context"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"go.uber.org/zap"
)

// StatsTask 周期性记录进程与主机运行状态
type StatsTask struct {
	logger *zap.Logger
}

// NewStatsTask 创建运行状态采集任务
func NewStatsTask(logger *zap.Logger) *StatsTask {
	return &StatsTask{logger: logger}
}

func (t *StatsTask) Name() string {
	return "runtime_stats"
}

func (t *StatsTask) CronSpec() string {
	return ""
}

func (t *StatsTask) LoopInterval() time.Duration {
	return 10 * time.Minute
}

func (t *StatsTask) IsStartupRun() bool {
	return false
}

func (t *StatsTask) Run(ctx context.Context) error {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	fields := []zap.Field{
		zap.Int("goroutines", runtime.NumGoroutine()),
		zap.Uint64("heapAlloc", ms.HeapAlloc),
		zap.Uint32("numGC", ms.NumGC),
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		fields = append(fields, zap.Float64("memUsedPercent", vm.UsedPercent))
	}
	if percents, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percents) > 0 {
		fields = append(fields, zap.Float64("cpuPercent", percents[0]))
	}
	if avg, err := load.AvgWithContext(ctx); err == nil {
		fields = append(fields, zap.Float64("load1", avg.Load1))
	}

	t.logger.Info("runtime stats", fields...)
	return nil
}
