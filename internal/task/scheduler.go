// Package task 后台定时任务调度
package task

import (
	"context"
	"time"

	"github.com/notewave/collab-note-service/pkg/safe_close"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Task 定义任务接口
type Task interface {
	Name() string                  // 任务名称
	Run(ctx context.Context) error // 执行任务
	CronSpec() string              // cron 表达式（秒级，6 字段），为空时退回固定间隔
	LoopInterval() time.Duration   // 执行间隔，CronSpec 为空时生效
	IsStartupRun() bool            // 是否启动时立即执行一次
}

// cronParser 秒级 cron 解析器
var cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Scheduler 任务调度器
type Scheduler struct {
	logger *zap.Logger
	tasks  []Task
	sc     *safe_close.SafeClose
}

// NewScheduler 创建任务调度器
func NewScheduler(logger *zap.Logger, sc *safe_close.SafeClose) *Scheduler {
	return &Scheduler{
		logger: logger,
		tasks:  make([]Task, 0),
		sc:     sc,
	}
}

// AddTask 添加任务
func (s *Scheduler) AddTask(task Task) {
	s.tasks = append(s.tasks, task)
}

// Start 启动所有任务
func (s *Scheduler) Start() {
	if len(s.tasks) == 0 {
		s.logger.Info("no tasks to schedule")
		return
	}

	s.logger.Info("tasks starting", zap.Int("count", len(s.tasks)))

	for _, task := range s.tasks {
		s.startTask(task)
	}
}

// startTask 启动单个任务
func (s *Scheduler) startTask(task Task) {

	var schedule cron.Schedule
	if spec := task.CronSpec(); spec != "" {
		parsed, err := cronParser.Parse(spec)
		if err != nil {
			s.logger.Error("task cron spec invalid, task disabled",
				zap.String("name", task.Name()),
				zap.String("spec", spec),
				zap.Error(err))
			return
		}
		schedule = parsed
	}

	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()

		if task.IsStartupRun() {
			s.logger.Info("task running", zap.String("name", task.Name()), zap.Bool("startupRun", true))
			go s.runOnce(task, true)
		}

		if schedule != nil {
			s.cronLoop(task, schedule, closeSignal)
			return
		}

		if task.LoopInterval() <= 0 {
			return
		}
		s.tickerLoop(task, closeSignal)
	})
}

// cronLoop 按 cron 表达式计算下次触发时刻
func (s *Scheduler) cronLoop(task Task, schedule cron.Schedule, closeSignal <-chan struct{}) {
	for {
		next := schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-timer.C:
			s.logger.Info("task running", zap.String("name", task.Name()), zap.Time("scheduledAt", next))
			s.runOnce(task, false)
		case <-closeSignal:
			timer.Stop()
			s.logger.Info("task stopped", zap.String("name", task.Name()))
			return
		}
	}
}

// tickerLoop 固定间隔执行
func (s *Scheduler) tickerLoop(task Task, closeSignal <-chan struct{}) {
	ticker := time.NewTicker(task.LoopInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.logger.Info("task running", zap.String("name", task.Name()), zap.Bool("loopRun", true))
			s.runOnce(task, false)
		case <-closeSignal:
			s.logger.Info("task stopped", zap.String("name", task.Name()))
			return
		}
	}
}

func (s *Scheduler) runOnce(task Task, startupRun bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("task run panic",
				zap.String("name", task.Name()),
				zap.Any("panic", r),
				zap.Stack("stack"))
		}
	}()
	if err := task.Run(context.Background()); err != nil {
		s.logger.Error("task running error",
			zap.String("name", task.Name()),
			zap.Bool("startupRun", startupRun),
			zap.Error(err))
	}
}
