package task

import (
	"context"
	"time"

	"github.com/notewave/collab-note-service/internal/app"

	"go.uber.org/zap"
)

// SharePurgeTask 定期清理已过期的共享链接
type SharePurgeTask struct {
	app    *app.App
	logger *zap.Logger
}

// NewSharePurgeTask 创建共享链接清理任务
func NewSharePurgeTask(a *app.App, logger *zap.Logger) *SharePurgeTask {
	return &SharePurgeTask{app: a, logger: logger}
}

func (t *SharePurgeTask) Name() string {
	return "share_purge"
}

func (t *SharePurgeTask) CronSpec() string {
	return t.app.Config().App.ShareLinkPurgeCron
}

func (t *SharePurgeTask) LoopInterval() time.Duration {
	return 30 * time.Minute
}

func (t *SharePurgeTask) IsStartupRun() bool {
	return true
}

func (t *SharePurgeTask) Run(ctx context.Context) error {
	purged, err := t.app.ShareService.PurgeExpired(ctx)
	if err != nil {
		return err
	}
	if purged > 0 {
		t.logger.Info("expired share links purged", zap.Int64("count", purged))
	}
	return nil
}
