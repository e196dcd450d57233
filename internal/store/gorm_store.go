package store

import (
	"context"

	"github.com/notewave/collab-note-service/internal/domain"
	"github.com/notewave/collab-note-service/pkg/timex"
	"github.com/notewave/collab-note-service/pkg/workerpool"
	"github.com/notewave/collab-note-service/pkg/writequeue"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GormStore 基于关系库的 Store 实现
// 每个笔记的写操作经 writequeue 按笔记 ID 串行化，
// 读改写（协作者名单）在队列内执行因此同笔记之间不会交错
type GormStore struct {
	repo   domain.NoteRepository
	writes *writequeue.Manager
	bus    *Bus
	logger *zap.Logger
}

// New 创建存储层
func New(repo domain.NoteRepository, writes *writequeue.Manager, pool *workerpool.Pool, logger *zap.Logger) *GormStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &GormStore{
		repo:   repo,
		writes: writes,
		logger: logger,
	}
	s.bus = NewBus(s.fetch, pool, logger)
	return s
}

var _ Store = (*GormStore)(nil)

// Bus 暴露变更总线（测试与关闭流程使用）
func (s *GormStore) Bus() *Bus {
	return s.bus
}

// fetch 执行订阅查询
func (s *GormStore) fetch(ctx context.Context, q Query) ([]*domain.Note, error) {
	switch {
	case q.NoteID != "":
		note, err := s.GetOnce(ctx, q.NoteID)
		if err != nil {
			return nil, err
		}
		return []*domain.Note{note}, nil
	case q.OwnerUID != "":
		return s.repo.ListByOwner(ctx, q.OwnerUID)
	case q.CollaboratorEmail != "":
		return s.repo.ListByCollaboratorEmail(ctx, q.CollaboratorEmail)
	default:
		return nil, errors.New("store: empty query")
	}
}

func (s *GormStore) Subscribe(ctx context.Context, q Query) (Subscription, error) {
	if !q.Valid() {
		return nil, errors.New("store: query must set exactly one predicate")
	}
	return s.bus.Subscribe(q), nil
}

func (s *GormStore) GetOnce(ctx context.Context, id string) (*domain.Note, error) {
	note, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return note, nil
}

func (s *GormStore) Create(ctx context.Context, note *domain.Note) (string, error) {
	if note.ID == "" {
		note.ID = uuid.New().String()
	}
	now := timex.Now().UnixMilli()
	note.CreatedAt = now
	note.UpdatedAt = now

	err := s.writes.Execute(ctx, note.ID, func() error {
		_, cerr := s.repo.Create(ctx, note)
		return cerr
	})
	if err != nil {
		return "", err
	}

	s.logger.Info("note created",
		zap.String("noteId", note.ID),
		zap.String("owner", note.Owner))

	s.bus.Publish(note)
	return note.ID, nil
}

// UpdateFields 合并更新指定字段，updatedAt 一律由存储层盖当前时间戳，
// 不接受调用方传入的时间（保证每个笔记的 updatedAt 单调不减）
func (s *GormStore) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	merged := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		merged[k] = v
	}
	merged["updatedAt"] = timex.Now().UnixMilli()

	// 旧快照用于通知"从结果集消失"的订阅者（例如被移除的协作者）
	before, _ := s.GetOnce(ctx, id)

	err := s.writes.Execute(ctx, id, func() error {
		return s.repo.UpdateFields(ctx, id, merged)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	after, _ := s.GetOnce(ctx, id)

	notes := make([]*domain.Note, 0, 2)
	if before != nil {
		notes = append(notes, before)
	}
	if after != nil {
		notes = append(notes, after)
	}
	s.bus.Publish(notes...)
	s.bus.PublishID(id)
	return nil
}

func (s *GormStore) Delete(ctx context.Context, id string) error {
	before, _ := s.GetOnce(ctx, id)

	err := s.writes.Execute(ctx, id, func() error {
		return s.repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("note deleted", zap.String("noteId", id))

	if before != nil {
		s.bus.Publish(before)
	}
	s.bus.PublishID(id)
	return nil
}
