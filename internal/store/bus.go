package store

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/notewave/collab-note-service/internal/domain"
	"github.com/notewave/collab-note-service/pkg/workerpool"

	"go.uber.org/zap"
)

// FetchFunc 执行一次订阅查询，返回当前快照
type FetchFunc func(ctx context.Context, q Query) ([]*domain.Note, error)

// Bus 进程内变更总线
// 每个订阅者持有独立的 pump goroutine：收到通知后重新执行查询并投递快照，
// 通知通道容量为 1，连续变更会被合并为一次查询（订阅方只关心最新状态）
type Bus struct {
	fetch  FetchFunc
	pool   *workerpool.Pool
	logger *zap.Logger

	mu          sync.Mutex
	subscribers map[uint64]*subscriber
	nextID      atomic.Uint64

	ctx    context.Context
	cancel context.CancelFunc
}

type subscriber struct {
	id     uint64
	query  Query
	events chan Event
	notify chan struct{}

	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

func (s *subscriber) C() <-chan Event {
	return s.events
}

// NewBus 创建变更总线
func NewBus(fetch FetchFunc, pool *workerpool.Pool, logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Bus{
		fetch:       fetch,
		pool:        pool,
		logger:      logger,
		subscribers: make(map[uint64]*subscriber),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Subscribe 注册订阅者并立即投递首个快照
func (b *Bus) Subscribe(q Query) *subscriber {
	s := &subscriber{
		id:      b.nextID.Add(1),
		query:   q,
		events:  make(chan Event, 16),
		notify:  make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	b.mu.Lock()
	b.subscribers[s.id] = s
	b.mu.Unlock()

	// 首个事件：当前快照
	s.notify <- struct{}{}
	go b.pump(s)

	b.logger.Debug("store bus subscriber added",
		zap.Uint64("subscriberId", s.id),
		zap.String("noteId", q.NoteID),
		zap.String("ownerUid", q.OwnerUID),
		zap.String("collaboratorEmail", q.CollaboratorEmail))

	return s
}

// Unsubscribe 同步取消订阅，返回后 pump 已退出，不再有事件投递
func (s *subscriber) Unsubscribe() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	<-s.stopped
}

func (b *Bus) remove(s *subscriber) {
	b.mu.Lock()
	delete(b.subscribers, s.id)
	b.mu.Unlock()
}

// pump 订阅者事件循环：通知 -> 查询 -> 投递
func (b *Bus) pump(s *subscriber) {
	defer func() {
		b.remove(s)
		close(s.events)
		close(s.stopped)
	}()

	for {
		select {
		case <-s.done:
			return
		case <-b.ctx.Done():
			return
		case <-s.notify:
			ev := b.snapshot(s.query)

			select {
			case s.events <- ev:
			case <-s.done:
				return
			case <-b.ctx.Done():
				return
			}
		}
	}
}

// snapshot 经 worker pool 执行查询，限制并发落库读
func (b *Bus) snapshot(q Query) Event {
	var notes []*domain.Note
	err := b.pool.Submit(b.ctx, func(ctx context.Context) error {
		var ferr error
		notes, ferr = b.fetch(ctx, q)
		return ferr
	})
	if err != nil {
		return Event{Err: err}
	}
	return Event{Notes: notes}
}

// Publish 通知所有查询条件命中任一给定笔记的订阅者
// 协作者被移除这类"从结果集消失"的变更，需要同时传入旧快照
func (b *Bus) Publish(notes ...*domain.Note) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, s := range b.subscribers {
		if !matches(s.query, notes) {
			continue
		}
		select {
		case s.notify <- struct{}{}:
		default:
			// 已有待处理通知，合并
		}
	}
}

// PublishID 按笔记 ID 通知，没有笔记快照可用时（例如删除后）使用
func (b *Bus) PublishID(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, s := range b.subscribers {
		if s.query.NoteID != "" && s.query.NoteID != id {
			continue
		}
		select {
		case s.notify <- struct{}{}:
		default:
		}
	}
}

func matches(q Query, notes []*domain.Note) bool {
	for _, n := range notes {
		if n == nil {
			continue
		}
		if q.NoteID != "" && q.NoteID == n.ID {
			return true
		}
		if q.OwnerUID != "" && q.OwnerUID == n.Owner {
			return true
		}
		if q.CollaboratorEmail != "" && n.HasCollaboratorEmail(q.CollaboratorEmail) {
			return true
		}
	}
	return false
}

// Close 关闭总线，所有订阅者事件通道随之关闭
func (b *Bus) Close() {
	b.cancel()
}

// SubscriberCount 当前订阅者数量
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}
