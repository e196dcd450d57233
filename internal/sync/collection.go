package sync

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/notewave/collab-note-service/internal/domain"
	"github.com/notewave/collab-note-service/internal/store"
	"github.com/notewave/collab-note-service/pkg/logger"

	"go.uber.org/zap"
)

// CollectionSnapshot 聚合视图
// Loading 在两路订阅（自有/共享）各至少投递一次事件（含错误）之前保持 true，
// 避免闪现不完整的列表
type CollectionSnapshot struct {
	Notes   []*domain.Note `json:"notes"`
	Loading bool           `json:"loading"`
	// OwnedError / SharedError 对应订阅流的错误，单路失败不影响另一路
	OwnedError  string `json:"ownedError,omitempty"`
	SharedError string `json:"sharedError,omitempty"`
}

// Collection 维护当前用户的两路实时子集并暴露合并视图：
// 自有笔记（owner 等值）与共享笔记（协作邮箱投影成员）
type Collection struct {
	viewer   Viewer
	store    store.Store
	logger   *zap.Logger
	onUpdate func(CollectionSnapshot)

	mu          sync.Mutex
	owned       []*domain.Note
	shared      []*domain.Note
	ownedLoaded bool
	sharedLoaded bool
	ownedErr    error
	sharedErr   error
	closed      bool

	ownedSub  store.Subscription
	sharedSub store.Subscription

	wg sync.WaitGroup
}

// NewCollection 创建聚合器，onUpdate 在每次任一路订阅投递后被调用
func NewCollection(st store.Store, viewer Viewer, log *zap.Logger, onUpdate func(CollectionSnapshot)) *Collection {
	if log == nil {
		log = zap.NewNop()
	}
	return &Collection{
		viewer:   viewer,
		store:    st,
		logger:   log,
		onUpdate: onUpdate,
	}
}

// Subscribe 建立两路订阅
func (c *Collection) Subscribe(ctx context.Context) error {
	if c.viewer.UID == "" {
		return errors.New("sync: collection requires an authenticated viewer")
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrNotSubscribed
	}
	if c.ownedSub != nil || c.sharedSub != nil {
		c.mu.Unlock()
		return errors.New("sync: collection already subscribed")
	}

	ownedSub, err := c.store.Subscribe(ctx, store.Query{OwnerUID: c.viewer.UID})
	if err != nil {
		c.mu.Unlock()
		return err
	}
	sharedSub, err := c.store.Subscribe(ctx, store.Query{CollaboratorEmail: c.viewer.Email})
	if err != nil {
		ownedSub.Unsubscribe()
		c.mu.Unlock()
		return err
	}
	c.ownedSub = ownedSub
	c.sharedSub = sharedSub
	c.mu.Unlock()

	c.wg.Add(2)
	go c.consume(ownedSub, c.applyOwned)
	go c.consume(sharedSub, c.applyShared)
	return nil
}

func (c *Collection) consume(sub store.Subscription, apply func(store.Event)) {
	defer c.wg.Done()
	for ev := range sub.C() {
		apply(ev)
	}
}

func (c *Collection) applyOwned(ev store.Event) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.ownedLoaded = true
	if ev.Err != nil {
		// 失败隔离：本路标记为"已加载但出错"，贡献空集
		c.ownedErr = ev.Err
		c.owned = nil
		c.logger.Warn("owned notes feed errored",
			zap.String(logger.FieldUID, c.viewer.UID),
			zap.Error(ev.Err))
	} else {
		c.ownedErr = nil
		c.owned = ev.Notes
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.emit(snap)
}

func (c *Collection) applyShared(ev store.Event) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.sharedLoaded = true
	if ev.Err != nil {
		c.sharedErr = ev.Err
		c.shared = nil
		c.logger.Warn("shared notes feed errored",
			zap.String(logger.FieldEmail, c.viewer.Email),
			zap.Error(ev.Err))
	} else {
		c.sharedErr = nil
		c.shared = ev.Notes
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.emit(snap)
}

// Snapshot 当前聚合视图
func (c *Collection) Snapshot() CollectionSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Loading 两路订阅是否尚未全部就绪
func (c *Collection) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !(c.ownedLoaded && c.sharedLoaded)
}

func (c *Collection) snapshotLocked() CollectionSnapshot {
	snap := CollectionSnapshot{
		Notes:   mergeNotes(c.owned, c.shared),
		Loading: !(c.ownedLoaded && c.sharedLoaded),
	}
	if c.ownedErr != nil {
		snap.OwnedError = c.ownedErr.Error()
	}
	if c.sharedErr != nil {
		snap.SharedError = c.sharedErr.Error()
	}
	return snap
}

// mergeNotes 按 ID 去重合并两个子集，按 updatedAt 降序排列
// 同一笔记同时出现在两路时只保留一份（两路反映同一权威记录）
func mergeNotes(owned []*domain.Note, shared []*domain.Note) []*domain.Note {
	merged := make([]*domain.Note, 0, len(owned)+len(shared))
	seen := make(map[string]struct{}, len(owned)+len(shared))

	for _, n := range owned {
		if _, ok := seen[n.ID]; ok {
			continue
		}
		seen[n.ID] = struct{}{}
		merged = append(merged, n)
	}
	for _, n := range shared {
		if _, ok := seen[n.ID]; ok {
			continue
		}
		seen[n.ID] = struct{}{}
		merged = append(merged, n)
	}

	// updatedAt 相同时保持投递顺序（稳定排序）
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].UpdatedAt > merged[j].UpdatedAt
	})
	return merged
}

// Unsubscribe 同步取消两路订阅
func (c *Collection) Unsubscribe() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	ownedSub, sharedSub := c.ownedSub, c.sharedSub
	c.ownedSub, c.sharedSub = nil, nil
	c.mu.Unlock()

	if ownedSub != nil {
		ownedSub.Unsubscribe()
	}
	if sharedSub != nil {
		sharedSub.Unsubscribe()
	}
	c.wg.Wait()
}

func (c *Collection) emit(snap CollectionSnapshot) {
	if c.onUpdate != nil {
		c.onUpdate(snap)
	}
}
