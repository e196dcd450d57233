package sync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/notewave/collab-note-service/internal/domain"
	"github.com/notewave/collab-note-service/internal/store"
)

// routeStore 按查询谓词路由事件，用于独立驱动两路订阅
type routeStore struct {
	mu     sync.Mutex
	owned  *fakeSub
	shared *fakeSub
}

func (r *routeStore) Subscribe(ctx context.Context, q store.Query) (store.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub := &fakeSub{query: q, ch: make(chan store.Event, 32)}
	switch {
	case q.OwnerUID != "":
		r.owned = sub
	case q.CollaboratorEmail != "":
		r.shared = sub
	}
	return sub, nil
}

func (r *routeStore) GetOnce(ctx context.Context, id string) (*domain.Note, error) {
	return nil, store.ErrNotFound
}

func (r *routeStore) Create(ctx context.Context, note *domain.Note) (string, error) {
	return note.ID, nil
}

func (r *routeStore) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	return nil
}

func (r *routeStore) Delete(ctx context.Context, id string) error { return nil }

func noteWith(id string, updatedAt int64) *domain.Note {
	return &domain.Note{ID: id, Owner: "uid-a", UpdatedAt: updatedAt, CreatedAt: 1}
}

func newTestCollection(t *testing.T) (*Collection, *routeStore) {
	t.Helper()
	rs := &routeStore{}
	c := NewCollection(rs, Viewer{UID: "uid-a", Email: "a@x.com"}, nil, nil)
	if err := c.Subscribe(context.Background()); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	t.Cleanup(c.Unsubscribe)
	if rs.owned == nil || rs.shared == nil {
		t.Fatalf("both feeds must be subscribed")
	}
	return c, rs
}

// 加载契约：两路订阅都至少投递一次事件前，聚合视图保持 loading，
// 与两路事件到达的先后顺序无关
func TestCollectionLoadingContract(t *testing.T) {
	orders := []struct {
		name  string
		first string
	}{
		{"owned first", "owned"},
		{"shared first", "shared"},
	}

	for _, tt := range orders {
		t.Run(tt.name, func(t *testing.T) {
			c, rs := newTestCollection(t)

			if !c.Loading() {
				t.Fatalf("must be loading before any event")
			}

			first, second := rs.owned, rs.shared
			if tt.first == "shared" {
				first, second = rs.shared, rs.owned
			}

			first.ch <- store.Event{Notes: []*domain.Note{noteWith("n1", 10)}}
			waitFor(t, time.Second, func() bool { return len(c.Snapshot().Notes) == 1 })

			// 单路就绪不得上报已加载
			if !c.Loading() {
				t.Fatalf("partial result must still be loading")
			}

			second.ch <- store.Event{Notes: nil}
			waitFor(t, time.Second, func() bool { return !c.Loading() })
		})
	}
}

// 错误事件同样计入"已投递"，并使该路贡献空集
func TestCollectionErrorCountsAsDelivered(t *testing.T) {
	c, rs := newTestCollection(t)

	rs.shared.ch <- store.Event{Err: errors.New("missing index")}
	rs.owned.ch <- store.Event{Notes: []*domain.Note{noteWith("n1", 10)}}

	waitFor(t, time.Second, func() bool { return !c.Loading() })

	snap := c.Snapshot()
	if len(snap.Notes) != 1 || snap.Notes[0].ID != "n1" {
		t.Fatalf("owned feed must survive shared feed failure, got %d notes", len(snap.Notes))
	}
	if snap.SharedError == "" {
		t.Errorf("shared error must be surfaced")
	}
	if snap.OwnedError != "" {
		t.Errorf("owned feed must not inherit shared error")
	}
}

// 去重：同一笔记出现在两路时合并视图恰好保留一份
func TestCollectionDeduplication(t *testing.T) {
	c, rs := newTestCollection(t)

	both := noteWith("dup", 50)
	rs.owned.ch <- store.Event{Notes: []*domain.Note{both, noteWith("n1", 30)}}
	rs.shared.ch <- store.Event{Notes: []*domain.Note{both, noteWith("n2", 40)}}

	waitFor(t, time.Second, func() bool { return !c.Loading() })

	snap := c.Snapshot()
	if len(snap.Notes) != 3 {
		t.Fatalf("merged view = %d notes, want 3 (dup kept once)", len(snap.Notes))
	}
	count := 0
	for _, n := range snap.Notes {
		if n.ID == "dup" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("duplicate note appears %d times", count)
	}
}

// 排序：按 updatedAt 降序，最近变更的在前
func TestCollectionSortedByUpdatedAtDesc(t *testing.T) {
	c, rs := newTestCollection(t)

	rs.owned.ch <- store.Event{Notes: []*domain.Note{noteWith("old", 10), noteWith("new", 100)}}
	rs.shared.ch <- store.Event{Notes: []*domain.Note{noteWith("mid", 50)}}

	waitFor(t, time.Second, func() bool { return !c.Loading() })

	snap := c.Snapshot()
	want := []string{"new", "mid", "old"}
	for i, id := range want {
		if snap.Notes[i].ID != id {
			t.Fatalf("order[%d] = %s, want %s (full order %v)", i, snap.Notes[i].ID, id, want)
		}
	}
}

// 后续事件替换对应子集
func TestCollectionFeedUpdates(t *testing.T) {
	c, rs := newTestCollection(t)

	rs.owned.ch <- store.Event{Notes: []*domain.Note{noteWith("n1", 10)}}
	rs.shared.ch <- store.Event{Notes: nil}
	waitFor(t, time.Second, func() bool { return !c.Loading() })

	rs.owned.ch <- store.Event{Notes: []*domain.Note{noteWith("n1", 10), noteWith("n2", 20)}}
	waitFor(t, time.Second, func() bool { return len(c.Snapshot().Notes) == 2 })

	// 共享路错误恢复后重新贡献
	rs.shared.ch <- store.Event{Err: errors.New("transient")}
	waitFor(t, time.Second, func() bool { return c.Snapshot().SharedError != "" })

	rs.shared.ch <- store.Event{Notes: []*domain.Note{noteWith("n3", 30)}}
	waitFor(t, time.Second, func() bool { return len(c.Snapshot().Notes) == 3 })

	if c.Snapshot().SharedError != "" {
		t.Errorf("recovered feed must clear its error")
	}
}

func TestCollectionRequiresAuthenticatedViewer(t *testing.T) {
	rs := &routeStore{}
	c := NewCollection(rs, Viewer{}, nil, nil)
	if err := c.Subscribe(context.Background()); err == nil {
		t.Fatalf("unauthenticated viewer must not subscribe")
	}
}

// 回调在每次任一路投递后触发
func TestCollectionOnUpdateCallback(t *testing.T) {
	rs := &routeStore{}
	var mu sync.Mutex
	var snaps []CollectionSnapshot
	c := NewCollection(rs, Viewer{UID: "uid-a", Email: "a@x.com"}, nil, func(s CollectionSnapshot) {
		mu.Lock()
		snaps = append(snaps, s)
		mu.Unlock()
	})
	if err := c.Subscribe(context.Background()); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	t.Cleanup(c.Unsubscribe)

	rs.owned.ch <- store.Event{Notes: []*domain.Note{noteWith("n1", 10)}}
	rs.shared.ch <- store.Event{Notes: nil}

	waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(snaps) == 2
	})

	mu.Lock()
	defer mu.Unlock()
	if !snaps[0].Loading {
		t.Errorf("first delivery must still report loading")
	}
	if snaps[1].Loading {
		t.Errorf("second delivery must report loaded")
	}
}
