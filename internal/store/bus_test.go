package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/notewave/collab-note-service/internal/domain"
	"github.com/notewave/collab-note-service/pkg/workerpool"
)

// memFetch 内存快照源，按查询谓词过滤
type memFetch struct {
	mu    sync.Mutex
	notes map[string]*domain.Note
}

func newMemFetch(notes ...*domain.Note) *memFetch {
	m := &memFetch{notes: make(map[string]*domain.Note)}
	for _, n := range notes {
		m.notes[n.ID] = n
	}
	return m
}

func (m *memFetch) set(n *domain.Note) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes[n.ID] = n
}

func (m *memFetch) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.notes, id)
}

func (m *memFetch) fetch(ctx context.Context, q Query) ([]*domain.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case q.NoteID != "":
		n, ok := m.notes[q.NoteID]
		if !ok {
			return nil, ErrNotFound
		}
		return []*domain.Note{n.Clone()}, nil
	case q.OwnerUID != "":
		var out []*domain.Note
		for _, n := range m.notes {
			if n.Owner == q.OwnerUID {
				out = append(out, n.Clone())
			}
		}
		return out, nil
	case q.CollaboratorEmail != "":
		var out []*domain.Note
		for _, n := range m.notes {
			if n.HasCollaboratorEmail(q.CollaboratorEmail) {
				out = append(out, n.Clone())
			}
		}
		return out, nil
	}
	return nil, nil
}

func newTestBus(t *testing.T, m *memFetch) *Bus {
	t.Helper()
	pool := workerpool.New(&workerpool.Config{MaxWorkers: 4, QueueSize: 16}, nil)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = pool.Shutdown(ctx)
	})
	b := NewBus(m.fetch, pool, nil)
	t.Cleanup(b.Close)
	return b
}

func recvEvent(t *testing.T, sub Subscription) Event {
	t.Helper()
	select {
	case ev := <-sub.C():
		return ev
	case <-time.After(time.Second):
		t.Fatalf("no event within deadline")
		return Event{}
	}
}

func TestBusInitialSnapshot(t *testing.T) {
	m := newMemFetch(&domain.Note{ID: "n1", Owner: "u1"})
	b := newTestBus(t, m)

	sub := b.Subscribe(Query{NoteID: "n1"})
	defer sub.Unsubscribe()

	ev := recvEvent(t, sub)
	if ev.Err != nil {
		t.Fatalf("initial event err = %v", ev.Err)
	}
	if len(ev.Notes) != 1 || ev.Notes[0].ID != "n1" {
		t.Fatalf("initial snapshot = %+v", ev.Notes)
	}
}

func TestBusMissingNoteDeliversError(t *testing.T) {
	b := newTestBus(t, newMemFetch())

	sub := b.Subscribe(Query{NoteID: "ghost"})
	defer sub.Unsubscribe()

	ev := recvEvent(t, sub)
	if ev.Err == nil {
		t.Fatalf("missing note must deliver error event")
	}
}

func TestBusPublishNotifiesMatchingSubscribers(t *testing.T) {
	note := &domain.Note{ID: "n1", Owner: "u1",
		Collaborators:      []domain.Collaborator{{Email: "b@x.com", Permission: domain.PermissionViewer}},
		CollaboratorEmails: []string{"b@x.com"},
	}
	m := newMemFetch(note)
	b := newTestBus(t, m)

	byID := b.Subscribe(Query{NoteID: "n1"})
	byOwner := b.Subscribe(Query{OwnerUID: "u1"})
	byEmail := b.Subscribe(Query{CollaboratorEmail: "b@x.com"})
	other := b.Subscribe(Query{OwnerUID: "someone-else"})
	defer byID.Unsubscribe()
	defer byOwner.Unsubscribe()
	defer byEmail.Unsubscribe()
	defer other.Unsubscribe()

	// 消费初始快照
	recvEvent(t, byID)
	recvEvent(t, byOwner)
	recvEvent(t, byEmail)
	recvEvent(t, other)

	updated := note.Clone()
	updated.Content = "changed"
	m.set(updated)
	b.Publish(updated)

	for name, sub := range map[string]Subscription{"byID": byID, "byOwner": byOwner, "byEmail": byEmail} {
		ev := recvEvent(t, sub)
		if ev.Err != nil || len(ev.Notes) != 1 || ev.Notes[0].Content != "changed" {
			t.Errorf("%s: event = %+v err = %v", name, ev.Notes, ev.Err)
		}
	}

	select {
	case ev := <-other.C():
		t.Errorf("non-matching subscriber got event: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBusDeletionDeliversNotFound(t *testing.T) {
	note := &domain.Note{ID: "n1", Owner: "u1"}
	m := newMemFetch(note)
	b := newTestBus(t, m)

	sub := b.Subscribe(Query{NoteID: "n1"})
	defer sub.Unsubscribe()
	recvEvent(t, sub)

	m.remove("n1")
	b.PublishID("n1")

	ev := recvEvent(t, sub)
	if ev.Err == nil {
		t.Fatalf("deletion must surface as error event on single-note feed")
	}
}

func TestBusUnsubscribeIsSynchronous(t *testing.T) {
	m := newMemFetch(&domain.Note{ID: "n1", Owner: "u1"})
	b := newTestBus(t, m)

	sub := b.Subscribe(Query{NoteID: "n1"})
	recvEvent(t, sub)

	sub.Unsubscribe()

	if n := b.SubscriberCount(); n != 0 {
		t.Fatalf("subscriber count after unsubscribe = %d", n)
	}

	// 二次取消幂等
	sub.Unsubscribe()

	// 通道已关闭
	if _, ok := <-sub.C(); ok {
		// 可能残留缓冲事件，排空后必须关闭
		for range sub.C() {
		}
	}
}
