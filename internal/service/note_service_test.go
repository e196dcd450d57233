package service

import (
	"context"
	"errors"
	"testing"

	"github.com/notewave/collab-note-service/internal/domain"
	"github.com/notewave/collab-note-service/internal/dto"
	"github.com/notewave/collab-note-service/pkg/code"
)

func newNoteFixture(notes ...*domain.Note) (NoteService, *memStore, *memShareRepo) {
	st := newMemStore(notes...)
	shares := newMemShareRepo()
	// List 走仓储直读，这里借用 memStore 的数据做同一来源
	repo := &memNoteRepo{store: st}
	return NewNoteService(st, repo, shares, testConfig(), nil), st, shares
}

// memNoteRepo 只实现 List 所需的查询，其余由 store 覆盖
type memNoteRepo struct {
	store *memStore
}

func (r *memNoteRepo) GetByID(ctx context.Context, id string) (*domain.Note, error) {
	return r.store.GetOnce(ctx, id)
}

func (r *memNoteRepo) Create(ctx context.Context, note *domain.Note) (*domain.Note, error) {
	id, err := r.store.Create(ctx, note)
	if err != nil {
		return nil, err
	}
	return r.store.GetOnce(ctx, id)
}

func (r *memNoteRepo) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	return r.store.UpdateFields(ctx, id, fields)
}

func (r *memNoteRepo) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, id)
}

func (r *memNoteRepo) ListByOwner(ctx context.Context, ownerUID string) ([]*domain.Note, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*domain.Note
	for _, n := range r.store.notes {
		if n.Owner == ownerUID {
			out = append(out, n.Clone())
		}
	}
	return out, nil
}

func (r *memNoteRepo) ListByCollaboratorEmail(ctx context.Context, email string) ([]*domain.Note, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*domain.Note
	for _, n := range r.store.notes {
		if n.HasCollaboratorEmail(email) {
			out = append(out, n.Clone())
		}
	}
	return out, nil
}

var _ domain.NoteRepository = (*memNoteRepo)(nil)

func TestNoteCreateDefaultsTitle(t *testing.T) {
	svc, st, _ := newNoteFixture()
	owner := Identity{UID: "uid-1", Email: "a@x.com", DisplayName: "A"}

	got, err := svc.Create(context.Background(), owner, &dto.NoteCreateRequest{Content: "body"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if got.Title != "Untitled Note" {
		t.Errorf("title = %q, want default", got.Title)
	}
	if got.Permission != domain.PermissionOwner {
		t.Errorf("permission = %v, want owner", got.Permission)
	}

	stored := st.get(got.ID)
	if stored == nil {
		t.Fatal("note not persisted")
	}
	if stored.Owner != "uid-1" || stored.OwnerEmail != "a@x.com" {
		t.Errorf("owner snapshot = %q/%q", stored.Owner, stored.OwnerEmail)
	}
	if stored.CreatedAt == 0 || stored.UpdatedAt == 0 {
		t.Error("timestamps not stamped")
	}
}

func TestNoteCreateRequiresAuth(t *testing.T) {
	svc, _, _ := newNoteFixture()
	if _, err := svc.Create(context.Background(), Identity{}, &dto.NoteCreateRequest{}); !errors.Is(err, code.ErrorNotUserAuthToken) {
		t.Fatalf("err = %v, want ErrorNotUserAuthToken", err)
	}
}

func TestNoteGetPermissionGate(t *testing.T) {
	note := &domain.Note{
		ID: "n1", Owner: "uid-owner", OwnerEmail: "owner@x.com",
		Collaborators:      []domain.Collaborator{{Email: "viewer@x.com", Permission: domain.PermissionViewer}},
		CollaboratorEmails: []string{"viewer@x.com"},
	}
	svc, _, _ := newNoteFixture(note)

	tests := []struct {
		name    string
		viewer  Identity
		wantErr error
	}{
		{"owner", Identity{UID: "uid-owner", Email: "owner@x.com"}, nil},
		{"collaborator", Identity{UID: "uid-v", Email: "viewer@x.com"}, nil},
		{"stranger", Identity{UID: "uid-s", Email: "s@x.com"}, code.ErrorNoteAccessDenied},
		{"unauthenticated", Identity{}, code.ErrorNotUserAuthToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Get(context.Background(), tt.viewer, &dto.NoteGetRequest{ID: "n1"})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNoteUpdateStampsUpdatedAt(t *testing.T) {
	note := &domain.Note{ID: "n1", Owner: "uid-owner", Title: "old", UpdatedAt: 10}
	svc, st, _ := newNoteFixture(note)
	owner := Identity{UID: "uid-owner"}

	got, err := svc.Update(context.Background(), owner, &dto.NoteUpdateRequest{
		ID: "n1", Title: "new", Content: "body",
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.Title != "new" || got.Content != "body" {
		t.Errorf("document not replaced: %q/%q", got.Title, got.Content)
	}
	if st.get("n1").UpdatedAt <= 10 {
		t.Error("updatedAt not advanced by server")
	}
}

func TestNoteUpdateDeniedForViewer(t *testing.T) {
	note := &domain.Note{
		ID: "n1", Owner: "uid-owner",
		Collaborators:      []domain.Collaborator{{Email: "viewer@x.com", Permission: domain.PermissionViewer}},
		CollaboratorEmails: []string{"viewer@x.com"},
	}
	svc, _, _ := newNoteFixture(note)

	_, err := svc.Update(context.Background(), Identity{UID: "uid-v", Email: "viewer@x.com"},
		&dto.NoteUpdateRequest{ID: "n1", Title: "x"})
	if !errors.Is(err, code.ErrorNoteEditDenied) {
		t.Fatalf("err = %v, want ErrorNoteEditDenied", err)
	}
}

func TestNoteUpdateWriteFailureIsTransient(t *testing.T) {
	note := &domain.Note{ID: "n1", Owner: "uid-owner", Title: "old"}
	svc, st, _ := newNoteFixture(note)
	st.updateErr = errors.New("disk full")

	_, err := svc.Update(context.Background(), Identity{UID: "uid-owner"},
		&dto.NoteUpdateRequest{ID: "n1", Title: "new"})
	if !errors.Is(err, code.ErrorTransientIO) {
		t.Fatalf("err = %v, want ErrorTransientIO", err)
	}
	// 失败的写不落库
	if st.get("n1").Title != "old" {
		t.Error("failed write must not mutate the stored document")
	}
}

func TestNoteDeleteOwnerOnlyAndPurgesShares(t *testing.T) {
	note := &domain.Note{
		ID: "n1", Owner: "uid-owner",
		Collaborators:      []domain.Collaborator{{Email: "editor@x.com", Permission: domain.PermissionEditor}},
		CollaboratorEmails: []string{"editor@x.com"},
	}
	svc, st, shares := newNoteFixture(note)
	shares.Create(context.Background(), &domain.ShareLink{Token: "t1", NoteID: "n1"})
	shares.Create(context.Background(), &domain.ShareLink{Token: "t2", NoteID: "other"})

	if err := svc.Delete(context.Background(), Identity{UID: "uid-e", Email: "editor@x.com"},
		&dto.NoteDeleteRequest{ID: "n1"}); !errors.Is(err, code.ErrorNoteAccessDenied) {
		t.Fatalf("editor delete: err = %v, want ErrorNoteAccessDenied", err)
	}

	if err := svc.Delete(context.Background(), Identity{UID: "uid-owner"},
		&dto.NoteDeleteRequest{ID: "n1"}); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if st.get("n1") != nil {
		t.Error("note still present after delete")
	}
	if shares.count() != 1 {
		t.Errorf("share links = %d, want only the unrelated one", shares.count())
	}
}

func TestNoteListMergesAndSorts(t *testing.T) {
	svc, _, _ := newNoteFixture(
		&domain.Note{ID: "own-old", Owner: "uid-1", UpdatedAt: 10},
		&domain.Note{ID: "own-new", Owner: "uid-1", UpdatedAt: 30},
		&domain.Note{
			ID: "shared", Owner: "uid-2", UpdatedAt: 20,
			Collaborators:      []domain.Collaborator{{Email: "a@x.com", Permission: domain.PermissionViewer}},
			CollaboratorEmails: []string{"a@x.com"},
		},
		&domain.Note{
			// 自有且同时在共享 feed 中出现，合并后只保留一份
			ID: "own-dup", Owner: "uid-1", UpdatedAt: 40,
			Collaborators:      []domain.Collaborator{{Email: "a@x.com", Permission: domain.PermissionEditor}},
			CollaboratorEmails: []string{"a@x.com"},
		},
	)

	got, err := svc.List(context.Background(), Identity{UID: "uid-1", Email: "a@x.com"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	wantOrder := []string{"own-dup", "own-new", "shared", "own-old"}
	if len(got) != len(wantOrder) {
		t.Fatalf("len = %d, want %d", len(got), len(wantOrder))
	}
	for i, id := range wantOrder {
		if got[i].ID != id {
			t.Errorf("order[%d] = %q, want %q", i, got[i].ID, id)
		}
	}
	if got[0].Permission != domain.PermissionOwner {
		t.Errorf("own-dup permission = %v, want owner", got[0].Permission)
	}
	if got[2].Permission != domain.PermissionViewer {
		t.Errorf("shared permission = %v, want viewer", got[2].Permission)
	}
}
