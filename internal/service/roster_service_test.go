package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/notewave/collab-note-service/internal/domain"
	"github.com/notewave/collab-note-service/internal/dto"
	"github.com/notewave/collab-note-service/pkg/code"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func rosterNote() *domain.Note {
	return &domain.Note{
		ID:         "n1",
		Title:      "Plan",
		Owner:      "uid-owner",
		OwnerEmail: "owner@x.com",
		OwnerName:  "Owner",
		Collaborators: []domain.Collaborator{
			{Email: "editor@x.com", UID: "uid-editor", Permission: domain.PermissionEditor, AddedAt: 100},
		},
		CollaboratorEmails: []string{"editor@x.com"},
		UpdatedAt:          500,
	}
}

func newRosterFixture(notes ...*domain.Note) (RosterService, *memStore, *recordMailer) {
	st := newMemStore(notes...)
	mailer := &recordMailer{}
	svc := NewRosterService(st, newMemUserRepo(
		&domain.User{UID: "uid-viewer", Email: "viewer@x.com"},
	), mailer, nil)
	return svc, st, mailer
}

func TestRosterUpsertAddsCollaborator(t *testing.T) {
	svc, st, mailer := newRosterFixture(rosterNote())
	owner := Identity{UID: "uid-owner", Email: "owner@x.com", DisplayName: "Owner"}

	got, err := svc.Upsert(context.Background(), owner, &dto.RosterUpsertRequest{
		NoteID:     "n1",
		Email:      "Viewer@X.com",
		Permission: "viewer",
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if len(got.Collaborators) != 2 {
		t.Fatalf("collaborators = %d, want 2", len(got.Collaborators))
	}
	added := got.Collaborators[1]
	if added.Email != "viewer@x.com" {
		t.Errorf("email not normalized: %q", added.Email)
	}
	if added.Permission != domain.PermissionViewer {
		t.Errorf("permission = %v, want viewer", added.Permission)
	}
	if added.AddedAt == 0 {
		t.Error("addedAt not stamped")
	}
	if added.UID != "uid-viewer" {
		t.Errorf("uid = %q, want backfilled uid-viewer", added.UID)
	}

	stored := st.get("n1")
	if len(stored.CollaboratorEmails) != 2 || stored.CollaboratorEmails[1] != "viewer@x.com" {
		t.Errorf("projection not in lockstep: %v", stored.CollaboratorEmails)
	}
	if sent := mailer.invitations(); len(sent) != 1 || sent[0] != "viewer@x.com" {
		t.Errorf("invitations = %v, want [viewer@x.com]", sent)
	}
}

func TestRosterUpsertUpdatesExistingInPlace(t *testing.T) {
	svc, st, mailer := newRosterFixture(rosterNote())
	owner := Identity{UID: "uid-owner", Email: "owner@x.com"}

	got, err := svc.Upsert(context.Background(), owner, &dto.RosterUpsertRequest{
		NoteID:     "n1",
		Email:      "editor@x.com",
		Permission: "viewer",
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if len(got.Collaborators) != 1 {
		t.Fatalf("collaborators = %d, want 1", len(got.Collaborators))
	}
	c := got.Collaborators[0]
	if c.Permission != domain.PermissionViewer {
		t.Errorf("permission = %v, want viewer", c.Permission)
	}
	// 降级保留 addedAt 与 uid
	if c.AddedAt != 100 || c.UID != "uid-editor" {
		t.Errorf("identity fields changed: addedAt=%d uid=%q", c.AddedAt, c.UID)
	}
	if stored := st.get("n1"); len(stored.CollaboratorEmails) != 1 {
		t.Errorf("projection = %v, want single entry", stored.CollaboratorEmails)
	}
	if sent := mailer.invitations(); len(sent) != 0 {
		t.Errorf("no invitation expected on update, got %v", sent)
	}
}

func TestRosterUpsertRejectsOwnerEmail(t *testing.T) {
	svc, _, _ := newRosterFixture(rosterNote())
	owner := Identity{UID: "uid-owner", Email: "owner@x.com"}

	_, err := svc.Upsert(context.Background(), owner, &dto.RosterUpsertRequest{
		NoteID:     "n1",
		Email:      "Owner@X.com",
		Permission: "editor",
	})
	if !errors.Is(err, code.ErrorRosterSelfInvite) {
		t.Fatalf("err = %v, want ErrorRosterSelfInvite", err)
	}
}

func TestRosterOwnerOnly(t *testing.T) {
	svc, _, _ := newRosterFixture(rosterNote())
	editor := Identity{UID: "uid-editor", Email: "editor@x.com"}

	if _, err := svc.Upsert(context.Background(), editor, &dto.RosterUpsertRequest{
		NoteID: "n1", Email: "a@x.com", Permission: "viewer",
	}); !errors.Is(err, code.ErrorRosterOwneronly) {
		t.Errorf("Upsert by editor: err = %v, want ErrorRosterOwneronly", err)
	}
	if _, err := svc.Remove(context.Background(), editor, &dto.RosterRemoveRequest{
		NoteID: "n1", Email: "editor@x.com",
	}); !errors.Is(err, code.ErrorRosterOwneronly) {
		t.Errorf("Remove by editor: err = %v, want ErrorRosterOwneronly", err)
	}
}

func TestRosterRemove(t *testing.T) {
	svc, st, _ := newRosterFixture(rosterNote())
	owner := Identity{UID: "uid-owner", Email: "owner@x.com"}

	got, err := svc.Remove(context.Background(), owner, &dto.RosterRemoveRequest{
		NoteID: "n1",
		Email:  "editor@x.com",
	})
	if err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if len(got.Collaborators) != 0 || len(got.CollaboratorEmails) != 0 {
		t.Errorf("roster not emptied: %v / %v", got.Collaborators, got.CollaboratorEmails)
	}
	if st.updates != 1 {
		t.Errorf("updates = %d, want 1", st.updates)
	}
}

func TestRosterRemoveAbsentIsIdempotentNoop(t *testing.T) {
	svc, st, _ := newRosterFixture(rosterNote())
	owner := Identity{UID: "uid-owner", Email: "owner@x.com"}
	before := st.get("n1")

	got, err := svc.Remove(context.Background(), owner, &dto.RosterRemoveRequest{
		NoteID: "n1",
		Email:  "ghost@x.com",
	})
	if err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if st.updates != 0 {
		t.Errorf("updates = %d, want 0 (absent email must not write)", st.updates)
	}
	after := st.get("n1")
	if after.UpdatedAt != before.UpdatedAt {
		t.Error("updatedAt changed without a write")
	}
	if len(got.Collaborators) != 1 {
		t.Errorf("roster changed: %v", got.Collaborators)
	}
}

func TestRosterNoteNotFound(t *testing.T) {
	svc, _, _ := newRosterFixture()
	owner := Identity{UID: "uid-owner", Email: "owner@x.com"}

	if _, err := svc.Upsert(context.Background(), owner, &dto.RosterUpsertRequest{
		NoteID: "missing", Email: "a@x.com", Permission: "viewer",
	}); !errors.Is(err, code.ErrorNoteNotFound) {
		t.Errorf("err = %v, want ErrorNoteNotFound", err)
	}
}

// rosterOp 属性测试用的单步操作
type rosterOp struct {
	Remove     bool
	Email      string
	Permission string
}

func TestRosterProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	emailGen := gen.OneConstOf("a@x.com", "b@x.com", "c@x.com", "d@x.com")
	opGen := gopter.CombineGens(
		gen.Bool(),
		emailGen,
		gen.OneConstOf("viewer", "editor"),
	).Map(func(vs []interface{}) rosterOp {
		return rosterOp{Remove: vs[0].(bool), Email: vs[1].(string), Permission: vs[2].(string)}
	})

	owner := Identity{UID: "uid-owner", Email: "owner@x.com"}

	runOps := func(ops []rosterOp) *domain.Note {
		st := newMemStore(rosterNote())
		svc := NewRosterService(st, newMemUserRepo(), &recordMailer{}, nil)
		for _, op := range ops {
			var err error
			if op.Remove {
				_, err = svc.Remove(context.Background(), owner, &dto.RosterRemoveRequest{
					NoteID: "n1", Email: op.Email,
				})
			} else {
				_, err = svc.Upsert(context.Background(), owner, &dto.RosterUpsertRequest{
					NoteID: "n1", Email: op.Email, Permission: op.Permission,
				})
			}
			if err != nil {
				panic(fmt.Sprintf("op %+v: %v", op, err))
			}
		}
		return st.get("n1")
	}

	properties.Property("projection always matches roster emails", prop.ForAll(
		func(ops []rosterOp) bool {
			note := runOps(ops)
			if len(note.CollaboratorEmails) != len(note.Collaborators) {
				return false
			}
			want := make([]string, 0, len(note.Collaborators))
			for _, c := range note.Collaborators {
				want = append(want, c.Email)
			}
			sort.Strings(want)
			got := append([]string(nil), note.CollaboratorEmails...)
			sort.Strings(got)
			for i := range want {
				if want[i] != got[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(opGen),
	))

	properties.Property("each email appears at most once", prop.ForAll(
		func(ops []rosterOp) bool {
			note := runOps(ops)
			seen := make(map[string]bool)
			for _, c := range note.Collaborators {
				if seen[c.Email] {
					return false
				}
				seen[c.Email] = true
			}
			return true
		},
		gen.SliceOf(opGen),
	))

	properties.Property("re-upsert ends with the last permission and one entry", prop.ForAll(
		func(first, second string) bool {
			st := newMemStore(rosterNote())
			svc := NewRosterService(st, newMemUserRepo(), &recordMailer{}, nil)
			for _, p := range []string{first, second} {
				if _, err := svc.Upsert(context.Background(), owner, &dto.RosterUpsertRequest{
					NoteID: "n1", Email: "a@x.com", Permission: p,
				}); err != nil {
					return false
				}
			}
			note := st.get("n1")
			var hits int
			var last domain.Permission
			for _, c := range note.Collaborators {
				if c.Email == "a@x.com" {
					hits++
					last = c.Permission
				}
			}
			return hits == 1 && last == domain.Permission(second)
		},
		gen.OneConstOf("viewer", "editor"),
		gen.OneConstOf("viewer", "editor"),
	))

	properties.Property("double remove is idempotent", prop.ForAll(
		func(email string) bool {
			st := newMemStore(rosterNote())
			svc := NewRosterService(st, newMemUserRepo(), &recordMailer{}, nil)
			if _, err := svc.Remove(context.Background(), owner, &dto.RosterRemoveRequest{
				NoteID: "n1", Email: email,
			}); err != nil {
				return false
			}
			mid := st.get("n1")
			if _, err := svc.Remove(context.Background(), owner, &dto.RosterRemoveRequest{
				NoteID: "n1", Email: email,
			}); err != nil {
				return false
			}
			end := st.get("n1")
			return len(mid.Collaborators) == len(end.Collaborators) &&
				mid.UpdatedAt == end.UpdatedAt
		},
		gen.OneConstOf("editor@x.com", "ghost@x.com"),
	))

	properties.TestingRun(t)
}
