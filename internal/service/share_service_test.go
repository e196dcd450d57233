package service

import (
	"context"
	"errors"
	"testing"

	"github.com/notewave/collab-note-service/internal/domain"
	"github.com/notewave/collab-note-service/internal/dto"
	"github.com/notewave/collab-note-service/pkg/code"
	"github.com/notewave/collab-note-service/pkg/timex"
)

func sharedNote() *domain.Note {
	return &domain.Note{
		ID: "n1", Title: "Plan", Owner: "uid-owner", OwnerEmail: "owner@x.com",
		Collaborators: []domain.Collaborator{
			{Email: "editor@x.com", Permission: domain.PermissionEditor},
			{Email: "viewer@x.com", Permission: domain.PermissionViewer},
		},
		CollaboratorEmails: []string{"editor@x.com", "viewer@x.com"},
	}
}

func newShareFixture(notes ...*domain.Note) (ShareService, *memShareRepo) {
	repo := newMemShareRepo()
	return NewShareService(newMemStore(notes...), repo, testConfig(), nil), repo
}

func TestShareCreateOwnerOnly(t *testing.T) {
	svc, repo := newShareFixture(sharedNote())

	if _, err := svc.Create(context.Background(), Identity{UID: "uid-e", Email: "editor@x.com"},
		&dto.ShareCreateRequest{NoteID: "n1", Mode: "edit"}); !errors.Is(err, code.ErrorNoteAccessDenied) {
		t.Fatalf("editor create: err = %v, want ErrorNoteAccessDenied", err)
	}

	got, err := svc.Create(context.Background(), Identity{UID: "uid-owner", Email: "owner@x.com"},
		&dto.ShareCreateRequest{NoteID: "n1", Mode: "edit", ExpiresIn: "24h"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if got.Token == "" || len(got.Token) != 32 {
		t.Errorf("token = %q, want 32 chars", got.Token)
	}
	if got.Mode != "edit" {
		t.Errorf("mode = %q, want edit", got.Mode)
	}
	if got.ExpiresAt <= timex.Now().UnixMilli() {
		t.Errorf("expiresAt = %d, want in the future", got.ExpiresAt)
	}
	if repo.count() != 1 {
		t.Errorf("stored links = %d, want 1", repo.count())
	}
}

func TestShareVisitEffectivePermission(t *testing.T) {
	tests := []struct {
		name          string
		mode          string
		viewer        Identity
		wantErr       error
		wantEffective domain.Permission
	}{
		{"edit link + editor grants edit", "edit", Identity{UID: "uid-e", Email: "editor@x.com"}, nil, domain.PermissionEditor},
		{"edit link + owner keeps owner", "edit", Identity{UID: "uid-owner", Email: "owner@x.com"}, nil, domain.PermissionOwner},
		// 仅 viewer 权限请求 edit：静默降级为只读
		{"edit link + viewer downgrades", "edit", Identity{UID: "uid-v", Email: "viewer@x.com"}, nil, domain.PermissionViewer},
		{"view link + editor is read only", "view", Identity{UID: "uid-e", Email: "editor@x.com"}, nil, domain.PermissionViewer},
		// none 不降级为 viewer，而是拒绝
		{"stranger denied", "edit", Identity{UID: "uid-s", Email: "s@x.com"}, code.ErrorNoteAccessDenied, ""},
		{"unauthenticated asked to sign in", "view", Identity{}, code.ErrorNotUserAuthToken, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newShareFixture(sharedNote())
			link, err := svc.Create(context.Background(), Identity{UID: "uid-owner", Email: "owner@x.com"},
				&dto.ShareCreateRequest{NoteID: "n1", Mode: tt.mode})
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}

			got, err := svc.Visit(context.Background(), tt.viewer, &dto.ShareVisitRequest{Token: link.Token})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Visit() error = %v", err)
			}
			if got.Effective != tt.wantEffective {
				t.Errorf("effective = %v, want %v", got.Effective, tt.wantEffective)
			}
			if got.Note == nil || got.Note.ID != "n1" {
				t.Error("note payload missing")
			}
		})
	}
}

func TestShareVisitInvalidToken(t *testing.T) {
	svc, _ := newShareFixture(sharedNote())
	if _, err := svc.Visit(context.Background(), Identity{UID: "u"},
		&dto.ShareVisitRequest{Token: "nope"}); !errors.Is(err, code.ErrorShareLinkInvalid) {
		t.Fatalf("err = %v, want ErrorShareLinkInvalid", err)
	}
}

func TestShareVisitExpired(t *testing.T) {
	repo := newMemShareRepo(&domain.ShareLink{
		Token: "old", NoteID: "n1", Mode: domain.ShareModeView,
		ExpiresAt: timex.Now().UnixMilli() - 1,
	})
	svc := NewShareService(newMemStore(sharedNote()), repo, testConfig(), nil)

	if _, err := svc.Visit(context.Background(), Identity{UID: "uid-owner", Email: "owner@x.com"},
		&dto.ShareVisitRequest{Token: "old"}); !errors.Is(err, code.ErrorShareLinkInvalid) {
		t.Fatalf("err = %v, want ErrorShareLinkInvalid", err)
	}
}

func TestSharePurgeExpired(t *testing.T) {
	now := timex.Now().UnixMilli()
	repo := newMemShareRepo(
		&domain.ShareLink{Token: "dead", NoteID: "n1", ExpiresAt: now - 10},
		&domain.ShareLink{Token: "live", NoteID: "n1", ExpiresAt: now + 100000},
		&domain.ShareLink{Token: "forever", NoteID: "n1"},
	)
	svc := NewShareService(newMemStore(sharedNote()), repo, testConfig(), nil)

	purged, err := svc.PurgeExpired(context.Background())
	if err != nil {
		t.Fatalf("PurgeExpired() error = %v", err)
	}
	if purged != 1 {
		t.Errorf("purged = %d, want 1", purged)
	}
	if repo.count() != 2 {
		t.Errorf("remaining = %d, want 2", repo.count())
	}
}
