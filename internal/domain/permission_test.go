package domain

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestResolvePermission(t *testing.T) {
	note := &Note{
		ID:    "n1",
		Owner: "uid-owner",
		Collaborators: []Collaborator{
			{Email: "bob@x.com", Permission: PermissionViewer},
			{Email: "carol@x.com", UID: "uid-carol", Permission: PermissionEditor},
		},
		CollaboratorEmails: []string{"bob@x.com", "carol@x.com"},
	}

	tests := []struct {
		name  string
		uid   string
		email string
		want  Permission
	}{
		{"owner by uid", "uid-owner", "owner@x.com", PermissionOwner},
		{"collaborator by email without uid", "uid-bob", "bob@x.com", PermissionViewer},
		{"collaborator by uid", "uid-carol", "other@x.com", PermissionEditor},
		{"collaborator by email", "", "carol@x.com", PermissionEditor},
		{"stranger", "uid-dave", "dave@x.com", PermissionNone},
		{"unauthenticated", "", "", PermissionNone},
		{"unauthenticated with known email", "", "bob@x.com", PermissionViewer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolvePermission(note, tt.uid, tt.email)
			if got != tt.want {
				t.Errorf("ResolvePermission(%q, %q) = %v, want %v", tt.uid, tt.email, got, tt.want)
			}
		})
	}
}

func TestResolvePermissionNilNote(t *testing.T) {
	if got := ResolvePermission(nil, "uid", "a@x.com"); got != PermissionNone {
		t.Errorf("nil note should resolve to none, got %v", got)
	}
}

// 权限升级场景：viewer 升级为 editor 后同一查询返回新权限
func TestResolvePermissionUpgrade(t *testing.T) {
	note := &Note{
		ID:                 "n1",
		Owner:              "uid-owner",
		Collaborators:      []Collaborator{{Email: "bob@x.com", Permission: PermissionViewer}},
		CollaboratorEmails: []string{"bob@x.com"},
	}

	if got := ResolvePermission(note, "", "bob@x.com"); got != PermissionViewer {
		t.Fatalf("before upgrade: got %v, want viewer", got)
	}

	note.Collaborators[0].Permission = PermissionEditor

	if got := ResolvePermission(note, "", "bob@x.com"); got != PermissionEditor {
		t.Fatalf("after upgrade: got %v, want editor", got)
	}
}

// 解析函数是全函数且确定：任意输入恰好返回四个等级之一，
// 且当且仅当 uid == note.owner 时返回 owner
func TestPropertyResolvePermissionTotal(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	genPerm := gen.OneConstOf(PermissionViewer, PermissionEditor)

	properties.Property("returns exactly one known level and owner iff uid matches", prop.ForAll(
		func(owner, uid, email, collabEmail, collabUID string, perm Permission) bool {
			note := &Note{
				ID:    "n",
				Owner: owner,
				Collaborators: []Collaborator{
					{Email: collabEmail, UID: collabUID, Permission: perm},
				},
				CollaboratorEmails: []string{collabEmail},
			}

			got := ResolvePermission(note, uid, email)

			switch got {
			case PermissionOwner, PermissionEditor, PermissionViewer, PermissionNone:
			default:
				return false
			}

			// owner 当且仅当 uid 匹配且非空
			if uid != "" && uid == owner {
				return got == PermissionOwner
			}
			if got == PermissionOwner {
				return false
			}

			// 未认证且无邮箱必然是 none
			if uid == "" && email == "" {
				return got == PermissionNone
			}

			// 确定性
			return got == ResolvePermission(note, uid, email)
		},
		gen.AlphaString(),
		gen.AlphaString(),
		gen.AlphaString(),
		gen.AlphaString(),
		gen.AlphaString(),
		genPerm,
	))

	properties.TestingRun(t)
}
