package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/notewave/collab-note-service/internal/domain"
	"github.com/notewave/collab-note-service/internal/dto"
	"github.com/notewave/collab-note-service/pkg/code"
	"github.com/notewave/collab-note-service/pkg/util"
)

func newUserFixture(open bool, users ...*domain.User) (UserService, *memUserRepo) {
	cfg := testConfig()
	cfg.RegisterIsOpen = open
	repo := newMemUserRepo(users...)
	return NewUserService(repo, &fakeTokenManager{}, cfg, nil), repo
}

func TestUserRegister(t *testing.T) {
	svc, repo := newUserFixture(true)

	got, err := svc.Register(context.Background(), &dto.UserRegisterRequest{
		Email:    "New@X.com",
		Password: "secret123",
	}, "127.0.0.1")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if got.Email != "new@x.com" {
		t.Errorf("email not normalized: %q", got.Email)
	}
	if got.UID == "" {
		t.Error("uid not assigned")
	}
	// 未填展示名时回退为邮箱
	if got.DisplayName != "new@x.com" {
		t.Errorf("displayName = %q, want email fallback", got.DisplayName)
	}
	if !strings.Contains(got.AvatarURL, "gravatar.com/avatar/") {
		t.Errorf("avatarUrl = %q", got.AvatarURL)
	}
	if got.Token == "" {
		t.Error("token not issued")
	}

	stored, err := repo.GetByEmail(context.Background(), "new@x.com")
	if err != nil {
		t.Fatalf("user not persisted: %v", err)
	}
	if stored.Password == "secret123" {
		t.Error("password stored in plain text")
	}
	if !util.CheckPasswordHash("secret123", stored.Password) {
		t.Error("stored hash does not verify")
	}
}

func TestUserRegisterClosed(t *testing.T) {
	svc, _ := newUserFixture(false)
	if _, err := svc.Register(context.Background(), &dto.UserRegisterRequest{
		Email: "a@x.com", Password: "secret123",
	}, ""); !errors.Is(err, code.ErrorUserRegisterDisabled) {
		t.Fatalf("err = %v, want ErrorUserRegisterDisabled", err)
	}
}

func TestUserRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newUserFixture(true, &domain.User{UID: "u1", Email: "a@x.com"})
	if _, err := svc.Register(context.Background(), &dto.UserRegisterRequest{
		Email: "A@X.com", Password: "secret123",
	}, ""); !errors.Is(err, code.ErrorUserEmailAlreadyExists) {
		t.Fatalf("err = %v, want ErrorUserEmailAlreadyExists", err)
	}
}

func TestUserLogin(t *testing.T) {
	hash, err := util.GeneratePasswordHash("secret123")
	if err != nil {
		t.Fatal(err)
	}
	svc, _ := newUserFixture(true, &domain.User{
		UID: "u1", Email: "a@x.com", DisplayName: "A", Password: hash,
	})

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"ok", "a@x.com", "secret123", nil},
		{"normalized email", "A@X.com", "secret123", nil},
		{"wrong password", "a@x.com", "nope", code.ErrorUserLoginFailed},
		// 未注册邮箱与密码错误返回同一错误，不泄露账号是否存在
		{"unknown email", "b@x.com", "secret123", code.ErrorUserLoginFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Login(context.Background(), &dto.UserLoginRequest{
				Email: tt.email, Password: tt.password,
			}, "127.0.0.1")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil {
				if got.UID != "u1" || got.Token == "" {
					t.Errorf("got = %+v, want uid u1 with token", got)
				}
			}
		})
	}
}

func TestUserGet(t *testing.T) {
	svc, _ := newUserFixture(true, &domain.User{UID: "u1", Email: "a@x.com", DisplayName: "A"})

	got, err := svc.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Email != "a@x.com" || got.Token != "" {
		t.Errorf("got = %+v", got)
	}

	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, code.ErrorUserNotFound) {
		t.Fatalf("err = %v, want ErrorUserNotFound", err)
	}
}
