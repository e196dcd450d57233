package service

import (
	"context"
	"errors"

	"github.com/notewave/collab-note-service/internal/domain"
	"github.com/notewave/collab-note-service/internal/dto"
	"github.com/notewave/collab-note-service/internal/store"
	"github.com/notewave/collab-note-service/pkg/code"
	"github.com/notewave/collab-note-service/pkg/logger"
	"github.com/notewave/collab-note-service/pkg/timex"
	"github.com/notewave/collab-note-service/pkg/util"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RosterService 协作者名单管理
// 两个操作都是对单个笔记文档的读改写；进程内同一笔记的写经存储层按 ID 串行化，
// 跨进程并发名单编辑仍是 last-writer-wins（见存储契约）
type RosterService interface {
	// Upsert 按邮箱添加或更新协作者：已存在时只改 permission（保留 addedAt/uid），
	// 不存在时追加；collaboratorEmails 投影与名单严格同步
	Upsert(ctx context.Context, viewer Identity, params *dto.RosterUpsertRequest) (*NoteDTO, error)

	// Remove 按邮箱移除协作者，移除不存在的邮箱为幂等成功
	Remove(ctx context.Context, viewer Identity, params *dto.RosterRemoveRequest) (*NoteDTO, error)
}

// rosterService 实现 RosterService 接口
type rosterService struct {
	store    store.Store
	userRepo domain.UserRepository
	mailer   Mailer
	logger   *zap.Logger
}

// NewRosterService 创建 RosterService 实例
func NewRosterService(st store.Store, userRepo domain.UserRepository, mailer Mailer, log *zap.Logger) RosterService {
	if log == nil {
		log = zap.NewNop()
	}
	return &rosterService{
		store:    st,
		userRepo: userRepo,
		mailer:   mailer,
		logger:   log,
	}
}

var _ RosterService = (*rosterService)(nil)

// loadOwnedNote 读取笔记并校验调用者为所有者（名单只允许所有者修改）
func (s *rosterService) loadOwnedNote(ctx context.Context, viewer Identity, noteID string) (*domain.Note, error) {
	note, err := s.store.GetOnce(ctx, noteID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, code.ErrorNoteNotFound
		}
		return nil, code.ErrorDBQuery
	}
	if domain.ResolvePermission(note, viewer.UID, viewer.Email) != domain.PermissionOwner {
		return nil, code.ErrorRosterOwneronly
	}
	return note, nil
}

// projectEmails 从名单推导邮箱投影，保证两个表示严格同步
func projectEmails(collaborators []domain.Collaborator) []string {
	emails := make([]string, 0, len(collaborators))
	seen := make(map[string]struct{}, len(collaborators))
	for _, c := range collaborators {
		if _, ok := seen[c.Email]; ok {
			continue
		}
		seen[c.Email] = struct{}{}
		emails = append(emails, c.Email)
	}
	return emails
}

func (s *rosterService) Upsert(ctx context.Context, viewer Identity, params *dto.RosterUpsertRequest) (*NoteDTO, error) {
	note, err := s.loadOwnedNote(ctx, viewer, params.NoteID)
	if err != nil {
		return nil, err
	}

	email := util.NormalizeEmail(params.Email)
	permission := domain.Permission(params.Permission)

	if email == util.NormalizeEmail(note.OwnerEmail) {
		// 所有者隐式最高权限，不进名单
		return nil, code.ErrorRosterSelfInvite
	}

	isNew := true
	collaborators := make([]domain.Collaborator, len(note.Collaborators))
	copy(collaborators, note.Collaborators)

	for i := range collaborators {
		if collaborators[i].Email == email {
			// 已存在：只更新权限，保留 addedAt 与 uid
			collaborators[i].Permission = permission
			isNew = false
			break
		}
	}

	if isNew {
		entry := domain.Collaborator{
			Email:      email,
			Permission: permission,
			AddedAt:    timex.Now().UnixMilli(),
		}
		// 对方已注册时顺带补全 uid
		if user, uerr := s.userRepo.GetByEmail(ctx, email); uerr == nil && user != nil {
			entry.UID = user.UID
		} else if uerr != nil && !errors.Is(uerr, gorm.ErrRecordNotFound) {
			s.logger.Warn("collaborator uid lookup failed",
				zap.String(logger.FieldEmail, email),
				zap.Error(uerr))
		}
		collaborators = append(collaborators, entry)
	}

	err = s.store.UpdateFields(ctx, params.NoteID, map[string]any{
		"collaborators":      collaborators,
		"collaboratorEmails": projectEmails(collaborators),
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// 读写之间笔记被删除
			return nil, code.ErrorNoteNotFound
		}
		s.logger.Error("roster upsert failed",
			zap.String(logger.FieldNoteID, params.NoteID),
			zap.String(logger.FieldEmail, email),
			zap.Error(err))
		return nil, code.ErrorRosterUpdateFailed
	}

	if isNew && s.mailer != nil {
		s.mailer.SendInvitation(email, viewer.DisplayName, note.Title, params.Permission)
	}

	updated, err := s.store.GetOnce(ctx, params.NoteID)
	if err != nil {
		return nil, code.ErrorDBQuery
	}
	return noteToDTO(updated, viewer), nil
}

func (s *rosterService) Remove(ctx context.Context, viewer Identity, params *dto.RosterRemoveRequest) (*NoteDTO, error) {
	note, err := s.loadOwnedNote(ctx, viewer, params.NoteID)
	if err != nil {
		return nil, err
	}

	email := util.NormalizeEmail(params.Email)

	collaborators := make([]domain.Collaborator, 0, len(note.Collaborators))
	for _, c := range note.Collaborators {
		if c.Email == email {
			continue
		}
		collaborators = append(collaborators, c)
	}

	if len(collaborators) == len(note.Collaborators) {
		// 邮箱不在名单内：幂等成功，不产生写入（状态保持不变）
		return noteToDTO(note, viewer), nil
	}

	err = s.store.UpdateFields(ctx, params.NoteID, map[string]any{
		"collaborators":      collaborators,
		"collaboratorEmails": projectEmails(collaborators),
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, code.ErrorNoteNotFound
		}
		s.logger.Error("roster remove failed",
			zap.String(logger.FieldNoteID, params.NoteID),
			zap.String(logger.FieldEmail, email),
			zap.Error(err))
		return nil, code.ErrorRosterUpdateFailed
	}

	updated, err := s.store.GetOnce(ctx, params.NoteID)
	if err != nil {
		return nil, code.ErrorDBQuery
	}
	return noteToDTO(updated, viewer), nil
}
