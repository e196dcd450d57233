package service

import (
	"context"
	"errors"
	"sort"

	"github.com/notewave/collab-note-service/internal/domain"
	"github.com/notewave/collab-note-service/internal/dto"
	"github.com/notewave/collab-note-service/internal/store"
	"github.com/notewave/collab-note-service/pkg/code"
	"github.com/notewave/collab-note-service/pkg/logger"

	"github.com/jinzhu/copier"
	"go.uber.org/zap"
)

// NoteService 定义笔记业务服务接口
type NoteService interface {
	// Create 创建笔记，调用者成为所有者
	Create(ctx context.Context, viewer Identity, params *dto.NoteCreateRequest) (*NoteDTO, error)

	// Get 获取单条笔记（含调用者的有效权限）
	Get(ctx context.Context, viewer Identity, params *dto.NoteGetRequest) (*NoteDTO, error)

	// Update 整文档替换 title+content（last-writer-wins 提交路径的 HTTP 形态）
	Update(ctx context.Context, viewer Identity, params *dto.NoteUpdateRequest) (*NoteDTO, error)

	// TogglePin 置顶开关
	TogglePin(ctx context.Context, viewer Identity, params *dto.NotePinRequest) error

	// Delete 删除笔记，仅所有者，隐式吊销全部协作者访问
	Delete(ctx context.Context, viewer Identity, params *dto.NoteDeleteRequest) error

	// List 一次性获取调用者可见的全部笔记（自有+共享，去重，按 updatedAt 降序）
	List(ctx context.Context, viewer Identity) ([]*NoteDTO, error)
}

// NoteDTO 笔记数据传输对象
type NoteDTO struct {
	ID                 string                `json:"id"`
	Title              string                `json:"title"`
	Content            string                `json:"content"`
	Owner              string                `json:"owner"`
	OwnerEmail         string                `json:"ownerEmail"`
	OwnerName          string                `json:"ownerName"`
	Collaborators      []domain.Collaborator `json:"collaborators"`
	CollaboratorEmails []string              `json:"collaboratorEmails"`
	Pinned             bool                  `json:"pinned"`
	CreatedAt          int64                 `json:"createdAt"`
	UpdatedAt          int64                 `json:"updatedAt"`
	// Permission 调用者对该笔记的有效权限
	Permission domain.Permission `json:"permission"`
}

// noteService 实现 NoteService 接口
type noteService struct {
	store     store.Store
	noteRepo  domain.NoteRepository
	shareRepo domain.ShareRepository
	config    *ServiceConfig
	logger    *zap.Logger
}

// NewNoteService 创建 NoteService 实例
func NewNoteService(st store.Store, noteRepo domain.NoteRepository, shareRepo domain.ShareRepository, config *ServiceConfig, log *zap.Logger) NoteService {
	if log == nil {
		log = zap.NewNop()
	}
	return &noteService{
		store:     st,
		noteRepo:  noteRepo,
		shareRepo: shareRepo,
		config:    config,
		logger:    log,
	}
}

var _ NoteService = (*noteService)(nil)

// noteToDTO 将领域模型转换为 DTO 并标注调用者权限
func noteToDTO(note *domain.Note, viewer Identity) *NoteDTO {
	if note == nil {
		return nil
	}
	out := &NoteDTO{}
	_ = copier.Copy(out, note)
	out.Permission = domain.ResolvePermission(note, viewer.UID, viewer.Email)
	return out
}

func (s *noteService) domainToDTO(note *domain.Note, viewer Identity) *NoteDTO {
	return noteToDTO(note, viewer)
}

// Create 创建笔记
func (s *noteService) Create(ctx context.Context, viewer Identity, params *dto.NoteCreateRequest) (*NoteDTO, error) {
	if !viewer.Authenticated() {
		return nil, code.ErrorNotUserAuthToken
	}

	title := params.Title
	if title == "" {
		title = s.config.DefaultNoteTitle
	}

	note := &domain.Note{
		Title:      title,
		Content:    params.Content,
		Owner:      viewer.UID,
		OwnerEmail: viewer.Email,
		OwnerName:  viewer.DisplayName,
	}

	id, err := s.store.Create(ctx, note)
	if err != nil {
		s.logger.Error("note create failed",
			zap.String(logger.FieldUID, viewer.UID),
			zap.Error(err))
		return nil, code.ErrorNoteCreateFailed
	}
	note.ID = id

	return s.domainToDTO(note, viewer), nil
}

// Get 获取单条笔记
func (s *noteService) Get(ctx context.Context, viewer Identity, params *dto.NoteGetRequest) (*NoteDTO, error) {
	note, err := s.store.GetOnce(ctx, params.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, code.ErrorNoteNotFound
		}
		return nil, code.ErrorDBQuery
	}

	perm := domain.ResolvePermission(note, viewer.UID, viewer.Email)
	if !perm.CanView() {
		if !viewer.Authenticated() {
			return nil, code.ErrorNotUserAuthToken
		}
		return nil, code.ErrorNoteAccessDenied
	}

	return s.domainToDTO(note, viewer), nil
}

// Update 整文档替换 title+content
func (s *noteService) Update(ctx context.Context, viewer Identity, params *dto.NoteUpdateRequest) (*NoteDTO, error) {
	note, err := s.store.GetOnce(ctx, params.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, code.ErrorNoteNotFound
		}
		return nil, code.ErrorDBQuery
	}

	perm := domain.ResolvePermission(note, viewer.UID, viewer.Email)
	if !perm.CanEdit() {
		return nil, code.ErrorNoteEditDenied
	}

	err = s.store.UpdateFields(ctx, params.ID, map[string]any{
		"title":   params.Title,
		"content": params.Content,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, code.ErrorNoteNotFound
		}
		s.logger.Error("note update failed",
			zap.String(logger.FieldNoteID, params.ID),
			zap.String(logger.FieldUID, viewer.UID),
			zap.Error(err))
		// 写入失败视为瞬时存储故障，客户端原样重试即可
		return nil, code.ErrorTransientIO
	}

	updated, err := s.store.GetOnce(ctx, params.ID)
	if err != nil {
		return nil, code.ErrorDBQuery
	}
	return s.domainToDTO(updated, viewer), nil
}

// TogglePin 置顶开关，owner/editor 可操作
func (s *noteService) TogglePin(ctx context.Context, viewer Identity, params *dto.NotePinRequest) error {
	note, err := s.store.GetOnce(ctx, params.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return code.ErrorNoteNotFound
		}
		return code.ErrorDBQuery
	}

	perm := domain.ResolvePermission(note, viewer.UID, viewer.Email)
	if !perm.CanEdit() {
		return code.ErrorNoteEditDenied
	}

	err = s.store.UpdateFields(ctx, params.ID, map[string]any{"pinned": params.Pinned})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return code.ErrorNoteNotFound
		}
		return code.ErrorNoteModifyFailed
	}
	return nil
}

// Delete 删除笔记：仅所有者，连带清理该笔记的共享链接（无墓碑）
func (s *noteService) Delete(ctx context.Context, viewer Identity, params *dto.NoteDeleteRequest) error {
	note, err := s.store.GetOnce(ctx, params.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return code.ErrorNoteNotFound
		}
		return code.ErrorDBQuery
	}

	if domain.ResolvePermission(note, viewer.UID, viewer.Email) != domain.PermissionOwner {
		return code.ErrorNoteAccessDenied
	}

	if err := s.shareRepo.DeleteByNoteID(ctx, params.ID); err != nil {
		s.logger.Warn("share link cleanup failed on note delete",
			zap.String(logger.FieldNoteID, params.ID),
			zap.Error(err))
	}

	if err := s.store.Delete(ctx, params.ID); err != nil {
		s.logger.Error("note delete failed",
			zap.String(logger.FieldNoteID, params.ID),
			zap.Error(err))
		return code.ErrorNoteDeleteFailed
	}
	return nil
}

// List 一次性获取自有+共享笔记的合并视图
func (s *noteService) List(ctx context.Context, viewer Identity) ([]*NoteDTO, error) {
	if !viewer.Authenticated() {
		return nil, code.ErrorNotUserAuthToken
	}

	owned, err := s.noteRepo.ListByOwner(ctx, viewer.UID)
	if err != nil {
		return nil, code.ErrorDBQuery
	}
	shared, err := s.noteRepo.ListByCollaboratorEmail(ctx, viewer.Email)
	if err != nil {
		return nil, code.ErrorDBQuery
	}

	seen := make(map[string]struct{}, len(owned)+len(shared))
	merged := make([]*domain.Note, 0, len(owned)+len(shared))
	for _, n := range append(owned, shared...) {
		if _, ok := seen[n.ID]; ok {
			continue
		}
		seen[n.ID] = struct{}{}
		merged = append(merged, n)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].UpdatedAt > merged[j].UpdatedAt
	})

	out := make([]*NoteDTO, 0, len(merged))
	for _, n := range merged {
		out = append(out, s.domainToDTO(n, viewer))
	}
	return out, nil
}
