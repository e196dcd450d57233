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

// ShareService 共享链接：按笔记 ID 与请求模式（view|edit）参数化的 URL
// 访问者需独立认证；requested=edit 且解析权限可编辑时才授予编辑，
// 仅 viewer 权限请求 edit 会被静默降级为只读，绝不升级
type ShareService interface {
	// Create 创建共享链接，仅所有者
	Create(ctx context.Context, viewer Identity, params *dto.ShareCreateRequest) (*ShareDTO, error)

	// Visit 访问共享链接，返回笔记与访问者的有效能力
	Visit(ctx context.Context, viewer Identity, params *dto.ShareVisitRequest) (*ShareVisitDTO, error)

	// PurgeExpired 清理过期链接（定时任务调用）
	PurgeExpired(ctx context.Context) (int64, error)
}

// ShareDTO 共享链接传输对象
type ShareDTO struct {
	Token     string `json:"token"`
	NoteID    string `json:"noteId"`
	Mode      string `json:"mode"`
	ExpiresAt int64  `json:"expiresAt,omitempty"`
}

// ShareVisitDTO 共享链接访问结果
type ShareVisitDTO struct {
	Note *NoteDTO `json:"note"`
	// Effective 访问者经降级规则后的有效权限（viewer 或 editor，不会是 none）
	Effective domain.Permission `json:"effective"`
	Mode      string            `json:"mode"`
}

// shareService 实现 ShareService 接口
type shareService struct {
	store     store.Store
	shareRepo domain.ShareRepository
	config    *ServiceConfig
	logger    *zap.Logger
}

// NewShareService 创建 ShareService 实例
func NewShareService(st store.Store, shareRepo domain.ShareRepository, config *ServiceConfig, log *zap.Logger) ShareService {
	if log == nil {
		log = zap.NewNop()
	}
	return &shareService{
		store:     st,
		shareRepo: shareRepo,
		config:    config,
		logger:    log,
	}
}

var _ ShareService = (*shareService)(nil)

// Create 创建共享链接
func (s *shareService) Create(ctx context.Context, viewer Identity, params *dto.ShareCreateRequest) (*ShareDTO, error) {
	note, err := s.store.GetOnce(ctx, params.NoteID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, code.ErrorNoteNotFound
		}
		return nil, code.ErrorDBQuery
	}

	if domain.ResolvePermission(note, viewer.UID, viewer.Email) != domain.PermissionOwner {
		return nil, code.ErrorNoteAccessDenied
	}

	mode := domain.ParseShareMode(params.Mode)

	var expiresAt int64
	if params.ExpiresIn != "" {
		d, derr := util.ParseDuration(params.ExpiresIn)
		if derr != nil {
			return nil, code.ErrorInvalidParams
		}
		expiresAt = timex.Now().Time().Add(d).UnixMilli()
	}

	link := &domain.ShareLink{
		Token:     util.GetRandomString(s.config.ShareTokenLength),
		NoteID:    params.NoteID,
		Mode:      mode,
		CreatedBy: viewer.UID,
		CreatedAt: timex.Now().UnixMilli(),
		ExpiresAt: expiresAt,
	}

	if _, err := s.shareRepo.Create(ctx, link); err != nil {
		s.logger.Error("share link create failed",
			zap.String(logger.FieldNoteID, params.NoteID),
			zap.Error(err))
		return nil, code.ErrorShareCreateFailed
	}

	return &ShareDTO{
		Token:     link.Token,
		NoteID:    link.NoteID,
		Mode:      string(link.Mode),
		ExpiresAt: link.ExpiresAt,
	}, nil
}

// Visit 访问共享链接
// 无身份访问者解析权限恒为 none，得到 AccessDenied 而非降级为 viewer
func (s *shareService) Visit(ctx context.Context, viewer Identity, params *dto.ShareVisitRequest) (*ShareVisitDTO, error) {
	link, err := s.shareRepo.GetByToken(ctx, params.Token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, code.ErrorShareLinkInvalid
		}
		return nil, code.ErrorDBQuery
	}
	if link.Expired(timex.Now().UnixMilli()) {
		return nil, code.ErrorShareLinkInvalid
	}

	note, err := s.store.GetOnce(ctx, link.NoteID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, code.ErrorNoteNotFound
		}
		return nil, code.ErrorDBQuery
	}

	resolved := domain.ResolvePermission(note, viewer.UID, viewer.Email)
	effective := link.EffectivePermission(resolved)
	if effective == domain.PermissionNone {
		if !viewer.Authenticated() {
			return nil, code.ErrorNotUserAuthToken
		}
		return nil, code.ErrorNoteAccessDenied
	}

	return &ShareVisitDTO{
		Note:      noteToDTO(note, viewer),
		Effective: effective,
		Mode:      string(link.Mode),
	}, nil
}

// PurgeExpired 清理过期链接
func (s *shareService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.shareRepo.DeleteExpired(ctx, timex.Now().UnixMilli())
}
