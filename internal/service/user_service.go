package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/notewave/collab-note-service/internal/domain"
	"github.com/notewave/collab-note-service/internal/dto"
	"github.com/notewave/collab-note-service/pkg/app"
	"github.com/notewave/collab-note-service/pkg/code"
	"github.com/notewave/collab-note-service/pkg/logger"
	"github.com/notewave/collab-note-service/pkg/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserService 身份提供方：注册 / 登录 / 档案读取
// 认证后产出稳定的 {uid, email, displayName, avatarURL}
// uid 是所有权比较的唯一依据，email 是协作者匹配的唯一依据
type UserService interface {
	// Register 注册新用户
	Register(ctx context.Context, params *dto.UserRegisterRequest, ip string) (*UserDTO, error)

	// Login 验证邮箱密码并签发 token
	Login(ctx context.Context, params *dto.UserLoginRequest, ip string) (*UserDTO, error)

	// Get 按 uid 读取档案
	Get(ctx context.Context, uid string) (*UserDTO, error)
}

// UserDTO 用户数据传输对象
type UserDTO struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl"`
	Token       string `json:"token,omitempty"`
}

// userService 实现 UserService 接口
type userService struct {
	userRepo     domain.UserRepository
	tokenManager app.TokenManager
	config       *ServiceConfig
	logger       *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(userRepo domain.UserRepository, tm app.TokenManager, config *ServiceConfig, log *zap.Logger) UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &userService{
		userRepo:     userRepo,
		tokenManager: tm,
		config:       config,
		logger:       log,
	}
}

var _ UserService = (*userService)(nil)

func (s *userService) toDTO(user *domain.User) *UserDTO {
	return &UserDTO{
		UID:         user.UID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		AvatarURL:   user.AvatarURL,
	}
}

// Register 注册新用户
func (s *userService) Register(ctx context.Context, params *dto.UserRegisterRequest, ip string) (*UserDTO, error) {
	if !s.config.RegisterIsOpen {
		return nil, code.ErrorUserRegisterDisabled
	}

	email := util.NormalizeEmail(params.Email)

	if existing, err := s.userRepo.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, code.ErrorUserEmailAlreadyExists
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, code.ErrorDBQuery
	}

	hash, err := util.GeneratePasswordHash(params.Password)
	if err != nil {
		return nil, code.ErrorUserRegisterFailed
	}

	displayName := params.DisplayName
	if displayName == "" {
		displayName = email
	}

	user := &domain.User{
		UID:         uuid.New().String(),
		Email:       email,
		DisplayName: displayName,
		AvatarURL:   fmt.Sprintf("https://www.gravatar.com/avatar/%s?d=identicon", util.GravatarHash(email)),
		Password:    hash,
	}

	if _, err := s.userRepo.Create(ctx, user); err != nil {
		s.logger.Error("user register failed",
			zap.String(logger.FieldEmail, email),
			zap.Error(err))
		return nil, code.ErrorUserRegisterFailed
	}

	s.logger.Info("user registered",
		zap.String(logger.FieldUID, user.UID),
		zap.String(logger.FieldEmail, email))

	out := s.toDTO(user)
	if token, terr := s.tokenManager.Generate(user.UID, user.Email, ip); terr == nil {
		out.Token = token
	}
	return out, nil
}

// Login 验证邮箱密码并签发 token
func (s *userService) Login(ctx context.Context, params *dto.UserLoginRequest, ip string) (*UserDTO, error) {
	email := util.NormalizeEmail(params.Email)

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, code.ErrorUserLoginFailed
		}
		return nil, code.ErrorDBQuery
	}

	if !util.CheckPasswordHash(params.Password, user.Password) {
		return nil, code.ErrorUserLoginFailed
	}

	token, err := s.tokenManager.Generate(user.UID, user.Email, ip)
	if err != nil {
		s.logger.Error("token generate failed",
			zap.String(logger.FieldUID, user.UID),
			zap.Error(err))
		return nil, code.ErrorUserLoginFailed
	}

	out := s.toDTO(user)
	out.Token = token
	return out, nil
}

// Get 按 uid 读取档案
func (s *userService) Get(ctx context.Context, uid string) (*UserDTO, error) {
	user, err := s.userRepo.GetByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, code.ErrorUserNotFound
		}
		return nil, code.ErrorDBQuery
	}
	return s.toDTO(user), nil
}
