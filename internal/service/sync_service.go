package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Nefnief-tech/gardes-v2/config"
	"github.com/Nefnief-tech/gardes-v2/internal/model"
	"github.com/Nefnief-tech/gardes-v2/internal/repository"
	apperrors "github.com/Nefnief-tech/gardes-v2/pkg/errors"
	"github.com/Nefnief-tech/gardes-v2/pkg/events"
)

// LoadSource 集合的数据来源
type LoadSource string

const (
	SourceLocal LoadSource = "local"
	SourceCloud LoadSource = "cloud"
)

// SyncOptions 每次调用携带的同步上下文
// UserID 为空或 SyncEnabled 为 false 时只走本地
type SyncOptions struct {
	UserID      string
	SyncEnabled bool
}

// LoadResult 读取结果
type LoadResult struct {
	Subjects []model.Subject
	Source   LoadSource
}

// SyncResult 写入结果：本地写入是否成功、是否尝试了云端推送、推送是否成功
type SyncResult struct {
	LocalOK        bool `json:"localOk"`
	CloudAttempted bool `json:"cloudAttempted"`
	CloudOK        bool `json:"cloudOk"`
}

// Degraded 本地成功但云端推送失败
func (r SyncResult) Degraded() bool {
	return r.LocalOK && r.CloudAttempted && !r.CloudOK
}

// SyncService 本地存储 + 可选云端镜像的编排器
type SyncService interface {
	// Load 永不返回错误：云端失败时静默回退到本地
	Load(ctx context.Context, opts SyncOptions) *LoadResult
	// Save 先写本地，再尽力推送云端；仅本地写入失败时返回错误
	Save(ctx context.Context, subjects []model.Subject, opts SyncOptions) (SyncResult, error)
	// CloudActive 判断本次调用是否会访问云端
	CloudActive(opts SyncOptions) bool
}

type syncService struct {
	cloudEnabled bool
	cloudTimeout time.Duration
	local        repository.LocalSubjectStore
	mirror       repository.CloudMirror
	publisher    events.Publisher
	logger       *zap.Logger
}

// NewSyncService 创建 SyncService 实例
// cloud_enabled 在构造时注入，之后不再变化
func NewSyncService(
	feature *config.FeatureConfig,
	repo *repository.Repository,
	publisher events.Publisher,
	logger *zap.Logger,
) SyncService {
	return &syncService{
		cloudEnabled: feature.CloudEnabled,
		cloudTimeout: feature.CloudTimeout,
		local:        repo.Local,
		mirror:       repo.Cloud,
		publisher:    publisher,
		logger:       logger,
	}
}

func (s *syncService) CloudActive(opts SyncOptions) bool {
	return s.cloudEnabled && opts.UserID != "" && opts.SyncEnabled && s.mirror != nil
}

func (s *syncService) Load(ctx context.Context, opts SyncOptions) *LoadResult {
	if s.CloudActive(opts) {
		subjects, err := s.fetch(ctx, opts.UserID)
		switch {
		case err != nil:
			s.logger.Warn("云端读取失败，回退本地", zap.String("user_id", opts.UserID), zap.Error(err))
		case len(subjects) == 0:
			s.logger.Debug("云端无数据，使用本地", zap.String("user_id", opts.UserID))
		case !model.ValidateSubjects(subjects):
			s.logger.Warn("云端数据不完整，回退本地", zap.String("user_id", opts.UserID))
		default:
			// 云端旧数据同样需要补齐权重并重算平均分
			migrated := model.MigrateSubjects(subjects)
			// 写穿到本地；失败不影响返回云端数据
			if err := s.local.Save(ctx, migrated); err != nil {
				s.logger.Warn("云端数据写入本地失败", zap.Error(err))
			}
			return &LoadResult{Subjects: migrated, Source: SourceCloud}
		}
	}

	return &LoadResult{Subjects: s.local.Load(ctx), Source: SourceLocal}
}

func (s *syncService) Save(ctx context.Context, subjects []model.Subject, opts SyncOptions) (SyncResult, error) {
	var result SyncResult

	localErr := s.local.Save(ctx, subjects)
	result.LocalOK = localErr == nil

	if s.CloudActive(opts) {
		result.CloudAttempted = true
		ok, err := s.push(ctx, opts.UserID, subjects)
		switch {
		case err != nil:
			s.logger.Warn("云端推送失败", zap.String("user_id", opts.UserID), zap.Error(err))
		case !ok:
			s.logger.Warn("云端推送未生效", zap.String("user_id", opts.UserID))
		default:
			result.CloudOK = true
		}
		if !result.CloudOK && s.publisher != nil {
			s.publisher.Publish(events.SyncPreference(opts.SyncEnabled, true))
		}
	}

	if localErr != nil {
		return result, localErr
	}
	return result, nil
}

// fetch 在超时上下文中读取云端；对端 panic 视同网络错误
func (s *syncService) fetch(ctx context.Context, userID string) (subjects []model.Subject, err error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			subjects = nil
			err = fmt.Errorf("%w: %v", apperrors.ErrNetwork, r)
		}
	}()

	return s.mirror.Fetch(ctx, userID)
}

func (s *syncService) push(ctx context.Context, userID string, subjects []model.Subject) (ok bool, err error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			ok = false
			err = fmt.Errorf("%w: %v", apperrors.ErrNetwork, r)
		}
	}()

	return s.mirror.Push(ctx, userID, subjects)
}

func (s *syncService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cloudTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cloudTimeout)
}
