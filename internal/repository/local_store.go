package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Nefnief-tech/gardes-v2/internal/model"
	apperrors "github.com/Nefnief-tech/gardes-v2/pkg/errors"
	"github.com/Nefnief-tech/gardes-v2/pkg/events"
	"github.com/Nefnief-tech/gardes-v2/pkg/kvstore"
)

// LocalSubjectStore 本地科目集合存储接口
// 存储粒度为整个科目集合：每次修改都是整体读-改-写，后写入者覆盖先写入者
type LocalSubjectStore interface {
	// Load 读取集合，永不返回错误：无数据或数据损坏时重置为默认科目
	Load(ctx context.Context) []model.Subject
	// Save 整体写入集合，成功后广播 subjectsChanged
	Save(ctx context.Context, subjects []model.Subject) error
	// Clear 删除存储的集合（仅管理/测试用途）
	Clear(ctx context.Context) error
}

// localStore 基于 kvstore 的实现
// kv 为 nil 表示没有持久化上下文
type localStore struct {
	kv        kvstore.Store
	key       string
	publisher events.Publisher
	logger    *zap.Logger
}

// NewLocalStore 创建 LocalSubjectStore 实例
func NewLocalStore(kv kvstore.Store, key string, publisher events.Publisher, logger *zap.Logger) LocalSubjectStore {
	return &localStore{
		kv:        kv,
		key:       key,
		publisher: publisher,
		logger:    logger,
	}
}

// ────────────────────── Load ──────────────────────

func (s *localStore) Load(ctx context.Context) []model.Subject {
	if s.kv == nil {
		return model.DefaultSubjects()
	}

	raw, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return s.resetToDefaults(ctx)
		}
		// 读取故障不代表数据缺失，不覆盖已有数据
		s.logger.Error("读取本地科目数据失败", zap.String("key", s.key), zap.Error(err))
		return model.DefaultSubjects()
	}

	subjects, err := decodeSubjects(raw)
	if err != nil {
		s.logger.Warn("本地科目数据损坏，重置为默认科目", zap.String("key", s.key), zap.Error(err))
		return s.resetToDefaults(ctx)
	}

	if len(subjects) == 0 {
		return subjects
	}

	migrated := model.MigrateSubjects(subjects)
	if changed(subjects, migrated) {
		if err := s.Save(ctx, migrated); err != nil {
			s.logger.Warn("迁移后回写失败，本次仍返回迁移结果", zap.Error(err))
		} else {
			s.logger.Info("本地科目数据已迁移", zap.Int("subjects", len(migrated)))
		}
	}

	return migrated
}

func (s *localStore) resetToDefaults(ctx context.Context) []model.Subject {
	defaults := model.DefaultSubjects()
	if err := s.Save(ctx, defaults); err != nil {
		s.logger.Warn("写入默认科目失败", zap.Error(err))
	}
	return defaults
}

// decodeSubjects 解析存储的 JSON；null、非数组或缺少 id/name 的数据视为损坏
func decodeSubjects(raw []byte) ([]model.Subject, error) {
	var subjects []model.Subject
	if err := json.Unmarshal(raw, &subjects); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrParse, err)
	}
	if subjects == nil {
		return nil, fmt.Errorf("%w: 数据为空", apperrors.ErrParse)
	}
	if !model.ValidateSubjects(subjects) {
		return nil, fmt.Errorf("%w: 科目缺少 id 或名称", apperrors.ErrParse)
	}
	return subjects, nil
}

func changed(before, after []model.Subject) bool {
	a, errA := json.Marshal(before)
	b, errB := json.Marshal(after)
	if errA != nil || errB != nil {
		return true
	}
	return !bytes.Equal(a, b)
}

// ────────────────────── Save ──────────────────────

func (s *localStore) Save(ctx context.Context, subjects []model.Subject) error {
	if s.kv == nil {
		return fmt.Errorf("%w: 无可用的本地存储", apperrors.ErrSerialization)
	}

	data, err := json.Marshal(subjects)
	if err != nil {
		s.logger.Error("序列化科目数据失败", zap.Error(err))
		return fmt.Errorf("%w: %v", apperrors.ErrSerialization, err)
	}

	if err := s.kv.Set(ctx, s.key, data); err != nil {
		s.logger.Error("写入本地科目数据失败", zap.String("key", s.key), zap.Error(err))
		return fmt.Errorf("%w: %v", apperrors.ErrSerialization, err)
	}

	if s.publisher != nil {
		s.publisher.Publish(events.Event{Type: events.SubjectsChanged})
	}
	return nil
}

// ────────────────────── Clear ──────────────────────

func (s *localStore) Clear(ctx context.Context) error {
	if s.kv == nil {
		return nil
	}
	return s.kv.Delete(ctx, s.key)
}
