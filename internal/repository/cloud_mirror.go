package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Nefnief-tech/gardes-v2/internal/model"
	apperrors "github.com/Nefnief-tech/gardes-v2/pkg/errors"
)

// CloudMirror 云端镜像接口（不可靠的可选对端）
type CloudMirror interface {
	// Fetch 读取用户的云端集合；云端无数据时返回空集合与 nil
	Fetch(ctx context.Context, userID string) ([]model.Subject, error)
	// Push 覆盖写入用户的云端集合；返回 false 表示未写入任何记录
	Push(ctx context.Context, userID string, subjects []model.Subject) (bool, error)
}

// cloudMirror CloudMirror 的 GORM 实现，每个用户一行完整快照
type cloudMirror struct {
	db *gorm.DB
}

// NewCloudMirror 创建 CloudMirror 实例
func NewCloudMirror(db *gorm.DB) CloudMirror {
	return &cloudMirror{db: db}
}

func (r *cloudMirror) Fetch(ctx context.Context, userID string) ([]model.Subject, error) {
	var snap model.SubjectSnapshot
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&snap).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", apperrors.ErrNetwork, err)
	}

	var subjects []model.Subject
	if err := json.Unmarshal(snap.Payload, &subjects); err != nil {
		return nil, fmt.Errorf("%w: 云端数据格式错误: %v", apperrors.ErrParse, err)
	}
	return subjects, nil
}

func (r *cloudMirror) Push(ctx context.Context, userID string, subjects []model.Subject) (bool, error) {
	payload, err := json.Marshal(subjects)
	if err != nil {
		return false, fmt.Errorf("%w: %v", apperrors.ErrSerialization, err)
	}

	snap := model.SubjectSnapshot{
		UserID:    userID,
		Payload:   datatypes.JSON(payload),
		UpdatedAt: time.Now(),
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&snap)
	if result.Error != nil {
		return false, fmt.Errorf("%w: %v", apperrors.ErrNetwork, result.Error)
	}
	return result.RowsAffected > 0, nil
}
