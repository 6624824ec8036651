package model

import (
	"time"

	"gorm.io/datatypes"
)

// SubjectSnapshot 云端镜像表，对应 subject_snapshots
// 与本地存储相同的粒度：每个用户一行，Payload 为完整科目集合的 JSON
type SubjectSnapshot struct {
	UserID    string         `gorm:"type:uuid;primaryKey"                 json:"user_id"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"                  json:"payload"`
	UpdatedAt time.Time      `gorm:"not null"                            json:"updated_at"`
}

// TableName 指定表名
func (SubjectSnapshot) TableName() string { return "subject_snapshots" }
