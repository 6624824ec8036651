package errors

import "errors"

// ── 错误类别 ──
// 业务层使用 fmt.Errorf("%w: ...") 包装以下哨兵错误，调用方通过 errors.Is 判断类别

var (
	// ErrParse 本地存储数据格式错误（由本地存储重置为默认科目自行恢复）
	ErrParse = errors.New("存储数据解析失败")
	// ErrNotFound 科目或成绩不存在
	ErrNotFound = errors.New("记录不存在")
	// ErrDuplicateID 科目 ID 冲突
	ErrDuplicateID = errors.New("科目已存在")
	// ErrNetwork 云端镜像不可达或返回错误（始终降级为本地存储）
	ErrNetwork = errors.New("云端同步失败")
	// ErrSerialization 本地写入失败
	ErrSerialization = errors.New("本地数据写入失败")
)
