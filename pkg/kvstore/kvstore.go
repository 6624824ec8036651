package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/Nefnief-tech/gardes-v2/config"
)

// ErrNotFound 键不存在
var ErrNotFound = errors.New("kvstore: key not found")

// Store 本地持久化键值存储
// 值以整体覆盖写入，不提供跨键事务
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open 根据配置打开本地存储
// driver 为 none 时返回 (nil, nil)，调用方视为没有持久化上下文
func Open(cfg *config.LocalConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case "badger":
		s, err = OpenBadger(cfg.Path)
	case "memory":
		s, err = OpenBadgerInMemory()
	case "sqlite":
		s, err = OpenSQLite(cfg.Path)
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("不支持的本地存储驱动: %s", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
