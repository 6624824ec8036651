package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const bridgePublishTimeout = 2 * time.Second

// Broker 跨进程消息通道（由 pkg/redis.Client 实现）
type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func() error)
}

// RedisBridge 将本地事件同时广播到 Broker，并把其他实例的事件转发到本地总线
// 每个实例持有唯一 origin，用于忽略自身回环消息
type RedisBridge struct {
	bus     *Bus
	broker  Broker
	channel string
	origin  string
	logger  *zap.Logger
}

// NewRedisBridge 创建事件桥
func NewRedisBridge(bus *Bus, broker Broker, channel string, logger *zap.Logger) *RedisBridge {
	return &RedisBridge{
		bus:     bus,
		broker:  broker,
		channel: channel,
		origin:  uuid.NewString(),
		logger:  logger,
	}
}

// Publish 先投递本地总线，再异步推送到 Broker
func (r *RedisBridge) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	r.bus.Publish(ev)

	ev.Origin = r.origin
	payload, err := json.Marshal(ev)
	if err != nil {
		r.logger.Warn("事件序列化失败", zap.String("type", string(ev.Type)), zap.Error(err))
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), bridgePublishTimeout)
		defer cancel()
		if err := r.broker.Publish(ctx, r.channel, payload); err != nil {
			r.logger.Warn("事件广播失败", zap.String("channel", r.channel), zap.Error(err))
		}
	}()
}

// Run 持续转发其他实例的事件，直到 ctx 取消
func (r *RedisBridge) Run(ctx context.Context) {
	msgs, closeFn := r.broker.Subscribe(ctx, r.channel)
	defer func() {
		if err := closeFn(); err != nil {
			r.logger.Warn("关闭事件订阅失败", zap.Error(err))
		}
	}()

	r.logger.Info("事件桥已启动", zap.String("channel", r.channel), zap.String("origin", r.origin))

	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-msgs:
			if !ok {
				return
			}
			var ev Event
			if err := json.Unmarshal(payload, &ev); err != nil {
				r.logger.Warn("忽略无法解析的事件", zap.Error(err))
				continue
			}
			if ev.Origin == r.origin {
				continue
			}
			r.bus.Publish(ev)
		}
	}
}
