package events

import (
	"sync"
	"time"
)

// EventType 通知类型
type EventType string

const (
	// SubjectsChanged 本地保存成功后触发，其他视图据此刷新
	SubjectsChanged EventType = "subjectsChanged"
	// SyncPreferenceChanged 同步偏好变更或云端推送失败（Degraded=true）时触发
	SyncPreferenceChanged EventType = "syncPreferenceChanged"
)

// defaultBuffer 订阅者通道缓冲，满时丢弃事件（广播语义为尽力而为）
const defaultBuffer = 16

// Event 进程内广播事件，除 SyncEnabled 外无负载约定
type Event struct {
	Type        EventType `json:"type"`
	SyncEnabled *bool     `json:"syncEnabled,omitempty"`
	Degraded    bool      `json:"degraded,omitempty"`
	Origin      string    `json:"origin,omitempty"`
	At          time.Time `json:"at"`
}

// Publisher 事件发布者
type Publisher interface {
	Publish(ev Event)
}

// Bus 进程内发布/订阅总线
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]chan Event
}

// NewBus 创建事件总线
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Publish 向所有订阅者广播，不阻塞发布方
func (b *Bus) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			// 订阅者消费过慢，丢弃
		}
	}
}

// Subscribe 注册订阅者，返回事件通道与取消函数
// 取消函数可重复调用
func (b *Bus) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, defaultBuffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// SubscriberCount 当前订阅者数量
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// SyncPreference 构造同步偏好事件
func SyncPreference(enabled bool, degraded bool) Event {
	return Event{
		Type:        SyncPreferenceChanged,
		SyncEnabled: &enabled,
		Degraded:    degraded,
	}
}
