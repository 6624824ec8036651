package events

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe()
	defer cancel()

	bus.Publish(Event{Type: SubjectsChanged})

	select {
	case ev := <-ch:
		if ev.Type != SubjectsChanged {
			t.Errorf("期望 %s，实际 %s", SubjectsChanged, ev.Type)
		}
		if ev.At.IsZero() {
			t.Error("Publish 应补齐事件时间")
		}
	case <-time.After(time.Second):
		t.Fatal("未收到事件")
	}
}

func TestBus_CancelRemovesSubscriber(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe()
	if bus.SubscriberCount() != 1 {
		t.Fatalf("期望 1 个订阅者，实际 %d", bus.SubscriberCount())
	}

	cancel()
	cancel() // 重复取消不应 panic

	if bus.SubscriberCount() != 0 {
		t.Errorf("取消后期望 0 个订阅者，实际 %d", bus.SubscriberCount())
	}
	if _, ok := <-ch; ok {
		t.Error("取消后通道应关闭")
	}

	// 无订阅者时发布不应阻塞
	bus.Publish(Event{Type: SubjectsChanged})
}

func TestBus_SlowSubscriberDoesNotBlock(t *testing.T) {
	bus := NewBus()
	_, cancel := bus.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < defaultBuffer*4; i++ {
			bus.Publish(Event{Type: SubjectsChanged})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("订阅者未消费时 Publish 不应阻塞")
	}
}

func TestSyncPreference(t *testing.T) {
	ev := SyncPreference(false, true)
	if ev.Type != SyncPreferenceChanged || ev.SyncEnabled == nil || *ev.SyncEnabled || !ev.Degraded {
		t.Errorf("事件字段不符: %+v", ev)
	}
}

// ── Bridge ──

type fakeBroker struct {
	mu        sync.Mutex
	published [][]byte
	sent      chan []byte
	incoming  chan []byte
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{sent: make(chan []byte, 8), incoming: make(chan []byte, 8)}
}

func (f *fakeBroker) Publish(_ context.Context, _ string, payload []byte) error {
	f.mu.Lock()
	f.published = append(f.published, payload)
	f.mu.Unlock()
	f.sent <- payload
	return nil
}

func (f *fakeBroker) Subscribe(_ context.Context, _ string) (<-chan []byte, func() error) {
	return f.incoming, func() error { return nil }
}

func TestRedisBridge_PublishFansOut(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe()
	defer cancel()

	broker := newFakeBroker()
	bridge := NewRedisBridge(bus, broker, "gardes:events", zap.NewNop())

	bridge.Publish(Event{Type: SubjectsChanged})

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("本地总线未收到事件")
	}

	select {
	case payload := <-broker.sent:
		var ev Event
		if err := json.Unmarshal(payload, &ev); err != nil {
			t.Fatalf("payload 解析失败: %v", err)
		}
		if ev.Origin != bridge.origin {
			t.Errorf("期望 origin=%s，实际=%s", bridge.origin, ev.Origin)
		}
	case <-time.After(time.Second):
		t.Fatal("Broker 未收到事件")
	}
}

func TestRedisBridge_RunForwardsRemoteAndSkipsOwn(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe()
	defer cancel()

	broker := newFakeBroker()
	bridge := NewRedisBridge(bus, broker, "gardes:events", zap.NewNop())

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go bridge.Run(ctx)

	own, _ := json.Marshal(Event{Type: SubjectsChanged, Origin: bridge.origin})
	broker.incoming <- own
	broker.incoming <- []byte("not json")
	remote, _ := json.Marshal(Event{Type: SyncPreferenceChanged, Origin: "other-instance"})
	broker.incoming <- remote

	select {
	case ev := <-ch:
		if ev.Type != SyncPreferenceChanged {
			t.Errorf("期望仅转发远端事件，实际收到 %s", ev.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("未转发远端事件")
	}
}
