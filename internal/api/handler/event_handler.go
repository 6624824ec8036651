package handler

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Nefnief-tech/gardes-v2/pkg/events"
)

// heartbeatInterval 空闲时的心跳间隔，避免代理断开长连接
const heartbeatInterval = 25 * time.Second

// Subscriber 事件订阅源（events.Bus 实现）
type Subscriber interface {
	Subscribe() (<-chan events.Event, func())
}

// EventHandler 事件流 HTTP 处理器
type EventHandler struct {
	subscriber Subscriber
	heartbeat  time.Duration
}

// NewEventHandler 创建 EventHandler
func NewEventHandler(subscriber Subscriber) *EventHandler {
	return &EventHandler{subscriber: subscriber, heartbeat: heartbeatInterval}
}

// Stream 以 Server-Sent Events 推送 subjectsChanged / syncPreferenceChanged
// GET /api/v1/events
func (h *EventHandler) Stream(c *gin.Context) {
	ch, cancel := h.subscriber.Subscribe()
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(string(ev.Type), ev)
			return true
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"at": time.Now().UTC()})
			return true
		}
	})
}
