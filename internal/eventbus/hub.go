package eventbus

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const defaultSubscriberBuffer = 16

// Hub 进程内的进度事件分发。
// Publish 在技能锁内调用，因此绝不阻塞：订阅者缓冲满时丢弃并计数。
type Hub struct {
	mu      sync.RWMutex
	subs    map[chan Event]struct{}
	closed  bool
	done    chan struct{}
	dropped atomic.Int64
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{}), done: make(chan struct{})}
}

func (h *Hub) Publish(evt Event) {
	if h == nil {
		return
	}
	if evt.Timestamp == 0 {
		evt.Timestamp = time.Now().UnixMilli()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs {
		select {
		case ch <- evt:
		default:
			n := h.dropped.Add(1)
			slog.Debug("事件订阅者过慢，丢弃事件", "event", evt.Type, "dropped_total", n)
		}
	}
}

// Subscribe 订阅事件，ctx 结束或 Hub 关闭时 channel 被关闭
func (h *Hub) Subscribe(ctx context.Context, buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	ch := make(chan Event, buffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			h.unsubscribe(ch)
		case <-h.done:
		}
	}()

	return ch
}

func (h *Hub) unsubscribe(ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[ch]; !ok {
		return
	}
	delete(h.subs, ch)
	close(ch)
}

// Close 关闭全部订阅；之后的 Publish 为空操作
func (h *Hub) Close() {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	close(h.done)
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}

// Subscribers 当前订阅者数量
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped 因订阅者过慢而丢弃的事件总数
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}
