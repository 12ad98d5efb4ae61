// Package notify 提供实体变更通知能力。
//
// 仓储在写操作成功后发布变更事件，订阅方据此做缓存失效、
// 读模型刷新等后续处理。通知是尽力而为的：发布失败只记录
// 日志，不影响已提交的写操作。
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Action 表示实体变更类型。
type Action string

const (
	ActionCreated     Action = "created"
	ActionUpdated     Action = "updated"
	ActionDeleted     Action = "deleted"
	ActionRestored    Action = "restored"
	ActionHardDeleted Action = "hard_deleted"
)

// ChangeEvent 实体变更事件。
// EntityID 统一以字符串表达，避免泛型污染事件通道。
type ChangeEvent struct {
	Entity     string    `json:"entity"`
	Action     Action    `json:"action"`
	EntityID   string    `json:"entity_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewChangeEvent 构造变更事件，ID 以 %v 格式化。
func NewChangeEvent(entity string, action Action, id any) ChangeEvent {
	return ChangeEvent{
		Entity:     entity,
		Action:     action,
		EntityID:   fmt.Sprintf("%v", id),
		OccurredAt: time.Now(),
	}
}

// IPublisher 变更事件发布者。
type IPublisher interface {
	Publish(ctx context.Context, event ChangeEvent) error
}

// NoopPublisher 丢弃所有事件。
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, ChangeEvent) error { return nil }

// MemoryPublisher 进程内发布者，主要用于测试与单机场景。
// 记录全部事件并同步分发给订阅者。
type MemoryPublisher struct {
	mu       sync.Mutex
	events   []ChangeEvent
	handlers []func(ChangeEvent)
}

// NewMemoryPublisher 创建进程内发布者。
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

// Subscribe 注册事件处理函数，在 Publish 的调用栈内同步执行。
func (p *MemoryPublisher) Subscribe(handler func(ChangeEvent)) {
	if handler == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers = append(p.handlers, handler)
}

func (p *MemoryPublisher) Publish(_ context.Context, event ChangeEvent) error {
	p.mu.Lock()
	p.events = append(p.events, event)
	handlers := make([]func(ChangeEvent), len(p.handlers))
	copy(handlers, p.handlers)
	p.mu.Unlock()

	for _, handler := range handlers {
		handler(event)
	}
	return nil
}

// Events 返回已发布事件的副本。
func (p *MemoryPublisher) Events() []ChangeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	events := make([]ChangeEvent, len(p.events))
	copy(events, p.events)
	return events
}

// Reset 清空事件记录。
func (p *MemoryPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}
