package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

// NatsPublisher 通过 NATS 发布变更事件。
//
// 主题格式：<prefix>.<entity>.<action>，例如 repokit.entity.user.updated，
// 订阅方可以按实体或按动作做通配订阅。
type NatsPublisher struct {
	conn    *nats.Conn
	prefix  string
	flushed bool
}

// NatsOption 配置 NatsPublisher。
type NatsOption func(*NatsPublisher)

// WithSubjectPrefix 设置主题前缀，默认 repokit.entity。
func WithSubjectPrefix(prefix string) NatsOption {
	return func(p *NatsPublisher) {
		if prefix != "" {
			p.prefix = prefix
		}
	}
}

// WithFlush 每次发布后同步 Flush，确保事件离开客户端缓冲。
func WithFlush() NatsOption {
	return func(p *NatsPublisher) { p.flushed = true }
}

// NewNatsPublisher 创建 NATS 发布者。
func NewNatsPublisher(conn *nats.Conn, opts ...NatsOption) (*NatsPublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("notify: nats connection is nil")
	}
	p := &NatsPublisher{
		conn:   conn,
		prefix: "repokit.entity",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *NatsPublisher) Publish(ctx context.Context, event ChangeEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("notify: marshal change event: %w", err)
	}

	subject := fmt.Sprintf("%s.%s.%s", p.prefix, event.Entity, event.Action)
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("notify: publish to %s: %w", subject, err)
	}
	if p.flushed {
		if err := p.conn.FlushWithContext(ctx); err != nil {
			return fmt.Errorf("notify: flush: %w", err)
		}
	}
	return nil
}
