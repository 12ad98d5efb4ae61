// Package logging 定义仓储基础设施的日志契约。
//
// 仓储只在少数路径打日志：写入确认走 debug，Try 变体吞掉的冲突、
// 事件发布失败与缓存故障降级走 warn，事务回滚失败走 error。
// 接口按这些场景收敛；库默认静默，装配方通过 SetLogger 或
// 各组件的 WithLogger 选项注入实现（zap 适配见 zap.go）。
package logging

import "context"

// Logger 结构化日志接口。
// 所有方法携带 context，便于实现方提取 trace 信息。
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Field)
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)

	// WithFields 返回携带固定附加字段的派生 Logger
	WithFields(fields ...Field) Logger
}

// Field 单个结构化字段。
type Field struct {
	Key   string
	Value any
}

// String 字符串字段：实体名、动作、缓存键。
func String(key, value string) Field { return Field{Key: key, Value: value} }

// Int 整型字段：批量条数。
func Int(key string, value int) Field { return Field{Key: key, Value: value} }

// Int64 int64 字段：影响行数。
func Int64(key string, value int64) Field { return Field{Key: key, Value: value} }

// Any 任意值字段：主键、键列表。
func Any(key string, value any) Field { return Field{Key: key, Value: value} }

// Error 错误字段，键固定为 error。
func Error(err error) Field { return Field{Key: "error", Value: err} }

// NoopLogger 静默实现，库的默认值，也用于测试。
type NoopLogger struct{}

// NewNoopLogger 创建静默 Logger。
func NewNoopLogger() *NoopLogger { return &NoopLogger{} }

func (*NoopLogger) Debug(context.Context, string, ...Field) {}
func (*NoopLogger) Info(context.Context, string, ...Field)  {}
func (*NoopLogger) Warn(context.Context, string, ...Field)  {}
func (*NoopLogger) Error(context.Context, string, ...Field) {}

func (l *NoopLogger) WithFields(...Field) Logger { return l }

// 包级默认 Logger。库自身不选日志后端，默认丢弃全部输出。
var defaultLogger Logger = NewNoopLogger()

// SetLogger 替换包级默认 Logger；nil 被忽略。
func SetLogger(logger Logger) {
	if logger != nil {
		defaultLogger = logger
	}
}

// GetLogger 返回包级默认 Logger。
func GetLogger() Logger { return defaultLogger }
