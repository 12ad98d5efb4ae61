package logging

import (
	"context"

	"go.uber.org/zap"
)

// ZapLogger 基于 go.uber.org/zap 的 Logger 实现。
// 通过 SetLogger 注入后替换默认的静默 Logger。
type ZapLogger struct {
	base *zap.Logger
}

// NewZapLogger 包装一个已配置的 *zap.Logger。
func NewZapLogger(base *zap.Logger) *ZapLogger {
	if base == nil {
		base = zap.NewNop()
	}
	return &ZapLogger{base: base}
}

// NewDevelopmentLogger 创建面向开发环境的 zap Logger（console 编码）。
func NewDevelopmentLogger(name string) *ZapLogger {
	l, err := zap.NewDevelopment()
	if err != nil {
		l = zap.NewNop()
	}
	return &ZapLogger{base: l.Named(name)}
}

// NewProductionLogger 创建面向生产环境的 zap Logger（JSON 编码）。
func NewProductionLogger(name string) *ZapLogger {
	l, err := zap.NewProduction()
	if err != nil {
		l = zap.NewNop()
	}
	return &ZapLogger{base: l.Named(name)}
}

func (l *ZapLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.base.Debug(msg, toZapFields(fields)...)
}

func (l *ZapLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.base.Info(msg, toZapFields(fields)...)
}

func (l *ZapLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.base.Warn(msg, toZapFields(fields)...)
}

func (l *ZapLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.base.Error(msg, toZapFields(fields)...)
}

func (l *ZapLogger) WithFields(fields ...Field) Logger {
	return &ZapLogger{base: l.base.With(toZapFields(fields)...)}
}

// Sync 刷新缓冲日志，进程退出前调用。
func (l *ZapLogger) Sync() error { return l.base.Sync() }

func toZapFields(fields []Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		switch v := f.Value.(type) {
		case error:
			out = append(out, zap.NamedError(f.Key, v))
		default:
			out = append(out, zap.Any(f.Key, f.Value))
		}
	}
	return out
}
