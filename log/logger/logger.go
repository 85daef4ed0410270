// Package logger 定义日志接口，默认实现基于 log/slog
package logger

import "context"

// Logger 与 slog.Logger 的方法集一致，便于替换实现和在测试中注入
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)

	With(args ...any) Logger
	WithGroup(name string) Logger
}

var _ Logger = (*SLog)(nil)
