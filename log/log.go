package log

import (
	"context"
	"sync/atomic"

	"github.com/terminatorcore/terminator/log/logger"
	"github.com/terminatorcore/terminator/refx"
)

type (
	Logger  = logger.Logger
	Options = logger.SLogOptions
)

type holder struct{ logger Logger }

var defaultLogger atomic.Value

func init() {
	l, err := logger.NewSLogWithOptions(&Options{Level: "info", Format: "text"})
	if err != nil {
		panic("failed to initialize default logger: " + err.Error())
	}
	defaultLogger.Store(holder{logger: l})
}

// Default 返回进程级别的默认日志器
func Default() Logger {
	return defaultLogger.Load().(holder).logger
}

// SetDefault 替换默认日志器，nil 会被忽略
func SetDefault(l Logger) {
	if l != nil {
		defaultLogger.Store(holder{logger: l})
	}
}

func NewLogWithOptions(options *Options) (Logger, error) {
	return logger.NewSLogWithOptions(options)
}

// ContextWith 在 ctx 上追加日志字段，*Context 方法输出时附带
func ContextWith(ctx context.Context, args ...any) context.Context {
	return logger.ContextWith(ctx, args...)
}

// NewLoggerWithOptions 通过注册表创建日志器，options 为空时返回默认日志器
func NewLoggerWithOptions(options *refx.TypeOptions) (Logger, error) {
	if options == nil || options.Type == "" {
		return Default(), nil
	}
	return refx.Build[Logger](options)
}
