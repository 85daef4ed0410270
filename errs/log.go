package errs

import (
	"context"

	"github.com/terminatorcore/terminator/log"
)

// Log 按错误分类选择日志级别：Info -> Info，Business -> Warn，其余 -> Error
func Log(logger log.Logger, err error, args ...any) {
	LogContext(context.Background(), logger, err, args...)
}

func LogContext(ctx context.Context, logger log.Logger, err error, args ...any) {
	if err == nil {
		return
	}
	if logger == nil {
		logger = log.Default()
	}
	kind := KindOf(err)
	args = append(args, "kind", kind.String(), "code", CodeOf(err), "error", err.Error())
	msg := MessageOf(err)
	switch kind {
	case KindInfo:
		logger.InfoContext(ctx, msg, args...)
	case KindBusiness:
		logger.WarnContext(ctx, msg, args...)
	default:
		logger.ErrorContext(ctx, msg, args...)
	}
}
