// Package writer 提供日志的输出目标，均通过 refx 按名称创建
package writer

import "io"

type Writer interface {
	io.WriteCloser
}
