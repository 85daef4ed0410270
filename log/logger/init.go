package logger

import "github.com/terminatorcore/terminator/refx"

func init() {
	refx.MustRegisterT[SLog](NewSLogWithOptions)
}
