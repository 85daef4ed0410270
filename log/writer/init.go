package writer

import "github.com/terminatorcore/terminator/refx"

const Namespace = "github.com/terminatorcore/terminator/log/writer"

func init() {
	refx.MustRegister(Namespace, "ConsoleWriter", NewConsoleWriterWithOptions)
	refx.MustRegister(Namespace, "FileWriter", NewFileWriterWithOptions)
	refx.MustRegister(Namespace, "MultiWriter", NewMultiWriterWithOptions)
}
