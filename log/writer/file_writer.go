package writer

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileWriterOptions 文件输出配置
type FileWriterOptions struct {
	// 文件路径
	Path string `cfg:"path" validate:"required"`
	// 单个文件最大大小（MB）
	MaxSize int `cfg:"maxSize" def:"50"`
	// 最大备份数量，0 表示不限制
	MaxBackups int `cfg:"maxBackups" def:"5"`
	// 最大保留天数，0 表示不限制
	MaxAge int `cfg:"maxAge" def:"30"`
	// 是否压缩旧文件
	Compress bool `cfg:"compress"`
}

// FileWriter 按大小轮转的文件输出器
type FileWriter struct {
	logger *lumberjack.Logger
}

func NewFileWriterWithOptions(options *FileWriterOptions) (*FileWriter, error) {
	if options == nil || options.Path == "" {
		return nil, fmt.Errorf("file path is required")
	}

	dir := filepath.Dir(options.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	return &FileWriter{
		logger: &lumberjack.Logger{
			Filename:   options.Path,
			MaxSize:    options.MaxSize,
			MaxBackups: options.MaxBackups,
			MaxAge:     options.MaxAge,
			Compress:   options.Compress,
		},
	}, nil
}

func (f *FileWriter) Write(p []byte) (int, error) {
	return f.logger.Write(p)
}

func (f *FileWriter) Close() error {
	return f.logger.Close()
}
