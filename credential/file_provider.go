package credential

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/terminatorcore/terminator/log"
)

type FileProviderOptions struct {
	Path string `cfg:"path" def:"/nas/zbase/security-credentials/ali_ram"`
}

// FileProvider 从凭证文件读取，文件前两行分别是 AccessKeyID 和 AccessKeySecret
// 调用 Watch 后会缓存内容并在文件被改写时刷新
type FileProvider struct {
	path string

	mu      sync.RWMutex
	cached  *Credential
	watcher *fsnotify.Watcher
	logger  log.Logger
}

func NewFileProviderWithOptions(options *FileProviderOptions) (*FileProvider, error) {
	path := DefaultFilePath
	if options != nil && options.Path != "" {
		path = options.Path
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(err, "invalid credential file path")
	}
	return &FileProvider{path: absPath, logger: log.Default()}, nil
}

func (p *FileProvider) Retrieve(ctx context.Context) (*Credential, error) {
	p.mu.RLock()
	cached := p.cached
	p.mu.RUnlock()
	if cached != nil {
		c := *cached
		return &c, nil
	}
	return p.read()
}

func (p *FileProvider) read() (*Credential, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read credential file %s", p.path)
	}
	return ParseCredential(data)
}

// ParseCredential 解析两行格式的凭证内容，忽略空行和首尾空白
func ParseCredential(data []byte) (*Credential, error) {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() && len(lines) < 2 {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to scan credential")
	}
	if len(lines) < 2 {
		return nil, errors.Errorf("credential requires 2 lines, got %d", len(lines))
	}
	return &Credential{AccessKeyID: lines[0], AccessKeySecret: lines[1]}, nil
}

// Watch 读取一次文件并监听其变更
func (p *FileProvider) Watch() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.watcher != nil {
		return nil
	}

	c, err := p.read()
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		_ = watcher.Close()
		return errors.Wrap(err, "failed to watch credential directory")
	}

	p.cached = c
	p.watcher = watcher
	go p.loop(watcher)
	return nil
}

func (p *FileProvider) loop(watcher *fsnotify.Watcher) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != p.path {
				continue
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				continue
			}
			c, err := p.read()
			if err != nil {
				p.logger.Warn("keep previous credential", "path", p.path, "error", err)
				continue
			}
			p.mu.Lock()
			p.cached = c
			p.mu.Unlock()
			p.logger.Info("credential reloaded", "path", p.path, "accessKeyId", c.AccessKeyID)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.logger.Warn("credential watcher error", "error", err)
		}
	}
}

func (p *FileProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.watcher == nil {
		return nil
	}
	err := p.watcher.Close()
	p.watcher = nil
	p.cached = nil
	return err
}
