package cfg

import (
	"fmt"
	"sync"

	"github.com/terminatorcore/terminator/cfg/decoder"
	"github.com/terminatorcore/terminator/cfg/provider"
	"github.com/terminatorcore/terminator/cfg/storage"
	"github.com/terminatorcore/terminator/log"
	"github.com/terminatorcore/terminator/refx"
)

// Options 配置类初始化选项
type Options struct {
	Provider refx.TypeOptions `cfg:"provider"`
	Decoder  refx.TypeOptions `cfg:"decoder"`
	// 环境变量前缀，非空时环境变量覆盖文件中的同名配置
	EnvPrefix string `cfg:"envPrefix"`
}

// Config 配置管理器
// 提供配置数据的统一访问入口和变更监听功能
type Config struct {
	root   *Config
	prefix string

	// 只有根配置才使用以下字段
	provider  provider.Provider
	decoder   decoder.Decoder
	envPrefix string
	logger    log.Logger

	mu       sync.RWMutex
	storage  storage.Storage
	handlers []changeHandler

	closeOnce   sync.Once
	closeResult error
}

type changeHandler struct {
	prefix string
	fn     func(*Config) error
}

// NewConfig 从文件创建配置，解码器由扩展名决定
// envPrefix 非空时，<envPrefix>DATABASE_HOST 会覆盖文件中的 database.host
func NewConfig(filename string, envPrefix string) (*Config, error) {
	if filename == "" {
		return nil, fmt.Errorf("filename cannot be empty")
	}
	decoderType, err := decoder.TypeForFile(filename)
	if err != nil {
		return nil, err
	}
	return NewConfigWithOptions(&Options{
		Provider: refx.TypeOptions{
			Namespace: provider.Namespace,
			Type:      "FileProvider",
			Options:   &provider.FileProviderOptions{FilePath: filename},
		},
		Decoder: refx.TypeOptions{
			Namespace: decoder.Namespace,
			Type:      decoderType,
		},
		EnvPrefix: envPrefix,
	})
}

func NewConfigWithOptions(options *Options) (*Config, error) {
	if options == nil {
		return nil, fmt.Errorf("options cannot be nil")
	}

	prov, err := refx.Build[provider.Provider](&options.Provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}

	dec, err := decoder.NewDecoderWithOptions(&options.Decoder)
	if err != nil {
		_ = prov.Close()
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	c := &Config{
		provider:  prov,
		decoder:   dec,
		envPrefix: options.EnvPrefix,
		logger:    log.Default(),
	}
	c.root = c

	data, err := prov.Load()
	if err != nil {
		_ = prov.Close()
		return nil, fmt.Errorf("failed to load data from provider: %w", err)
	}
	if c.storage, err = c.decode(data); err != nil {
		_ = prov.Close()
		return nil, err
	}

	prov.OnChange(c.handleProviderChange)
	return c, nil
}

func (c *Config) decode(data []byte) (storage.Storage, error) {
	stor, err := c.decoder.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode data: %w", err)
	}
	if c.envPrefix != "" {
		stor = storage.NewEnvStorage(stor, c.envPrefix)
	}
	return storage.NewValidateStorage(stor), nil
}

// Sub 获取子配置对象，key 为空时返回自身
func (c *Config) Sub(key string) *Config {
	if key == "" {
		return c
	}
	prefix := key
	if c.prefix != "" {
		prefix = c.prefix + "." + key
	}
	return &Config{root: c.root, prefix: prefix}
}

// ConvertTo 将配置数据转成结构体或者 map/slice 等任意结构
// 零值字段使用 def tag 填充，随后按 validate tag 校验
func (c *Config) ConvertTo(object any) error {
	c.root.mu.RLock()
	stor := c.root.storage
	c.root.mu.RUnlock()
	return stor.Sub(c.prefix).ConvertTo(object)
}

// SetLogger 设置日志记录器，作用于根配置
func (c *Config) SetLogger(logger log.Logger) {
	if logger == nil {
		return
	}
	c.root.mu.Lock()
	defer c.root.mu.Unlock()
	c.root.logger = logger
}

// OnChange 注册配置变更回调，回调参数是注册时所在的（子）配置
func (c *Config) OnChange(fn func(*Config) error) {
	c.root.mu.Lock()
	defer c.root.mu.Unlock()
	c.root.handlers = append(c.root.handlers, changeHandler{prefix: c.prefix, fn: fn})
}

// Watch 启动配置变更监听
func (c *Config) Watch() error {
	return c.root.provider.Watch()
}

func (c *Config) handleProviderChange(data []byte) error {
	stor, err := c.decode(data)
	if err != nil {
		c.currentLogger().Warn("ignore invalid config change", "error", err)
		return err
	}

	c.mu.Lock()
	c.storage = stor
	handlers := append([]changeHandler{}, c.handlers...)
	c.mu.Unlock()

	for _, h := range handlers {
		sub := c.Sub(h.prefix)
		if err := h.fn(sub); err != nil {
			c.currentLogger().Warn("config change handler failed", "key", h.prefix, "error", err)
		}
	}
	return nil
}

func (c *Config) currentLogger() log.Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.logger
}

// Close 关闭配置对象，子配置会转发到根配置，多次调用返回第一次的结果
func (c *Config) Close() error {
	root := c.root
	root.closeOnce.Do(func() {
		root.closeResult = root.provider.Close()
	})
	return root.closeResult
}
